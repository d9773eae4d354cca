package search

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"easyapply-engine/internal/config"
)

// BuildQuery renders a boolean keyword query from a template:
// (intitle:"*a*b*" OR ...) AND NOT (...) AND (skills) AND (functions).
func BuildQuery(t config.QueryTemplate) string {
	var parts []string

	if inc := titleTerms(t.TitlesInclude); len(inc) > 0 {
		parts = append(parts, "("+strings.Join(inc, " OR ")+")")
	}
	if exc := titleTerms(t.TitlesExclude); len(exc) > 0 {
		parts = append(parts, "NOT ("+strings.Join(exc, " OR ")+")")
	}
	if s := orGroup(t.Skills); s != "" {
		parts = append(parts, s)
	}
	if f := orGroup(t.Functions); f != "" {
		parts = append(parts, f)
	}
	return strings.Join(parts, " AND ")
}

func titleTerms(titles []string) []string {
	var out []string
	for _, t := range titles {
		words := strings.Fields(strings.TrimSpace(t))
		if len(words) == 0 {
			continue
		}
		out = append(out, fmt.Sprintf(`intitle:"*%s*"`, strings.Join(words, "*")))
	}
	return out
}

func orGroup(terms []string) string {
	var out []string
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if strings.ContainsAny(t, " \t") {
			t = `"` + t + `"`
		}
		out = append(out, t)
	}
	if len(out) == 0 {
		return ""
	}
	return "(" + strings.Join(out, " OR ") + ")"
}

// LoadQueryFile reads {"query": "..."}.
func LoadQueryFile(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	var f struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal(b, &f); err != nil {
		return "", fmt.Errorf("parse query file %s: %w", path, err)
	}
	if strings.TrimSpace(f.Query) == "" {
		return "", fmt.Errorf("query file %s: empty query", path)
	}
	return strings.TrimSpace(f.Query), nil
}
