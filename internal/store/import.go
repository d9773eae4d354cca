package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"easyapply-engine/internal/domain"
)

type legacyAnswer struct {
	Answer           string   `json:"answer"`
	Options          []string `json:"options"`
	Source           string   `json:"source"`
	Timestamp        string   `json:"timestamp"`
	OriginalQuestion string   `json:"original_question"`
}

// ImportLegacyJSON merges a {signature: {answer, options, source, timestamp, original_question}}
// file into the store. A stored rule is replaced only by a strictly newer dated entry.
func (a *Answers) ImportLegacyJSON(ctx context.Context, path string) (int, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	var in map[string]legacyAnswer
	if err := json.Unmarshal(b, &in); err != nil {
		return 0, fmt.Errorf("parse %s: %w", path, err)
	}
	fi, err := os.Stat(path)
	if err != nil {
		return 0, err
	}

	n := 0
	for key, la := range in {
		sig := domain.Signature(key, "", false)
		if sig == "" {
			continue
		}
		cur, exists := a.Lookup(sig)
		ts, err := time.ParseInLocation("2006-01-02 15:04:05", la.Timestamp, time.Local)
		if err != nil {
			// undated entries never replace a stored rule; new ones are dated by the file
			if exists {
				continue
			}
			ts = fi.ModTime()
		}
		if exists && !ts.After(cur.UpdatedAt) {
			continue
		}
		q := la.OriginalQuestion
		if q == "" {
			q = key
		}
		rule := domain.AnswerRule{
			Signature: sig,
			Answer:    la.Answer,
			Options:   la.Options,
			Source:    domain.SourceImport,
			Question:  q,
			UpdatedAt: ts.UTC(),
		}
		if err := a.Upsert(ctx, rule); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
