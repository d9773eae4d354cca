package resolver

import (
	"context"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"easyapply-engine/internal/config"
	"easyapply-engine/internal/domain"
)

// Profile holds the facts heuristics answer from.
type Profile struct {
	YearsExperience int
	SkillYears      map[string]int
	Eligibility     []config.EligibilityRule
}

func ProfileFromConfig(cfg config.Config) Profile {
	return Profile{
		YearsExperience: cfg.Profile.YearsExperience,
		SkillYears:      cfg.Profile.SkillYears,
		Eligibility:     cfg.Profile.Eligibility,
	}
}

var reYears = regexp.MustCompile(`(?i)\byears?\b`)

// heuristic answers the questions that can be derived without asking anyone.
func (r *Resolver) heuristic(ctx context.Context, f domain.FormField, rc Context) (string, bool, error) {
	label := strings.ToLower(f.Label)

	switch f.Kind {
	case domain.KindFile:
		if strings.Contains(label, "cover") || rc.Resume == nil {
			return "", false, nil
		}
		path, err := rc.Resume(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return "", false, ctx.Err()
			}
			return "", false, nil
		}
		return path, path != "", nil

	case domain.KindBoolean, domain.KindSingleSelect:
		if v, ok := r.Profile.eligibility(label); ok {
			return v, true, nil
		}
	}

	if reYears.MatchString(label) && strings.Contains(label, "experience") {
		switch f.Kind {
		case domain.KindNumeric, domain.KindText, domain.KindSingleSelect:
			return strconv.Itoa(r.Profile.yearsFor(label)), true, nil
		}
	}
	return "", false, nil
}

func (p Profile) eligibility(label string) (string, bool) {
	for _, rule := range p.Eligibility {
		for _, term := range rule.Any {
			term = strings.ToLower(strings.TrimSpace(term))
			if term == "" || !strings.Contains(label, term) {
				continue
			}
			if rule.Answer {
				return "Yes", true
			}
			return "No", true
		}
	}
	return "", false
}

// yearsFor prefers the longest skill named in the label, so "react native" beats "react".
func (p Profile) yearsFor(label string) int {
	skills := make([]string, 0, len(p.SkillYears))
	for s := range p.SkillYears {
		skills = append(skills, s)
	}
	sort.Slice(skills, func(i, j int) bool {
		if len(skills[i]) != len(skills[j]) {
			return len(skills[i]) > len(skills[j])
		}
		return skills[i] < skills[j]
	})
	for _, s := range skills {
		if containsWord(label, strings.ToLower(s)) {
			return p.SkillYears[s]
		}
	}
	return p.YearsExperience
}

// containsWord matches w in s on word boundaries; "go" must not match "google".
func containsWord(s, w string) bool {
	if w == "" {
		return false
	}
	for i := 0; ; {
		j := strings.Index(s[i:], w)
		if j < 0 {
			return false
		}
		start, end := i+j, i+j+len(w)
		if (start == 0 || !isWordByte(s[start-1])) && (end == len(s) || !isWordByte(s[end])) {
			return true
		}
		i = start + 1
	}
}

func isWordByte(b byte) bool {
	return b == '_' || ('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z') || ('0' <= b && b <= '9')
}
