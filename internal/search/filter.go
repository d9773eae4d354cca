package search

import (
	"strings"
	"time"

	"easyapply-engine/internal/domain"
)

// Filter decides before any navigation whether a posting is worth opening.
type Filter struct {
	Criteria domain.JobFilterCriteria
	Exclude  []string // case-insensitive title substrings
}

// Keep reports whether j passes; reason names the first failed check.
// A posting's age is taken when its listing was read, so checking it again later
// gives the same answer.
func (f Filter) Keep(j domain.JobPosting, now time.Time) (keep bool, reason string) {
	if p, hit := f.excluded(j.Title); hit {
		return false, "title matches exclusion " + p
	}
	if !f.Criteria.AllowsWorkType(j.WorkType) {
		return false, "work type " + string(j.WorkType)
	}
	// unknown ages pass; the platform already applied the recency parameter
	if !j.SeenAt.IsZero() {
		now = j.SeenAt
	}
	if age, ok := j.AgeAt(now); ok && !f.Criteria.Recency.Allows(age) {
		return false, "older than " + f.Criteria.Recency.String()
	}
	return true, ""
}

func (f Filter) excluded(title string) (string, bool) {
	t := strings.ToLower(title)
	for _, p := range f.Exclude {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" && strings.Contains(t, p) {
			return p, true
		}
	}
	return "", false
}
