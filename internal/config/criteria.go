package config

import (
	"fmt"

	"easyapply-engine/internal/domain"
)

// Criteria builds the immutable per-run filter from the normalized search section.
func (c Config) Criteria() (domain.JobFilterCriteria, error) {
	rec, err := domain.ParseRecency(c.Search.Recency, domain.RecencyUnit(c.Search.RecencyUnit))
	if err != nil {
		return domain.JobFilterCriteria{}, fmt.Errorf("search.recency: %w", err)
	}
	crit := domain.JobFilterCriteria{
		Keywords:        c.Search.Keywords,
		Location:        c.Search.Location,
		Recency:         rec,
		PredefinedQuery: c.Search.PredefinedQuery,
		TopPicks:        c.Search.TopPicks,
	}
	for _, s := range c.Search.WorkTypes {
		w, ok := domain.ParseWorkType(s)
		if !ok {
			return domain.JobFilterCriteria{}, fmt.Errorf("search.work_types: unknown work type %q", s)
		}
		crit.WorkTypes = append(crit.WorkTypes, w)
	}
	return crit, nil
}
