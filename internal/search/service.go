// Package search turns filter criteria into a lazy sequence of postings.
package search

import (
	"context"
	"fmt"
	"iter"
	"log"
	"time"

	"easyapply-engine/internal/browser"
	"easyapply-engine/internal/config"
	"easyapply-engine/internal/domain"
)

type Service struct {
	Page     browser.ListingPage
	BaseURL  string
	MaxPages int
	Queries  map[string]config.QueryTemplate
	// Query, when set, replaces keywords and any predefined query.
	Query string
	Now   func() time.Time
}

// Search yields postings page by page. Each results page is read completely before
// its postings are yielded, so the consumer may navigate the same tab in between.
// The sequence ends after the first error it yields.
func (s *Service) Search(ctx context.Context, crit domain.JobFilterCriteria) iter.Seq2[domain.JobPosting, error] {
	return func(yield func(domain.JobPosting, error) bool) {
		query, err := s.query(crit)
		if err != nil {
			yield(domain.JobPosting{}, err)
			return
		}
		now := s.now()
		filter := Filter{Criteria: crit}
		maxPages := s.MaxPages
		if maxPages <= 0 {
			maxPages = 1
		}

		seen := map[string]bool{}
		for page := 0; page < maxPages; page++ {
			if err := ctx.Err(); err != nil {
				yield(domain.JobPosting{}, err)
				return
			}

			u := BuildSearchURL(s.BaseURL, crit, query, page)
			if crit.TopPicks {
				u = TopPicksURL(s.BaseURL, page)
			}
			if err := s.Page.Navigate(ctx, u); err != nil {
				yield(domain.JobPosting{}, fmt.Errorf("search page %d: %w", page, err))
				return
			}
			batch, err := s.Page.Listings(ctx)
			if err != nil {
				yield(domain.JobPosting{}, fmt.Errorf("read listings page %d: %w", page, err))
				return
			}
			log.Printf("[search] page=%d listings=%d url=%q", page, len(batch), u)
			if len(batch) == 0 {
				return
			}

			fresh := 0
			for _, j := range batch {
				if j.ID == "" || seen[j.ID] {
					continue
				}
				seen[j.ID] = true
				fresh++
				j.URL = CanonicalJobURL(j.URL)
				if keep, reason := filter.Keep(j, now); !keep {
					log.Printf("[search] skip job=%s title=%q reason=%q", j.ID, j.Title, reason)
					continue
				}
				if !yield(j, nil) {
					return
				}
			}
			// the site repeats the last page when start runs past the end
			if fresh == 0 || len(batch) < PageSize {
				return
			}
		}
	}
}

func (s *Service) query(crit domain.JobFilterCriteria) (string, error) {
	if s.Query != "" {
		return s.Query, nil
	}
	if crit.PredefinedQuery == "" {
		return "", nil
	}
	t, ok := s.Queries[crit.PredefinedQuery]
	if !ok {
		return "", fmt.Errorf("unknown predefined query %q", crit.PredefinedQuery)
	}
	return BuildQuery(t), nil
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
