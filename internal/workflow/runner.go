package workflow

import (
	"context"
	"iter"
	"log"

	"easyapply-engine/internal/domain"
)

// Searcher produces the postings to process.
type Searcher interface {
	Search(ctx context.Context, crit domain.JobFilterCriteria) iter.Seq2[domain.JobPosting, error]
}

type Summary struct {
	Processed int                    `json:"processed"`
	Counts    map[domain.Outcome]int `json:"counts"`
	// SearchErr is set when the search stopped early for a non-fatal reason.
	SearchErr string `json:"search_error,omitempty"`
}

// Runner applies to every posting the search yields, one at a time.
type Runner struct {
	Search   Searcher
	Workflow *Workflow
	Criteria domain.JobFilterCriteria
}

// Run returns a non-nil error only when the run was aborted: a lost session,
// failed authentication or cancellation.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	sum := Summary{Counts: map[domain.Outcome]int{}}
	for job, err := range r.Search.Search(ctx, r.Criteria) {
		if err != nil {
			if ctx.Err() != nil {
				return sum, ctx.Err()
			}
			if domain.Fatal(err) {
				return sum, err
			}
			log.Printf("[runner] search stopped: %v", err)
			sum.SearchErr = err.Error()
			return sum, nil
		}

		rec, err := r.Workflow.Apply(ctx, job)
		sum.Processed++
		sum.Counts[rec.Outcome]++
		if err != nil {
			return sum, err
		}
	}
	log.Printf("[runner] done processed=%d submitted=%d failed=%d", sum.Processed, sum.Counts[domain.OutcomeSubmitted], sum.Counts[domain.OutcomeFailed])
	return sum, nil
}
