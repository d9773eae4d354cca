package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"easyapply-engine/internal/domain"
)

func InsertOutcome(ctx context.Context, db *sql.DB, r domain.OutcomeRecord) error {
	_, err := db.ExecContext(ctx, `
INSERT INTO outcomes (run_id, job_id, title, company, url, outcome, stage, reason, resume, pages, answered, started_at, ended_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`,
		r.RunID, r.JobID, r.Title, r.Company, r.URL, string(r.Outcome), string(r.Stage), r.Reason, r.Resume,
		r.Pages, r.Answered, r.StartedAt.UTC().Format(time.RFC3339), r.EndedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("insert outcome job=%s: %w", r.JobID, err)
	}
	return nil
}

type ListOutcomesOpts struct {
	RunID   string
	Outcome string // empty = all
	Window  string // 24h | 7d | all
	Limit   int
}

func ListOutcomes(ctx context.Context, db *sql.DB, opts ListOutcomesOpts) ([]domain.OutcomeRecord, error) {
	if opts.Limit <= 0 || opts.Limit > 2000 {
		opts.Limit = 500
	}

	where := "WHERE 1=1"
	var args []any
	switch opts.Window {
	case "24h":
		where += " AND ended_at >= ?"
		args = append(args, time.Now().UTC().Add(-24*time.Hour).Format(time.RFC3339))
	case "7d":
		where += " AND ended_at >= ?"
		args = append(args, time.Now().UTC().Add(-7*24*time.Hour).Format(time.RFC3339))
	}
	if opts.RunID != "" {
		where += " AND run_id = ?"
		args = append(args, opts.RunID)
	}
	if opts.Outcome != "" {
		where += " AND outcome = ?"
		args = append(args, opts.Outcome)
	}
	args = append(args, opts.Limit)

	rows, err := db.QueryContext(ctx, `
SELECT run_id, job_id, title, company, url, outcome, stage, reason, resume, pages, answered, started_at, ended_at
FROM outcomes
`+where+`
ORDER BY id DESC
LIMIT ?;`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.OutcomeRecord
	for rows.Next() {
		var r domain.OutcomeRecord
		var outcome, stage, started, ended string
		if err := rows.Scan(&r.RunID, &r.JobID, &r.Title, &r.Company, &r.URL, &outcome, &stage,
			&r.Reason, &r.Resume, &r.Pages, &r.Answered, &started, &ended); err != nil {
			return nil, err
		}
		r.Outcome = domain.Outcome(outcome)
		r.Stage = domain.Stage(stage)
		r.StartedAt, _ = time.Parse(time.RFC3339, started)
		r.EndedAt, _ = time.Parse(time.RFC3339, ended)
		out = append(out, r)
	}
	return out, rows.Err()
}

// CountOutcomes groups a run's records by outcome.
func CountOutcomes(ctx context.Context, db *sql.DB, runID string) (map[domain.Outcome]int, error) {
	rows, err := db.QueryContext(ctx, `
SELECT outcome, COUNT(*) FROM outcomes WHERE run_id = ? GROUP BY outcome;`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[domain.Outcome]int{}
	for rows.Next() {
		var o string
		var n int
		if err := rows.Scan(&o, &n); err != nil {
			return nil, err
		}
		out[domain.Outcome(o)] = n
	}
	return out, rows.Err()
}

func CleanupOldOutcomes(db *sql.DB, keep time.Duration) (deleted int64, err error) {
	res, err := db.Exec(`DELETE FROM outcomes WHERE ended_at < ?;`,
		time.Now().UTC().Add(-keep).Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("cleanup old outcomes: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
