package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"easyapply-engine/internal/domain"
)

// LookupResume returns the indexed tailored resume for (jobID, baselineHash).
func LookupResume(ctx context.Context, db *sql.DB, jobID, baselineHash string) (domain.TailoredResume, error) {
	var r domain.TailoredResume
	var created string
	err := db.QueryRowContext(ctx, `
SELECT job_id, baseline_hash, path, markdown_path, created_at
FROM resumes
WHERE job_id = ? AND baseline_hash = ?;`, jobID, baselineHash).
		Scan(&r.JobID, &r.BaselineHash, &r.Path, &r.MarkdownPath, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return r, domain.ErrNotFound
	}
	if err != nil {
		return r, fmt.Errorf("lookup resume job=%s: %w", jobID, err)
	}
	r.CreatedAt, _ = time.Parse(time.RFC3339, created)
	return r, nil
}

func PutResume(ctx context.Context, db *sql.DB, r domain.TailoredResume) error {
	_, err := db.ExecContext(ctx, `
INSERT INTO resumes (job_id, baseline_hash, path, markdown_path, created_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(job_id, baseline_hash) DO UPDATE SET
  path = excluded.path,
  markdown_path = excluded.markdown_path,
  created_at = excluded.created_at;`,
		r.JobID, r.BaselineHash, r.Path, r.MarkdownPath, r.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("index resume job=%s: %w", r.JobID, err)
	}
	return nil
}

// ResumeIndex binds the resume index to a database handle.
type ResumeIndex struct{ DB *sql.DB }

func (x ResumeIndex) Lookup(ctx context.Context, jobID, baselineHash string) (domain.TailoredResume, error) {
	return LookupResume(ctx, x.DB, jobID, baselineHash)
}

func (x ResumeIndex) Put(ctx context.Context, r domain.TailoredResume) error {
	return PutResume(ctx, x.DB, r)
}
