package httpapi

import "time"

type RunStatus struct {
	RunID       string         `json:"run_id"`
	StartedAt   time.Time      `json:"started_at"`
	Running     bool           `json:"running"`
	DryRun      bool           `json:"dry_run"`
	Processed   int            `json:"processed"`
	Counts      map[string]int `json:"counts"`
	LastJobID   string         `json:"last_job_id,omitempty"`
	LastOutcome string         `json:"last_outcome,omitempty"`
	LastError   string         `json:"last_error,omitempty"`
}
