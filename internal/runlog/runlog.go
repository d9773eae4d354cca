// Package runlog records one outcome per processed posting in the store and in a
// per-run JSONL file, and fans the same events out to status API subscribers.
package runlog

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"easyapply-engine/internal/domain"
	"easyapply-engine/internal/events"
	"easyapply-engine/internal/store"
)

const eventVersion = 1

type Recorder struct {
	RunID string
	Path  string // runs/<run id>.jsonl

	db  *sql.DB
	hub *events.Hub // may be nil

	mu sync.Mutex
	f  *os.File
}

// New opens <dataDir>/runs/<run id>.jsonl for a fresh run id.
func New(db *sql.DB, dataDir string, hub *events.Hub) (*Recorder, error) {
	runID := uuid.NewString()
	dir := filepath.Join(dataDir, "runs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create runs dir: %w", err)
	}
	path := filepath.Join(dir, runID+".jsonl")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open run log: %w", err)
	}
	return &Recorder{RunID: runID, Path: path, db: db, hub: hub, f: f}, nil
}

// Start writes the run.started event.
func (r *Recorder) Start(data any) {
	r.emit(events.RunStarted, data)
}

// Record stores one posting outcome, then appends and publishes it.
func (r *Recorder) Record(ctx context.Context, rec domain.OutcomeRecord) error {
	if rec.RunID == "" {
		rec.RunID = r.RunID
	}
	if err := store.InsertOutcome(ctx, r.db, rec); err != nil {
		return err
	}
	r.emit(events.JobOutcome, rec)
	return nil
}

// Finish writes the run.finished event and closes the file.
func (r *Recorder) Finish(data any) error {
	r.emit(events.RunFinished, data)
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.f == nil {
		return nil
	}
	err := r.f.Close()
	r.f = nil
	return err
}

func (r *Recorder) emit(typ string, data any) {
	line := events.MakeEvent(r.RunID, typ, eventVersion, data)
	r.mu.Lock()
	if r.f != nil {
		if _, err := r.f.WriteString(line + "\n"); err != nil {
			log.Printf("[runlog] write event type=%s: %v", typ, err)
		}
	}
	r.mu.Unlock()
	if r.hub != nil {
		r.hub.Publish(line)
	}
}

// RuleStore is the answer store the resolver learns into.
type RuleStore interface {
	Lookup(signature string) (domain.AnswerRule, bool)
	Upsert(ctx context.Context, rule domain.AnswerRule) error
}

// Learning wraps s so every learned answer is also logged as an answer.learned event.
func (r *Recorder) Learning(s RuleStore) RuleStore {
	return learning{RuleStore: s, r: r}
}

type learning struct {
	RuleStore
	r *Recorder
}

func (l learning) Upsert(ctx context.Context, rule domain.AnswerRule) error {
	if err := l.RuleStore.Upsert(ctx, rule); err != nil {
		return err
	}
	l.r.emit(events.AnswerLearned, rule)
	return nil
}
