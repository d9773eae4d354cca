package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"easyapply-engine/internal/domain"
)

// Answers is the durable signature → answer store. Rules are loaded into memory once
// and every Upsert commits to SQLite before it returns.
type Answers struct {
	db *sql.DB

	mu    sync.RWMutex
	rules map[string]domain.AnswerRule
}

func LoadAnswers(ctx context.Context, db *sql.DB) (*Answers, error) {
	a := &Answers{db: db}
	if err := a.Load(ctx); err != nil {
		return nil, err
	}
	return a, nil
}

// Load replaces the in-memory view with the table contents.
func (a *Answers) Load(ctx context.Context) error {
	rows, err := a.db.QueryContext(ctx, `
SELECT signature, answer, options, source, question, updated_at
FROM answers;`)
	if err != nil {
		return fmt.Errorf("load answers: %w", err)
	}
	defer rows.Close()

	rules := map[string]domain.AnswerRule{}
	for rows.Next() {
		var r domain.AnswerRule
		var optsJSON, source, updated string
		if err := rows.Scan(&r.Signature, &r.Answer, &optsJSON, &source, &r.Question, &updated); err != nil {
			return err
		}
		// a damaged column loses that detail, not the answer itself
		if err := json.Unmarshal([]byte(optsJSON), &r.Options); err != nil {
			log.Printf("[store] answer signature=%q: bad options %q: %v", r.Signature, optsJSON, err)
			r.Options = nil
		}
		r.Source = domain.AnswerSource(source)
		if r.UpdatedAt, err = time.Parse(time.RFC3339, updated); err != nil {
			log.Printf("[store] answer signature=%q: bad updated_at %q: %v", r.Signature, updated, err)
		}
		rules[r.Signature] = r
	}
	if err := rows.Err(); err != nil {
		return err
	}

	a.mu.Lock()
	a.rules = rules
	a.mu.Unlock()
	return nil
}

func (a *Answers) Lookup(signature string) (domain.AnswerRule, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	r, ok := a.rules[signature]
	return r, ok
}

// Upsert writes r through to the database. Last write wins.
func (a *Answers) Upsert(ctx context.Context, r domain.AnswerRule) error {
	r.Signature = strings.TrimSpace(r.Signature)
	if r.Signature == "" {
		return fmt.Errorf("upsert answer: empty signature")
	}
	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = time.Now().UTC()
	}
	if r.Options == nil {
		r.Options = []string{}
	}
	optsB, _ := json.Marshal(r.Options)

	_, err := a.db.ExecContext(ctx, `
INSERT INTO answers (signature, answer, options, source, question, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(signature) DO UPDATE SET
  answer = excluded.answer,
  options = excluded.options,
  source = excluded.source,
  question = excluded.question,
  updated_at = excluded.updated_at;`,
		r.Signature, r.Answer, string(optsB), string(r.Source), r.Question, r.UpdatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("upsert answer %q: %w", r.Signature, err)
	}

	a.mu.Lock()
	a.rules[r.Signature] = r
	a.mu.Unlock()
	return nil
}

// All returns every rule ordered by signature.
func (a *Answers) All() []domain.AnswerRule {
	a.mu.RLock()
	out := make([]domain.AnswerRule, 0, len(a.rules))
	for _, r := range a.rules {
		out = append(out, r)
	}
	a.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Signature < out[j].Signature })
	return out
}

func (a *Answers) Delete(ctx context.Context, signature string) error {
	res, err := a.db.ExecContext(ctx, `DELETE FROM answers WHERE signature = ?;`, signature)
	if err != nil {
		return fmt.Errorf("delete answer %q: %w", signature, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("answer %q: %w", signature, domain.ErrNotFound)
	}
	a.mu.Lock()
	delete(a.rules, signature)
	a.mu.Unlock()
	return nil
}

func (a *Answers) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.rules)
}
