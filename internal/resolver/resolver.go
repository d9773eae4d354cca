// Package resolver turns a form field into a concrete answer.
//
// Strategies run in a fixed order: a valid pre-filled value, a stored rule for the
// question's signature, built-in heuristics, then the injected Prompter. Answers
// obtained from a Prompter are validated and stored before use so the next run
// resolves the same question without asking.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"easyapply-engine/internal/domain"
)

// RuleStore is the durable signature → answer mapping.
type RuleStore interface {
	Lookup(signature string) (domain.AnswerRule, bool)
	Upsert(ctx context.Context, r domain.AnswerRule) error
}

// Question is what a Prompter is asked.
type Question struct {
	Field       domain.FormField
	Signature   string
	Job         domain.JobPosting
	Description string
}

// Reply is a Prompter's answer. An empty Value means "no value".
type Reply struct {
	Value  string
	Source domain.AnswerSource
}

type Prompter interface {
	Prompt(ctx context.Context, q Question) (Reply, error)
}

// Context carries per-posting inputs to resolution.
type Context struct {
	Job         domain.JobPosting
	Description string
	// Resume returns the document to upload for this posting, customizing it on first use.
	Resume func(ctx context.Context) (string, error)
}

// Answer is the resolved value for one field. Skip means an optional field is left as is.
type Answer struct {
	Value     string
	Source    domain.AnswerSource
	Signature string
	Skip      bool
}

type Resolver struct {
	Store         RuleStore
	Profile       Profile
	Prompter      Prompter // nil behaves like NoPrompt
	QualifyByKind bool
	Now           func() time.Time
}

// Resolve returns the answer for f or an error wrapping domain.ErrUnresolvedRequiredField.
// When a candidate was rejected for the field's kind the error also wraps
// domain.ErrInvalidAnswerForKind. Context cancellation is returned as is.
func (r *Resolver) Resolve(ctx context.Context, f domain.FormField, rc Context) (Answer, error) {
	sig := domain.Signature(f.Label, f.Kind, r.QualifyByKind)
	var invalid error

	try := func(src domain.AnswerSource, v string) (Answer, bool) {
		norm, err := Validate(f, v)
		if err != nil {
			log.Printf("[resolver] rejected source=%s field=%q value=%q: %v", src, f.Label, v, err)
			invalid = err
			return Answer{}, false
		}
		return Answer{Value: norm, Source: src, Signature: sig}, true
	}

	if f.Value != "" {
		if a, ok := try(domain.SourcePrefilled, f.Value); ok {
			return a, nil
		}
	}

	// file uploads are per-posting documents, never stored answers
	if f.Kind != domain.KindFile && sig != "" && r.Store != nil {
		if rule, found := r.Store.Lookup(sig); found {
			if a, ok := try(domain.SourceRule, rule.Answer); ok {
				return a, nil
			}
		}
	}

	v, ok, err := r.heuristic(ctx, f, rc)
	if err != nil {
		return Answer{}, err
	}
	if ok {
		if a, ok := try(domain.SourceHeuristic, v); ok {
			return a, nil
		}
	}

	if f.Kind != domain.KindFile {
		q := Question{Field: f, Signature: sig, Job: rc.Job, Description: rc.Description}
		// a chain is walked here so a reply that fails validation moves on to the next prompter
		for _, p := range members(r.Prompter) {
			reply, err := p.Prompt(ctx, q)
			if err != nil {
				if ctx.Err() != nil {
					return Answer{}, ctx.Err()
				}
				log.Printf("[resolver] prompt failed field=%q: %v", f.Label, err)
				continue
			}
			if reply.Value == "" {
				continue
			}
			if a, ok := try(reply.Source, reply.Value); ok {
				if err := r.learn(ctx, f, sig, a); err != nil {
					return Answer{}, err
				}
				return a, nil
			}
		}
	}

	if !f.Required {
		return Answer{Signature: sig, Skip: true}, nil
	}
	if invalid != nil {
		return Answer{}, fmt.Errorf("%w: %q: %w", domain.ErrUnresolvedRequiredField, f.Label, invalid)
	}
	return Answer{}, fmt.Errorf("%w: %q", domain.ErrUnresolvedRequiredField, f.Label)
}

func (r *Resolver) learn(ctx context.Context, f domain.FormField, sig string, a Answer) error {
	if r.Store == nil || sig == "" {
		return nil
	}
	src := a.Source
	if src == "" {
		src = domain.SourcePrompt
	}
	rule := domain.AnswerRule{
		Signature: sig,
		Answer:    a.Value,
		Options:   f.Options,
		Source:    src,
		Question:  f.Label,
		UpdatedAt: r.now(),
	}
	if err := r.Store.Upsert(ctx, rule); err != nil {
		return fmt.Errorf("store answer for %q: %w", f.Label, err)
	}
	log.Printf("[resolver] learned signature=%q source=%s", sig, src)
	return nil
}

func (r *Resolver) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now().UTC()
}

// IsUnresolved reports whether err is a per-field resolution failure rather than a run error.
func IsUnresolved(err error) bool {
	return errors.Is(err, domain.ErrUnresolvedRequiredField)
}
