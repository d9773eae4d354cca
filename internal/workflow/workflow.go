// Package workflow drives one job posting from discovery to a terminal outcome.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"easyapply-engine/internal/browser"
	"easyapply-engine/internal/domain"
	"easyapply-engine/internal/resolver"
	"easyapply-engine/internal/search"
)

const defaultCloseTimeout = 10 * time.Second

// FieldResolver answers one form field.
type FieldResolver interface {
	Resolve(ctx context.Context, f domain.FormField, rc resolver.Context) (resolver.Answer, error)
}

// Customizer tailors the resume for a posting.
type Customizer interface {
	Customize(ctx context.Context, job domain.JobPosting, description string) (domain.TailoredResume, error)
}

// Recorder persists one outcome record per posting.
type Recorder interface {
	Record(ctx context.Context, rec domain.OutcomeRecord) error
}

type Workflow struct {
	Session  browser.Session
	Resolver FieldResolver
	Filter   search.Filter
	// Resumes is optional; without it file uploads use BaselineResume.
	Resumes        Customizer
	BaselineResume string
	Recorder       Recorder // optional
	RunID          string

	DryRun       bool
	MaxPages     int
	CloseTimeout time.Duration
	Now          func() time.Time
}

// Apply processes job and returns its outcome record. The returned error is non-nil
// only for conditions that end the run: a lost session or cancellation. Every other
// failure is the posting's outcome.
func (w *Workflow) Apply(ctx context.Context, job domain.JobPosting) (domain.OutcomeRecord, error) {
	s := domain.NewApplicationSession(job, w.now())

	err := w.run(ctx, s)
	var fatal error
	switch {
	case err == nil:
	case domain.Fatal(err):
		s.Finish(domain.OutcomeFailed, err.Error())
		fatal = err
	case ctx.Err() != nil:
		s.Finish(domain.OutcomeFailed, "cancelled: "+ctx.Err().Error())
		fatal = ctx.Err()
	default:
		s.Finish(domain.OutcomeFailed, err.Error())
	}
	if !s.Outcome.Terminal() {
		s.Finish(domain.OutcomeFailed, "no terminal outcome reached")
	}

	rec := s.Record(w.RunID, w.now())
	log.Printf("[workflow] outcome job=%s title=%q outcome=%s stage=%s reason=%q", job.ID, job.Title, rec.Outcome, rec.Stage, rec.Reason)
	if w.Recorder != nil {
		// the record must land even when the run is being cancelled
		if err := w.Recorder.Record(context.WithoutCancel(ctx), rec); err != nil {
			log.Printf("[workflow] record outcome job=%s: %v", job.ID, err)
		}
	}
	return rec, fatal
}

func (w *Workflow) run(ctx context.Context, s *domain.ApplicationSession) error {
	job := s.Job
	if keep, reason := w.Filter.Keep(job, w.now()); !keep {
		s.Finish(domain.OutcomeFilteredOut, reason)
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.Stage = domain.StageOpening
	if err := w.Session.Navigate(ctx, job.URL); err != nil {
		return fmt.Errorf("open posting: %w", err)
	}
	applied, err := w.Session.AlreadyApplied(ctx)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("check applied: %w", err)
	}
	if applied {
		s.Finish(domain.OutcomeFilteredOut, "already applied")
		return nil
	}
	desc, err := w.Session.JobDescription(ctx)
	if err != nil {
		if domain.Fatal(err) || ctx.Err() != nil {
			return err
		}
		log.Printf("[workflow] no description job=%s: %v", job.ID, err)
	}

	ok, err := w.Session.HasControl(ctx, browser.ControlEasyApply)
	if err != nil {
		return fmt.Errorf("look for easy apply: %w", err)
	}
	if !ok {
		s.Finish(domain.OutcomeUnavailable, domain.ErrApplyUnavailable.Error())
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := w.Session.Click(ctx, browser.ControlEasyApply); err != nil {
		return fmt.Errorf("open application: %w", err)
	}
	defer w.closeModal(ctx, s)

	s.Stage = domain.StageFilling
	rc := resolver.Context{Job: job, Description: desc, Resume: w.resumeFor(s, desc)}
	if err := w.fill(ctx, s, rc); err != nil {
		return err
	}

	s.Stage = domain.StageReviewing
	if w.DryRun {
		s.Finish(domain.OutcomeDiscarded, "dry run")
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := w.Session.Click(ctx, browser.ControlSubmit); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	s.Stage = domain.StageDone
	s.Finish(domain.OutcomeSubmitted, "")
	log.Printf("[workflow] submitted job=%s title=%q company=%q", job.ID, job.Title, job.Company)
	return nil
}

// fill answers modal pages until the submit control shows up.
func (w *Workflow) fill(ctx context.Context, s *domain.ApplicationSession, rc resolver.Context) error {
	maxPages := w.MaxPages
	if maxPages <= 0 {
		maxPages = 10
	}
	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if page > maxPages {
			return fmt.Errorf("no submit control after %d pages", maxPages)
		}
		s.Page = page

		fields, err := w.Session.Fields(ctx)
		if err != nil {
			return fmt.Errorf("read page %d: %w", page, err)
		}
		for _, f := range fields {
			if err := w.answer(ctx, s, f, rc); err != nil {
				return err
			}
		}

		if ok, err := w.Session.HasControl(ctx, browser.ControlSubmit); err != nil {
			return fmt.Errorf("look for submit: %w", err)
		} else if ok {
			return nil
		}
		if err := w.advance(ctx); err != nil {
			return fmt.Errorf("page %d: %w", page, err)
		}
		msgs, err := w.Session.ValidationErrors(ctx)
		if err != nil {
			return fmt.Errorf("read validation errors: %w", err)
		}
		if len(msgs) > 0 {
			return fmt.Errorf("page %d rejected: %s", page, strings.Join(msgs, "; "))
		}
	}
}

func (w *Workflow) advance(ctx context.Context) error {
	for _, c := range []browser.Control{browser.ControlNext, browser.ControlReview} {
		ok, err := w.Session.HasControl(ctx, c)
		if err != nil {
			return err
		}
		if ok {
			return w.Session.Click(ctx, c)
		}
	}
	return fmt.Errorf("no next, review or submit control: %w", domain.ErrNotFound)
}

func (w *Workflow) answer(ctx context.Context, s *domain.ApplicationSession, f domain.FormField, rc resolver.Context) error {
	a, err := w.Resolver.Resolve(ctx, f, rc)
	if err != nil {
		return err
	}
	if a.Skip {
		return nil
	}
	key := a.Signature
	if key == "" {
		key = f.ID
	}
	if a.Source == domain.SourcePrefilled {
		s.Answers[key] = a.Value
		return nil
	}

	if f.Kind == domain.KindFile {
		err = w.Session.UploadFile(ctx, f, a.Value)
	} else {
		err = w.Session.SetValue(ctx, f, a.Value)
	}
	if err != nil {
		return fmt.Errorf("answer %q: %w", f.Label, err)
	}
	if f.Kind == domain.KindFile {
		s.ResumePath = a.Value
	}
	s.Answers[key] = a.Value

	if f.Required && f.Kind != domain.KindFile {
		live, err := w.Session.FindField(ctx, f.ID)
		switch {
		case errors.Is(err, domain.ErrNotFound):
		case err != nil:
			return fmt.Errorf("re-read %q: %w", f.Label, err)
		case strings.TrimSpace(live.Value) == "":
			return fmt.Errorf("%w: %q is empty after answering", domain.ErrUnresolvedRequiredField, f.Label)
		}
	}
	return nil
}

// resumeFor returns the per-posting document source: the tailored resume, produced at
// most once, falling back to the baseline when tailoring is off or fails.
func (w *Workflow) resumeFor(s *domain.ApplicationSession, desc string) func(ctx context.Context) (string, error) {
	var path string
	return func(ctx context.Context) (string, error) {
		if path != "" {
			return path, nil
		}
		p := w.BaselineResume
		if w.Resumes != nil {
			r, err := w.Resumes.Customize(ctx, s.Job, desc)
			switch {
			case err == nil:
				p = r.Path
			case ctx.Err() != nil:
				return "", ctx.Err()
			default:
				log.Printf("[workflow] using baseline resume job=%s: %v", s.Job.ID, err)
			}
		}
		if p == "" {
			return "", errors.New("no resume configured")
		}
		path = p
		return path, nil
	}
}

// closeModal leaves no dialog open for the next posting. It runs on a context detached
// from cancellation so a stopped run still cleans up.
func (w *Workflow) closeModal(ctx context.Context, s *domain.ApplicationSession) {
	timeout := w.CloseTimeout
	if timeout <= 0 {
		timeout = defaultCloseTimeout
	}
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	controls := []browser.Control{browser.ControlDismiss, browser.ControlDiscard}
	if s.Outcome == domain.OutcomeSubmitted {
		controls = []browser.Control{browser.ControlDone, browser.ControlDismiss}
	}
	for _, c := range controls {
		ok, err := w.Session.HasControl(cctx, c)
		if err != nil {
			log.Printf("[workflow] close modal job=%s control=%s: %v", s.Job.ID, c, err)
			return
		}
		if !ok {
			continue
		}
		if err := w.Session.Click(cctx, c); err != nil {
			log.Printf("[workflow] close modal job=%s control=%s: %v", s.Job.ID, c, err)
			return
		}
	}
}

func (w *Workflow) now() time.Time {
	if w.Now != nil {
		return w.Now()
	}
	return time.Now().UTC()
}
