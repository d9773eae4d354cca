package workflow

import (
	"context"
	"iter"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"easyapply-engine/internal/browser"
	"easyapply-engine/internal/domain"
	"easyapply-engine/internal/resolver"
	"easyapply-engine/internal/search"
)

var posting = domain.JobPosting{
	ID:      "4012345678",
	Title:   "Go Developer",
	Company: "Acme",
	URL:     "https://www.linkedin.com/jobs/view/4012345678/",
}

var (
	authorized = domain.FormField{ID: "q-auth", Kind: domain.KindBoolean, Label: "Are you authorized to work in the United States?", Required: true, Options: []string{"Yes", "No"}, Locator: `[id="q-auth"]`}
	anything   = domain.FormField{ID: "q-note", Kind: domain.KindText, Label: "Anything else we should know?", Locator: `[id="q-note"]`}
	colour     = domain.FormField{ID: "q-colour", Kind: domain.KindText, Label: "Favourite colour", Required: true, Locator: `[id="q-colour"]`}
	resumeFile = domain.FormField{ID: "q-resume", Kind: domain.KindFile, Label: "Upload resume", Required: true, Locator: `[id="q-resume"]`}
	office     = domain.FormField{ID: "q-office", Kind: domain.KindSingleSelect, Label: "Preferred office", Required: true, Options: []string{"London", "Paris"}, Locator: `[id="q-office"]`}
)

func newWorkflow(s browser.Session, rules *memRules, rec *records) *Workflow {
	return &Workflow{
		Session:  s,
		Resolver: &resolver.Resolver{Store: rules, Prompter: resolver.NoPrompt{}},
		Recorder: rec,
		RunID:    "run-1",
		MaxPages: 5,
	}
}

func TestExcludedTitleNeverNavigates(t *testing.T) {
	s := newFakeSession(fakePage{submit: true})
	rec := &records{}
	w := newWorkflow(s, newMemRules(), rec)
	w.Filter = search.Filter{Exclude: []string{"senior", "manager"}}

	job := posting
	job.Title = "Senior Go Developer"
	out, err := w.Apply(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeFilteredOut, out.Outcome)
	assert.Equal(t, domain.StageDiscovered, out.Stage)
	assert.Contains(t, out.Reason, "senior")
	assert.Empty(t, s.navigations)
	require.Len(t, rec.rows, 1)
	assert.Equal(t, "run-1", rec.rows[0].RunID)
}

func TestWorkTypeMismatchFilteredOut(t *testing.T) {
	s := newFakeSession(fakePage{submit: true})
	w := newWorkflow(s, newMemRules(), &records{})
	w.Filter = search.Filter{Criteria: domain.JobFilterCriteria{WorkTypes: []domain.WorkType{domain.WorkRemote}}}

	job := posting
	job.WorkType = domain.WorkOnsite
	out, err := w.Apply(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeFilteredOut, out.Outcome)
	assert.Empty(t, s.navigations)
}

func TestStoredRuleSubmitsAndSkipsOptional(t *testing.T) {
	s := newFakeSession(fakePage{fields: []domain.FormField{authorized, anything}, submit: true})
	rules := newMemRules(domain.AnswerRule{Signature: "are you authorized to work in the united states?", Answer: "yes"})
	rec := &records{}
	w := newWorkflow(s, rules, rec)

	out, err := w.Apply(context.Background(), posting)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeSubmitted, out.Outcome)
	assert.Equal(t, domain.StageDone, out.Stage)
	assert.Equal(t, "Yes", s.values["q-auth"])
	_, touched := s.values["q-note"]
	assert.False(t, touched)
	assert.Equal(t, 1, out.Answered)
	assert.True(t, s.clicked(browser.ControlSubmit))
	assert.False(t, s.modalOpen)
	require.Len(t, rec.rows, 1)
}

func TestMultiPageFlow(t *testing.T) {
	s := newFakeSession(
		fakePage{fields: []domain.FormField{authorized}},
		fakePage{fields: []domain.FormField{anything}},
		fakePage{submit: true},
	)
	rules := newMemRules(domain.AnswerRule{Signature: "are you authorized to work in the united states?", Answer: "Yes"})
	w := newWorkflow(s, rules, &records{})

	out, err := w.Apply(context.Background(), posting)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeSubmitted, out.Outcome)
	assert.Equal(t, 3, out.Pages)
}

func TestCustomizationFailureFallsBackToBaseline(t *testing.T) {
	baseline := filepath.Join(t.TempDir(), "resume.pdf")
	require.NoError(t, os.WriteFile(baseline, []byte("%PDF-1.4"), 0o644))

	s := newFakeSession(fakePage{fields: []domain.FormField{resumeFile}, submit: true})
	custom := &failingCustomizer{}
	w := newWorkflow(s, newMemRules(), &records{})
	w.Resumes = custom
	w.BaselineResume = baseline

	out, err := w.Apply(context.Background(), posting)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeSubmitted, out.Outcome)
	assert.Equal(t, baseline, s.uploads["q-resume"])
	assert.Equal(t, baseline, out.Resume)
	assert.Equal(t, 1, custom.calls)
}

func TestLearnedAnswerOutsideOptionsFails(t *testing.T) {
	s := newFakeSession(fakePage{fields: []domain.FormField{office}, submit: true})
	rules := newMemRules(domain.AnswerRule{Signature: "preferred office", Answer: "Berlin"})
	w := newWorkflow(s, rules, &records{})

	out, err := w.Apply(context.Background(), posting)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeFailed, out.Outcome)
	assert.Equal(t, domain.StageFilling, out.Stage)
	assert.Contains(t, out.Reason, domain.ErrUnresolvedRequiredField.Error())
	assert.Contains(t, out.Reason, domain.ErrInvalidAnswerForKind.Error())
	assert.False(t, s.clicked(browser.ControlSubmit))
	assert.True(t, s.clicked(browser.ControlDiscard))
	assert.False(t, s.modalOpen)
}

func TestUnresolvedRequiredFieldFails(t *testing.T) {
	s := newFakeSession(fakePage{fields: []domain.FormField{colour}, submit: true})
	w := newWorkflow(s, newMemRules(), &records{})

	out, err := w.Apply(context.Background(), posting)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeFailed, out.Outcome)
	assert.False(t, s.clicked(browser.ControlSubmit))
}

func TestDryRunDiscards(t *testing.T) {
	s := newFakeSession(fakePage{submit: true})
	w := newWorkflow(s, newMemRules(), &records{})
	w.DryRun = true

	out, err := w.Apply(context.Background(), posting)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeDiscarded, out.Outcome)
	assert.Equal(t, domain.StageReviewing, out.Stage)
	assert.False(t, s.clicked(browser.ControlSubmit))
	assert.False(t, s.modalOpen)
}

func TestNoEasyApplyIsUnavailable(t *testing.T) {
	s := newFakeSession(fakePage{submit: true})
	s.easyApply = false
	w := newWorkflow(s, newMemRules(), &records{})

	out, err := w.Apply(context.Background(), posting)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeUnavailable, out.Outcome)
	assert.Equal(t, domain.StageOpening, out.Stage)
	assert.Empty(t, s.clicks)
}

func TestAlreadyAppliedFilteredOut(t *testing.T) {
	s := newFakeSession(fakePage{submit: true})
	s.applied = true
	w := newWorkflow(s, newMemRules(), &records{})

	out, err := w.Apply(context.Background(), posting)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeFilteredOut, out.Outcome)
	assert.Equal(t, "already applied", out.Reason)
}

func TestPageBudget(t *testing.T) {
	s := newFakeSession(fakePage{}, fakePage{}, fakePage{}, fakePage{})
	w := newWorkflow(s, newMemRules(), &records{})
	w.MaxPages = 3

	out, err := w.Apply(context.Background(), posting)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeFailed, out.Outcome)
	assert.Equal(t, 3, out.Pages)
}

func TestValidationErrorsFailPosting(t *testing.T) {
	s := newFakeSession(fakePage{}, fakePage{submit: true})
	s.validation = []string{"Please enter a valid answer"}
	w := newWorkflow(s, newMemRules(), &records{})

	out, err := w.Apply(context.Background(), posting)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeFailed, out.Outcome)
	assert.Contains(t, out.Reason, "Please enter a valid answer")
}

func TestSessionLostAbortsRun(t *testing.T) {
	s := newFakeSession(fakePage{submit: true})
	s.failWith["fields"] = domain.ErrSessionLost
	rec := &records{}
	w := newWorkflow(s, newMemRules(), rec)

	out, err := w.Apply(context.Background(), posting)
	assert.ErrorIs(t, err, domain.ErrSessionLost)
	assert.Equal(t, domain.OutcomeFailed, out.Outcome)
	require.Len(t, rec.rows, 1)
}

type cancellingResolver struct{ cancel context.CancelFunc }

func (r cancellingResolver) Resolve(ctx context.Context, f domain.FormField, rc resolver.Context) (resolver.Answer, error) {
	r.cancel()
	return resolver.Answer{}, ctx.Err()
}

func TestCancellationStillClosesModal(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := newFakeSession(fakePage{fields: []domain.FormField{colour}, submit: true})
	rec := &records{}
	w := newWorkflow(s, newMemRules(), rec)
	w.Resolver = cancellingResolver{cancel: cancel}

	out, err := w.Apply(ctx, posting)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, domain.OutcomeFailed, out.Outcome)
	assert.True(t, s.clicked(browser.ControlDismiss))
	assert.True(t, s.clicked(browser.ControlDiscard))
	assert.False(t, s.modalOpen)
	require.Len(t, rec.rows, 1)
}

func TestTransientErrorsRetried(t *testing.T) {
	s := newFakeSession(fakePage{submit: true})
	s.notReady["click:easy_apply"] = 2
	w := newWorkflow(&browser.Retrying{S: s, Attempts: 3, Backoff: time.Millisecond}, newMemRules(), &records{})

	out, err := w.Apply(context.Background(), posting)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeSubmitted, out.Outcome)
}

func TestRetryBudgetExhaustedFailsPosting(t *testing.T) {
	s := newFakeSession(fakePage{submit: true})
	s.notReady["click:easy_apply"] = 10
	w := newWorkflow(&browser.Retrying{S: s, Attempts: 2, Backoff: time.Millisecond}, newMemRules(), &records{})

	out, err := w.Apply(context.Background(), posting)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeFailed, out.Outcome)
	assert.Contains(t, out.Reason, domain.ErrElementNotReady.Error())
}

type sliceSearch struct {
	jobs []domain.JobPosting
	err  error
}

func (s sliceSearch) Search(ctx context.Context, crit domain.JobFilterCriteria) iter.Seq2[domain.JobPosting, error] {
	return func(yield func(domain.JobPosting, error) bool) {
		for _, j := range s.jobs {
			if !yield(j, nil) {
				return
			}
		}
		if s.err != nil {
			yield(domain.JobPosting{}, s.err)
		}
	}
}

func TestRunnerCountsOutcomes(t *testing.T) {
	s := newFakeSession(fakePage{submit: true})
	rec := &records{}
	w := newWorkflow(s, newMemRules(), rec)
	w.Filter = search.Filter{Exclude: []string{"intern"}}
	w.DryRun = true

	second := posting
	second.ID, second.Title = "2", "Go Intern"
	r := &Runner{Search: sliceSearch{jobs: []domain.JobPosting{posting, second}}, Workflow: w}

	sum, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Processed)
	assert.Equal(t, 1, sum.Counts[domain.OutcomeDiscarded])
	assert.Equal(t, 1, sum.Counts[domain.OutcomeFilteredOut])
	assert.Len(t, rec.rows, 2)
}

func TestRunnerStopsOnFatalSearchError(t *testing.T) {
	w := newWorkflow(newFakeSession(fakePage{submit: true}), newMemRules(), &records{})
	r := &Runner{Search: sliceSearch{err: domain.ErrSessionLost}, Workflow: w}

	_, err := r.Run(context.Background())
	assert.ErrorIs(t, err, domain.ErrSessionLost)
}

func TestRecencyMeasuredWhenListingWasRead(t *testing.T) {
	seen := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	for _, tc := range []struct {
		window string
		age    string
	}{
		{"day", "1 day ago"},
		{"week", "1 week ago"},
	} {
		t.Run(tc.window, func(t *testing.T) {
			recency, err := domain.ParseRecency(tc.window, domain.UnitSeconds)
			require.NoError(t, err)
			posted, ok := browser.ParseAge(tc.age, seen)
			require.True(t, ok)

			s := newFakeSession(fakePage{submit: true})
			w := newWorkflow(s, newMemRules(), &records{})
			w.Filter = search.Filter{Criteria: domain.JobFilterCriteria{Recency: recency}}
			w.Now = func() time.Time { return seen.Add(5 * time.Minute) }

			job := posting
			job.Age, job.PostedAt, job.SeenAt = tc.age, posted, seen
			out, err := w.Apply(context.Background(), job)
			require.NoError(t, err)
			assert.Equal(t, domain.OutcomeSubmitted, out.Outcome, out.Reason)
			assert.Len(t, s.navigations, 1)
		})
	}
}
