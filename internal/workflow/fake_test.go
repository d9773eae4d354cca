package workflow

import (
	"context"
	"sync"

	"easyapply-engine/internal/browser"
	"easyapply-engine/internal/domain"
)

type fakePage struct {
	fields []domain.FormField
	submit bool
}

// fakeSession scripts a posting page and its modal.
type fakeSession struct {
	mu sync.Mutex

	easyApply  bool
	applied    bool
	desc       string
	pages      []fakePage
	validation []string

	// notReady makes the next n calls of an operation fail with ErrElementNotReady.
	notReady map[string]int
	failWith map[string]error

	navigations []string
	clicks      []browser.Control
	values      map[string]string
	uploads     map[string]string

	modalOpen  bool
	discardAsk bool
	submitted  bool
	page       int
}

func newFakeSession(pages ...fakePage) *fakeSession {
	return &fakeSession{
		easyApply: true,
		desc:      "We build payment systems in Go.",
		pages:     pages,
		notReady:  map[string]int{},
		failWith:  map[string]error{},
		values:    map[string]string{},
		uploads:   map[string]string{},
	}
}

var _ browser.Session = (*fakeSession)(nil)

func (f *fakeSession) check(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err, ok := f.failWith[op]; ok {
		return err
	}
	if f.notReady[op] > 0 {
		f.notReady[op]--
		return domain.ErrElementNotReady
	}
	return nil
}

func (f *fakeSession) Navigate(ctx context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(ctx, "navigate"); err != nil {
		return err
	}
	f.navigations = append(f.navigations, url)
	return nil
}

func (f *fakeSession) JobDescription(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.desc, f.check(ctx, "description")
}

func (f *fakeSession) AlreadyApplied(ctx context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.applied, f.check(ctx, "applied")
}

func (f *fakeSession) HasControl(ctx context.Context, c browser.Control) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(ctx, "has:"+string(c)); err != nil {
		return false, err
	}
	switch c {
	case browser.ControlEasyApply:
		return f.easyApply && !f.modalOpen, nil
	case browser.ControlNext:
		return f.modalOpen && !f.submitted && !f.pages[f.page].submit, nil
	case browser.ControlSubmit:
		return f.modalOpen && !f.submitted && f.pages[f.page].submit, nil
	case browser.ControlDismiss:
		return f.modalOpen && !f.discardAsk, nil
	case browser.ControlDiscard:
		return f.discardAsk, nil
	case browser.ControlDone:
		return f.modalOpen && f.submitted, nil
	}
	return false, nil
}

func (f *fakeSession) Click(ctx context.Context, c browser.Control) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(ctx, "click:"+string(c)); err != nil {
		return err
	}
	f.clicks = append(f.clicks, c)
	switch c {
	case browser.ControlEasyApply:
		f.modalOpen, f.page = true, 0
	case browser.ControlNext, browser.ControlReview:
		if len(f.validation) == 0 {
			f.page++
		}
	case browser.ControlSubmit:
		f.submitted = true
	case browser.ControlDismiss:
		if f.submitted {
			f.modalOpen = false
		} else {
			f.discardAsk = true
		}
	case browser.ControlDiscard:
		f.discardAsk, f.modalOpen = false, false
	case browser.ControlDone:
		f.modalOpen = false
	}
	return nil
}

func (f *fakeSession) live(fl domain.FormField) domain.FormField {
	if v, ok := f.values[fl.ID]; ok {
		fl.Value = v
	}
	return fl
}

func (f *fakeSession) Fields(ctx context.Context) ([]domain.FormField, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(ctx, "fields"); err != nil {
		return nil, err
	}
	var out []domain.FormField
	for _, fl := range f.pages[f.page].fields {
		out = append(out, f.live(fl))
	}
	return out, nil
}

func (f *fakeSession) FindField(ctx context.Context, id string) (domain.FormField, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(ctx, "find"); err != nil {
		return domain.FormField{}, err
	}
	for _, fl := range f.pages[f.page].fields {
		if fl.ID == id {
			return f.live(fl), nil
		}
	}
	return domain.FormField{}, domain.ErrNotFound
}

func (f *fakeSession) SetValue(ctx context.Context, fl domain.FormField, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(ctx, "set"); err != nil {
		return err
	}
	f.values[fl.ID] = value
	return nil
}

func (f *fakeSession) UploadFile(ctx context.Context, fl domain.FormField, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(ctx, "upload"); err != nil {
		return err
	}
	f.uploads[fl.ID] = path
	return nil
}

func (f *fakeSession) ValidationErrors(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.validation, f.check(ctx, "validation")
}

func (f *fakeSession) Close() error { return nil }

func (f *fakeSession) clicked(c browser.Control) bool {
	for _, got := range f.clicks {
		if got == c {
			return true
		}
	}
	return false
}

type memRules struct {
	mu    sync.Mutex
	rules map[string]domain.AnswerRule
}

func newMemRules(rules ...domain.AnswerRule) *memRules {
	m := &memRules{rules: map[string]domain.AnswerRule{}}
	for _, r := range rules {
		m.rules[r.Signature] = r
	}
	return m
}

func (m *memRules) Lookup(sig string) (domain.AnswerRule, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rules[sig]
	return r, ok
}

func (m *memRules) Upsert(ctx context.Context, r domain.AnswerRule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules[r.Signature] = r
	return nil
}

type records struct {
	mu   sync.Mutex
	rows []domain.OutcomeRecord
}

func (r *records) Record(ctx context.Context, rec domain.OutcomeRecord) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, rec)
	return nil
}

type failingCustomizer struct{ calls int }

func (c *failingCustomizer) Customize(ctx context.Context, job domain.JobPosting, desc string) (domain.TailoredResume, error) {
	c.calls++
	return domain.TailoredResume{}, domain.ErrCustomizationFailed
}
