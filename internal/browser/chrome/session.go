package chrome

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/chromedp/chromedp"

	"easyapply-engine/internal/browser"
	"easyapply-engine/internal/domain"
)

// Session is a browser.Driver over one Chrome tab.
type Session struct {
	tabCtx  context.Context
	cancel  context.CancelFunc
	timeout time.Duration
	sel     browser.Selectors
	baseURL string
	lost    atomic.Bool
}

var _ browser.Driver = (*Session)(nil)

// run executes actions on the tab, bounded by both the caller's ctx and the action timeout.
func (s *Session) run(ctx context.Context, what string, actions ...chromedp.Action) error {
	if s.tabCtx.Err() != nil || s.lost.Load() {
		return fmt.Errorf("%s: %w", what, domain.ErrSessionLost)
	}
	runCtx, cancel := context.WithTimeout(s.tabCtx, s.timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err == nil {
		return nil
	}
	return s.classify(ctx, what, err)
}

func (s *Session) classify(ctx context.Context, what string, err error) error {
	switch {
	case s.tabCtx.Err() != nil, s.lost.Load(), errors.Is(err, chromedp.ErrInvalidContext):
		return fmt.Errorf("%s: %w", what, domain.ErrSessionLost)
	case ctx.Err() != nil:
		return fmt.Errorf("%s: %w", what, ctx.Err())
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return fmt.Errorf("%s: %w", what, domain.ErrElementNotReady)
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "websocket") || strings.Contains(msg, "target closed") || strings.Contains(msg, "no such target") {
		return fmt.Errorf("%s: %v: %w", what, err, domain.ErrSessionLost)
	}
	return fmt.Errorf("%s: %w", what, err)
}

func (s *Session) Navigate(ctx context.Context, url string) error {
	return s.run(ctx, "navigate "+url,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
}

func (s *Session) html(ctx context.Context) (string, error) {
	var out string
	err := s.run(ctx, "read page", chromedp.OuterHTML("html", &out, chromedp.ByQuery))
	return out, err
}

// present returns the first selector for c that matches a visible element, or "".
func (s *Session) present(ctx context.Context, c browser.Control) (string, error) {
	sels, ok := s.sel.Controls[c]
	if !ok {
		return "", fmt.Errorf("control %s: no selectors: %w", c, domain.ErrNotFound)
	}
	args, _ := json.Marshal(sels)
	var found string
	err := s.run(ctx, "find "+string(c), chromedp.Evaluate(fmt.Sprintf(jsFirstVisible, args), &found))
	return found, err
}

func (s *Session) HasControl(ctx context.Context, c browser.Control) (bool, error) {
	found, err := s.present(ctx, c)
	return found != "", err
}

func (s *Session) Click(ctx context.Context, c browser.Control) error {
	found, err := s.present(ctx, c)
	if err != nil {
		return err
	}
	if found == "" {
		return fmt.Errorf("click %s: %w", c, domain.ErrElementNotReady)
	}
	return s.run(ctx, "click "+string(c), chromedp.Click(found, chromedp.ByQuery, chromedp.NodeVisible))
}

func (s *Session) Type(ctx context.Context, c browser.Control, text string) error {
	found, err := s.present(ctx, c)
	if err != nil {
		return err
	}
	if found == "" {
		return fmt.Errorf("type into %s: %w", c, domain.ErrElementNotReady)
	}
	return s.run(ctx, "type into "+string(c),
		chromedp.Clear(found, chromedp.ByQuery),
		chromedp.SendKeys(found, text, chromedp.ByQuery),
	)
}

func (s *Session) JobDescription(ctx context.Context) (string, error) {
	h, err := s.html(ctx)
	if err != nil {
		return "", err
	}
	return browser.DescriptionIn(h, s.sel)
}

func (s *Session) AlreadyApplied(ctx context.Context) (bool, error) {
	h, err := s.html(ctx)
	if err != nil {
		return false, err
	}
	return browser.AppliedIn(h, s.sel)
}

func (s *Session) modalHTML(ctx context.Context) (string, error) {
	var out string
	err := s.run(ctx, "read modal",
		chromedp.WaitVisible(s.sel.Modal, chromedp.ByQuery),
		chromedp.Evaluate(fmt.Sprintf(jsSyncState, s.sel.Modal), nil),
		chromedp.OuterHTML(s.sel.Modal, &out, chromedp.ByQuery),
	)
	return out, err
}

func (s *Session) Fields(ctx context.Context) ([]domain.FormField, error) {
	h, err := s.modalHTML(ctx)
	if err != nil {
		return nil, err
	}
	return browser.ParseFields(h, s.sel)
}

func (s *Session) FindField(ctx context.Context, id string) (domain.FormField, error) {
	h, err := s.modalHTML(ctx)
	if err != nil {
		return domain.FormField{}, err
	}
	return browser.FindFieldIn(h, s.sel, id)
}

func (s *Session) SetValue(ctx context.Context, f domain.FormField, value string) error {
	if f.Locator == "" {
		return fmt.Errorf("set %s: no locator: %w", f.ID, domain.ErrNotFound)
	}
	switch f.Kind {
	case domain.KindText, domain.KindNumeric:
		return s.run(ctx, "set "+f.ID,
			chromedp.Clear(f.Locator, chromedp.ByQuery),
			chromedp.SendKeys(f.Locator, value, chromedp.ByQuery),
		)
	case domain.KindFile:
		return s.UploadFile(ctx, f, value)
	}

	var values []string
	if f.Kind == domain.KindMultiSelect {
		for _, v := range strings.Split(value, ",") {
			if v = strings.TrimSpace(v); v != "" {
				values = append(values, v)
			}
		}
	} else {
		values = []string{value}
	}
	args, _ := json.Marshal(map[string]any{"locator": f.Locator, "values": values})
	var res string
	if err := s.run(ctx, "choose "+f.ID, chromedp.Evaluate(fmt.Sprintf(jsChoose, args), &res)); err != nil {
		return err
	}
	switch res {
	case "ok":
		return nil
	case "missing":
		return fmt.Errorf("choose %s: %w", f.ID, domain.ErrElementNotReady)
	default:
		return fmt.Errorf("choose %s: %s: %w", f.ID, res, domain.ErrInvalidAnswerForKind)
	}
}

func (s *Session) UploadFile(ctx context.Context, f domain.FormField, path string) error {
	if f.Locator == "" {
		return fmt.Errorf("upload %s: no locator: %w", f.ID, domain.ErrNotFound)
	}
	return s.run(ctx, "upload "+f.ID, chromedp.SetUploadFiles(f.Locator, []string{path}, chromedp.ByQuery))
}

func (s *Session) ValidationErrors(ctx context.Context) ([]string, error) {
	var h string
	var has bool
	if err := s.run(ctx, "read errors",
		chromedp.Evaluate(fmt.Sprintf(`!!document.querySelector(%q)`, s.sel.Modal), &has),
	); err != nil {
		return nil, err
	}
	if !has {
		return nil, nil
	}
	if err := s.run(ctx, "read errors", chromedp.OuterHTML(s.sel.Modal, &h, chromedp.ByQuery)); err != nil {
		return nil, err
	}
	return browser.ValidationErrorsIn(h, s.sel)
}

// Listings scrolls every card into view so lazily rendered cards have content, then parses them.
func (s *Session) Listings(ctx context.Context) ([]domain.JobPosting, error) {
	var n int
	if err := s.run(ctx, "render listings",
		chromedp.Evaluate(fmt.Sprintf(jsScrollCards, s.sel.JobCards), &n),
		chromedp.Sleep(750*time.Millisecond),
	); err != nil {
		return nil, err
	}
	h, err := s.html(ctx)
	if err != nil {
		return nil, err
	}
	return browser.ParseListings(h, s.sel, s.baseURL, time.Now())
}

func (s *Session) Close() error {
	s.cancel()
	return nil
}
