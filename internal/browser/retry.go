package browser

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-retry"

	"easyapply-engine/internal/domain"
)

// Retry runs fn until it succeeds, fails with anything other than ErrElementNotReady,
// or attempts extra tries have been used.
func Retry(ctx context.Context, attempts int, backoff time.Duration, fn func(ctx context.Context) error) error {
	if attempts < 0 {
		attempts = 0
	}
	if backoff <= 0 {
		backoff = time.Millisecond
	}
	b := retry.WithMaxRetries(uint64(attempts), retry.NewConstant(backoff))
	return retry.Do(ctx, b, func(ctx context.Context) error {
		err := fn(ctx)
		if errors.Is(err, domain.ErrElementNotReady) {
			return retry.RetryableError(err)
		}
		return err
	})
}

// Retrying wraps a Session so every primitive retries transient element errors.
type Retrying struct {
	S        Session
	Attempts int
	Backoff  time.Duration
}

var _ Session = (*Retrying)(nil)

func (r *Retrying) do(ctx context.Context, fn func(ctx context.Context) error) error {
	return Retry(ctx, r.Attempts, r.Backoff, fn)
}

func (r *Retrying) Navigate(ctx context.Context, url string) error {
	return r.do(ctx, func(ctx context.Context) error { return r.S.Navigate(ctx, url) })
}

func (r *Retrying) JobDescription(ctx context.Context) (string, error) {
	var out string
	err := r.do(ctx, func(ctx context.Context) error {
		var err error
		out, err = r.S.JobDescription(ctx)
		return err
	})
	return out, err
}

func (r *Retrying) AlreadyApplied(ctx context.Context) (bool, error) {
	var out bool
	err := r.do(ctx, func(ctx context.Context) error {
		var err error
		out, err = r.S.AlreadyApplied(ctx)
		return err
	})
	return out, err
}

func (r *Retrying) HasControl(ctx context.Context, c Control) (bool, error) {
	var out bool
	err := r.do(ctx, func(ctx context.Context) error {
		var err error
		out, err = r.S.HasControl(ctx, c)
		return err
	})
	return out, err
}

func (r *Retrying) Click(ctx context.Context, c Control) error {
	return r.do(ctx, func(ctx context.Context) error { return r.S.Click(ctx, c) })
}

func (r *Retrying) Fields(ctx context.Context) ([]domain.FormField, error) {
	var out []domain.FormField
	err := r.do(ctx, func(ctx context.Context) error {
		var err error
		out, err = r.S.Fields(ctx)
		return err
	})
	return out, err
}

func (r *Retrying) FindField(ctx context.Context, id string) (domain.FormField, error) {
	var out domain.FormField
	err := r.do(ctx, func(ctx context.Context) error {
		var err error
		out, err = r.S.FindField(ctx, id)
		return err
	})
	return out, err
}

func (r *Retrying) SetValue(ctx context.Context, f domain.FormField, value string) error {
	return r.do(ctx, func(ctx context.Context) error { return r.S.SetValue(ctx, f, value) })
}

func (r *Retrying) UploadFile(ctx context.Context, f domain.FormField, path string) error {
	return r.do(ctx, func(ctx context.Context) error { return r.S.UploadFile(ctx, f, path) })
}

func (r *Retrying) ValidationErrors(ctx context.Context) ([]string, error) {
	var out []string
	err := r.do(ctx, func(ctx context.Context) error {
		var err error
		out, err = r.S.ValidationErrors(ctx)
		return err
	})
	return out, err
}

func (r *Retrying) Close() error { return r.S.Close() }
