// Package auth signs the browser session in, handling the verification-PIN checkpoint.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"easyapply-engine/internal/browser"
	"easyapply-engine/internal/domain"
)

type Credentials struct {
	Username string
	Password string
}

// PINSource supplies the one-time code the site sends during a security checkpoint.
type PINSource interface {
	PIN(ctx context.Context) (string, error)
}

// PINFunc adapts a plain function to PINSource.
type PINFunc func(ctx context.Context) (string, error)

func (f PINFunc) PIN(ctx context.Context) (string, error) { return f(ctx) }

type Authenticator struct {
	Page     browser.LoginPage
	LoginURL string
	PIN      PINSource // nil fails any checkpoint
	Timeout  time.Duration
	Poll     time.Duration
}

// Login leaves the page signed in or returns an error wrapping domain.ErrAuthFailed.
// Session errors are returned as is so the caller can tell a dead browser from bad credentials.
func (a Authenticator) Login(ctx context.Context, creds Credentials) error {
	timeout := a.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	poll := a.Poll
	if poll <= 0 {
		poll = time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := a.Page.Navigate(ctx, a.LoginURL); err != nil {
		return fmt.Errorf("open login page: %w", err)
	}
	if ok, err := a.Page.HasControl(ctx, browser.ControlSignedIn); err == nil && ok {
		log.Printf("[auth] reusing existing session")
		return nil
	}

	if strings.TrimSpace(creds.Username) == "" || creds.Password == "" {
		return fmt.Errorf("missing username or password: %w", domain.ErrAuthFailed)
	}
	if err := a.Page.Type(ctx, browser.ControlUsername, creds.Username); err != nil {
		return fmt.Errorf("enter username: %w", err)
	}
	if err := a.Page.Type(ctx, browser.ControlPassword, creds.Password); err != nil {
		return fmt.Errorf("enter password: %w", err)
	}
	if err := a.Page.Click(ctx, browser.ControlSignIn); err != nil {
		return fmt.Errorf("submit login: %w", err)
	}

	pinSent := false
	t := time.NewTicker(poll)
	defer t.Stop()
	for {
		ok, err := a.Page.HasControl(ctx, browser.ControlSignedIn)
		if err != nil && !errors.Is(err, domain.ErrElementNotReady) {
			return a.wrapCtx(ctx, err)
		}
		if ok {
			log.Printf("[auth] signed in user=%q", creds.Username)
			return nil
		}

		if !pinSent {
			needPIN, err := a.Page.HasControl(ctx, browser.ControlPIN)
			if err != nil && !errors.Is(err, domain.ErrElementNotReady) {
				return a.wrapCtx(ctx, err)
			}
			if needPIN {
				if err := a.submitPIN(ctx); err != nil {
					return err
				}
				pinSent = true
			}
		}

		select {
		case <-ctx.Done():
			return a.wrapCtx(ctx, ctx.Err())
		case <-t.C:
		}
	}
}

func (a Authenticator) submitPIN(ctx context.Context) error {
	if a.PIN == nil {
		return fmt.Errorf("verification pin requested but no pin source configured: %w", domain.ErrAuthFailed)
	}
	log.Printf("[auth] verification pin requested")
	pin, err := a.PIN.PIN(ctx)
	if err != nil {
		return fmt.Errorf("get verification pin: %v: %w", err, domain.ErrAuthFailed)
	}
	pin = strings.TrimSpace(pin)
	if pin == "" {
		return fmt.Errorf("empty verification pin: %w", domain.ErrAuthFailed)
	}
	if err := a.Page.Type(ctx, browser.ControlPIN, pin); err != nil {
		return fmt.Errorf("enter pin: %w", err)
	}
	if err := a.Page.Click(ctx, browser.ControlVerify); err != nil {
		return fmt.Errorf("submit pin: %w", err)
	}
	return nil
}

// wrapCtx turns the login deadline into ErrAuthFailed; other errors pass through.
func (a Authenticator) wrapCtx(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("not signed in before timeout: %w", domain.ErrAuthFailed)
	}
	return err
}
