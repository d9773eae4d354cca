package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"easyapply-engine/internal/browser"
	"easyapply-engine/internal/domain"
)

// fakeLogin signs in after the given number of polls, optionally asking for a pin first.
type fakeLogin struct {
	signedIn  bool
	askPIN    bool
	pinTyped  string
	typed     map[browser.Control]string
	clicks    []browser.Control
	polls     int
	okAfter   int
	wrongPass bool
}

func (f *fakeLogin) Navigate(ctx context.Context, url string) error { return nil }

func (f *fakeLogin) HasControl(ctx context.Context, c browser.Control) (bool, error) {
	switch c {
	case browser.ControlSignedIn:
		if f.signedIn {
			return true, nil
		}
		if f.wrongPass || len(f.clicks) == 0 {
			return false, nil
		}
		if f.askPIN && f.pinTyped == "" {
			return false, nil
		}
		f.polls++
		return f.polls > f.okAfter, nil
	case browser.ControlPIN:
		return f.askPIN && f.pinTyped == "" && len(f.clicks) > 0, nil
	}
	return false, nil
}

func (f *fakeLogin) Click(ctx context.Context, c browser.Control) error {
	f.clicks = append(f.clicks, c)
	return nil
}

func (f *fakeLogin) Type(ctx context.Context, c browser.Control, text string) error {
	if f.typed == nil {
		f.typed = map[browser.Control]string{}
	}
	f.typed[c] = text
	if c == browser.ControlPIN {
		f.pinTyped = text
	}
	return nil
}

func TestLoginReusesSession(t *testing.T) {
	page := &fakeLogin{signedIn: true}
	a := Authenticator{Page: page, Poll: time.Millisecond}
	require.NoError(t, a.Login(context.Background(), Credentials{}))
	assert.Empty(t, page.clicks)
}

func TestLoginWithPassword(t *testing.T) {
	page := &fakeLogin{okAfter: 2}
	a := Authenticator{Page: page, Poll: time.Millisecond}
	require.NoError(t, a.Login(context.Background(), Credentials{Username: "me@example.com", Password: "pw"}))
	assert.Equal(t, "me@example.com", page.typed[browser.ControlUsername])
	assert.Equal(t, []browser.Control{browser.ControlSignIn}, page.clicks)
}

func TestLoginWithPIN(t *testing.T) {
	page := &fakeLogin{askPIN: true}
	a := Authenticator{
		Page: page,
		Poll: time.Millisecond,
		PIN:  PINFunc(func(ctx context.Context) (string, error) { return " 123456 ", nil }),
	}
	require.NoError(t, a.Login(context.Background(), Credentials{Username: "u", Password: "p"}))
	assert.Equal(t, "123456", page.pinTyped)
	assert.Equal(t, []browser.Control{browser.ControlSignIn, browser.ControlVerify}, page.clicks)
}

func TestLoginPINWithoutSource(t *testing.T) {
	page := &fakeLogin{askPIN: true}
	a := Authenticator{Page: page, Poll: time.Millisecond}
	err := a.Login(context.Background(), Credentials{Username: "u", Password: "p"})
	assert.ErrorIs(t, err, domain.ErrAuthFailed)
}

func TestLoginTimesOut(t *testing.T) {
	page := &fakeLogin{wrongPass: true}
	a := Authenticator{Page: page, Poll: time.Millisecond, Timeout: 20 * time.Millisecond}
	err := a.Login(context.Background(), Credentials{Username: "u", Password: "p"})
	assert.ErrorIs(t, err, domain.ErrAuthFailed)
}

func TestLoginMissingCredentials(t *testing.T) {
	a := Authenticator{Page: &fakeLogin{}, Poll: time.Millisecond}
	err := a.Login(context.Background(), Credentials{Username: "u"})
	assert.ErrorIs(t, err, domain.ErrAuthFailed)
}

func TestPINFromMessage(t *testing.T) {
	raw := strings.Join([]string{
		"From: security@example.com",
		"Subject: Here's your verification code",
		"MIME-Version: 1.0",
		`Content-Type: multipart/alternative; boundary="b1"`,
		"",
		"--b1",
		"Content-Type: text/plain; charset=utf-8",
		"",
		"Use 482913 to verify it's you. Ref 12345.",
		"--b1",
		"Content-Type: text/html; charset=utf-8",
		"",
		"<p>Use <b>482913</b></p>",
		"--b1--",
		"",
	}, "\r\n")

	pin, ok := PINFromMessage([]byte(raw))
	require.True(t, ok)
	assert.Equal(t, "482913", pin)

	_, ok = PINFromMessage([]byte("Subject: hi\r\n\r\nno code here 12345\r\n"))
	assert.False(t, ok)
}

func TestSubjectMatches(t *testing.T) {
	assert.True(t, subjectMatches("Your Verification Code", []string{"verification code"}))
	assert.False(t, subjectMatches("Newsletter", []string{"verification code", "pin"}))
	assert.True(t, subjectMatches("anything", nil))
}
