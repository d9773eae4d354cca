package auth

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
)

// MailboxPIN waits for the verification email and reads the code from it.
type MailboxPIN struct {
	Addr       string // host:port
	Username   string
	Password   string
	Mailbox    string
	SubjectAny []string
	Wait       time.Duration
	Poll       time.Duration
	TLSConfig  *tls.Config

	now func() time.Time
}

var _ PINSource = (*MailboxPIN)(nil)

var errNoPIN = errors.New("no verification email yet")

func (m *MailboxPIN) PIN(ctx context.Context) (string, error) {
	now := time.Now
	if m.now != nil {
		now = m.now
	}
	wait, poll := m.Wait, m.Poll
	if wait <= 0 {
		wait = 2 * time.Minute
	}
	if poll <= 0 {
		poll = 5 * time.Second
	}
	// the code is only valid if it arrived after we asked for it, allow a little clock skew
	requested := now().Add(-time.Minute)

	ctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	for {
		pin, err := m.fetchOnce(ctx, requested)
		if err == nil {
			log.Printf("[auth] verification pin read from mailbox=%s", m.Mailbox)
			return pin, nil
		}
		if !errors.Is(err, errNoPIN) {
			log.Printf("[auth] mailbox check failed: %v", err)
		}
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("wait for verification email: %w", ctx.Err())
		case <-time.After(poll):
		}
	}
}

func (m *MailboxPIN) fetchOnce(ctx context.Context, since time.Time) (string, error) {
	if m.Addr == "" || m.Username == "" || m.Password == "" {
		return "", errors.New("imap addr, username and password are required")
	}
	tlsCfg := m.TLSConfig
	if tlsCfg == nil {
		tlsCfg = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	c, err := imapclient.DialTLS(m.Addr, &imapclient.Options{TLSConfig: tlsCfg})
	if err != nil {
		return "", fmt.Errorf("imap dial tls: %w", err)
	}
	stop := context.AfterFunc(ctx, func() { _ = c.Close() })
	defer stop()
	defer func() {
		if err := c.Logout().Wait(); err != nil {
			log.Printf("[auth] imap logout: %v", err)
		}
		_ = c.Close()
	}()

	if err := c.Login(m.Username, m.Password).Wait(); err != nil {
		return "", fmt.Errorf("imap login: %w", err)
	}
	mailbox := m.Mailbox
	if mailbox == "" {
		mailbox = "INBOX"
	}
	if _, err := c.Select(mailbox, &imap.SelectOptions{}).Wait(); err != nil {
		return "", fmt.Errorf("imap select %s: %w", mailbox, err)
	}

	// SINCE has day granularity, InternalDate filters the rest
	search, err := c.UIDSearch(&imap.SearchCriteria{
		NotFlag: []imap.Flag{imap.FlagSeen},
		Since:   since.Add(-24 * time.Hour),
	}, nil).Wait()
	if err != nil {
		return "", fmt.Errorf("imap uid search: %w", err)
	}
	uids := search.AllUIDs()
	if len(uids) == 0 {
		return "", errNoPIN
	}

	body := &imap.FetchItemBodySection{Specifier: imap.PartSpecifierNone, Peek: true}
	fetch := c.Fetch(imap.UIDSetNum(uids...), &imap.FetchOptions{
		UID:          true,
		Envelope:     true,
		InternalDate: true,
		BodySection:  []*imap.FetchItemBodySection{body},
	})
	defer func() { _ = fetch.Close() }()

	var best string
	var bestAt time.Time
	var bestUID imap.UID
	for {
		msg := fetch.Next()
		if msg == nil {
			break
		}
		buf, err := msg.Collect()
		if err != nil {
			return "", fmt.Errorf("imap fetch collect: %w", err)
		}
		if buf.InternalDate.Before(since) {
			continue
		}
		subject := ""
		if buf.Envelope != nil {
			subject = buf.Envelope.Subject
		}
		if !subjectMatches(subject, m.SubjectAny) {
			continue
		}
		pin, ok := PINFromMessage(buf.FindBodySection(body))
		if !ok {
			continue
		}
		if buf.InternalDate.After(bestAt) {
			best, bestAt, bestUID = pin, buf.InternalDate, buf.UID
		}
	}
	if err := fetch.Close(); err != nil {
		return "", fmt.Errorf("imap fetch close: %w", err)
	}
	if best == "" {
		return "", errNoPIN
	}

	seen := &imap.StoreFlags{Op: imap.StoreFlagsAdd, Silent: true, Flags: []imap.Flag{imap.FlagSeen}}
	if err := c.Store(imap.UIDSetNum(bestUID), seen, nil).Close(); err != nil {
		log.Printf("[auth] imap mark seen uid=%d: %v", bestUID, err)
	}
	return best, nil
}

func subjectMatches(subject string, terms []string) bool {
	if len(terms) == 0 {
		return true
	}
	s := strings.ToLower(subject)
	for _, a := range terms {
		if a = strings.ToLower(strings.TrimSpace(a)); a != "" && strings.Contains(s, a) {
			return true
		}
	}
	return false
}

var rePIN = regexp.MustCompile(`\b(\d{6})\b`)

// PINFromMessage extracts a six-digit code from the text parts of a raw RFC 822 message.
func PINFromMessage(raw []byte) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		return firstPIN(string(raw))
	}
	if subj, err := mr.Header.Subject(); err == nil {
		if pin, ok := firstPIN(subj); ok {
			return pin, true
		}
	}
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", false
		}
		if _, ok := p.Header.(*mail.InlineHeader); !ok {
			continue
		}
		b, _ := io.ReadAll(p.Body)
		if pin, ok := firstPIN(stripTags(string(b))); ok {
			return pin, true
		}
	}
	return "", false
}

var reTags = regexp.MustCompile(`(?is)<style.*?</style>|<[^>]+>`)

func stripTags(s string) string { return reTags.ReplaceAllString(s, " ") }

func firstPIN(s string) (string, bool) {
	m := rePIN.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return m[1], true
}
