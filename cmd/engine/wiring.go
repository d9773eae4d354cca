package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/mattn/go-isatty"

	"easyapply-engine/internal/auth"
	"easyapply-engine/internal/config"
	"easyapply-engine/internal/domain"
	"easyapply-engine/internal/httpapi"
	"easyapply-engine/internal/llm"
	"easyapply-engine/internal/prompt"
	"easyapply-engine/internal/resolver"
	"easyapply-engine/internal/resume"
	"easyapply-engine/internal/runlog"
	"easyapply-engine/internal/secrets"
	"easyapply-engine/internal/store"
)

// chatModel returns nil when nothing needs a model or no API key is available.
func chatModel(ctx context.Context, cfg config.Config) llm.ChatModel {
	needed := cfg.Resume.Enabled
	for _, p := range cfg.Answers.Prompters {
		needed = needed || p == "llm"
	}
	if !needed {
		return nil
	}
	key, err := secrets.LLMKey(cfg)
	if err != nil {
		log.Printf("[main] llm disabled: %v", err)
		return nil
	}
	m, err := llm.New(ctx, cfg, key)
	if err != nil {
		log.Printf("[main] llm disabled: %v", err)
		return nil
	}
	return m
}

// resumeSetup loads the baseline resume and, when tailoring is possible, the customizer.
func resumeSetup(cfg config.Config, db *store.DB, model llm.ChatModel) (resume.Baseline, *resume.Customizer) {
	if cfg.Resume.BaselinePath == "" {
		return resume.Baseline{}, nil
	}
	b, err := resume.LoadBaseline(cfg.Resume.BaselinePath)
	if err != nil {
		log.Printf("[main] baseline resume unavailable: %v", err)
		return resume.Baseline{}, nil
	}
	if !cfg.Resume.Enabled || model == nil {
		return b, nil
	}
	return b, &resume.Customizer{
		Model:    model,
		Index:    store.ResumeIndex{DB: db.Pool},
		Baseline: b,
		Dir:      cfg.Resume.Dir,
		Timeout:  cfg.ResumeTimeout(),
	}
}

// canPrompt reports whether an operator can answer in this terminal: the browser is
// visible and stdin is a TTY.
func canPrompt(cfg config.Config) bool {
	if cfg.Browser.Headless {
		return false
	}
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// prompters builds the fallback chain from answers.prompters. Without an operator the
// interactive prompter is left out, so batch runs never wait on stdin.
func prompters(cfg config.Config, term *prompt.Terminal, model llm.ChatModel, resumeText string, operator bool) resolver.Prompter {
	var chain resolver.Chain
	for _, name := range cfg.Answers.Prompters {
		switch name {
		case "interactive":
			if !operator {
				log.Printf("[engine] no operator terminal, skipping interactive prompts")
				continue
			}
			chain = append(chain, term)
		case "llm":
			if model != nil {
				chain = append(chain, resolver.LLMPrompter{Model: model, Resume: resumeText})
			}
		case "none":
			chain = append(chain, resolver.NoPrompt{})
		}
	}
	if len(chain) == 0 {
		return resolver.NoPrompt{}
	}
	return chain
}

func pinSource(cfg config.Config, term *prompt.Terminal) auth.PINSource {
	switch cfg.Account.PINSource {
	case "prompt":
		return term
	case "imap":
		pw, err := secrets.IMAPPassword(cfg)
		if err != nil {
			log.Printf("[main] imap pin source disabled: %v", err)
			return nil
		}
		return &auth.MailboxPIN{
			Addr:       net.JoinHostPort(cfg.IMAP.Host, strconv.Itoa(cfg.IMAP.Port)),
			Username:   cfg.IMAP.Username,
			Password:   pw,
			Mailbox:    cfg.IMAP.Mailbox,
			SubjectAny: cfg.IMAP.SubjectAny,
			Wait:       time.Duration(cfg.IMAP.WaitSeconds) * time.Second,
			Poll:       time.Duration(cfg.IMAP.PollSeconds) * time.Second,
		}
	}
	return nil
}

func setPassword(ctx context.Context, cfg config.Config, term *prompt.Terminal, which string) error {
	var account string
	switch strings.ToLower(which) {
	case "site":
		account = secrets.SiteAccount(cfg)
	case "imap":
		account = secrets.IMAPAccount(cfg)
	case "llm":
		account = secrets.LLMAccount(cfg)
	default:
		return fmt.Errorf("-set-password: unknown secret %q (site, imap or llm)", which)
	}
	secret, err := term.Password(ctx, "Secret for "+account)
	if err != nil {
		return err
	}
	if err := secrets.Set(account, secret); err != nil {
		return fmt.Errorf("store secret: %w", err)
	}
	log.Printf("[main] stored %s in the OS keychain", account)
	return nil
}

// statusRecorder records outcomes and keeps the status API snapshot current.
type statusRecorder struct {
	rec    *runlog.Recorder
	status *atomic.Value
}

func (s statusRecorder) Record(ctx context.Context, r domain.OutcomeRecord) error {
	err := s.rec.Record(ctx, r)

	st := s.status.Load().(httpapi.RunStatus)
	counts := make(map[string]int, len(st.Counts)+1)
	for k, v := range st.Counts {
		counts[k] = v
	}
	counts[string(r.Outcome)]++
	st.Counts = counts
	st.Processed++
	st.LastJobID = r.JobID
	st.LastOutcome = string(r.Outcome)
	s.status.Store(st)
	return err
}
