// Package chrome drives a local Chrome through the DevTools protocol.
package chrome

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/chromedp/cdproto/inspector"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"easyapply-engine/internal/browser"
)

type Launcher struct {
	ExecPath      string
	UserDataDir   string
	ActionTimeout time.Duration
	BaseURL       string
	Selectors     browser.Selectors
}

var _ browser.Launcher = Launcher{}

// Open starts Chrome. The browser is not bound to ctx so cleanup can still run
// after the run has been cancelled; Close releases it.
func (l Launcher) Open(ctx context.Context, headless bool) (browser.Driver, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", headless),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.WindowSize(1366, 900),
	)
	if l.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(l.ExecPath))
	}
	if l.UserDataDir != "" {
		opts = append(opts, chromedp.UserDataDir(l.UserDataDir))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(format string, args ...any) {
		log.Printf("[chrome] "+format, args...)
	}))

	// The first Run launches the browser and binds its lifetime to the ctx it
	// is given, so it must be tabCtx itself. Startup is bounded separately.
	timer := time.AfterFunc(30*time.Second, tabCancel)
	stop := context.AfterFunc(ctx, tabCancel)
	err := chromedp.Run(tabCtx)
	timer.Stop()
	stop()
	if err != nil || ctx.Err() != nil {
		tabCancel()
		allocCancel()
		if err == nil {
			err = ctx.Err()
		}
		return nil, fmt.Errorf("start chrome: %w", err)
	}

	timeout := l.ActionTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	sel := l.Selectors
	if sel.Controls == nil {
		sel = browser.LinkedIn()
	}
	log.Printf("[chrome] started headless=%t", headless)
	s := &Session{
		tabCtx:  tabCtx,
		cancel:  func() { tabCancel(); allocCancel() },
		timeout: timeout,
		sel:     sel,
		baseURL: l.BaseURL,
	}
	s.watch()
	return s, nil
}

// watch marks the session lost when the tab crashes or detaches, and accepts
// JavaScript dialogs so they cannot block the page.
func (s *Session) watch() {
	chromedp.ListenTarget(s.tabCtx, func(ev any) {
		switch ev := ev.(type) {
		case *inspector.EventTargetCrashed:
			log.Printf("[chrome] tab crashed")
			s.lost.Store(true)
		case *inspector.EventDetached:
			log.Printf("[chrome] detached reason=%q", ev.Reason)
			s.lost.Store(true)
		case *page.EventJavascriptDialogOpening:
			log.Printf("[chrome] accepting %s dialog", ev.Type)
			// handlers must not block the event loop
			go func() {
				if err := chromedp.Run(s.tabCtx, page.HandleJavaScriptDialog(true)); err != nil {
					log.Printf("[chrome] dialog: %v", err)
				}
			}()
		}
	})
}
