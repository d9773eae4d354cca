package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"easyapply-engine/internal/auth"
	"easyapply-engine/internal/browser"
	"easyapply-engine/internal/browser/chrome"
	"easyapply-engine/internal/config"
	"easyapply-engine/internal/domain"
	"easyapply-engine/internal/events"
	"easyapply-engine/internal/httpapi"
	"easyapply-engine/internal/prompt"
	"easyapply-engine/internal/resolver"
	"easyapply-engine/internal/runlog"
	"easyapply-engine/internal/search"
	"easyapply-engine/internal/secrets"
	"easyapply-engine/internal/store"
	"easyapply-engine/internal/workflow"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run returns the process exit code: 0 when the run completed, 1 when it was aborted.
func run(args []string) int {
	// .env is optional
	_ = godotenv.Load()

	opts, err := parseFlags(args, os.Stderr)
	if err != nil {
		return 2
	}

	// Engine data dir: use env if provided, else the working directory.
	dataDir := os.Getenv("EASYAPPLY_DATA_DIR")
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		log.Printf("[main] data dir: %v", err)
		return 1
	}

	cfgPath := opts.configPath
	if cfgPath == "" {
		if cfgPath, err = config.EnsureUserConfig(dataDir); err != nil {
			log.Printf("[main] config bootstrap failed: %v", err)
			return 1
		}
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Printf("[main] config load failed (%s): %v", cfgPath, err)
		return 1
	}
	cfg = opts.apply(config.Resolve(cfg, dataDir))
	cfg, vr := config.NormalizeAndValidate(cfg)
	for _, w := range vr.Warnings {
		log.Printf("[config] warning: %s", w)
	}
	if !vr.OK() {
		for _, e := range vr.Errors {
			log.Printf("[config] error: %s", e)
		}
		return 1
	}

	term := &prompt.Terminal{}
	if opts.setPassword != "" {
		if err := setPassword(context.Background(), cfg, term, opts.setPassword); err != nil {
			log.Printf("[main] %v", err)
			return 1
		}
		return 0
	}

	lock, err := store.LockDataDir(dataDir)
	if err != nil {
		log.Printf("[main] %v", err)
		return 1
	}
	defer func() { _ = lock.Unlock() }()

	logFile, err := openRunLog(cfg.App.LogDir)
	if err != nil {
		log.Printf("[main] %v", err)
		return 1
	}
	defer logFile.Close()
	log.SetOutput(io.MultiWriter(os.Stderr, logFile))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if d := cfg.RunTimeout(); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	if err := apply(ctx, cfg, cfgPath, dataDir, term); err != nil {
		log.Printf("[main] run aborted: %v", err)
		return 1
	}
	return 0
}

func apply(ctx context.Context, cfg config.Config, cfgPath, dataDir string, term *prompt.Terminal) error {
	crit, err := cfg.Criteria()
	if err != nil {
		return err
	}

	dbPath := filepath.Join(dataDir, "easyapply.db")
	db, err := store.OpenAndMigrate(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	answers, err := store.LoadAnswers(ctx, db.Pool)
	if err != nil {
		return err
	}
	if cfg.Answers.ImportPath != "" {
		n, err := answers.ImportLegacyJSON(ctx, cfg.Answers.ImportPath)
		if err != nil {
			log.Printf("[main] answers import skipped: %v", err)
		} else {
			log.Printf("[main] imported %d answers from %s", n, cfg.Answers.ImportPath)
		}
	}
	log.Printf("[main] loaded %d stored answers (db=%s)", answers.Len(), dbPath)

	hub := events.NewHub()
	defer hub.Close()
	rec, err := runlog.New(db.Pool, dataDir, hub)
	if err != nil {
		return err
	}
	rec.Start(map[string]any{"criteria": crit, "dry_run": cfg.App.DryRun})

	var status atomic.Value
	status.Store(httpapi.RunStatus{RunID: rec.RunID, StartedAt: time.Now().UTC(), Running: true, DryRun: cfg.App.DryRun, Counts: map[string]int{}})

	model := chatModel(ctx, cfg)
	baseline, customizer := resumeSetup(cfg, db, model)

	res := &resolver.Resolver{
		Store:         rec.Learning(answers),
		Profile:       resolver.ProfileFromConfig(cfg),
		Prompter:      prompters(cfg, term, model, baseline.Text, canPrompt(cfg)),
		QualifyByKind: cfg.Answers.QualifyByKind,
	}

	sel := browser.LinkedIn()
	launcher := chrome.Launcher{
		ExecPath:      cfg.Browser.ExecPath,
		UserDataDir:   cfg.Browser.UserDataDir,
		ActionTimeout: cfg.ActionTimeout(),
		BaseURL:       cfg.Search.BaseURL,
		Selectors:     sel,
	}
	driver, err := launcher.Open(ctx, cfg.Browser.Headless)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrSessionLost, err)
	}
	defer driver.Close()
	page := browser.Throttled{Driver: driver, Limiter: browser.NewHostLimiter(cfg.Browser.NavigationsPerMinute, 1)}

	if err := login(ctx, cfg, page, sel, term); err != nil {
		return err
	}

	var query string
	if cfg.Search.QueryFile != "" {
		if query, err = search.LoadQueryFile(cfg.Search.QueryFile); err != nil {
			return err
		}
	}
	svc := &search.Service{
		Page:     page,
		BaseURL:  cfg.Search.BaseURL,
		MaxPages: cfg.Search.MaxPages,
		Queries:  cfg.Queries,
		Query:    query,
	}

	wf := &workflow.Workflow{
		Session: &browser.Retrying{
			S:        page,
			Attempts: cfg.Browser.RetryAttempts,
			Backoff:  cfg.RetryBackoff(),
		},
		Resolver:       res,
		Filter:         search.Filter{Criteria: crit, Exclude: cfg.Search.ExcludeTitles},
		BaselineResume: baseline.Path,
		Recorder:       statusRecorder{rec: rec, status: &status},
		RunID:          rec.RunID,
		DryRun:         cfg.App.DryRun,
		MaxPages:       cfg.App.MaxPagesPerJob,
	}
	if customizer != nil {
		wf.Resumes = customizer
	}
	runner := &workflow.Runner{Search: svc, Workflow: wf, Criteria: crit}

	runCtx, stopServer := context.WithCancel(ctx)
	defer stopServer()
	var g errgroup.Group

	if addr := cfg.App.StatusAddr; addr != "" {
		srv := httpapi.NewServer(addr, httpapi.Deps{
			DB: db.Pool, Hub: hub, Answers: answers, Cfg: cfg, CfgPath: cfgPath, Status: &status,
		})
		g.Go(func() error {
			log.Printf("[main] status API on http://%s", addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("[main] status API stopped: %v", err)
			}
			return nil
		})
		g.Go(func() error {
			<-runCtx.Done()
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(sctx)
		})
	}

	var sum workflow.Summary
	var runErr error
	g.Go(func() error {
		defer stopServer()
		sum, runErr = runner.Run(runCtx)
		return nil
	})
	if err := g.Wait(); err != nil {
		log.Printf("[main] status API shutdown: %v", err)
	}

	st := status.Load().(httpapi.RunStatus)
	st.Running = false
	if runErr != nil {
		st.LastError = runErr.Error()
	}
	status.Store(st)
	if err := rec.Finish(map[string]any{"summary": sum, "error": st.LastError}); err != nil {
		log.Printf("[main] close run log: %v", err)
	}
	log.Printf("[main] run %s finished processed=%d counts=%v", rec.RunID, sum.Processed, sum.Counts)
	return runErr
}

func login(ctx context.Context, cfg config.Config, page browser.LoginPage, sel browser.Selectors, term *prompt.Terminal) error {
	password, err := secrets.SitePassword(cfg)
	if errors.Is(err, secrets.ErrSecretNotFound) {
		password, err = term.Password(ctx, "Password for "+cfg.Account.Username)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrAuthFailed, err)
	}

	a := auth.Authenticator{
		Page:     page,
		LoginURL: sel.LoginURL,
		PIN:      pinSource(cfg, term),
		Timeout:  time.Duration(cfg.Browser.LoginTimeoutSeconds) * time.Second,
	}
	return a.Login(ctx, auth.Credentials{Username: cfg.Account.Username, Password: password})
}

func openRunLog(dir string) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	name := fmt.Sprintf("run_%s.log", time.Now().Format("20060102_150405"))
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open run log: %w", err)
	}
	return f, nil
}
