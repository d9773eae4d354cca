package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"easyapply-engine/internal/config"
	"easyapply-engine/internal/domain"
	"easyapply-engine/internal/events"
	"easyapply-engine/internal/secrets"
	"easyapply-engine/internal/store"
)

func newTestDeps(t *testing.T) Deps {
	t.Helper()
	dir := t.TempDir()
	db, err := store.OpenAndMigrate(filepath.Join(dir, "easyapply.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	answers, err := store.LoadAnswers(context.Background(), db.Pool)
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Account.Username = "me@example.com"
	cfgPath := filepath.Join(dir, "config.yml")
	require.NoError(t, config.SaveAtomic(cfgPath, cfg))

	var status atomic.Value
	status.Store(RunStatus{RunID: "run-1", Running: true, Counts: map[string]int{"submitted": 2}})

	return Deps{DB: db.Pool, Hub: events.NewHub(), Answers: answers, Cfg: cfg, CfgPath: cfgPath, Status: &status}
}

func serve(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHealthAndStatus(t *testing.T) {
	d := newTestDeps(t)
	h := NewServer("", d).Handler

	rr := serve(h, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"ok":true`)
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))

	rr = serve(h, http.MethodGet, "/status", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var st RunStatus
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &st))
	assert.Equal(t, "run-1", st.RunID)
	assert.Equal(t, 2, st.Counts["submitted"])
}

func TestMethodNotAllowed(t *testing.T) {
	h := NewServer("", newTestDeps(t)).Handler
	rr := serve(h, http.MethodPost, "/health", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)

	var e APIError
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &e))
	assert.Equal(t, "method_not_allowed", e.Error.Code)
	assert.NotEmpty(t, e.Error.RequestID)
}

func TestOutcomes(t *testing.T) {
	d := newTestDeps(t)
	now := time.Now().UTC()
	for i, o := range []domain.Outcome{domain.OutcomeSubmitted, domain.OutcomeFailed, domain.OutcomeSubmitted} {
		require.NoError(t, store.InsertOutcome(context.Background(), d.DB, domain.OutcomeRecord{
			RunID: "run-1", JobID: string(rune('a' + i)), Outcome: o, Stage: domain.StageDone,
			StartedAt: now, EndedAt: now,
		}))
	}
	h := NewServer("", d).Handler

	rr := serve(h, http.MethodGet, "/outcomes?run_id=run-1&outcome=submitted", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var rows []domain.OutcomeRecord
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rows))
	assert.Len(t, rows, 2)

	rr = serve(h, http.MethodGet, "/outcomes/counts?run_id=run-1", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var counts map[string]int
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &counts))
	assert.Equal(t, 2, counts["submitted"])
	assert.Equal(t, 1, counts["failed"])
}

func TestCleanupRequiresLoopback(t *testing.T) {
	h := NewServer("", newTestDeps(t)).Handler

	req := httptest.NewRequest(http.MethodPost, "/outcomes/cleanup", nil)
	req.RemoteAddr = "192.0.2.10:4000"
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	req = httptest.NewRequest(http.MethodPost, "/outcomes/cleanup?keep_days=30", nil)
	req.RemoteAddr = "127.0.0.1:4000"
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestAnswersLifecycle(t *testing.T) {
	d := newTestDeps(t)
	sub := d.Hub.Subscribe()
	h := NewServer("", d).Handler

	rr := serve(h, http.MethodPut, "/answers", `{"question":"Are you willing to relocate?","answer":"No"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	rule, ok := d.Answers.Lookup("are you willing to relocate?")
	require.True(t, ok)
	assert.Equal(t, domain.SourceManual, rule.Source)

	e, err := events.Parse(<-sub)
	require.NoError(t, err)
	assert.Equal(t, events.AnswerLearned, e.Type)

	rr = serve(h, http.MethodGet, "/answers", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var all []domain.AnswerRule
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &all))
	require.Len(t, all, 1)

	rr = serve(h, http.MethodDelete, "/answers/are%20you%20willing%20to%20relocate%3F", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 0, d.Answers.Len())

	rr = serve(h, http.MethodDelete, "/answers/are%20you%20willing%20to%20relocate%3F", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = serve(h, http.MethodPut, "/answers", `{"question":"","answer":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestConfigEndpoints(t *testing.T) {
	h := NewServer("", newTestDeps(t)).Handler

	rr := serve(h, http.MethodPost, "/config/validate", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var vr config.Validation
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &vr))
	assert.Empty(t, vr.Errors)

	rr = serve(h, http.MethodPost, "/config/validate", "app:\n  max_pages_per_job: 0\n")
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &vr))
	assert.Contains(t, vr.Errors, "app.max_pages_per_job must be > 0")

	rr = serve(h, http.MethodGet, "/config/validate", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)

	rr = serve(h, http.MethodGet, "/config/path", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "config.yml")
}

func TestPutConfigSavesForNextRun(t *testing.T) {
	d := newTestDeps(t)
	h := NewServer("", d).Handler
	put := func(remote, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPut, "/config", strings.NewReader(body))
		req.RemoteAddr = remote
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr
	}

	rr := put("192.0.2.10:4000", "app:\n  dry_run: true\n")
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = put("127.0.0.1:4000", "app:\n  dry_run: true\n")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	saved, err := config.Load(d.CfgPath)
	require.NoError(t, err)
	assert.True(t, saved.App.DryRun)
	assert.False(t, d.Cfg.App.DryRun)

	rr = put("127.0.0.1:4000", "app:\n  max_pages_per_job: 0\n")
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	rr = put("127.0.0.1:4000", "app:\n  no_such_key: 1\n")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	saved, err = config.Load(d.CfgPath)
	require.NoError(t, err)
	assert.True(t, saved.App.DryRun)
}

func TestSetSecret(t *testing.T) {
	keyring.MockInit()
	d := newTestDeps(t)
	h := NewServer("", d).Handler

	req := httptest.NewRequest(http.MethodPost, "/api/secrets/site", strings.NewReader(`{"secret":"hunter2"}`))
	req.RemoteAddr = "127.0.0.1:5000"
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusNoContent, rr.Code)

	got, err := secrets.SitePassword(d.Cfg)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", got)

	req = httptest.NewRequest(http.MethodPost, "/api/secrets/bank", strings.NewReader(`{"secret":"x"}`))
	req.RemoteAddr = "127.0.0.1:5000"
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRecoverMiddleware(t *testing.T) {
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}), RequestID, Recover)

	rr := serve(h, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), "internal_error")
}

func TestEventsEndWhenHubCloses(t *testing.T) {
	d := newTestDeps(t)
	d.Hub.Close()

	rr := serve(NewServer("", d).Handler, http.MethodGet, "/events", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/event-stream", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Body.String(), `"type":"ping"`)
}

func TestCorsOnlyForLoopbackOrigins(t *testing.T) {
	h := NewServer("", newTestDeps(t)).Handler

	for origin, allowed := range map[string]bool{
		"http://localhost:5173": true,
		"http://127.0.0.1:3000": true,
		"https://example.com":   false,
	} {
		req := httptest.NewRequest(http.MethodOptions, "/status", nil)
		req.Header.Set("Origin", origin)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNoContent, rr.Code, origin)
		if allowed {
			assert.Equal(t, origin, rr.Header().Get("Access-Control-Allow-Origin"))
		} else {
			assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"), origin)
		}
	}
}
