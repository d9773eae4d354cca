package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"easyapply-engine/internal/config"
	"easyapply-engine/internal/domain"
	"easyapply-engine/internal/httpapi"
	"easyapply-engine/internal/prompt"
	"easyapply-engine/internal/resolver"
	"easyapply-engine/internal/runlog"
	"easyapply-engine/internal/store"
)

func TestFlagsOverrideOnlyWhatIsSet(t *testing.T) {
	o, err := parseFlags([]string{"-keywords", "python developer", "-work-types", "remote,hybrid", "-recency", "90", "-recency-unit", "minutes", "-dry-run"}, io.Discard)
	require.NoError(t, err)

	cfg := o.apply(config.Default())
	assert.Equal(t, "python developer", cfg.Search.Keywords)
	assert.Equal(t, []string{"remote", "hybrid"}, cfg.Search.WorkTypes)
	assert.Equal(t, "90", cfg.Search.Recency)
	assert.Equal(t, "minutes", cfg.Search.RecencyUnit)
	assert.True(t, cfg.App.DryRun)
	assert.Equal(t, config.Default().Search.Location, cfg.Search.Location)
	assert.Equal(t, config.Default().Browser.Headless, cfg.Browser.Headless)

	crit, err := cfg.Criteria()
	require.NoError(t, err)
	assert.Equal(t, []domain.WorkType{domain.WorkRemote, domain.WorkHybrid}, crit.WorkTypes)
}

func TestFlagsRejectStrayArguments(t *testing.T) {
	_, err := parseFlags([]string{"-headless", "extra"}, io.Discard)
	assert.Error(t, err)
}

func TestPromptersFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Answers.Prompters = []string{"llm", "none"}
	p := prompters(cfg, &prompt.Terminal{}, nil, "", true)
	chain, ok := p.(resolver.Chain)
	require.True(t, ok)
	assert.Len(t, chain, 1)

	cfg.Answers.Prompters = nil
	_, ok = prompters(cfg, &prompt.Terminal{}, nil, "", true).(resolver.NoPrompt)
	assert.True(t, ok)

	term := &prompt.Terminal{}
	cfg.Answers.Prompters = []string{"interactive"}
	chain, ok = prompters(cfg, term, nil, "", true).(resolver.Chain)
	require.True(t, ok)
	assert.Equal(t, resolver.Chain{term}, chain)

	// batch runs never start a terminal prompt
	_, ok = prompters(cfg, term, nil, "", false).(resolver.NoPrompt)
	assert.True(t, ok)
}

func TestHeadlessRunHasNoOperator(t *testing.T) {
	cfg := config.Default()
	cfg.Browser.Headless = true
	assert.False(t, canPrompt(cfg))
}

func TestResumeSetupWithoutModelUsesBaselineOnly(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "resume.txt")
	require.NoError(t, os.WriteFile(path, []byte("Jane Doe\nGo engineer"), 0o644))

	cfg := config.Default()
	cfg.Resume.BaselinePath = path
	b, c := resumeSetup(cfg, nil, nil)
	assert.Equal(t, path, b.Path)
	assert.Nil(t, c)
}

func TestStatusRecorder(t *testing.T) {
	dir := t.TempDir()
	db, err := store.OpenAndMigrate(filepath.Join(dir, "easyapply.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rec, err := runlog.New(db.Pool, dir, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rec.Finish(nil) })

	var status atomic.Value
	status.Store(httpapi.RunStatus{RunID: rec.RunID, Counts: map[string]int{}})
	sr := statusRecorder{rec: rec, status: &status}

	require.NoError(t, sr.Record(context.Background(), domain.OutcomeRecord{JobID: "1", Outcome: domain.OutcomeSubmitted}))
	require.NoError(t, sr.Record(context.Background(), domain.OutcomeRecord{JobID: "2", Outcome: domain.OutcomeFailed}))

	st := status.Load().(httpapi.RunStatus)
	assert.Equal(t, 2, st.Processed)
	assert.Equal(t, 1, st.Counts["submitted"])
	assert.Equal(t, "2", st.LastJobID)
}
