package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"easyapply-engine/internal/domain"
)

func TestEnsureUserConfigWritesDefaults(t *testing.T) {
	dir := t.TempDir()

	path, err := EnsureUserConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "config.yml"), path)

	cfg, err := Load(path)
	require.NoError(t, err)
	_, v := NormalizeAndValidate(cfg)
	assert.True(t, v.OK(), "defaults should validate: %v", v.Errors)
	assert.Equal(t, 10, cfg.App.MaxPagesPerJob)
	assert.Equal(t, "seconds", cfg.Search.RecencyUnit)
}

func TestEnsureUserConfigKeepsExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("app:\n  dry_run: true\n"), 0o644))

	got, err := EnsureUserConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, path, got)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.App.DryRun)
	// unspecified keys fall back to defaults
	assert.Equal(t, 3, cfg.Browser.RetryAttempts)
}

func TestNormalizeAndValidate(t *testing.T) {
	cfg := Default()
	cfg.Search.ExcludeTitles = []string{" Senior ", "senior", "", "Lead"}
	cfg.Search.RecencyUnit = "hours"
	cfg.Search.PredefinedQuery = "missing"
	cfg.App.MaxPagesPerJob = 0

	out, v := NormalizeAndValidate(cfg)
	assert.Equal(t, []string{"Senior", "Lead"}, out.Search.ExcludeTitles)
	assert.False(t, v.OK())
	assert.Contains(t, v.Errors, `search.recency_unit must be seconds or minutes, got "hours"`)
	assert.Contains(t, v.Errors, `search.predefined_query "missing" is not defined under queries`)
	assert.Contains(t, v.Errors, "app.max_pages_per_job must be > 0")
}

func TestPrompterNamesLowerCased(t *testing.T) {
	cfg := Default()
	cfg.Answers.Prompters = []string{" Interactive", "LLM", "interactive"}

	out, v := NormalizeAndValidate(cfg)
	assert.True(t, v.OK(), v.Errors)
	assert.Equal(t, []string{"interactive", "llm"}, out.Answers.Prompters)
	assert.Equal(t, " Interactive", cfg.Answers.Prompters[0])
}

func TestImapPINSourceNeedsHost(t *testing.T) {
	cfg := Default()
	cfg.Account.PINSource = "imap"
	_, v := NormalizeAndValidate(cfg)
	assert.Contains(t, v.Errors, "imap.host is required when account.pin_source=imap")
}

func TestCriteria(t *testing.T) {
	cfg := Default()
	cfg.Search.Keywords = "go developer"
	cfg.Search.WorkTypes = []string{"remote", "hybrid"}
	cfg.Search.Recency = "3600"

	crit, err := cfg.Criteria()
	require.NoError(t, err)
	assert.Equal(t, []domain.WorkType{domain.WorkRemote, domain.WorkHybrid}, crit.WorkTypes)
	assert.Equal(t, time.Hour, crit.Recency.Max)

	cfg.Search.RecencyUnit = "minutes"
	crit, err = cfg.Criteria()
	require.NoError(t, err)
	assert.Equal(t, 60*time.Hour, crit.Recency.Max)

	cfg.Search.WorkTypes = []string{"moon"}
	_, err = cfg.Criteria()
	assert.Error(t, err)
}

func TestSaveAtomicKeepsBackup(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")

	cfg := Default()
	require.NoError(t, SaveAtomic(path, cfg))
	cfg.App.DryRun = true
	require.NoError(t, SaveAtomic(path, cfg))

	_, err := os.Stat(path + ".bak")
	require.NoError(t, err)
	got, err := Load(path)
	require.NoError(t, err)
	assert.True(t, got.App.DryRun)

	cfg.App.MaxPagesPerJob = -1
	assert.Error(t, SaveAtomic(path, cfg))
	got, err = Load(path)
	require.NoError(t, err)
	assert.True(t, got.App.DryRun)

	left, err := filepath.Glob(filepath.Join(dir, ".config-*"))
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestResolvePaths(t *testing.T) {
	cfg := Resolve(Default(), "/data")
	assert.Equal(t, filepath.Join("/data", "resumes"), cfg.Resume.Dir)
	assert.Equal(t, filepath.Join("/data", "resume.pdf"), cfg.Resume.BaselinePath)
	assert.Equal(t, "", cfg.Search.QueryFile)
}
