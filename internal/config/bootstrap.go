package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Default is the configuration written on first run.
func Default() Config {
	var c Config
	c.App.MaxPagesPerJob = 10
	c.App.RunTimeoutMinutes = 0
	c.App.LogDir = "logs"

	c.Account.PINSource = "prompt"

	c.Browser.RetryAttempts = 3
	c.Browser.RetryBackoffMS = 500
	c.Browser.ActionTimeoutSeconds = 10
	c.Browser.NavigationsPerMinute = 20
	c.Browser.LoginTimeoutSeconds = 120

	c.IMAP.Port = 993
	c.IMAP.Mailbox = "INBOX"
	c.IMAP.SubjectAny = []string{"verification code", "pin"}
	c.IMAP.WaitSeconds = 120
	c.IMAP.PollSeconds = 5

	c.Search.BaseURL = "https://www.linkedin.com"
	c.Search.Recency = "week"
	c.Search.RecencyUnit = "seconds"
	c.Search.MaxPages = 5
	c.Search.ExcludeTitles = []string{
		"machine learning", "manager", "principal", "staff", "embedded",
		"data scientist", "founding", "c++", "electrical", "mechanical",
	}

	c.Queries = map[string]QueryTemplate{
		"backend": {
			TitlesInclude: []string{"backend engineer", "software engineer"},
			TitlesExclude: []string{"senior", "staff"},
			Skills:        []string{"go", "python"},
		},
	}

	c.Answers.Prompters = []string{"interactive"}

	c.Profile.YearsExperience = 2
	c.Profile.SkillYears = map[string]int{}
	c.Profile.Eligibility = []EligibilityRule{
		{Any: []string{"authorized to work", "legally authorized"}, Answer: true},
		{Any: []string{"require sponsorship", "require visa"}, Answer: false},
	}

	c.Resume.Enabled = true
	c.Resume.BaselinePath = "resume.pdf"
	c.Resume.Dir = "resumes"
	c.Resume.TimeoutSeconds = 60

	c.LLM.Provider = "gemini"
	c.LLM.Model = "gemini-1.5-flash"
	return c
}

// EnsureUserConfig returns <dataDir>/config.yml, writing the defaults first if it does not exist.
func EnsureUserConfig(dataDir string) (string, error) {
	userPath := filepath.Join(dataDir, "config.yml")

	_, err := os.Stat(userPath)
	if err == nil {
		return userPath, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return "", err
	}

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return "", err
	}
	b, err := yaml.Marshal(Default())
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(userPath, b, 0o644); err != nil {
		return "", err
	}
	return userPath, nil
}

// Resolve makes relative paths in cfg relative to dataDir.
func Resolve(cfg Config, dataDir string) Config {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dataDir, p)
	}
	cfg.App.LogDir = abs(cfg.App.LogDir)
	cfg.Browser.UserDataDir = abs(cfg.Browser.UserDataDir)
	cfg.Search.QueryFile = abs(cfg.Search.QueryFile)
	cfg.Answers.ImportPath = abs(cfg.Answers.ImportPath)
	cfg.Resume.BaselinePath = abs(cfg.Resume.BaselinePath)
	cfg.Resume.Dir = abs(cfg.Resume.Dir)
	return cfg
}
