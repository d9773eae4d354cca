package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// QueryTemplate is a named boolean search built from title, skill and function terms.
type QueryTemplate struct {
	TitlesInclude []string `yaml:"titles_include"`
	TitlesExclude []string `yaml:"titles_exclude"`
	Skills        []string `yaml:"skills"`
	Functions     []string `yaml:"functions"`
}

// EligibilityRule answers a yes/no question whose label contains any of the terms.
type EligibilityRule struct {
	Any    []string `yaml:"any"`
	Answer bool     `yaml:"answer"`
}

type Config struct {
	App struct {
		DryRun            bool   `yaml:"dry_run"`
		MaxPagesPerJob    int    `yaml:"max_pages_per_job"`
		RunTimeoutMinutes int    `yaml:"run_timeout_minutes"`
		StatusAddr        string `yaml:"status_addr"`
		LogDir            string `yaml:"log_dir"`
	} `yaml:"app"`

	Account struct {
		Username  string `yaml:"username"`
		PINSource string `yaml:"pin_source"` // prompt | imap | none
	} `yaml:"account"`

	Browser struct {
		Headless             bool   `yaml:"headless"`
		ExecPath             string `yaml:"exec_path"`
		UserDataDir          string `yaml:"user_data_dir"`
		RetryAttempts        int    `yaml:"retry_attempts"`
		RetryBackoffMS       int    `yaml:"retry_backoff_ms"`
		ActionTimeoutSeconds int    `yaml:"action_timeout_seconds"`
		NavigationsPerMinute int    `yaml:"navigations_per_minute"`
		LoginTimeoutSeconds  int    `yaml:"login_timeout_seconds"`
	} `yaml:"browser"`

	IMAP struct {
		Host        string   `yaml:"host"`
		Port        int      `yaml:"port"`
		Username    string   `yaml:"username"`
		Mailbox     string   `yaml:"mailbox"`
		SubjectAny  []string `yaml:"subject_any"`
		WaitSeconds int      `yaml:"wait_seconds"`
		PollSeconds int      `yaml:"poll_seconds"`
	} `yaml:"imap"`

	Search struct {
		BaseURL         string   `yaml:"base_url"`
		Keywords        string   `yaml:"keywords"`
		Location        string   `yaml:"location"`
		WorkTypes       []string `yaml:"work_types"`
		Recency         string   `yaml:"recency"`
		RecencyUnit     string   `yaml:"recency_unit"`
		PredefinedQuery string   `yaml:"predefined_query"`
		QueryFile       string   `yaml:"query_file"`
		TopPicks        bool     `yaml:"top_picks"`
		MaxPages        int      `yaml:"max_pages"`
		ExcludeTitles   []string `yaml:"exclude_titles"`
	} `yaml:"search"`

	Queries map[string]QueryTemplate `yaml:"queries"`

	Answers struct {
		QualifyByKind bool     `yaml:"qualify_by_kind"`
		ImportPath    string   `yaml:"import_path"`
		Prompters     []string `yaml:"prompters"` // interactive | llm | none, tried in order
	} `yaml:"answers"`

	Profile struct {
		YearsExperience int               `yaml:"years_experience"`
		SkillYears      map[string]int    `yaml:"skill_years"`
		Eligibility     []EligibilityRule `yaml:"eligibility"`
	} `yaml:"profile"`

	Resume struct {
		Enabled        bool   `yaml:"enabled"`
		BaselinePath   string `yaml:"baseline_path"`
		Dir            string `yaml:"dir"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"resume"`

	LLM struct {
		Provider string `yaml:"provider"` // gemini | openai
		Model    string `yaml:"model"`
		BaseURL  string `yaml:"base_url"`
	} `yaml:"llm"`
}

func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) RunTimeout() time.Duration {
	return time.Duration(c.App.RunTimeoutMinutes) * time.Minute
}

func (c Config) RetryBackoff() time.Duration {
	return time.Duration(c.Browser.RetryBackoffMS) * time.Millisecond
}

func (c Config) ActionTimeout() time.Duration {
	return time.Duration(c.Browser.ActionTimeoutSeconds) * time.Second
}

func (c Config) ResumeTimeout() time.Duration {
	return time.Duration(c.Resume.TimeoutSeconds) * time.Second
}
