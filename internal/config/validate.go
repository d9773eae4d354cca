package config

import (
	"fmt"
	"strings"

	"easyapply-engine/internal/domain"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

func trimList(xs []string) []string {
	seen := map[string]bool{}
	var ys []string
	for _, x := range xs {
		x = strings.TrimSpace(x)
		if x == "" {
			continue
		}
		key := strings.ToLower(x)
		if seen[key] {
			continue
		}
		seen[key] = true
		ys = append(ys, x)
	}
	return ys
}

// NormalizeAndValidate returns a normalized copy of cfg along with any problems found.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	var out = cfg
	var res Validation

	out.Search.ExcludeTitles = trimList(out.Search.ExcludeTitles)
	out.Search.WorkTypes = trimList(out.Search.WorkTypes)
	out.IMAP.SubjectAny = trimList(out.IMAP.SubjectAny)
	out.Answers.Prompters = trimList(out.Answers.Prompters)
	out.Search.RecencyUnit = strings.ToLower(strings.TrimSpace(out.Search.RecencyUnit))
	out.Search.BaseURL = strings.TrimRight(strings.TrimSpace(out.Search.BaseURL), "/")
	out.LLM.Provider = strings.ToLower(strings.TrimSpace(out.LLM.Provider))
	out.Account.PINSource = strings.ToLower(strings.TrimSpace(out.Account.PINSource))

	// app
	if out.App.MaxPagesPerJob <= 0 {
		res.addErr("app.max_pages_per_job must be > 0")
	} else if out.App.MaxPagesPerJob > 50 {
		res.addWarn("app.max_pages_per_job is very high (%d); a stuck modal will take long to give up.", out.App.MaxPagesPerJob)
	}
	if out.App.RunTimeoutMinutes < 0 {
		res.addErr("app.run_timeout_minutes must be >= 0")
	}

	// browser
	if out.Browser.RetryAttempts < 0 {
		res.addErr("browser.retry_attempts must be >= 0")
	}
	if out.Browser.RetryBackoffMS < 0 {
		res.addErr("browser.retry_backoff_ms must be >= 0")
	}
	if out.Browser.ActionTimeoutSeconds <= 0 {
		res.addErr("browser.action_timeout_seconds must be > 0")
	}
	if out.Browser.NavigationsPerMinute <= 0 {
		res.addErr("browser.navigations_per_minute must be > 0")
	} else if out.Browser.NavigationsPerMinute > 60 {
		res.addWarn("browser.navigations_per_minute is high (%d) and may trigger rate limits.", out.Browser.NavigationsPerMinute)
	}

	// search
	if out.Search.BaseURL == "" {
		res.addErr("search.base_url is required")
	}
	switch domain.RecencyUnit(out.Search.RecencyUnit) {
	case domain.UnitSeconds, domain.UnitMinutes:
	default:
		res.addErr("search.recency_unit must be seconds or minutes, got %q", out.Search.RecencyUnit)
	}
	if _, err := domain.ParseRecency(out.Search.Recency, domain.RecencyUnit(out.Search.RecencyUnit)); err != nil {
		res.addErr("search.recency: %v", err)
	}
	for _, w := range out.Search.WorkTypes {
		if _, ok := domain.ParseWorkType(w); !ok {
			res.addErr("search.work_types: unknown work type %q", w)
		}
	}
	if q := out.Search.PredefinedQuery; q != "" {
		if _, ok := out.Queries[q]; !ok {
			res.addErr("search.predefined_query %q is not defined under queries", q)
		}
	}
	if out.Search.MaxPages <= 0 {
		res.addErr("search.max_pages must be > 0")
	}
	if len(out.Search.ExcludeTitles) == 0 {
		res.addWarn("search.exclude_titles is empty; every title will be attempted.")
	}
	for name, q := range out.Queries {
		if len(q.TitlesInclude) == 0 {
			res.addErr("queries.%s.titles_include must have at least 1 term", name)
		}
	}

	// answers
	prompters := make([]string, 0, len(out.Answers.Prompters))
	for _, p := range out.Answers.Prompters {
		prompters = append(prompters, strings.ToLower(p))
	}
	out.Answers.Prompters = prompters
	for _, p := range out.Answers.Prompters {
		switch p {
		case "interactive", "llm", "none":
		default:
			res.addErr("answers.prompters: unknown prompter %q", p)
		}
	}

	// profile
	if out.Profile.YearsExperience < 0 {
		res.addErr("profile.years_experience must be >= 0")
	}
	for i, r := range out.Profile.Eligibility {
		if len(trimList(r.Any)) == 0 {
			res.addErr("profile.eligibility[%d].any must have at least 1 term", i)
		}
	}

	// resume
	if out.Resume.Enabled {
		if strings.TrimSpace(out.Resume.BaselinePath) == "" {
			res.addErr("resume.baseline_path is required when resume.enabled=true")
		}
		if strings.TrimSpace(out.Resume.Dir) == "" {
			res.addErr("resume.dir is required when resume.enabled=true")
		}
		if out.Resume.TimeoutSeconds <= 0 {
			res.addErr("resume.timeout_seconds must be > 0")
		}
	}

	// llm, only needed when something calls it
	usesLLM := out.Resume.Enabled
	for _, p := range out.Answers.Prompters {
		if strings.EqualFold(p, "llm") {
			usesLLM = true
		}
	}
	if usesLLM {
		switch out.LLM.Provider {
		case "gemini", "openai":
		default:
			res.addErr("llm.provider must be gemini or openai, got %q", out.LLM.Provider)
		}
		if strings.TrimSpace(out.LLM.Model) == "" {
			res.addErr("llm.model is required")
		}
		if out.LLM.Provider == "openai" && strings.TrimSpace(out.LLM.BaseURL) == "" {
			res.addWarn("llm.base_url is empty; the default OpenAI endpoint will be used.")
		}
	}

	// pin source
	switch out.Account.PINSource {
	case "prompt", "none":
	case "imap":
		if strings.TrimSpace(out.IMAP.Host) == "" {
			res.addErr("imap.host is required when account.pin_source=imap")
		}
		if out.IMAP.Port == 0 {
			res.addErr("imap.port is required when account.pin_source=imap")
		}
		if strings.TrimSpace(out.IMAP.Username) == "" {
			res.addErr("imap.username is required when account.pin_source=imap")
		}
		if len(out.IMAP.SubjectAny) == 0 {
			res.addWarn("imap.subject_any is empty; any recent unread mail may be read as the PIN.")
		}
	default:
		res.addErr("account.pin_source must be prompt, imap or none, got %q", out.Account.PINSource)
	}

	return out, res
}
