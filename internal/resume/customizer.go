package resume

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"easyapply-engine/internal/domain"
	"easyapply-engine/internal/llm"
)

const systemPrompt = `You rewrite resumes for a specific job posting.
Keep every fact from the original resume truthful: do not invent employers, titles, dates, degrees or skills.
Reorder and rephrase so the experience most relevant to the posting comes first, and mirror the posting's vocabulary where it is accurate.
Keep it to two pages. Reply with the resume only, in Markdown: "# Name" first, "## Section" headings, "- " bullets.`

// Index remembers tailored resumes by (job id, baseline hash).
type Index interface {
	Lookup(ctx context.Context, jobID, baselineHash string) (domain.TailoredResume, error)
	Put(ctx context.Context, r domain.TailoredResume) error
}

type Customizer struct {
	Model    llm.ChatModel
	Index    Index
	Baseline Baseline
	Dir      string
	Timeout  time.Duration
	Now      func() time.Time
}

// Customize returns a resume tailored to job, reusing an earlier one for the same
// job and baseline when its file still exists. Model failures wrap domain.ErrCustomizationFailed.
func (c *Customizer) Customize(ctx context.Context, job domain.JobPosting, description string) (domain.TailoredResume, error) {
	if r, err := c.Index.Lookup(ctx, job.ID, c.Baseline.Hash); err == nil {
		if fileExists(r.Path) {
			r.Cached = true
			return r, nil
		}
	} else if !errors.Is(err, domain.ErrNotFound) {
		log.Printf("[resume] index lookup failed job=%s: %v", job.ID, err)
	}

	md, err := c.generate(ctx, job, description)
	if err != nil {
		if ctx.Err() != nil {
			return domain.TailoredResume{}, ctx.Err()
		}
		return domain.TailoredResume{}, fmt.Errorf("%w: job=%s: %w", domain.ErrCustomizationFailed, job.ID, err)
	}

	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return domain.TailoredResume{}, fmt.Errorf("create resume dir: %w", err)
	}
	stem := filepath.Join(c.Dir, FileStem(job))
	r := domain.TailoredResume{
		JobID:        job.ID,
		BaselineHash: c.Baseline.Hash,
		Path:         stem + ".pdf",
		MarkdownPath: stem + ".md",
		CreatedAt:    c.now(),
	}
	if err := os.WriteFile(r.MarkdownPath, []byte(md+"\n"), 0o644); err != nil {
		return domain.TailoredResume{}, fmt.Errorf("write resume markdown: %w", err)
	}
	if err := renderPDF(md, r.Path); err != nil {
		return domain.TailoredResume{}, fmt.Errorf("render resume pdf: %w", err)
	}
	if err := c.Index.Put(ctx, r); err != nil {
		return domain.TailoredResume{}, err
	}
	log.Printf("[resume] tailored job=%s path=%q", job.ID, r.Path)
	return r, nil
}

func (c *Customizer) generate(ctx context.Context, job domain.JobPosting, description string) (string, error) {
	if strings.TrimSpace(description) == "" {
		return "", errors.New("no job description")
	}
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	user := fmt.Sprintf("Job: %s at %s\n\nJob description:\n%s\n\nOriginal resume:\n%s",
		job.Title, job.Company, description, c.Baseline.Text)
	out, err := c.Model.Ask(ctx, systemPrompt, user)
	if err != nil {
		return "", err
	}
	md := llm.StripFences(out)
	if len(strings.Fields(md)) < 20 {
		return "", fmt.Errorf("response too short to be a resume (%d words)", len(strings.Fields(md)))
	}
	return md, nil
}

func (c *Customizer) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now().UTC()
}

// FileStem names a tailored resume company_title_id, keeping only filename-safe characters.
func FileStem(job domain.JobPosting) string {
	parts := []string{sanitize(job.Company), sanitize(job.Title), sanitize(job.ID)}
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return "resume"
	}
	return strings.Join(out, "_")
}

func sanitize(s string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(s) {
		switch {
		case r == ' ' || r == '-' || r == '_':
			b.WriteRune('_')
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "_")
}

func fileExists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && !st.IsDir()
}
