package resolver

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"easyapply-engine/internal/domain"
	"easyapply-engine/internal/llm"
)

const answerSystemPrompt = `You fill in job application forms for the candidate described below.
Answer with the value only: no explanation, no quotes, no punctuation around it.
For numeric questions answer with a whole number. For choice questions answer with one of the listed options exactly.
If the candidate facts do not settle the question, answer with the most common truthful answer for an experienced applicant.`

// LLMPrompter asks a generative model, grounded in the candidate's resume text.
type LLMPrompter struct {
	Model  llm.ChatModel
	Resume string // baseline resume text
}

func (p LLMPrompter) Prompt(ctx context.Context, q Question) (Reply, error) {
	if q.Field.Kind == domain.KindFile {
		return Reply{}, nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Candidate resume:\n%s\n\n", clip(p.Resume, 6000))
	if q.Job.Title != "" {
		fmt.Fprintf(&b, "Job: %s at %s\n", q.Job.Title, q.Job.Company)
	}
	if q.Description != "" {
		fmt.Fprintf(&b, "Job description:\n%s\n\n", clip(q.Description, 4000))
	}
	fmt.Fprintf(&b, "Question (%s): %s\n", q.Field.Kind, q.Field.Label)
	if len(q.Field.Options) > 0 {
		fmt.Fprintf(&b, "Options: %s\n", strings.Join(q.Field.Options, " | "))
	}

	out, err := p.Model.Ask(ctx, answerSystemPrompt, b.String())
	if err != nil {
		return Reply{}, fmt.Errorf("llm answer: %w", err)
	}
	out = strings.Trim(strings.TrimSpace(llm.StripFences(out)), `"'.`)
	if i := strings.IndexByte(out, '\n'); i >= 0 {
		out = strings.TrimSpace(out[:i])
	}
	return Reply{Value: out, Source: domain.SourceLLM}, nil
}

// clip keeps at most max bytes of s without splitting a UTF-8 sequence.
func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
