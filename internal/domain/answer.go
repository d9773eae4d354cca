package domain

import "time"

type AnswerSource string

const (
	SourceManual    AnswerSource = "manual"
	SourcePrompt    AnswerSource = "prompt"
	SourceLLM       AnswerSource = "llm"
	SourceImport    AnswerSource = "import"
	SourceRule      AnswerSource = "rule"
	SourceHeuristic AnswerSource = "heuristic"
	SourcePrefilled AnswerSource = "prefilled"
)

// AnswerRule is one learned question → answer mapping. Signatures are unique.
type AnswerRule struct {
	Signature string       `json:"signature"`
	Answer    string       `json:"answer"`
	Options   []string     `json:"options,omitempty"`
	Source    AnswerSource `json:"source"`
	Question  string       `json:"question,omitempty"`
	UpdatedAt time.Time    `json:"updated_at"`
}

type TailoredResume struct {
	JobID        string    `json:"job_id"`
	BaselineHash string    `json:"baseline_hash"`
	Path         string    `json:"path"`
	MarkdownPath string    `json:"markdown_path"`
	CreatedAt    time.Time `json:"created_at"`
	Cached       bool      `json:"-"`
}
