// Package llm talks to generative text services.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"easyapply-engine/internal/config"
)

// ChatModel answers one system + user prompt pair.
type ChatModel interface {
	Ask(ctx context.Context, system, user string) (string, error)
}

var ErrEmptyResponse = errors.New("empty model response")

// New builds the provider named in cfg.LLM.
func New(ctx context.Context, cfg config.Config, apiKey string) (ChatModel, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("llm api key is empty")
	}
	switch cfg.LLM.Provider {
	case "gemini":
		return NewGemini(ctx, apiKey, cfg.LLM.Model)
	case "openai":
		return NewOpenAI(apiKey, cfg.LLM.BaseURL, cfg.LLM.Model), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLM.Provider)
	}
}

// StripFences removes a surrounding ``` block, which models add despite being told not to.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
