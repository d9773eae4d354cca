package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
)

type Gemini struct {
	Client llms.Model
}

func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if model == "" {
		model = "gemini-1.5-flash"
	}
	c, err := googleai.New(ctx,
		googleai.WithAPIKey(apiKey),
		googleai.WithDefaultModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Gemini{Client: c}, nil
}

func (g *Gemini) Ask(ctx context.Context, system, user string) (string, error) {
	prompt := user
	if system != "" {
		prompt = system + "\n\n" + user
	}
	resp, err := llms.GenerateFromSinglePrompt(ctx, g.Client, prompt, llms.WithTemperature(0.2))
	if err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}
	resp = strings.TrimSpace(resp)
	if resp == "" {
		return "", ErrEmptyResponse
	}
	return resp, nil
}
