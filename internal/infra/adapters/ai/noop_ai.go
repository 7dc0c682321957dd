package ai

import (
	"context"
	"strings"

	"legal-letter-ai/internal/domain/model"
	"legal-letter-ai/internal/domain/ports/adapter"
)

var _ adapter.AIServiceAdapter = (*NoopAdapter)(nil)

// NoopAdapter returns a canned draft. Used in dev mode when no provider key
// is configured, so the pipeline can be exercised end to end for free.
type NoopAdapter struct{}

func NewNoopAdapter() *NoopAdapter { return &NoopAdapter{} }

func (n *NoopAdapter) Generate(ctx context.Context, in adapter.GenerationInput) (adapter.GenerationOutput, error) {
	text := "Dear Sir or Madam,\n\nThis letter serves as formal notice of our client's demand. " +
		"[noop adapter: no AI provider configured]\n\nSincerely,\nCounsel"
	return adapter.GenerationOutput{
		Text: text,
		Usage: model.TokenUsage{
			InputTokens:  len(strings.Fields(in.Prompt)),
			OutputTokens: len(strings.Fields(text)),
			TotalTokens:  len(strings.Fields(in.Prompt)) + len(strings.Fields(text)),
		},
		StopReason: "stop",
		Model:      "noop",
	}, nil
}

func (n *NoopAdapter) CountTokens(ctx context.Context, modelName, text string) (int, error) {
	return len(strings.Fields(text)), nil
}
