package ai

import (
	"context"

	"legal-letter-ai/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.AIServiceAdapter = (*limitedAI)(nil)

// limitedAI caps concurrent provider calls process-wide, on top of the
// worker scheduler's own job concurrency bound.
type limitedAI struct {
	inner adapter.AIServiceAdapter
	sem   chan struct{}
}

func NewLimitedAI(inner adapter.AIServiceAdapter, maxConcurrent int) adapter.AIServiceAdapter {
	if maxConcurrent <= 0 {
		return inner
	}
	return &limitedAI{
		inner: inner,
		sem:   make(chan struct{}, maxConcurrent),
	}
}

func (l *limitedAI) Generate(ctx context.Context, in adapter.GenerationInput) (adapter.GenerationOutput, error) {
	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		return adapter.GenerationOutput{}, ctx.Err()
	}
	defer func() { <-l.sem }()
	return l.inner.Generate(ctx, in)
}

func (l *limitedAI) CountTokens(ctx context.Context, model, text string) (int, error) {
	return l.inner.CountTokens(ctx, model, text)
}
