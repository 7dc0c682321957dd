package adapter

import (
	"context"
	"errors"

	"legal-letter-ai/internal/domain/model"
)

// Provider failure variants. Adapters translate provider-specific responses
// into these sentinels so the classifier can switch on error identity
// instead of matching message substrings.
var (
	ErrThrottled     = errors.New("ai provider throttled the request")
	ErrUnauthorized  = errors.New("ai provider rejected the credentials")
	ErrInputTooLarge = errors.New("prompt exceeds the model input limit")
)

// GenerationInput is one opaque remote generation call.
type GenerationInput struct {
	System      string
	Prompt      string
	Model       string
	Temperature float64
	MaxTokens   int
}

type GenerationOutput struct {
	Text       string
	Usage      model.TokenUsage
	StopReason string
	Model      string
}

// AIServiceAdapter is the port for the text-generation provider.
type AIServiceAdapter interface {
	// Generate may fail with ErrThrottled, ErrUnauthorized or
	// ErrInputTooLarge (wrapped); anything else is a generic provider error.
	Generate(ctx context.Context, in GenerationInput) (GenerationOutput, error)

	// CountTokens returns prompt tokens for the given text (best-effort
	// when the provider has no exact counter).
	CountTokens(ctx context.Context, model, text string) (int, error)
}
