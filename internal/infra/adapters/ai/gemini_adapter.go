package ai

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"legal-letter-ai/internal/domain/model"
	"legal-letter-ai/internal/domain/ports/adapter"
)

var _ adapter.AIServiceAdapter = (*GeminiAdapter)(nil)

// GeminiAdapter is the fallback provider, using the official SDK.
type GeminiAdapter struct {
	client       *genai.Client
	defaultModel string
}

func NewGeminiAdapter(ctx context.Context, apiKey, baseURL, defaultModel string) (*GeminiAdapter, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: empty api key")
	}
	if defaultModel == "" {
		defaultModel = "gemini-2.0-flash"
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: baseURL,
		},
	})
	if err != nil {
		return nil, err
	}
	return &GeminiAdapter{client: c, defaultModel: defaultModel}, nil
}

func (g *GeminiAdapter) Generate(ctx context.Context, in adapter.GenerationInput) (adapter.GenerationOutput, error) {
	modelName := in.Model
	if modelName == "" {
		modelName = g.defaultModel
	}

	cfg := &genai.GenerateContentConfig{}
	if in.System != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: in.System}}}
	}
	if in.Temperature > 0 {
		cfg.Temperature = genai.Ptr(float32(in.Temperature))
	}
	if in.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(in.MaxTokens)
	}

	resp, err := g.client.Models.GenerateContent(ctx, modelName, genai.Text(in.Prompt), cfg)
	if err != nil {
		return adapter.GenerationOutput{}, classifyGeminiError(err)
	}
	text := resp.Text()
	if text == "" {
		return adapter.GenerationOutput{}, errors.New("gemini: empty completion")
	}

	out := adapter.GenerationOutput{Text: text, Model: modelName}
	if u := resp.UsageMetadata; u != nil {
		out.Usage = model.TokenUsage{
			InputTokens:  int(u.PromptTokenCount),
			OutputTokens: int(u.CandidatesTokenCount),
			TotalTokens:  int(u.TotalTokenCount),
		}
	}
	if len(resp.Candidates) > 0 {
		out.StopReason = string(resp.Candidates[0].FinishReason)
	}
	return out, nil
}

func (g *GeminiAdapter) CountTokens(ctx context.Context, modelName, text string) (int, error) {
	if modelName == "" {
		modelName = g.defaultModel
	}
	resp, err := g.client.Models.CountTokens(ctx, modelName, genai.Text(text), nil)
	if err != nil {
		return 0, classifyGeminiError(err)
	}
	return int(resp.TotalTokens), nil
}

func classifyGeminiError(err error) error {
	var apierr genai.APIError
	if !errors.As(err, &apierr) {
		return err
	}
	switch apierr.Code {
	case 429:
		return fmt.Errorf("%w: gemini status %d", adapter.ErrThrottled, apierr.Code)
	case 401, 403:
		return fmt.Errorf("%w: gemini status %d", adapter.ErrUnauthorized, apierr.Code)
	}
	return err
}
