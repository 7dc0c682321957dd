package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/pkoukk/tiktoken-go"

	"legal-letter-ai/internal/domain/model"
	"legal-letter-ai/internal/domain/ports/adapter"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.AIServiceAdapter = (*OpenAIAdapter)(nil)

// OpenAIAdapter implements the generation port with the Chat Completions
// API. Token counting is local via tiktoken so the input-limit pre-check
// does not cost a request.
type OpenAIAdapter struct {
	client       openai.Client
	defaultModel string
}

func NewOpenAIAdapter(apiKey, defaultModel string) (*OpenAIAdapter, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key empty")
	}
	if defaultModel == "" {
		defaultModel = "gpt-4o-mini"
	}
	return &OpenAIAdapter{
		client:       openai.NewClient(option.WithAPIKey(apiKey)),
		defaultModel: defaultModel,
	}, nil
}

func (o *OpenAIAdapter) Generate(ctx context.Context, in adapter.GenerationInput) (adapter.GenerationOutput, error) {
	modelName := in.Model
	if modelName == "" {
		modelName = o.defaultModel
	}

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(modelName),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(in.System),
			openai.UserMessage(in.Prompt),
		},
	}
	if in.Temperature > 0 {
		params.Temperature = openai.Float(in.Temperature)
	}
	if in.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(in.MaxTokens))
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return adapter.GenerationOutput{}, classifyOpenAIError(err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return adapter.GenerationOutput{}, errors.New("openai: empty completion")
	}

	choice := resp.Choices[0]
	return adapter.GenerationOutput{
		Text: choice.Message.Content,
		Usage: model.TokenUsage{
			InputTokens:  int(resp.Usage.PromptTokens),
			OutputTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:  int(resp.Usage.TotalTokens),
		},
		StopReason: string(choice.FinishReason),
		Model:      resp.Model,
	}, nil
}

func (o *OpenAIAdapter) CountTokens(ctx context.Context, modelName, text string) (int, error) {
	if modelName == "" {
		modelName = o.defaultModel
	}
	enc, err := tiktoken.EncodingForModel(modelName)
	if err != nil {
		// Unknown model names fall back to the common encoding.
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return 0, err
		}
	}
	return len(enc.Encode(text, nil, nil)), nil
}

// classifyOpenAIError maps provider status codes onto the port's tagged
// sentinels; everything else passes through as a generic provider error.
func classifyOpenAIError(err error) error {
	var apierr *openai.Error
	if !errors.As(err, &apierr) {
		return err
	}
	switch apierr.StatusCode {
	case 429:
		return fmt.Errorf("%w: openai status %d", adapter.ErrThrottled, apierr.StatusCode)
	case 401, 403:
		return fmt.Errorf("%w: openai status %d", adapter.ErrUnauthorized, apierr.StatusCode)
	case 413:
		return fmt.Errorf("%w: openai status %d", adapter.ErrInputTooLarge, apierr.StatusCode)
	}
	return err
}
