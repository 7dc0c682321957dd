package usecase

import (
	"context"
	"errors"

	"legal-letter-ai/internal/domain"
	"legal-letter-ai/internal/domain/model"
	"legal-letter-ai/internal/domain/ports/adapter"
)

// ClassifyFailure converts any failure raised inside the generation pipeline
// into a StructuredError. Every fallible step returns a tagged variant
// (domain sentinel or adapter sentinel), so classification is a plain
// switch over error identity — no message inspection.
func ClassifyFailure(err error) *model.StructuredError {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		return &model.StructuredError{
			Title:           model.ErrTitleMissingFields,
			Reason:          err.Error(),
			ProbableCause:   "The case description is missing fields the letter draft depends on.",
			SuggestedAction: "Fill in the highlighted case fields and start the generation again.",
		}
	case errors.Is(err, adapter.ErrInputTooLarge):
		return &model.StructuredError{
			Title:           model.ErrTitleCaseSummaryTooBig,
			Reason:          err.Error(),
			ProbableCause:   "The combined case facts, documents and template exceed the model's input window.",
			SuggestedAction: "Shorten the incident description or drop some supporting documents, then retry.",
		}
	case errors.Is(err, adapter.ErrThrottled),
		errors.Is(err, context.DeadlineExceeded):
		return &model.StructuredError{
			Title:           model.ErrTitleServiceUnavailable,
			Reason:          err.Error(),
			ProbableCause:   "The AI provider is rate limiting requests or took too long to respond.",
			SuggestedAction: "Wait a minute and retry; the request was not charged.",
		}
	case errors.Is(err, adapter.ErrUnauthorized):
		return &model.StructuredError{
			Title:           model.ErrTitleBadCredentials,
			Reason:          err.Error(),
			ProbableCause:   "The configured AI provider key is missing, expired or lacks access to the model.",
			SuggestedAction: "Ask an administrator to check the AI provider credentials.",
		}
	default:
		return &model.StructuredError{
			Title:           model.ErrTitleGenerationFailed,
			Reason:          err.Error(),
			ProbableCause:   "An unexpected error occurred while drafting the letter.",
			SuggestedAction: "Retry the generation; contact support if the problem persists.",
		}
	}
}
