package repository

import (
	"context"

	"legal-letter-ai/internal/domain/model"
)

// UsageRepository records token/cost telemetry per generation job.
type UsageRepository interface {
	Record(ctx context.Context, event *model.UsageEvent) error
}
