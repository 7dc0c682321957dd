package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"

	"legal-letter-ai/internal/domain/model"
	"legal-letter-ai/internal/domain/ports/repository"
)

var _ repository.UsageRepository = (*usageRepo)(nil)

type usageRepo struct {
	pool *pgxpool.Pool
}

func NewUsageRepo(pool *pgxpool.Pool) *usageRepo {
	return &usageRepo{pool: pool}
}

func (r *usageRepo) Record(ctx context.Context, event *model.UsageEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	const q = `
INSERT INTO ai_usage (id, job_id, letter_id, firm_id, user_id, model,
                      input_tokens, output_tokens, total_tokens, cost, duration_ms, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);`

	_, err := r.pool.Exec(ctx, q,
		event.ID, event.JobID, event.LetterID, event.FirmID, event.UserID, event.Model,
		event.Usage.InputTokens, event.Usage.OutputTokens, event.Usage.TotalTokens,
		event.Cost, event.DurationMS, event.CreatedAt)
	return err
}
