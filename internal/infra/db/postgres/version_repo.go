package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/oklog/ulid/v2"

	"legal-letter-ai/internal/domain/ports/repository"
)

var _ repository.VersionRepository = (*versionRepo)(nil)

type versionRepo struct {
	pool *pgxpool.Pool
}

func NewVersionRepo(pool *pgxpool.Pool) *versionRepo {
	return &versionRepo{pool: pool}
}

// CreateVersion appends an immutable snapshot. ULIDs keep snapshots sortable
// by creation time without a separate sequence.
func (r *versionRepo) CreateVersion(ctx context.Context, letterID, content string) (string, error) {
	id := ulid.Make().String()
	const q = `
INSERT INTO letter_versions (id, letter_id, content, created_at)
VALUES ($1, $2, $3, $4);`

	if _, err := r.pool.Exec(ctx, q, id, letterID, content, time.Now().UTC()); err != nil {
		return "", err
	}
	return id, nil
}
