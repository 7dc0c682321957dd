package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"legal-letter-ai/internal/domain"
	"legal-letter-ai/internal/domain/model"
	"legal-letter-ai/internal/domain/ports/repository"
)

var _ repository.LetterRepository = (*letterRepo)(nil)

type letterRepo struct {
	pool *pgxpool.Pool
}

func NewLetterRepo(pool *pgxpool.Pool) *letterRepo {
	return &letterRepo{pool: pool}
}

func (r *letterRepo) Create(ctx context.Context, letter *model.Letter) error {
	meta, err := json.Marshal(letter.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	if letter.CreatedAt.IsZero() {
		letter.CreatedAt = time.Now().UTC()
	}
	letter.UpdatedAt = letter.CreatedAt

	const q = `
INSERT INTO letters (id, firm_id, created_by, title, content, status, metadata, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);`

	_, err = r.pool.Exec(ctx, q,
		letter.ID, letter.FirmID, letter.CreatedBy, letter.Title,
		letter.Content, string(letter.Status), meta, letter.CreatedAt, letter.UpdatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
		return domain.ErrAlreadyExists
	}
	return err
}

func (r *letterRepo) FindByID(ctx context.Context, id string) (*model.Letter, error) {
	const q = `
SELECT id, firm_id, created_by, title, content, status, metadata, created_at, updated_at
FROM letters WHERE id = $1;`

	var letter model.Letter
	var status string
	var meta []byte
	err := r.pool.QueryRow(ctx, q, id).Scan(
		&letter.ID, &letter.FirmID, &letter.CreatedBy, &letter.Title,
		&letter.Content, &status, &meta, &letter.CreatedAt, &letter.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	letter.Status = model.LetterStatus(status)
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &letter.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata of %s: %w", id, err)
		}
	}
	if letter.Metadata == nil {
		letter.Metadata = map[string]any{}
	}
	return &letter, nil
}

// Update applies only the fields set in upd. Metadata arrives pre-merged
// from the caller (model.MergeMetadata); it is stored as given.
func (r *letterRepo) Update(ctx context.Context, id string, upd repository.LetterUpdate) error {
	set := "updated_at = $2"
	args := []interface{}{id, time.Now().UTC()}

	if upd.Content != nil {
		args = append(args, *upd.Content)
		set += fmt.Sprintf(", content = $%d", len(args))
	}
	if upd.Status != nil {
		args = append(args, string(*upd.Status))
		set += fmt.Sprintf(", status = $%d", len(args))
	}
	if upd.Metadata != nil {
		meta, err := json.Marshal(upd.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata: %w", err)
		}
		args = append(args, meta)
		set += fmt.Sprintf(", metadata = $%d", len(args))
	}

	tag, err := r.pool.Exec(ctx, "UPDATE letters SET "+set+" WHERE id = $1;", args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *letterRepo) LinkDocuments(ctx context.Context, letterID string, documentIDs []string) error {
	const q = `
INSERT INTO letter_documents (letter_id, document_id, linked_at)
VALUES ($1, $2, $3)
ON CONFLICT (letter_id, document_id) DO NOTHING;`

	now := time.Now().UTC()
	for _, docID := range documentIDs {
		if _, err := r.pool.Exec(ctx, q, letterID, docID, now); err != nil {
			return fmt.Errorf("link document %s: %w", docID, err)
		}
	}
	return nil
}
