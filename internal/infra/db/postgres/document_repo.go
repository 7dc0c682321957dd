package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"legal-letter-ai/internal/domain"
	"legal-letter-ai/internal/domain/model"
	"legal-letter-ai/internal/domain/ports/repository"
)

var (
	_ repository.DocumentRepository = (*documentRepo)(nil)
	_ repository.TemplateRepository = (*templateRepo)(nil)
)

type documentRepo struct {
	pool *pgxpool.Pool
}

func NewDocumentRepo(pool *pgxpool.Pool) *documentRepo {
	return &documentRepo{pool: pool}
}

func (r *documentRepo) FindByIDs(ctx context.Context, ids []string) ([]*model.Document, error) {
	const q = `
SELECT id, firm_id, file_name, extracted_text, uploaded_at
FROM documents WHERE id = ANY($1);`

	rows, err := r.pool.Query(ctx, q, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*model.Document
	for rows.Next() {
		var d model.Document
		if err := rows.Scan(&d.ID, &d.FirmID, &d.FileName, &d.ExtractedText, &d.UploadedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		docs = append(docs, &d)
	}
	return docs, rows.Err()
}

type templateRepo struct {
	pool *pgxpool.Pool
}

func NewTemplateRepo(pool *pgxpool.Pool) *templateRepo {
	return &templateRepo{pool: pool}
}

func (r *templateRepo) FindByID(ctx context.Context, id string) (*model.Template, error) {
	const q = `
SELECT id, firm_id, name, content, updated_at
FROM templates WHERE id = $1;`

	var t model.Template
	err := r.pool.QueryRow(ctx, q, id).Scan(&t.ID, &t.FirmID, &t.Name, &t.Content, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return &t, nil
}
