package repository

import (
	"context"

	"legal-letter-ai/internal/domain/model"
)

type DocumentRepository interface {
	FindByIDs(ctx context.Context, ids []string) ([]*model.Document, error)
}

type TemplateRepository interface {
	FindByID(ctx context.Context, id string) (*model.Template, error)
}
