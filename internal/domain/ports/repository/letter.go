package repository

import (
	"context"

	"legal-letter-ai/internal/domain/model"
)

// LetterUpdate is a partial update; nil fields are left untouched. Metadata,
// when set, replaces the stored map — callers are expected to pass a merged
// map built with model.MergeMetadata.
type LetterUpdate struct {
	Content  *string
	Status   *model.LetterStatus
	Metadata map[string]any
}

type LetterRepository interface {
	Create(ctx context.Context, letter *model.Letter) error
	FindByID(ctx context.Context, id string) (*model.Letter, error)
	Update(ctx context.Context, id string, upd LetterUpdate) error
	LinkDocuments(ctx context.Context, letterID string, documentIDs []string) error
}
