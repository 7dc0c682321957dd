package model

import "time"

type LetterStatus string

const (
	LetterStatusPending  LetterStatus = "pending"
	LetterStatusDraft    LetterStatus = "draft"
	LetterStatusInReview LetterStatus = "in-review"
	LetterStatusFinal    LetterStatus = "final"
	LetterStatusArchived LetterStatus = "archived"
)

// Letter is the persistence view the generation pipeline works with.
// The full entity is owned by the letters service; only the fields the
// pipeline reads or writes are modeled here.
type Letter struct {
	ID        string
	FirmID    string
	CreatedBy string
	Title     string
	Content   string
	Status    LetterStatus
	Metadata  map[string]any
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MergeMetadata overlays updates onto existing without dropping unrelated
// keys. Historical fields such as "aiGenerated" and "previousVersions" must
// survive every generation attempt, so metadata writes always go through
// this helper rather than replacing the map wholesale.
func MergeMetadata(existing, updates map[string]any) map[string]any {
	merged := make(map[string]any, len(existing)+len(updates))
	for k, v := range existing {
		merged[k] = v
	}
	for k, v := range updates {
		merged[k] = v
	}
	return merged
}
