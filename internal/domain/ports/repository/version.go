package repository

import "context"

// VersionRepository appends immutable content snapshots for a letter.
type VersionRepository interface {
	CreateVersion(ctx context.Context, letterID, content string) (versionID string, err error)
}
