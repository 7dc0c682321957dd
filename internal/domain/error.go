package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound         = errors.New("entity not found")
	ErrAlreadyExists    = errors.New("entity already exists")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrQueueUnavailable = errors.New("queueing unavailable")
	ErrQueuePaused      = errors.New("queue is paused")
	ErrCannotCancel     = errors.New("job cannot be cancelled in its current state")
	ErrDuplicateJob     = errors.New("a generation job for this letter is already in flight")
	ErrReadDatabaseRow  = errors.New("failed to read database row")
)
