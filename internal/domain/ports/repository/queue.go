package repository

import (
	"context"
	"time"

	"legal-letter-ai/internal/domain/model"
)

type EnqueueOptions struct {
	// JobID pins the job identifier; by convention it equals the target
	// letter's ID so the store can deduplicate in-flight generations.
	JobID string
	// Priority > 0 admits the job ahead of normal FIFO order.
	Priority int
	// Delay schedules the first attempt for the future (status "delayed").
	Delay time.Duration
}

type QueueStats struct {
	Waiting   int  `json:"waiting"`
	Active    int  `json:"active"`
	Completed int  `json:"completed"`
	Failed    int  `json:"failed"`
	Delayed   int  `json:"delayed"`
	Paused    bool `json:"paused"`
}

// JobQueue persists Job Records independently of process lifetime.
//
// Enqueue deduplicates on JobID: a colliding non-terminal job returns the
// existing record together with domain.ErrDuplicateJob. Transient transport
// failures surface through Healthy rather than panics; Ready is closed
// exactly once, after the backing store first answers a ping.
type JobQueue interface {
	Enqueue(ctx context.Context, queue string, payload model.GenerationPayload, opts EnqueueOptions) (*model.JobRecord, error)
	Status(ctx context.Context, queue, jobID string) (*model.JobRecord, error)
	Remove(ctx context.Context, queue, jobID string) error
	Stats(ctx context.Context, queue string) (QueueStats, error)
	Pause(ctx context.Context, queue string) error
	Resume(ctx context.Context, queue string) error
	Healthy(queue string) bool
	Ready() <-chan struct{}

	// Worker-side operations.
	Claim(ctx context.Context, queue string) (*model.JobRecord, error)
	UpdateProgress(ctx context.Context, queue, jobID string, progress int) error
	Complete(ctx context.Context, queue, jobID string, result *model.GenerationResult) error
	Fail(ctx context.Context, queue, jobID, reason string) error
	TrimTerminal(ctx context.Context, queue string, keepCompleted, keepFailed int) (int, error)
	// RequeueStalled returns active jobs claimed longer than olderThan ago
	// to the wait list, recovering work orphaned by a dead worker.
	RequeueStalled(ctx context.Context, queue string, olderThan time.Duration) (int, error)
}
