package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"legal-letter-ai/internal/domain/ports/repository"
	"legal-letter-ai/internal/infra/metrics"
)

// Claims older than this are treated as orphaned by a dead worker.
const stalledClaimAge = 5 * time.Minute

// RetentionWorker periodically trims terminal jobs from the queue, returns
// stalled claims to the wait list and refreshes the queue depth gauges.
// Jobs are never deleted on completion; this sweep is the only automatic
// reclamation.
type RetentionWorker struct {
	interval      time.Duration
	queue         repository.JobQueue
	queueName     string
	keepCompleted int
	keepFailed    int
	log           *zerolog.Logger
}

func NewRetentionWorker(interval time.Duration, queue repository.JobQueue, queueName string, keepCompleted, keepFailed int, logger *zerolog.Logger) *RetentionWorker {
	rwLog := logger.With().Str("component", "RetentionWorker").Logger()
	return &RetentionWorker{
		interval:      interval,
		queue:         queue,
		queueName:     queueName,
		keepCompleted: keepCompleted,
		keepFailed:    keepFailed,
		log:           &rwLog,
	}
}

func (w *RetentionWorker) Run(ctx context.Context) error {
	w.log.Info().Msg("Starting retention worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping retention worker")
			return ctx.Err()
		case <-ticker.C:
			if !w.queue.Healthy(w.queueName) {
				continue
			}
			n, err := w.queue.TrimTerminal(ctx, w.queueName, w.keepCompleted, w.keepFailed)
			if err != nil {
				w.log.Error().Err(err).Msg("retention sweep error")
			}
			if n > 0 {
				w.log.Info().Int("count", n).Msg("terminal jobs reclaimed")
			}
			if n, err := w.queue.RequeueStalled(ctx, w.queueName, stalledClaimAge); err != nil {
				w.log.Error().Err(err).Msg("stalled claim sweep error")
			} else if n > 0 {
				w.log.Warn().Int("count", n).Msg("stalled jobs returned to the queue")
			}
			if stats, err := w.queue.Stats(ctx, w.queueName); err == nil {
				metrics.SetQueueDepth("waiting", stats.Waiting)
				metrics.SetQueueDepth("active", stats.Active)
				metrics.SetQueueDepth("delayed", stats.Delayed)
			}
		}
	}
}
