package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"legal-letter-ai/internal/domain"
	"legal-letter-ai/internal/domain/model"
	"legal-letter-ai/internal/domain/ports/repository"
	"legal-letter-ai/internal/infra/metrics"
	"legal-letter-ai/internal/usecase"
)

// Claims older than this are considered orphaned by a dead worker. Far above
// the generation wall clock, so a slow live job is never stolen.
const stalledClaimAge = 5 * time.Minute

// Processor runs one claimed job to completion and always resolves with a
// result. Satisfied by usecase.Orchestrator.
type Processor interface {
	Process(ctx context.Context, job *model.JobRecord, report usecase.ProgressFunc) *model.GenerationResult
}

// Scheduler binds the orchestrator to the queue store under a bounded
// concurrency limit. Consumption starts exactly once, after the store's
// readiness signal; if the store never connects the host keeps serving and
// only background processing is missing.
type Scheduler struct {
	queue       repository.JobQueue
	proc        Processor
	queueName   string
	concurrency int
	pollEvery   time.Duration
	startOnce   sync.Once
	log         *zerolog.Logger
}

func NewScheduler(queue repository.JobQueue, proc Processor, queueName string, concurrency int, pollEvery time.Duration, logger *zerolog.Logger) *Scheduler {
	if concurrency <= 0 {
		concurrency = 2
	}
	if pollEvery <= 0 {
		pollEvery = 500 * time.Millisecond
	}
	schedLog := logger.With().Str("component", "Scheduler").Str("queue", queueName).Logger()
	return &Scheduler{
		queue:       queue,
		proc:        proc,
		queueName:   queueName,
		concurrency: concurrency,
		pollEvery:   pollEvery,
		log:         &schedLog,
	}
}

// Run blocks until ctx is cancelled. It waits for the queue store to come
// up before consuming; a second Run is a no-op beyond the wait.
func (s *Scheduler) Run(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.queue.Ready():
	}

	started := false
	s.startOnce.Do(func() { started = true })
	if !started {
		s.log.Warn().Msg("scheduler already running, ignoring second start")
		<-ctx.Done()
		return ctx.Err()
	}

	// Claims orphaned by a previous process get one chance to run again
	// before consumption starts.
	if n, err := s.queue.RequeueStalled(ctx, s.queueName, stalledClaimAge); err != nil {
		s.log.Warn().Err(err).Msg("stalled job recovery failed")
	} else if n > 0 {
		s.log.Info().Int("count", n).Msg("stalled jobs returned to the queue")
	}

	s.log.Info().Int("concurrency", s.concurrency).Msg("worker scheduler started")
	pool := NewPool(s.concurrency, s.log)
	pool.Start(ctx)
	defer pool.Stop()

	ticker := time.NewTicker(s.pollEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("worker scheduler stopping")
			return ctx.Err()
		case <-ticker.C:
			_ = pool.Submit(func(ctx context.Context) error {
				s.processOne(ctx)
				return nil
			})
		}
	}
}

func (s *Scheduler) processOne(ctx context.Context) {
	job, err := s.queue.Claim(ctx, s.queueName)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.log.Error().Err(err).Msg("claim failed")
		}
		return
	}

	s.log.Info().Str("job_id", job.ID).Int("attempt", job.AttemptsMade).Msg("processing generation job")
	start := time.Now()

	result := s.proc.Process(ctx, job, func(progress int) {
		if err := s.queue.UpdateProgress(ctx, s.queueName, job.ID, progress); err != nil {
			s.log.Warn().Err(err).Str("job_id", job.ID).Msg("progress update failed")
		}
	})
	elapsed := time.Since(start)

	// A classified failure still completes the job; only a broken result
	// write moves it to the queue-level failed state.
	if err := s.queue.Complete(ctx, s.queueName, job.ID, result); err != nil {
		s.log.Error().Err(err).Str("job_id", job.ID).Msg("result write failed")
		if ferr := s.queue.Fail(ctx, s.queueName, job.ID, "result write failed: "+err.Error()); ferr != nil {
			s.log.Error().Err(ferr).Str("job_id", job.ID).Msg("failure write failed too")
		}
	}

	outcome := "completed"
	if !result.Success {
		outcome = "failed"
	}
	metrics.IncGenerationJob(outcome)
	metrics.ObserveJobDuration(elapsed.Seconds())
	if u := result.Usage; u != nil {
		metrics.ObserveGeneration(result.Model, u.InputTokens, u.OutputTokens, u.TotalTokens, result.Cost, elapsed.Milliseconds(), result.Success)
	}
	s.log.Info().Str("job_id", job.ID).Str("outcome", outcome).Dur("duration", elapsed).Msg("generation job finished")
}
