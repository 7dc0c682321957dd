package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"legal-letter-ai/internal/domain"
	"legal-letter-ai/internal/domain/model"
	"legal-letter-ai/internal/domain/ports/repository"
)

// Compile-time check
var _ GenerationUseCase = (*generationUC)(nil)

// GenerationStatus is the caller-visible view of a job, translated from the
// queue's status machine. On completion Letter carries the refreshed row.
type GenerationStatus struct {
	Status       string                  `json:"status"`
	Progress     int                     `json:"progress"`
	AttemptsMade int                     `json:"attemptsMade"`
	Result       *model.GenerationResult `json:"result,omitempty"`
	Letter       *model.Letter           `json:"-"`
}

type GenerationUseCase interface {
	// StartGeneration creates the letter in pending state (or reuses the
	// one named by payload.LetterID), links supporting documents and
	// enqueues a job whose ID equals the letter's ID. A second call for
	// the same letter returns the in-flight job instead of a duplicate.
	StartGeneration(ctx context.Context, payload model.GenerationPayload) (*model.JobRecord, *model.Letter, error)
	GetStatus(ctx context.Context, letterID string) (*GenerationStatus, error)
	// CancelGeneration is only valid before the job goes active; it
	// archives the letter and removes the job.
	CancelGeneration(ctx context.Context, letterID string) error
	QueueStats(ctx context.Context) (repository.QueueStats, error)
}

type generationUC struct {
	letters   repository.LetterRepository
	queue     repository.JobQueue
	queueName string
	log       *zerolog.Logger
}

func NewGenerationUseCase(letters repository.LetterRepository, queue repository.JobQueue, queueName string, logger *zerolog.Logger) *generationUC {
	ucLog := logger.With().Str("component", "GenerationUC").Logger()
	return &generationUC{letters: letters, queue: queue, queueName: queueName, log: &ucLog}
}

func (g *generationUC) StartGeneration(ctx context.Context, payload model.GenerationPayload) (*model.JobRecord, *model.Letter, error) {
	fresh := payload.LetterID == ""
	if fresh {
		payload.LetterID = uuid.NewString()
	}
	if err := ValidatePayload(&payload); err != nil {
		return nil, nil, err
	}
	if !g.queue.Healthy(g.queueName) {
		return nil, nil, domain.ErrQueueUnavailable
	}

	queuedMeta := map[string]any{
		"aiGenerated":           true,
		"generationStatus":      "queued",
		"generationRequestedAt": time.Now().UTC().Format(time.RFC3339),
	}

	var letter *model.Letter
	if fresh {
		letter = &model.Letter{
			ID:        payload.LetterID,
			FirmID:    payload.FirmID,
			CreatedBy: payload.RequestedBy,
			Title:     fmt.Sprintf("Demand Letter: %s v. %s", payload.ClientName, payload.DefendantName),
			Status:    model.LetterStatusPending,
			Metadata:  queuedMeta,
			CreatedAt: time.Now().UTC(),
		}
		if err := g.letters.Create(ctx, letter); err != nil {
			return nil, nil, fmt.Errorf("create letter: %w", err)
		}
	} else {
		var err error
		letter, err = g.letters.FindByID(ctx, payload.LetterID)
		if err != nil {
			return nil, nil, fmt.Errorf("letter %s: %w", payload.LetterID, err)
		}
		status := model.LetterStatusPending
		if err := g.letters.Update(ctx, letter.ID, repository.LetterUpdate{
			Status:   &status,
			Metadata: model.MergeMetadata(letter.Metadata, queuedMeta),
		}); err != nil {
			return nil, nil, fmt.Errorf("mark letter pending: %w", err)
		}
	}

	if len(payload.DocumentIDs) > 0 {
		if err := g.letters.LinkDocuments(ctx, letter.ID, payload.DocumentIDs); err != nil {
			return nil, nil, fmt.Errorf("link documents: %w", err)
		}
	}

	job, err := g.queue.Enqueue(ctx, g.queueName, payload, repository.EnqueueOptions{JobID: letter.ID})
	if errors.Is(err, domain.ErrDuplicateJob) {
		// Idempotent retry of "start generation": hand back the job that
		// is already in flight for this letter.
		g.log.Info().Str("letter_id", letter.ID).Msg("generation already queued")
		return job, letter, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("enqueue generation: %w", err)
	}
	g.log.Info().Str("job_id", job.ID).Str("firm_id", payload.FirmID).Msg("generation queued")
	return job, letter, nil
}

func (g *generationUC) GetStatus(ctx context.Context, letterID string) (*GenerationStatus, error) {
	job, err := g.queue.Status(ctx, g.queueName, letterID)
	if err != nil {
		return nil, err
	}

	st := &GenerationStatus{
		Status:       callerStatus(job.Status),
		Progress:     job.Progress,
		AttemptsMade: job.AttemptsMade,
		Result:       job.Result,
	}
	if job.Status == model.JobStatusCompleted {
		if letter, err := g.letters.FindByID(ctx, letterID); err == nil {
			st.Letter = letter
		} else {
			g.log.Warn().Err(err).Str("letter_id", letterID).Msg("completed job but letter fetch failed")
		}
	}
	return st, nil
}

func (g *generationUC) CancelGeneration(ctx context.Context, letterID string) error {
	job, err := g.queue.Status(ctx, g.queueName, letterID)
	if err != nil {
		return err
	}
	if !job.Status.Cancellable() {
		return fmt.Errorf("%w: status is %s", domain.ErrCannotCancel, job.Status)
	}
	if err := g.queue.Remove(ctx, g.queueName, letterID); err != nil {
		return fmt.Errorf("remove job: %w", err)
	}

	existing := map[string]any{}
	if letter, err := g.letters.FindByID(ctx, letterID); err == nil {
		existing = letter.Metadata
	}
	status := model.LetterStatusArchived
	if err := g.letters.Update(ctx, letterID, repository.LetterUpdate{
		Status: &status,
		Metadata: model.MergeMetadata(existing, map[string]any{
			"generationStatus":      "cancelled",
			"generationCancelledAt": time.Now().UTC().Format(time.RFC3339),
		}),
	}); err != nil {
		g.log.Error().Err(err).Str("letter_id", letterID).Msg("archive after cancel failed")
	}
	g.log.Info().Str("letter_id", letterID).Msg("generation cancelled")
	return nil
}

func (g *generationUC) QueueStats(ctx context.Context) (repository.QueueStats, error) {
	return g.queue.Stats(ctx, g.queueName)
}

func callerStatus(s model.JobStatus) string {
	switch s {
	case model.JobStatusWaiting:
		return "queued"
	case model.JobStatusActive:
		return "processing"
	case model.JobStatusDelayed:
		return "delayed"
	case model.JobStatusCompleted:
		return "completed"
	case model.JobStatusFailed:
		return "failed"
	default:
		return string(s)
	}
}
