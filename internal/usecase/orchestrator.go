package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"legal-letter-ai/internal/domain"
	"legal-letter-ai/internal/domain/model"
	"legal-letter-ai/internal/domain/ports/adapter"
	"legal-letter-ai/internal/domain/ports/repository"
)

// Progress checkpoints reported back to the queue while a job runs.
const (
	progressValidated = 5
	progressPrepared  = 10
	progressGenerated = 50
	progressDone      = 100
)

// ProgressFunc is called with the job's new progress percentage. Callers
// bind it to the queue store; the orchestrator does not talk to the queue
// directly.
type ProgressFunc func(progress int)

type GenerationConfig struct {
	Model              string
	Timeout            time.Duration // wall clock for the whole AI call, retries included
	MaxAttempts        int
	Backoff            Backoff
	InputTokenLimit    int
	InputPricePerMTok  float64 // USD per million input tokens
	OutputPricePerMTok float64 // USD per million output tokens
}

// Orchestrator runs one generation job end to end:
// validate, resolve prerequisites, generate with retry and timeout, persist
// with a metadata merge, then fan out the version snapshot and usage record.
//
// Process always resolves with a GenerationResult. Failures are classified
// and embedded in the result, never raised; a failed generation is a normal
// completion from the queue's point of view.
type Orchestrator struct {
	letters   repository.LetterRepository
	documents repository.DocumentRepository
	templates repository.TemplateRepository
	versions  repository.VersionRepository
	usage     repository.UsageRepository
	ai        adapter.AIServiceAdapter
	cfg       GenerationConfig
	log       *zerolog.Logger
}

func NewOrchestrator(
	letters repository.LetterRepository,
	documents repository.DocumentRepository,
	templates repository.TemplateRepository,
	versions repository.VersionRepository,
	usage repository.UsageRepository,
	ai adapter.AIServiceAdapter,
	cfg GenerationConfig,
	logger *zerolog.Logger,
) *Orchestrator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.Backoff == (Backoff{}) {
		cfg.Backoff = DefaultBackoff
	}
	if cfg.InputTokenLimit <= 0 {
		cfg.InputTokenLimit = 120000
	}
	ordLog := logger.With().Str("component", "Orchestrator").Logger()
	return &Orchestrator{
		letters:   letters,
		documents: documents,
		templates: templates,
		versions:  versions,
		usage:     usage,
		ai:        ai,
		cfg:       cfg,
		log:       &ordLog,
	}
}

func (o *Orchestrator) Process(ctx context.Context, job *model.JobRecord, report ProgressFunc) *model.GenerationResult {
	start := time.Now()
	p := &job.Payload

	if err := ValidatePayload(p); err != nil {
		return o.fail(ctx, p.LetterID, err)
	}
	report(progressValidated)

	docs, templateText, err := o.resolvePrerequisites(ctx, p)
	if err != nil {
		return o.fail(ctx, p.LetterID, err)
	}

	prompt := buildPrompt(p, docs, templateText)
	if n, err := o.ai.CountTokens(ctx, o.cfg.Model, systemPrompt+prompt); err == nil && n > o.cfg.InputTokenLimit {
		return o.fail(ctx, p.LetterID,
			fmt.Errorf("%w: prompt is %d tokens, model limit is %d", adapter.ErrInputTooLarge, n, o.cfg.InputTokenLimit))
	}
	report(progressPrepared)

	in := adapter.GenerationInput{
		System:      systemPrompt,
		Prompt:      prompt,
		Model:       o.cfg.Model,
		Temperature: 0.7,
		MaxTokens:   2048,
	}
	if p.Temperature != nil {
		in.Temperature = *p.Temperature
	}
	if p.MaxTokens != nil {
		in.MaxTokens = *p.MaxTokens
	}

	out, err := o.generate(ctx, in)
	if err != nil {
		return o.fail(ctx, p.LetterID, err)
	}
	report(progressGenerated)

	cost := o.costOf(out.Usage)
	generatedAt := time.Now().UTC()
	if err := o.persist(ctx, job, out, cost, generatedAt, time.Since(start)); err != nil {
		return o.fail(ctx, p.LetterID, err)
	}
	report(progressDone)

	usage := out.Usage
	o.log.Info().
		Str("job_id", job.ID).
		Str("letter_id", p.LetterID).
		Int("tokens", usage.TotalTokens).
		Dur("duration", time.Since(start)).
		Msg("letter generated")

	return &model.GenerationResult{
		Success:     true,
		LetterID:    p.LetterID,
		Content:     out.Text,
		Usage:       &usage,
		Cost:        cost,
		Model:       out.Model,
		GeneratedAt: generatedAt,
	}
}

func (o *Orchestrator) resolvePrerequisites(ctx context.Context, p *model.GenerationPayload) ([]*model.Document, string, error) {
	var docs []*model.Document
	if len(p.DocumentIDs) > 0 {
		var err error
		docs, err = o.documents.FindByIDs(ctx, p.DocumentIDs)
		if err != nil {
			return nil, "", fmt.Errorf("resolve documents: %w", err)
		}
	}
	templateText := p.TemplateText
	if templateText == "" && p.TemplateID != "" {
		tmpl, err := o.templates.FindByID(ctx, p.TemplateID)
		if err != nil {
			return nil, "", fmt.Errorf("resolve template %s: %w", p.TemplateID, err)
		}
		templateText = tmpl.Content
	}
	return docs, templateText, nil
}

// generate races the internal retry loop against the configured wall-clock
// timeout. The deadline covers all attempts and the backoff between them;
// whichever settles first wins. Each call runs in its own goroutine so the
// deadline holds even against an adapter that ignores ctx; such a goroutine
// is abandoned to finish on its own, it never holds the worker slot.
func (o *Orchestrator) generate(ctx context.Context, in adapter.GenerationInput) (adapter.GenerationOutput, error) {
	ctx, cancel := context.WithTimeout(ctx, o.cfg.Timeout)
	defer cancel()

	type genSettled struct {
		out adapter.GenerationOutput
		err error
	}

	var lastErr error
	for attempt := 1; attempt <= o.cfg.MaxAttempts; attempt++ {
		settled := make(chan genSettled, 1)
		go func() {
			out, err := o.ai.Generate(ctx, in)
			settled <- genSettled{out: out, err: err}
		}()

		var out adapter.GenerationOutput
		var err error
		select {
		case s := <-settled:
			out, err = s.out, s.err
		case <-ctx.Done():
			return adapter.GenerationOutput{}, ctx.Err()
		}
		if err == nil {
			return out, nil
		}
		lastErr = err
		o.log.Warn().Err(err).Int("attempt", attempt).Msg("ai call failed")

		// Credentials and oversized input will not fix themselves.
		if errors.Is(err, adapter.ErrUnauthorized) || errors.Is(err, adapter.ErrInputTooLarge) {
			break
		}
		if ctx.Err() != nil {
			lastErr = ctx.Err()
			break
		}
		if attempt == o.cfg.MaxAttempts {
			break
		}
		select {
		case <-time.After(o.cfg.Backoff.Delay(attempt)):
		case <-ctx.Done():
			return adapter.GenerationOutput{}, ctx.Err()
		}
	}
	return adapter.GenerationOutput{}, lastErr
}

// persist writes the letter content, in-review status and merged metadata in
// one update, then fans out the version snapshot and usage record in
// parallel. The fan-out writes are best-effort: a failure in either is
// logged and does not roll back the letter content.
func (o *Orchestrator) persist(ctx context.Context, job *model.JobRecord, out adapter.GenerationOutput, cost float64, generatedAt time.Time, elapsed time.Duration) error {
	p := &job.Payload

	letter, err := o.letters.FindByID(ctx, p.LetterID)
	if err != nil {
		return fmt.Errorf("fetch letter %s: %w", p.LetterID, err)
	}

	merged := model.MergeMetadata(letter.Metadata, map[string]any{
		"generationStatus":     "completed",
		"generationJobId":      job.ID,
		"model":                out.Model,
		"usage":                out.Usage,
		"cost":                 cost,
		"generatedAt":          generatedAt.Format(time.RFC3339),
		"generationDurationMs": elapsed.Milliseconds(),
	})
	status := model.LetterStatusInReview
	if err := o.letters.Update(ctx, p.LetterID, repository.LetterUpdate{
		Content:  &out.Text,
		Status:   &status,
		Metadata: merged,
	}); err != nil {
		return fmt.Errorf("update letter %s: %w", p.LetterID, err)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if _, err := o.versions.CreateVersion(ctx, p.LetterID, out.Text); err != nil {
			o.log.Error().Err(err).Str("letter_id", p.LetterID).Msg("version snapshot failed")
		}
	}()
	go func() {
		defer wg.Done()
		event := &model.UsageEvent{
			ID:         uuid.NewString(),
			JobID:      job.ID,
			LetterID:   p.LetterID,
			FirmID:     p.FirmID,
			UserID:     p.RequestedBy,
			Model:      out.Model,
			Usage:      out.Usage,
			Cost:       cost,
			DurationMS: elapsed.Milliseconds(),
			CreatedAt:  generatedAt,
		}
		if err := o.usage.Record(ctx, event); err != nil {
			o.log.Error().Err(err).Str("job_id", job.ID).Msg("usage record failed")
		}
	}()
	wg.Wait()
	return nil
}

// fail classifies the cause, merges failure metadata into the letter while
// preserving historical keys, puts the letter back in draft and returns a
// failure-shaped result. The metadata re-fetch is best-effort: when the
// letter cannot be read the merge proceeds over an empty map.
func (o *Orchestrator) fail(ctx context.Context, letterID string, cause error) *model.GenerationResult {
	serr := ClassifyFailure(cause)
	o.log.Error().Err(cause).Str("letter_id", letterID).Str("title", serr.Title).Msg("generation failed")

	existing := map[string]any{}
	if letter, err := o.letters.FindByID(ctx, letterID); err == nil {
		existing = letter.Metadata
	} else if !errors.Is(err, domain.ErrNotFound) {
		o.log.Warn().Err(err).Str("letter_id", letterID).Msg("could not load letter metadata for failure merge")
	}

	merged := model.MergeMetadata(existing, map[string]any{
		"generationStatus":   "failed",
		"generationError":    serr,
		"generationFailedAt": time.Now().UTC().Format(time.RFC3339),
	})
	status := model.LetterStatusDraft
	if err := o.letters.Update(ctx, letterID, repository.LetterUpdate{Status: &status, Metadata: merged}); err != nil {
		o.log.Error().Err(err).Str("letter_id", letterID).Msg("failure metadata write failed")
	}

	return &model.GenerationResult{
		Success:     false,
		LetterID:    letterID,
		Error:       serr,
		GeneratedAt: time.Now().UTC(),
	}
}

func (o *Orchestrator) costOf(u model.TokenUsage) float64 {
	return float64(u.InputTokens)*o.cfg.InputPricePerMTok/1e6 +
		float64(u.OutputTokens)*o.cfg.OutputPricePerMTok/1e6
}
