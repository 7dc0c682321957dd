package usecase

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"legal-letter-ai/internal/domain/model"
	"legal-letter-ai/internal/domain/ports/adapter"
)

type orchestratorFixture struct {
	letters   *memLetterRepo
	documents *memDocumentRepo
	templates *memTemplateRepo
	versions  *memVersionRepo
	usage     *memUsageRepo
	ai        *fakeAI
	orch      *Orchestrator
}

func newOrchestratorFixture(ai *fakeAI, cfg GenerationConfig) *orchestratorFixture {
	f := &orchestratorFixture{
		letters:   newMemLetterRepo(),
		documents: newMemDocumentRepo(),
		templates: newMemTemplateRepo(),
		versions:  &memVersionRepo{},
		usage:     &memUsageRepo{},
		ai:        ai,
	}
	nop := zerolog.Nop()
	f.orch = NewOrchestrator(f.letters, f.documents, f.templates, f.versions, f.usage, ai, cfg, &nop)
	return f
}

// fastConfig keeps retry waits negligible so tests stay quick.
func fastConfig() GenerationConfig {
	return GenerationConfig{
		Model:              "test-model",
		Timeout:            5 * time.Second,
		MaxAttempts:        3,
		Backoff:            Backoff{Base: time.Millisecond, Cap: 2 * time.Millisecond},
		InputTokenLimit:    120000,
		InputPricePerMTok:  5.0,
		OutputPricePerMTok: 15.0,
	}
}

func seedLetter(f *orchestratorFixture, p *model.GenerationPayload, metadata map[string]any) {
	f.letters.store[p.LetterID] = &model.Letter{
		ID:       p.LetterID,
		FirmID:   p.FirmID,
		Status:   model.LetterStatusPending,
		Metadata: metadata,
	}
}

func jobFor(p model.GenerationPayload) *model.JobRecord {
	return &model.JobRecord{ID: p.LetterID, Queue: "letter-generation", Payload: p, Status: model.JobStatusActive, AttemptsMade: 1}
}

func TestProcessHappyPath(t *testing.T) {
	ai := &fakeAI{out: adapter.GenerationOutput{
		Text:  "Dear Sir or Madam,\n\nOn behalf of our client Jane Roe...",
		Usage: model.TokenUsage{InputTokens: 100, OutputTokens: 50, TotalTokens: 150},
		Model: "test-model",
	}}
	f := newOrchestratorFixture(ai, fastConfig())

	p := validPayload()
	p.Damages = &model.Damages{Medical: 5000, LostWages: 2000, PainAndSuffering: 10000}
	seedLetter(f, &p, map[string]any{"aiGenerated": true, "previousVersions": []string{"v0"}})

	var progress []int
	result := f.orch.Process(context.Background(), jobFor(p), func(pr int) { progress = append(progress, pr) })

	if !result.Success {
		t.Fatalf("expected success, got error %+v", result.Error)
	}
	if result.Content != ai.out.Text {
		t.Errorf("result content mismatch")
	}
	wantCost := 100*5.0/1e6 + 50*15.0/1e6
	if math.Abs(result.Cost-wantCost) > 1e-9 {
		t.Errorf("cost = %v, want %v", result.Cost, wantCost)
	}
	if result.Model != "test-model" {
		t.Errorf("model = %q", result.Model)
	}

	want := []int{5, 10, 50, 100}
	if len(progress) != len(want) {
		t.Fatalf("progress checkpoints = %v, want %v", progress, want)
	}
	for i := range want {
		if progress[i] != want[i] {
			t.Fatalf("progress checkpoints = %v, want %v", progress, want)
		}
	}

	letter := f.letters.store[p.LetterID]
	if letter.Status != model.LetterStatusInReview {
		t.Errorf("letter status = %s, want in-review", letter.Status)
	}
	if letter.Content == "" {
		t.Errorf("letter content not persisted")
	}
	if letter.Metadata["generationStatus"] != "completed" {
		t.Errorf("generationStatus = %v", letter.Metadata["generationStatus"])
	}
	if letter.Metadata["aiGenerated"] != true {
		t.Errorf("historical metadata key aiGenerated was dropped")
	}
	if _, ok := letter.Metadata["previousVersions"]; !ok {
		t.Errorf("historical metadata key previousVersions was dropped")
	}

	if len(f.versions.versions) != 1 || f.versions.versions[0].letterID != p.LetterID {
		t.Errorf("version snapshot not recorded: %+v", f.versions.versions)
	}
	if len(f.usage.events) != 1 {
		t.Fatalf("usage events = %d, want 1", len(f.usage.events))
	}
	ev := f.usage.events[0]
	if ev.LetterID != p.LetterID || ev.Usage.TotalTokens != 150 {
		t.Errorf("usage event wrong: %+v", ev)
	}
}

func TestProcessValidationFailure(t *testing.T) {
	ai := &fakeAI{}
	f := newOrchestratorFixture(ai, fastConfig())

	p := validPayload()
	p.ClientName = ""
	result := f.orch.Process(context.Background(), jobFor(p), func(int) {})

	if result.Success {
		t.Fatal("expected failure")
	}
	if result.Error == nil || result.Error.Title != model.ErrTitleMissingFields {
		t.Fatalf("error = %+v, want title %q", result.Error, model.ErrTitleMissingFields)
	}
	if ai.callCount() != 0 {
		t.Errorf("AI was called %d times for an invalid payload", ai.callCount())
	}
}

func TestProcessRetriesTransientFailures(t *testing.T) {
	ai := &fakeAI{
		errs: []error{adapter.ErrThrottled, adapter.ErrThrottled},
		out: adapter.GenerationOutput{
			Text:  "Dear Counsel,",
			Usage: model.TokenUsage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15},
			Model: "test-model",
		},
	}
	f := newOrchestratorFixture(ai, fastConfig())
	p := validPayload()
	seedLetter(f, &p, nil)

	result := f.orch.Process(context.Background(), jobFor(p), func(int) {})
	if !result.Success {
		t.Fatalf("expected success after retries, got %+v", result.Error)
	}
	if ai.callCount() != 3 {
		t.Errorf("AI calls = %d, want 3", ai.callCount())
	}
}

func TestProcessRetryBudgetExhausted(t *testing.T) {
	ai := &fakeAI{errs: []error{adapter.ErrThrottled, adapter.ErrThrottled, adapter.ErrThrottled, adapter.ErrThrottled}}
	f := newOrchestratorFixture(ai, fastConfig())
	p := validPayload()
	seedLetter(f, &p, nil)

	result := f.orch.Process(context.Background(), jobFor(p), func(int) {})
	if result.Success {
		t.Fatal("expected failure")
	}
	if result.Error.Title != model.ErrTitleServiceUnavailable {
		t.Errorf("title = %q, want %q", result.Error.Title, model.ErrTitleServiceUnavailable)
	}
	if ai.callCount() != 3 {
		t.Errorf("AI calls = %d, want exactly MaxAttempts (3)", ai.callCount())
	}
}

func TestProcessUnauthorizedDoesNotRetry(t *testing.T) {
	ai := &fakeAI{errs: []error{adapter.ErrUnauthorized, adapter.ErrUnauthorized, adapter.ErrUnauthorized}}
	f := newOrchestratorFixture(ai, fastConfig())
	p := validPayload()
	seedLetter(f, &p, nil)

	result := f.orch.Process(context.Background(), jobFor(p), func(int) {})
	if result.Success {
		t.Fatal("expected failure")
	}
	if result.Error.Title != model.ErrTitleBadCredentials {
		t.Errorf("title = %q, want %q", result.Error.Title, model.ErrTitleBadCredentials)
	}
	if ai.callCount() != 1 {
		t.Errorf("AI calls = %d, want 1 (no retry on bad credentials)", ai.callCount())
	}
}

func TestProcessTimeoutCoversAllAttempts(t *testing.T) {
	ai := &fakeAI{block: true}
	cfg := fastConfig()
	cfg.Timeout = 30 * time.Millisecond
	f := newOrchestratorFixture(ai, cfg)
	p := validPayload()
	seedLetter(f, &p, nil)

	start := time.Now()
	result := f.orch.Process(context.Background(), jobFor(p), func(int) {})
	elapsed := time.Since(start)

	if result.Success {
		t.Fatal("expected timeout failure")
	}
	if result.Error.Title != model.ErrTitleServiceUnavailable {
		t.Errorf("title = %q, want %q", result.Error.Title, model.ErrTitleServiceUnavailable)
	}
	if elapsed > 2*time.Second {
		t.Errorf("timeout did not bound the run: took %v", elapsed)
	}
}

func TestProcessTimeoutHoldsAgainstStuckAdapter(t *testing.T) {
	ai := &fakeAI{stuck: make(chan struct{})}
	t.Cleanup(func() { close(ai.stuck) })
	cfg := fastConfig()
	cfg.Timeout = 30 * time.Millisecond
	f := newOrchestratorFixture(ai, cfg)
	p := validPayload()
	seedLetter(f, &p, nil)

	start := time.Now()
	result := f.orch.Process(context.Background(), jobFor(p), func(int) {})
	elapsed := time.Since(start)

	if result.Success {
		t.Fatal("expected timeout failure")
	}
	if result.Error.Title != model.ErrTitleServiceUnavailable {
		t.Errorf("title = %q, want %q", result.Error.Title, model.ErrTitleServiceUnavailable)
	}
	if elapsed > 2*time.Second {
		t.Errorf("a hung adapter call held the run for %v", elapsed)
	}
}

func TestProcessRejectsOversizedPrompt(t *testing.T) {
	ai := &fakeAI{tokens: 200000}
	cfg := fastConfig()
	cfg.InputTokenLimit = 1000
	f := newOrchestratorFixture(ai, cfg)
	p := validPayload()
	seedLetter(f, &p, nil)

	result := f.orch.Process(context.Background(), jobFor(p), func(int) {})
	if result.Success {
		t.Fatal("expected failure")
	}
	if result.Error.Title != model.ErrTitleCaseSummaryTooBig {
		t.Errorf("title = %q, want %q", result.Error.Title, model.ErrTitleCaseSummaryTooBig)
	}
	if ai.callCount() != 0 {
		t.Errorf("Generate called %d times despite oversized prompt", ai.callCount())
	}
}

func TestProcessFailurePreservesMetadata(t *testing.T) {
	ai := &fakeAI{errs: []error{adapter.ErrThrottled, adapter.ErrThrottled, adapter.ErrThrottled}}
	f := newOrchestratorFixture(ai, fastConfig())
	p := validPayload()
	seedLetter(f, &p, map[string]any{"aiGenerated": true, "caseNumber": "CV-2025-104"})

	result := f.orch.Process(context.Background(), jobFor(p), func(int) {})
	if result.Success {
		t.Fatal("expected failure")
	}

	letter := f.letters.store[p.LetterID]
	if letter.Status != model.LetterStatusDraft {
		t.Errorf("letter status = %s, want draft after failure", letter.Status)
	}
	if letter.Metadata["generationStatus"] != "failed" {
		t.Errorf("generationStatus = %v", letter.Metadata["generationStatus"])
	}
	if letter.Metadata["aiGenerated"] != true || letter.Metadata["caseNumber"] != "CV-2025-104" {
		t.Errorf("pre-existing metadata dropped on failure merge: %+v", letter.Metadata)
	}
	if _, ok := letter.Metadata["generationError"]; !ok {
		t.Errorf("generationError not recorded")
	}
}

func TestProcessResolvesTemplateAndDocuments(t *testing.T) {
	ai := &fakeAI{out: adapter.GenerationOutput{
		Text:  "Dear Counsel,",
		Usage: model.TokenUsage{InputTokens: 1, OutputTokens: 1, TotalTokens: 2},
		Model: "test-model",
	}}
	f := newOrchestratorFixture(ai, fastConfig())
	p := validPayload()
	p.DocumentIDs = []string{"doc-1"}
	p.TemplateID = "tmpl-1"
	seedLetter(f, &p, nil)
	f.documents.docs["doc-1"] = &model.Document{ID: "doc-1", FileName: "police-report.pdf", ExtractedText: "Report text"}
	f.templates.templates["tmpl-1"] = &model.Template{ID: "tmpl-1", Content: "Template body"}

	result := f.orch.Process(context.Background(), jobFor(p), func(int) {})
	if !result.Success {
		t.Fatalf("expected success, got %+v", result.Error)
	}
}

func TestProcessMissingTemplateFails(t *testing.T) {
	ai := &fakeAI{}
	f := newOrchestratorFixture(ai, fastConfig())
	p := validPayload()
	p.TemplateID = "tmpl-missing"
	seedLetter(f, &p, nil)

	result := f.orch.Process(context.Background(), jobFor(p), func(int) {})
	if result.Success {
		t.Fatal("expected failure for missing template")
	}
	if result.Error.Title != model.ErrTitleGenerationFailed {
		t.Errorf("title = %q, want %q", result.Error.Title, model.ErrTitleGenerationFailed)
	}
	if ai.callCount() != 0 {
		t.Errorf("AI called despite unresolvable template")
	}
}
