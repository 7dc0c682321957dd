// File: internal/usecase/mocks_test.go
package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"legal-letter-ai/internal/domain"
	"legal-letter-ai/internal/domain/model"
	"legal-letter-ai/internal/domain/ports/adapter"
	"legal-letter-ai/internal/domain/ports/repository"
)

// memLetterRepo is a small in-memory implementation used by unit tests.
type memLetterRepo struct {
	mu        sync.RWMutex
	store     map[string]*model.Letter
	links     map[string][]string
	createErr error // used by tests to simulate write failures
	findErr   error
	updateErr error
}

func newMemLetterRepo() *memLetterRepo {
	return &memLetterRepo{store: make(map[string]*model.Letter), links: make(map[string][]string)}
}

func (m *memLetterRepo) Create(ctx context.Context, letter *model.Letter) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if _, ok := m.store[letter.ID]; ok {
		return domain.ErrAlreadyExists
	}
	cp := *letter
	m.store[letter.ID] = &cp
	return nil
}

func (m *memLetterRepo) FindByID(ctx context.Context, id string) (*model.Letter, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	l, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (m *memLetterRepo) Update(ctx context.Context, id string, upd repository.LetterUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	l, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	if upd.Content != nil {
		l.Content = *upd.Content
	}
	if upd.Status != nil {
		l.Status = *upd.Status
	}
	if upd.Metadata != nil {
		l.Metadata = upd.Metadata
	}
	l.UpdatedAt = time.Now()
	return nil
}

func (m *memLetterRepo) LinkDocuments(ctx context.Context, letterID string, documentIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.links[letterID] = append(m.links[letterID], documentIDs...)
	return nil
}

type memDocumentRepo struct {
	mu   sync.RWMutex
	docs map[string]*model.Document
	err  error
}

func newMemDocumentRepo() *memDocumentRepo {
	return &memDocumentRepo{docs: make(map[string]*model.Document)}
}

func (m *memDocumentRepo) FindByIDs(ctx context.Context, ids []string) ([]*model.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []*model.Document
	for _, id := range ids {
		if d, ok := m.docs[id]; ok {
			out = append(out, d)
		}
	}
	return out, nil
}

type memTemplateRepo struct {
	mu        sync.RWMutex
	templates map[string]*model.Template
}

func newMemTemplateRepo() *memTemplateRepo {
	return &memTemplateRepo{templates: make(map[string]*model.Template)}
}

func (m *memTemplateRepo) FindByID(ctx context.Context, id string) (*model.Template, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.templates[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return t, nil
}

type versionEntry struct {
	letterID string
	content  string
}

type memVersionRepo struct {
	mu       sync.Mutex
	versions []versionEntry
	err      error
}

func (m *memVersionRepo) CreateVersion(ctx context.Context, letterID, content string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	m.versions = append(m.versions, versionEntry{letterID: letterID, content: content})
	return fmt.Sprintf("v%d", len(m.versions)), nil
}

type memUsageRepo struct {
	mu     sync.Mutex
	events []*model.UsageEvent
	err    error
}

func (m *memUsageRepo) Record(ctx context.Context, event *model.UsageEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, event)
	return nil
}

// fakeAI plays a scripted sequence of errors, then succeeds with out.
// With block set it parks until the context expires, to exercise timeouts.
// With stuck set it parks on that channel and never looks at ctx, standing
// in for a provider client that does not honor cancellation.
type fakeAI struct {
	mu     sync.Mutex
	calls  int
	errs   []error
	out    adapter.GenerationOutput
	tokens int
	block  bool
	stuck  chan struct{}
}

func (f *fakeAI) Generate(ctx context.Context, in adapter.GenerationInput) (adapter.GenerationOutput, error) {
	f.mu.Lock()
	f.calls++
	var next error
	if len(f.errs) > 0 {
		next = f.errs[0]
		f.errs = f.errs[1:]
	}
	block := f.block
	stuck := f.stuck
	f.mu.Unlock()

	if stuck != nil {
		<-stuck
		return adapter.GenerationOutput{}, adapter.ErrThrottled
	}
	if block {
		<-ctx.Done()
		return adapter.GenerationOutput{}, ctx.Err()
	}
	if next != nil {
		return adapter.GenerationOutput{}, next
	}
	return f.out, nil
}

func (f *fakeAI) CountTokens(ctx context.Context, model, text string) (int, error) {
	if f.tokens > 0 {
		return f.tokens, nil
	}
	return len(text) / 4, nil
}

func (f *fakeAI) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// memJobQueue is an in-memory JobQueue used to test the generation use case
// without Redis. It mirrors the store's dedup and status semantics.
type memJobQueue struct {
	mu      sync.Mutex
	jobs    map[string]*model.JobRecord
	order   []string
	ready   chan struct{}
	healthy bool
	paused  bool
}

func newMemJobQueue() *memJobQueue {
	q := &memJobQueue{jobs: make(map[string]*model.JobRecord), ready: make(chan struct{}), healthy: true}
	close(q.ready)
	return q
}

var _ repository.JobQueue = (*memJobQueue)(nil)

func (q *memJobQueue) Enqueue(ctx context.Context, queue string, payload model.GenerationPayload, opts repository.EnqueueOptions) (*model.JobRecord, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	id := opts.JobID
	if existing, ok := q.jobs[id]; ok && !existing.Status.Terminal() {
		return existing, domain.ErrDuplicateJob
	}
	status := model.JobStatusWaiting
	if opts.Delay > 0 {
		status = model.JobStatusDelayed
	}
	job := &model.JobRecord{
		ID:        id,
		Queue:     queue,
		Payload:   payload,
		Status:    status,
		CreatedAt: time.Now(),
	}
	q.jobs[id] = job
	q.order = append(q.order, id)
	return job, nil
}

func (q *memJobQueue) Status(ctx context.Context, queue, jobID string) (*model.JobRecord, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	job, ok := q.jobs[jobID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *job
	return &cp, nil
}

func (q *memJobQueue) Remove(ctx context.Context, queue, jobID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	job, ok := q.jobs[jobID]
	if !ok {
		return domain.ErrNotFound
	}
	if !job.Status.Cancellable() {
		return domain.ErrCannotCancel
	}
	delete(q.jobs, jobID)
	return nil
}

func (q *memJobQueue) Stats(ctx context.Context, queue string) (repository.QueueStats, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var st repository.QueueStats
	st.Paused = q.paused
	for _, j := range q.jobs {
		switch j.Status {
		case model.JobStatusWaiting:
			st.Waiting++
		case model.JobStatusActive:
			st.Active++
		case model.JobStatusCompleted:
			st.Completed++
		case model.JobStatusFailed:
			st.Failed++
		case model.JobStatusDelayed:
			st.Delayed++
		}
	}
	return st, nil
}

func (q *memJobQueue) Pause(ctx context.Context, queue string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.paused = true
	return nil
}

func (q *memJobQueue) Resume(ctx context.Context, queue string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.paused = false
	return nil
}

func (q *memJobQueue) Healthy(queue string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.healthy
}

func (q *memJobQueue) Ready() <-chan struct{} { return q.ready }

func (q *memJobQueue) Claim(ctx context.Context, queue string) (*model.JobRecord, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.paused {
		return nil, domain.ErrQueuePaused
	}
	for _, id := range q.order {
		job, ok := q.jobs[id]
		if !ok || job.Status != model.JobStatusWaiting {
			continue
		}
		job.Status = model.JobStatusActive
		job.AttemptsMade++
		job.ProcessedAt = time.Now()
		cp := *job
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (q *memJobQueue) UpdateProgress(ctx context.Context, queue, jobID string, progress int) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	job, ok := q.jobs[jobID]
	if !ok {
		return domain.ErrNotFound
	}
	job.Progress = progress
	return nil
}

func (q *memJobQueue) Complete(ctx context.Context, queue, jobID string, result *model.GenerationResult) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	job, ok := q.jobs[jobID]
	if !ok {
		return domain.ErrNotFound
	}
	job.Status = model.JobStatusCompleted
	job.Progress = 100
	job.Result = result
	job.CompletedAt = time.Now()
	return nil
}

func (q *memJobQueue) Fail(ctx context.Context, queue, jobID, reason string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	job, ok := q.jobs[jobID]
	if !ok {
		return domain.ErrNotFound
	}
	job.Status = model.JobStatusFailed
	job.LastError = reason
	job.CompletedAt = time.Now()
	return nil
}

func (q *memJobQueue) TrimTerminal(ctx context.Context, queue string, keepCompleted, keepFailed int) (int, error) {
	return 0, nil
}

func (q *memJobQueue) RequeueStalled(ctx context.Context, queue string, olderThan time.Duration) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	cutoff := time.Now().Add(-olderThan)
	n := 0
	for _, job := range q.jobs {
		if job.Status == model.JobStatusActive && job.ProcessedAt.Before(cutoff) {
			job.Status = model.JobStatusWaiting
			n++
		}
	}
	return n, nil
}

// setStatus lets tests force a job into an arbitrary state.
func (q *memJobQueue) setStatus(jobID string, status model.JobStatus) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if job, ok := q.jobs[jobID]; ok {
		job.Status = status
	}
}
