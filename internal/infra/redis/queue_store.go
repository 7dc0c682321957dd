// File: internal/infra/redis/queue_store.go
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"legal-letter-ai/internal/domain"
	"legal-letter-ai/internal/domain/model"
	"legal-letter-ai/internal/domain/ports/repository"
)

var _ repository.JobQueue = (*QueueStore)(nil)

const monitorInterval = 2 * time.Second

// QueueStore persists Job Records in Redis. Each job is a hash keyed by its
// ID (by convention the target letter's ID, which is what makes enqueue
// deduplication work); waiting jobs sit in a list, delayed jobs in a sorted
// set scored by their ready time, and terminal jobs in sorted sets scored by
// completion time so retention can trim the oldest first.
type QueueStore struct {
	cli *redis.Client
	log *zerolog.Logger

	ready     chan struct{}
	readyOnce sync.Once

	mu        sync.RWMutex
	connected bool
}

func NewQueueStore(client *Client, logger *zerolog.Logger) *QueueStore {
	qsLog := logger.With().Str("component", "QueueStore").Logger()
	return &QueueStore{
		cli:   client.cli,
		log:   &qsLog,
		ready: make(chan struct{}),
	}
}

// Run monitors the connection until ctx is cancelled. The first successful
// ping closes Ready exactly once; later disconnects only flip the healthy
// flag, they are retried by the transport and never surfaced as panics.
func (s *QueueStore) Run(ctx context.Context) error {
	ticker := time.NewTicker(monitorInterval)
	defer ticker.Stop()
	for {
		if err := s.cli.Ping(ctx).Err(); err != nil {
			s.setConnected(false)
			s.log.Warn().Err(err).Msg("queue store unreachable")
		} else {
			s.setConnected(true)
			s.readyOnce.Do(func() {
				s.log.Info().Msg("queue store connected")
				close(s.ready)
			})
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *QueueStore) Ready() <-chan struct{} { return s.ready }

func (s *QueueStore) Healthy(queue string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

func (s *QueueStore) setConnected(v bool) {
	s.mu.Lock()
	s.connected = v
	s.mu.Unlock()
}

// ---- keys ----

func jobKey(queue, id string) string { return "lq:" + queue + ":job:" + id }
func waitKey(queue string) string    { return "lq:" + queue + ":wait" }
func delayedKey(queue string) string { return "lq:" + queue + ":delayed" }
func activeKey(queue string) string  { return "lq:" + queue + ":active" }
func doneKey(queue string) string    { return "lq:" + queue + ":completed" }
func failedKey(queue string) string  { return "lq:" + queue + ":failed" }
func pausedKey(queue string) string  { return "lq:" + queue + ":paused" }

// ---- producer side ----

func (s *QueueStore) Enqueue(ctx context.Context, queue string, payload model.GenerationPayload, opts repository.EnqueueOptions) (*model.JobRecord, error) {
	id := opts.JobID
	if id == "" {
		id = payload.LetterID
	}
	now := time.Now().UTC()

	created, err := s.cli.HSetNX(ctx, jobKey(queue, id), "created_at", now.Format(time.RFC3339Nano)).Result()
	if err != nil {
		return nil, fmt.Errorf("enqueue %s: %w", id, err)
	}
	if !created {
		existing, err := s.Status(ctx, queue, id)
		replace, derr := replaceColliding(existing, err)
		if !replace {
			if errors.Is(derr, domain.ErrDuplicateJob) {
				return existing, derr
			}
			return nil, fmt.Errorf("enqueue %s: %w", id, derr)
		}
		// Terminal leftovers may be replaced by a fresh run.
		if err := s.purge(ctx, queue, id); err != nil {
			return nil, err
		}
		if err := s.cli.HSet(ctx, jobKey(queue, id), "created_at", now.Format(time.RFC3339Nano)).Err(); err != nil {
			return nil, err
		}
	}

	job := &model.JobRecord{
		ID:        id,
		Queue:     queue,
		Payload:   payload,
		Status:    model.JobStatusWaiting,
		CreatedAt: now,
	}
	if opts.Delay > 0 {
		job.Status = model.JobStatusDelayed
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	if err := s.cli.HSet(ctx, jobKey(queue, id), map[string]interface{}{
		"payload":  raw,
		"status":   string(job.Status),
		"progress": 0,
		"attempts": 0,
		"priority": opts.Priority,
	}).Err(); err != nil {
		return nil, fmt.Errorf("enqueue %s: %w", id, err)
	}

	if opts.Delay > 0 {
		readyAt := float64(now.Add(opts.Delay).UnixMilli())
		if err := s.cli.ZAdd(ctx, delayedKey(queue), &redis.Z{Score: readyAt, Member: id}).Err(); err != nil {
			return nil, err
		}
		return job, nil
	}
	// LPUSH + RPOP keeps FIFO admission; priority jobs jump the line.
	push := s.cli.LPush
	if opts.Priority > 0 {
		push = s.cli.RPush
	}
	if err := push(ctx, waitKey(queue), id).Err(); err != nil {
		return nil, err
	}
	return job, nil
}

// replaceColliding decides what a colliding enqueue may do with the record
// already holding the job ID. Only a record that was actually read and is
// terminal may be replaced; a read failure must surface as an error, never
// as permission to purge a possibly in-flight job. A record that vanished
// between HSetNX and the read (concurrent purge) is treated as free.
func replaceColliding(existing *model.JobRecord, readErr error) (bool, error) {
	switch {
	case readErr == nil && !existing.Status.Terminal():
		// Dedup contract: at most one in-flight generation per letter.
		return false, domain.ErrDuplicateJob
	case readErr != nil && !errors.Is(readErr, domain.ErrNotFound):
		return false, readErr
	}
	return true, nil
}

func (s *QueueStore) Status(ctx context.Context, queue, jobID string) (*model.JobRecord, error) {
	fields, err := s.cli.HGetAll(ctx, jobKey(queue, jobID)).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, domain.ErrNotFound
	}
	return unmarshalJob(queue, jobID, fields)
}

func (s *QueueStore) Remove(ctx context.Context, queue, jobID string) error {
	job, err := s.Status(ctx, queue, jobID)
	if err != nil {
		return err
	}
	if !job.Status.Cancellable() {
		return fmt.Errorf("%w: status is %s", domain.ErrCannotCancel, job.Status)
	}
	return s.purge(ctx, queue, jobID)
}

func (s *QueueStore) Stats(ctx context.Context, queue string) (repository.QueueStats, error) {
	pipe := s.cli.Pipeline()
	waiting := pipe.LLen(ctx, waitKey(queue))
	active := pipe.SCard(ctx, activeKey(queue))
	completed := pipe.ZCard(ctx, doneKey(queue))
	failed := pipe.ZCard(ctx, failedKey(queue))
	delayed := pipe.ZCard(ctx, delayedKey(queue))
	paused := pipe.Exists(ctx, pausedKey(queue))
	if _, err := pipe.Exec(ctx); err != nil {
		return repository.QueueStats{}, err
	}
	return repository.QueueStats{
		Waiting:   int(waiting.Val()),
		Active:    int(active.Val()),
		Completed: int(completed.Val()),
		Failed:    int(failed.Val()),
		Delayed:   int(delayed.Val()),
		Paused:    paused.Val() > 0,
	}, nil
}

func (s *QueueStore) Pause(ctx context.Context, queue string) error {
	return s.cli.Set(ctx, pausedKey(queue), "1", 0).Err()
}

func (s *QueueStore) Resume(ctx context.Context, queue string) error {
	return s.cli.Del(ctx, pausedKey(queue)).Err()
}

// ---- worker side ----

// Claim pops the next runnable job and marks it active. Due delayed jobs are
// promoted first. Returns domain.ErrNotFound when the queue is empty or
// paused; RPOP is atomic, so two worker slots cannot claim the same job.
func (s *QueueStore) Claim(ctx context.Context, queue string) (*model.JobRecord, error) {
	paused, err := s.cli.Exists(ctx, pausedKey(queue)).Result()
	if err != nil {
		return nil, err
	}
	if paused > 0 {
		return nil, domain.ErrNotFound
	}
	if err := s.promoteDue(ctx, queue); err != nil {
		s.log.Warn().Err(err).Msg("promoting delayed jobs failed")
	}

	id, err := s.cli.RPop(ctx, waitKey(queue)).Result()
	if err == redis.Nil {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	pipe := s.cli.Pipeline()
	pipe.HSet(ctx, jobKey(queue, id), map[string]interface{}{
		"status":       string(model.JobStatusActive),
		"processed_at": now.Format(time.RFC3339Nano),
	})
	pipe.HIncrBy(ctx, jobKey(queue, id), "attempts", 1)
	pipe.SAdd(ctx, activeKey(queue), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("claim %s: %w", id, err)
	}
	return s.Status(ctx, queue, id)
}

func (s *QueueStore) UpdateProgress(ctx context.Context, queue, jobID string, progress int) error {
	return s.cli.HSet(ctx, jobKey(queue, jobID), "progress", progress).Err()
}

// Complete records the orchestrator's result. Success and failure payloads
// both land here: a classified failure is still a completed job run.
func (s *QueueStore) Complete(ctx context.Context, queue, jobID string, result *model.GenerationResult) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	now := time.Now().UTC()
	pipe := s.cli.Pipeline()
	pipe.HSet(ctx, jobKey(queue, jobID), map[string]interface{}{
		"status":       string(model.JobStatusCompleted),
		"progress":     100,
		"result":       raw,
		"completed_at": now.Format(time.RFC3339Nano),
	})
	pipe.SRem(ctx, activeKey(queue), jobID)
	pipe.ZAdd(ctx, doneKey(queue), &redis.Z{Score: float64(now.UnixMilli()), Member: jobID})
	_, err = pipe.Exec(ctx)
	return err
}

// Fail marks a job failed at the queue level. Only transport-level problems
// land here; generation failures resolve through Complete.
func (s *QueueStore) Fail(ctx context.Context, queue, jobID, reason string) error {
	now := time.Now().UTC()
	pipe := s.cli.Pipeline()
	pipe.HSet(ctx, jobKey(queue, jobID), map[string]interface{}{
		"status":       string(model.JobStatusFailed),
		"last_error":   reason,
		"completed_at": now.Format(time.RFC3339Nano),
	})
	pipe.SRem(ctx, activeKey(queue), jobID)
	pipe.ZAdd(ctx, failedKey(queue), &redis.Z{Score: float64(now.UnixMilli()), Member: jobID})
	_, err := pipe.Exec(ctx)
	return err
}

// TrimTerminal drops the oldest terminal jobs beyond the retention caps and
// reports how many were removed.
func (s *QueueStore) TrimTerminal(ctx context.Context, queue string, keepCompleted, keepFailed int) (int, error) {
	removed := 0
	for _, set := range []struct {
		key  string
		keep int
	}{
		{doneKey(queue), keepCompleted},
		{failedKey(queue), keepFailed},
	} {
		n, err := s.cli.ZCard(ctx, set.key).Result()
		if err != nil {
			return removed, err
		}
		excess := int(n) - set.keep
		if excess <= 0 {
			continue
		}
		ids, err := s.cli.ZRange(ctx, set.key, 0, int64(excess-1)).Result()
		if err != nil {
			return removed, err
		}
		pipe := s.cli.Pipeline()
		for _, id := range ids {
			pipe.Del(ctx, jobKey(queue, id))
			pipe.ZRem(ctx, set.key, id)
		}
		if _, err := pipe.Exec(ctx); err != nil {
			return removed, err
		}
		removed += len(ids)
	}
	return removed, nil
}

// RequeueStalled returns active jobs whose claim is older than olderThan to
// the wait list and reports how many were moved. A worker that dies mid-job
// leaves its claim in the active set forever; without this sweep the dedup
// contract would pin the letter to that dead record.
func (s *QueueStore) RequeueStalled(ctx context.Context, queue string, olderThan time.Duration) (int, error) {
	ids, err := s.cli.SMembers(ctx, activeKey(queue)).Result()
	if err != nil {
		return 0, err
	}
	cutoff := time.Now().UTC().Add(-olderThan)
	requeued := 0
	for _, id := range ids {
		fields, err := s.cli.HMGet(ctx, jobKey(queue, id), "status", "processed_at").Result()
		if err != nil {
			return requeued, err
		}
		status, _ := fields[0].(string)
		if model.JobStatus(status) != model.JobStatusActive {
			// Stray member: the job moved on but the SRem was lost.
			s.cli.SRem(ctx, activeKey(queue), id)
			continue
		}
		processedRaw, _ := fields[1].(string)
		processedAt := parseTime(processedRaw)
		if !processedAt.IsZero() && processedAt.After(cutoff) {
			continue
		}
		pipe := s.cli.Pipeline()
		pipe.HSet(ctx, jobKey(queue, id), "status", string(model.JobStatusWaiting))
		pipe.SRem(ctx, activeKey(queue), id)
		pipe.LPush(ctx, waitKey(queue), id)
		if _, err := pipe.Exec(ctx); err != nil {
			return requeued, err
		}
		requeued++
	}
	return requeued, nil
}

// ---- internal ----

func (s *QueueStore) promoteDue(ctx context.Context, queue string) error {
	now := time.Now().UTC().UnixMilli()
	ids, err := s.cli.ZRangeByScore(ctx, delayedKey(queue), &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(now, 10),
	}).Result()
	if err != nil || len(ids) == 0 {
		return err
	}
	pipe := s.cli.Pipeline()
	for _, id := range ids {
		pipe.ZRem(ctx, delayedKey(queue), id)
		pipe.HSet(ctx, jobKey(queue, id), "status", string(model.JobStatusWaiting))
		pipe.LPush(ctx, waitKey(queue), id)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (s *QueueStore) purge(ctx context.Context, queue, jobID string) error {
	pipe := s.cli.Pipeline()
	pipe.LRem(ctx, waitKey(queue), 0, jobID)
	pipe.ZRem(ctx, delayedKey(queue), jobID)
	pipe.ZRem(ctx, doneKey(queue), jobID)
	pipe.ZRem(ctx, failedKey(queue), jobID)
	pipe.SRem(ctx, activeKey(queue), jobID)
	pipe.Del(ctx, jobKey(queue, jobID))
	_, err := pipe.Exec(ctx)
	return err
}

func unmarshalJob(queue, id string, fields map[string]string) (*model.JobRecord, error) {
	job := &model.JobRecord{
		ID:        id,
		Queue:     queue,
		Status:    model.JobStatus(fields["status"]),
		LastError: fields["last_error"],
	}
	if raw := fields["payload"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &job.Payload); err != nil {
			return nil, fmt.Errorf("unmarshal payload of %s: %w", id, err)
		}
	}
	if raw := fields["result"]; raw != "" {
		var res model.GenerationResult
		if err := json.Unmarshal([]byte(raw), &res); err != nil {
			return nil, fmt.Errorf("unmarshal result of %s: %w", id, err)
		}
		job.Result = &res
	}
	job.Progress, _ = strconv.Atoi(fields["progress"])
	job.AttemptsMade, _ = strconv.Atoi(fields["attempts"])
	job.CreatedAt = parseTime(fields["created_at"])
	job.ProcessedAt = parseTime(fields["processed_at"])
	job.CompletedAt = parseTime(fields["completed_at"])
	return job, nil
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}
