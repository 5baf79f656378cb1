// Package persist runs best-effort persistence jobs off the request path.
//
// Jobs submitted with the same key run on the same shard, in submission
// order. Submit never blocks: when a shard is full the job is dropped,
// logged and counted.
package persist

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/yungbote/interview-backend/internal/observability"
	"github.com/yungbote/interview-backend/internal/platform/logger"
)

var ErrClosed = errors.New("persist queue closed")

type Config struct {
	Workers    int
	QueueSize  int
	JobTimeout time.Duration
}

type job struct {
	key  string
	kind string
	run  func(ctx context.Context) error
	done chan struct{}
}

type Queue struct {
	log     *logger.Logger
	shards  []chan job
	timeout time.Duration

	mu      sync.RWMutex
	closed  bool
	started bool
	wg      sync.WaitGroup
}

func New(baseLog *logger.Logger, cfg Config) *Queue {
	if cfg.Workers < 1 {
		cfg.Workers = 4
	}
	if cfg.QueueSize < 1 {
		cfg.QueueSize = 256
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 15 * time.Second
	}
	q := &Queue{
		log:     baseLog.With("component", "PersistQueue"),
		shards:  make([]chan job, cfg.Workers),
		timeout: cfg.JobTimeout,
	}
	for i := range q.shards {
		q.shards[i] = make(chan job, cfg.QueueSize)
	}
	return q
}

// Start launches one worker per shard. Workers exit once Close has drained
// their shard.
func (q *Queue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started || q.closed {
		return
	}
	q.started = true
	q.log.Info("Starting persist workers", "workers", len(q.shards))
	for i := range q.shards {
		q.wg.Add(1)
		go q.runLoop(i+1, q.shards[i])
	}
}

// Submit enqueues fn under key and reports whether it was accepted.
func (q *Queue) Submit(key, kind string, fn func(ctx context.Context) error) bool {
	if fn == nil {
		return false
	}
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		q.drop(key, kind, "closed")
		return false
	}
	select {
	case q.shards[q.shardFor(key)] <- job{key: key, kind: kind, run: fn}:
		observability.Current().AddPersistDepth(1)
		return true
	default:
		q.drop(key, kind, "full")
		return false
	}
}

// Flush waits until every job accepted before the call has finished.
func (q *Queue) Flush(ctx context.Context) error {
	q.mu.RLock()
	if q.closed {
		q.mu.RUnlock()
		return ErrClosed
	}
	barriers := make([]chan struct{}, 0, len(q.shards))
	for _, shard := range q.shards {
		done := make(chan struct{})
		select {
		case shard <- job{kind: "barrier", done: done}:
			barriers = append(barriers, done)
		case <-ctx.Done():
			q.mu.RUnlock()
			return ctx.Err()
		}
	}
	q.mu.RUnlock()

	for _, done := range barriers {
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Close stops accepting jobs and waits for queued ones to finish or ctx to
// expire.
func (q *Queue) Close(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		for _, shard := range q.shards {
			close(shard)
		}
	}
	started := q.started
	q.mu.Unlock()
	if !started {
		return nil
	}

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		q.log.Warn("persist queue close timed out", "error", ctx.Err())
		return ctx.Err()
	}
}

func (q *Queue) runLoop(workerID int, shard <-chan job) {
	defer q.wg.Done()
	for j := range shard {
		if j.done != nil {
			close(j.done)
			continue
		}
		observability.Current().AddPersistDepth(-1)
		q.runJob(workerID, j)
	}
}

func (q *Queue) runJob(workerID int, j job) {
	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			q.log.Error("Persist job panic",
				"worker_id", workerID,
				"kind", j.kind,
				"session_id", j.key,
				"panic", fmt.Sprint(r),
			)
			observability.Current().IncPersistJob(j.kind, "panic")
		}
	}()

	if err := j.run(ctx); err != nil {
		q.log.Warn("Persist job failed",
			"worker_id", workerID,
			"kind", j.kind,
			"session_id", j.key,
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err,
		)
		observability.Current().IncPersistJob(j.kind, "failed")
		return
	}
	observability.Current().IncPersistJob(j.kind, "ok")
}

func (q *Queue) drop(key, kind, reason string) {
	q.log.Warn("Persist job dropped", "kind", kind, "session_id", key, "reason", reason)
	observability.Current().IncPersistDropped(kind)
}

func (q *Queue) shardFor(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(q.shards)))
}
