package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yungbote/interview-backend/internal/data/repos"
	"github.com/yungbote/interview-backend/internal/data/repos/testutil"
	"github.com/yungbote/interview-backend/internal/inference/engine"
	"github.com/yungbote/interview-backend/internal/inference/engine/mock"
	"github.com/yungbote/interview-backend/internal/inference/router"
	"github.com/yungbote/interview-backend/internal/interview"
	"github.com/yungbote/interview-backend/internal/jobs/persist"
	"github.com/yungbote/interview-backend/internal/platform/logger"
)

// inlineQueue runs every job synchronously on Submit.
type inlineQueue struct {
	mu   sync.Mutex
	errs []error
}

func (q *inlineQueue) Submit(key, kind string, fn func(ctx context.Context) error) bool {
	err := fn(context.Background())
	q.mu.Lock()
	defer q.mu.Unlock()
	if err != nil {
		q.errs = append(q.errs, err)
	}
	return true
}

type submittedJob struct {
	key  string
	kind string
}

// recordingQueue keeps jobs without running them.
type recordingQueue struct {
	mu   sync.Mutex
	jobs []submittedJob
	fns  []func(ctx context.Context) error
}

func (q *recordingQueue) Submit(key, kind string, fn func(ctx context.Context) error) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, submittedJob{key: key, kind: kind})
	q.fns = append(q.fns, fn)
	return true
}

func (q *recordingQueue) snapshot() []submittedJob {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]submittedJob(nil), q.jobs...)
}

// scriptedEngine returns a fixed reply or error and streams Chunks.
type scriptedEngine struct {
	Reply  string
	Err    error
	Chunks []string

	mu    sync.Mutex
	calls [][]engine.Message
}

func (e *scriptedEngine) GenerateText(ctx context.Context, model string, messages []engine.Message, opts engine.GenerateOptions) (string, error) {
	e.mu.Lock()
	e.calls = append(e.calls, messages)
	e.mu.Unlock()
	if e.Err != nil {
		return "", e.Err
	}
	return e.Reply, nil
}

func (e *scriptedEngine) StreamText(ctx context.Context, model string, messages []engine.Message, opts engine.GenerateOptions, onDelta func(string)) (string, error) {
	e.mu.Lock()
	e.calls = append(e.calls, messages)
	e.mu.Unlock()
	full := ""
	for _, c := range e.Chunks {
		if err := ctx.Err(); err != nil {
			return full, err
		}
		onDelta(c)
		full += c
	}
	return full, e.Err
}

func (e *scriptedEngine) lastCall() []engine.Message {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.calls) == 0 {
		return nil
	}
	return e.calls[len(e.calls)-1]
}

// stallingEngine sends First and then blocks until its context ends.
type stallingEngine struct {
	First string
}

func (e *stallingEngine) GenerateText(ctx context.Context, model string, messages []engine.Message, opts engine.GenerateOptions) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func (e *stallingEngine) StreamText(ctx context.Context, model string, messages []engine.Message, opts engine.GenerateOptions, onDelta func(string)) (string, error) {
	if e.First != "" {
		onDelta(e.First)
	}
	<-ctx.Done()
	return e.First, ctx.Err()
}

// deafEngine sends First and then blocks until the test ends, whatever its
// context says.
type deafEngine struct {
	First   string
	release chan struct{}
}

func newDeafEngine(t *testing.T, first string) *deafEngine {
	e := &deafEngine{First: first, release: make(chan struct{})}
	t.Cleanup(func() { close(e.release) })
	return e
}

func (e *deafEngine) GenerateText(ctx context.Context, model string, messages []engine.Message, opts engine.GenerateOptions) (string, error) {
	<-e.release
	return "", nil
}

func (e *deafEngine) StreamText(ctx context.Context, model string, messages []engine.Message, opts engine.GenerateOptions, onDelta func(string)) (string, error) {
	if e.First != "" {
		onDelta(e.First)
	}
	<-e.release
	return e.First, nil
}

type fixture struct {
	db       *gorm.DB
	log      *logger.Logger
	repos    repos.Set
	catalog  *interview.Catalog
	mastery  MasteryService
	sessions SessionService
	queue    *persist.Queue
}

// newFixture wires the services over a private SQLite database and a real
// persist queue that is closed when the test ends.
func newFixture(t *testing.T, eng engine.Engine) *fixture {
	t.Helper()
	return newFixtureWithQueue(t, eng, persist.Config{Workers: 2, QueueSize: 64, JobTimeout: 5 * time.Second})
}

func newFixtureWithQueue(t *testing.T, eng engine.Engine, qcfg persist.Config) *fixture {
	t.Helper()
	db := testutil.DB(t)
	log := logger.Nop()
	set := repos.New(db, log)
	catalog := interview.DefaultCatalog()

	q := persist.New(log, qcfg)
	q.Start()
	t.Cleanup(func() { _ = q.Close(context.Background()) })

	if eng == nil {
		eng = mock.New()
	}
	route := router.Route{Name: "test", Model: "test-model", Engine: eng}
	mastery := NewMasteryService(db, log, set, catalog)
	return &fixture{
		db:       db,
		log:      log,
		repos:    set,
		catalog:  catalog,
		mastery:  mastery,
		sessions: NewSessionService(db, log, set, mastery, route, catalog, q, Timeouts{Drain: 200 * time.Millisecond}),
		queue:    q,
	}
}

func (f *fixture) flush(t *testing.T) {
	t.Helper()
	require.NoError(t, f.queue.Flush(context.Background()))
}
