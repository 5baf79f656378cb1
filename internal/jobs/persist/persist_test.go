package persist

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/yungbote/interview-backend/internal/platform/logger"
)

func TestQueueRunsJobsInOrderPerKey(t *testing.T) {
	defer goleak.VerifyNone(t)

	q := New(logger.Nop(), Config{Workers: 3, QueueSize: 64, JobTimeout: time.Second})
	q.Start()

	var mu sync.Mutex
	got := map[string][]int{}
	for i := 0; i < 20; i++ {
		for _, key := range []string{"s-a", "s-b"} {
			key, i := key, i
			require.True(t, q.Submit(key, "append_turn", func(ctx context.Context) error {
				mu.Lock()
				got[key] = append(got[key], i)
				mu.Unlock()
				return nil
			}))
		}
	}
	require.NoError(t, q.Flush(context.Background()))

	mu.Lock()
	for _, key := range []string{"s-a", "s-b"} {
		require.Len(t, got[key], 20)
		for i, v := range got[key] {
			require.Equal(t, i, v)
		}
	}
	mu.Unlock()

	require.NoError(t, q.Close(context.Background()))
}

func TestQueueSurvivesFailuresAndPanics(t *testing.T) {
	defer goleak.VerifyNone(t)

	q := New(logger.Nop(), Config{Workers: 1, QueueSize: 8, JobTimeout: time.Second})
	q.Start()

	ran := make(chan struct{}, 1)
	require.True(t, q.Submit("k", "fail", func(ctx context.Context) error { return errors.New("boom") }))
	require.True(t, q.Submit("k", "panic", func(ctx context.Context) error { panic("boom") }))
	require.True(t, q.Submit("k", "ok", func(ctx context.Context) error {
		ran <- struct{}{}
		return nil
	}))
	require.NoError(t, q.Close(context.Background()))

	select {
	case <-ran:
	default:
		t.Fatal("job after a panic did not run")
	}
}

func TestQueueDropsWhenFullOrClosed(t *testing.T) {
	defer goleak.VerifyNone(t)

	// Not started, so nothing drains the single slot.
	q := New(logger.Nop(), Config{Workers: 1, QueueSize: 1})
	noop := func(ctx context.Context) error { return nil }
	require.True(t, q.Submit("k", "append_turn", noop))
	require.False(t, q.Submit("k", "append_turn", noop))

	require.NoError(t, q.Close(context.Background()))
	require.False(t, q.Submit("k", "append_turn", noop))
	require.ErrorIs(t, q.Flush(context.Background()), ErrClosed)
}

func TestQueueJobDeadline(t *testing.T) {
	defer goleak.VerifyNone(t)

	q := New(logger.Nop(), Config{Workers: 1, QueueSize: 1, JobTimeout: 20 * time.Millisecond})
	q.Start()

	errCh := make(chan error, 1)
	require.True(t, q.Submit("k", "slow", func(ctx context.Context) error {
		<-ctx.Done()
		errCh <- ctx.Err()
		return ctx.Err()
	}))
	require.NoError(t, q.Close(context.Background()))
	require.ErrorIs(t, <-errCh, context.DeadlineExceeded)
}
