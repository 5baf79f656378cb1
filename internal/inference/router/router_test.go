package router

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yungbote/interview-backend/internal/inference/config"
	"github.com/yungbote/interview-backend/internal/inference/engine"
	"github.com/yungbote/interview-backend/internal/inference/engine/oaihttp"
	"github.com/yungbote/interview-backend/internal/platform/logger"
)

type flakyEngine struct {
	calls int32
	errs  []error
}

func (f *flakyEngine) GenerateText(ctx context.Context, model string, messages []engine.Message, opts engine.GenerateOptions) (string, error) {
	n := int(atomic.AddInt32(&f.calls, 1))
	if n <= len(f.errs) {
		return "", f.errs[n-1]
	}
	return "ok", nil
}

func (f *flakyEngine) StreamText(ctx context.Context, model string, messages []engine.Message, opts engine.GenerateOptions, onDelta func(string)) (string, error) {
	atomic.AddInt32(&f.calls, 1)
	return "", errors.New("stream failed")
}

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{MaxAttempts: attempts, InitialWait: time.Millisecond, MaxWait: 2 * time.Millisecond}
}

func TestRetryTransient(t *testing.T) {
	inner := &flakyEngine{errs: []error{
		&oaihttp.HTTPError{StatusCode: 503},
		errors.New("connection reset"),
	}}
	e := WithRetry(inner, fastRetry(3), logger.Nop())
	out, err := e.GenerateText(context.Background(), "m", nil, engine.GenerateOptions{})
	require.NoError(t, err)
	require.Equal(t, "ok", out)
	require.EqualValues(t, 3, inner.calls)
}

func TestRetryStopsOnPermanentErrors(t *testing.T) {
	inner := &flakyEngine{errs: []error{&oaihttp.HTTPError{StatusCode: 401}}}
	e := WithRetry(inner, fastRetry(3), logger.Nop())
	_, err := e.GenerateText(context.Background(), "m", nil, engine.GenerateOptions{})
	require.Error(t, err)
	require.EqualValues(t, 1, inner.calls)

	inner = &flakyEngine{errs: []error{context.DeadlineExceeded}}
	e = WithRetry(inner, fastRetry(3), logger.Nop())
	_, err = e.GenerateText(context.Background(), "m", nil, engine.GenerateOptions{})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.EqualValues(t, 1, inner.calls)
}

func TestRetryDoesNotReplayStreams(t *testing.T) {
	inner := &flakyEngine{}
	e := WithRetry(inner, fastRetry(3), logger.Nop())
	_, err := e.StreamText(context.Background(), "m", nil, engine.GenerateOptions{}, nil)
	require.Error(t, err)
	require.EqualValues(t, 1, inner.calls)
}

func TestNewMockRoute(t *testing.T) {
	route, err := New(config.EngineConfig{Type: "mock"}, logger.Nop())
	require.NoError(t, err)
	require.Equal(t, "mock", route.Name)
	require.Equal(t, "mock-1", route.Model)

	out, err := route.Engine.GenerateText(context.Background(), route.Model, []engine.Message{{Role: engine.RoleUser, Content: "hi"}}, engine.GenerateOptions{})
	require.NoError(t, err)
	require.Equal(t, "mock: hi", out)

	_, err = New(config.EngineConfig{Type: "oai_http"}, logger.Nop())
	require.Error(t, err)
}
