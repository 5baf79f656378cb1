package router

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"

	"github.com/yungbote/interview-backend/internal/inference/engine"
	"github.com/yungbote/interview-backend/internal/platform/logger"
)

type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

func (c RetryConfig) withDefaults() RetryConfig {
	if c.MaxAttempts < 1 {
		c.MaxAttempts = 1
	}
	if c.InitialWait <= 0 {
		c.InitialWait = 500 * time.Millisecond
	}
	if c.MaxWait <= 0 {
		c.MaxWait = 5 * time.Second
	}
	if c.Multiplier < 1 {
		c.Multiplier = 2
	}
	return c
}

// retrying retries GenerateText on transient errors with exponential
// backoff and jitter. StreamText is passed through: a stream that already
// emitted deltas cannot be replayed.
type retrying struct {
	inner engine.Engine
	cfg   RetryConfig
	log   *logger.Logger
}

func WithRetry(e engine.Engine, cfg RetryConfig, log *logger.Logger) engine.Engine {
	cfg = cfg.withDefaults()
	if cfg.MaxAttempts == 1 {
		return e
	}
	return &retrying{inner: e, cfg: cfg, log: log}
}

func (r *retrying) GenerateText(ctx context.Context, model string, messages []engine.Message, opts engine.GenerateOptions) (string, error) {
	var lastErr error
	for attempt := range r.cfg.MaxAttempts {
		out, err := r.inner.GenerateText(ctx, model, messages, opts)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if !shouldRetry(err) || attempt == r.cfg.MaxAttempts-1 {
			break
		}

		wait := r.backoff(attempt)
		if r.log != nil {
			r.log.Warn("engine call failed, retrying", "attempt", attempt+1, "wait_ms", wait.Milliseconds(), "error", err)
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(wait):
		}
	}
	return "", lastErr
}

func (r *retrying) StreamText(ctx context.Context, model string, messages []engine.Message, opts engine.GenerateOptions, onDelta func(delta string)) (string, error) {
	return r.inner.StreamText(ctx, model, messages, opts, onDelta)
}

type retryable interface {
	Retryable() bool
}

func shouldRetry(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, engine.ErrMissingAPIKey) {
		return false
	}
	var r retryable
	if errors.As(err, &r) {
		return r.Retryable()
	}
	// Other errors (network, etc.) are treated as transient.
	return true
}

func (r *retrying) backoff(attempt int) time.Duration {
	wait := float64(r.cfg.InitialWait) * math.Pow(r.cfg.Multiplier, float64(attempt))
	if wait > float64(r.cfg.MaxWait) {
		wait = float64(r.cfg.MaxWait)
	}
	// ±20% jitter.
	wait += wait * 0.2 * (2*rand.Float64() - 1)
	if wait < 0 {
		wait = 0
	}
	return time.Duration(wait)
}
