package router

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/interview-backend/internal/inference/engine"
	"github.com/yungbote/interview-backend/internal/observability"
)

type instrumented struct {
	name  string
	inner engine.Engine
}

// Instrument records call counts, latency and a span for every engine call.
func Instrument(name string, e engine.Engine) engine.Engine {
	return &instrumented{name: name, inner: e}
}

func (i *instrumented) GenerateText(ctx context.Context, model string, messages []engine.Message, opts engine.GenerateOptions) (string, error) {
	ctx, span := observability.StartSpan(ctx, "engine.generate_text",
		attribute.String("engine", i.name),
		attribute.String("model", model),
		attribute.Int("messages", len(messages)),
	)
	defer span.End()

	start := time.Now()
	out, err := i.inner.GenerateText(ctx, model, messages, opts)
	i.observe(span, "generate", start, err)
	return out, err
}

func (i *instrumented) StreamText(ctx context.Context, model string, messages []engine.Message, opts engine.GenerateOptions, onDelta func(delta string)) (string, error) {
	ctx, span := observability.StartSpan(ctx, "engine.stream_text",
		attribute.String("engine", i.name),
		attribute.String("model", model),
		attribute.Int("messages", len(messages)),
	)
	defer span.End()

	start := time.Now()
	out, err := i.inner.StreamText(ctx, model, messages, opts, onDelta)
	i.observe(span, "stream", start, err)
	return out, err
}

func (i *instrumented) observe(span trace.Span, op string, start time.Time, err error) {
	status := "ok"
	switch {
	case err == nil:
	case errors.Is(err, context.DeadlineExceeded):
		status = "timeout"
	case errors.Is(err, context.Canceled):
		status = "canceled"
	default:
		status = "error"
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, status)
	}
	observability.Current().ObserveLLMRequest(i.name, op, status, time.Since(start))
}
