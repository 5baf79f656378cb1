package observability

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/interview-backend/internal/platform/envutil"
	"github.com/yungbote/interview-backend/internal/platform/logger"
)

const (
	tracerName         = "github.com/yungbote/interview-backend"
	defaultServiceName = "interview-backend"
	defaultSampleRatio = 0.1
)

type OtelConfig struct {
	ServiceName string
	Environment string
	Version     string
}

// tracingEnv is the OTEL_* environment, read once at init.
type tracingEnv struct {
	enabled  bool
	endpoint string
	headers  map[string]string
	insecure bool
	ratio    float64
}

func readTracingEnv() tracingEnv {
	return tracingEnv{
		enabled:  envutil.Bool("OTEL_ENABLED", false),
		endpoint: envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		headers:  parseOTLPHeaders(envutil.String("OTEL_EXPORTER_OTLP_HEADERS", "")),
		insecure: envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", false),
		ratio:    parseSampleRatio(envutil.String("OTEL_SAMPLER_RATIO", "")),
	}
}

var (
	otelOnce     sync.Once
	otelShutdown = func(context.Context) error { return nil }
)

// InitOTel installs the global tracer provider when OTEL_ENABLED is set. The
// returned shutdown func is never nil; it flushes pending spans.
func InitOTel(ctx context.Context, log *logger.Logger, cfg OtelConfig) func(context.Context) error {
	otelOnce.Do(func() {
		env := readTracingEnv()
		if !env.enabled {
			return
		}
		if log == nil {
			log = logger.Nop()
		}
		name := strings.TrimSpace(cfg.ServiceName)
		if name == "" {
			name = defaultServiceName
		}
		res, err := resource.New(ctx, resource.WithAttributes(
			semconv.ServiceNameKey.String(name),
			semconv.ServiceVersionKey.String(strings.TrimSpace(cfg.Version)),
			attribute.String("deployment.environment", strings.TrimSpace(cfg.Environment)),
		))
		if err != nil {
			log.Warn("otel resource init failed, continuing", "error", err)
		}

		opts := []sdktrace.TracerProviderOption{
			sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(env.ratio))),
			sdktrace.WithResource(res),
		}
		if exp, err := newSpanExporter(ctx, env); err != nil {
			log.Warn("otel exporter init failed, spans will be dropped", "error", err)
		} else {
			opts = append(opts, sdktrace.WithBatcher(exp, sdktrace.WithBatchTimeout(5*time.Second)))
		}
		tp := sdktrace.NewTracerProvider(opts...)
		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))
		otelShutdown = tp.Shutdown
		log.Info("otel tracing initialized", "service", name, "endpoint", env.endpoint, "sample_ratio", env.ratio)
	})
	return otelShutdown
}

// newSpanExporter exports over OTLP/HTTP when an endpoint is configured and
// pretty-prints to stdout otherwise.
func newSpanExporter(ctx context.Context, env tracingEnv) (sdktrace.SpanExporter, error) {
	if env.endpoint == "" {
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	}
	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(env.endpoint)}
	if env.insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	if len(env.headers) > 0 {
		opts = append(opts, otlptracehttp.WithHeaders(env.headers))
	}
	return otlptracehttp.New(ctx, opts...)
}

// parseOTLPHeaders reads "k1=v1,k2=v2". Malformed pairs are skipped.
func parseOTLPHeaders(raw string) map[string]string {
	var out map[string]string
	for _, part := range strings.Split(raw, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if !ok || k == "" || v == "" {
			continue
		}
		if out == nil {
			out = make(map[string]string)
		}
		out[k] = v
	}
	return out
}

func parseSampleRatio(raw string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	switch {
	case err != nil:
		return defaultSampleRatio
	case f < 0:
		return 0
	case f > 1:
		return 1
	default:
		return f
	}
}

// StartSpan starts a span on the global tracer provider. Without InitOTel
// the provider is a no-op.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, name, trace.WithAttributes(attrs...))
}
