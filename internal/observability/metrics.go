package observability

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/interview-backend/internal/platform/envutil"
	"github.com/yungbote/interview-backend/internal/platform/logger"
)

type Metrics struct {
	apiRequests *CounterVec
	apiLatency  *HistogramVec
	apiInflight *GaugeVec

	llmRequests *CounterVec
	llmLatency  *HistogramVec

	turns          *CounterVec
	turnLatency    *HistogramVec
	reports        *CounterVec
	masteryUpdates *CounterVec

	persistJobs     *CounterVec
	persistDropped  *CounterVec
	persistFailures *CounterVec
	persistDepth    *GaugeVec

	dbStats   *GaugeVec
	redisUp   *GaugeVec
	redisPing *GaugeVec
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	return envutil.Bool("METRICS_ENABLED", false)
}

// Current returns the process metrics, or nil when metrics are disabled.
// Every method is a no-op on a nil receiver.
func Current() *Metrics {
	return instance
}

func scrapeInterval() time.Duration {
	d := envutil.Duration("METRICS_SCRAPE_INTERVAL_SECONDS", 10*time.Second)
	if d <= 0 {
		return 10 * time.Second
	}
	return d
}

func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = newMetrics()
		if log != nil {
			log.Info("metrics enabled")
		}
	})
	return instance
}

func newMetrics() *Metrics {
	return &Metrics{
		apiRequests: NewCounterVec("tek_api_requests_total", "Total API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency: NewHistogramVec(
			"tek_api_request_duration_seconds",
			"API request latency in seconds by method/route/status.",
			[]string{"method", "route", "status"},
			[]float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		),
		apiInflight: NewGaugeVec("tek_api_inflight_requests", "In-flight API requests.", nil),

		llmRequests: NewCounterVec("tek_llm_requests_total", "Backend calls by engine/operation/status.", []string{"engine", "op", "status"}),
		llmLatency: NewHistogramVec(
			"tek_llm_request_duration_seconds",
			"Backend call latency in seconds by engine/operation/status.",
			[]string{"engine", "op", "status"},
			[]float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
		),

		turns: NewCounterVec("tek_interview_turns_total", "Interviewer turns by outcome.", []string{"outcome"}),
		turnLatency: NewHistogramVec(
			"tek_interview_turn_duration_seconds",
			"Time to relay one interviewer turn.",
			[]string{"outcome"},
			[]float64{0.5, 1, 2, 5, 10, 20, 30},
		),
		reports:        NewCounterVec("tek_interview_reports_total", "Finalize calls by outcome.", []string{"outcome"}),
		masteryUpdates: NewCounterVec("tek_mastery_updates_total", "Topic mastery upserts by status.", []string{"status"}),

		persistJobs:     NewCounterVec("tek_persist_jobs_total", "Persistence jobs by kind/status.", []string{"kind", "status"}),
		persistDropped:  NewCounterVec("tek_persist_dropped_total", "Persistence jobs dropped because the queue was full or closed.", []string{"kind"}),
		persistFailures: NewCounterVec("tek_persist_failures_total", "Persistence jobs that returned an error or panicked.", nil),
		persistDepth:    NewGaugeVec("tek_persist_queue_depth", "Persistence jobs waiting to run.", nil),

		dbStats:   NewGaugeVec("tek_db_pool", "Database connection pool stats.", []string{"stat"}),
		redisUp:   NewGaugeVec("tek_redis_up", "Redis reachability (1 up, 0 down).", nil),
		redisPing: NewGaugeVec("tek_redis_ping_seconds", "Redis ping latency in seconds.", nil),
	}
}

func (m *Metrics) StartServer(ctx context.Context, log *logger.Logger, addr string) {
	if m == nil {
		return
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           http.HandlerFunc(m.WriteHTTP),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = srv.Shutdown(shutdownCtx)
		cancel()
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if log != nil {
				log.Error("metrics server failed", "error", err, "addr", addr)
			}
		}
	}()
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

type promWriter interface {
	WritePrometheus(w io.Writer) error
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	all := []promWriter{
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.llmRequests, m.llmLatency,
		m.turns, m.turnLatency, m.reports, m.masteryUpdates,
		m.persistJobs, m.persistDropped, m.persistFailures, m.persistDepth,
		m.dbStats, m.redisUp, m.redisPing,
	}
	for _, pw := range all {
		if err := pw.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	if status == "" {
		status = "0"
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route, status)
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Add(1)
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Add(-1)
}

func (m *Metrics) ObserveLLMRequest(engine, op, status string, dur time.Duration) {
	if m == nil {
		return
	}
	engine = orUnknown(engine)
	op = orUnknown(op)
	status = orUnknown(status)
	m.llmRequests.Inc(engine, op, status)
	if dur > 0 {
		m.llmLatency.Observe(dur.Seconds(), engine, op, status)
	}
}

// ObserveTurn records one relayed interviewer turn. outcome is one of
// ok, client_gone, timeout, error.
func (m *Metrics) ObserveTurn(outcome string, dur time.Duration) {
	if m == nil {
		return
	}
	outcome = orUnknown(outcome)
	m.turns.Inc(outcome)
	m.turnLatency.Observe(dur.Seconds(), outcome)
}

// IncReport counts a finalize call. outcome is one of generated, fallback,
// stored.
func (m *Metrics) IncReport(outcome string) {
	if m == nil {
		return
	}
	m.reports.Inc(orUnknown(outcome))
}

func (m *Metrics) IncMasteryUpdate(status string) {
	if m == nil {
		return
	}
	m.masteryUpdates.Inc(orUnknown(status))
}

func (m *Metrics) IncPersistJob(kind, status string) {
	if m == nil {
		return
	}
	kind = orUnknown(kind)
	m.persistJobs.Inc(kind, orUnknown(status))
	if status == "failed" || status == "panic" {
		m.persistFailures.Inc()
	}
}

func (m *Metrics) IncPersistDropped(kind string) {
	if m == nil {
		return
	}
	m.persistDropped.Inc(orUnknown(kind))
}

func (m *Metrics) AddPersistDepth(delta float64) {
	if m == nil {
		return
	}
	m.persistDepth.Add(delta)
}

func (m *Metrics) StartDBCollector(ctx context.Context, log *logger.Logger, db *gorm.DB) {
	if m == nil || db == nil {
		return
	}
	interval := scrapeInterval()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sqlDB, err := db.DB()
				if err != nil {
					if log != nil {
						log.Warn("metrics: db stats unavailable", "error", err)
					}
					continue
				}
				stats := sqlDB.Stats()
				m.dbStats.Set(float64(stats.OpenConnections), "open_connections")
				m.dbStats.Set(float64(stats.InUse), "in_use")
				m.dbStats.Set(float64(stats.Idle), "idle")
				m.dbStats.Set(float64(stats.WaitCount), "wait_count")
				m.dbStats.Set(stats.WaitDuration.Seconds(), "wait_duration_seconds")
				m.dbStats.Set(float64(stats.MaxOpenConnections), "max_open_connections")
			}
		}
	}()
}

func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, addr string) {
	if m == nil {
		return
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return
	}
	interval := scrapeInterval()
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				_ = rdb.Close()
				return
			case <-ticker.C:
				start := time.Now()
				if err := rdb.Ping(ctx).Err(); err != nil {
					m.redisUp.Set(0)
					if log != nil {
						log.Warn("metrics: redis ping failed", "error", err)
					}
					continue
				}
				m.redisUp.Set(1)
				m.redisPing.Set(time.Since(start).Seconds())
			}
		}
	}()
}

func orUnknown(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "unknown"
	}
	return v
}
