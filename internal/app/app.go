package app

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/interview-backend/internal/data/repos"
	httpapi "github.com/yungbote/interview-backend/internal/http"
	"github.com/yungbote/interview-backend/internal/jobs/persist"
	"github.com/yungbote/interview-backend/internal/observability"
	"github.com/yungbote/interview-backend/internal/platform/logger"
	"github.com/yungbote/interview-backend/internal/platform/shutdown"
)

type App struct {
	Log      *logger.Logger
	Cfg      Config
	Clients  Clients
	Repos    repos.Set
	Services Services
	Queue    *persist.Queue
	Metrics  *observability.Metrics
	Server   *httpapi.Server

	otelShutdown func(context.Context) error
}

// New loads configuration from configPath and wires every component. The
// persistence queue is started; the HTTP listener is not.
func New(ctx context.Context, configPath string) (*App, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	log.Info("Config loaded", "env", cfg.Environment, "db_driver", cfg.DB.Driver, "engine", cfg.Engine.Type)

	otelShutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: "interview-backend",
		Environment: cfg.Environment,
	})
	metrics := observability.Init(log)

	clients, err := wireClients(log, cfg)
	if err != nil {
		_ = otelShutdown(context.Background())
		log.Sync()
		return nil, err
	}

	reposet := repos.New(clients.DB.DB(), log)

	queue := persist.New(log, persist.Config{
		Workers:    cfg.Persist.Workers,
		QueueSize:  cfg.Persist.QueueSize,
		JobTimeout: cfg.Persist.JobTimeout.Duration,
	})
	queue.Start()

	serviceset := wireServices(log, cfg, clients, reposet, queue)
	handlerset := wireHandlers(log, clients.DB.DB(), serviceset)
	middleware := wireMiddleware(log, cfg)
	server := wireServer(log, cfg, metrics, handlerset, middleware)

	return &App{
		Log:          log,
		Cfg:          cfg,
		Clients:      clients,
		Repos:        reposet,
		Services:     serviceset,
		Queue:        queue,
		Metrics:      metrics,
		Server:       server,
		otelShutdown: otelShutdown,
	}, nil
}

// Run serves HTTP until SIGINT/SIGTERM or ctx cancellation, then drains the
// server and the persistence queue before releasing clients.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	ctx, stop := shutdown.NotifyContext(ctx, a.Log)
	defer stop()

	if a.Metrics != nil {
		a.Metrics.StartDBCollector(ctx, a.Log, a.Clients.DB.DB())
		if addr := strings.TrimSpace(a.Cfg.Redis.Addr); addr != "" {
			a.Metrics.StartRedisCollector(ctx, a.Log, addr)
		}
		if addr := strings.TrimSpace(a.Cfg.Metrics.Addr); addr != "" {
			a.Metrics.StartServer(ctx, a.Log, addr)
		}
	}

	drain := a.Cfg.HTTP.ShutdownTimeout.Duration
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.Log.Info("HTTP server listening", "addr", a.Cfg.HTTP.Addr)
		return a.Server.Run(gctx, drain)
	})
	err := g.Wait()

	closeCtx, cancel := context.WithTimeout(context.Background(), drain)
	defer cancel()
	if qerr := a.Queue.Close(closeCtx); qerr != nil {
		a.Log.Warn("persistence queue did not drain", "error", qerr)
	}
	return err
}

func (a *App) Close() {
	if a == nil {
		return
	}
	a.Clients.Close()
	if a.otelShutdown != nil {
		if err := a.otelShutdown(context.Background()); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
