package app

import (
	"gorm.io/gorm"

	httpapi "github.com/yungbote/interview-backend/internal/http"
	httpH "github.com/yungbote/interview-backend/internal/http/handlers"
	httpMW "github.com/yungbote/interview-backend/internal/http/middleware"
	"github.com/yungbote/interview-backend/internal/observability"
	"github.com/yungbote/interview-backend/internal/platform/logger"
)

type Middleware struct {
	Owner *httpMW.OwnerMiddleware
}

type Handlers struct {
	Health    *httpH.HealthHandler
	Interview *httpH.InterviewHandler
	Session   *httpH.SessionHandler
	Report    *httpH.ReportHandler
	Topics    *httpH.TopicsHandler
	Stats     *httpH.StatsHandler
	Key       *httpH.KeyHandler
	Learn     *httpH.LearnHandler
}

func wireHandlers(log *logger.Logger, db *gorm.DB, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:    httpH.NewHealthHandler(db),
		Interview: httpH.NewInterviewHandler(log, services.Relay, services.Sessions),
		Session:   httpH.NewSessionHandler(services.Sessions),
		Report:    httpH.NewReportHandler(services.Sessions),
		Topics:    httpH.NewTopicsHandler(services.Mastery),
		Stats:     httpH.NewStatsHandler(services.Stats),
		Key:       httpH.NewKeyHandler(services.Keys),
		Learn:     httpH.NewLearnHandler(services.Articles),
	}
}

func wireMiddleware(log *logger.Logger, cfg Config) Middleware {
	log.Info("Wiring middleware...")
	if cfg.Auth.JWTSecret == "" {
		log.Warn("JWT_SECRET_KEY not set, trusting anonymous owner ids")
	}
	return Middleware{
		Owner: httpMW.NewOwnerMiddleware(log, cfg.Auth.JWTSecret),
	}
}

func wireServer(log *logger.Logger, cfg Config, metrics *observability.Metrics, handlers Handlers, middleware Middleware) *httpapi.Server {
	return httpapi.NewServer(httpapi.RouterConfig{
		Log:              log,
		Metrics:          metrics,
		ServiceName:      "interview-backend",
		CORSOrigins:      cfg.HTTP.CORSOrigins,
		OwnerMiddleware:  middleware.Owner,
		InterviewHandler: handlers.Interview,
		SessionHandler:   handlers.Session,
		ReportHandler:    handlers.Report,
		TopicsHandler:    handlers.Topics,
		StatsHandler:     handlers.Stats,
		KeyHandler:       handlers.Key,
		LearnHandler:     handlers.Learn,
		HealthHandler:    handlers.Health,
	}, cfg.HTTP.Addr)
}
