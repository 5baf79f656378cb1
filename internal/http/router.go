package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/interview-backend/internal/http/handlers"
	httpMW "github.com/yungbote/interview-backend/internal/http/middleware"
	"github.com/yungbote/interview-backend/internal/observability"
	"github.com/yungbote/interview-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	Metrics     *observability.Metrics
	ServiceName string
	CORSOrigins []string

	OwnerMiddleware *httpMW.OwnerMiddleware

	InterviewHandler *httpH.InterviewHandler
	SessionHandler   *httpH.SessionHandler
	ReportHandler    *httpH.ReportHandler
	TopicsHandler    *httpH.TopicsHandler
	StatsHandler     *httpH.StatsHandler
	KeyHandler       *httpH.KeyHandler
	LearnHandler     *httpH.LearnHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "interview-backend"
	}
	r.Use(httpMW.Recovery(cfg.Log))
	r.Use(otelgin.Middleware(serviceName))
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.AttachRequestContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins...))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}

	api := r.Group("/api")
	{
		// Key check needs no owner.
		if cfg.KeyHandler != nil {
			api.POST("/validate-key", cfg.KeyHandler.Validate)
		}
	}

	protected := api.Group("/")
	{
		if cfg.OwnerMiddleware != nil {
			protected.Use(cfg.OwnerMiddleware.RequireOwner())
		}

		// Interview
		if cfg.InterviewHandler != nil {
			protected.POST("/interview/message", cfg.InterviewHandler.Message)
			protected.POST("/interview/end", cfg.InterviewHandler.End)
		}

		// Sessions
		if cfg.SessionHandler != nil {
			protected.POST("/sessions", cfg.SessionHandler.Create)
			protected.GET("/sessions", cfg.SessionHandler.List)
			protected.GET("/sessions/:id", cfg.SessionHandler.Get)
			protected.POST("/sessions/:id/abandon", cfg.SessionHandler.Abandon)
		}

		if cfg.ReportHandler != nil {
			protected.GET("/report/:sessionId", cfg.ReportHandler.Get)
		}

		// Mastery
		if cfg.TopicsHandler != nil {
			protected.GET("/topics", cfg.TopicsHandler.List)
		}

		// Stats
		if cfg.StatsHandler != nil {
			protected.GET("/stats", cfg.StatsHandler.Summary)
			protected.GET("/stats/suggestions", cfg.StatsHandler.Suggestions)
		}

		// Study material
		if cfg.LearnHandler != nil {
			protected.GET("/learn", cfg.LearnHandler.Get)
			protected.POST("/learn/generate", cfg.LearnHandler.Generate)
		}
	}

	return r
}
