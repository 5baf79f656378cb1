package router

import (
	"fmt"

	"github.com/yungbote/interview-backend/internal/inference/config"
	"github.com/yungbote/interview-backend/internal/inference/engine"
	"github.com/yungbote/interview-backend/internal/inference/engine/gemini"
	"github.com/yungbote/interview-backend/internal/inference/engine/mock"
	"github.com/yungbote/interview-backend/internal/inference/engine/oaihttp"
	"github.com/yungbote/interview-backend/internal/platform/logger"
)

// Route is the engine the interview services talk to, with the upstream
// model name to send on every call.
type Route struct {
	Name   string
	Model  string
	Engine engine.Engine
}

// New builds the configured engine, wrapped with retries for non-streaming
// calls and with metrics and tracing.
func New(cfg config.EngineConfig, baseLog *logger.Logger) (Route, error) {
	if err := cfg.Normalize(); err != nil {
		return Route{}, err
	}

	var eng engine.Engine
	switch cfg.Type {
	case config.TypeMock:
		eng = mock.New()
	case config.TypeOAIHTTP:
		e, err := oaihttp.New(cfg)
		if err != nil {
			return Route{}, err
		}
		eng = e
	case config.TypeGemini:
		eng = gemini.New(cfg)
	default:
		return Route{}, fmt.Errorf("unsupported engine type %q", cfg.Type)
	}

	log := baseLog.With("component", "EngineRouter")
	eng = WithRetry(eng, RetryConfig{MaxAttempts: cfg.MaxAttempts}, log)
	eng = Instrument(cfg.Type, eng)

	log.Info("engine configured", "engine", cfg.Type, "model", cfg.Model)
	return Route{Name: cfg.Type, Model: cfg.Model, Engine: eng}, nil
}
