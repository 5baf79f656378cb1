package services

import (
	"context"
	"strings"
	"time"

	"github.com/yungbote/interview-backend/internal/inference/engine"
	"github.com/yungbote/interview-backend/internal/inference/router"
	"github.com/yungbote/interview-backend/internal/platform/apierr"
	"github.com/yungbote/interview-backend/internal/platform/ctxutil"
	"github.com/yungbote/interview-backend/internal/platform/logger"
)

const minKeyLength = 10

// KeyService checks caller-supplied backend keys.
type KeyService interface {
	// ValidateKey reports whether key can complete a minimal generation.
	// Backend rejections are a false result, not an error.
	ValidateKey(ctx context.Context, key string) (bool, error)
}

type keyService struct {
	log     *logger.Logger
	route   router.Route
	timeout time.Duration
}

func NewKeyService(baseLog *logger.Logger, route router.Route, timeouts Timeouts) KeyService {
	return &keyService{
		log:     baseLog.With("service", "KeyService"),
		route:   route,
		timeout: timeouts.withDefaults().KeyCheck,
	}
}

func (s *keyService) ValidateKey(ctx context.Context, key string) (bool, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return false, apierr.Validation("api key required")
	}
	if len(key) < minKeyLength {
		return false, apierr.Validation("api key too short")
	}
	rd := &ctxutil.RequestData{EngineKey: key}
	if cur := ctxutil.GetRequestData(ctx); cur != nil {
		rd.OwnerID = cur.OwnerID
	}
	ctx, cancel := context.WithTimeout(ctxutil.WithRequestData(ctx, rd), s.timeout)
	defer cancel()

	text, err := s.route.Engine.GenerateText(ctx, s.route.Model, []engine.Message{
		{Role: engine.RoleUser, Content: "Reply only: OK"},
	}, engine.GenerateOptions{})
	if err != nil {
		s.log.Info("api key rejected", "error", err)
		return false, nil
	}
	return strings.TrimSpace(text) != "", nil
}
