package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/interview-backend/internal/platform/ctxutil"
	"github.com/yungbote/interview-backend/internal/platform/logger"
)

// RequestLogger writes one access line per request. Interviewer streams
// also log how many bytes reached the client and whether it hung up early.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	if log == nil {
		return func(c *gin.Context) { c.Next() }
	}
	log = log.With("component", "http")
	return func(c *gin.Context) {
		if c.FullPath() == "/healthcheck" {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		ctx := c.Request.Context()
		status := c.Writer.Status()
		fields := append(ctxutil.LogFields(ctx),
			"method", c.Request.Method,
			"route", routeOrPath(c),
			"status", status,
			"bytes", c.Writer.Size(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
		if owner := ctxutil.OwnerID(ctx); owner != "" {
			fields = append(fields, "owner_id", owner)
		}
		if sid := c.Param("id"); sid != "" {
			fields = append(fields, "session_id", sid)
		} else if sid := c.Param("sessionId"); sid != "" {
			fields = append(fields, "session_id", sid)
		}
		if ctx.Err() != nil {
			fields = append(fields, "client_gone", true)
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "error", c.Errors.Last().Error())
		}

		switch {
		case status >= 500:
			log.Error("request", fields...)
		case status >= 400:
			log.Warn("request", fields...)
		default:
			log.Info("request", fields...)
		}
	}
}

func routeOrPath(c *gin.Context) string {
	if r := c.FullPath(); r != "" {
		return r
	}
	return c.Request.URL.Path
}
