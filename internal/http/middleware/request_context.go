package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/interview-backend/internal/platform/ctxutil"
)

const (
	headerEngineKey = "X-Engine-Key"
	headerGeminiKey = "X-Gemini-Key"
)

// AttachRequestContext installs the per-request RequestData. A
// caller-supplied backend key travels with it; the owner is filled in later
// by OwnerMiddleware.
func AttachRequestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := strings.TrimSpace(c.GetHeader(headerEngineKey))
		if key == "" {
			key = strings.TrimSpace(c.GetHeader(headerGeminiKey))
		}
		ctx := ctxutil.WithRequestData(c.Request.Context(), &ctxutil.RequestData{EngineKey: key})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
