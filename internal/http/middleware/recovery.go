package middleware

import (
	"errors"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/interview-backend/internal/platform/ctxutil"
	"github.com/yungbote/interview-backend/internal/platform/logger"
)

// Recovery turns handler panics into 500 responses. http.ErrAbortHandler is
// re-panicked so net/http drops the connection without logging a stack.
func Recovery(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
				panic(rec)
			}
			if log != nil {
				fields := append(ctxutil.LogFields(c.Request.Context()), "panic", rec, "stack", string(debug.Stack()))
				log.Error("handler panic", fields...)
			}
			if c.Writer.Written() {
				c.Abort()
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": gin.H{"message": "internal error", "code": "internal"},
			})
		}()
		c.Next()
	}
}
