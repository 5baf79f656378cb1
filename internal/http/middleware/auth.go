package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/yungbote/interview-backend/internal/platform/ctxutil"
	"github.com/yungbote/interview-backend/internal/platform/logger"
)

const headerUserID = "X-User-Id"

// OwnerMiddleware resolves the owner id of every request. With a secret
// configured a valid HS256 bearer token is required and its subject is the
// owner; otherwise the client's anonymous id is trusted.
type OwnerMiddleware struct {
	log    *logger.Logger
	secret []byte
}

func NewOwnerMiddleware(log *logger.Logger, jwtSecret string) *OwnerMiddleware {
	om := &OwnerMiddleware{log: log.With("Middleware", "OwnerMiddleware")}
	if s := strings.TrimSpace(jwtSecret); s != "" {
		om.secret = []byte(s)
	}
	return om
}

func (om *OwnerMiddleware) RequireOwner() gin.HandlerFunc {
	return func(c *gin.Context) {
		owner, err := om.resolve(c)
		if err != nil || owner == "" {
			msg := "missing owner id"
			if err != nil {
				msg = err.Error()
				om.log.Debug("owner resolution failed", "error", err)
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{"message": msg, "code": "unauthorized"},
			})
			return
		}

		rd := ctxutil.GetRequestData(c.Request.Context())
		if rd == nil {
			rd = &ctxutil.RequestData{}
			c.Request = c.Request.WithContext(ctxutil.WithRequestData(c.Request.Context(), rd))
		}
		rd.OwnerID = owner
		c.Set("owner_id", owner)
		c.Next()
	}
}

func (om *OwnerMiddleware) resolve(c *gin.Context) (string, error) {
	if om.secret == nil {
		if id := strings.TrimSpace(c.GetHeader(headerUserID)); id != "" {
			return id, nil
		}
		return strings.TrimSpace(c.Query("userId")), nil
	}

	tokenString := extractBearer(c)
	if tokenString == "" {
		return "", errors.New("missing or invalid token")
	}
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return om.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", fmt.Errorf("invalid token: %w", err)
	}
	return strings.TrimSpace(claims.Subject), nil
}

func extractBearer(c *gin.Context) string {
	if qToken := c.Query("token"); qToken != "" {
		return qToken
	}
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return authHeader[7:]
	}
	return ""
}
