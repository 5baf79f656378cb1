package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/interview-backend/internal/platform/apierr"
	"github.com/yungbote/interview-backend/internal/platform/ctxutil"
)

func TestRespondAPIError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{"validation", apierr.Validation("session id required"), http.StatusBadRequest, "validation_failed", "invalid argument: session id required"},
		{"wrapped not found", fmt.Errorf("resume: %w", apierr.NotFound("session")), http.StatusNotFound, "not_found", "resume: session: not found"},
		{"internal", errors.New("pq: connection refused"), http.StatusInternalServerError, "internal", "internal error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)
			c.Request = httptest.NewRequest(http.MethodGet, "/api/sessions/s-1", nil)
			RespondAPIError(c, tt.err)

			require.Equal(t, tt.status, rec.Code)
			var env ErrorEnvelope
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
			assert.Equal(t, tt.code, env.Error.Code)
			assert.Equal(t, tt.message, env.Error.Message)
		})
	}
}

func TestRespondErrorEchoesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	req := httptest.NewRequest(http.MethodPost, "/api/interview/end", nil)
	c.Request = req.WithContext(ctxutil.WithTraceData(req.Context(), &ctxutil.TraceData{RequestID: "req-42"}))

	RespondBindError(c, errors.New("session_id is required"))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.True(t, c.IsAborted())
	var env ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "invalid_request", env.Error.Code)
	assert.Equal(t, "req-42", env.Error.RequestID)
}
