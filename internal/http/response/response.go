package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/interview-backend/internal/platform/apierr"
	"github.com/yungbote/interview-backend/internal/platform/ctxutil"
)

// APIError is the body of every non-2xx JSON response. RequestID echoes the
// X-Request-Id assigned by the trace middleware so clients can quote it.
type APIError struct {
	Message   string `json:"message"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

var errInternal = errors.New("internal error")

func RespondError(c *gin.Context, status int, code string, err error) {
	body := APIError{Message: "unknown error", Code: code}
	if err != nil {
		body.Message = err.Error()
	}
	if c.Request != nil {
		if td := ctxutil.GetTraceData(c.Request.Context()); td != nil {
			body.RequestID = td.RequestID
		}
	}
	c.AbortWithStatusJSON(status, ErrorEnvelope{Error: body})
}

// RespondAPIError maps a service error to its status and code. Messages of
// unclassified errors are not echoed to the client.
func RespondAPIError(c *gin.Context, err error) {
	status, code := apierr.StatusOf(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
		RespondError(c, status, code, errInternal)
		return
	}
	RespondError(c, status, code, err)
}

// RespondBindError answers a request body or query that failed gin binding.
func RespondBindError(c *gin.Context, err error) {
	RespondError(c, http.StatusBadRequest, "invalid_request", err)
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
