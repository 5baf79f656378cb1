package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/interview-backend/internal/http/response"
	"github.com/yungbote/interview-backend/internal/platform/apierr"
	"github.com/yungbote/interview-backend/internal/platform/ctxutil"
	"github.com/yungbote/interview-backend/internal/platform/dbctx"
	"github.com/yungbote/interview-backend/internal/platform/logger"
	"github.com/yungbote/interview-backend/internal/services"
)

type InterviewHandler struct {
	log      *logger.Logger
	relay    services.Relay
	sessions services.SessionService
}

func NewInterviewHandler(log *logger.Logger, relay services.Relay, sessions services.SessionService) *InterviewHandler {
	return &InterviewHandler{log: log.With("handler", "InterviewHandler"), relay: relay, sessions: sessions}
}

type interviewMessageReq struct {
	SessionID string       `json:"session_id" binding:"required"`
	Messages  []messageDTO `json:"messages"`
	sessionConfigDTO
	CurrentCode   string   `json:"current_code"`
	CoveredTopics []string `json:"covered_topics"`
}

// POST /api/interview/message
//
// Streams one interviewer turn as chunked text/plain. Headers are written
// with the first delta, so failures before it get a JSON error and failures
// after it abort the connection.
func (h *InterviewHandler) Message(c *gin.Context) {
	var req interviewMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondBindError(c, err)
		return
	}
	ctx := c.Request.Context()

	started := false
	emit := func(delta string) error {
		if !started {
			started = true
			c.Header("Content-Type", "text/plain; charset=utf-8")
			c.Header("Cache-Control", "no-cache")
			c.Header("X-Accel-Buffering", "no")
			c.Status(http.StatusOK)
		}
		if _, err := c.Writer.WriteString(delta); err != nil {
			return err
		}
		c.Writer.Flush()
		return nil
	}

	err := h.relay.Stream(ctx, services.RelayRequest{
		OwnerID:       ctxutil.OwnerID(ctx),
		SessionID:     req.SessionID,
		Config:        req.toConfig(),
		Turns:         toTurns(req.Messages),
		Code:          req.CurrentCode,
		CoveredTopics: req.CoveredTopics,
	}, emit)
	if err == nil {
		if !started {
			c.Status(http.StatusOK)
		}
		return
	}

	if started {
		h.log.Warn("aborting interviewer stream", append(ctxutil.LogFields(ctx), "session_id", req.SessionID, "error", err)...)
		panic(http.ErrAbortHandler)
	}
	if status, _ := apierr.StatusOf(err); status < http.StatusInternalServerError {
		response.RespondAPIError(c, err)
		return
	}
	code := "generation_failed"
	if errors.Is(err, services.ErrGenerationTimeout) {
		code = "generation_timeout"
	}
	h.log.Warn("interviewer turn failed", append(ctxutil.LogFields(ctx), "session_id", req.SessionID, "error", err)...)
	response.RespondError(c, http.StatusBadGateway, code, errors.New("failed to process message"))
}

type interviewEndReq struct {
	SessionID string       `json:"session_id" binding:"required"`
	Messages  []messageDTO `json:"messages"`
	sessionConfigDTO
	DurationSeconds *int `json:"duration_seconds"`
}

// POST /api/interview/end
func (h *InterviewHandler) End(c *gin.Context) {
	var req interviewEndReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondBindError(c, err)
		return
	}
	ctx := c.Request.Context()
	res, err := h.sessions.Finalize(dbctx.Context{Ctx: ctx}, services.FinalizeRequest{
		OwnerID:         ctxutil.OwnerID(ctx),
		SessionID:       req.SessionID,
		Config:          req.toConfig(),
		Transcript:      toTurns(req.Messages),
		DurationSeconds: req.DurationSeconds,
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, res.Report)
}
