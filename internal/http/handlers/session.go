package handlers

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/interview-backend/internal/data/repos"
	"github.com/yungbote/interview-backend/internal/http/response"
	"github.com/yungbote/interview-backend/internal/platform/ctxutil"
	"github.com/yungbote/interview-backend/internal/platform/dbctx"
	"github.com/yungbote/interview-backend/internal/services"
)

type SessionHandler struct {
	sessions services.SessionService
}

func NewSessionHandler(sessions services.SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

type createSessionReq struct {
	ID string `json:"id" binding:"required"`
	sessionConfigDTO
}

// POST /api/sessions
func (h *SessionHandler) Create(c *gin.Context) {
	var req createSessionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondBindError(c, err)
		return
	}
	ctx := c.Request.Context()
	sess, err := h.sessions.Create(dbctx.Context{Ctx: ctx}, ctxutil.OwnerID(ctx), req.ID, req.toConfig())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"session": sess})
}

// GET /api/sessions?status=completed&limit=20&offset=0
func (h *SessionHandler) List(c *gin.Context) {
	f := repos.SessionFilter{Status: strings.TrimSpace(c.Query("status"))}
	if v := strings.TrimSpace(c.Query("limit")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			f.Limit = n
		}
	}
	if v := strings.TrimSpace(c.Query("offset")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			f.Offset = n
		}
	}
	ctx := c.Request.Context()
	sessions, err := h.sessions.List(dbctx.Context{Ctx: ctx}, ctxutil.OwnerID(ctx), f)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"sessions": sessions})
}

// GET /api/sessions/:id
func (h *SessionHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()
	view, err := h.sessions.Resume(dbctx.Context{Ctx: ctx}, ctxutil.OwnerID(ctx), c.Param("id"))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, view)
}

// POST /api/sessions/:id/abandon
func (h *SessionHandler) Abandon(c *gin.Context) {
	ctx := c.Request.Context()
	sess, err := h.sessions.Abandon(dbctx.Context{Ctx: ctx}, ctxutil.OwnerID(ctx), c.Param("id"))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"session": sess})
}
