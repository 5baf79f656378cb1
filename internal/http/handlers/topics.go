package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/interview-backend/internal/http/response"
	"github.com/yungbote/interview-backend/internal/platform/ctxutil"
	"github.com/yungbote/interview-backend/internal/platform/dbctx"
	"github.com/yungbote/interview-backend/internal/services"
)

type TopicsHandler struct {
	mastery services.MasteryService
}

func NewTopicsHandler(mastery services.MasteryService) *TopicsHandler {
	return &TopicsHandler{mastery: mastery}
}

// GET /api/topics
func (h *TopicsHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	view, err := h.mastery.List(dbctx.Context{Ctx: ctx}, ctxutil.OwnerID(ctx))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, view)
}
