package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/interview-backend/internal/http/response"
	"github.com/yungbote/interview-backend/internal/platform/ctxutil"
	"github.com/yungbote/interview-backend/internal/platform/dbctx"
	"github.com/yungbote/interview-backend/internal/services"
)

type StatsHandler struct {
	stats services.StatsService
}

func NewStatsHandler(stats services.StatsService) *StatsHandler {
	return &StatsHandler{stats: stats}
}

// GET /api/stats?track=frontend
func (h *StatsHandler) Summary(c *gin.Context) {
	ctx := c.Request.Context()
	sum, err := h.stats.Summary(dbctx.Context{Ctx: ctx}, ctxutil.OwnerID(ctx), c.Query("track"))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, sum)
}

// GET /api/stats/suggestions
func (h *StatsHandler) Suggestions(c *gin.Context) {
	ctx := c.Request.Context()
	out, err := h.stats.Suggestions(dbctx.Context{Ctx: ctx}, ctxutil.OwnerID(ctx))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"suggestions": out})
}
