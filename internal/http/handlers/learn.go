package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/interview-backend/internal/http/response"
	"github.com/yungbote/interview-backend/internal/platform/dbctx"
	"github.com/yungbote/interview-backend/internal/services"
)

type LearnHandler struct {
	articles services.ArticleService
}

func NewLearnHandler(articles services.ArticleService) *LearnHandler {
	return &LearnHandler{articles: articles}
}

// GET /api/learn?track=frontend
// GET /api/learn?track=frontend&topic=Closures
//
// With both track and topic it answers the full article, or null when none
// was generated yet. Otherwise it lists article headers.
func (h *LearnHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()
	dbc := dbctx.Context{Ctx: ctx}
	track := strings.TrimSpace(c.Query("track"))
	topic := strings.TrimSpace(c.Query("topic"))

	if track != "" && topic != "" {
		a, err := h.articles.Get(dbc, track, topic)
		if err != nil {
			response.RespondAPIError(c, err)
			return
		}
		response.RespondOK(c, a)
		return
	}
	list, err := h.articles.List(dbc, track)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, list)
}

type generateArticleReq struct {
	Track    string `json:"track" binding:"required"`
	Topic    string `json:"topic" binding:"required"`
	Category string `json:"category"`
	Language string `json:"language"`
}

// POST /api/learn/generate
func (h *LearnHandler) Generate(c *gin.Context) {
	var req generateArticleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondBindError(c, err)
		return
	}
	a, _, err := h.articles.Generate(dbctx.Context{Ctx: c.Request.Context()}, services.GenerateArticleRequest{
		Track:    req.Track,
		Topic:    req.Topic,
		Category: req.Category,
		Language: req.Language,
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, a)
}
