package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/interview-backend/internal/http/response"
	"github.com/yungbote/interview-backend/internal/services"
)

type KeyHandler struct {
	keys services.KeyService
}

func NewKeyHandler(keys services.KeyService) *KeyHandler {
	return &KeyHandler{keys: keys}
}

type validateKeyReq struct {
	APIKey string `json:"api_key" binding:"required"`
}

// POST /api/validate-key
func (h *KeyHandler) Validate(c *gin.Context) {
	var req validateKeyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondBindError(c, err)
		return
	}
	ok, err := h.keys.ValidateKey(c.Request.Context(), req.APIKey)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	if !ok {
		response.RespondError(c, http.StatusBadRequest, "invalid_key", errors.New("the key was rejected by the backend"))
		return
	}
	response.RespondOK(c, gin.H{"valid": true})
}
