package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/propedge/propedge/internal/ai"
	"github.com/propedge/propedge/internal/api/middleware"
	"github.com/propedge/propedge/pkg/utils"
)

type InsightHandler struct {
	insights  *ai.InsightService
	assistant *ai.AssistantService
}

func NewInsightHandler(insights *ai.InsightService, assistant *ai.AssistantService) *InsightHandler {
	return &InsightHandler{insights: insights, assistant: assistant}
}

// GenerateInsight produces an LLM analysis of the stored data.
// POST /api/v1/insights
func (h *InsightHandler) GenerateInsight(c *gin.Context) {
	var req ai.InsightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request body", err.Error())
		return
	}

	result, err := h.insights.GenerateInsight(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		sendAIError(c, err)
		return
	}

	utils.SendSuccess(c, result)
}

type ChatRequest struct {
	Messages []ai.ChatMessage `json:"messages" binding:"required,min=1,dive"`
}

// Chat runs the tool-calling assistant over a conversation.
// POST /api/v1/assistant/chat
func (h *InsightHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request body", err.Error())
		return
	}

	reply, err := h.assistant.Chat(c.Request.Context(), middleware.UserID(c), req.Messages)
	if err != nil {
		sendAIError(c, err)
		return
	}

	utils.SendSuccess(c, gin.H{"reply": reply})
}

// sendAIError maps upstream LLM failures onto distinct status codes so
// clients can tell throttling from billing problems.
func sendAIError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ai.ErrRateLimited):
		utils.SendRateLimited(c, "AI provider rate limit exceeded, try again shortly")
	case errors.Is(err, ai.ErrQuotaExceeded):
		utils.SendQuotaExceeded(c, "AI provider quota exhausted")
	case errors.Is(err, ai.ErrNotConfigured):
		utils.SendValidationError(c, "AI features are not configured", "")
	default:
		utils.SendInternalError(c, "AI request failed")
	}
}
