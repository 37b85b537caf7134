package handler

import (
	"github.com/gin-gonic/gin"

	"codescout/internal/pkg/response"
	"codescout/internal/service"
)

// ConversationHandler reads and clears in-memory conversation history.
type ConversationHandler struct {
	query *service.QueryService
}

func NewConversationHandler(query *service.QueryService) *ConversationHandler {
	return &ConversationHandler{query: query}
}

func (h *ConversationHandler) List(c *gin.Context) {
	response.Success(c, gin.H{"conversations": h.query.Conversations()})
}

func (h *ConversationHandler) Messages(c *gin.Context) {
	messages, err := h.query.Messages(c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"session_id": c.Param("id"), "messages": messages})
}

// Clear drops a session's conversation context.
func (h *ConversationHandler) Clear(c *gin.Context) {
	if err := h.query.ClearContext(c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"session_id": c.Param("id"), "cleared": true})
}
