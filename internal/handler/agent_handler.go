package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"codescout/internal/agent"
	"codescout/internal/model"
	"codescout/internal/pkg/response"
	"codescout/internal/service"
)

// AgentHandler streams agent query responses and reports agent status.
type AgentHandler struct {
	query  *service.QueryService
	agents *agent.Catalog
}

func NewAgentHandler(query *service.QueryService, agents *agent.Catalog) *AgentHandler {
	return &AgentHandler{query: query, agents: agents}
}

type agentQueryRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	AgentType string `json:"agent_type" binding:"required"`
	Query     string `json:"query" binding:"required"`
}

// Query runs one agent query and streams every accumulated message state as
// a server-sent event. The final event carries the terminal message.
func (h *AgentHandler) Query(c *gin.Context) {
	var req agentQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "session_id, agent_type and query are required")
		return
	}

	started := false
	publish := func(msg model.Message) {
		if !started {
			started = true
			c.Writer.Header().Set("Content-Type", "text/event-stream")
			c.Writer.Header().Set("Cache-Control", "no-cache")
			c.Writer.Header().Set("Connection", "keep-alive")
			c.Writer.WriteHeader(http.StatusOK)
		}
		payload, err := json.Marshal(msg)
		if err != nil {
			logutil.GetLogger(c.Request.Context()).Error("marshal message state", zap.Error(err))
			return
		}
		fmt.Fprintf(c.Writer, "event: message\ndata: %s\n\n", payload)
		c.Writer.Flush()
	}

	final, err := h.query.Stream(c.Request.Context(), req.SessionID, req.AgentType, req.Query, publish)
	if err != nil && !started {
		// Failed before the first frame; a plain JSON error is still possible.
		handleError(c, err)
		return
	}
	if !started {
		publish(final)
	}
	fmt.Fprintf(c.Writer, "event: done\ndata: {\"message_id\":%q,\"status\":%q}\n\n", final.ID, final.Status)
	c.Writer.Flush()
}

// Statuses lists every agent type with its activity state.
func (h *AgentHandler) Statuses(c *gin.Context) {
	response.Success(c, gin.H{"agents": h.agents.AllStatuses()})
}

// Status reports one agent type.
func (h *AgentHandler) Status(c *gin.Context) {
	status, err := h.agents.StatusOf(c.Param("type"))
	if err != nil {
		handleError(c, fmt.Errorf("%w: unknown agent type %q", err, c.Param("type")))
		return
	}
	response.Success(c, status)
}
