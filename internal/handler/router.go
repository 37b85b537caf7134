package handler

import (
	"github.com/gin-gonic/gin"
)

type RouterDeps struct {
	Search        *SearchHandler
	Agents        *AgentHandler
	Conversations *ConversationHandler
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.POST("/search", deps.Search.Search)
	api.POST("/search/path", deps.Search.SearchByPath)
	api.POST("/embedding", deps.Search.Embed)
	api.GET("/sessions", deps.Search.ListSessions)
	api.GET("/sessions/:id/files", deps.Search.SessionFiles)

	api.POST("/query", deps.Agents.Query)
	api.GET("/agents", deps.Agents.Statuses)
	api.GET("/agents/:type", deps.Agents.Status)

	api.GET("/conversations", deps.Conversations.List)
	api.GET("/conversations/:id/messages", deps.Conversations.Messages)
	api.DELETE("/conversations/:id", deps.Conversations.Clear)
}
