package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"codescout/internal/pkg/response"
	"codescout/internal/service"
)

// SearchHandler exposes the retrieval tool contracts over HTTP.
type SearchHandler struct {
	search *service.SearchService
}

func NewSearchHandler(search *service.SearchService) *SearchHandler {
	return &SearchHandler{search: search}
}

type searchRequest struct {
	Query               string   `json:"query" binding:"required"`
	SessionID           string   `json:"session_id"`
	Limit               int      `json:"limit"`
	SimilarityThreshold *float64 `json:"similarity_threshold"`
}

// Search ranks stored chunks by semantic similarity to the query text.
func (h *SearchHandler) Search(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "query is required")
		return
	}
	input := service.SearchInput{
		Query:     req.Query,
		SessionID: req.SessionID,
		Limit:     req.Limit,
	}
	if req.SimilarityThreshold != nil {
		input.Threshold = *req.SimilarityThreshold
		input.HasThreshold = true
	}
	result, err := h.search.Search(c.Request.Context(), input)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}

// ListSessions returns every session whose embeddings are ready.
func (h *SearchHandler) ListSessions(c *gin.Context) {
	result, err := h.search.ListSessions(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}

// SessionFiles lists per-file chunk metadata for one session.
func (h *SearchHandler) SessionFiles(c *gin.Context) {
	result, err := h.search.SessionFiles(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}

type pathSearchRequest struct {
	FilePathPattern string `json:"file_path_pattern" binding:"required"`
	SessionID       string `json:"session_id"`
}

// SearchByPath matches chunk file paths against a SQL LIKE pattern.
func (h *SearchHandler) SearchByPath(c *gin.Context) {
	var req pathSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "file_path_pattern is required")
		return
	}
	result, err := h.search.SearchByPath(c.Request.Context(), req.FilePathPattern, req.SessionID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}

type embedRequest struct {
	Text string `json:"text" binding:"required"`
}

// Embed generates a query embedding and returns its metadata.
func (h *SearchHandler) Embed(c *gin.Context) {
	var req embedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "text is required")
		return
	}
	result, err := h.search.EmbedQuery(c.Request.Context(), req.Text)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}
