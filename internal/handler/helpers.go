package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	appErr "codescout/internal/pkg/errors"
	"codescout/internal/pkg/response"
)

// handleError maps the error taxonomy onto HTTP statuses with the uniform
// {"error": "<message>"} envelope.
func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	requestID, _ := c.Get("request_id")
	logutil.GetLogger(c.Request.Context()).Warn("request failed",
		zap.Any("request_id", requestID),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err))
	switch {
	case appErr.IsValidation(err):
		response.Error(c, http.StatusBadRequest, err.Error())
	case appErr.IsNotFound(err):
		response.Error(c, http.StatusNotFound, err.Error())
	case appErr.IsUpstream(err):
		response.Error(c, http.StatusBadGateway, err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, "internal error")
	}
}
