package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	appErr "github.com/finboard/finboard/internal/pkg/errors"
	"github.com/finboard/finboard/internal/pkg/response"
	"github.com/finboard/finboard/internal/service"
)

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	logutil.GetLogger(c.Request.Context()).Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	switch {
	case errors.Is(err, appErr.ErrInvalid):
		response.Error(c, http.StatusBadRequest, "invalid", "invalid request")
	case errors.Is(err, appErr.ErrNotFound):
		response.Error(c, http.StatusNotFound, "not_found", "not found")
	case errors.Is(err, service.ErrEmbeddingUnavailable):
		response.Error(c, http.StatusServiceUnavailable, "embedding_unavailable", "embedding service unavailable")
	default:
		response.Error(c, http.StatusInternalServerError, "internal", "internal error")
	}
}
