package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/finboard/finboard/internal/model"
	"github.com/finboard/finboard/internal/pkg/response"
	"github.com/finboard/finboard/internal/service"
)

type SearchProvider interface {
	Search(ctx context.Context, input service.SearchInput) (*model.SearchResponse, error)
}

type SearchHandler struct {
	search SearchProvider
}

func NewSearchHandler(search SearchProvider) *SearchHandler {
	return &SearchHandler{search: search}
}

func (h *SearchHandler) Search(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid", "invalid request")
		return
	}
	result, err := h.search.Search(c.Request.Context(), service.SearchInput{
		Query:     req.Query,
		Tickers:   req.Tickers,
		DateRange: req.DateRange,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}
