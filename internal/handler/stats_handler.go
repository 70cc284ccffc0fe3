package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/finboard/finboard/internal/model"
	"github.com/finboard/finboard/internal/pkg/response"
)

type StatsProvider interface {
	CorpusStats(ctx context.Context) (*model.CorpusStats, error)
}

type StatsHandler struct {
	stats StatsProvider
}

func NewStatsHandler(stats StatsProvider) *StatsHandler {
	return &StatsHandler{stats: stats}
}

func (h *StatsHandler) Get(c *gin.Context) {
	stats, err := h.stats.CorpusStats(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, stats)
}
