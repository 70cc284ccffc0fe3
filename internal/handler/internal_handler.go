package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/finboard/finboard/internal/model"
	"github.com/finboard/finboard/internal/pkg/response"
)

type BackfillRunner interface {
	Run(ctx context.Context) (int, error)
}

type ThemeWarmer interface {
	GetThemes(ctx context.Context, windowHours, themeCount int, force bool) (*model.ThemesResponse, error)
	DefaultWindowHours() int
	DefaultThemeCount() int
}

// InternalHandler exposes the scheduler entry points over HTTP so external
// cron systems can drive backfill and cache warm-up.
type InternalHandler struct {
	backfill BackfillRunner
	themes   ThemeWarmer
}

func NewInternalHandler(backfill BackfillRunner, themes ThemeWarmer) *InternalHandler {
	return &InternalHandler{backfill: backfill, themes: themes}
}

func (h *InternalHandler) Backfill(c *gin.Context) {
	updated, err := h.backfill.Run(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"updated": updated})
}

func (h *InternalHandler) WarmThemes(c *gin.Context) {
	windowHours := parseWindowHours(c.Query("window"), h.themes.DefaultWindowHours())
	themeCount := parseThemeCount(c.Query("k"), h.themes.DefaultThemeCount())
	payload, err := h.themes.GetThemes(c.Request.Context(), windowHours, themeCount, true)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"generated_at": payload.GeneratedAt, "themes": len(payload.Themes)})
}
