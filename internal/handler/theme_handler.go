package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/finboard/finboard/internal/model"
	"github.com/finboard/finboard/internal/pkg/response"
)

type ThemeProvider interface {
	GetThemes(ctx context.Context, windowHours, themeCount int, force bool) (*model.ThemesResponse, error)
	DefaultWindowHours() int
	DefaultThemeCount() int
}

type ThemeHandler struct {
	themes ThemeProvider
}

func NewThemeHandler(themes ThemeProvider) *ThemeHandler {
	return &ThemeHandler{themes: themes}
}

func (h *ThemeHandler) Get(c *gin.Context) {
	windowHours := parseWindowHours(c.Query("window"), h.themes.DefaultWindowHours())
	themeCount := parseThemeCount(c.Query("k"), h.themes.DefaultThemeCount())
	force := parseForce(c.Query("force"))

	payload, err := h.themes.GetThemes(c.Request.Context(), windowHours, themeCount, force)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, payload)
}
