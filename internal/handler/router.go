package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/finboard/finboard/internal/middleware"
)

type RouterDeps struct {
	Search         *SearchHandler
	Themes         *ThemeHandler
	Stats          *StatsHandler
	Internal       *InternalHandler
	InternalSecret string
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.POST("/search", deps.Search.Search)
	api.GET("/dashboard/themes", deps.Themes.Get)
	api.GET("/debug/stats", deps.Stats.Get)

	internalGroup := api.Group("/internal")
	internalGroup.Use(middleware.InternalAuth(deps.InternalSecret))
	internalGroup.Use(middleware.RateLimit(10 * time.Second))
	internalGroup.POST("/backfill", deps.Internal.Backfill)
	internalGroup.POST("/themes/warm", deps.Internal.WarmThemes)
}
