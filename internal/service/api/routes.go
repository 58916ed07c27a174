package api

import (
	appmiddleware "github.com/darkkaiser/price-tracker/internal/service/api/middleware"
	"github.com/labstack/echo/v4"
)

// SetupRoutes 라우트를 등록합니다. /api/v1 아래의 경로는 관리 키 인증을 거칩니다.
func SetupRoutes(e *echo.Echo, h *Handler, adminKey string) {
	e.GET("/health", h.Health)
	e.GET("/version", h.Version)

	v1 := e.Group("/api/v1", appmiddleware.RequireAdminKey(adminKey))
	v1.GET("/services", h.Services)
	v1.POST("/crawl/force", h.ForceCrawl)
	v1.POST("/category-remap/force", h.ForceRemap)
}
