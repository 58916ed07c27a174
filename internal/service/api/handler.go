package api

import (
	"net/http"
	"strconv"
	"time"

	apperrors "github.com/darkkaiser/price-tracker/internal/pkg/errors"
	"github.com/darkkaiser/price-tracker/internal/pkg/version"
	"github.com/darkkaiser/price-tracker/internal/state"
	applog "github.com/darkkaiser/price-tracker/pkg/log"
	"github.com/labstack/echo/v4"
)

// CrawlTrigger 크롤링 즉시 실행 요청을 받는 서비스입니다.
type CrawlTrigger interface {
	SkipDelay(parseDetailPages bool) error
}

// RemapTrigger 카테고리 재매핑 즉시 실행 요청을 받는 서비스입니다.
type RemapTrigger interface {
	SkipDelay() error
}

// Handler 관리 API의 요청을 처리합니다.
type Handler struct {
	crawl    CrawlTrigger
	remap    RemapTrigger
	registry *state.Registry

	buildInfo  version.Info
	serverTime time.Time
}

// NewHandler Handler를 생성합니다.
func NewHandler(crawl CrawlTrigger, remap RemapTrigger, registry *state.Registry, buildInfo version.Info) *Handler {
	if crawl == nil {
		panic("CrawlTrigger는 필수입니다")
	}
	if remap == nil {
		panic("RemapTrigger는 필수입니다")
	}
	if registry == nil {
		panic("state.Registry는 필수입니다")
	}

	return &Handler{
		crawl:      crawl,
		remap:      remap,
		registry:   registry,
		buildInfo:  buildInfo,
		serverTime: time.Now(),
	}
}

// Health GET /health
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status: "healthy",
		Uptime: int64(time.Since(h.serverTime).Seconds()),
	})
}

// Version GET /version
func (h *Handler) Version(c echo.Context) error {
	return c.JSON(http.StatusOK, VersionResponse{Info: h.buildInfo})
}

// Services GET /api/v1/services
func (h *Handler) Services(c echo.Context) error {
	return c.JSON(http.StatusOK, ServicesResponse{Services: h.registry.Snapshot()})
}

// ForceCrawl POST /api/v1/crawl/force?parse_detail_pages=bool
//
// parse_detail_pages를 생략하면 상세 페이지를 파싱합니다.
func (h *Handler) ForceCrawl(c echo.Context) error {
	parseDetailPages := true
	if v := c.QueryParam("parse_detail_pages"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return apperrors.Wrap(err, apperrors.InvalidInput, "parse_detail_pages는 true 또는 false여야 합니다")
		}
		parseDetailPages = b
	}

	if err := h.crawl.SkipDelay(parseDetailPages); err != nil {
		return err
	}

	applog.WithComponentAndFields(component, applog.Fields{
		"parse_detail_pages": parseDetailPages,
		"remote_ip":          c.RealIP(),
	}).Info("크롤링 강제 실행 요청을 처리했습니다")

	return c.JSON(http.StatusAccepted, SuccessResponse{ResultCode: 0, Message: "크롤링을 곧 시작합니다"})
}

// ForceRemap POST /api/v1/category-remap/force
func (h *Handler) ForceRemap(c echo.Context) error {
	if err := h.remap.SkipDelay(); err != nil {
		return err
	}

	applog.WithComponentAndFields(component, applog.Fields{
		"remote_ip": c.RealIP(),
	}).Info("카테고리 재매핑 강제 실행 요청을 처리했습니다")

	return c.JSON(http.StatusAccepted, SuccessResponse{ResultCode: 0, Message: "카테고리 재매핑을 곧 시작합니다"})
}
