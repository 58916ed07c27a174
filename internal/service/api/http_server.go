package api

import (
	"time"

	appmiddleware "github.com/darkkaiser/price-tracker/internal/service/api/middleware"
	applog "github.com/darkkaiser/price-tracker/pkg/log"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const (
	defaultReadTimeout       = 10 * time.Second
	defaultReadHeaderTimeout = 5 * time.Second
	defaultWriteTimeout      = 30 * time.Second
	defaultIdleTimeout       = 60 * time.Second
	defaultRequestTimeout    = 20 * time.Second

	defaultRateLimitPerSecond = 5
	defaultRateLimitBurst     = 10

	defaultMaxBodySize = "64K"
)

// HTTPServerConfig HTTP 서버 생성 설정입니다.
type HTTPServerConfig struct {
	Debug bool

	// RequestTimeout 0이면 기본값(20초)을 사용합니다.
	RequestTimeout time.Duration
}

// NewHTTPServer 미들웨어가 설정된 Echo 인스턴스를 생성합니다. 라우트는 포함하지 않습니다.
//
// 미들웨어 순서: PanicRecovery, RequestID, Server 헤더 제거, HTTPLogger, RateLimiting, BodyLimit, Timeout, Secure.
// HTTPLogger가 RateLimiting보다 앞에 있어야 429 응답도 기록됩니다.
func NewHTTPServer(cfg HTTPServerConfig) *echo.Echo {
	e := echo.New()

	e.Debug = cfg.Debug
	e.HideBanner = true
	e.HidePort = true

	e.Server.ReadTimeout = defaultReadTimeout
	e.Server.ReadHeaderTimeout = defaultReadHeaderTimeout
	e.Server.WriteTimeout = defaultWriteTimeout
	e.Server.IdleTimeout = defaultIdleTimeout

	e.Logger = appmiddleware.Logger{Logger: applog.StandardLogger()}
	e.HTTPErrorHandler = errorHandler

	timeout := cfg.RequestTimeout
	if timeout == 0 {
		timeout = defaultRequestTimeout
	}

	e.Use(appmiddleware.PanicRecovery())
	e.Use(middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Response().Header().Set(echo.HeaderServer, "")
			return next(c)
		}
	})
	e.Use(appmiddleware.HTTPLogger())
	e.Use(appmiddleware.RateLimiting(defaultRateLimitPerSecond, defaultRateLimitBurst))
	e.Use(middleware.BodyLimit(defaultMaxBodySize))
	e.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{Timeout: timeout}))
	e.Use(middleware.Secure())

	return e
}
