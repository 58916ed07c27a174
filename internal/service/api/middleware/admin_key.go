package middleware

import (
	"crypto/subtle"
	"net/http"

	applog "github.com/darkkaiser/price-tracker/pkg/log"
	"github.com/labstack/echo/v4"
)

// HeaderXAdminKey 관리 명령 인증 헤더
const HeaderXAdminKey = "X-Admin-Key"

// RequireAdminKey X-Admin-Key 헤더가 adminKey와 같은 요청만 통과시킵니다.
// adminKey가 비어 있으면 인증 없이 모든 요청을 통과시킵니다.
func RequireAdminKey(adminKey string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if adminKey == "" {
			return next
		}

		expected := []byte(adminKey)
		return func(c echo.Context) error {
			key := c.Request().Header.Get(HeaderXAdminKey)
			if key == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "X-Admin-Key 헤더가 필요합니다")
			}
			if subtle.ConstantTimeCompare([]byte(key), expected) != 1 {
				applog.WithComponentAndFields(component, applog.Fields{
					"remote_ip": c.RealIP(),
					"path":      c.Request().URL.Path,
				}).Warn("관리 키가 일치하지 않는 요청을 거부했습니다")
				return echo.NewHTTPError(http.StatusUnauthorized, "관리 키가 유효하지 않습니다")
			}
			return next(c)
		}
	}
}
