package middleware

import (
	"fmt"
	"runtime"

	apperrors "github.com/darkkaiser/price-tracker/internal/pkg/errors"
	applog "github.com/darkkaiser/price-tracker/pkg/log"
	"github.com/labstack/echo/v4"
)

// stackBufferSize 4KB
const stackBufferSize = 4 << 10

// PanicRecovery 핸들러의 panic을 복구해 스택 트레이스와 함께 기록하고, 에러 핸들러로 넘깁니다.
func PanicRecovery() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			defer func() {
				r := recover()
				if r == nil {
					return
				}

				err, ok := r.(error)
				if !ok {
					err = apperrors.New(apperrors.Internal, fmt.Sprintf("%v", r))
				}

				stack := make([]byte, stackBufferSize)
				length := runtime.Stack(stack, false)

				fields := applog.Fields{
					"error": err,
					"stack": string(stack[:length]),
				}
				if requestID := c.Response().Header().Get(echo.HeaderXRequestID); requestID != "" {
					fields["request_id"] = requestID
				}
				applog.WithComponentAndFields(component, fields).Error("PANIC RECOVERED")

				c.Error(err)
			}()
			return next(c)
		}
	}
}
