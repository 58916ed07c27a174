package api

import (
	"net/http"

	apperrors "github.com/darkkaiser/price-tracker/internal/pkg/errors"
	applog "github.com/darkkaiser/price-tracker/pkg/log"
	"github.com/labstack/echo/v4"
)

const (
	errMsgInternalServer = "내부 서버 오류가 발생했습니다"
	errMsgNotFound       = "요청한 리소스를 찾을 수 없습니다"
)

// statusCode 애플리케이션 에러 종류를 HTTP 상태 코드로 변환합니다.
func statusCode(err error) int {
	switch {
	case apperrors.Is(err, apperrors.Conflict):
		return http.StatusConflict
	case apperrors.Is(err, apperrors.InvalidInput):
		return http.StatusBadRequest
	case apperrors.Is(err, apperrors.NotFound):
		return http.StatusNotFound
	case apperrors.Is(err, apperrors.Unavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// errorHandler 모든 에러를 ErrorResponse JSON으로 응답합니다.
// 5xx는 Error, 4xx는 Warn 레벨로 기록합니다.
func errorHandler(err error, c echo.Context) {
	code := http.StatusInternalServerError
	message := errMsgInternalServer

	var appErr *apperrors.AppError
	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		if msg, ok := he.Message.(string); ok {
			message = msg
		}
		if code == http.StatusNotFound && message == http.StatusText(http.StatusNotFound) {
			message = errMsgNotFound
		}
	} else if apperrors.As(err, &appErr) {
		code = statusCode(err)
		if code < http.StatusInternalServerError {
			message = appErr.Message()
		}
	}

	fields := applog.Fields{
		"path":        c.Request().URL.Path,
		"method":      c.Request().Method,
		"status_code": code,
		"error":       err,
		"remote_ip":   c.RealIP(),
		"request_id":  c.Response().Header().Get(echo.HeaderXRequestID),
	}
	if code >= http.StatusInternalServerError {
		applog.WithComponentAndFields(component, fields).Error("HTTP 5xx: 서버 내부 오류")
	} else if code >= http.StatusBadRequest {
		applog.WithComponentAndFields(component, fields).Warn("HTTP 4xx: 클라이언트 요청 오류")
	}

	if c.Response().Committed {
		return
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, ErrorResponse{ResultCode: code, Message: message})
}
