package api

import (
	"github.com/darkkaiser/price-tracker/internal/pkg/version"
	"github.com/darkkaiser/price-tracker/internal/state"
)

// SuccessResponse 명령 처리 결과입니다. ResultCode 0은 성공입니다.
type SuccessResponse struct {
	ResultCode int    `json:"result_code"`
	Message    string `json:"message,omitempty"`
}

// ErrorResponse 에러 응답입니다. ResultCode는 HTTP 상태 코드입니다.
type ErrorResponse struct {
	ResultCode int    `json:"result_code"`
	Message    string `json:"message"`
}

// HealthResponse GET /health
type HealthResponse struct {
	Status string `json:"status"`
	Uptime int64  `json:"uptime"`
}

// VersionResponse GET /version
type VersionResponse struct {
	version.Info
}

// ServicesResponse GET /api/v1/services
type ServicesResponse struct {
	Services map[string]state.ServiceState `json:"services"`
}
