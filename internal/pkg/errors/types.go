package errors

import "strconv"

// ErrorType 에러를 분류하는 종류입니다.
type ErrorType int

const (
	// Unknown 분류되지 않은 에러
	Unknown ErrorType = iota

	// Internal 내부 로직 오류
	Internal

	// System 디스크, 네트워크 등 인프라 계층의 오류
	System

	// InvalidInput 설정값이나 요청 파라미터가 올바르지 않음
	InvalidInput

	// Conflict 현재 상태와 충돌하는 요청 (예: 이미 실행 중인 크롤러에 강제 실행 요청)
	Conflict

	// NotFound 대상 리소스가 존재하지 않음
	NotFound

	// ExecutionFailed 작업 수행 중 실패
	ExecutionFailed

	// ParsingFailed HTML, 가격 문자열 등의 파싱 실패
	ParsingFailed

	// Timeout 시간 초과
	Timeout

	// Unavailable 원격 사이트 또는 저장소를 일시적으로 사용할 수 없음
	Unavailable
)

var errorTypeNames = [...]string{
	Unknown:         "Unknown",
	Internal:        "Internal",
	System:          "System",
	InvalidInput:    "InvalidInput",
	Conflict:        "Conflict",
	NotFound:        "NotFound",
	ExecutionFailed: "ExecutionFailed",
	ParsingFailed:   "ParsingFailed",
	Timeout:         "Timeout",
	Unavailable:     "Unavailable",
}

func (t ErrorType) String() string {
	if t < 0 || int(t) >= len(errorTypeNames) {
		return "ErrorType(" + strconv.Itoa(int(t)) + ")"
	}
	return errorTypeNames[t]
}
