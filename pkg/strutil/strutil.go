// Package strutil 문자열 처리 유틸리티입니다.
package strutil

import "strings"

// NormalizeSpaces 앞뒤 공백을 제거하고 연속된 공백(개행, 탭 포함)을 하나로 축약합니다.
// 예: "  Молоко \n  2,5%  " -> "Молоко 2,5%"
func NormalizeSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Mask 토큰 등 민감한 문자열을 로그에 남길 수 있도록 가립니다.
// 12자 이하는 앞 2자만, 그보다 길면 앞뒤 4자만 남깁니다.
func Mask(s string) string {
	switch {
	case s == "":
		return ""
	case len(s) <= 12:
		if len(s) <= 2 {
			return "***"
		}
		return s[:2] + "***"
	default:
		return s[:4] + "***" + s[len(s)-4:]
	}
}

// FirstNonEmpty 공백이 아닌 첫 번째 값을 반환합니다.
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
