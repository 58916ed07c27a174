// Package log logrus 기반의 애플리케이션 로깅을 제공합니다.
//
// 모든 로그는 component 필드를 포함해야 합니다.
//
//	applog.WithComponent("crawler").Info("크롤링 시작")
//	applog.WithComponentAndFields("crawler", applog.Fields{"market": "ATB"}).Warn("...")
package log

import "github.com/sirupsen/logrus"

// WithComponent component 필드가 설정된 Entry를 반환합니다.
func WithComponent(component string) *Entry {
	return logrus.WithField("component", component)
}

// WithComponentAndFields component 필드와 추가 필드가 설정된 Entry를 반환합니다.
func WithComponentAndFields(component string, fields Fields) *Entry {
	merged := make(Fields, len(fields)+1)
	for k, v := range fields {
		merged[k] = v
	}
	merged["component"] = component

	return logrus.WithFields(merged)
}

// StandardLogger 전역 logrus Logger를 반환합니다.
func StandardLogger() *Logger {
	return logrus.StandardLogger()
}

// SetLevel 전역 로그 레벨을 변경합니다.
func SetLevel(level Level) {
	logrus.SetLevel(level)
}
