// Package notification 운영자에게 크롤링 결과와 오류를 알립니다.
package notification

import (
	"context"

	"github.com/darkkaiser/price-tracker/internal/config"
)

const component = "notification"

// Notifier 메시지를 운영자에게 전달합니다.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// Noop 알림이 비활성화되었을 때 사용하는 Notifier입니다.
type Noop struct{}

func (Noop) Notify(context.Context, string) error { return nil }

// New 설정에 따라 Notifier를 생성합니다. 텔레그램이 비활성화되어 있으면 Noop을 반환합니다.
func New(cfg config.NotificationConfig, debug bool) (Notifier, error) {
	if !cfg.Telegram.Enabled {
		return Noop{}, nil
	}
	return NewTelegram(cfg.Telegram, debug)
}
