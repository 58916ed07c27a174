package notification

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/darkkaiser/price-tracker/internal/config"
	apperrors "github.com/darkkaiser/price-tracker/internal/pkg/errors"
	applog "github.com/darkkaiser/price-tracker/pkg/log"
	"github.com/darkkaiser/price-tracker/pkg/strutil"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"
)

const (
	// messageMaxLength 텔레그램 공식 제한(4096자)보다 여유를 두었습니다. 초과하면 줄 단위로 나누어 보냅니다.
	messageMaxLength = 3900

	telegramHTTPTimeout = 30 * time.Second
	telegramRetryDelay  = 2 * time.Second
	telegramMaxAttempts = 3

	// 텔레그램 API는 같은 채팅방에 초당 약 1건을 권장합니다.
	telegramRateLimit = 1
	telegramRateBurst = 3
)

// sender 텔레그램 봇 API 중 메시지 전송 부분입니다.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type telegramNotifier struct {
	chatID int64
	sender sender

	limiter    *rate.Limiter
	retryDelay time.Duration
}

// NewTelegram 텔레그램 봇 API 클라이언트를 초기화합니다. 초기화 시 봇 토큰을 검증하기 위해 getMe를 호출합니다.
func NewTelegram(cfg config.TelegramConfig, debug bool) (Notifier, error) {
	applog.WithComponentAndFields(component, applog.Fields{
		"bot_token": strutil.Mask(cfg.BotToken),
		"chat_id":   cfg.ChatID,
	}).Debug("텔레그램 봇 API 클라이언트를 초기화합니다")

	// 기본 http.Client에는 타임아웃이 없습니다.
	client := &http.Client{Timeout: telegramHTTPTimeout}

	bot, err := tgbotapi.NewBotAPIWithClient(cfg.BotToken, tgbotapi.APIEndpoint, client)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.InvalidInput, "텔레그램 봇 API 클라이언트 초기화에 실패했습니다. BotToken이 올바른지 확인해주세요")
	}
	bot.Debug = debug

	return newTelegramWithSender(cfg.ChatID, bot), nil
}

func newTelegramWithSender(chatID int64, s sender) *telegramNotifier {
	return &telegramNotifier{
		chatID:     chatID,
		sender:     s,
		limiter:    rate.NewLimiter(rate.Limit(telegramRateLimit), telegramRateBurst),
		retryDelay: telegramRetryDelay,
	}
}

// Notify 메시지가 길면 나누어 보냅니다. 나눈 메시지 중 하나라도 실패하면 마지막 에러를 반환합니다.
func (n *telegramNotifier) Notify(ctx context.Context, message string) error {
	var lastErr error
	for _, chunk := range splitMessage(message, messageMaxLength) {
		if err := n.send(ctx, chunk); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
		}
	}
	return lastErr
}

func (n *telegramNotifier) send(ctx context.Context, text string) error {
	if err := n.limiter.Wait(ctx); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(n.chatID, text)

	var lastErr error
	for attempt := 1; attempt <= telegramMaxAttempts; attempt++ {
		_, err := n.sender.Send(msg)
		if err == nil {
			return nil
		}
		lastErr = err

		code, retryAfter := telegramErrorCode(lastErr)
		applog.WithComponentAndFields(component, applog.Fields{
			"chat_id": n.chatID,
			"attempt": attempt,
			"code":    code,
			"error":   lastErr,
		}).Warn("텔레그램 메시지 전송에 실패했습니다")

		if !retriable(code) || attempt == telegramMaxAttempts {
			break
		}

		wait := n.retryDelay
		if retryAfter > 0 {
			wait = time.Duration(retryAfter) * time.Second
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return apperrors.Wrap(lastErr, apperrors.Unavailable, "텔레그램 메시지를 전송하지 못했습니다")
}

func telegramErrorCode(err error) (code int, retryAfter int) {
	if apiErr, ok := err.(tgbotapi.Error); ok {
		return apiErr.Code, apiErr.ResponseParameters.RetryAfter
	}
	if apiErr, ok := err.(*tgbotapi.Error); ok {
		return apiErr.Code, apiErr.ResponseParameters.RetryAfter
	}
	return 0, 0
}

// retriable 429는 재시도하고 나머지 4xx는 재시도하지 않습니다. 네트워크 오류(code 0)와 5xx는 재시도합니다.
func retriable(code int) bool {
	if code >= 400 && code < 500 {
		return code == http.StatusTooManyRequests
	}
	return true
}

// splitMessage 줄 단위로 limit 이하의 조각으로 나눕니다. 한 줄이 limit보다 길면 룬 단위로 자릅니다.
func splitMessage(message string, limit int) []string {
	if len([]rune(message)) <= limit {
		return []string{message}
	}

	var chunks []string
	var sb strings.Builder
	size := 0

	flush := func() {
		if sb.Len() > 0 {
			chunks = append(chunks, sb.String())
			sb.Reset()
			size = 0
		}
	}

	for _, line := range strings.Split(message, "\n") {
		runes := []rune(line)
		for len(runes) > limit {
			flush()
			chunks = append(chunks, string(runes[:limit]))
			runes = runes[limit:]
		}

		extra := len(runes)
		if size > 0 {
			extra++
		}
		if size+extra > limit {
			flush()
			extra = len(runes)
		}
		if size > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(string(runes))
		size += extra
	}
	flush()

	return chunks
}
