package notification

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/darkkaiser/price-tracker/internal/config"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

type fakeSender struct {
	mu    sync.Mutex
	texts []string
	errs  []error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return tgbotapi.Message{}, err
		}
	}
	f.texts = append(f.texts, c.(tgbotapi.MessageConfig).Text)
	return tgbotapi.Message{}, nil
}

func newTestTelegram(s sender) *telegramNotifier {
	n := newTelegramWithSender(42, s)
	n.limiter = rate.NewLimiter(rate.Inf, 1)
	n.retryDelay = time.Millisecond
	return n
}

func TestNew_Disabled(t *testing.T) {
	n, err := New(config.NotificationConfig{}, false)
	require.NoError(t, err)
	assert.IsType(t, Noop{}, n)
	assert.NoError(t, n.Notify(context.Background(), "hello"))
}

func TestTelegram_Notify(t *testing.T) {
	s := &fakeSender{}
	n := newTestTelegram(s)

	require.NoError(t, n.Notify(context.Background(), "크롤링 완료"))
	assert.Equal(t, []string{"크롤링 완료"}, s.texts)
}

func TestTelegram_Retry(t *testing.T) {
	t.Run("429는 재시도한다", func(t *testing.T) {
		s := &fakeSender{errs: []error{&tgbotapi.Error{Code: 429, Message: "Too Many Requests"}}}
		n := newTestTelegram(s)

		require.NoError(t, n.Notify(context.Background(), "msg"))
		assert.Len(t, s.texts, 1)
	})

	t.Run("400은 재시도하지 않는다", func(t *testing.T) {
		s := &fakeSender{errs: []error{&tgbotapi.Error{Code: 400, Message: "Bad Request"}}}
		n := newTestTelegram(s)

		assert.Error(t, n.Notify(context.Background(), "msg"))
		assert.Empty(t, s.texts)
	})

	t.Run("재시도 횟수 초과", func(t *testing.T) {
		boom := errors.New("network down")
		s := &fakeSender{errs: []error{boom, boom, boom}}
		n := newTestTelegram(s)

		err := n.Notify(context.Background(), "msg")
		require.Error(t, err)
		assert.ErrorIs(t, err, boom)
	})
}

func TestTelegram_Canceled(t *testing.T) {
	s := &fakeSender{errs: []error{errors.New("network down")}}
	n := newTestTelegram(s)
	n.retryDelay = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	assert.ErrorIs(t, n.Notify(ctx, "msg"), context.Canceled)
}

func TestSplitMessage(t *testing.T) {
	t.Run("짧은 메시지", func(t *testing.T) {
		assert.Equal(t, []string{"a\nb"}, splitMessage("a\nb", 10))
	})

	t.Run("줄 단위 분할", func(t *testing.T) {
		assert.Equal(t, []string{"aaaa\nbbbb", "cccc"}, splitMessage("aaaa\nbbbb\ncccc", 10))
	})

	t.Run("긴 줄은 룬 단위로 자른다", func(t *testing.T) {
		line := strings.Repeat("ж", 25)
		chunks := splitMessage(line, 10)
		assert.Equal(t, []string{strings.Repeat("ж", 10), strings.Repeat("ж", 10), strings.Repeat("ж", 5)}, chunks)
	})
}
