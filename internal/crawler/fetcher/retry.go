package fetcher

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"

	applog "github.com/darkkaiser/price-tracker/pkg/log"
)

const maxAllowedRetries = 10

// RetryFetcher 일시적인 실패(네트워크 오류, 5xx, 429, 408)를 지수 백오프로 재시도합니다.
// 멱등(idempotent) 메서드만 재시도합니다.
type RetryFetcher struct {
	delegate      Fetcher
	maxRetries    int
	minRetryDelay time.Duration
	maxRetryDelay time.Duration
}

var _ Fetcher = (*RetryFetcher)(nil)

func NewRetryFetcher(delegate Fetcher, maxRetries int, minRetryDelay, maxRetryDelay time.Duration) *RetryFetcher {
	maxRetries = max(0, min(maxRetries, maxAllowedRetries))
	if minRetryDelay <= 0 {
		minRetryDelay = time.Second
	}
	if maxRetryDelay < minRetryDelay {
		maxRetryDelay = minRetryDelay
	}

	return &RetryFetcher{
		delegate:      delegate,
		maxRetries:    maxRetries,
		minRetryDelay: minRetryDelay,
		maxRetryDelay: maxRetryDelay,
	}
}

func (f *RetryFetcher) Do(req *http.Request) (*http.Response, error) {
	retries := f.maxRetries
	if !isIdempotentMethod(req.Method) || (req.Body != nil && req.GetBody == nil) {
		retries = 0
	}

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			delay := f.backoff(attempt, lastErr)

			applog.WithComponent(component).WithContext(req.Context()).WithFields(applog.Fields{
				"url":         req.URL.Redacted(),
				"retry":       attempt,
				"max_retries": retries,
				"delay":       delay.String(),
				"error":       lastErr.Error(),
			}).Warn("재시도 대기 중: 일시적 오류로 인해 요청 재시도를 준비합니다")

			timer := time.NewTimer(delay)
			select {
			case <-req.Context().Done():
				timer.Stop()
				return nil, req.Context().Err()
			case <-timer.C:
			}

			if req.GetBody != nil {
				body, err := req.GetBody()
				if err != nil {
					return nil, err
				}
				req = req.Clone(req.Context())
				req.Body = body
			}
		}

		resp, err := f.delegate.Do(req)
		if err == nil {
			return resp, nil
		}
		if resp != nil {
			drainAndCloseBody(resp.Body)
		}

		if req.Context().Err() != nil || !isRetriable(err) {
			return nil, err
		}
		lastErr = err
	}

	return nil, lastErr
}

// backoff 지수 백오프에 Full Jitter를 적용합니다. 서버가 Retry-After를 보냈다면 그 값을 우선합니다.
func (f *RetryFetcher) backoff(attempt int, lastErr error) time.Duration {
	var statusErr *HTTPStatusError
	if errors.As(lastErr, &statusErr) {
		if d, ok := parseRetryAfter(statusErr.Header.Get("Retry-After")); ok {
			return min(d, f.maxRetryDelay)
		}
	}

	delay := f.minRetryDelay * time.Duration(1<<(attempt-1))
	if delay > f.maxRetryDelay || delay <= 0 {
		delay = f.maxRetryDelay
	}
	delay = time.Duration(rand.Int64N(int64(delay) + 1))
	if delay < time.Millisecond {
		delay = f.minRetryDelay
	}
	return delay
}

func isRetriable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return statusErr.Retriable()
	}

	var tooLarge *responseTooLargeError
	if errors.As(err, &tooLarge) {
		return false
	}

	// 그 외의 오류는 네트워크 계층의 일시적 오류로 간주합니다.
	return true
}

func isIdempotentMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodPut, http.MethodDelete, "":
		return true
	}
	return false
}

// parseRetryAfter 초 단위 숫자 또는 HTTP 날짜 형식을 지원합니다.
func parseRetryAfter(v string) (time.Duration, bool) {
	if v == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second, true
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d, true
		}
		return 0, true
	}
	return 0, false
}
