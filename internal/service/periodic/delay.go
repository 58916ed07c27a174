// Package periodic 주기 작업 루프가 사용하는 취소 가능한 대기를 제공합니다.
package periodic

import (
	"context"
	"sync"
	"time"
)

// Delay 주기 작업 루프의 대기 구간입니다.
//
// 루프 고루틴만 Sleep과 TakePending을 호출하고, 다른 고루틴은 Request로 대기를 끝내달라는 메시지를 보냅니다.
// 처리되지 않은 요청은 최대 하나이며, 나중에 들어온 요청이 이전 요청을 대체합니다.
type Delay[R any] struct {
	mu       sync.Mutex
	requests chan R
}

// NewDelay Delay를 생성합니다.
func NewDelay[R any]() *Delay[R] {
	return &Delay[R]{requests: make(chan R, 1)}
}

// Request 현재(또는 다음) 대기를 즉시 끝내도록 요청합니다. 블로킹하지 않습니다.
// 처리되지 않은 요청이 있었다면 새 요청으로 바꾸고 true를 반환합니다.
func (d *Delay[R]) Request(r R) (replaced bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	select {
	case <-d.requests:
		replaced = true
	default:
	}

	// 송신은 d.mu 아래에서만 일어나므로 방금 비운 버퍼는 비어 있습니다.
	d.requests <- r

	return replaced
}

// TakePending 처리되지 않은 요청이 있으면 꺼내서 반환합니다. 블로킹하지 않습니다.
func (d *Delay[R]) TakePending() (R, bool) {
	select {
	case r := <-d.requests:
		return r, true
	default:
		var zero R
		return zero, false
	}
}

// Sleep d 동안 대기합니다.
//
// 요청을 받아 대기가 끝나면 (요청, true, nil)을, 시간이 다 되면 (zero, false, nil)을 반환합니다.
// ctx가 취소되면 ctx.Err()를 반환합니다.
func (d *Delay[R]) Sleep(ctx context.Context, duration time.Duration) (R, bool, error) {
	var zero R

	timer := time.NewTimer(duration)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return zero, false, ctx.Err()
	case r := <-d.requests:
		return r, true, nil
	case <-timer.C:
		return zero, false, nil
	}
}
