package periodic

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestDelay_Timeout(t *testing.T) {
	d := NewDelay[bool]()

	started := time.Now()
	r, skipped, err := d.Sleep(context.Background(), 20*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, skipped)
	assert.False(t, r)
	assert.GreaterOrEqual(t, time.Since(started), 20*time.Millisecond)
}

func TestDelay_Request(t *testing.T) {
	d := NewDelay[bool]()

	go func() {
		time.Sleep(10 * time.Millisecond)
		assert.False(t, d.Request(true))
	}()

	r, skipped, err := d.Sleep(context.Background(), time.Hour)
	require.NoError(t, err)
	assert.True(t, skipped)
	assert.True(t, r)
}

func TestDelay_RequestBeforeSleep(t *testing.T) {
	d := NewDelay[string]()

	assert.False(t, d.Request("first"))
	assert.True(t, d.Request("second"), "처리되지 않은 요청은 교체되어야 합니다")

	r, skipped, err := d.Sleep(context.Background(), time.Hour)
	require.NoError(t, err)
	assert.True(t, skipped)
	assert.Equal(t, "second", r, "나중에 들어온 요청이 유지되어야 합니다")

	_, pending := d.TakePending()
	assert.False(t, pending, "요청은 한 번만 소비되어야 합니다")
	assert.False(t, d.Request("third"), "요청을 소비한 뒤에는 새 요청으로 접수되어야 합니다")
}

func TestDelay_TakePending(t *testing.T) {
	d := NewDelay[int]()

	_, ok := d.TakePending()
	assert.False(t, ok)

	d.Request(1)
	d.Request(2)
	r, ok := d.TakePending()
	require.True(t, ok)
	assert.Equal(t, 2, r)

	_, ok = d.TakePending()
	assert.False(t, ok)
}

func TestDelay_ConcurrentRequests(t *testing.T) {
	d := NewDelay[int]()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.Request(i)
		}()
	}
	wg.Wait()

	_, ok := d.TakePending()
	assert.True(t, ok)
	_, ok = d.TakePending()
	assert.False(t, ok, "처리되지 않은 요청은 최대 하나여야 합니다")
}

func TestDelay_Canceled(t *testing.T) {
	d := NewDelay[bool]()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, skipped, err := d.Sleep(ctx, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, skipped)
}
