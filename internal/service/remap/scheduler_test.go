package remap

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/darkkaiser/price-tracker/internal/config"
	"github.com/darkkaiser/price-tracker/internal/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeRunner struct {
	runs    atomic.Int32
	block   chan struct{}
	started chan struct{}
}

func (r *fakeRunner) Run(ctx context.Context) (Result, error) {
	r.runs.Add(1)
	if r.started != nil {
		select {
		case r.started <- struct{}{}:
		default:
		}
	}
	if r.block != nil {
		select {
		case <-r.block:
		case <-ctx.Done():
			return Result{}, ctx.Err()
		}
	}
	return Result{}, nil
}

func testConfig() config.RemapSchedulerConfig {
	return config.RemapSchedulerConfig{ExecutePeriod: time.Hour, RetryPeriod: 10 * time.Millisecond}
}

func startScheduler(t *testing.T, s *Scheduler) (context.CancelFunc, *sync.WaitGroup) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	wg := &sync.WaitGroup{}
	wg.Add(1)
	require.NoError(t, s.Start(ctx, wg))
	return cancel, wg
}

func TestNewScheduler_PanicsOnMissingDependencies(t *testing.T) {
	assert.Panics(t, func() { NewScheduler(testConfig(), nil, state.NewRegistry()) })
	assert.Panics(t, func() { NewScheduler(testConfig(), &fakeRunner{}, nil) })
}

func TestScheduler_RunsImmediatelyAndOnSkip(t *testing.T) {
	runner := &fakeRunner{}
	registry := state.NewRegistry()
	s := NewScheduler(testConfig(), runner, registry)

	cancel, wg := startScheduler(t, s)
	defer func() {
		cancel()
		wg.Wait()
	}()

	require.Eventually(t, func() bool {
		return runner.runs.Load() == 1 && registry.Get(state.CategoryRemapService) == state.Idle
	}, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, s.SkipDelay())
	require.Eventually(t, func() bool { return runner.runs.Load() == 2 }, 2*time.Second, 5*time.Millisecond)
}

func TestScheduler_WaitsWhileCrawlRunning(t *testing.T) {
	runner := &fakeRunner{}
	registry := state.NewRegistry()
	registry.Set(state.CrawlService, state.Running)
	s := NewScheduler(testConfig(), runner, registry)

	cancel, wg := startScheduler(t, s)
	defer func() {
		cancel()
		wg.Wait()
	}()

	// 여러 번의 재시도 주기 동안 실행되지 않아야 합니다.
	time.Sleep(50 * time.Millisecond)
	assert.EqualValues(t, 0, runner.runs.Load())

	err := s.SkipDelay()
	assert.ErrorIs(t, err, ErrCrawlRunning)

	registry.Set(state.CrawlService, state.Idle)
	require.Eventually(t, func() bool { return runner.runs.Load() == 1 }, 2*time.Second, 5*time.Millisecond)
}

func TestScheduler_SkipDelay_AlreadyRunning(t *testing.T) {
	runner := &fakeRunner{block: make(chan struct{}), started: make(chan struct{}, 1)}
	registry := state.NewRegistry()
	s := NewScheduler(testConfig(), runner, registry)

	cancel, wg := startScheduler(t, s)
	defer func() {
		cancel()
		wg.Wait()
	}()

	<-runner.started
	assert.ErrorIs(t, s.SkipDelay(), ErrAlreadyRunning)
	close(runner.block)

	require.Eventually(t, func() bool {
		return registry.Get(state.CategoryRemapService) == state.Idle
	}, 2*time.Second, 5*time.Millisecond)
}

func TestScheduler_SkipDelay_NotStartedAndCoalesced(t *testing.T) {
	s := NewScheduler(testConfig(), &fakeRunner{}, state.NewRegistry())
	assert.ErrorIs(t, s.SkipDelay(), ErrNotStarted)

	s.running = true
	require.NoError(t, s.SkipDelay())
	require.NoError(t, s.SkipDelay(), "처리되지 않은 요청이 있어도 다시 접수되어야 합니다")

	_, pending := s.delay.TakePending()
	assert.True(t, pending)
	_, pending = s.delay.TakePending()
	assert.False(t, pending, "요청은 하나로 합쳐져야 합니다")

	require.NoError(t, s.SkipDelay())
	s.beginRun()
	assert.Equal(t, state.Running, s.registry.Get(state.CategoryRemapService))
	_, pending = s.delay.TakePending()
	assert.False(t, pending, "전환 직전에 접수된 요청은 이번 실행에 포함되어야 합니다")
	assert.ErrorIs(t, s.SkipDelay(), ErrAlreadyRunning)
}

func TestScheduler_Start_Duplicate(t *testing.T) {
	s := NewScheduler(testConfig(), &fakeRunner{}, state.NewRegistry())

	ctx, cancel := context.WithCancel(context.Background())
	wg := &sync.WaitGroup{}
	wg.Add(1)
	require.NoError(t, s.Start(ctx, wg))
	wg.Add(1)
	require.NoError(t, s.Start(ctx, wg))

	cancel()
	wg.Wait()
}
