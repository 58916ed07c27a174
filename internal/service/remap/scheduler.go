package remap

import (
	"context"
	"sync"
	"time"

	"github.com/darkkaiser/price-tracker/internal/config"
	"github.com/darkkaiser/price-tracker/internal/service/periodic"
	"github.com/darkkaiser/price-tracker/internal/state"
	applog "github.com/darkkaiser/price-tracker/pkg/log"
)

// Runner 재매핑 한 번을 실행합니다.
type Runner interface {
	Run(ctx context.Context) (Result, error)
}

// Scheduler 카테고리 재매핑을 주기적으로 실행하는 서비스입니다.
//
// 크롤링 주기가 실행 중이면 상품 목록이 변경되는 중이므로 작업하지 않고 retry_period 후에 다시 확인합니다.
type Scheduler struct {
	cfg config.RemapSchedulerConfig

	runner   Runner
	registry *state.Registry

	delay *periodic.Delay[struct{}]

	// transitionMu SkipDelay의 상태 확인 및 요청 접수와 루프의 Running 전환을 직렬화합니다.
	transitionMu sync.Mutex

	running   bool
	runningMu sync.Mutex
}

// NewScheduler Scheduler를 생성합니다.
func NewScheduler(cfg config.RemapSchedulerConfig, runner Runner, registry *state.Registry) *Scheduler {
	if runner == nil {
		panic("Runner는 필수입니다")
	}
	if registry == nil {
		panic("state.Registry는 필수입니다")
	}

	return &Scheduler{
		cfg:      cfg,
		runner:   runner,
		registry: registry,
		delay:    periodic.NewDelay[struct{}](),
	}
}

// Start 재매핑 루프를 고루틴으로 시작합니다. 루프가 끝나면 serviceStopWG.Done()을 호출합니다.
func (s *Scheduler) Start(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) error {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()

	applog.WithComponent(component).Info("서비스 시작 진입: 카테고리 재매핑 서비스 초기화 프로세스를 시작합니다")

	if s.running {
		serviceStopWG.Done()
		applog.WithComponent(component).Warn("카테고리 재매핑 서비스가 이미 실행 중입니다 (중복 호출)")
		return nil
	}
	s.running = true

	applog.WithComponentAndFields(component, applog.Fields{
		"execute_period": s.cfg.ExecutePeriod.String(),
		"retry_period":   s.cfg.RetryPeriod.String(),
	}).Info("서비스 시작 완료: 카테고리 재매핑 서비스가 정상적으로 초기화되었습니다")

	go func() {
		defer serviceStopWG.Done()
		defer func() {
			s.runningMu.Lock()
			s.running = false
			s.runningMu.Unlock()
		}()

		s.run(serviceStopCtx)
	}()

	return nil
}

// SkipDelay 현재 대기를 끝내고 재매핑을 즉시 실행하도록 요청합니다.
// 처리되지 않은 요청이 이미 있으면 하나로 합칩니다.
func (s *Scheduler) SkipDelay() error {
	s.runningMu.Lock()
	running := s.running
	s.runningMu.Unlock()
	if !running {
		return ErrNotStarted
	}

	s.transitionMu.Lock()
	defer s.transitionMu.Unlock()

	if s.registry.Get(state.CrawlService) == state.Running {
		return ErrCrawlRunning
	}
	if s.registry.Get(state.CategoryRemapService) == state.Running {
		return ErrAlreadyRunning
	}

	replaced := s.delay.Request(struct{}{})

	applog.WithComponentAndFields(component, applog.Fields{
		"replaced": replaced,
	}).Info("즉시 카테고리 재매핑 요청을 접수했습니다")
	return nil
}

func (s *Scheduler) run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			break
		}

		period := s.cfg.ExecutePeriod
		if s.registry.Get(state.CrawlService) == state.Running {
			applog.WithComponentAndFields(component, applog.Fields{
				"retry_period": s.cfg.RetryPeriod.String(),
			}).Debug("마켓 크롤러가 실행 중이므로 카테고리 재매핑을 미룹니다")
			period = s.cfg.RetryPeriod
		} else {
			s.runOnce(ctx)
		}

		if _, _, err := s.delay.Sleep(ctx, period); err != nil {
			break
		}
	}

	applog.WithComponent(component).Info("카테고리 재매핑 서비스 종료 완료")
}

// beginRun 상태를 Running으로 바꿉니다. 전환 직전에 접수된 요청은 이번 실행으로 처리된 것으로 봅니다.
func (s *Scheduler) beginRun() {
	s.transitionMu.Lock()
	defer s.transitionMu.Unlock()

	s.delay.TakePending()
	s.registry.Set(state.CategoryRemapService, state.Running)
}

func (s *Scheduler) runOnce(ctx context.Context) {
	s.beginRun()
	defer s.registry.Set(state.CategoryRemapService, state.Idle)

	started := time.Now()
	if _, err := s.runner.Run(ctx); err != nil {
		if ctx.Err() != nil {
			applog.WithComponent(component).Info("카테고리 재매핑이 취소되었습니다")
			return
		}
		applog.WithComponentAndFields(component, applog.Fields{
			"error": err,
		}).Error("카테고리 재매핑에 실패했습니다")
		return
	}

	applog.WithComponentAndFields(component, applog.Fields{
		"elapsed": time.Since(started).String(),
	}).Debug("카테고리 재매핑 주기 종료")
}
