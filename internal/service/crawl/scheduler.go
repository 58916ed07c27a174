// Package crawl 마켓 크롤러를 주기적으로 실행하고 결과를 매칭해 저장소에 반영합니다.
package crawl

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/darkkaiser/price-tracker/internal/config"
	"github.com/darkkaiser/price-tracker/internal/crawler"
	"github.com/darkkaiser/price-tracker/internal/model"
	"github.com/darkkaiser/price-tracker/internal/pkg/mark"
	"github.com/darkkaiser/price-tracker/internal/reconcile"
	"github.com/darkkaiser/price-tracker/internal/service/notification"
	"github.com/darkkaiser/price-tracker/internal/service/periodic"
	"github.com/darkkaiser/price-tracker/internal/state"
	"github.com/darkkaiser/price-tracker/internal/store"
	applog "github.com/darkkaiser/price-tracker/pkg/log"
)

const component = "service.crawl"

// notifyTimeout 알림 전송이 크롤링 주기를 오래 붙잡지 않도록 제한합니다.
const notifyTimeout = 30 * time.Second

// MarketCrawler 마켓 하나의 크롤러입니다.
type MarketCrawler interface {
	Key() string
	Name() string
	MarketID(ctx context.Context) (string, error)
	Crawl(ctx context.Context, parseDetailPages bool) (*crawler.Result, error)
}

// ProductMatcher 크롤링 결과를 기존 상품과 매칭합니다.
type ProductMatcher interface {
	MatchOrCreateProducts(ctx context.Context, batch []model.ParsedProduct) ([]model.MatchResult, error)
}

// Reconciler 매칭 결과를 저장소에 반영합니다.
type Reconciler interface {
	Upsert(ctx context.Context, results []model.MatchResult) reconcile.Summary
}

// Scheduler 크롤링 주기를 실행하는 서비스입니다.
//
// 주기마다 모든 크롤러를 확인해 갱신 주기가 지났거나 이력이 없는 마켓만 크롤링합니다.
// SkipDelay로 대기를 건너뛰면 다음 주기는 모든 마켓을 크롤링합니다.
type Scheduler struct {
	cfg config.CrawlSchedulerConfig

	crawlers   []MarketCrawler
	matcher    ProductMatcher
	reconciler Reconciler
	histories  store.Collection[*model.CrawlerHistory]
	registry   *state.Registry
	notifier   notification.Notifier

	delay *periodic.Delay[bool]

	// transitionMu SkipDelay의 상태 확인 및 요청 접수와 루프의 Running 전환을 직렬화합니다.
	transitionMu sync.Mutex

	now func() time.Time

	running   bool
	runningMu sync.Mutex
}

// NewScheduler Scheduler를 생성합니다. notifier가 nil이면 알림을 보내지 않습니다.
func NewScheduler(cfg config.CrawlSchedulerConfig, crawlers []MarketCrawler, matcher ProductMatcher, reconciler Reconciler,
	histories store.Collection[*model.CrawlerHistory], registry *state.Registry, notifier notification.Notifier) *Scheduler {
	if matcher == nil {
		panic("ProductMatcher는 필수입니다")
	}
	if reconciler == nil {
		panic("Reconciler는 필수입니다")
	}
	if histories == nil {
		panic("CrawlerHistory 컬렉션은 필수입니다")
	}
	if registry == nil {
		panic("state.Registry는 필수입니다")
	}
	if notifier == nil {
		notifier = notification.Noop{}
	}

	return &Scheduler{
		cfg:        cfg,
		crawlers:   crawlers,
		matcher:    matcher,
		reconciler: reconciler,
		histories:  histories,
		registry:   registry,
		notifier:   notifier,
		delay:      periodic.NewDelay[bool](),
		now:        time.Now,
	}
}

// Start 크롤링 루프를 고루틴으로 시작합니다. 루프가 끝나면 serviceStopWG.Done()을 호출합니다.
func (s *Scheduler) Start(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) error {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()

	applog.WithComponent(component).Info("서비스 시작 진입: 마켓 크롤러 서비스 초기화 프로세스를 시작합니다")

	if s.running {
		serviceStopWG.Done()
		applog.WithComponent(component).Warn("마켓 크롤러 서비스가 이미 실행 중입니다 (중복 호출)")
		return nil
	}
	s.running = true

	names := make([]string, 0, len(s.crawlers))
	for _, c := range s.crawlers {
		names = append(names, c.Name())
	}
	applog.WithComponentAndFields(component, applog.Fields{
		"crawlers":       strings.Join(names, ", "),
		"execute_period": s.cfg.ExecutePeriod.String(),
		"update_period":  s.cfg.UpdatePeriod.String(),
	}).Info("서비스 시작 완료: 마켓 크롤러 서비스가 정상적으로 초기화되었습니다")

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

// SkipDelay 현재 대기를 끝내고 모든 마켓을 즉시 크롤링하도록 요청합니다.
// 크롤링 주기가 실행 중이면 ErrAlreadyRunning을 반환하며 아무것도 바꾸지 않습니다.
// 처리되지 않은 요청이 이미 있으면 이번 요청의 parseDetailPages로 대체합니다.
func (s *Scheduler) SkipDelay(parseDetailPages bool) error {
	s.runningMu.Lock()
	running := s.running
	s.runningMu.Unlock()
	if !running {
		return ErrNotStarted
	}

	s.transitionMu.Lock()
	defer s.transitionMu.Unlock()

	if s.registry.Get(state.CrawlService) == state.Running {
		return ErrAlreadyRunning
	}

	replaced := s.delay.Request(parseDetailPages)

	applog.WithComponentAndFields(component, applog.Fields{
		"parse_detail_pages": parseDetailPages,
		"replaced":           replaced,
	}).Info("즉시 크롤링 요청을 접수했습니다")

	return nil
}

func (s *Scheduler) run(ctx context.Context) {
	forced := false
	parseDetailPages := true

	for {
		if ctx.Err() != nil {
			break
		}

		forced, parseDetailPages = s.beginCycle(forced, parseDetailPages)
		s.runCycle(ctx, forced, parseDetailPages)
		s.registry.Set(state.CrawlService, state.Idle)

		req, skipped, err := s.delay.Sleep(ctx, s.cfg.ExecutePeriod)
		if err != nil {
			break
		}

		forced = skipped
		parseDetailPages = true
		if skipped {
			parseDetailPages = req
		}
	}

	applog.WithComponent(component).Info("마켓 크롤러 서비스 종료 완료")
}

// beginCycle 상태를 Running으로 바꿉니다.
// 대기가 끝난 뒤 접수된 즉시 실행 요청이 있으면 이번 주기를 그 요청대로 실행합니다.
func (s *Scheduler) beginCycle(forced, parseDetailPages bool) (bool, bool) {
	s.transitionMu.Lock()
	defer s.transitionMu.Unlock()

	if req, ok := s.delay.TakePending(); ok {
		forced, parseDetailPages = true, req
	}
	s.registry.Set(state.CrawlService, state.Running)

	return forced, parseDetailPages
}

// runCycle 갱신이 필요한 마켓을 차례로 크롤링합니다. 한 마켓의 실패는 다른 마켓에 영향을 주지 않습니다.
func (s *Scheduler) runCycle(ctx context.Context, forced, parseDetailPages bool) {
	for _, c := range s.crawlers {
		if ctx.Err() != nil {
			return
		}

		history, due, err := s.isDue(ctx, c, forced)
		if err != nil {
			if ctx.Err() == nil {
				applog.WithComponentAndFields(component, applog.Fields{
					"market": c.Name(),
					"error":  err,
				}).Error("크롤링 이력을 확인하지 못해 마켓을 건너뜁니다")
			}
			continue
		}
		if !due {
			applog.WithComponentAndFields(component, applog.Fields{
				"market":  c.Name(),
				"updated": history.Updated.Format(time.RFC3339),
			}).Info("최근에 크롤링한 마켓이므로 건너뜁니다")
			continue
		}

		s.crawlMarket(ctx, c, parseDetailPages)
	}
}

// isDue 강제 실행이거나, 이력이 없거나, 마지막 크롤링이 갱신 주기보다 오래되었으면 true입니다.
func (s *Scheduler) isDue(ctx context.Context, c MarketCrawler, forced bool) (*model.CrawlerHistory, bool, error) {
	marketID, err := c.MarketID(ctx)
	if err != nil {
		return nil, false, err
	}

	history, found, err := s.histories.FindOne(ctx, store.Where(store.Eq(model.FieldMarketID, marketID)))
	if err != nil {
		return nil, false, err
	}

	if forced || !found {
		return history, true, nil
	}
	return history, s.now().Sub(history.Updated) > s.cfg.UpdatePeriod, nil
}

func (s *Scheduler) crawlMarket(ctx context.Context, c MarketCrawler, parseDetailPages bool) {
	started := s.now()
	logger := applog.WithComponentAndFields(component, applog.Fields{
		"market": c.Name(),
	})
	logger.WithField("parse_detail_pages", parseDetailPages).Info("마켓 크롤링을 시작합니다")

	result, err := s.crawlWithProgress(ctx, c, parseDetailPages, started)
	if err != nil {
		if ctx.Err() != nil {
			logger.Info("마켓 크롤링이 취소되었습니다")
			return
		}
		logger.WithField("error", err).Error("마켓 크롤링에 실패했습니다")
		s.notify(ctx, fmt.Sprintf("%s %s 크롤링 실패\n%v", mark.Alert, c.Name(), err))
		return
	}

	results, err := s.matcher.MatchOrCreateProducts(ctx, result.Products())
	if err != nil {
		if ctx.Err() != nil {
			logger.Info("상품 매칭이 취소되었습니다")
			return
		}
		logger.WithField("error", err).Error("상품 매칭에 실패했습니다")
		s.notify(ctx, fmt.Sprintf("%s %s 상품 매칭 실패\n%v", mark.Alert, c.Name(), err))
		return
	}

	summary := s.reconciler.Upsert(ctx, results)
	if ctx.Err() != nil {
		logger.Info("매칭 결과 반영이 취소되었습니다")
		return
	}

	marketID, err := c.MarketID(ctx)
	if err == nil {
		err = store.TouchCrawlerHistory(ctx, s.histories, marketID, s.now().UTC())
	}
	if err != nil {
		logger.WithField("error", err).Error("크롤링 이력을 갱신하지 못했습니다")
	}

	elapsed := formatElapsed(s.now().Sub(started))
	logger.WithFields(applog.Fields{
		"products": result.Len(),
		"elapsed":  elapsed,
	}).Info("마켓 크롤링을 완료했습니다")

	s.notify(ctx, cycleMessage(c.Name(), result.Len(), summary, elapsed))
}

// crawlWithProgress 크롤링하는 동안 progress_interval마다 경과 시간을 기록합니다. 기록은 크롤링에 영향을 주지 않습니다.
func (s *Scheduler) crawlWithProgress(ctx context.Context, c MarketCrawler, parseDetailPages bool, started time.Time) (*crawler.Result, error) {
	done := make(chan struct{})
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()

		ticker := time.NewTicker(s.cfg.ProgressInterval)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				applog.WithComponentAndFields(component, applog.Fields{
					"market":  c.Name(),
					"elapsed": formatElapsed(s.now().Sub(started)),
				}).Info("마켓 크롤링 진행 중")
			}
		}
	}()

	result, err := c.Crawl(ctx, parseDetailPages)
	close(done)
	wg.Wait()

	return result, err
}

func (s *Scheduler) notify(ctx context.Context, message string) {
	ctx, cancel := context.WithTimeout(ctx, notifyTimeout)
	defer cancel()

	if err := s.notifier.Notify(ctx, message); err != nil && ctx.Err() == nil {
		applog.WithComponentAndFields(component, applog.Fields{
			"error": err,
		}).Warn("알림을 전송하지 못했습니다")
	}
}

func cycleMessage(market string, products int, s reconcile.Summary, elapsed string) string {
	var sb strings.Builder
	icon := mark.Success
	if s.HasFailures() {
		icon = mark.Warning
	}
	fmt.Fprintf(&sb, "%s %s 크롤링 완료 (%s)\n", icon, market, elapsed)
	fmt.Fprintf(&sb, "수집 상품: %d\n", products)
	fmt.Fprintf(&sb, "상품 생성/갱신/삭제: %d/%d/%d\n", s.ProductsCreated, s.ProductsUpdated, s.ProductsDeleted)
	fmt.Fprintf(&sb, "가격 생성/갱신/삭제: %d/%d/%d", s.PriceEntriesCreated, s.PriceEntriesUpdated, s.PriceEntriesDeleted)
	if s.ProductsCreated > 0 {
		fmt.Fprintf(&sb, "\n%s 새 상품 %d개", mark.New, s.ProductsCreated)
	}
	if s.PriceEntriesUpdated > 0 {
		fmt.Fprintf(&sb, "\n%s 가격 갱신 %d건", mark.Modified, s.PriceEntriesUpdated)
	}
	if s.ProductsDeleted > 0 {
		fmt.Fprintf(&sb, "\n%s 판매 종료 상품 %d개", mark.Removed, s.ProductsDeleted)
	}
	if s.HasFailures() {
		fmt.Fprintf(&sb, "\n반영 실패: %s", strings.Join(s.Failed, ", "))
	}
	return sb.String()
}

// formatElapsed hh:mm:ss
func formatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, total%3600/60, total%60)
}
