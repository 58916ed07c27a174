// Package report 수집 현황을 정해진 시각에 집계해 알림으로 보냅니다.
package report

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/darkkaiser/price-tracker/internal/config"
	"github.com/darkkaiser/price-tracker/internal/model"
	apperrors "github.com/darkkaiser/price-tracker/internal/pkg/errors"
	"github.com/darkkaiser/price-tracker/internal/pkg/mark"
	"github.com/darkkaiser/price-tracker/internal/service/notification"
	"github.com/darkkaiser/price-tracker/internal/store"
	"github.com/darkkaiser/price-tracker/pkg/cronx"
	applog "github.com/darkkaiser/price-tracker/pkg/log"
	"github.com/robfig/cron/v3"
)

const component = "service.report"

// reportTimeout 집계와 전송을 합친 최대 시간입니다.
const reportTimeout = time.Minute

// MarketStats 마켓별 현황입니다.
type MarketStats struct {
	Name        string
	PriceCount  int
	LastCrawled time.Time
}

// Stats 리포트 한 번의 집계 결과입니다.
type Stats struct {
	Products             int64
	PriceEntries         int64
	UncategorizedItems   int64
	CategorizationIssues int64
	Markets              []MarketStats
}

// Service cron 스케줄에 따라 리포트를 보내는 서비스입니다.
type Service struct {
	timeSpec string

	store    *store.Collections
	notifier notification.Notifier

	cron *cron.Cron

	running   bool
	runningMu sync.Mutex
}

// NewService Service를 생성합니다.
func NewService(cfg config.ReportConfig, c *store.Collections, notifier notification.Notifier) *Service {
	if c == nil {
		panic("store.Collections는 필수입니다")
	}
	if notifier == nil {
		panic("Notifier는 필수입니다")
	}

	return &Service{
		timeSpec: cfg.TimeSpec,
		store:    c,
		notifier: notifier,
	}
}

// Start cron 엔진을 시작합니다. serviceStopCtx가 취소되면 실행 중인 리포트가 끝날 때까지 기다린 뒤 serviceStopWG.Done()을 호출합니다.
func (s *Service) Start(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) error {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()

	applog.WithComponent(component).Info("서비스 시작 진입: 리포트 서비스 초기화 프로세스를 시작합니다")

	if s.running {
		serviceStopWG.Done()
		applog.WithComponent(component).Warn("리포트 서비스가 이미 실행 중입니다 (중복 호출)")
		return nil
	}

	// Recover: 리포트 작업의 panic이 cron 엔진을 멈추지 않도록 합니다.
	// SkipIfStillRunning: 이전 리포트가 끝나지 않았으면 이번 실행을 건너뜁니다.
	logger := cron.VerbosePrintfLogger(applog.StandardLogger())
	c := cron.New(
		cron.WithParser(cronx.StandardParser()),
		cron.WithLogger(logger),
		cron.WithChain(
			cron.Recover(logger),
			cron.SkipIfStillRunning(logger),
		),
	)

	if _, err := c.AddFunc(s.timeSpec, func() {
		// 종료 시 cron.Stop()이 실행 중인 작업을 기다리므로 서비스 컨텍스트와 분리합니다.
		ctx, cancel := context.WithTimeout(context.Background(), reportTimeout)
		defer cancel()

		if err := s.Send(ctx); err != nil {
			applog.WithComponentAndFields(component, applog.Fields{
				"error": err,
			}).Error("리포트를 전송하지 못했습니다")
		}
	}); err != nil {
		serviceStopWG.Done()
		return apperrors.Wrap(err, apperrors.InvalidInput, fmt.Sprintf("리포트 스케줄(time_spec)을 해석할 수 없습니다: '%s'", s.timeSpec))
	}

	c.Start()
	s.cron = c
	s.running = true

	applog.WithComponentAndFields(component, applog.Fields{
		"time_spec": s.timeSpec,
	}).Info("서비스 시작 완료: 리포트 서비스가 정상적으로 초기화되었습니다")

	go func() {
		defer serviceStopWG.Done()

		<-serviceStopCtx.Done()

		s.Stop()
	}()

	return nil
}

// Stop cron 엔진을 멈추고 실행 중인 리포트가 끝날 때까지 기다립니다.
func (s *Service) Stop() {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()

	if !s.running {
		return
	}

	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
	s.cron = nil
	s.running = false

	applog.WithComponent(component).Info("리포트 서비스 종료 완료")
}

// Send 현황을 집계해 알림으로 보냅니다.
func (s *Service) Send(ctx context.Context) error {
	stats, err := s.Collect(ctx)
	if err != nil {
		return err
	}
	return s.notifier.Notify(ctx, stats.String())
}

// Collect 저장소에서 현황을 집계합니다.
func (s *Service) Collect(ctx context.Context) (Stats, error) {
	var stats Stats
	var err error

	if stats.Products, err = s.store.Products.Count(ctx, store.All); err != nil {
		return stats, apperrors.Wrap(err, apperrors.Unavailable, "상품 수를 집계하지 못했습니다")
	}
	if stats.PriceEntries, err = s.store.PriceEntries.Count(ctx, store.All); err != nil {
		return stats, apperrors.Wrap(err, apperrors.Unavailable, "가격 항목 수를 집계하지 못했습니다")
	}
	if stats.UncategorizedItems, err = s.store.Products.Count(ctx, store.Where(store.Eq(model.FieldCategoryID, model.UnsetCategoryID))); err != nil {
		return stats, apperrors.Wrap(err, apperrors.Unavailable, "미분류 상품 수를 집계하지 못했습니다")
	}
	if stats.CategorizationIssues, err = s.store.CategorizationIssues.Count(ctx, store.All); err != nil {
		return stats, apperrors.Wrap(err, apperrors.Unavailable, "카테고리 분류 이슈 수를 집계하지 못했습니다")
	}

	markets, err := s.store.Markets.Find(ctx, store.All)
	if err != nil {
		return stats, apperrors.Wrap(err, apperrors.Unavailable, "마켓 목록을 조회하지 못했습니다")
	}
	for _, m := range markets {
		ms := MarketStats{Name: m.Name}

		n, err := s.store.PriceEntries.Count(ctx, store.Where(store.Eq(model.FieldMarketID, m.ID)))
		if err != nil {
			return stats, apperrors.Wrap(err, apperrors.Unavailable, "마켓별 가격 항목 수를 집계하지 못했습니다")
		}
		ms.PriceCount = int(n)

		h, found, err := s.store.CrawlerHistories.FindOne(ctx, store.Where(store.Eq(model.FieldMarketID, m.ID)))
		if err != nil {
			return stats, apperrors.Wrap(err, apperrors.Unavailable, "크롤링 이력을 조회하지 못했습니다")
		}
		if found {
			ms.LastCrawled = h.Updated
		}

		stats.Markets = append(stats.Markets, ms)
	}
	sort.Slice(stats.Markets, func(i, j int) bool { return stats.Markets[i].Name < stats.Markets[j].Name })

	return stats, nil
}

func (s Stats) String() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%s 가격 수집 현황\n", mark.Report)
	fmt.Fprintf(&sb, "상품: %d (미분류 %d)\n", s.Products, s.UncategorizedItems)
	fmt.Fprintf(&sb, "가격 항목: %d\n", s.PriceEntries)
	fmt.Fprintf(&sb, "카테고리 분류 이슈: %d", s.CategorizationIssues)

	for _, m := range s.Markets {
		last := "없음"
		if !m.LastCrawled.IsZero() {
			last = m.LastCrawled.Local().Format("2006-01-02 15:04")
		}
		fmt.Fprintf(&sb, "\n• %s: 가격 %d, 마지막 크롤링 %s", m.Name, m.PriceCount, last)
	}

	return sb.String()
}
