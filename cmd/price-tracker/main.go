package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/darkkaiser/price-tracker/internal/config"
	"github.com/darkkaiser/price-tracker/internal/crawler"
	"github.com/darkkaiser/price-tracker/internal/crawler/fetcher"
	"github.com/darkkaiser/price-tracker/internal/crawler/scraper"
	"github.com/darkkaiser/price-tracker/internal/matching"
	"github.com/darkkaiser/price-tracker/internal/pkg/version"
	"github.com/darkkaiser/price-tracker/internal/reconcile"
	"github.com/darkkaiser/price-tracker/internal/service"
	"github.com/darkkaiser/price-tracker/internal/service/api"
	"github.com/darkkaiser/price-tracker/internal/service/crawl"
	"github.com/darkkaiser/price-tracker/internal/service/notification"
	"github.com/darkkaiser/price-tracker/internal/service/remap"
	"github.com/darkkaiser/price-tracker/internal/service/report"
	"github.com/darkkaiser/price-tracker/internal/state"
	"github.com/darkkaiser/price-tracker/internal/store/backend"
	applog "github.com/darkkaiser/price-tracker/pkg/log"
)

const (
	banner = `
  ____       _            _____               _
 |  _ \ _ __(_) ___ ___  |_   _| __ __ _  ___| | _____ _ __
 | |_) | '__| |/ __/ _ \   | || '__/ _' |/ __| |/ / _ \ '__|
 |  __/| |  | | (_|  __/   | || | | (_| | (__|   <  __/ |
 |_|   |_|  |_|\___\___|   |_||_|  \__,_|\___|_|\_\___|_|
                                                      %s
--------------------------------------------------------------------------------
`

	// storeCloseTimeout 종료 시 저장소 연결 해제 최대 대기 시간
	storeCloseTimeout = 10 * time.Second
)

func main() {
	configFile := flag.String("config", config.DefaultFilename, "설정 파일 경로")
	flag.Parse()

	// 1. 환경설정 로드 (로그 설정에 필요하므로 가장 먼저 수행한다)
	appConfig, err := config.LoadWithFile(*configFile)
	if err != nil {
		// 로거 초기화 전이므로 표준 에러에 출력
		fmt.Fprintf(os.Stderr, "[FATAL] 환경설정 로드 실패: %v\n", err)
		os.Exit(1)
	}

	// 2. 로그 시스템 초기화
	var logOpts applog.Options
	if appConfig.Debug {
		logOpts = applog.NewDevelopmentOptions(config.AppName, appConfig.LogDir)
	} else {
		logOpts = applog.NewProductionOptions(config.AppName, appConfig.LogDir)
	}
	appLogCloser, err := applog.Setup(logOpts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[FATAL] 로그 시스템 초기화 실패. 서버 구동을 중단합니다. (Cause: %v)\n", err)
		os.Exit(1)
	}
	defer appLogCloser.Close()

	buildInfo := version.Get()
	fmt.Printf(banner, buildInfo.Version)

	applog.WithComponentAndFields("main", applog.Fields(buildInfo.Fields())).Info("서버 초기화 시작")
	for _, w := range appConfig.VerifyRecommendations() {
		applog.WithComponent("main").Warn(w)
	}

	if err := run(appConfig, buildInfo); err != nil {
		applog.WithComponentAndFields("main", applog.Fields{
			"error": err,
		}).Error("서버를 종료합니다")
		appLogCloser.Close()
		os.Exit(1)
	}
}

func run(appConfig *config.AppConfig, buildInfo version.Info) error {
	serviceStopCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 저장소
	collections, err := backend.Open(serviceStopCtx, appConfig.Store)
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), storeCloseTimeout)
		defer cancel()

		if err := collections.Close(ctx); err != nil {
			applog.WithComponentAndFields("main", applog.Fields{
				"error": err,
			}).Error("저장소 연결 해제 실패")
		}
	}()

	// 알림
	notifier, err := notification.New(appConfig.Notification, appConfig.Debug)
	if err != nil {
		return err
	}

	// 크롤러
	s := scraper.New(fetcher.New(fetcher.Config{
		Timeout:       appConfig.HTTPFetch.Timeout,
		MaxRetries:    appConfig.HTTPFetch.MaxRetries,
		MinRetryDelay: appConfig.HTTPFetch.MinRetryDelay,
		MaxRetryDelay: appConfig.HTTPFetch.MaxRetryDelay,
		UserAgents:    appConfig.HTTPFetch.UserAgents,
		MaxBodyBytes:  appConfig.HTTPFetch.MaxBodyBytes,
	}))
	crawlers, err := crawler.BuildAll(appConfig.Markets, s, collections.Markets, appConfig.Crawler.DetailPageInterval)
	if err != nil {
		return err
	}
	marketCrawlers := make([]crawl.MarketCrawler, 0, len(crawlers))
	for _, c := range crawlers {
		marketCrawlers = append(marketCrawlers, c)
	}

	// 파이프라인
	matcher := matching.NewMatcher(collections, matching.NewFuzzyStrategy(nil, appConfig.Matching.Threshold))
	manager := reconcile.NewManager(collections)
	registry := state.NewRegistry()

	// 서비스
	crawlScheduler := crawl.NewScheduler(appConfig.Scheduler.Crawl, marketCrawlers, matcher, manager, collections.CrawlerHistories, registry, notifier)
	remapScheduler := remap.NewScheduler(appConfig.Scheduler.CategoryRemap, remap.NewUpdater(collections), registry)

	services := []service.Service{crawlScheduler, remapScheduler}
	if appConfig.AdminAPI.Enabled {
		handler := api.NewHandler(crawlScheduler, remapScheduler, registry, buildInfo)
		services = append(services, api.NewService(appConfig.AdminAPI, appConfig.Debug, handler, notifier))
	}
	if appConfig.Report.Enabled {
		services = append(services, report.NewService(appConfig.Report, collections, notifier))
	}

	serviceStopWG := &sync.WaitGroup{}
	for _, svc := range services {
		serviceStopWG.Add(1)
		if err := svc.Start(serviceStopCtx, serviceStopWG); err != nil {
			applog.WithComponentAndFields("main", applog.Fields{
				"error": err,
			}).Error("서비스 초기화 실패")

			cancel() // 이미 시작한 서비스도 종료
			serviceStopWG.Wait()
			return err
		}
	}

	termC := make(chan os.Signal, 1)
	signal.Notify(termC, syscall.SIGINT, syscall.SIGTERM)

	applog.WithComponentAndFields("main", applog.Fields{
		"markets": len(marketCrawlers),
	}).Info("서버 가동 완료")

	sig := <-termC

	applog.WithComponentAndFields("main", applog.Fields{
		"signal": sig.String(),
	}).Info("종료 신호를 수신했습니다")
	cancel()
	serviceStopWG.Wait()

	return nil
}
