// Package api 크롤링 강제 실행 등 운영 명령을 받는 관리용 HTTP 서버를 제공합니다.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/darkkaiser/price-tracker/internal/config"
	"github.com/darkkaiser/price-tracker/internal/service/notification"
	applog "github.com/darkkaiser/price-tracker/pkg/log"
	"github.com/labstack/echo/v4"
)

const component = "api.service"

// shutdownTimeout Graceful Shutdown 최대 대기 시간
const shutdownTimeout = 5 * time.Second

// Service 관리 API 서버의 생명주기를 관리합니다.
//
// Start로 시작하면 서버는 별도 고루틴에서 실행되고, serviceStopCtx가 취소되면 Graceful Shutdown 후 종료합니다.
type Service struct {
	cfg   config.AdminAPIConfig
	debug bool

	handler  *Handler
	notifier notification.Notifier

	running   bool
	runningMu sync.Mutex
}

// NewService Service를 생성합니다. notifier가 nil이면 서버 오류를 알리지 않습니다.
func NewService(cfg config.AdminAPIConfig, debug bool, handler *Handler, notifier notification.Notifier) *Service {
	if handler == nil {
		panic("Handler는 필수입니다")
	}
	if notifier == nil {
		notifier = notification.Noop{}
	}

	return &Service{
		cfg:      cfg,
		debug:    debug,
		handler:  handler,
		notifier: notifier,
	}
}

// Start API 서버를 시작합니다. 서버가 완전히 종료되면 serviceStopWG.Done()을 호출합니다.
func (s *Service) Start(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) error {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()

	applog.WithComponent(component).Info("서비스 시작 진입: 관리 API 서비스 초기화 프로세스를 시작합니다")

	if s.running {
		defer serviceStopWG.Done()
		applog.WithComponent(component).Warn("관리 API 서비스가 이미 실행 중입니다 (중복 호출)")
		return nil
	}
	s.running = true

	go s.runServiceLoop(serviceStopCtx, serviceStopWG)

	applog.WithComponentAndFields(component, applog.Fields{
		"port":       s.cfg.ListenPort,
		"admin_auth": s.cfg.AdminKey != "",
	}).Info("서비스 시작 완료: 관리 API 서비스가 정상적으로 초기화되었습니다")

	return nil
}

func (s *Service) runServiceLoop(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) {
	defer serviceStopWG.Done()

	e := s.setupServer()

	httpServerDone := make(chan struct{})
	go s.startHTTPServer(serviceStopCtx, e, httpServerDone)

	s.waitForShutdown(serviceStopCtx, e, httpServerDone)
}

func (s *Service) setupServer() *echo.Echo {
	e := NewHTTPServer(HTTPServerConfig{Debug: s.debug})
	SetupRoutes(e, s.handler, s.cfg.AdminKey)
	return e
}

// startHTTPServer 서버가 종료될 때까지 블로킹합니다. 종료되면 done을 닫습니다.
func (s *Service) startHTTPServer(ctx context.Context, e *echo.Echo, done chan struct{}) {
	defer close(done)

	applog.WithComponentAndFields(component, applog.Fields{
		"port": s.cfg.ListenPort,
	}).Debug("HTTP 서버를 시작합니다")

	s.handleServerError(ctx, e.Start(fmt.Sprintf(":%d", s.cfg.ListenPort)))
}

// handleServerError 정상 종료(http.ErrServerClosed)가 아닌 에러는 기록하고 알립니다.
func (s *Service) handleServerError(ctx context.Context, err error) {
	if err == nil {
		return
	}
	if errors.Is(err, http.ErrServerClosed) {
		applog.WithComponent(component).Info("HTTP 서버가 종료되었습니다")
		return
	}

	message := "관리 API 서버를 구동하는 중에 치명적인 오류가 발생했습니다"
	applog.WithComponentAndFields(component, applog.Fields{
		"port":  s.cfg.ListenPort,
		"error": err,
	}).Error(message)

	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if nerr := s.notifier.Notify(notifyCtx, fmt.Sprintf("%s\n\n%v", message, err)); nerr != nil {
		applog.WithComponentAndFields(component, applog.Fields{
			"error": nerr,
		}).Warn("서버 오류 알림을 전송하지 못했습니다")
	}
}

func (s *Service) waitForShutdown(serviceStopCtx context.Context, e *echo.Echo, httpServerDone chan struct{}) {
	select {
	case <-serviceStopCtx.Done():
		applog.WithComponent(component).Info("관리 API 서비스 중지 중...")
	case <-httpServerDone:
		// 포트 바인딩 실패 등으로 서버가 먼저 종료되었으므로 Shutdown이 필요 없습니다.
		applog.WithComponent(component).Error("HTTP 서버가 예기치 않게 종료되었습니다")
		s.cleanup()
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		applog.WithComponentAndFields(component, applog.Fields{
			"error": err,
		}).Error("HTTP 서버 종료 중 오류가 발생했습니다")
	}

	<-httpServerDone

	s.cleanup()
}

func (s *Service) cleanup() {
	s.runningMu.Lock()
	s.running = false
	s.runningMu.Unlock()

	applog.WithComponent(component).Info("관리 API 서비스 중지 완료")
}
