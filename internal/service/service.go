// Package service 백그라운드 서비스의 공통 계약을 정의합니다.
package service

import (
	"context"
	"sync"
)

// Service serviceStopCtx가 취소될 때까지 실행되는 백그라운드 서비스입니다.
//
// 호출자는 Start 전에 serviceStopWG.Add(1)을 호출하고, 서비스는 완전히 종료되면(또는 시작에 실패하면)
// serviceStopWG.Done()을 호출합니다.
type Service interface {
	Start(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) error
}
