// Package testutil 관리 API 등 네트워크를 사용하는 테스트의 보조 함수입니다.
package testutil

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

const dialInterval = 10 * time.Millisecond

// GetFreePort 루프백 인터페이스에서 비어 있는 포트를 하나 찾아 반환합니다.
func GetFreePort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	defer l.Close()

	return l.Addr().(*net.TCPAddr).Port, nil
}

// WaitForServer 지정한 포트로 TCP 연결이 성공할 때까지 기다립니다.
func WaitForServer(port int, timeout time.Duration) error {
	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(port))

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if conn, err := net.DialTimeout("tcp", addr, dialInterval*5); err == nil {
			_ = conn.Close()
			return nil
		}
		time.Sleep(dialInterval)
	}
	return fmt.Errorf("서버가 %v 안에 %s에서 응답하지 않았습니다", timeout, addr)
}
