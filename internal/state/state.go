// Package state 백그라운드 서비스의 실행 상태를 서비스 이름별로 보관합니다.
//
// 크롤링 스케줄러와 카테고리 재매핑 스케줄러는 이 레지스트리를 통해서만 서로의 상태를 확인합니다.
// 상태는 조정 용도로만 사용하며 저장하지 않습니다.
package state

import "sync"

// ServiceState 서비스의 실행 상태입니다.
type ServiceState int

const (
	Idle ServiceState = iota
	Running
)

func (s ServiceState) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Running:
		return "Running"
	}
	return "Unknown"
}

// MarshalText JSON 응답에서 상태를 이름으로 표시합니다.
func (s ServiceState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// 서비스 이름
const (
	CrawlService         = "market-crawler"
	CategoryRemapService = "category-remap"
)

// Registry 서비스 이름별 상태 저장소입니다. 여러 고루틴에서 동시에 사용해도 안전합니다.
type Registry struct {
	mu     sync.RWMutex
	states map[string]ServiceState
}

// NewRegistry 빈 레지스트리를 생성합니다.
func NewRegistry() *Registry {
	return &Registry{states: make(map[string]ServiceState)}
}

// Get 등록되지 않은 서비스는 Idle입니다.
func (r *Registry) Get(name string) ServiceState {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.states[name]
}

func (r *Registry) Set(name string, s ServiceState) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.states[name] = s
}

// Snapshot 현재 상태의 복사본을 반환합니다.
func (r *Registry) Snapshot() map[string]ServiceState {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]ServiceState, len(r.states))
	for k, v := range r.states {
		out[k] = v
	}
	return out
}
