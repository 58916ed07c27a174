// Package concurrency 동시성 제어를 위한 보조 타입을 제공합니다.
package concurrency

import "sync"

// KeyedMutex 키별로 독립적인 뮤텍스를 제공합니다.
// 같은 키에 대한 작업은 직렬화되고, 서로 다른 키의 작업은 병렬로 진행됩니다.
// 더 이상 참조되지 않는 키의 뮤텍스는 맵에서 제거됩니다.
type KeyedMutex[K comparable] struct {
	mu    sync.Mutex
	locks map[K]*refMutex
}

type refMutex struct {
	mu   sync.Mutex
	refs int
}

// NewKeyedMutex 새 KeyedMutex를 생성합니다.
func NewKeyedMutex[K comparable]() *KeyedMutex[K] {
	return &KeyedMutex[K]{locks: make(map[K]*refMutex)}
}

// Lock key에 대한 잠금을 획득할 때까지 대기합니다.
func (km *KeyedMutex[K]) Lock(key K) {
	km.mu.Lock()
	m, ok := km.locks[key]
	if !ok {
		m = &refMutex{}
		km.locks[key] = m
	}
	m.refs++
	km.mu.Unlock()

	m.mu.Lock()
}

// TryLock 대기 없이 잠금을 시도합니다.
func (km *KeyedMutex[K]) TryLock(key K) bool {
	km.mu.Lock()
	defer km.mu.Unlock()

	m, ok := km.locks[key]
	if !ok {
		m = &refMutex{}
		km.locks[key] = m
	}
	if !m.mu.TryLock() {
		if !ok {
			delete(km.locks, key)
		}
		return false
	}
	m.refs++

	return true
}

// Unlock key의 잠금을 해제합니다. 잠기지 않은 키를 해제하면 panic이 발생합니다.
func (km *KeyedMutex[K]) Unlock(key K) {
	km.mu.Lock()
	defer km.mu.Unlock()

	m, ok := km.locks[key]
	if !ok {
		panic("concurrency: 잠기지 않은 키의 잠금 해제 시도")
	}

	m.mu.Unlock()

	m.refs--
	if m.refs <= 0 {
		delete(km.locks, key)
	}
}

// Len 현재 추적 중인 키의 수를 반환합니다.
func (km *KeyedMutex[K]) Len() int {
	km.mu.Lock()
	defer km.mu.Unlock()

	return len(km.locks)
}

// WithLock key의 잠금을 보유한 상태에서 fn을 실행합니다.
func (km *KeyedMutex[K]) WithLock(key K, fn func() error) error {
	km.Lock(key)
	defer km.Unlock(key)

	return fn()
}
