// Package memory 프로세스 메모리에 엔티티를 보관하는 저장소입니다.
//
// 문서는 JSON으로 인코딩된 상태로 삽입 순서대로 보관하므로, 조회 결과를 수정해도 저장된 값에 영향이 없습니다.
// 디렉토리를 지정하면 변경이 있을 때마다 컬렉션 전체를 파일로 기록하고, 생성 시 파일에서 다시 읽어옵니다.
package memory

import (
	"context"
	"encoding/json"
	"slices"
	"sync"

	"github.com/darkkaiser/price-tracker/internal/store"
)

type document struct {
	id  string
	raw json.RawMessage
}

// Collection store.Collection의 메모리 구현체입니다.
type Collection[T store.Entity] struct {
	name  string
	newFn func() T

	mu    sync.RWMutex
	docs  []document
	index map[string]int

	persister *persister
}

var _ store.Collection[store.Entity] = (*Collection[store.Entity])(nil)

// NewCollection 컬렉션을 생성합니다. p가 nil이 아니면 파일에서 기존 문서를 읽어옵니다.
func NewCollection[T store.Entity](name string, newFn func() T, p *persister) (*Collection[T], error) {
	c := &Collection[T]{
		name:      name,
		newFn:     newFn,
		index:     make(map[string]int),
		persister: p,
	}

	if p != nil {
		raws, err := p.load(name)
		if err != nil {
			return nil, err
		}
		for _, raw := range raws {
			e := newFn()
			if err := json.Unmarshal(raw, e); err != nil {
				return nil, newErrDecodeFailed(err, name)
			}
			c.index[e.EntityID()] = len(c.docs)
			c.docs = append(c.docs, document{id: e.EntityID(), raw: raw})
		}
	}

	return c, nil
}

func (c *Collection[T]) Find(ctx context.Context, filter store.Filter) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	var result []T
	for _, d := range c.docs {
		e, err := c.decode(d.raw)
		if err != nil {
			return nil, err
		}
		if filter.Match(e) {
			result = append(result, e)
		}
	}
	return result, nil
}

func (c *Collection[T]) FindOne(ctx context.Context, filter store.Filter) (T, bool, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, false, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, d := range c.docs {
		e, err := c.decode(d.raw)
		if err != nil {
			return zero, false, err
		}
		if filter.Match(e) {
			return e, true, nil
		}
	}
	return zero, false, nil
}

func (c *Collection[T]) Create(ctx context.Context, entity T) error {
	return c.CreateMany(ctx, []T{entity})
}

// CreateMany 중복 ID가 하나라도 있으면 아무것도 추가하지 않습니다.
func (c *Collection[T]) CreateMany(ctx context.Context, entities []T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(entities) == 0 {
		return nil
	}

	encoded, err := c.encodeAll(entities)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	seen := make(map[string]struct{}, len(encoded))
	for _, d := range encoded {
		if _, exists := c.index[d.id]; exists {
			return store.NewErrDuplicateID(c.name, d.id)
		}
		if _, dup := seen[d.id]; dup {
			return store.NewErrDuplicateID(c.name, d.id)
		}
		seen[d.id] = struct{}{}
	}

	prevLen := len(c.docs)
	for _, d := range encoded {
		c.index[d.id] = len(c.docs)
		c.docs = append(c.docs, d)
	}

	if err := c.flush(); err != nil {
		for _, d := range encoded {
			delete(c.index, d.id)
		}
		c.docs = c.docs[:prevLen]
		return err
	}
	return nil
}

func (c *Collection[T]) BulkUpdate(ctx context.Context, entities []T, upsert bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(entities) == 0 {
		return nil
	}

	encoded, err := c.encodeAll(entities)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	prevDocs := slices.Clone(c.docs)
	prevIndex := make(map[string]int, len(c.index))
	for k, v := range c.index {
		prevIndex[k] = v
	}

	for _, d := range encoded {
		if i, ok := c.index[d.id]; ok {
			c.docs[i] = d
			continue
		}
		if upsert {
			c.index[d.id] = len(c.docs)
			c.docs = append(c.docs, d)
		}
	}

	if err := c.flush(); err != nil {
		c.docs, c.index = prevDocs, prevIndex
		return err
	}
	return nil
}

func (c *Collection[T]) DeleteMany(ctx context.Context, ids []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	remove := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		remove[id] = struct{}{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	prevDocs := c.docs
	prevIndex := c.index

	docs := make([]document, 0, len(c.docs))
	index := make(map[string]int, len(c.docs))
	for _, d := range c.docs {
		if _, ok := remove[d.id]; ok {
			continue
		}
		index[d.id] = len(docs)
		docs = append(docs, d)
	}
	c.docs, c.index = docs, index

	if err := c.flush(); err != nil {
		c.docs, c.index = prevDocs, prevIndex
		return err
	}
	return nil
}

func (c *Collection[T]) Count(ctx context.Context, filter store.Filter) (int64, error) {
	if len(filter) == 0 {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		c.mu.RLock()
		defer c.mu.RUnlock()
		return int64(len(c.docs)), nil
	}

	found, err := c.Find(ctx, filter)
	if err != nil {
		return 0, err
	}
	return int64(len(found)), nil
}

func (c *Collection[T]) decode(raw json.RawMessage) (T, error) {
	e := c.newFn()
	if err := json.Unmarshal(raw, e); err != nil {
		var zero T
		return zero, newErrDecodeFailed(err, c.name)
	}
	return e, nil
}

func (c *Collection[T]) encodeAll(entities []T) ([]document, error) {
	docs := make([]document, 0, len(entities))
	for _, e := range entities {
		if e.EntityID() == "" {
			return nil, store.NewErrEmptyID(c.name)
		}
		raw, err := json.Marshal(e)
		if err != nil {
			return nil, newErrEncodeFailed(err, c.name)
		}
		docs = append(docs, document{id: e.EntityID(), raw: raw})
	}
	return docs, nil
}

// flush 잠금을 보유한 상태에서 호출해야 합니다.
func (c *Collection[T]) flush() error {
	if c.persister == nil {
		return nil
	}

	raws := make([]json.RawMessage, len(c.docs))
	for i, d := range c.docs {
		raws[i] = d.raw
	}
	return c.persister.save(c.name, raws)
}
