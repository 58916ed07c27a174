// Package reconcile 매칭 결과를 작업 종류별로 나누어 저장소에 일괄 반영합니다.
//
// 상품과 가격 항목 각각에 대해 생성, 갱신, 삭제 묶음을 만들고 묶음마다 한 번의 일괄 연산을 실행합니다.
// 묶음 사이에는 트랜잭션이 없습니다. 한 묶음이 실패해도 나머지 묶음은 계속 반영하며 실패는 로그로 남깁니다.
package reconcile

import (
	"context"
	"errors"
	"time"

	"github.com/darkkaiser/price-tracker/internal/model"
	"github.com/darkkaiser/price-tracker/internal/store"
	applog "github.com/darkkaiser/price-tracker/pkg/log"
)

const component = "reconcile.manager"

// Bucket 이름 (로그와 Summary.Failed에 사용)
const (
	BucketProductsCreate     = "products.create"
	BucketProductsUpdate     = "products.update"
	BucketProductsDelete     = "products.delete"
	BucketPriceEntriesCreate = "price_entries.create"
	BucketPriceEntriesUpdate = "price_entries.update"
	BucketPriceEntriesDelete = "price_entries.delete"
)

// Summary 한 번의 Upsert에서 작업 종류별 엔티티 수와 실패한 묶음입니다.
// 같은 배치에서 생성된 엔티티는 다시 매칭되어 갱신 묶음에 들어가더라도 생성으로만 셉니다.
type Summary struct {
	ProductsCreated     int
	ProductsUpdated     int
	ProductsDeleted     int
	PriceEntriesCreated int
	PriceEntriesUpdated int
	PriceEntriesDeleted int

	Failed []string
}

// HasFailures 실패한 묶음이 있는지 여부입니다.
func (s Summary) HasFailures() bool {
	return len(s.Failed) > 0
}

// Manager 매칭 결과를 저장소에 반영합니다.
type Manager struct {
	store *store.Collections
}

// NewManager Manager를 생성합니다.
func NewManager(c *store.Collections) *Manager {
	if c == nil {
		panic("store.Collections는 필수입니다")
	}
	return &Manager{store: c}
}

// Upsert results를 여섯 개의 묶음으로 나누어 반영합니다.
//
// 생성 묶음을 먼저 반영합니다. 같은 배치에서 생성된 뒤 다시 매칭된 엔티티는 생성과 갱신 묶음에 모두 들어갈 수 있습니다.
// 갱신은 존재하는 엔티티만 교체합니다(upsert 없음).
func (m *Manager) Upsert(ctx context.Context, results []model.MatchResult) Summary {
	started := time.Now()

	products := partition(results, func(r model.MatchResult) (*model.Product, model.Action) {
		return r.Product, r.ProductAction
	})
	entries := partition(results, func(r model.MatchResult) (*model.PriceEntry, model.Action) {
		return r.PriceEntry, r.PriceEntryAction
	})

	summary := Summary{
		ProductsCreated:     len(products.create),
		ProductsUpdated:     countExcluding(products.update, products.create),
		ProductsDeleted:     len(products.delete),
		PriceEntriesCreated: len(entries.create),
		PriceEntriesUpdated: countExcluding(entries.update, entries.create),
		PriceEntriesDeleted: len(entries.delete),
	}

	applog.WithComponentAndFields(component, applog.Fields{
		"products_create":      summary.ProductsCreated,
		"products_update":      summary.ProductsUpdated,
		"products_delete":      summary.ProductsDeleted,
		"price_entries_create": summary.PriceEntriesCreated,
		"price_entries_update": summary.PriceEntriesUpdated,
		"price_entries_delete": summary.PriceEntriesDeleted,
	}).Info("매칭 결과 반영 시작")

	steps := []struct {
		name  string
		count int
		fn    func() error
	}{
		{BucketProductsCreate, len(products.create), func() error { return m.store.Products.CreateMany(ctx, products.create) }},
		{BucketPriceEntriesCreate, len(entries.create), func() error { return m.store.PriceEntries.CreateMany(ctx, entries.create) }},
		{BucketProductsUpdate, len(products.update), func() error { return m.store.Products.BulkUpdate(ctx, products.update, false) }},
		{BucketPriceEntriesUpdate, len(entries.update), func() error { return m.store.PriceEntries.BulkUpdate(ctx, entries.update, false) }},
		{BucketPriceEntriesDelete, len(entries.delete), func() error { return m.store.PriceEntries.DeleteMany(ctx, ids(entries.delete)) }},
		{BucketProductsDelete, len(products.delete), func() error { return m.store.Products.DeleteMany(ctx, ids(products.delete)) }},
	}

	for _, step := range steps {
		if !safeExecute(ctx, step.name, step.count, step.fn) {
			summary.Failed = append(summary.Failed, step.name)
		}
	}

	applog.WithComponentAndFields(component, applog.Fields{
		"failed":  summary.Failed,
		"elapsed": time.Since(started).String(),
	}).Info("매칭 결과 반영 완료")

	return summary
}

// safeExecute 일괄 연산 하나를 실행합니다. 실패하면 로그를 남기고 false를 반환합니다.
func safeExecute(ctx context.Context, name string, count int, fn func() error) bool {
	if count == 0 {
		return true
	}

	if err := fn(); err != nil {
		fields := applog.Fields{
			"bucket": name,
			"count":  count,
			"error":  err,
		}
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			applog.WithComponentAndFields(component, fields).Info("취소되어 일괄 반영을 중단했습니다")
		} else {
			applog.WithComponentAndFields(component, fields).Error("일괄 반영에 실패했습니다")
		}
		return false
	}

	applog.WithComponentAndFields(component, applog.Fields{
		"bucket": name,
		"count":  count,
	}).Debug("일괄 반영 완료")
	return true
}

type buckets[T store.Entity] struct {
	create []T
	update []T
	delete []T
}

// partition 작업 종류별로 엔티티를 나눕니다. 같은 묶음 안에서 ID가 같은 엔티티는 마지막 것만 남깁니다.
func partition[T store.Entity](results []model.MatchResult, pick func(model.MatchResult) (T, model.Action)) buckets[T] {
	var b buckets[T]
	index := map[model.Action]map[string]int{
		model.ActionCreate: {},
		model.ActionUpdate: {},
		model.ActionDelete: {},
	}

	for _, r := range results {
		e, action := pick(r)
		if isNil(e) {
			continue
		}

		var list *[]T
		switch action {
		case model.ActionCreate:
			list = &b.create
		case model.ActionUpdate:
			list = &b.update
		case model.ActionDelete:
			list = &b.delete
		default:
			continue
		}

		if i, ok := index[action][e.EntityID()]; ok {
			(*list)[i] = e
			continue
		}
		index[action][e.EntityID()] = len(*list)
		*list = append(*list, e)
	}
	return b
}

func isNil[T store.Entity](e T) bool {
	var zero T
	return any(e) == any(zero)
}

// countExcluding exclude에 같은 ID가 없는 엔티티 수를 반환합니다.
func countExcluding[T store.Entity](entities, exclude []T) int {
	if len(exclude) == 0 {
		return len(entities)
	}

	excluded := make(map[string]struct{}, len(exclude))
	for _, e := range exclude {
		excluded[e.EntityID()] = struct{}{}
	}

	n := 0
	for _, e := range entities {
		if _, ok := excluded[e.EntityID()]; !ok {
			n++
		}
	}
	return n
}

func ids[T store.Entity](entities []T) []string {
	out := make([]string, len(entities))
	for i, e := range entities {
		out[i] = e.EntityID()
	}
	return out
}
