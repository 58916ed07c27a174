// Package store 영속 엔티티를 보관하는 문서 저장소의 계약을 정의합니다.
//
// 엔티티 종류마다 하나의 Collection이 있으며, 조회 조건은 필드 동등 비교의 논리곱(Filter)으로만 표현합니다.
// 구현체는 memory(메모리 및 파일)와 mongo 패키지에 있고, backend.Open이 설정에 따라 선택합니다.
package store

import (
	"context"

	"github.com/darkkaiser/price-tracker/internal/model"
)

// Entity 저장소에 보관되는 엔티티입니다.
type Entity interface {
	EntityID() string

	// Field Filter 평가에 사용할 필드 값을 반환합니다. name은 json/bson 필드 이름입니다.
	Field(name string) (any, bool)
}

// Collection 한 종류의 엔티티에 대한 저장소 연산입니다.
// 모든 연산은 실패를 에러로 반환하며, 반환된 엔티티는 저장소 내부 상태와 공유되지 않는 복사본입니다.
type Collection[T Entity] interface {
	Find(ctx context.Context, filter Filter) ([]T, error)

	// FindOne 조건에 맞는 첫 번째 엔티티를 반환합니다. 없으면 found가 false입니다.
	FindOne(ctx context.Context, filter Filter) (entity T, found bool, err error)

	Create(ctx context.Context, entity T) error
	CreateMany(ctx context.Context, entities []T) error

	// BulkUpdate ID가 같은 엔티티를 통째로 교체합니다.
	// upsert가 false이면 존재하지 않는 엔티티는 무시하고, true이면 새로 추가합니다.
	BulkUpdate(ctx context.Context, entities []T, upsert bool) error

	DeleteMany(ctx context.Context, ids []string) error
	Count(ctx context.Context, filter Filter) (int64, error)
}

// Collections 애플리케이션이 사용하는 모든 컬렉션의 묶음입니다.
type Collections struct {
	Markets              Collection[*model.Market]
	Products             Collection[*model.Product]
	PriceEntries         Collection[*model.PriceEntry]
	CrawlerHistories     Collection[*model.CrawlerHistory]
	CategoryMappings     Collection[*model.CategoryMapping]
	CategorizationIssues Collection[*model.CategorizationIssue]

	closeFn func(ctx context.Context) error
}

// NewCollections 컬렉션 묶음을 생성합니다. closeFn은 nil일 수 있습니다.
func NewCollections(
	markets Collection[*model.Market],
	products Collection[*model.Product],
	priceEntries Collection[*model.PriceEntry],
	histories Collection[*model.CrawlerHistory],
	mappings Collection[*model.CategoryMapping],
	issues Collection[*model.CategorizationIssue],
	closeFn func(ctx context.Context) error,
) *Collections {
	return &Collections{
		Markets:              markets,
		Products:             products,
		PriceEntries:         priceEntries,
		CrawlerHistories:     histories,
		CategoryMappings:     mappings,
		CategorizationIssues: issues,
		closeFn:              closeFn,
	}
}

// Close 저장소 연결을 해제합니다.
func (c *Collections) Close(ctx context.Context) error {
	if c.closeFn == nil {
		return nil
	}
	return c.closeFn(ctx)
}
