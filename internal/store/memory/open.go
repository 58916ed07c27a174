package memory

import (
	"github.com/darkkaiser/price-tracker/internal/model"
	"github.com/darkkaiser/price-tracker/internal/store"
)

// Collection 이름. 파일 저장 시 kebab-case로 변환되어 파일명이 됩니다.
const (
	MarketsCollection              = "Markets"
	ProductsCollection             = "Products"
	PriceEntriesCollection         = "PriceEntries"
	CrawlerHistoriesCollection     = "CrawlerHistories"
	CategoryMappingsCollection     = "CategoryMappings"
	CategorizationIssuesCollection = "CategorizationIssues"
)

// New 파일에 기록하지 않는 메모리 저장소를 생성합니다.
func New() *store.Collections {
	c, err := open(nil)
	if err != nil {
		// persister가 없으면 실패할 수 없습니다.
		panic(err)
	}
	return c
}

// OpenDir dir 아래의 파일에 컬렉션을 기록하는 저장소를 엽니다.
func OpenDir(dir string) (*store.Collections, error) {
	p, err := newPersister(dir)
	if err != nil {
		return nil, err
	}
	return open(p)
}

func open(p *persister) (*store.Collections, error) {
	markets, err := NewCollection(MarketsCollection, func() *model.Market { return new(model.Market) }, p)
	if err != nil {
		return nil, err
	}
	products, err := NewCollection(ProductsCollection, func() *model.Product { return new(model.Product) }, p)
	if err != nil {
		return nil, err
	}
	priceEntries, err := NewCollection(PriceEntriesCollection, func() *model.PriceEntry { return new(model.PriceEntry) }, p)
	if err != nil {
		return nil, err
	}
	histories, err := NewCollection(CrawlerHistoriesCollection, func() *model.CrawlerHistory { return new(model.CrawlerHistory) }, p)
	if err != nil {
		return nil, err
	}
	mappings, err := NewCollection(CategoryMappingsCollection, func() *model.CategoryMapping { return new(model.CategoryMapping) }, p)
	if err != nil {
		return nil, err
	}
	issues, err := NewCollection(CategorizationIssuesCollection, func() *model.CategorizationIssue { return new(model.CategorizationIssue) }, p)
	if err != nil {
		return nil, err
	}

	return store.NewCollections(markets, products, priceEntries, histories, mappings, issues, nil), nil
}
