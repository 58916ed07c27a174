package matching

import (
	"context"
	"fmt"
	"time"

	"github.com/darkkaiser/price-tracker/internal/model"
	apperrors "github.com/darkkaiser/price-tracker/internal/pkg/errors"
	"github.com/darkkaiser/price-tracker/internal/store"
	applog "github.com/darkkaiser/price-tracker/pkg/log"
)

const component = "matching.matcher"

// 배치 진행 상황을 약 20번에 나누어 기록합니다.
const progressLogCount = 20

// Strategy 상품 하나를 후보 목록과 대조합니다.
type Strategy interface {
	MatchOrCreate(ctx context.Context, parsed model.ProductToMatch, marketID, mappedCategoryID string, pool *[]*model.Product) (*model.Product, model.Action, error)
}

// Matcher 크롤링 배치 전체의 매칭을 조율합니다.
type Matcher struct {
	store    *store.Collections
	strategy Strategy

	now func() time.Time
}

// NewMatcher Matcher를 생성합니다.
func NewMatcher(c *store.Collections, strategy Strategy) *Matcher {
	if c == nil {
		panic("store.Collections는 필수입니다")
	}
	if strategy == nil {
		panic("Strategy는 필수입니다")
	}
	return &Matcher{store: c, strategy: strategy, now: time.Now}
}

// batchContext 배치 하나 동안 유지되는 조회 결과입니다.
type batchContext struct {
	pool     []*model.Product
	mappings map[model.CategoryKey]string
	issues   map[model.CategoryKey]struct{}
}

// MatchOrCreateProducts 배치의 각 상품을 매칭하고 필요한 저장소 작업을 MatchResult로 반환합니다.
//
// 결과의 앞부분은 사라진 상품의 삭제 결과이고, 이어서 배치 순서대로 상품별 결과가 옵니다.
// 상품 하나의 실패는 기록하고 건너뜁니다. ctx가 취소되면 ctx.Err()를 반환합니다.
func (m *Matcher) MatchOrCreateProducts(ctx context.Context, batch []model.ParsedProduct) ([]model.MatchResult, error) {
	pool, err := store.ProductsWithPriceEntries(ctx, m.store)
	if err != nil {
		return nil, err
	}

	results, pool := vanishedProducts(pool, batch)
	if len(results) > 0 {
		applog.WithComponentAndFields(component, applog.Fields{
			"count": len(results),
		}).Info("더 이상 판매되지 않는 상품을 삭제 대상으로 분류했습니다")
	}

	bc := &batchContext{pool: pool}
	if bc.mappings, err = m.loadMappings(ctx); err != nil {
		return nil, err
	}
	if bc.issues, err = m.loadIssues(ctx); err != nil {
		return nil, err
	}

	total := len(batch)
	interval := max(1, total/progressLogCount)
	failed := 0

	for i, parsed := range batch {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if i%interval == 0 || i == total-1 {
			applog.WithComponentAndFields(component, applog.Fields{
				"progress": fmt.Sprintf("%d%%", (i+1)*100/total),
			}).Info("상품 매칭 진행 중")
		}

		result, err := m.process(ctx, bc, parsed)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			failed++
			applog.WithComponentAndFields(component, applog.Fields{
				"product": parsed.Product.Name,
				"url":     parsed.Price.ProductURL,
				"error":   err,
			}).Error("상품을 매칭하는 중 오류가 발생해 건너뜁니다")
			continue
		}
		results = append(results, result)
	}

	applog.WithComponentAndFields(component, applog.Fields{
		"parsed":  total,
		"results": len(results),
		"failed":  failed,
	}).Info("상품 매칭 완료")

	return results, nil
}

// vanishedProducts 가격 항목이 정확히 하나이고, 그 마켓이 배치에 포함되어 있으며, 그 URL이 배치에 없는 상품을 찾습니다.
// 삭제 결과와 삭제 대상을 제외한 후보 목록을 반환합니다.
func vanishedProducts(pool []*model.Product, batch []model.ParsedProduct) ([]model.MatchResult, []*model.Product) {
	markets := make(map[string]struct{})
	urls := make(map[string]struct{}, len(batch))
	for _, p := range batch {
		markets[p.Price.MarketID] = struct{}{}
		urls[p.Price.ProductURL] = struct{}{}
	}

	var results []model.MatchResult
	remaining := make([]*model.Product, 0, len(pool))
	for _, p := range pool {
		if len(p.PriceEntries) == 1 {
			entry := p.PriceEntries[0]
			_, marketCrawled := markets[entry.MarketID]
			_, stillListed := urls[entry.ProductURL]
			if marketCrawled && !stillListed {
				results = append(results, model.MatchResult{
					Product:          p,
					PriceEntry:       entry,
					ProductAction:    model.ActionDelete,
					PriceEntryAction: model.ActionDelete,
				})
				continue
			}
		}
		remaining = append(remaining, p)
	}
	return results, remaining
}

func (m *Matcher) loadMappings(ctx context.Context) (map[model.CategoryKey]string, error) {
	mappings, err := m.store.CategoryMappings.Find(ctx, store.All)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.Unavailable, "카테고리 매핑 목록을 조회하지 못했습니다")
	}

	byKey := make(map[model.CategoryKey]string, len(mappings))
	for _, mp := range mappings {
		byKey[mp.Key()] = mp.TargetCategoryID
	}
	return byKey, nil
}

func (m *Matcher) loadIssues(ctx context.Context) (map[model.CategoryKey]struct{}, error) {
	issues, err := m.store.CategorizationIssues.Find(ctx, store.All)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.Unavailable, "카테고리 분류 이슈 목록을 조회하지 못했습니다")
	}

	keys := make(map[model.CategoryKey]struct{}, len(issues))
	for _, is := range issues {
		keys[is.Key()] = struct{}{}
	}
	return keys, nil
}

func (m *Matcher) process(ctx context.Context, bc *batchContext, parsed model.ParsedProduct) (result model.MatchResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = apperrors.New(apperrors.Internal, fmt.Sprintf("상품 매칭 중 panic이 발생했습니다: %v", r))
		}
	}()

	key := model.CategoryKey{MarketID: parsed.Price.MarketID, Category: parsed.Product.Category}
	mappedCategoryID := bc.mappings[key]

	product, productAction, err := m.strategy.MatchOrCreate(ctx, parsed.Product, parsed.Price.MarketID, mappedCategoryID, &bc.pool)
	if err != nil {
		return model.MatchResult{}, err
	}

	entry, entryAction, err := m.resolvePriceEntry(ctx, product, productAction, parsed.Price)
	if err != nil {
		return model.MatchResult{}, err
	}

	if mappedCategoryID == model.UnsetCategoryID {
		m.reportCategorizationIssue(ctx, bc, key, parsed.Price.ProductURL)
	}

	return model.MatchResult{
		Product:          product,
		PriceEntry:       entry,
		ProductAction:    productAction,
		PriceEntryAction: entryAction,
	}, nil
}

// resolvePriceEntry 새 상품이면 항상 새 가격 항목을 만들고, 아니면 (상품, 마켓)의 기존 항목을 메모리, 저장소 순으로 찾아 갱신합니다.
func (m *Matcher) resolvePriceEntry(ctx context.Context, product *model.Product, productAction model.Action, data model.PriceData) (*model.PriceEntry, model.Action, error) {
	now := m.now().UTC()

	if productAction != model.ActionCreate {
		if entry := product.PriceEntryFor(data.MarketID); entry != nil {
			entry.ApplyPriceData(data, now)
			return entry, model.ActionUpdate, nil
		}

		entry, found, err := m.store.PriceEntries.FindOne(ctx, store.Where(
			store.Eq(model.FieldProductID, product.ID),
			store.Eq(model.FieldMarketID, data.MarketID),
		))
		if err != nil {
			return nil, 0, apperrors.Wrap(err, apperrors.Unavailable, "가격 항목을 조회하지 못했습니다")
		}
		if found {
			entry.ApplyPriceData(data, now)
			product.PriceEntries = append(product.PriceEntries, entry)
			return entry, model.ActionUpdate, nil
		}
	}

	entry := &model.PriceEntry{
		ID:        model.NewID(),
		ProductID: product.ID,
		MarketID:  data.MarketID,
	}
	entry.ApplyPriceData(data, now)
	product.PriceEntries = append(product.PriceEntries, entry)

	return entry, model.ActionCreate, nil
}

// reportCategorizationIssue (마켓, 카테고리)마다 이슈를 한 번만 생성합니다. 실패해도 매칭은 계속합니다.
func (m *Matcher) reportCategorizationIssue(ctx context.Context, bc *batchContext, key model.CategoryKey, productURL string) {
	if _, exists := bc.issues[key]; exists {
		return
	}

	issue := &model.CategorizationIssue{
		ID:               model.NewID(),
		SourceCategory:   key.Category,
		SourceProductURL: productURL,
		MarketID:         key.MarketID,
	}
	if err := m.store.CategorizationIssues.Create(ctx, issue); err != nil {
		applog.WithComponentAndFields(component, applog.Fields{
			"market_id": key.MarketID,
			"category":  key.Category,
			"error":     err,
		}).Warn("카테고리 분류 이슈를 생성하지 못했습니다")
		return
	}
	bc.issues[key] = struct{}{}

	applog.WithComponentAndFields(component, applog.Fields{
		"market_id": key.MarketID,
		"category":  key.Category,
	}).Info("매핑되지 않은 카테고리를 분류 이슈로 등록했습니다")
}
