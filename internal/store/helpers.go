package store

import (
	"context"
	"strings"
	"time"

	"github.com/darkkaiser/price-tracker/internal/model"
	apperrors "github.com/darkkaiser/price-tracker/internal/pkg/errors"
)

// ProductsWithPriceEntries 모든 상품을 가격 항목과 함께 조회합니다.
func ProductsWithPriceEntries(ctx context.Context, c *Collections) ([]*model.Product, error) {
	products, err := c.Products.Find(ctx, All)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.Unavailable, "상품 목록을 조회하지 못했습니다")
	}
	entries, err := c.PriceEntries.Find(ctx, All)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.Unavailable, "가격 항목 목록을 조회하지 못했습니다")
	}

	byProduct := make(map[string][]*model.PriceEntry, len(products))
	for _, e := range entries {
		byProduct[e.ProductID] = append(byProduct[e.ProductID], e)
	}
	for _, p := range products {
		p.PriceEntries = byProduct[p.ID]
	}

	return products, nil
}

// FindOrCreateMarket 이름이 같은(대소문자 무시) 마켓을 찾고, 없으면 새로 생성합니다.
func FindOrCreateMarket(ctx context.Context, markets Collection[*model.Market], name, websiteURL string) (*model.Market, error) {
	all, err := markets.Find(ctx, All)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.Unavailable, "마켓 목록을 조회하지 못했습니다")
	}
	for _, m := range all {
		if strings.EqualFold(m.Name, name) {
			return m, nil
		}
	}

	m := &model.Market{ID: model.NewID(), Name: name, WebsiteURL: websiteURL}
	if err := markets.Create(ctx, m); err != nil {
		return nil, apperrors.Wrap(err, apperrors.Unavailable, "마켓을 생성하지 못했습니다")
	}
	return m, nil
}

// TouchCrawlerHistory 마켓의 크롤링 이력을 생성하거나 갱신 시각을 now로 변경합니다.
func TouchCrawlerHistory(ctx context.Context, histories Collection[*model.CrawlerHistory], marketID string, now time.Time) error {
	h, found, err := histories.FindOne(ctx, Where(Eq(model.FieldMarketID, marketID)))
	if err != nil {
		return err
	}
	if !found {
		return histories.Create(ctx, &model.CrawlerHistory{ID: model.NewID(), MarketID: marketID, Created: now, Updated: now})
	}

	h.Updated = now
	return histories.BulkUpdate(ctx, []*model.CrawlerHistory{h}, false)
}
