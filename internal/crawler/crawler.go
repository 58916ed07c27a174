// Package crawler 마켓 웹사이트에서 카테고리와 상품 목록을 수집합니다.
//
// 모든 마켓은 같은 Crawler로 크롤링하며, 마켓마다 다른 점은 Profile(선택자와 전략 이름)로 표현합니다.
// 카테고리와 페이지는 순차적으로 요청하고, 상세 페이지는 최소 간격을 두고 하나씩 요청합니다.
package crawler

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/darkkaiser/price-tracker/internal/crawler/scraper"
	"github.com/darkkaiser/price-tracker/internal/model"
	apperrors "github.com/darkkaiser/price-tracker/internal/pkg/errors"
	"github.com/darkkaiser/price-tracker/internal/store"
	applog "github.com/darkkaiser/price-tracker/pkg/log"
	"github.com/darkkaiser/price-tracker/pkg/strutil"
	"github.com/shopspring/decimal"
)

const component = "crawler"

const defaultDetailPageInterval = 150 * time.Millisecond

// Settings 마켓 크롤러의 정적 설정입니다.
type Settings struct {
	Key     string
	Name    string
	BaseURL string
}

// Crawler 마켓 하나를 크롤링합니다.
type Crawler struct {
	settings Settings
	profile  Profile
	baseURL  *url.URL

	scraper *scraper.Scraper
	markets store.Collection[*model.Market]

	detailPageInterval time.Duration

	marketMu sync.Mutex
	marketID string
}

// New 크롤러를 생성합니다. detailPageInterval이 0 이하이면 150ms를 사용합니다.
func New(settings Settings, profile Profile, s *scraper.Scraper, markets store.Collection[*model.Market], detailPageInterval time.Duration) (*Crawler, error) {
	base, err := url.Parse(settings.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, apperrors.New(apperrors.InvalidInput, fmt.Sprintf("마켓('%s')의 기본 URL이 올바르지 않습니다: '%s'", settings.Name, settings.BaseURL))
	}
	if err := profile.validate(); err != nil {
		return nil, err
	}
	if detailPageInterval <= 0 {
		detailPageInterval = defaultDetailPageInterval
	}

	return &Crawler{
		settings:           settings,
		profile:            profile,
		baseURL:            base,
		scraper:            s,
		markets:            markets,
		detailPageInterval: detailPageInterval,
	}, nil
}

func (c *Crawler) Key() string  { return c.settings.Key }
func (c *Crawler) Name() string { return c.settings.Name }

// MarketID 크롤러가 담당하는 마켓 엔티티의 ID를 반환합니다. 마켓이 없으면 생성하며, 결과는 캐시됩니다.
func (c *Crawler) MarketID(ctx context.Context) (string, error) {
	c.marketMu.Lock()
	defer c.marketMu.Unlock()

	if c.marketID != "" {
		return c.marketID, nil
	}

	m, err := store.FindOrCreateMarket(ctx, c.markets, c.settings.Name, c.settings.BaseURL)
	if err != nil {
		return "", err
	}
	c.marketID = m.ID

	return c.marketID, nil
}

// Crawl 모든 카테고리의 상품을 수집합니다.
//
// 홈페이지를 가져오지 못하면 에러를 반환합니다. 개별 페이지, 카드, 상세 페이지의 실패는 로그만 남기고 건너뜁니다.
// ctx가 취소되면 ctx.Err()를 반환합니다.
func (c *Crawler) Crawl(ctx context.Context, parseDetailPages bool) (*Result, error) {
	marketID, err := c.MarketID(ctx)
	if err != nil {
		return nil, err
	}

	categories, err := c.fetchCategories(ctx)
	if err != nil {
		return nil, err
	}

	result := newResult()
	for i, category := range categories {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		c.crawlCategory(ctx, result, category, i, len(categories), marketID)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	applog.WithComponentAndFields(component, applog.Fields{
		"market":     c.settings.Name,
		"categories": len(categories),
		"products":   result.Len(),
	}).Info("카테고리 크롤링 완료")

	if parseDetailPages {
		if err := c.parseDetailPages(ctx, result); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// fetchCategories 홈페이지에서 카테고리 목록을 추출합니다. 이름이 없는 카테고리는 건너뜁니다.
func (c *Crawler) fetchCategories(ctx context.Context) ([]model.ProductCategory, error) {
	doc, err := c.scraper.FetchHTMLDocument(ctx, c.baseURL.String())
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, apperrors.Wrap(err, apperrors.Unavailable, fmt.Sprintf("마켓('%s') 홈페이지를 가져오지 못했습니다", c.settings.Name))
	}

	sel := c.profile.Selectors
	categoryURL := categoryURLStrategies[c.profile.CategoryURL]

	var categories []model.ProductCategory
	doc.Find(sel.CategoryItem).Each(func(_ int, node *goquery.Selection) {
		name := strutil.NormalizeSpaces(node.Find(sel.CategoryName).First().Text())
		if name == "" {
			applog.WithComponentAndFields(component, applog.Fields{
				"market": c.settings.Name,
			}).Warn("카테고리 이름을 찾을 수 없어 건너뜁니다")
			return
		}

		href := categoryURL(node, sel)
		if href == "" {
			applog.WithComponentAndFields(component, applog.Fields{
				"market":   c.settings.Name,
				"category": name,
			}).Warn("카테고리 URL을 찾을 수 없어 건너뜁니다")
			return
		}

		abs, err := resolveURL(c.baseURL, href)
		if err != nil {
			applog.WithComponentAndFields(component, applog.Fields{
				"market":   c.settings.Name,
				"category": name,
				"href":     href,
				"error":    err,
			}).Warn("카테고리 URL을 해석할 수 없어 건너뜁니다")
			return
		}

		categories = append(categories, model.ProductCategory{Name: name, URL: abs})
	})

	applog.WithComponentAndFields(component, applog.Fields{
		"market":     c.settings.Name,
		"categories": len(categories),
	}).Info("카테고리 목록 추출 완료")

	return categories, nil
}

func (c *Crawler) crawlCategory(ctx context.Context, result *Result, category model.ProductCategory, index, total int, marketID string) {
	hasNextPage := nextPageStrategies[c.profile.NextPage]

	page := 1
	cardsCount, parsedCount := 0, 0

	for ctx.Err() == nil {
		pageURL := pageURL(category.URL, page)

		doc, err := c.scraper.FetchHTMLDocument(ctx, pageURL)
		if err != nil {
			if ctx.Err() == nil {
				applog.WithComponentAndFields(component, applog.Fields{
					"market":   c.settings.Name,
					"category": category.Name,
					"url":      pageURL,
					"error":    err,
				}).Error("카테고리 페이지를 가져오지 못했습니다")
			}
			break
		}

		cards := doc.Find(c.profile.Selectors.ProductCard)
		next := hasNextPage(doc, c.profile.Selectors.NextPage)

		if cards.Length() == 0 {
			applog.WithComponentAndFields(component, applog.Fields{
				"market":   c.settings.Name,
				"category": category.Name,
				"page":     page,
			}).Warn("페이지에서 상품을 찾을 수 없습니다")
			break
		}
		cardsCount += cards.Length()

		cards.Each(func(_ int, card *goquery.Selection) {
			if ctx.Err() != nil {
				return
			}
			if c.parseCard(card, category.Name, marketID, result) {
				parsedCount++
			}
		})

		if !next {
			break
		}
		page++
	}

	applog.WithComponentAndFields(component, applog.Fields{
		"market":   c.settings.Name,
		"category": category.Name,
		"progress": fmt.Sprintf("%d/%d", index+1, total),
		"pages":    page,
		"parsed":   fmt.Sprintf("%d/%d", parsedCount, cardsCount),
	}).Info("카테고리 크롤링 완료")
}

// parseCard 상품 카드 하나를 파싱해 result에 추가합니다. 새로 추가했을 때만 true를 반환합니다.
func (c *Crawler) parseCard(card *goquery.Selection, category, marketID string, result *Result) bool {
	sel := c.profile.Selectors
	logger := applog.WithComponentAndFields(component, applog.Fields{
		"market":   c.settings.Name,
		"category": category,
	})

	link := card.Find(sel.ProductLink).First()
	if link.Length() == 0 {
		logger.Error("상품 링크 노드를 찾을 수 없습니다")
		return false
	}
	relativeURL := strings.TrimSpace(link.AttrOr("href", ""))
	if relativeURL == "" {
		logger.Error("상품 링크에서 URL을 얻을 수 없습니다")
		return false
	}
	if result.has(relativeURL) {
		return false
	}

	productURL, err := resolveURL(c.baseURL, relativeURL)
	if err != nil {
		logger.WithField("href", relativeURL).Error("상품 URL을 해석할 수 없습니다")
		return false
	}
	logger = logger.WithField("url", productURL)

	var imageURL string
	if image := card.Find(sel.ProductImage).First(); image.Length() > 0 {
		imageURL = strings.TrimSpace(image.AttrOr(c.profile.ImageAttr, ""))
	} else {
		logger.Warn("상품 이미지 노드를 찾을 수 없습니다")
	}

	nameNode := card.Find(sel.ProductName).First()
	if nameNode.Length() == 0 {
		logger.Error("상품 이름 노드를 찾을 수 없습니다")
		return false
	}
	name := strutil.NormalizeSpaces(nameNode.Text())
	if name == "" {
		logger.Error("상품 이름이 비어 있습니다")
		return false
	}

	price, ok := c.parsePrice(card, sel.ProductPrice, logger)
	if !ok {
		return false
	}
	discounted, ok := c.parsePrice(card, sel.ProductDiscountedPrice, nil)
	if !ok {
		discounted = nil
	}
	price, discounted = pricesStrategies[c.profile.Prices](price, discounted)

	result.add(relativeURL, &model.ParsedProduct{
		Product: model.ProductToMatch{
			Name:       name,
			Category:   category,
			ImageURL:   imageURL,
			Attributes: map[string]string{},
		},
		Price: model.PriceData{
			MarketID:        marketID,
			ProductURL:      productURL,
			Price:           *price,
			DiscountedPrice: discounted,
		},
	})
	return true
}

// parsePrice logger가 nil이면 실패를 기록하지 않습니다. (할인 가격은 없는 것이 정상입니다)
func (c *Crawler) parsePrice(card *goquery.Selection, selector string, logger *applog.Entry) (*decimal.Decimal, bool) {
	if selector == "" {
		return nil, false
	}

	node := card.Find(selector).First()
	if node.Length() == 0 {
		if logger != nil {
			logger.Error("상품 가격 노드를 찾을 수 없습니다")
		}
		return nil, false
	}

	text := priceTextStrategies[c.profile.PriceText](node)
	if text == "" {
		if logger != nil {
			logger.Error("상품 가격 노드에서 가격을 얻을 수 없습니다")
		}
		return nil, false
	}

	d, err := decimal.NewFromString(text)
	if err != nil {
		if logger != nil {
			logger.WithField("price", text).Error("상품 가격을 숫자로 변환할 수 없습니다")
		}
		return nil, false
	}
	return &d, true
}
