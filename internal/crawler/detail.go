package crawler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/darkkaiser/price-tracker/internal/model"
	applog "github.com/darkkaiser/price-tracker/pkg/log"
	"github.com/darkkaiser/price-tracker/pkg/strutil"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

// 상세 페이지 진행 상황을 기록하는 간격(건수)
const detailProgressStep = 50

// parseDetailPages 상품마다 상세 페이지를 한 번씩 순서대로 방문해 속성을 채웁니다.
// 요청 시작 시각 기준으로 detailPageInterval 이상의 간격을 둡니다.
func (c *Crawler) parseDetailPages(ctx context.Context, result *Result) error {
	sel := c.profile.Selectors
	if !sel.HasAttributeSelectors() && sel.Description == "" {
		applog.WithComponentAndFields(component, applog.Fields{
			"market": c.settings.Name,
		}).Debug("상세 페이지 선택자가 없어 상세 페이지 파싱을 건너뜁니다")
		return nil
	}

	limiter := rate.NewLimiter(rate.Every(c.detailPageInterval), 1)
	total := result.Len()
	started := time.Now()

	applog.WithComponentAndFields(component, applog.Fields{
		"market":   c.settings.Name,
		"products": total,
	}).Info("상세 페이지 파싱 시작")

	failed := 0
	for i, key := range result.order {
		if err := limiter.Wait(ctx); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return err
		}

		p := result.products[key]
		if err := c.parseDetailPage(ctx, p); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			failed++
			applog.WithComponentAndFields(component, applog.Fields{
				"market": c.settings.Name,
				"url":    p.Price.ProductURL,
				"error":  err,
			}).Error("상세 페이지를 파싱하지 못했습니다")
		}

		if (i+1)%detailProgressStep == 0 || i+1 == total {
			applog.WithComponentAndFields(component, applog.Fields{
				"market":   c.settings.Name,
				"progress": fmt.Sprintf("%d/%d", i+1, total),
				"failed":   failed,
				"elapsed":  time.Since(started).Round(time.Second).String(),
			}).Info("상세 페이지 파싱 진행 중")
		}
	}
	return nil
}

func (c *Crawler) parseDetailPage(ctx context.Context, p *model.ParsedProduct) error {
	doc, err := c.scraper.FetchHTMLDocument(ctx, p.Price.ProductURL)
	if err != nil {
		return err
	}

	if p.Product.Attributes == nil {
		p.Product.Attributes = make(map[string]string)
	}
	attrs := p.Product.Attributes
	seen := lowerKeys(attrs)

	sel := c.profile.Selectors
	if sel.HasAttributeSelectors() {
		doc.Find(sel.AttributeItem).Each(func(_ int, item *goquery.Selection) {
			name := strutil.NormalizeSpaces(item.Find(sel.AttributeName).First().Text())
			value := strutil.NormalizeSpaces(item.Find(sel.AttributeValue).First().Text())
			if name == "" || value == "" {
				return
			}
			addMissing(attrs, seen, name, value)
		})
	}

	if sel.Description != "" {
		p.Product.Description = strutil.NormalizeSpaces(doc.Find(sel.Description).First().Text())
	}

	mergeMissing(attrs, jsonLDAttributes(doc))
	return nil
}

// jsonLDAttributes 페이지의 schema.org Product JSON-LD에서 brand, sku, gtin13을 추출합니다.
func jsonLDAttributes(doc *goquery.Document) map[string]string {
	attrs := make(map[string]string)

	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, script *goquery.Selection) {
		raw := strings.TrimSpace(script.Text())
		if raw == "" || !gjson.Valid(raw) {
			return
		}

		for _, product := range productNodes(gjson.Parse(raw)) {
			brand := product.Get("brand.name")
			if !brand.Exists() {
				brand = product.Get("brand")
			}
			if brand.Type == gjson.String {
				setIfNotEmpty(attrs, "brand", brand.String())
			}
			setIfNotEmpty(attrs, "sku", product.Get("sku").String())
			setIfNotEmpty(attrs, "gtin13", product.Get("gtin13").String())
		}
	})

	return attrs
}

// productNodes 단일 객체, 배열, @graph 형태 모두에서 @type이 Product인 노드를 찾습니다.
func productNodes(root gjson.Result) []gjson.Result {
	var candidates []gjson.Result
	switch {
	case root.IsArray():
		candidates = root.Array()
	case root.Get("@graph").IsArray():
		candidates = root.Get("@graph").Array()
	default:
		candidates = []gjson.Result{root}
	}

	var products []gjson.Result
	for _, c := range candidates {
		if c.Get("@type").String() == "Product" {
			products = append(products, c)
		}
	}
	return products
}

func setIfNotEmpty(m map[string]string, key, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	if _, exists := m[key]; !exists {
		m[key] = value
	}
}

// mergeMissing dst에 대소문자 구분 없이 없는 키만 추가합니다.
func mergeMissing(dst, src map[string]string) {
	if len(src) == 0 {
		return
	}

	seen := lowerKeys(dst)
	for k, v := range src {
		addMissing(dst, seen, k, v)
	}
}

func lowerKeys(m map[string]string) map[string]struct{} {
	keys := make(map[string]struct{}, len(m))
	for k := range m {
		keys[strings.ToLower(k)] = struct{}{}
	}
	return keys
}

// addMissing 같은 키가 대소문자만 달리 이미 있으면 먼저 들어온 값을 유지합니다.
func addMissing(dst map[string]string, seen map[string]struct{}, key, value string) {
	lower := strings.ToLower(key)
	if _, ok := seen[lower]; ok {
		return
	}
	dst[key] = value
	seen[lower] = struct{}{}
}
