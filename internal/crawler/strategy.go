package crawler

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"
)

// PricesStrategy 카드에서 읽은 두 가격 중 무엇이 현재 가격인지 결정합니다.
type PricesStrategy string

const (
	// PricesAsDisplayed 가격 선택자 값이 현재 가격, 할인 가격 선택자 값이 할인 가격입니다.
	PricesAsDisplayed PricesStrategy = "as-displayed"

	// PricesSwapped 두 값이 모두 있으면 서로 바꿉니다. 할인 중인 상품은 아래쪽 값이 판매가입니다.
	// 하나만 있으면 그 값이 가격이고 할인 가격은 없습니다.
	PricesSwapped PricesStrategy = "swapped"
)

// NextPageStrategy 카테고리 페이지에 다음 페이지가 있는지 판단합니다.
type NextPageStrategy string

const (
	// NextPageExists 다음 페이지 선택자에 일치하는 노드가 있으면 다음 페이지가 있습니다.
	NextPageExists NextPageStrategy = "exists"

	// NextPageLastNotActive 페이지네이션의 마지막 항목이 현재 페이지(active)가 아니면 다음 페이지가 있습니다.
	NextPageLastNotActive NextPageStrategy = "last-not-active"
)

// CategoryURLStrategy 카테고리 노드에서 URL을 얻는 방법입니다.
type CategoryURLStrategy string

const (
	CategoryURLSelfHref  CategoryURLStrategy = "self-href"
	CategoryURLChildLink CategoryURLStrategy = "child-link"
)

// PriceTextStrategy 가격 노드에서 숫자 문자열을 얻는 방법입니다.
type PriceTextStrategy string

const (
	// PriceTextAttrDecimal value 속성을 읽고 소수점 쉼표를 마침표로 바꿉니다.
	PriceTextAttrDecimal PriceTextStrategy = "attr-decimal"

	// PriceTextPattern 노드 텍스트에서 처음 나오는 숫자를 추출합니다.
	PriceTextPattern PriceTextStrategy = "text-pattern"
)

var priceTextRegex = regexp.MustCompile(`\d+(\.\d+)?`)

type (
	pricesFunc      func(price, discounted *decimal.Decimal) (*decimal.Decimal, *decimal.Decimal)
	nextPageFunc    func(doc *goquery.Document, selector string) bool
	categoryURLFunc func(node *goquery.Selection, s Selectors) string
	priceTextFunc   func(node *goquery.Selection) string
)

var pricesStrategies = map[PricesStrategy]pricesFunc{
	PricesAsDisplayed: func(price, discounted *decimal.Decimal) (*decimal.Decimal, *decimal.Decimal) {
		return price, discounted
	},
	PricesSwapped: func(price, discounted *decimal.Decimal) (*decimal.Decimal, *decimal.Decimal) {
		if price != nil && discounted != nil {
			return discounted, price
		}
		return price, nil
	},
}

var nextPageStrategies = map[NextPageStrategy]nextPageFunc{
	NextPageExists: func(doc *goquery.Document, selector string) bool {
		return doc.Find(selector).Length() > 0
	},
	NextPageLastNotActive: func(doc *goquery.Document, selector string) bool {
		last := doc.Find(selector).Last()
		return last.Length() > 0 && !last.HasClass("active")
	},
}

var categoryURLStrategies = map[CategoryURLStrategy]categoryURLFunc{
	CategoryURLSelfHref: func(node *goquery.Selection, _ Selectors) string {
		return strings.TrimSpace(node.AttrOr("href", ""))
	},
	CategoryURLChildLink: func(node *goquery.Selection, s Selectors) string {
		return strings.TrimSpace(node.Find(s.CategoryLink).First().AttrOr("href", ""))
	},
}

var priceTextStrategies = map[PriceTextStrategy]priceTextFunc{
	PriceTextAttrDecimal: func(node *goquery.Selection) string {
		return strings.ReplaceAll(strings.TrimSpace(node.AttrOr("value", "")), ",", ".")
	},
	PriceTextPattern: func(node *goquery.Selection) string {
		return priceTextRegex.FindString(node.Text())
	},
}

// resolveURL base를 기준으로 ref를 절대 URL로 변환합니다.
func resolveURL(base *url.URL, ref string) (string, error) {
	r, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(r).String(), nil
}

// pageURL 카테고리 URL에 page 쿼리를 붙입니다.
func pageURL(categoryURL string, page int) string {
	sep := "?"
	if strings.Contains(categoryURL, "?") {
		sep = "&"
	}
	return categoryURL + sep + "page=" + strconv.Itoa(page)
}
