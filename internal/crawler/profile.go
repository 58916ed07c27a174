package crawler

import (
	"fmt"

	apperrors "github.com/darkkaiser/price-tracker/internal/pkg/errors"
	"github.com/darkkaiser/price-tracker/pkg/maputil"
)

// Selectors 마켓 페이지에서 값을 찾는 CSS 선택자 모음입니다.
// 카드 하위 선택자는 상품 카드 노드를 기준으로 평가됩니다.
type Selectors struct {
	CategoryItem string `json:"category_item"`
	CategoryName string `json:"category_name"`
	CategoryLink string `json:"category_link"`

	NextPage string `json:"next_page"`

	ProductCard            string `json:"product_card"`
	ProductLink            string `json:"product_link"`
	ProductImage           string `json:"product_image"`
	ProductName            string `json:"product_name"`
	ProductPrice           string `json:"product_price"`
	ProductDiscountedPrice string `json:"product_discounted_price"`

	AttributeItem  string `json:"attribute_item"`
	AttributeName  string `json:"attribute_name"`
	AttributeValue string `json:"attribute_value"`
	Description    string `json:"description"`
}

// HasAttributeSelectors 상세 페이지에서 속성을 추출할 수 있는지 여부입니다.
func (s Selectors) HasAttributeSelectors() bool {
	return s.AttributeItem != "" && s.AttributeName != "" && s.AttributeValue != ""
}

// Profile 마켓 하나의 추출 규칙입니다. 마켓마다 다른 것은 선택자와 전략 이름뿐입니다.
type Profile struct {
	Key       string
	Selectors Selectors

	// ImageAttr 상품 이미지 노드에서 URL을 읽을 속성 이름 (예: srcset, src)
	ImageAttr string

	Prices      PricesStrategy
	NextPage    NextPageStrategy
	CategoryURL CategoryURLStrategy
	PriceText   PriceTextStrategy
}

func (p Profile) validate() error {
	if _, ok := pricesStrategies[p.Prices]; !ok {
		return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("알 수 없는 가격 전략입니다: '%s'", p.Prices))
	}
	if _, ok := nextPageStrategies[p.NextPage]; !ok {
		return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("알 수 없는 다음 페이지 전략입니다: '%s'", p.NextPage))
	}
	if _, ok := categoryURLStrategies[p.CategoryURL]; !ok {
		return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("알 수 없는 카테고리 URL 전략입니다: '%s'", p.CategoryURL))
	}
	if _, ok := priceTextStrategies[p.PriceText]; !ok {
		return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("알 수 없는 가격 텍스트 전략입니다: '%s'", p.PriceText))
	}

	s := p.Selectors
	if s.CategoryItem == "" || s.ProductCard == "" || s.ProductLink == "" || s.ProductName == "" || s.ProductPrice == "" || s.NextPage == "" {
		return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("'%s' 프로파일에 필수 선택자가 누락되었습니다", p.Key))
	}
	return nil
}

var builtinProfiles = map[string]Profile{
	"atb": {
		Key: "atb",
		Selectors: Selectors{
			CategoryItem: "ul.category-menu > li.category-menu__item:not(.category-menu__item--not-dropdown) > a",
			CategoryName: "span.category-menu__link",

			NextPage: "nav.product-pagination__nav li.next:not(.disabled)",

			ProductCard:            "article.catalog-item.js-product-container",
			ProductLink:            "div.catalog-item__title a",
			ProductImage:           "div.catalog-item__photo picture source",
			ProductName:            "div.catalog-item__title",
			ProductPrice:           "data.product-price__top",
			ProductDiscountedPrice: "data.product-price__bottom",

			AttributeItem:  "div#productCharacteristics div.product-characteristics__item",
			AttributeName:  "div.product-characteristics__name",
			AttributeValue: "div.product-characteristics__value",
		},
		ImageAttr:   "srcset",
		Prices:      PricesSwapped,
		NextPage:    NextPageExists,
		CategoryURL: CategoryURLSelfHref,
		PriceText:   PriceTextAttrDecimal,
	},
	"rukavychka": {
		Key: "rukavychka",
		Selectors: Selectors{
			CategoryItem: "div.fm-category-wall-box div.fm-category-wall-item-info",
			CategoryName: "a.fm-category-wall-item-title > span",
			CategoryLink: "a",

			NextPage: "div.fm-category-content > ul.pagination > li:last-child",

			ProductCard:            "div#content.fm-category-content div.fm-module-item",
			ProductLink:            "div.fm-category-product-caption > div.fm-module-title > a",
			ProductImage:           "div.fm-module-img img.img-fluid",
			ProductName:            "div.fm-category-product-caption > div.fm-module-title > a",
			ProductPrice:           "div.fm-category-product-caption span.fm-module-price-new",
			ProductDiscountedPrice: "div.fm-category-product-caption span.fm-module-price-old",
		},
		ImageAttr:   "src",
		Prices:      PricesAsDisplayed,
		NextPage:    NextPageLastNotActive,
		CategoryURL: CategoryURLChildLink,
		PriceText:   PriceTextPattern,
	},
}

// ResolveProfile 내장 프로파일에 설정의 선택자 덮어쓰기를 병합합니다.
// overrides의 키는 Selectors의 json 필드 이름이며, 알 수 없는 키는 에러입니다.
func ResolveProfile(key string, overrides map[string]string) (Profile, error) {
	p, ok := builtinProfiles[key]
	if !ok {
		return Profile{}, apperrors.New(apperrors.NotFound, fmt.Sprintf("등록되지 않은 크롤러 프로파일입니다: '%s'", key))
	}

	if len(overrides) > 0 {
		if err := maputil.DecodeTo(overrides, &p.Selectors, maputil.WithErrorUnused(true)); err != nil {
			return Profile{}, apperrors.Wrap(err, apperrors.InvalidInput, fmt.Sprintf("'%s' 크롤러의 선택자 설정이 올바르지 않습니다", key))
		}
	}

	if err := p.validate(); err != nil {
		return Profile{}, err
	}
	return p, nil
}
