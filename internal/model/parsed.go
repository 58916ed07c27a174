package model

import "github.com/shopspring/decimal"

// ProductCategory 마켓 홈페이지에서 발견한 카테고리입니다.
type ProductCategory struct {
	Name string
	URL  string
}

// ProductToMatch 크롤링한 상품 정보 중 매칭에 사용하는 부분입니다.
type ProductToMatch struct {
	Name        string
	Description string
	Category    string
	ImageURL    string
	Attributes  map[string]string
}

// PriceData 크롤링한 상품 정보 중 가격 항목에 해당하는 부분입니다.
type PriceData struct {
	MarketID        string
	ProductURL      string
	Price           decimal.Decimal
	DiscountedPrice *decimal.Decimal
}

// ParsedProduct 크롤링 결과의 작업 단위입니다.
type ParsedProduct struct {
	Product ProductToMatch
	Price   PriceData
}
