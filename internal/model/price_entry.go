package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceEntry 필드 이름
const (
	FieldProductID  = "product_id"
	FieldMarketID   = "market_id"
	FieldProductURL = "product_url"
)

// PriceEntry 한 상품의 한 마켓에서의 가격입니다. (ProductID, MarketID) 쌍마다 최대 하나만 존재합니다.
type PriceEntry struct {
	ID              string           `json:"id" bson:"_id"`
	ProductID       string           `json:"product_id" bson:"product_id"`
	MarketID        string           `json:"market_id" bson:"market_id"`
	ProductURL      string           `json:"product_url" bson:"product_url"`
	Price           decimal.Decimal  `json:"price" bson:"price"`
	DiscountedPrice *decimal.Decimal `json:"discounted_price,omitempty" bson:"discounted_price,omitempty"`
	LastUpdated     time.Time        `json:"last_updated" bson:"last_updated"`
}

func (e *PriceEntry) EntityID() string { return e.ID }

func (e *PriceEntry) Field(name string) (any, bool) {
	switch name {
	case FieldID:
		return e.ID, true
	case FieldProductID:
		return e.ProductID, true
	case FieldMarketID:
		return e.MarketID, true
	case FieldProductURL:
		return e.ProductURL, true
	}
	return nil, false
}

// ApplyPriceData 크롤링한 가격 정보로 항목을 갱신합니다.
func (e *PriceEntry) ApplyPriceData(d PriceData, now time.Time) {
	e.Price = d.Price
	e.DiscountedPrice = d.DiscountedPrice
	e.ProductURL = d.ProductURL
	e.LastUpdated = now
}
