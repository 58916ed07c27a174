package model

import "time"

// Market 가격을 수집하는 온라인 마켓입니다.
type Market struct {
	ID         string `json:"id" bson:"_id"`
	Name       string `json:"name" bson:"name"`
	WebsiteURL string `json:"website_url" bson:"website_url"`
	IconURL    string `json:"icon_url" bson:"icon_url"`
}

func (m *Market) EntityID() string { return m.ID }

func (m *Market) Field(name string) (any, bool) {
	switch name {
	case FieldID:
		return m.ID, true
	case FieldName:
		return m.Name, true
	}
	return nil, false
}

// CrawlerHistory 마켓별 마지막 크롤링 시각입니다. 마켓당 하나만 존재합니다.
type CrawlerHistory struct {
	ID       string    `json:"id" bson:"_id"`
	MarketID string    `json:"market_id" bson:"market_id"`
	Created  time.Time `json:"created" bson:"created"`
	Updated  time.Time `json:"updated" bson:"updated"`
}

func (h *CrawlerHistory) EntityID() string { return h.ID }

func (h *CrawlerHistory) Field(name string) (any, bool) {
	switch name {
	case FieldID:
		return h.ID, true
	case FieldMarketID:
		return h.MarketID, true
	}
	return nil, false
}
