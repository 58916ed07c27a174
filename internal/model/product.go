package model

import (
	"strings"
	"time"
)

// Product 필드 이름
const (
	FieldID             = "_id"
	FieldName           = "name"
	FieldSourceMarketID = "source_market_id"
	FieldSourceCategory = "source_category"
	FieldCategoryID     = "category_id"
)

// Alias 상품이 어떤 마켓에서 어떤 이름으로 게시되었는지를 나타냅니다.
type Alias struct {
	Name     string `json:"name" bson:"name"`
	MarketID string `json:"market_id" bson:"market_id"`
}

// Product 여러 마켓에 걸쳐 하나로 식별되는 상품입니다.
//
// Aliases에는 최소한 최초 생성 시의 이름이 포함되고, Attributes의 키는 대소문자를 구분하지 않고 유일합니다.
type Product struct {
	ID             string            `json:"id" bson:"_id"`
	Name           string            `json:"name" bson:"name"`
	Description    string            `json:"description" bson:"description"`
	ImageURL       string            `json:"image_url" bson:"image_url"`
	SourceMarketID string            `json:"source_market_id" bson:"source_market_id"`
	SourceCategory string            `json:"source_category" bson:"source_category"`
	CategoryID     string            `json:"category_id" bson:"category_id"`
	Aliases        []Alias           `json:"aliases" bson:"aliases"`
	Attributes     map[string]string `json:"attributes" bson:"attributes"`
	Added          time.Time         `json:"added" bson:"added"`
	Updated        time.Time         `json:"updated" bson:"updated"`

	// PriceEntries 매칭 단계에서만 사용하는 조인 결과입니다. 저장되지 않습니다.
	PriceEntries []*PriceEntry `json:"-" bson:"-"`
}

func (p *Product) EntityID() string { return p.ID }

func (p *Product) Field(name string) (any, bool) {
	switch name {
	case FieldID:
		return p.ID, true
	case FieldName:
		return p.Name, true
	case FieldSourceMarketID:
		return p.SourceMarketID, true
	case FieldSourceCategory:
		return p.SourceCategory, true
	case FieldCategoryID:
		return p.CategoryID, true
	}
	return nil, false
}

// HasAlias (name, marketID) 쌍의 별칭이 이미 있는지 확인합니다.
func (p *Product) HasAlias(name, marketID string) bool {
	for _, a := range p.Aliases {
		if a.Name == name && a.MarketID == marketID {
			return true
		}
	}
	return false
}

// MergeAttributes 기존에 없는 키의 속성만 추가합니다. 키 비교는 대소문자를 구분하지 않으며 기존 값이 우선합니다.
func (p *Product) MergeAttributes(attrs map[string]string) {
	if len(attrs) == 0 {
		return
	}
	if p.Attributes == nil {
		p.Attributes = make(map[string]string, len(attrs))
	}

	existing := make(map[string]struct{}, len(p.Attributes))
	for k := range p.Attributes {
		existing[strings.ToLower(k)] = struct{}{}
	}

	for k, v := range attrs {
		lower := strings.ToLower(k)
		if _, ok := existing[lower]; ok {
			continue
		}
		p.Attributes[k] = v
		existing[lower] = struct{}{}
	}
}

// PriceEntryFor 조인된 가격 항목 중 marketID의 항목을 찾습니다.
func (p *Product) PriceEntryFor(marketID string) *PriceEntry {
	for _, e := range p.PriceEntries {
		if e.MarketID == marketID {
			return e
		}
	}
	return nil
}

// IsCategorized 카테고리 매핑이 해석되었는지 여부입니다.
func (p *Product) IsCategorized() bool {
	return p.CategoryID != UnsetCategoryID
}
