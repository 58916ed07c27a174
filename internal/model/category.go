package model

// CategoryMapping 필드 이름
const (
	FieldTargetCategoryID = "target_category_id"
)

// CategoryMapping 마켓 고유의 카테고리 이름을 내부 카테고리로 연결합니다.
// 관리자가 등록하며, 크롤링 파이프라인에서는 읽기만 합니다.
type CategoryMapping struct {
	ID               string `json:"id" bson:"_id"`
	SourceMarketID   string `json:"source_market_id" bson:"source_market_id"`
	SourceCategory   string `json:"source_category" bson:"source_category"`
	TargetCategoryID string `json:"target_category_id" bson:"target_category_id"`
}

func (m *CategoryMapping) EntityID() string { return m.ID }

func (m *CategoryMapping) Field(name string) (any, bool) {
	switch name {
	case FieldID:
		return m.ID, true
	case FieldSourceMarketID:
		return m.SourceMarketID, true
	case FieldSourceCategory:
		return m.SourceCategory, true
	case FieldTargetCategoryID:
		return m.TargetCategoryID, true
	}
	return nil, false
}

// CategoryKey (마켓, 원본 카테고리) 쌍입니다.
type CategoryKey struct {
	MarketID string
	Category string
}

// Key 매핑의 조회 키를 반환합니다.
func (m *CategoryMapping) Key() CategoryKey {
	return CategoryKey{MarketID: m.SourceMarketID, Category: m.SourceCategory}
}

// CategorizationIssue 매핑이 없는 (마켓, 원본 카테고리)가 발견되었음을 기록합니다.
// (SourceCategory, MarketID) 쌍마다 하나만 생성됩니다.
type CategorizationIssue struct {
	ID               string `json:"id" bson:"_id"`
	SourceCategory   string `json:"source_category" bson:"source_category"`
	SourceProductURL string `json:"source_product_url" bson:"source_product_url"`
	MarketID         string `json:"market_id" bson:"market_id"`
}

func (i *CategorizationIssue) EntityID() string { return i.ID }

func (i *CategorizationIssue) Field(name string) (any, bool) {
	switch name {
	case FieldID:
		return i.ID, true
	case FieldSourceCategory:
		return i.SourceCategory, true
	case FieldMarketID:
		return i.MarketID, true
	}
	return nil, false
}

// Key 이슈의 조회 키를 반환합니다.
func (i *CategorizationIssue) Key() CategoryKey {
	return CategoryKey{MarketID: i.MarketID, Category: i.SourceCategory}
}
