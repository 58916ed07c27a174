package model

// Action 매칭 결과 엔티티에 필요한 저장소 작업입니다.
type Action int

const (
	ActionCreate Action = iota + 1
	ActionUpdate
	ActionDelete
)

func (a Action) String() string {
	switch a {
	case ActionCreate:
		return "Create"
	case ActionUpdate:
		return "Update"
	case ActionDelete:
		return "Delete"
	}
	return "None"
}

// MatchResult 크롤링한 상품 하나(또는 사라진 상품 하나)에 대한 매칭 결과입니다.
type MatchResult struct {
	Product          *Product
	PriceEntry       *PriceEntry
	ProductAction    Action
	PriceEntryAction Action
}
