package model

import "github.com/google/uuid"

// UnsetCategoryID 카테고리 매핑이 아직 해석되지 않은 상품의 CategoryID 값입니다.
const UnsetCategoryID = ""

// NewID 새 엔티티 식별자를 생성합니다.
func NewID() string {
	return uuid.NewString()
}
