package store

import (
	"fmt"

	apperrors "github.com/darkkaiser/price-tracker/internal/pkg/errors"
)

// NewErrDuplicateID 같은 ID의 엔티티가 이미 존재할 때 반환하는 에러를 생성합니다.
func NewErrDuplicateID(collection, id string) error {
	return apperrors.New(apperrors.Conflict, fmt.Sprintf("'%s' 컬렉션에 이미 존재하는 ID입니다: '%s'", collection, id))
}

// NewErrEmptyID ID가 비어 있는 엔티티를 저장하려 할 때 반환하는 에러를 생성합니다.
func NewErrEmptyID(collection string) error {
	return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("'%s' 컬렉션에 ID가 없는 엔티티를 저장할 수 없습니다", collection))
}
