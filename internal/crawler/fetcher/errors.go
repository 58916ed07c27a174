package fetcher

import (
	"fmt"

	apperrors "github.com/darkkaiser/price-tracker/internal/pkg/errors"
)

func newErrInvalidRequest(err error, url string) error {
	return apperrors.Wrap(err, apperrors.InvalidInput, fmt.Sprintf("요청을 생성할 수 없는 URL입니다: '%s'", url))
}

// responseTooLargeError 재시도 대상에서 제외하기 위해 별도 타입으로 구분합니다.
type responseTooLargeError struct {
	limit int64
}

func (e *responseTooLargeError) Error() string {
	return fmt.Sprintf("응답 본문이 허용된 크기(%d bytes)를 초과했습니다", e.limit)
}

func newErrResponseBodyTooLarge(limit int64) error {
	return apperrors.Wrap(&responseTooLargeError{limit: limit}, apperrors.InvalidInput, "응답 본문 크기 제한 초과")
}
