package memory

import (
	"fmt"

	apperrors "github.com/darkkaiser/price-tracker/internal/pkg/errors"
)

func newErrDecodeFailed(err error, collection string) error {
	return apperrors.Wrap(err, apperrors.Internal, fmt.Sprintf("'%s' 컬렉션 문서를 역직렬화하지 못했습니다", collection))
}

func newErrEncodeFailed(err error, collection string) error {
	return apperrors.Wrap(err, apperrors.Internal, fmt.Sprintf("'%s' 컬렉션 문서를 직렬화하지 못했습니다", collection))
}

func newErrDirectoryAccessFailed(err error, dir string) error {
	return apperrors.Wrap(err, apperrors.System, fmt.Sprintf("저장소 초기화 실패: 디렉토리 접근 불가 (%s)", dir))
}

func newErrFileReadFailed(err error, filename string) error {
	return apperrors.Wrap(err, apperrors.System, fmt.Sprintf("저장소 파일을 읽지 못했습니다: '%s'", filename))
}

func newErrFileWriteFailed(err error, filename string) error {
	return apperrors.Wrap(err, apperrors.System, fmt.Sprintf("저장소 파일을 기록하지 못했습니다: '%s'", filename))
}
