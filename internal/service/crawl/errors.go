package crawl

import apperrors "github.com/darkkaiser/price-tracker/internal/pkg/errors"

var (
	// ErrAlreadyRunning 크롤링 주기가 실행 중일 때 즉시 실행을 요청하면 반환됩니다.
	ErrAlreadyRunning = apperrors.New(apperrors.Conflict, "마켓 크롤러가 이미 실행 중입니다")

	// ErrNotStarted 서비스를 시작하기 전에 즉시 실행을 요청하면 반환됩니다.
	ErrNotStarted = apperrors.New(apperrors.Unavailable, "마켓 크롤러 서비스가 시작되지 않았습니다")
)
