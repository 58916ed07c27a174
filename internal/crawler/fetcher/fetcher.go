// Package fetcher 마켓 페이지 요청에 사용하는 HTTP 클라이언트 체인을 제공합니다.
//
// 각 Fetcher는 다음 Fetcher에 요청을 위임하는 데코레이터이며, New가 설정에 따라 체인을 조립합니다.
//
//	UserAgentFetcher -> RetryFetcher -> StatusCodeFetcher -> MaxBytesFetcher -> HTTPFetcher
package fetcher

import (
	"context"
	"net/http"
)

const component = "crawler.fetcher"

// Fetcher HTTP 요청을 수행합니다.
type Fetcher interface {
	Do(req *http.Request) (*http.Response, error)
}

// Get url로 GET 요청을 보냅니다.
func Get(ctx context.Context, f Fetcher, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, newErrInvalidRequest(err, url)
	}

	resp, err := f.Do(req)
	if err != nil {
		if resp != nil {
			drainAndCloseBody(resp.Body)
		}
		return nil, err
	}
	return resp, nil
}
