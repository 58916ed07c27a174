package fetcher

import (
	"fmt"
	"io"
	"net/http"
	"strings"
)

// HTTPStatusError 2xx가 아닌 응답을 나타냅니다.
type HTTPStatusError struct {
	StatusCode  int
	Status      string
	URL         string
	Header      http.Header
	BodySnippet string
}

func (e *HTTPStatusError) Error() string {
	msg := fmt.Sprintf("HTTP %d (%s) URL: %s", e.StatusCode, e.Status, e.URL)
	if e.BodySnippet != "" {
		msg += ", Body: " + e.BodySnippet
	}
	return msg
}

// Retriable 일시적인 서버 오류로 재시도할 가치가 있는지 여부입니다.
func (e *HTTPStatusError) Retriable() bool {
	switch e.StatusCode {
	case http.StatusTooManyRequests, http.StatusRequestTimeout:
		return true
	case http.StatusNotImplemented, http.StatusHTTPVersionNotSupported, http.StatusNetworkAuthenticationRequired:
		return false
	}
	return e.StatusCode >= 500
}

// StatusCodeFetcher 2xx가 아닌 응답을 HTTPStatusError로 변환합니다.
type StatusCodeFetcher struct {
	delegate Fetcher
}

var _ Fetcher = (*StatusCodeFetcher)(nil)

func NewStatusCodeFetcher(delegate Fetcher) *StatusCodeFetcher {
	return &StatusCodeFetcher{delegate: delegate}
}

func (f *StatusCodeFetcher) Do(req *http.Request) (*http.Response, error) {
	resp, err := f.delegate.Do(req)
	if err != nil {
		if resp != nil {
			drainAndCloseBody(resp.Body)
		}
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		statusErr := &HTTPStatusError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			URL:        req.URL.Redacted(),
			Header:     resp.Header.Clone(),
		}
		if resp.Body != nil {
			snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
			statusErr.BodySnippet = strings.TrimSpace(string(snippet))
		}
		drainAndCloseBody(resp.Body)

		return nil, statusErr
	}

	return resp, nil
}
