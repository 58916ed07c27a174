// Package scraper HTML 페이지를 가져와 goquery 문서로 변환합니다.
package scraper

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/PuerkitoBio/goquery"
	"github.com/darkkaiser/price-tracker/internal/crawler/fetcher"
	apperrors "github.com/darkkaiser/price-tracker/internal/pkg/errors"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/transform"
)

// 인코딩 판별을 위해 미리 읽는 바이트 수
const sniffLen = 1024

// Scraper Fetcher로 페이지를 가져와 파싱합니다.
type Scraper struct {
	fetcher fetcher.Fetcher
}

func New(f fetcher.Fetcher) *Scraper {
	return &Scraper{fetcher: f}
}

// FetchHTMLDocument rawURL의 HTML 문서를 UTF-8로 변환해 파싱합니다. 반환된 문서의 Url은 요청 URL입니다.
func (s *Scraper) FetchHTMLDocument(ctx context.Context, rawURL string) (*goquery.Document, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.InvalidInput, fmt.Sprintf("잘못된 페이지 URL입니다: '%s'", rawURL))
	}

	resp, err := fetcher.Get(ctx, s.fetcher, rawURL)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, apperrors.Wrap(err, apperrors.Unavailable, fmt.Sprintf("HTML 페이지(%s) 요청 중 에러가 발생했습니다", rawURL))
	}
	defer resp.Body.Close()

	br := bufio.NewReaderSize(resp.Body, sniffLen)
	peek, _ := br.Peek(sniffLen)
	enc, name, _ := charset.DetermineEncoding(peek, resp.Header.Get("Content-Type"))

	doc, err := goquery.NewDocumentFromReader(transform.NewReader(br, enc.NewDecoder()))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ParsingFailed, fmt.Sprintf("불러온 페이지(%s, 인코딩: %s)의 HTML 파싱이 실패하였습니다", rawURL, name))
	}
	doc.Url = u

	return doc, nil
}
