package crawler

import (
	"time"

	"github.com/darkkaiser/price-tracker/internal/config"
	"github.com/darkkaiser/price-tracker/internal/crawler/scraper"
	"github.com/darkkaiser/price-tracker/internal/model"
	"github.com/darkkaiser/price-tracker/internal/store"
)

// BuildAll 활성화된 마켓 설정마다 크롤러를 생성합니다.
func BuildAll(markets []config.MarketConfig, s *scraper.Scraper, marketStore store.Collection[*model.Market], detailPageInterval time.Duration) ([]*Crawler, error) {
	crawlers := make([]*Crawler, 0, len(markets))
	for _, m := range markets {
		if !m.Enabled {
			continue
		}

		profile, err := ResolveProfile(m.CrawlerKey, m.Selectors)
		if err != nil {
			return nil, err
		}

		c, err := New(Settings{Key: m.Key, Name: m.Name, BaseURL: m.BaseURL}, profile, s, marketStore, detailPageInterval)
		if err != nil {
			return nil, err
		}
		crawlers = append(crawlers, c)
	}
	return crawlers, nil
}
