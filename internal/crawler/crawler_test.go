package crawler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/darkkaiser/price-tracker/internal/config"
	"github.com/darkkaiser/price-tracker/internal/crawler/fetcher"
	"github.com/darkkaiser/price-tracker/internal/crawler/scraper"
	apperrors "github.com/darkkaiser/price-tracker/internal/pkg/errors"
	"github.com/darkkaiser/price-tracker/internal/store/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const atbHome = `<html><body>
<ul class="category-menu">
  <li class="category-menu__item"><a href="/catalog/milk"><span class="category-menu__link"> Молочні
     продукти </span></a></li>
  <li class="category-menu__item category-menu__item--not-dropdown"><a href="/promo"><span class="category-menu__link">Акції</span></a></li>
  <li class="category-menu__item"><a href="/catalog/nameless"></a></li>
</ul>
</body></html>`

func atbCard(href, name, top, bottom string) string {
	prices := fmt.Sprintf(`<data class="product-price__top" value="%s">%s</data>`, top, top)
	if bottom != "" {
		prices += fmt.Sprintf(`<data class="product-price__bottom" value="%s">%s</data>`, bottom, bottom)
	}
	return fmt.Sprintf(`<article class="catalog-item js-product-container">
  <div class="catalog-item__photo"><picture><source srcset="https://img.example%s.webp"></picture></div>
  <div class="catalog-item__title"><a href="%s">%s</a></div>
  %s
</article>`, href, href, name, prices)
}

const atbNoPriceCard = `<article class="catalog-item js-product-container">
  <div class="catalog-item__title"><a href="/product/no-price">Без ціни</a></div>
</article>`

func atbPage(next bool, cards ...string) string {
	nav := `<nav class="product-pagination__nav"><ul><li class="next disabled"><a>›</a></li></ul></nav>`
	if next {
		nav = `<nav class="product-pagination__nav"><ul><li class="next"><a href="?page=2">›</a></li></ul></nav>`
	}
	body := ""
	for _, c := range cards {
		body += c
	}
	return "<html><body>" + body + nav + "</body></html>"
}

const atbDetail = `<html><head>
<script type="application/ld+json">{"@context":"https://schema.org","@type":"Product","name":"Молоко","brand":{"@type":"Brand","name":"Галичина"},"sku":"123456","gtin13":"4820000000001"}</script>
</head><body>
<div id="productCharacteristics">
  <div class="product-characteristics__item"><div class="product-characteristics__name">Вага</div><div class="product-characteristics__value">0.9 л</div></div>
  <div class="product-characteristics__item"><div class="product-characteristics__name">вага</div><div class="product-characteristics__value">900 мл</div></div>
  <div class="product-characteristics__item"><div class="product-characteristics__name">Brand</div><div class="product-characteristics__value">Galychyna</div></div>
  <div class="product-characteristics__item"><div class="product-characteristics__name"></div><div class="product-characteristics__value">skip</div></div>
</div>
</body></html>`

type atbSite struct {
	mu             sync.Mutex
	detailVisits   map[string]int
	detailArrivals []time.Time
	inFlight       int
	maxInFlight    int
}

func newATBServer(t *testing.T) (*httptest.Server, *atbSite) {
	t.Helper()
	site := &atbSite{detailVisits: make(map[string]int)}

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, atbHome)
	})
	mux.HandleFunc("/catalog/milk", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("page") {
		case "1":
			fmt.Fprint(w, atbPage(true,
				atbCard("/product/milk-1", "Молоко  Галичина 2,5% 0,9л", "52.00", "45,50"),
				atbCard("/product/kefir", "Кефір 1л", "38.90", ""),
				atbNoPriceCard,
			))
		case "2":
			fmt.Fprint(w, atbPage(false,
				atbCard("/product/milk-1", "Молоко  Галичина 2,5% 0,9л", "52.00", "45,50"),
				atbCard("/product/butter", "Масло 200г", "89.00", ""),
			))
		default:
			http.NotFound(w, r)
		}
	})
	mux.HandleFunc("/product/", func(w http.ResponseWriter, r *http.Request) {
		site.mu.Lock()
		site.detailVisits[r.URL.Path]++
		site.detailArrivals = append(site.detailArrivals, time.Now())
		site.inFlight++
		site.maxInFlight = max(site.maxInFlight, site.inFlight)
		site.mu.Unlock()
		defer func() {
			site.mu.Lock()
			site.inFlight--
			site.mu.Unlock()
		}()

		if r.URL.Path == "/product/butter" {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, atbDetail)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, site
}

func newTestScraper() *scraper.Scraper {
	return scraper.New(fetcher.New(fetcher.Config{
		Timeout:       5 * time.Second,
		MaxRetries:    0,
		MinRetryDelay: time.Millisecond,
		MaxRetryDelay: time.Millisecond,
	}))
}

func newTestCrawler(t *testing.T, key, name, baseURL string) *Crawler {
	t.Helper()
	return newTestCrawlerWithInterval(t, key, name, baseURL, time.Millisecond)
}

func newTestCrawlerWithInterval(t *testing.T, key, name, baseURL string, detailPageInterval time.Duration) *Crawler {
	t.Helper()
	profile, err := ResolveProfile(key, nil)
	require.NoError(t, err)

	c, err := New(Settings{Key: key, Name: name, BaseURL: baseURL}, profile, newTestScraper(), memory.New().Markets, detailPageInterval)
	require.NoError(t, err)
	return c
}

func TestCrawler_ATB(t *testing.T) {
	srv, site := newATBServer(t)
	c := newTestCrawler(t, "atb", "ATB", srv.URL)

	result, err := c.Crawl(context.Background(), false)
	require.NoError(t, err)

	marketID, err := c.MarketID(context.Background())
	require.NoError(t, err)

	t.Run("중복과 가격 없는 카드를 제외하고 발견 순서대로 수집한다", func(t *testing.T) {
		require.Equal(t, 3, result.Len())
		products := result.Products()
		assert.Equal(t, srv.URL+"/product/milk-1", products[0].Price.ProductURL)
		assert.Equal(t, srv.URL+"/product/kefir", products[1].Price.ProductURL)
		assert.Equal(t, srv.URL+"/product/butter", products[2].Price.ProductURL)
	})

	t.Run("카드 필드", func(t *testing.T) {
		p, ok := result.Get("/product/milk-1")
		require.True(t, ok)
		assert.Equal(t, "Молоко Галичина 2,5% 0,9л", p.Product.Name)
		assert.Equal(t, "Молочні продукти", p.Product.Category)
		assert.Equal(t, "https://img.example/product/milk-1.webp", p.Product.ImageURL)
		assert.Equal(t, marketID, p.Price.MarketID)
	})

	t.Run("두 가격이 모두 있으면 서로 바꾼다", func(t *testing.T) {
		p, _ := result.Get("/product/milk-1")
		assert.True(t, p.Price.Price.Equal(decimal.RequireFromString("45.50")))
		require.NotNil(t, p.Price.DiscountedPrice)
		assert.True(t, p.Price.DiscountedPrice.Equal(decimal.RequireFromString("52")))
	})

	t.Run("가격이 하나뿐이면 할인 가격은 없다", func(t *testing.T) {
		p, _ := result.Get("/product/kefir")
		assert.True(t, p.Price.Price.Equal(decimal.RequireFromString("38.90")))
		assert.Nil(t, p.Price.DiscountedPrice)
	})

	t.Run("상세 페이지는 요청하지 않는다", func(t *testing.T) {
		site.mu.Lock()
		defer site.mu.Unlock()
		assert.Empty(t, site.detailVisits)
	})
}

func TestCrawler_ATB_DetailPages(t *testing.T) {
	srv, site := newATBServer(t)
	c := newTestCrawler(t, "atb", "ATB", srv.URL)

	result, err := c.Crawl(context.Background(), true)
	require.NoError(t, err)
	require.Equal(t, 3, result.Len())

	t.Run("상품마다 한 번씩 방문한다", func(t *testing.T) {
		site.mu.Lock()
		defer site.mu.Unlock()
		assert.Equal(t, map[string]int{"/product/milk-1": 1, "/product/kefir": 1, "/product/butter": 1}, site.detailVisits)
	})

	t.Run("대소문자만 다른 속성 이름은 먼저 나온 값만 남긴다", func(t *testing.T) {
		p, _ := result.Get("/product/kefir")
		assert.Equal(t, "0.9 л", p.Product.Attributes["Вага"])
		assert.NotContains(t, p.Product.Attributes, "вага")
	})

	t.Run("선택자 속성이 JSON-LD보다 우선한다", func(t *testing.T) {
		p, _ := result.Get("/product/milk-1")
		assert.Equal(t, map[string]string{
			"Вага":   "0.9 л",
			"Brand":  "Galychyna",
			"sku":    "123456",
			"gtin13": "4820000000001",
		}, p.Product.Attributes)
	})

	t.Run("상세 페이지 실패는 상품을 무효로 만들지 않는다", func(t *testing.T) {
		p, ok := result.Get("/product/butter")
		require.True(t, ok)
		assert.Empty(t, p.Product.Attributes)
	})
}

func TestCrawler_DetailPagesAreThrottled(t *testing.T) {
	const interval = 50 * time.Millisecond
	const tolerance = 5 * time.Millisecond

	srv, site := newATBServer(t)
	c := newTestCrawlerWithInterval(t, "atb", "ATB", srv.URL, interval)

	result, err := c.Crawl(context.Background(), true)
	require.NoError(t, err)
	require.Equal(t, 3, result.Len())

	site.mu.Lock()
	defer site.mu.Unlock()

	assert.Equal(t, 1, site.maxInFlight, "상세 페이지는 한 번에 하나씩 요청해야 합니다")
	require.Len(t, site.detailArrivals, 3)
	for i := 1; i < len(site.detailArrivals); i++ {
		gap := site.detailArrivals[i].Sub(site.detailArrivals[i-1])
		assert.GreaterOrEqual(t, gap, interval-tolerance, "%d번째 요청 간격: %v", i, gap)
	}
}

const rukavychkaHome = `<html><body>
<div class="fm-category-wall-box">
  <div class="fm-category-wall-item-info"><a class="fm-category-wall-item-title" href="/bread/"><span>Хліб</span></a></div>
  <div class="fm-category-wall-item-info"><a class="fm-category-wall-item-title" href="/empty/"><span>Порожня</span></a></div>
</div>
</body></html>`

func rukavychkaPage(activeLast bool, cards ...string) string {
	last := `<li><a href="?page=2">&gt;|</a></li>`
	if activeLast {
		last = `<li class="active"><span>2</span></li>`
	}
	body := ""
	for _, c := range cards {
		body += c
	}
	return `<html><body><div id="content" class="fm-category-content">` + body +
		`<ul class="pagination"><li><a href="?page=1">1</a></li>` + last + `</ul></div></body></html>`
}

func rukavychkaCard(href, name, newPrice, oldPrice string) string {
	old := ""
	if oldPrice != "" {
		old = fmt.Sprintf(`<span class="fm-module-price-old">%s грн</span>`, oldPrice)
	}
	return fmt.Sprintf(`<div class="fm-module-item">
  <div class="fm-module-img"><img class="img-fluid" src="https://img.example%s.jpg"></div>
  <div class="fm-category-product-caption">
    <div class="fm-module-title"><a href="%s">%s</a></div>
    <div class="fm-module-price"><span class="fm-module-price-new">%s грн</span>%s</div>
  </div>
</div>`, href, href, name, newPrice, old)
}

func TestCrawler_Rukavychka(t *testing.T) {
	var pages []string
	var mu sync.Mutex

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		pages = append(pages, r.URL.RequestURI())
		mu.Unlock()

		switch r.URL.Path {
		case "/":
			fmt.Fprint(w, rukavychkaHome)
		case "/bread/":
			if r.URL.Query().Get("page") == "1" {
				fmt.Fprint(w, rukavychkaPage(false, rukavychkaCard("/bread/white", "Хліб Білий", "24.50", "27.00")))
				return
			}
			fmt.Fprint(w, rukavychkaPage(true, rukavychkaCard("/bread/rye", "Хліб Житній", "31", "")))
		case "/empty/":
			fmt.Fprint(w, rukavychkaPage(true))
		default:
			http.NotFound(w, r)
		}
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := newTestCrawler(t, "rukavychka", "Rukavychka", srv.URL)

	result, err := c.Crawl(context.Background(), true)
	require.NoError(t, err)
	require.Equal(t, 2, result.Len())

	white, ok := result.Get("/bread/white")
	require.True(t, ok)
	assert.True(t, white.Price.Price.Equal(decimal.RequireFromString("24.50")))
	require.NotNil(t, white.Price.DiscountedPrice)
	assert.True(t, white.Price.DiscountedPrice.Equal(decimal.RequireFromString("27")))
	assert.Equal(t, "https://img.example/bread/white.jpg", white.Product.ImageURL)

	rye, _ := result.Get("/bread/rye")
	assert.Nil(t, rye.Price.DiscountedPrice)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"/", "/bread/?page=1", "/bread/?page=2", "/empty/?page=1"}, pages,
		"마지막 페이지가 active이면 멈추고, 상세 선택자가 없으면 상세 페이지를 요청하지 않아야 합니다")
}

func TestCrawler_HomepageFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := newTestCrawler(t, "atb", "ATB", srv.URL)
	_, err := c.Crawl(context.Background(), false)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.Unavailable))
}

func TestCrawler_Canceled(t *testing.T) {
	srv, _ := newATBServer(t)
	c := newTestCrawler(t, "atb", "ATB", srv.URL)

	ctx, cancel := context.WithCancel(context.Background())
	_, err := c.MarketID(ctx)
	require.NoError(t, err)
	cancel()

	_, err = c.Crawl(ctx, false)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResolveProfile(t *testing.T) {
	t.Run("선택자 덮어쓰기", func(t *testing.T) {
		p, err := ResolveProfile("atb", map[string]string{"product_card": "article.product"})
		require.NoError(t, err)
		assert.Equal(t, "article.product", p.Selectors.ProductCard)
		assert.Equal(t, "div.catalog-item__title", p.Selectors.ProductName, "덮어쓰지 않은 선택자는 유지되어야 합니다")
	})

	t.Run("알 수 없는 선택자 키", func(t *testing.T) {
		_, err := ResolveProfile("atb", map[string]string{"product_cardd": "x"})
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.InvalidInput))
	})

	t.Run("등록되지 않은 프로파일", func(t *testing.T) {
		_, err := ResolveProfile("silpo", nil)
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.NotFound))
	})

	t.Run("설정이 지원하는 키와 내장 프로파일이 일치한다", func(t *testing.T) {
		for _, key := range config.SupportedCrawlerKeys {
			_, err := ResolveProfile(key, nil)
			assert.NoError(t, err, key)
		}
	})
}

func TestPageURL(t *testing.T) {
	assert.Equal(t, "https://m.example/cat?page=3", pageURL("https://m.example/cat", 3))
	assert.Equal(t, "https://m.example/cat?sort=price&page=1", pageURL("https://m.example/cat?sort=price", 1))
}

func TestBuildAll(t *testing.T) {
	crawlers, err := BuildAll([]config.MarketConfig{
		{Key: "atb", Name: "ATB", BaseURL: "https://www.atbmarket.com", CrawlerKey: "atb", Enabled: true},
		{Key: "ruk", Name: "Rukavychka", BaseURL: "https://market.rukavychka.ua", CrawlerKey: "rukavychka", Enabled: false},
	}, newTestScraper(), memory.New().Markets, 0)
	require.NoError(t, err)
	require.Len(t, crawlers, 1)
	assert.Equal(t, "atb", crawlers[0].Key())
	assert.Equal(t, defaultDetailPageInterval, crawlers[0].detailPageInterval)
}
