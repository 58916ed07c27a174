package matching

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/darkkaiser/price-tracker/internal/model"
	"github.com/darkkaiser/price-tracker/internal/store"
	"github.com/darkkaiser/price-tracker/internal/store/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMatcher(t *testing.T) (*Matcher, *store.Collections) {
	t.Helper()
	c := memory.New()
	m := NewMatcher(c, newTestStrategy(nil))
	m.now = func() time.Time { return fixedNow }
	return m, c
}

func parsedProduct(name, category, marketID, url, price string) model.ParsedProduct {
	return model.ParsedProduct{
		Product: model.ProductToMatch{Name: name, Category: category, Attributes: map[string]string{}},
		Price: model.PriceData{
			MarketID:   marketID,
			ProductURL: url,
			Price:      decimal.RequireFromString(price),
		},
	}
}

// seedProduct 상품과 마켓별 가격 항목을 저장소에 추가합니다.
func seedProduct(t *testing.T, c *store.Collections, name string, listings map[string]string) *model.Product {
	t.Helper()
	ctx := context.Background()

	var sourceMarket string
	var aliases []model.Alias
	for marketID := range listings {
		if sourceMarket == "" {
			sourceMarket = marketID
		}
		aliases = append(aliases, model.Alias{Name: name, MarketID: marketID})
	}

	p := &model.Product{ID: model.NewID(), Name: name, SourceMarketID: sourceMarket, Aliases: aliases}
	require.NoError(t, c.Products.Create(ctx, p))

	for marketID, url := range listings {
		require.NoError(t, c.PriceEntries.Create(ctx, &model.PriceEntry{
			ID:         model.NewID(),
			ProductID:  p.ID,
			MarketID:   marketID,
			ProductURL: url,
			Price:      decimal.NewFromInt(10),
		}))
	}
	return p
}

func TestMatcher_NewProduct(t *testing.T) {
	m, c := newTestMatcher(t)
	ctx := context.Background()

	results, err := m.MatchOrCreateProducts(ctx, []model.ParsedProduct{
		parsedProduct("Кефір 1л", "Молочні продукти", marketA, "https://a.example/kefir", "38.90"),
	})
	require.NoError(t, err)
	require.Len(t, results, 1)

	r := results[0]
	assert.Equal(t, model.ActionCreate, r.ProductAction)
	assert.Equal(t, model.ActionCreate, r.PriceEntryAction)
	assert.Equal(t, r.Product.ID, r.PriceEntry.ProductID)
	assert.Equal(t, marketA, r.PriceEntry.MarketID)
	assert.True(t, r.PriceEntry.Price.Equal(decimal.RequireFromString("38.90")))
	assert.Equal(t, fixedNow, r.PriceEntry.LastUpdated)

	t.Run("매핑이 없는 카테고리는 분류 이슈로 등록된다", func(t *testing.T) {
		issues, err := c.CategorizationIssues.Find(ctx, store.All)
		require.NoError(t, err)
		require.Len(t, issues, 1)
		assert.Equal(t, "Молочні продукти", issues[0].SourceCategory)
		assert.Equal(t, marketA, issues[0].MarketID)
		assert.Equal(t, "https://a.example/kefir", issues[0].SourceProductURL)
	})
}

func TestMatcher_CategoryMapping(t *testing.T) {
	m, c := newTestMatcher(t)
	ctx := context.Background()

	require.NoError(t, c.CategoryMappings.Create(ctx, &model.CategoryMapping{
		ID:               model.NewID(),
		SourceMarketID:   marketA,
		SourceCategory:   "Хліб",
		TargetCategoryID: "bakery",
	}))
	require.NoError(t, c.CategorizationIssues.Create(ctx, &model.CategorizationIssue{
		ID:             model.NewID(),
		SourceCategory: "Напої",
		MarketID:       marketA,
	}))

	results, err := m.MatchOrCreateProducts(ctx, []model.ParsedProduct{
		parsedProduct("Хліб Білий", "Хліб", marketA, "https://a.example/bread", "24"),
		parsedProduct("Сир Гауда 200г", "Сири", marketA, "https://a.example/gouda", "80"),
		parsedProduct("Сир Едам 200г", "Сири", marketA, "https://a.example/edam", "82"),
		parsedProduct("Вода 1.5л", "Напої", marketA, "https://a.example/water", "15"),
	})
	require.NoError(t, err)
	require.Len(t, results, 4)

	assert.Equal(t, "bakery", results[0].Product.CategoryID)
	assert.False(t, results[1].Product.IsCategorized())

	issues, err := c.CategorizationIssues.Find(ctx, store.All)
	require.NoError(t, err)
	require.Len(t, issues, 2, "기존 이슈와 (마켓, 카테고리)별 한 건만 존재해야 합니다")

	categories := []string{issues[0].SourceCategory, issues[1].SourceCategory}
	assert.ElementsMatch(t, []string{"Напої", "Сири"}, categories)
}

func TestMatcher_VanishedProducts(t *testing.T) {
	t.Run("유일한 가격 항목의 URL이 배치에 없으면 삭제한다", func(t *testing.T) {
		m, c := newTestMatcher(t)
		gone := seedProduct(t, c, "Йогурт 0.3л", map[string]string{marketA: "https://a.example/yogurt"})

		results, err := m.MatchOrCreateProducts(context.Background(), []model.ParsedProduct{
			parsedProduct("Кефір 1л", "Молочні продукти", marketA, "https://a.example/kefir", "38.90"),
		})
		require.NoError(t, err)
		require.Len(t, results, 2)

		assert.Equal(t, gone.ID, results[0].Product.ID)
		assert.Equal(t, model.ActionDelete, results[0].ProductAction)
		assert.Equal(t, model.ActionDelete, results[0].PriceEntryAction)
		assert.Equal(t, gone.ID, results[0].PriceEntry.ProductID)
	})

	t.Run("다른 마켓 가격 항목이 있으면 삭제하지 않는다", func(t *testing.T) {
		m, c := newTestMatcher(t)
		seedProduct(t, c, "Йогурт 0.3л", map[string]string{
			marketA: "https://a.example/yogurt",
			marketB: "https://b.example/yogurt",
		})

		results, err := m.MatchOrCreateProducts(context.Background(), []model.ParsedProduct{
			parsedProduct("Кефір 1л", "Молочні продукти", marketA, "https://a.example/kefir", "38.90"),
		})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, model.ActionCreate, results[0].ProductAction)
	})

	t.Run("크롤링하지 않은 마켓의 상품은 삭제하지 않는다", func(t *testing.T) {
		m, c := newTestMatcher(t)
		seedProduct(t, c, "Йогурт 0.3л", map[string]string{marketB: "https://b.example/yogurt"})

		results, err := m.MatchOrCreateProducts(context.Background(), []model.ParsedProduct{
			parsedProduct("Кефір 1л", "Молочні продукти", marketA, "https://a.example/kefir", "38.90"),
		})
		require.NoError(t, err)
		require.Len(t, results, 1)
	})
}

func TestMatcher_ExistingPriceEntry(t *testing.T) {
	m, c := newTestMatcher(t)
	existing := seedProduct(t, c, "Кефір 1л", map[string]string{marketA: "https://a.example/kefir"})

	results, err := m.MatchOrCreateProducts(context.Background(), []model.ParsedProduct{
		parsedProduct("Кефір 1л", "Молочні продукти", marketA, "https://a.example/kefir", "41.50"),
		parsedProduct("Кефір 1л", "Молочні продукти", marketB, "https://b.example/kefir", "40"),
	})
	require.NoError(t, err)
	require.Len(t, results, 2)

	t.Run("같은 마켓은 기존 항목을 갱신한다", func(t *testing.T) {
		r := results[0]
		assert.Equal(t, existing.ID, r.Product.ID)
		assert.Equal(t, model.ActionUpdate, r.ProductAction)
		assert.Equal(t, model.ActionUpdate, r.PriceEntryAction)
		assert.Equal(t, "https://a.example/kefir", r.PriceEntry.ProductURL)
		assert.True(t, r.PriceEntry.Price.Equal(decimal.RequireFromString("41.50")))
		assert.Equal(t, fixedNow, r.PriceEntry.LastUpdated)
	})

	t.Run("다른 마켓은 새 항목을 만든다", func(t *testing.T) {
		r := results[1]
		assert.Equal(t, existing.ID, r.Product.ID)
		assert.Equal(t, model.ActionUpdate, r.ProductAction)
		assert.Equal(t, model.ActionCreate, r.PriceEntryAction)
		assert.Equal(t, marketB, r.PriceEntry.MarketID)
	})
}

func TestMatcher_ResolvePriceEntryFromStore(t *testing.T) {
	m, c := newTestMatcher(t)
	seeded := seedProduct(t, c, "Кефір 1л", map[string]string{marketA: "https://a.example/kefir"})

	// 조인되지 않은 상품 (메모리에 가격 항목이 없음)
	product := &model.Product{ID: seeded.ID, Name: seeded.Name}

	entry, action, err := m.resolvePriceEntry(context.Background(), product, model.ActionUpdate, model.PriceData{
		MarketID:   marketA,
		ProductURL: "https://a.example/kefir",
		Price:      decimal.NewFromInt(12),
	})
	require.NoError(t, err)
	assert.Equal(t, model.ActionUpdate, action)
	assert.True(t, entry.Price.Equal(decimal.NewFromInt(12)))
	assert.Len(t, product.PriceEntries, 1)
}

type failingStrategy struct {
	Strategy
	failOn string
}

func (s failingStrategy) MatchOrCreate(ctx context.Context, parsed model.ProductToMatch, marketID, mappedCategoryID string, pool *[]*model.Product) (*model.Product, model.Action, error) {
	switch parsed.Name {
	case s.failOn:
		return nil, 0, errors.New("boom")
	case "panic":
		panic("unexpected")
	}
	return s.Strategy.MatchOrCreate(ctx, parsed, marketID, mappedCategoryID, pool)
}

func TestMatcher_ItemFailureIsSkipped(t *testing.T) {
	c := memory.New()
	m := NewMatcher(c, failingStrategy{Strategy: newTestStrategy(nil), failOn: "Broken"})

	results, err := m.MatchOrCreateProducts(context.Background(), []model.ParsedProduct{
		parsedProduct("Broken", "X", marketA, "https://a.example/1", "1"),
		parsedProduct("panic", "X", marketA, "https://a.example/2", "1"),
		parsedProduct("Кефір 1л", "X", marketA, "https://a.example/3", "1"),
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Кефір 1л", results[0].Product.Name)
}

func TestMatcher_Canceled(t *testing.T) {
	m, _ := newTestMatcher(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.MatchOrCreateProducts(ctx, []model.ParsedProduct{
		parsedProduct("Кефір 1л", "X", marketA, "https://a.example/kefir", "1"),
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewMatcher_Panics(t *testing.T) {
	assert.Panics(t, func() { NewMatcher(nil, newTestStrategy(nil)) })
	assert.Panics(t, func() { NewMatcher(memory.New(), nil) })
}
