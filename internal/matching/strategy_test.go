package matching

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/darkkaiser/price-tracker/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	marketA = "market-a"
	marketB = "market-b"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestStrategy(scorer Scorer) *FuzzyStrategy {
	s := NewFuzzyStrategy(scorer, DefaultThreshold)
	s.now = func() time.Time { return fixedNow }
	return s
}

func existingProduct(name, marketID string) *model.Product {
	return &model.Product{
		ID:             model.NewID(),
		Name:           name,
		SourceMarketID: marketID,
		Aliases:        []model.Alias{{Name: name, MarketID: marketID}},
		Attributes:     map[string]string{"Brand": "Old"},
		ImageURL:       "https://img.example/old.png",
	}
}

func constantScorer(score int) Scorer {
	return ScorerFunc(func(a, b string) int {
		if a == b {
			return 100
		}
		return score
	})
}

func TestFuzzyStrategy_Threshold(t *testing.T) {
	tests := []struct {
		score      int
		wantAction model.Action
	}{
		{80, model.ActionCreate},
		{81, model.ActionUpdate},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("점수 %d", tt.score), func(t *testing.T) {
			s := newTestStrategy(constantScorer(tt.score))
			pool := []*model.Product{existingProduct("Alpha", marketB)}

			_, action, err := s.MatchOrCreate(context.Background(), model.ProductToMatch{Name: "Omega"}, marketA, "", &pool)
			require.NoError(t, err)
			assert.Equal(t, tt.wantAction, action)
		})
	}
}

func TestFuzzyStrategy_UnitGate(t *testing.T) {
	s := newTestStrategy(constantScorer(100))
	pool := []*model.Product{existingProduct("Cola 1L", marketB)}

	p, action, err := s.MatchOrCreate(context.Background(), model.ProductToMatch{Name: "Cola 1.5L"}, marketA, "", &pool)
	require.NoError(t, err)
	assert.Equal(t, model.ActionCreate, action)
	assert.Equal(t, "Cola 1.5L", p.Name)
}

func TestFuzzyStrategy_SiblingVariant(t *testing.T) {
	t.Run("같은 마켓의 비슷한 이름은 형제 상품으로 새로 생성한다", func(t *testing.T) {
		s := newTestStrategy(nil)
		bread := existingProduct("Bread White", marketA)
		pool := []*model.Product{bread}

		p, action, err := s.MatchOrCreate(context.Background(), model.ProductToMatch{Name: "Bread White Sliced"}, marketA, "", &pool)
		require.NoError(t, err)
		assert.Equal(t, model.ActionCreate, action)
		assert.NotEqual(t, bread.ID, p.ID)
		assert.Len(t, bread.Aliases, 1, "기존 상품은 변경되지 않아야 합니다")
	})

	t.Run("다른 마켓이면 병합한다", func(t *testing.T) {
		s := newTestStrategy(nil)
		bread := existingProduct("Bread White", marketA)
		pool := []*model.Product{bread}

		p, action, err := s.MatchOrCreate(context.Background(), model.ProductToMatch{Name: "Bread White Sliced"}, marketB, "", &pool)
		require.NoError(t, err)
		assert.Equal(t, model.ActionUpdate, action)
		assert.Equal(t, bread.ID, p.ID)
	})

	t.Run("같은 이름이면 형제가 아니다", func(t *testing.T) {
		s := newTestStrategy(nil)
		bread := existingProduct("Bread White", marketA)
		pool := []*model.Product{bread}

		_, action, err := s.MatchOrCreate(context.Background(), model.ProductToMatch{Name: "Bread White"}, marketA, "", &pool)
		require.NoError(t, err)
		assert.Equal(t, model.ActionUpdate, action)
		assert.Len(t, bread.Aliases, 1, "같은 별칭은 다시 추가하지 않아야 합니다")
	})
}

func TestFuzzyStrategy_Merge(t *testing.T) {
	t.Run("다른 마켓", func(t *testing.T) {
		s := newTestStrategy(nil)
		milk := existingProduct("Milk Galychyna 0.9 L", marketA)
		pool := []*model.Product{milk}

		p, action, err := s.MatchOrCreate(context.Background(), model.ProductToMatch{
			Name:       "Milk Galychyna 900 ml",
			ImageURL:   "https://img.example/new.png",
			Attributes: map[string]string{"brand": "New", "Fat": "2.5%"},
		}, marketB, "", &pool)
		require.NoError(t, err)
		require.Equal(t, model.ActionUpdate, action)
		require.Same(t, milk, p)

		assert.Equal(t, []model.Alias{
			{Name: "Milk Galychyna 0.9 L", MarketID: marketA},
			{Name: "Milk Galychyna 900 ml", MarketID: marketB},
		}, p.Aliases)
		assert.Equal(t, map[string]string{"Brand": "Old", "Fat": "2.5%"}, p.Attributes)
		assert.Equal(t, "https://img.example/old.png", p.ImageURL, "원본 마켓이 아니면 이미지를 바꾸지 않습니다")
		assert.Equal(t, fixedNow, p.Updated)
		assert.Len(t, pool, 1)
	})

	t.Run("원본 마켓이면 이미지를 갱신한다", func(t *testing.T) {
		s := newTestStrategy(nil)
		milk := existingProduct("Milk Galychyna 0.9 L", marketA)
		pool := []*model.Product{milk}

		p, _, err := s.MatchOrCreate(context.Background(), model.ProductToMatch{
			Name:     "Milk Galychyna 0.9 L",
			ImageURL: "https://img.example/new.png",
		}, marketA, "", &pool)
		require.NoError(t, err)
		assert.Equal(t, "https://img.example/new.png", p.ImageURL)
	})
}

func TestFuzzyStrategy_Create(t *testing.T) {
	s := newTestStrategy(nil)
	var pool []*model.Product

	parsed := model.ProductToMatch{
		Name:        "Кефір 1л",
		Description: "Кефір 2.5%",
		Category:    "Молочні продукти",
		ImageURL:    "https://img.example/kefir.png",
		Attributes:  map[string]string{"Вага": "1 л"},
	}

	p, action, err := s.MatchOrCreate(context.Background(), parsed, marketA, "category-dairy", &pool)
	require.NoError(t, err)
	require.Equal(t, model.ActionCreate, action)

	assert.NotEmpty(t, p.ID)
	assert.Equal(t, parsed.Name, p.Name)
	assert.Equal(t, parsed.Description, p.Description)
	assert.Equal(t, marketA, p.SourceMarketID)
	assert.Equal(t, parsed.Category, p.SourceCategory)
	assert.Equal(t, "category-dairy", p.CategoryID)
	assert.Equal(t, []model.Alias{{Name: parsed.Name, MarketID: marketA}}, p.Aliases)
	assert.Equal(t, parsed.Attributes, p.Attributes)
	assert.Equal(t, fixedNow, p.Added)

	parsed.Attributes["Вага"] = "changed"
	assert.Equal(t, "1 л", p.Attributes["Вага"], "속성은 복사되어야 합니다")

	require.Len(t, pool, 1, "새 상품은 후보 목록에 추가되어야 합니다")
	assert.Same(t, p, pool[0])

	t.Run("같은 배치의 다음 상품은 방금 생성한 상품과 매칭된다", func(t *testing.T) {
		again, action, err := s.MatchOrCreate(context.Background(), model.ProductToMatch{Name: "Кефір 1л"}, marketB, "", &pool)
		require.NoError(t, err)
		assert.Equal(t, model.ActionUpdate, action)
		assert.Same(t, p, again)
	})

	t.Run("매핑이 없으면 미분류", func(t *testing.T) {
		p, _, err := s.MatchOrCreate(context.Background(), model.ProductToMatch{Name: "Сіль 1кг"}, marketA, model.UnsetCategoryID, &pool)
		require.NoError(t, err)
		assert.False(t, p.IsCategorized())
	})
}

func TestFuzzyStrategy_Create_AttributeKeysIgnoreCase(t *testing.T) {
	s := newTestStrategy(nil)
	var pool []*model.Product

	parsed := model.ProductToMatch{
		Name:       "Сік яблучний 1л",
		Attributes: map[string]string{"Вага": "1 л", "вага": "1000 мл", "Бренд": "Sandora"},
	}

	p, action, err := s.MatchOrCreate(context.Background(), parsed, marketA, "", &pool)
	require.NoError(t, err)
	require.Equal(t, model.ActionCreate, action)

	assert.Len(t, p.Attributes, 2)
	assert.Equal(t, "Sandora", p.Attributes["Бренд"])

	weights := 0
	for k := range p.Attributes {
		if strings.EqualFold(k, "вага") {
			weights++
		}
	}
	assert.Equal(t, 1, weights, "대소문자만 다른 키는 하나만 남아야 합니다")
}

func TestFuzzyStrategy_ParallelScoring(t *testing.T) {
	s := newTestStrategy(constantScorer(90))
	s.workers = 4

	pool := make([]*model.Product, 0, 500)
	for i := 0; i < 500; i++ {
		pool = append(pool, existingProduct(fmt.Sprintf("Product %03d", i), marketB))
	}

	t.Run("최고 점수가 같으면 앞선 후보를 선택한다", func(t *testing.T) {
		p, action, err := s.MatchOrCreate(context.Background(), model.ProductToMatch{Name: "Something else"}, marketA, "", &pool)
		require.NoError(t, err)
		assert.Equal(t, model.ActionUpdate, action)
		assert.Same(t, pool[0], p)
	})

	t.Run("취소", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, _, err := s.MatchOrCreate(ctx, model.ProductToMatch{Name: "Other thing"}, marketA, "", &pool)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
