package matching

import (
	"context"
	"runtime"
	"strings"
	"time"

	"github.com/darkkaiser/price-tracker/internal/model"
	"golang.org/x/sync/errgroup"
)

// DefaultThreshold 같은 상품으로 인정하는 유사도 하한(초과)입니다.
const DefaultThreshold = 80

// 후보 수가 이보다 적으면 병렬로 나누지 않습니다.
const minCandidatesPerWorker = 64

// FuzzyStrategy 유사도 기반으로 상품을 매칭합니다.
type FuzzyStrategy struct {
	scorer     Scorer
	normalizer *NameNormalizer
	units      unitsCache
	threshold  int
	workers    int

	now func() time.Time
}

// NewFuzzyStrategy scorer가 nil이면 WeightedRatio를 사용합니다.
func NewFuzzyStrategy(scorer Scorer, threshold int) *FuzzyStrategy {
	if scorer == nil {
		scorer = WeightedRatio{}
	}
	return &FuzzyStrategy{
		scorer:     scorer,
		normalizer: NewNameNormalizer(),
		threshold:  threshold,
		workers:    runtime.GOMAXPROCS(0),
		now:        time.Now,
	}
}

type candidate struct {
	product        *model.Product
	normalizedName string
	aliases        []model.Alias // 이름이 정규화된 별칭
}

// MatchOrCreate parsed와 같은 상품을 pool에서 찾아 병합하거나, 없으면 새 상품을 생성해 pool 끝에 추가합니다.
//
// 병합하면 별칭과 누락된 속성을 추가하고 ActionUpdate를 반환합니다.
// 생성하면 mappedCategoryID(비어 있으면 미분류)로 분류된 새 상품과 ActionCreate를 반환합니다.
func (s *FuzzyStrategy) MatchOrCreate(ctx context.Context, parsed model.ProductToMatch, marketID, mappedCategoryID string, pool *[]*model.Product) (*model.Product, model.Action, error) {
	best, err := s.findBest(ctx, parsed.Name, marketID, *pool)
	if err != nil {
		return nil, 0, err
	}

	now := s.now().UTC()

	if best != nil {
		if !best.HasAlias(parsed.Name, marketID) {
			best.Aliases = append(best.Aliases, model.Alias{Name: parsed.Name, MarketID: marketID})
		}
		best.MergeAttributes(parsed.Attributes)
		if marketID == best.SourceMarketID {
			best.ImageURL = parsed.ImageURL
		}
		best.Updated = now
		return best, model.ActionUpdate, nil
	}

	p := &model.Product{
		ID:             model.NewID(),
		Name:           parsed.Name,
		Description:    parsed.Description,
		ImageURL:       parsed.ImageURL,
		SourceMarketID: marketID,
		SourceCategory: parsed.Category,
		CategoryID:     mappedCategoryID,
		Aliases:        []model.Alias{{Name: parsed.Name, MarketID: marketID}},
		Attributes:     make(map[string]string, len(parsed.Attributes)),
		Added:          now,
		Updated:        now,
	}
	p.MergeAttributes(parsed.Attributes)
	*pool = append(*pool, p)

	return p, model.ActionCreate, nil
}

func (s *FuzzyStrategy) findBest(ctx context.Context, inputName, marketID string, pool []*model.Product) (*model.Product, error) {
	inputUnits := s.units.get(inputName)
	input := s.normalizer.Normalize(inputName)

	// 1. 포장 단위가 같은 후보만 남긴다.
	candidates := make([]candidate, 0, len(pool))
	for _, p := range pool {
		if !s.units.get(p.Name).Equal(inputUnits) {
			continue
		}

		aliases := make([]model.Alias, len(p.Aliases))
		for i, a := range p.Aliases {
			aliases[i] = model.Alias{Name: s.normalizer.Normalize(a.Name), MarketID: a.MarketID}
		}
		candidates = append(candidates, candidate{
			product:        p,
			normalizedName: s.normalizer.Normalize(p.Name),
			aliases:        aliases,
		})
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	// 2. 이름이나 다른 마켓 별칭이 서로 포함 관계인 후보가 있으면 그것들만 점수를 매긴다.
	if quick := quickMatches(candidates, input, marketID); len(quick) > 0 {
		candidates = quick
	}

	// 3. 점수 계산 (읽기 전용, 병렬)
	scores, err := s.scoreAll(ctx, candidates, input, marketID)
	if err != nil {
		return nil, err
	}

	bestIdx, bestScore := -1, -1
	for i, score := range scores {
		if score > bestScore {
			bestIdx, bestScore = i, score
		}
	}

	if bestScore > s.threshold {
		return candidates[bestIdx].product, nil
	}
	return nil, nil
}

func quickMatches(candidates []candidate, input, marketID string) []candidate {
	var quick []candidate
	for _, c := range candidates {
		if containsEither(c.normalizedName, input) {
			quick = append(quick, c)
			continue
		}
		for _, a := range c.aliases {
			if a.MarketID != marketID && containsEither(a.Name, input) {
				quick = append(quick, c)
				break
			}
		}
	}
	return quick
}

func containsEither(a, b string) bool {
	return strings.Contains(a, b) || strings.Contains(b, a)
}

func (s *FuzzyStrategy) scoreAll(ctx context.Context, candidates []candidate, input, marketID string) ([]int, error) {
	scores := make([]int, len(candidates))

	workers := s.workers
	if n := len(candidates) / minCandidatesPerWorker; n < workers {
		workers = n
	}
	if workers <= 1 {
		for i := range candidates {
			scores[i] = s.score(candidates[i], input, marketID)
		}
		return scores, ctx.Err()
	}

	g, gctx := errgroup.WithContext(ctx)
	chunk := (len(candidates) + workers - 1) / workers
	for start := 0; start < len(candidates); start += chunk {
		end := min(start+chunk, len(candidates))
		g.Go(func() error {
			for i := start; i < end; i++ {
				if i%minCandidatesPerWorker == 0 {
					if err := gctx.Err(); err != nil {
						return err
					}
				}
				scores[i] = s.score(candidates[i], input, marketID)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return scores, nil
}

// score 같은 마켓에 이름이 다르지만 충분히 비슷한 별칭이 있으면 의도적으로 구분된 형제 상품으로 보고 0점을 줍니다.
func (s *FuzzyStrategy) score(c candidate, input, marketID string) int {
	for _, a := range c.aliases {
		if a.MarketID == marketID && a.Name != input && s.scorer.Score(a.Name, input) >= s.threshold {
			return 0
		}
	}

	best := s.scorer.Score(c.normalizedName, input)
	for _, a := range c.aliases {
		if score := s.scorer.Score(a.Name, input); score > best {
			best = score
		}
	}
	return best
}
