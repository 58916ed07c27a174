package matching

import (
	"math"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/hbollon/go-edlib"
)

// Scorer 두 문자열의 유사도를 0~100 사이 정수로 반환합니다. 같은 문자열은 100입니다.
type Scorer interface {
	Score(a, b string) int
}

// ScorerFunc 일반 함수를 Scorer로 사용할 수 있게 합니다.
type ScorerFunc func(a, b string) int

func (f ScorerFunc) Score(a, b string) int { return f(a, b) }

// WeightedRatio 단순 비율, 부분 비율, 토큰 정렬, 토큰 집합 점수 중 가중 최댓값을 사용하는 Scorer입니다.
// 비교 전에 문자와 숫자가 아닌 문자를 공백으로 바꾸고 소문자로 변환합니다.
type WeightedRatio struct{}

func (WeightedRatio) Score(a, b string) int {
	a = fullProcess(a)
	b = fullProcess(b)
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 100
	}

	const unbaseScale = 0.95

	base := ratio(a, b)

	longer, shorter := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	if shorter > longer {
		longer, shorter = shorter, longer
	}
	lenRatio := float64(longer) / float64(shorter)

	if lenRatio < 1.5 {
		tokenSort := ratio(sortedTokens(a), sortedTokens(b)) * unbaseScale
		tokenSet := tokenSetRatio(a, b, ratio) * unbaseScale
		return clampScore(math.Max(base, math.Max(tokenSort, tokenSet)))
	}

	partialScale := 0.9
	if lenRatio >= 8 {
		partialScale = 0.6
	}

	partial := partialRatio(a, b) * partialScale
	tokenSort := partialRatio(sortedTokens(a), sortedTokens(b)) * unbaseScale * partialScale
	tokenSet := tokenSetRatio(a, b, partialRatio) * unbaseScale * partialScale
	return clampScore(math.Max(math.Max(base, partial), math.Max(tokenSort, tokenSet)))
}

// fullProcess 문자와 숫자만 남기고 나머지는 공백으로 바꾼 뒤 소문자로 변환합니다. 연속된 공백은 하나로 줄입니다.
func fullProcess(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

func clampScore(v float64) int {
	s := int(math.Round(v))
	switch {
	case s < 0:
		return 0
	case s > 100:
		return 100
	}
	return s
}

// ratio 2*LCS/(len(a)+len(b))*100. 삽입/삭제만 허용하는 편집 거리 기반 유사도와 같습니다.
func ratio(a, b string) float64 {
	total := utf8.RuneCountInString(a) + utf8.RuneCountInString(b)
	if total == 0 {
		return 100
	}
	return float64(2*edlib.LCS(a, b)) * 100 / float64(total)
}

// partialRatio 짧은 문자열을 긴 문자열의 같은 길이 구간과 비교한 최댓값입니다.
func partialRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra) > len(rb) {
		ra, rb = rb, ra
	}
	if len(ra) == 0 {
		return 0
	}

	short := string(ra)
	best := 0.0
	for start := 0; start+len(ra) <= len(rb); start++ {
		r := ratio(short, string(rb[start:start+len(ra)]))
		if r > best {
			best = r
			if best == 100 {
				break
			}
		}
	}
	return best
}

func sortedTokens(s string) string {
	tokens := strings.Fields(s)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

func tokenSetRatio(a, b string, scorer func(x, y string) float64) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)

	var common, onlyA, onlyB []string
	for t := range setA {
		if _, ok := setB[t]; ok {
			common = append(common, t)
		} else {
			onlyA = append(onlyA, t)
		}
	}
	for t := range setB {
		if _, ok := setA[t]; !ok {
			onlyB = append(onlyB, t)
		}
	}
	sort.Strings(common)
	sort.Strings(onlyA)
	sort.Strings(onlyB)

	t0 := strings.Join(common, " ")
	t1 := strings.TrimSpace(t0 + " " + strings.Join(onlyA, " "))
	t2 := strings.TrimSpace(t0 + " " + strings.Join(onlyB, " "))

	best := scorer(t1, t2)
	if t0 != "" {
		best = math.Max(best, math.Max(scorer(t0, t1), scorer(t0, t2)))
	}
	return best
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, t := range strings.Fields(s) {
		set[t] = struct{}{}
	}
	return set
}
