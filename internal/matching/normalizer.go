package matching

import (
	"strings"
	"sync"

	"golang.org/x/text/unicode/norm"
)

var nameReplacer = strings.NewReplacer(
	`"`, "",
	"'", "",
	",", " ",
	".", " ",
)

// NameNormalizer 비교용으로 상품 이름을 정규화합니다. 결과는 입력 문자열별로 메모이제이션됩니다.
// 여러 고루틴에서 동시에 사용해도 안전합니다.
type NameNormalizer struct {
	cache sync.Map
}

// NewNameNormalizer 빈 캐시로 정규화기를 생성합니다.
func NewNameNormalizer() *NameNormalizer {
	return &NameNormalizer{}
}

// Normalize NFC 정규화 후 소문자로 바꾸고, 따옴표를 제거하며, 쉼표와 마침표를 공백으로 바꾸고, 연속 공백을 하나로 줄입니다.
func (n *NameNormalizer) Normalize(name string) string {
	if v, ok := n.cache.Load(name); ok {
		return v.(string)
	}

	normalized := norm.NFC.String(name)
	normalized = strings.ToLower(normalized)
	normalized = nameReplacer.Replace(normalized)
	normalized = strings.Join(strings.Fields(normalized), " ")

	n.cache.Store(name, normalized)
	return normalized
}
