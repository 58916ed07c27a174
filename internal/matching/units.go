package matching

import (
	"regexp"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
)

var (
	volumeRegex = regexp.MustCompile(`(?i)(\d+(?:[,.]\d+)?)\s*(л|l|мл|ml)`)
	weightRegex = regexp.MustCompile(`(?i)(\d+(?:[,.]\d+)?)\s*(кг|kg|г|g)`)
	amountRegex = regexp.MustCompile(`(?i)(\d+)\s*(шт|pc|pcs)`)
)

var thousand = decimal.NewFromInt(1000)

// ProductUnits 상품 이름에서 추출한 포장 단위입니다. 값은 큰 단위로 환산된 문자열입니다. (예: "0.5л", "1.2кг", "6шт")
type ProductUnits struct {
	Volume           string
	Weight           string
	Amount           string
	NameWithoutUnits string
}

// HasUnits 단위가 하나라도 있는지 여부입니다.
func (u ProductUnits) HasUnits() bool {
	return u.Volume != "" || u.Weight != "" || u.Amount != ""
}

// Equal 두 상품이 같은 포장 단위인지 확인합니다. 둘 다 단위가 없으면 같은 것으로 봅니다.
func (u ProductUnits) Equal(o ProductUnits) bool {
	if u.HasUnits() != o.HasUnits() {
		return false
	}
	if !u.HasUnits() {
		return true
	}
	return u.Volume == o.Volume && u.Weight == o.Weight && u.Amount == o.Amount
}

// ExtractUnits 이름에서 부피(л/мл), 무게(кг/г), 수량(шт) 토큰을 추출합니다.
// мл과 г는 1000으로 나누어 л과 кг로 환산합니다.
func ExtractUnits(name string) ProductUnits {
	rest := volumeRegex.ReplaceAllString(name, "")
	rest = weightRegex.ReplaceAllString(rest, "")
	rest = amountRegex.ReplaceAllString(rest, "")

	return ProductUnits{
		Volume:           extractScaled(name, volumeRegex, "л", "мл", "ml"),
		Weight:           extractScaled(name, weightRegex, "кг", "г", "g"),
		Amount:           extractAmount(name),
		NameWithoutUnits: strings.Join(strings.Fields(rest), " "),
	}
}

func extractScaled(name string, re *regexp.Regexp, largeUnit string, smallUnits ...string) string {
	m := re.FindStringSubmatch(name)
	if m == nil {
		return ""
	}

	value, err := decimal.NewFromString(strings.ReplaceAll(m[1], ",", "."))
	if err != nil {
		return ""
	}

	unit := strings.ToLower(m[2])
	for _, small := range smallUnits {
		if unit == small {
			value = value.Div(thousand)
			break
		}
	}

	return value.String() + largeUnit
}

func extractAmount(name string) string {
	m := amountRegex.FindStringSubmatch(name)
	if m == nil {
		return ""
	}

	value, err := decimal.NewFromString(m[1])
	if err != nil {
		return ""
	}
	return value.String() + "шт"
}

// unitsCache 이름별 추출 결과를 보관합니다. 후보 상품의 단위는 배치마다 반복해서 필요합니다.
type unitsCache struct {
	m sync.Map
}

func (c *unitsCache) get(name string) ProductUnits {
	if v, ok := c.m.Load(name); ok {
		return v.(ProductUnits)
	}
	u := ExtractUnits(name)
	c.m.Store(name, u)
	return u
}
