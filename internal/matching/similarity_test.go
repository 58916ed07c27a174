package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWeightedRatio(t *testing.T) {
	s := WeightedRatio{}

	tests := []struct {
		name string
		a, b string
		want int
	}{
		{"같은 문자열", "bread white", "bread white", 100},
		{"대소문자 무시", "Bread White", "bread white", 100},
		{"빈 문자열", "", "bread", 0},
		{"둘 다 빈 문자열", "", "", 0},
		{"문장 부호 무시", "Молоко, 2.5%", "молоко 2 5", 100},
		{"키릴 문자 유지", "Хліб білий", "хліб білий", 100},
		{"토큰 순서만 다름", "white bread", "bread white", 95},
		{"접두 포함 (부분 비율)", "bread white", "bread white sliced", 90},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Score(tt.a, tt.b))
			assert.Equal(t, tt.want, s.Score(tt.b, tt.a), "점수는 대칭이어야 합니다")
		})
	}
}

func TestWeightedRatio_Range(t *testing.T) {
	s := WeightedRatio{}
	pairs := [][2]string{
		{"молоко галичина 2 5% 0 9л", "молоко яготинське 2 6% 0 9л"},
		{"a", "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"},
		{"хліб", "bread"},
		{"x y z", "z y x w v u t s r q"},
	}
	for _, p := range pairs {
		score := s.Score(p[0], p[1])
		assert.GreaterOrEqual(t, score, 0)
		assert.LessOrEqual(t, score, 100)
	}
}

func TestFullProcess(t *testing.T) {
	assert.Equal(t, "молоко 2 5", fullProcess("  Молоко 2,5% "))
	assert.Equal(t, "кефір 1л", fullProcess("Кефір (1л)"))
	assert.Equal(t, "", fullProcess("-/%"))
}

func TestRatio(t *testing.T) {
	assert.Equal(t, 100.0, ratio("", ""))
	assert.Equal(t, 0.0, ratio("", "abc"))
	assert.Equal(t, 100.0, ratio("abc", "abc"))
	assert.Equal(t, 50.0, ratio("abcd", "xbxd"))
	// 2*4/(10+4)
	assert.InDelta(t, 57.14, ratio("хліб білий", "хліб"), 0.01)
}
