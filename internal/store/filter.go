package store

import "reflect"

// Condition 필드 하나에 대한 동등 조건입니다.
type Condition struct {
	Field string
	Value any
}

// Filter 조건들의 논리곱입니다. 비어 있으면 모든 엔티티와 일치합니다.
type Filter []Condition

// All 모든 엔티티와 일치하는 Filter입니다.
var All Filter

// Eq field == value 조건을 생성합니다.
func Eq(field string, value any) Condition {
	return Condition{Field: field, Value: value}
}

// Where 조건들을 묶어 Filter를 생성합니다.
func Where(conds ...Condition) Filter {
	return Filter(conds)
}

// Match e가 모든 조건을 만족하는지 확인합니다. 알 수 없는 필드는 불일치로 처리합니다.
func (f Filter) Match(e Entity) bool {
	for _, c := range f {
		v, ok := e.Field(c.Field)
		if !ok || !reflect.DeepEqual(v, c.Value) {
			return false
		}
	}
	return true
}
