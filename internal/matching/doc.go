// Package matching 크롤링한 상품을 기존 상품과 대조해 같은 상품이면 병합하고 아니면 새로 생성합니다.
//
// 포장 단위(부피, 무게, 수량)가 다른 상품은 이름이 아무리 비슷해도 같은 상품으로 보지 않습니다.
// 유사도는 정규화한 이름과 별칭에 대해 Scorer로 계산하며, 임계값을 초과해야 같은 상품으로 인정합니다.
package matching
