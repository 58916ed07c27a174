// Package model 크롤링, 매칭, 저장 전반에서 공유하는 도메인 타입을 정의합니다.
//
// 영속 엔티티(Product, PriceEntry, Market, CrawlerHistory, CategoryMapping, CategorizationIssue)는
// store.Entity를 구현하며, Field에서 사용하는 필드 이름은 json/bson 태그 이름과 같습니다.
// ParsedProduct, MatchResult는 한 번의 크롤링 사이클 안에서만 존재하는 일시적인 값입니다.
package model
