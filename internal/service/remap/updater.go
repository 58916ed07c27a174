// Package remap 카테고리 매핑이 새로 등록되었을 때 미분류 상품에 카테고리를 다시 배정합니다.
package remap

import (
	"context"

	"github.com/darkkaiser/price-tracker/internal/model"
	apperrors "github.com/darkkaiser/price-tracker/internal/pkg/errors"
	"github.com/darkkaiser/price-tracker/internal/store"
	applog "github.com/darkkaiser/price-tracker/pkg/log"
)

const component = "service.remap"

// Result 재매핑 한 번의 처리 건수입니다.
type Result struct {
	Mappings      int
	Uncategorized int
	Updated       int
	IssuesDeleted int
}

// Updater 미분류 상품에 카테고리를 배정합니다.
type Updater struct {
	store *store.Collections
}

// NewUpdater Updater를 생성합니다.
func NewUpdater(c *store.Collections) *Updater {
	if c == nil {
		panic("store.Collections는 필수입니다")
	}
	return &Updater{store: c}
}

// Run 매핑이 있는 미분류 상품의 카테고리를 설정하고, 해결된 분류 이슈를 삭제합니다.
//
// 조회 실패는 에러로 반환합니다. 일괄 갱신과 이슈 삭제의 실패는 로그만 남기며 다음 주기에 다시 시도됩니다.
func (u *Updater) Run(ctx context.Context) (Result, error) {
	var result Result

	mappings, err := u.store.CategoryMappings.Find(ctx, store.All)
	if err != nil {
		return result, apperrors.Wrap(err, apperrors.Unavailable, "카테고리 매핑 목록을 조회하지 못했습니다")
	}
	result.Mappings = len(mappings)

	targets := make(map[model.CategoryKey]string, len(mappings))
	for _, m := range mappings {
		targets[m.Key()] = m.TargetCategoryID
	}

	products, err := u.store.Products.Find(ctx, store.Where(store.Eq(model.FieldCategoryID, model.UnsetCategoryID)))
	if err != nil {
		return result, apperrors.Wrap(err, apperrors.Unavailable, "미분류 상품 목록을 조회하지 못했습니다")
	}
	result.Uncategorized = len(products)

	var changed []*model.Product
	for _, p := range products {
		target, ok := targets[model.CategoryKey{MarketID: p.SourceMarketID, Category: p.SourceCategory}]
		if !ok || target == model.UnsetCategoryID {
			continue
		}
		p.CategoryID = target
		changed = append(changed, p)
	}

	if len(changed) > 0 {
		if err := u.store.Products.BulkUpdate(ctx, changed, false); err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			applog.WithComponentAndFields(component, applog.Fields{
				"count": len(changed),
				"error": err,
			}).Error("상품 카테고리를 일괄 갱신하지 못했습니다")
		} else {
			result.Updated = len(changed)
		}
	}

	issues, err := u.store.CategorizationIssues.Find(ctx, store.All)
	if err != nil {
		return result, apperrors.Wrap(err, apperrors.Unavailable, "카테고리 분류 이슈 목록을 조회하지 못했습니다")
	}

	var resolved []string
	for _, i := range issues {
		if _, ok := targets[i.Key()]; ok {
			resolved = append(resolved, i.ID)
		}
	}

	if len(resolved) > 0 {
		if err := u.store.CategorizationIssues.DeleteMany(ctx, resolved); err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			applog.WithComponentAndFields(component, applog.Fields{
				"count": len(resolved),
				"error": err,
			}).Error("해결된 카테고리 분류 이슈를 삭제하지 못했습니다")
		} else {
			result.IssuesDeleted = len(resolved)
		}
	}

	applog.WithComponentAndFields(component, applog.Fields{
		"mappings":       result.Mappings,
		"uncategorized":  result.Uncategorized,
		"updated":        result.Updated,
		"issues_deleted": result.IssuesDeleted,
	}).Info("카테고리 재매핑 완료")

	return result, nil
}
