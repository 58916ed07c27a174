// Package backend 설정에 따라 저장소 구현체를 선택해 엽니다.
package backend

import (
	"context"
	"fmt"

	"github.com/darkkaiser/price-tracker/internal/config"
	apperrors "github.com/darkkaiser/price-tracker/internal/pkg/errors"
	"github.com/darkkaiser/price-tracker/internal/store"
	"github.com/darkkaiser/price-tracker/internal/store/memory"
	"github.com/darkkaiser/price-tracker/internal/store/mongo"
	applog "github.com/darkkaiser/price-tracker/pkg/log"
)

const component = "store"

// Open cfg.Driver에 해당하는 저장소를 엽니다.
func Open(ctx context.Context, cfg config.StoreConfig) (*store.Collections, error) {
	applog.WithComponentAndFields(component, applog.Fields{
		"driver": cfg.Driver,
		"dir":    cfg.Dir,
	}).Info("저장소 열기 시작")

	switch cfg.Driver {
	case config.StoreDriverMemory:
		return memory.New(), nil

	case config.StoreDriverFile:
		return memory.OpenDir(cfg.Dir)

	case config.StoreDriverMongo:
		return mongo.Open(ctx, cfg.Mongo.URI, cfg.Mongo.Database, cfg.Mongo.Timeout)
	}

	return nil, apperrors.New(apperrors.InvalidInput, fmt.Sprintf("지원하지 않는 저장소 드라이버입니다: '%s'", cfg.Driver))
}
