package mongo

import (
	"context"
	"time"

	"github.com/darkkaiser/price-tracker/internal/model"
	apperrors "github.com/darkkaiser/price-tracker/internal/pkg/errors"
	"github.com/darkkaiser/price-tracker/internal/store"
	applog "github.com/darkkaiser/price-tracker/pkg/log"
	"github.com/darkkaiser/price-tracker/pkg/strutil"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const component = "store.mongo"

// 컬렉션 이름
const (
	MarketsCollection              = "markets"
	ProductsCollection             = "products"
	PriceEntriesCollection         = "price_entries"
	CrawlerHistoriesCollection     = "crawler_histories"
	CategoryMappingsCollection     = "category_mappings"
	CategorizationIssuesCollection = "categorization_issues"
)

// Open MongoDB에 접속하고 컬렉션 묶음을 반환합니다. 접속 확인(ping)에 실패하면 에러를 반환합니다.
func Open(ctx context.Context, uri, database string, timeout time.Duration) (*store.Collections, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetRegistry(newRegistry()).
		SetTimeout(timeout)

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.Unavailable, "MongoDB 클라이언트를 생성하지 못했습니다")
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, apperrors.Wrap(err, apperrors.Unavailable, "MongoDB 서버에 접속하지 못했습니다")
	}

	applog.WithComponentAndFields(component, applog.Fields{
		"uri":      strutil.Mask(uri),
		"database": database,
	}).Info("MongoDB 저장소 연결 완료")

	db := client.Database(database)
	return store.NewCollections(
		NewCollection(db, MarketsCollection, func() *model.Market { return new(model.Market) }),
		NewCollection(db, ProductsCollection, func() *model.Product { return new(model.Product) }),
		NewCollection(db, PriceEntriesCollection, func() *model.PriceEntry { return new(model.PriceEntry) }),
		NewCollection(db, CrawlerHistoriesCollection, func() *model.CrawlerHistory { return new(model.CrawlerHistory) }),
		NewCollection(db, CategoryMappingsCollection, func() *model.CategoryMapping { return new(model.CategoryMapping) }),
		NewCollection(db, CategorizationIssuesCollection, func() *model.CategorizationIssue { return new(model.CategorizationIssue) }),
		client.Disconnect,
	), nil
}
