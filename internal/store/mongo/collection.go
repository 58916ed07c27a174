// Package mongo MongoDB에 엔티티를 보관하는 저장소입니다.
package mongo

import (
	"context"
	"errors"

	apperrors "github.com/darkkaiser/price-tracker/internal/pkg/errors"
	"github.com/darkkaiser/price-tracker/internal/store"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Collection store.Collection의 MongoDB 구현체입니다.
type Collection[T store.Entity] struct {
	coll  *mongo.Collection
	newFn func() T
}

var _ store.Collection[store.Entity] = (*Collection[store.Entity])(nil)

// NewCollection db의 name 컬렉션을 감쌉니다.
func NewCollection[T store.Entity](db *mongo.Database, name string, newFn func() T) *Collection[T] {
	return &Collection[T]{coll: db.Collection(name), newFn: newFn}
}

func (c *Collection[T]) Find(ctx context.Context, filter store.Filter) ([]T, error) {
	cur, err := c.coll.Find(ctx, toBSON(filter))
	if err != nil {
		return nil, c.wrap(err, "조회")
	}
	defer cur.Close(ctx)

	var result []T
	for cur.Next(ctx) {
		e := c.newFn()
		if err := cur.Decode(e); err != nil {
			return nil, c.wrap(err, "역직렬화")
		}
		result = append(result, e)
	}
	if err := cur.Err(); err != nil {
		return nil, c.wrap(err, "조회")
	}
	return result, nil
}

func (c *Collection[T]) FindOne(ctx context.Context, filter store.Filter) (T, bool, error) {
	var zero T

	e := c.newFn()
	if err := c.coll.FindOne(ctx, toBSON(filter)).Decode(e); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return zero, false, nil
		}
		return zero, false, c.wrap(err, "조회")
	}
	return e, true, nil
}

func (c *Collection[T]) Create(ctx context.Context, entity T) error {
	if entity.EntityID() == "" {
		return store.NewErrEmptyID(c.coll.Name())
	}
	if _, err := c.coll.InsertOne(ctx, entity); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return store.NewErrDuplicateID(c.coll.Name(), entity.EntityID())
		}
		return c.wrap(err, "생성")
	}
	return nil
}

func (c *Collection[T]) CreateMany(ctx context.Context, entities []T) error {
	if len(entities) == 0 {
		return nil
	}

	docs := make([]any, 0, len(entities))
	for _, e := range entities {
		if e.EntityID() == "" {
			return store.NewErrEmptyID(c.coll.Name())
		}
		docs = append(docs, e)
	}

	if _, err := c.coll.InsertMany(ctx, docs); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperrors.Wrap(err, apperrors.Conflict, "'"+c.coll.Name()+"' 컬렉션에 이미 존재하는 ID가 포함되어 있습니다")
		}
		return c.wrap(err, "일괄 생성")
	}
	return nil
}

func (c *Collection[T]) BulkUpdate(ctx context.Context, entities []T, upsert bool) error {
	if len(entities) == 0 {
		return nil
	}

	models := make([]mongo.WriteModel, 0, len(entities))
	for _, e := range entities {
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.D{{Key: "_id", Value: e.EntityID()}}).
			SetReplacement(e).
			SetUpsert(upsert))
	}

	if _, err := c.coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false)); err != nil {
		return c.wrap(err, "일괄 갱신")
	}
	return nil
}

func (c *Collection[T]) DeleteMany(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	filter := bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}}}
	if _, err := c.coll.DeleteMany(ctx, filter); err != nil {
		return c.wrap(err, "일괄 삭제")
	}
	return nil
}

func (c *Collection[T]) Count(ctx context.Context, filter store.Filter) (int64, error) {
	n, err := c.coll.CountDocuments(ctx, toBSON(filter))
	if err != nil {
		return 0, c.wrap(err, "개수 조회")
	}
	return n, nil
}

func (c *Collection[T]) wrap(err error, op string) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return apperrors.Wrap(err, apperrors.Unavailable, "'"+c.coll.Name()+"' 컬렉션 "+op+" 중 오류가 발생했습니다")
}

func toBSON(filter store.Filter) bson.D {
	d := bson.D{}
	for _, cond := range filter {
		d = append(d, bson.E{Key: cond.Field, Value: cond.Value})
	}
	return d
}
