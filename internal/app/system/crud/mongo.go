// internal/app/system/crud/mongo.go
package crud

import (
	"context"
	"time"

	"github.com/touristahq/tourista/internal/app/system/apiquery"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Hooks are the explicit validation/transformation functions a store
// attaches to its collection. They replace implicit lifecycle hooks:
// every write path calls them visibly, nothing else does.
type Hooks[T any] struct {
	// BeforeInsert validates a new document and assigns generated
	// fields (id, slug, defaults, timestamps).
	BeforeInsert func(*T) error
	// BeforePatch re-runs field validators over a partial update and
	// may rewrite derived fields (e.g. slug from name).
	BeforePatch func(bson.M) error
}

// Mongo implements Collection[T] over a mongo collection.
type Mongo[T any] struct {
	c     *mongo.Collection
	base  bson.M
	hooks Hooks[T]
}

// NewMongo wires a typed collection. base may be nil.
func NewMongo[T any](c *mongo.Collection, base bson.M, hooks Hooks[T]) *Mongo[T] {
	return &Mongo[T]{c: c, base: base, hooks: hooks}
}

func (m *Mongo[T]) Base() bson.M {
	out := bson.M{}
	for k, v := range m.base {
		out[k] = v
	}
	return out
}

// byID merges the base filter with an _id match so hidden documents
// stay hidden even when addressed directly.
func (m *Mongo[T]) byID(id primitive.ObjectID) bson.M {
	f := m.Base()
	f["_id"] = id
	return f
}

func (m *Mongo[T]) Insert(ctx context.Context, doc T) (T, error) {
	if m.hooks.BeforeInsert != nil {
		if err := m.hooks.BeforeInsert(&doc); err != nil {
			var zero T
			return zero, err
		}
	}
	if _, err := m.c.InsertOne(ctx, doc); err != nil {
		var zero T
		return zero, err
	}
	return doc, nil
}

func (m *Mongo[T]) FindByID(ctx context.Context, id primitive.ObjectID, pop *Populate) (T, error) {
	var doc T

	if pop == nil {
		err := m.c.FindOne(ctx, m.byID(id)).Decode(&doc)
		return doc, err
	}

	pipeline := []bson.M{
		{"$match": m.byID(id)},
		{"$lookup": bson.M{
			"from":         pop.From,
			"localField":   pop.LocalField,
			"foreignField": pop.ForeignField,
			"as":           pop.As,
		}},
	}
	cur, err := m.c.Aggregate(ctx, pipeline)
	if err != nil {
		return doc, err
	}
	defer cur.Close(ctx)

	if !cur.Next(ctx) {
		if err := cur.Err(); err != nil {
			return doc, err
		}
		return doc, mongo.ErrNoDocuments
	}
	err = cur.Decode(&doc)
	return doc, err
}

func (m *Mongo[T]) FindMany(ctx context.Context, q apiquery.Query) ([]T, error) {
	cur, err := m.c.Find(ctx, q.Filter, q.FindOptions())
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	docs := []T{}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (m *Mongo[T]) UpdateByID(ctx context.Context, id primitive.ObjectID, patch bson.M) (T, error) {
	var doc T

	if m.hooks.BeforePatch != nil {
		if err := m.hooks.BeforePatch(patch); err != nil {
			return doc, err
		}
	}
	patch["updatedAt"] = time.Now().UTC()

	err := m.c.FindOneAndUpdate(
		ctx,
		m.byID(id),
		bson.M{"$set": patch},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	return doc, err
}

func (m *Mongo[T]) DeleteByID(ctx context.Context, id primitive.ObjectID) error {
	res, err := m.c.DeleteOne(ctx, m.byID(id))
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
