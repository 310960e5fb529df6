// Package crud provides the generic resource layer: a capability-set
// collection interface over the document store and a handler factory
// that produces the five standard operations (list, get, create,
// update, delete) for any entity type.
package crud

import (
	"context"

	"github.com/touristahq/tourista/internal/app/system/apiquery"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Populate describes an eager relation attached on single-document
// reads: documents from another collection joined by foreign key.
type Populate struct {
	From         string // source collection
	LocalField   string // field on this entity (usually "_id")
	ForeignField string // field on the related collection
	As           string // output field on the entity
}

// Collection is the capability set the handler factory needs from a
// store. Implementations return raw driver errors (ErrNoDocuments,
// duplicate-key) and leave classification to the apperr translator.
type Collection[T any] interface {
	// Base is the filter merged into every read; stores pin invariants
	// here (secretTour, active) that callers cannot override.
	Base() bson.M

	Insert(ctx context.Context, doc T) (T, error)
	FindByID(ctx context.Context, id primitive.ObjectID, pop *Populate) (T, error)
	FindMany(ctx context.Context, q apiquery.Query) ([]T, error)
	UpdateByID(ctx context.Context, id primitive.ObjectID, patch bson.M) (T, error)
	DeleteByID(ctx context.Context, id primitive.ObjectID) error
}
