// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// EnsureAll is called at startup. Each ensure* function is idempotent.
// Errors are aggregated so every problem is visible and startup can
// fail fast.
func EnsureAll(ctx context.Context, db *mongo.Database, log *zap.Logger) error {
	var problems []string

	if err := ensureUsers(ctx, db); err != nil {
		problems = append(problems, "users: "+err.Error())
	}
	if err := ensureTours(ctx, db); err != nil {
		problems = append(problems, "tours: "+err.Error())
	}
	if err := ensureReviews(ctx, db); err != nil {
		problems = append(problems, "reviews: "+err.Error())
	}
	if err := ensureBookings(ctx, db); err != nil {
		problems = append(problems, "bookings: "+err.Error())
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	log.Info("indexes ensured",
		zap.Strings("collections", []string{"users", "tours", "reviews", "bookings"}))
	return nil
}

func ensure(ctx context.Context, db *mongo.Database, coll string, models []mongo.IndexModel) error {
	_, err := db.Collection(coll).Indexes().CreateMany(ctx, models)
	return err
}

func ensureUsers(ctx context.Context, db *mongo.Database) error {
	return ensure(ctx, db, "users", []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("email_unique").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "passwordResetToken", Value: 1}},
			Options: options.Index().SetName("reset_token").SetSparse(true),
		},
	})
}

func ensureTours(ctx context.Context, db *mongo.Database) error {
	return ensure(ctx, db, "tours", []mongo.IndexModel{
		{
			// Compound index serving the common price/rating list queries.
			Keys:    bson.D{{Key: "price", Value: 1}, {Key: "ratingsAverage", Value: -1}},
			Options: options.Index().SetName("price_rating"),
		},
		{
			Keys:    bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetName("slug"),
		},
		{
			// Geospatial queries (tours-within, distances) need 2dsphere.
			Keys:    bson.D{{Key: "startLocation", Value: "2dsphere"}},
			Options: options.Index().SetName("start_location_geo"),
		},
	})
}

func ensureReviews(ctx context.Context, db *mongo.Database) error {
	return ensure(ctx, db, "reviews", []mongo.IndexModel{
		{
			// One review per user per tour.
			Keys:    bson.D{{Key: "tour", Value: 1}, {Key: "user", Value: 1}},
			Options: options.Index().SetName("tour_user_unique").SetUnique(true),
		},
	})
}

func ensureBookings(ctx context.Context, db *mongo.Database) error {
	return ensure(ctx, db, "bookings", []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user", Value: 1}},
			Options: options.Index().SetName("by_user"),
		},
		{
			Keys:    bson.D{{Key: "tour", Value: 1}},
			Options: options.Index().SetName("by_tour"),
		},
	})
}
