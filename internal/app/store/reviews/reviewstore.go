// internal/app/store/reviews/reviewstore.go
package reviews

import (
	"context"
	"math"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/touristahq/tourista/internal/app/system/apiquery"
	"github.com/touristahq/tourista/internal/app/system/apperr"
	"github.com/touristahq/tourista/internal/app/system/crud"
	"github.com/touristahq/tourista/internal/app/system/sanitize"
	"github.com/touristahq/tourista/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collectionName = "reviews"

// Defaults written back to a tour when its last review disappears.
const (
	defaultQuantity = 0
	defaultAverage  = 4.5
)

// RatingWriter receives the recomputed review statistics for a tour.
// The tours store implements it.
type RatingWriter interface {
	UpdateRatingStats(ctx context.Context, tourID primitive.ObjectID, quantity int, average float64) error
}

// Store owns the reviews collection.
type Store struct {
	coll    *crud.Mongo[models.Review]
	c       *mongo.Collection
	ratings RatingWriter
}

func New(db *mongo.Database, ratings RatingWriter) *Store {
	c := db.Collection(collectionName)
	s := &Store{c: c, ratings: ratings}
	s.coll = crud.NewMongo[models.Review](c, nil, crud.Hooks[models.Review]{
		BeforeInsert: beforeInsert,
		BeforePatch:  beforePatch,
	})
	return s
}

// Collection exposes the store for the generic handlers. The store is
// itself the collection so Insert can map the unique-index violation to
// a friendlier duplicate message.
func (s *Store) Collection() crud.Collection[models.Review] { return s }

func (s *Store) Base() bson.M { return s.coll.Base() }

func (s *Store) FindByID(ctx context.Context, id primitive.ObjectID, pop *crud.Populate) (models.Review, error) {
	return s.coll.FindByID(ctx, id, pop)
}

func (s *Store) FindMany(ctx context.Context, q apiquery.Query) ([]models.Review, error) {
	return s.coll.FindMany(ctx, q)
}

func (s *Store) UpdateByID(ctx context.Context, id primitive.ObjectID, patch bson.M) (models.Review, error) {
	return s.coll.UpdateByID(ctx, id, patch)
}

func (s *Store) DeleteByID(ctx context.Context, id primitive.ObjectID) error {
	return s.coll.DeleteByID(ctx, id)
}

func beforeInsert(r *models.Review) error {
	r.Review = sanitize.Text(r.Review)
	if r.Review == "" {
		return apperr.ValidationFailed("a review cannot be empty")
	}
	if err := validateRating(r.Rating); err != nil {
		return err
	}
	if r.TourID.IsZero() {
		return apperr.ValidationFailed("a review must belong to a tour")
	}
	if r.UserID.IsZero() {
		return apperr.ValidationFailed("a review must belong to a user")
	}

	r.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	r.CreatedAt = now
	r.UpdatedAt = now
	return nil
}

func beforePatch(patch bson.M) error {
	sanitize.Patch(patch, "review")

	// Re-parenting a review is never allowed.
	delete(patch, "tour")
	delete(patch, "user")

	if v, ok := patch["review"]; ok {
		if text, _ := v.(string); text == "" {
			return apperr.ValidationFailed("a review cannot be empty")
		}
	}
	if v, ok := patch["rating"]; ok {
		rating, _ := v.(float64)
		if err := validateRating(rating); err != nil {
			return err
		}
	}
	return nil
}

func validateRating(rating float64) error {
	if rating < 1 || rating > 5 {
		return apperr.ValidationFailed("rating must be between 1.0 and 5.0")
	}
	return nil
}

// Insert adds a review, mapping the unique tour+user index violation to
// a duplicate error.
func (s *Store) Insert(ctx context.Context, r models.Review) (models.Review, error) {
	created, err := s.coll.Insert(ctx, r)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return models.Review{}, apperr.Duplicate("you have already reviewed this tour")
		}
		return models.Review{}, err
	}
	return created, nil
}

// TourIDOf looks up which tour a review belongs to, for recomputing
// stats after update or delete.
func (s *Store) TourIDOf(ctx context.Context, reviewID primitive.ObjectID) (primitive.ObjectID, error) {
	var doc struct {
		TourID primitive.ObjectID `bson:"tour"`
	}
	err := s.c.FindOne(ctx, bson.M{"_id": reviewID},
		options.FindOne().SetProjection(bson.M{"tour": 1})).Decode(&doc)
	return doc.TourID, err
}

// RecalcTourStats recomputes a tour's rating count and average from its
// reviews and writes the result onto the tour. A tour with no reviews
// reverts to the defaults.
func (s *Store) RecalcTourStats(ctx context.Context, tourID primitive.ObjectID) error {
	pipeline := []bson.M{
		{"$match": bson.M{"tour": tourID}},
		{"$group": bson.M{
			"_id":       "$tour",
			"nRating":   bson.M{"$sum": 1},
			"avgRating": bson.M{"$avg": "$rating"},
		}},
	}
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return err
	}
	defer cur.Close(ctx)

	var stats []struct {
		NRating   int     `bson:"nRating"`
		AvgRating float64 `bson:"avgRating"`
	}
	if err := cur.All(ctx, &stats); err != nil {
		return err
	}

	if len(stats) == 0 {
		return s.ratings.UpdateRatingStats(ctx, tourID, defaultQuantity, defaultAverage)
	}
	avg := math.Round(stats[0].AvgRating*10) / 10
	return s.ratings.UpdateRatingStats(ctx, tourID, stats[0].NRating, avg)
}
