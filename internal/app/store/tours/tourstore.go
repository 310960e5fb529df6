// internal/app/store/tours/tourstore.go
package tours

import (
	"context"
	"fmt"
	"time"

	"github.com/gosimple/slug"
	"github.com/touristahq/tourista/internal/app/system/apperr"
	"github.com/touristahq/tourista/internal/app/system/crud"
	"github.com/touristahq/tourista/internal/app/system/sanitize"
	"github.com/touristahq/tourista/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const collectionName = "tours"

// Store owns the tours collection. Every public read carries the
// secret-tour filter; only UpdateRatingStats bypasses it, because a
// secret tour still accumulates review stats.
type Store struct {
	coll *crud.Mongo[models.Tour]
	c    *mongo.Collection
}

func New(db *mongo.Database) *Store {
	c := db.Collection(collectionName)
	s := &Store{c: c}
	s.coll = crud.NewMongo[models.Tour](c,
		bson.M{"secretTour": bson.M{"$ne": true}},
		crud.Hooks[models.Tour]{
			BeforeInsert: s.beforeInsert,
			BeforePatch:  s.beforePatch,
		})
	return s
}

// Collection exposes the typed collection for the generic handlers.
func (s *Store) Collection() crud.Collection[models.Tour] { return s.coll }

func (s *Store) beforeInsert(t *models.Tour) error {
	t.Name = sanitize.Text(t.Name)
	t.Summary = sanitize.Text(t.Summary)
	t.Description = sanitize.Text(t.Description)

	if err := validateName(t.Name); err != nil {
		return err
	}
	if !models.ValidDifficulty(t.Difficulty) {
		return apperr.ValidationFailed("difficulty is either: easy, medium, difficult")
	}
	if t.Price <= 0 {
		return apperr.ValidationFailed("a tour must have a positive price")
	}
	if t.PriceDiscount != 0 && t.PriceDiscount >= t.Price {
		return apperr.ValidationFailed(
			fmt.Sprintf("discount price (%g) should be below regular price", t.PriceDiscount))
	}
	if t.Duration <= 0 {
		return apperr.ValidationFailed("a tour must have a duration")
	}
	if t.MaxGroupSize <= 0 {
		return apperr.ValidationFailed("a tour must have a group size")
	}
	if t.Summary == "" {
		return apperr.ValidationFailed("a tour must have a summary")
	}

	t.ID = primitive.NewObjectID()
	t.Slug = slug.Make(t.Name)
	if t.RatingsAverage == 0 {
		t.RatingsAverage = 4.5
	}
	t.RatingsQuantity = 0
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	return nil
}

func (s *Store) beforePatch(patch bson.M) error {
	sanitize.Patch(patch, "name", "summary", "description")

	// Derived and caller-proof fields never come from a patch.
	delete(patch, "slug")
	delete(patch, "ratingsAverage")
	delete(patch, "ratingsQuantity")

	if v, ok := patch["name"]; ok {
		name, _ := v.(string)
		if err := validateName(name); err != nil {
			return err
		}
		patch["slug"] = slug.Make(name)
	}
	if v, ok := patch["difficulty"]; ok {
		d, _ := v.(string)
		if !models.ValidDifficulty(d) {
			return apperr.ValidationFailed("difficulty is either: easy, medium, difficult")
		}
	}
	if v, ok := patch["price"]; ok {
		if p, _ := toFloat(v); p <= 0 {
			return apperr.ValidationFailed("a tour must have a positive price")
		}
	}
	return nil
}

func validateName(name string) error {
	if len(name) < 10 {
		return apperr.ValidationFailed("a tour name must have more or equal than 10 characters")
	}
	if len(name) > 40 {
		return apperr.ValidationFailed("a tour name must have less or equal than 40 characters")
	}
	return nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case int:
		return float64(n), true
	}
	return 0, false
}

// UpdateRatingStats writes the review aggregation results onto a tour.
// Addressed by _id only: secret tours keep their stats too.
func (s *Store) UpdateRatingStats(ctx context.Context, tourID primitive.ObjectID, quantity int, average float64) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": tourID},
		bson.M{"$set": bson.M{
			"ratingsQuantity": quantity,
			"ratingsAverage":  average,
			"updatedAt":       time.Now().UTC(),
		}})
	return err
}

// Stat is one difficulty bucket of the tour statistics rollup.
type Stat struct {
	Difficulty string  `bson:"_id" json:"difficulty"`
	NumTours   int     `bson:"numTours" json:"numTours"`
	NumRatings int     `bson:"numRatings" json:"numRatings"`
	AvgRating  float64 `bson:"avgRating" json:"avgRating"`
	AvgPrice   float64 `bson:"avgPrice" json:"avgPrice"`
	MinPrice   float64 `bson:"minPrice" json:"minPrice"`
	MaxPrice   float64 `bson:"maxPrice" json:"maxPrice"`
}

// Stats rolls up well-rated tours per difficulty level.
func (s *Store) Stats(ctx context.Context) ([]Stat, error) {
	pipeline := []bson.M{
		{"$match": bson.M{"ratingsAverage": bson.M{"$gte": 4.5}}},
		{"$group": bson.M{
			"_id":        bson.M{"$toUpper": "$difficulty"},
			"numTours":   bson.M{"$sum": 1},
			"numRatings": bson.M{"$sum": "$ratingsQuantity"},
			"avgRating":  bson.M{"$avg": "$ratingsAverage"},
			"avgPrice":   bson.M{"$avg": "$price"},
			"minPrice":   bson.M{"$min": "$price"},
			"maxPrice":   bson.M{"$max": "$price"},
		}},
		{"$sort": bson.M{"avgPrice": 1}},
	}
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	stats := []Stat{}
	if err := cur.All(ctx, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// PlanMonth is one month of the yearly start-date plan.
type PlanMonth struct {
	Month         int      `bson:"month" json:"month"`
	NumTourStarts int      `bson:"numTourStarts" json:"numTourStarts"`
	Tours         []string `bson:"tours" json:"tours"`
}

// MonthlyPlan counts tour starts per month of the given year, busiest
// month first.
func (s *Store) MonthlyPlan(ctx context.Context, year int) ([]PlanMonth, error) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(year, time.December, 31, 23, 59, 59, 0, time.UTC)

	pipeline := []bson.M{
		{"$unwind": "$startDates"},
		{"$match": bson.M{"startDates": bson.M{"$gte": from, "$lte": to}}},
		{"$group": bson.M{
			"_id":           bson.M{"$month": "$startDates"},
			"numTourStarts": bson.M{"$sum": 1},
			"tours":         bson.M{"$push": "$name"},
		}},
		{"$addFields": bson.M{"month": "$_id"}},
		{"$project": bson.M{"_id": 0}},
		{"$sort": bson.M{"numTourStarts": -1}},
		{"$limit": 12},
	}
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	plan := []PlanMonth{}
	if err := cur.All(ctx, &plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// Within finds tours whose start location lies inside the sphere cap of
// radiusRadians around (lat, lng).
func (s *Store) Within(ctx context.Context, lat, lng, radiusRadians float64) ([]models.Tour, error) {
	filter := s.coll.Base()
	filter["startLocation"] = bson.M{
		"$geoWithin": bson.M{
			"$centerSphere": bson.A{bson.A{lng, lat}, radiusRadians},
		},
	}
	cur, err := s.c.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	found := []models.Tour{}
	if err := cur.All(ctx, &found); err != nil {
		return nil, err
	}
	return found, nil
}

// Distance is one tour's distance from a reference point.
type Distance struct {
	Name     string  `bson:"name" json:"name"`
	Distance float64 `bson:"distance" json:"distance"`
}

// Distances computes each tour's distance from (lat, lng), scaled by
// multiplier (meters to km or miles). $geoNear must be the first stage.
func (s *Store) Distances(ctx context.Context, lat, lng, multiplier float64) ([]Distance, error) {
	pipeline := []bson.M{
		{"$geoNear": bson.M{
			"near": bson.M{
				"type":        "Point",
				"coordinates": bson.A{lng, lat},
			},
			"distanceField":      "distance",
			"distanceMultiplier": multiplier,
			"query":              bson.M{"secretTour": bson.M{"$ne": true}},
		}},
		{"$project": bson.M{"distance": 1, "name": 1}},
	}
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []Distance{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
