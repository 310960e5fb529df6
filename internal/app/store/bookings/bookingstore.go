// internal/app/store/bookings/bookingstore.go
package bookings

import (
	"context"
	"time"

	"github.com/touristahq/tourista/internal/app/system/apperr"
	"github.com/touristahq/tourista/internal/app/system/crud"
	"github.com/touristahq/tourista/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collectionName = "bookings"

// Store owns the bookings collection. Bookings are written by the
// payment webhook and by admins; travelers only read their own.
type Store struct {
	coll *crud.Mongo[models.Booking]
	c    *mongo.Collection
}

func New(db *mongo.Database) *Store {
	c := db.Collection(collectionName)
	s := &Store{c: c}
	s.coll = crud.NewMongo[models.Booking](c, nil, crud.Hooks[models.Booking]{
		BeforeInsert: beforeInsert,
	})
	return s
}

// Collection exposes the typed collection for the generic handlers.
func (s *Store) Collection() crud.Collection[models.Booking] { return s.coll }

func beforeInsert(b *models.Booking) error {
	if b.TourID.IsZero() {
		return apperr.ValidationFailed("a booking must belong to a tour")
	}
	if b.UserID.IsZero() {
		return apperr.ValidationFailed("a booking must belong to a user")
	}
	if b.Price <= 0 {
		return apperr.ValidationFailed("a booking must have a positive price")
	}

	b.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now
	return nil
}

// CreatePaid records a completed checkout.
func (s *Store) CreatePaid(ctx context.Context, tourID, userID primitive.ObjectID, price float64) (models.Booking, error) {
	return s.coll.Insert(ctx, models.Booking{
		TourID: tourID,
		UserID: userID,
		Price:  price,
		Paid:   true,
	})
}

// ForUser lists a traveler's bookings, newest first.
func (s *Store) ForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Booking, error) {
	cur, err := s.c.Find(ctx, bson.M{"user": userID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Booking{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
