// internal/domain/models/booking.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Booking records a paid (or manually entered) reservation of a tour.
type Booking struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TourID primitive.ObjectID `bson:"tour" json:"tour"`
	UserID primitive.ObjectID `bson:"user" json:"user"`
	Price  float64            `bson:"price" json:"price"`

	// Paid is false only for bookings entered by admins outside checkout,
	// e.g. cash payments.
	Paid bool `bson:"paid" json:"paid"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
