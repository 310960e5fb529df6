// internal/domain/models/review.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Review is a traveler's rating of a tour. A user may review a tour at
// most once (unique tour+user index).
type Review struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Review string             `bson:"review" json:"review"`
	Rating float64            `bson:"rating" json:"rating"` // 1..5

	TourID primitive.ObjectID `bson:"tour" json:"tour"`
	UserID primitive.ObjectID `bson:"user" json:"user"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
