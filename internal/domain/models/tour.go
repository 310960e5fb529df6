// internal/domain/models/tour.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Tour difficulty levels.
const (
	DifficultyEasy      = "easy"
	DifficultyMedium    = "medium"
	DifficultyDifficult = "difficult"
)

// ValidDifficulty reports whether d is a known difficulty level.
func ValidDifficulty(d string) bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyDifficult:
		return true
	}
	return false
}

// Location is a GeoJSON point with display metadata.
type Location struct {
	Type        string    `bson:"type" json:"type"` // always "Point"
	Coordinates []float64 `bson:"coordinates" json:"coordinates"` // [lng, lat]
	Address     string    `bson:"address,omitempty" json:"address,omitempty"`
	Description string    `bson:"description,omitempty" json:"description,omitempty"`
	Day         int       `bson:"day,omitempty" json:"day,omitempty"`
}

// Tour is the product being sold. Storage keys deliberately match the
// public JSON names, so caller-supplied filter and sort fields map onto
// the collection one to one.
type Tour struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"` // unique-ish display name, 10..40 chars
	Slug         string             `bson:"slug" json:"slug"`
	Duration     int                `bson:"duration" json:"duration"` // days
	MaxGroupSize int                `bson:"maxGroupSize" json:"maxGroupSize"`
	Difficulty   string             `bson:"difficulty" json:"difficulty"`

	RatingsAverage  float64 `bson:"ratingsAverage" json:"ratingsAverage"` // derived from reviews, default 4.5
	RatingsQuantity int     `bson:"ratingsQuantity" json:"ratingsQuantity"`

	Price         float64 `bson:"price" json:"price"`
	PriceDiscount float64 `bson:"priceDiscount,omitempty" json:"priceDiscount,omitempty"` // must stay below Price

	Summary     string `bson:"summary" json:"summary"`
	Description string `bson:"description,omitempty" json:"description,omitempty"`

	ImageCover string   `bson:"imageCover,omitempty" json:"imageCover,omitempty"`
	Images     []string `bson:"images,omitempty" json:"images,omitempty"`

	StartDates []time.Time `bson:"startDates,omitempty" json:"startDates,omitempty"`

	// SecretTour hides a tour from every public read path.
	SecretTour bool `bson:"secretTour" json:"-"`

	StartLocation *Location            `bson:"startLocation,omitempty" json:"startLocation,omitempty"`
	Locations     []Location           `bson:"locations,omitempty" json:"locations,omitempty"`
	Guides        []primitive.ObjectID `bson:"guides,omitempty" json:"guides,omitempty"`

	// Reviews is filled only by the single-tour read's lookup; it is
	// never written through this struct.
	Reviews []Review `bson:"reviews,omitempty" json:"reviews,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// DurationWeeks reports the duration in weeks, the unit marketing asks
// for.
func (t *Tour) DurationWeeks() float64 {
	return float64(t.Duration) / 7
}
