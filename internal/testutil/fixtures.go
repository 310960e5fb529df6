package testutil

import (
	"time"

	"github.com/touristahq/tourista/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

// TourFixture returns a valid tour ready to insert. Override fields
// after the call as needed.
func TourFixture(name string) models.Tour {
	now := time.Now().UTC()
	return models.Tour{
		ID:             primitive.NewObjectID(),
		Name:           name,
		Slug:           "fixture",
		Duration:       5,
		MaxGroupSize:   12,
		Difficulty:     models.DifficultyMedium,
		RatingsAverage: 4.5,
		Price:          497,
		Summary:        "A test tour",
		StartLocation: &models.Location{
			Type:        "Point",
			Coordinates: []float64{-118.113491, 34.111745},
			Address:     "Los Angeles, USA",
		},
		StartDates: []time.Time{now.AddDate(0, 2, 0)},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// FixturePassword is the clear-text password of every UserFixture.
const FixturePassword = "pass1234"

// UserFixture returns an active user with the given role. The stored
// hash uses the minimum bcrypt cost to keep tests fast.
func UserFixture(email, role string) models.User {
	hash, err := bcrypt.GenerateFromPassword([]byte(FixturePassword), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	now := time.Now().UTC()
	return models.User{
		ID:        primitive.NewObjectID(),
		Name:      "Test User",
		Email:     email,
		Role:      role,
		Active:    true,
		Password:  string(hash),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ReviewFixture returns a valid review linking the given tour and user.
func ReviewFixture(tourID, userID primitive.ObjectID, rating float64) models.Review {
	now := time.Now().UTC()
	return models.Review{
		ID:        primitive.NewObjectID(),
		Review:    "Great experience",
		Rating:    rating,
		TourID:    tourID,
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// BookingFixture returns a paid booking linking the given tour and user.
func BookingFixture(tourID, userID primitive.ObjectID) models.Booking {
	now := time.Now().UTC()
	return models.Booking{
		ID:        primitive.NewObjectID(),
		TourID:    tourID,
		UserID:    userID,
		Price:     497,
		Paid:      true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
