// internal/app/store/bookings/bookingstore_test.go
package bookings

import (
	"context"
	"testing"
	"time"

	"github.com/touristahq/tourista/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestForUserNewestFirst(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := New(db)
	ctx := context.Background()

	userID := primitive.NewObjectID()
	base := time.Now().UTC().Add(-time.Hour)
	var ids []primitive.ObjectID
	for i := 0; i < 3; i++ {
		b := testutil.BookingFixture(primitive.NewObjectID(), userID)
		b.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		if _, err := db.Collection("bookings").InsertOne(ctx, b); err != nil {
			t.Fatalf("insert booking: %v", err)
		}
		ids = append(ids, b.ID)
	}

	got, err := s.ForUser(ctx, userID)
	if err != nil {
		t.Fatalf("for user: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("bookings = %d, want 3", len(got))
	}
	for i, want := range []primitive.ObjectID{ids[2], ids[1], ids[0]} {
		if got[i].ID != want {
			t.Errorf("order[%d] = %s, want %s", i, got[i].ID.Hex(), want.Hex())
		}
	}
}

func TestForUserScopedToOwner(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := New(db)
	ctx := context.Background()

	mine := primitive.NewObjectID()
	other := primitive.NewObjectID()
	for _, owner := range []primitive.ObjectID{mine, other} {
		b := testutil.BookingFixture(primitive.NewObjectID(), owner)
		if _, err := db.Collection("bookings").InsertOne(ctx, b); err != nil {
			t.Fatalf("insert booking: %v", err)
		}
	}

	got, err := s.ForUser(ctx, mine)
	if err != nil {
		t.Fatalf("for user: %v", err)
	}
	if len(got) != 1 || got[0].UserID != mine {
		t.Errorf("bookings = %+v, want only the owner's", got)
	}
}
