// internal/app/store/users/userstore_test.go
package users

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/touristahq/tourista/internal/app/system/apperr"
	"github.com/touristahq/tourista/internal/app/system/auth"
	"github.com/touristahq/tourista/internal/app/system/indexes"
	"github.com/touristahq/tourista/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := indexes.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("ensure indexes: %v", err)
	}
	return New(db)
}

func TestCreateNormalizesEmail(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	user, err := s.Create(ctx, "Ada", "  Ada@EXAMPLE.com ", "pass1234", "pass1234")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if user.Email != "ada@example.com" {
		t.Errorf("email = %q, want lower-cased and trimmed", user.Email)
	}
	if user.Password == "pass1234" || !strings.HasPrefix(user.Password, "$2") {
		t.Errorf("password stored without hashing: %q", user.Password)
	}

	// Lookup is normalized the same way.
	got, err := s.GetByEmail(ctx, "ADA@example.COM")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if got.ID != user.ID {
		t.Error("normalized lookup missed the account")
	}
}

func TestCreateValidation(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	cases := []struct {
		name                  string
		uname, email, pw, pwc string
		msg                   string
	}{
		{"no name", "", "a@example.com", "pass1234", "pass1234", "please tell us your name"},
		{"bad email", "Ada", "not-an-email", "pass1234", "pass1234", "please provide a valid email"},
		{"short password", "Ada", "a@example.com", "short", "short", "at least 8 characters"},
		{"mismatch", "Ada", "a@example.com", "pass1234", "pass5678", "passwords are not the same"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.Create(ctx, tc.uname, tc.email, tc.pw, tc.pwc)
			ae, ok := apperr.As(err)
			if !ok || ae.Code != apperr.CodeValidationFailed {
				t.Fatalf("err = %v, want validation failure", err)
			}
			if !strings.Contains(ae.Message, tc.msg) {
				t.Errorf("message = %q, want %q", ae.Message, tc.msg)
			}
		})
	}
}

func TestCreateDuplicateEmail(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	if _, err := s.Create(ctx, "Ada", "dup@example.com", "pass1234", "pass1234"); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := s.Create(ctx, "Eve", "DUP@example.com", "pass1234", "pass1234")
	ae, ok := apperr.As(err)
	if !ok || ae.Code != apperr.CodeDuplicate {
		t.Fatalf("err = %v, want duplicate", err)
	}
}

func TestPatchRejectsPasswordKeys(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	user, err := s.Create(ctx, "Ada", "patch@example.com", "pass1234", "pass1234")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	for _, key := range []string{"password", "passwordConfirm", "passwordResetToken"} {
		_, err := s.Collection().UpdateByID(ctx, user.ID, map[string]any{key: "x"})
		ae, ok := apperr.As(err)
		if !ok || ae.Code != apperr.CodeValidationFailed {
			t.Errorf("patch %s: err = %v, want validation failure", key, err)
		}
	}
}

func TestSetPasswordInvalidatesOlderCredentials(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	user, err := s.Create(ctx, "Ada", "pw@example.com", "pass1234", "pass1234")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	// The change timestamp is backdated 1s to absorb clock skew, so a
	// credential must predate the change by more than that to go stale.
	issuedAt := time.Now().UTC().Add(-2 * time.Second)

	if err := s.SetPassword(ctx, user.ID, "newpass99", "newpass99"); err != nil {
		t.Fatalf("set password: %v", err)
	}

	got, err := s.ByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !CheckPassword(got.Password, "newpass99") {
		t.Error("new password does not verify")
	}
	if CheckPassword(got.Password, "pass1234") {
		t.Error("old password still verifies")
	}
	// Backdated change time: a token issued just before the change is
	// stale, not one issued after.
	if !got.ChangedPasswordAfter(issuedAt) {
		t.Error("pre-change credential not invalidated")
	}
	if got.ChangedPasswordAfter(time.Now().UTC().Add(time.Second)) {
		t.Error("post-change credential wrongly invalidated")
	}
}

func TestResetTokenLifecycle(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	user, err := s.Create(ctx, "Ada", "reset@example.com", "pass1234", "pass1234")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	raw, hash, err := auth.NewResetToken()
	if err != nil {
		t.Fatalf("new token: %v", err)
	}
	if raw == hash {
		t.Fatal("raw token equals its digest")
	}

	t.Run("unexpired token resolves", func(t *testing.T) {
		if err := s.SetResetToken(ctx, user.ID, hash, time.Now().UTC().Add(10*time.Minute)); err != nil {
			t.Fatalf("set token: %v", err)
		}
		got, err := s.GetByResetToken(ctx, hash)
		if err != nil {
			t.Fatalf("get by token: %v", err)
		}
		if got.ID != user.ID {
			t.Error("token resolved the wrong account")
		}
	})

	t.Run("expired token does not", func(t *testing.T) {
		if err := s.SetResetToken(ctx, user.ID, hash, time.Now().UTC().Add(-time.Minute)); err != nil {
			t.Fatalf("set token: %v", err)
		}
		if _, err := s.GetByResetToken(ctx, hash); !errors.Is(err, mongo.ErrNoDocuments) {
			t.Fatalf("err = %v, want ErrNoDocuments", err)
		}
	})

	t.Run("password change clears the token", func(t *testing.T) {
		if err := s.SetResetToken(ctx, user.ID, hash, time.Now().UTC().Add(10*time.Minute)); err != nil {
			t.Fatalf("set token: %v", err)
		}
		if err := s.SetPassword(ctx, user.ID, "newpass99", "newpass99"); err != nil {
			t.Fatalf("set password: %v", err)
		}
		if _, err := s.GetByResetToken(ctx, hash); !errors.Is(err, mongo.ErrNoDocuments) {
			t.Fatalf("err = %v, want ErrNoDocuments", err)
		}
	})
}

func TestDeactivateHidesAccount(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	user, err := s.Create(ctx, "Ada", "bye@example.com", "pass1234", "pass1234")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.Deactivate(ctx, user.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	if _, err := s.GetByEmail(ctx, "bye@example.com"); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("get by email = %v, want ErrNoDocuments", err)
	}
	if _, err := s.ByID(ctx, user.ID); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("by id = %v, want ErrNoDocuments", err)
	}
}
