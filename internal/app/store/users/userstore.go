// internal/app/store/users/userstore.go
package users

import (
	"context"
	"net/mail"
	"strings"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/touristahq/tourista/internal/app/system/apperr"
	"github.com/touristahq/tourista/internal/app/system/crud"
	"github.com/touristahq/tourista/internal/app/system/sanitize"
	"github.com/touristahq/tourista/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

const collectionName = "users"

// bcryptCost trades hash time against brute-force resistance.
const bcryptCost = 12

// Store owns the users collection. Soft-deleted accounts (active=false)
// are invisible to every read, including credential resolution.
type Store struct {
	coll *crud.Mongo[models.User]
	c    *mongo.Collection
}

func New(db *mongo.Database) *Store {
	c := db.Collection(collectionName)
	s := &Store{c: c}
	s.coll = crud.NewMongo[models.User](c,
		bson.M{"active": bson.M{"$ne": false}},
		crud.Hooks[models.User]{
			BeforePatch: beforePatch,
		})
	return s
}

// Collection exposes the typed collection for the generic admin
// handlers. Creation does not go through it; accounts only come from
// signup, which hashes the password.
func (s *Store) Collection() crud.Collection[models.User] { return s.coll }

func beforePatch(patch bson.M) error {
	sanitize.Patch(patch, "name")

	for _, k := range []string{"password", "passwordConfirm", "passwordChangedAt", "passwordResetToken", "passwordResetExpires"} {
		if _, ok := patch[k]; ok {
			return apperr.ValidationFailed("this route is not for password updates, please use /updateMyPassword")
		}
	}
	if v, ok := patch["email"]; ok {
		email, _ := v.(string)
		normalized, err := normalizeEmail(email)
		if err != nil {
			return err
		}
		patch["email"] = normalized
	}
	if v, ok := patch["role"]; ok {
		role, _ := v.(string)
		if !models.ValidRole(role) {
			return apperr.ValidationFailed("role is either: user, guide, lead-guide, admin")
		}
	}
	return nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return "", apperr.ValidationFailed("please provide a valid email")
	}
	return email, nil
}

// Create registers a new account. The password arrives in the clear and
// is stored only as a bcrypt hash.
func (s *Store) Create(ctx context.Context, name, email, password, passwordConfirm string) (models.User, error) {
	name = sanitize.Text(name)
	if name == "" {
		return models.User{}, apperr.ValidationFailed("please tell us your name")
	}
	email, err := normalizeEmail(email)
	if err != nil {
		return models.User{}, err
	}
	if len(password) < 8 {
		return models.User{}, apperr.ValidationFailed("a password must have at least 8 characters")
	}
	if password != passwordConfirm {
		return models.User{}, apperr.ValidationFailed("passwords are not the same")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return models.User{}, err
	}

	now := time.Now().UTC()
	user := models.User{
		ID:        primitive.NewObjectID(),
		Name:      name,
		Email:     email,
		Role:      models.RoleUser,
		Password:  string(hash),
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.c.InsertOne(ctx, user); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, apperr.Duplicate("this email is already registered")
		}
		return models.User{}, err
	}
	return user, nil
}

// ByID resolves an active account. Satisfies the credential resolver.
func (s *Store) ByID(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	var user models.User
	err := s.c.FindOne(ctx, bson.M{"_id": id, "active": bson.M{"$ne": false}}).Decode(&user)
	return user, err
}

// GetByEmail loads an active account with its password hash for login.
func (s *Store) GetByEmail(ctx context.Context, email string) (models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var user models.User
	err := s.c.FindOne(ctx, bson.M{"email": email, "active": bson.M{"$ne": false}}).Decode(&user)
	return user, err
}

// CheckPassword compares a candidate against the stored hash.
func CheckPassword(hash, candidate string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(candidate)) == nil
}

// SetPassword hashes and stores a new password and invalidates both any
// outstanding reset token and every previously issued credential. The
// change timestamp is backdated one second so a token minted in the
// same instant still fails the freshness check.
func (s *Store) SetPassword(ctx context.Context, id primitive.ObjectID, password, passwordConfirm string) error {
	if len(password) < 8 {
		return apperr.ValidationFailed("a password must have at least 8 characters")
	}
	if password != passwordConfirm {
		return apperr.ValidationFailed("passwords are not the same")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return err
	}

	changedAt := time.Now().UTC().Add(-time.Second)
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$set": bson.M{
				"password":          string(hash),
				"passwordChangedAt": changedAt,
				"updatedAt":         time.Now().UTC(),
			},
			"$unset": bson.M{
				"passwordResetToken":   "",
				"passwordResetExpires": "",
			},
		})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// SetResetToken stores the hashed reset token. A second request
// overwrites the first, invalidating it.
func (s *Store) SetResetToken(ctx context.Context, id primitive.ObjectID, tokenHash string, expires time.Time) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"passwordResetToken":   tokenHash,
			"passwordResetExpires": expires.UTC(),
		}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// ClearResetToken drops an outstanding token, e.g. when the mail could
// not be sent.
func (s *Store) ClearResetToken(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$unset": bson.M{
			"passwordResetToken":   "",
			"passwordResetExpires": "",
		}})
	return err
}

// GetByResetToken resolves an unexpired hashed reset token to its
// account.
func (s *Store) GetByResetToken(ctx context.Context, tokenHash string) (models.User, error) {
	var user models.User
	err := s.c.FindOne(ctx, bson.M{
		"passwordResetToken":   tokenHash,
		"passwordResetExpires": bson.M{"$gt": time.Now().UTC()},
	}).Decode(&user)
	return user, err
}

// SetPhoto records a processed profile image path.
func (s *Store) SetPhoto(ctx context.Context, id primitive.ObjectID, photoURL string) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"photo": photoURL, "updatedAt": time.Now().UTC()}})
	return err
}

// Deactivate soft-deletes an account. The document stays; every read
// path stops seeing it.
func (s *Store) Deactivate(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"active": false, "updatedAt": time.Now().UTC()}})
	return err
}
