// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User roles.
const (
	RoleUser      = "user"
	RoleGuide     = "guide"
	RoleLeadGuide = "lead-guide"
	RoleAdmin     = "admin"
)

// User represents travelers, guides, and admins.
//
// Password, reset-token, and active fields never serialize to JSON;
// only the stores read them.
type User struct {
	ID    primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name  string             `bson:"name" json:"name"`
	Email string             `bson:"email" json:"email"` // lowercased, unique
	Photo string             `bson:"photo,omitempty" json:"photo,omitempty"`
	Role  string             `bson:"role" json:"role"` // user | guide | lead-guide | admin

	Password          string     `bson:"password,omitempty" json:"-"` // bcrypt hash
	PasswordChangedAt *time.Time `bson:"passwordChangedAt,omitempty" json:"-"`

	PasswordResetToken   string     `bson:"passwordResetToken,omitempty" json:"-"` // sha-256 hex of the raw token
	PasswordResetExpires *time.Time `bson:"passwordResetExpires,omitempty" json:"-"`

	// Active=false is a soft delete; such users are invisible to finds.
	Active bool `bson:"active" json:"-"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// ChangedPasswordAfter reports whether the password changed after the
// given credential-issuance time. Stale credentials must re-authenticate.
func (u *User) ChangedPasswordAfter(issuedAt time.Time) bool {
	if u.PasswordChangedAt == nil {
		return false
	}
	return u.PasswordChangedAt.After(issuedAt)
}

// ValidRole reports whether role is one of the known user roles.
func ValidRole(role string) bool {
	switch role {
	case RoleUser, RoleGuide, RoleLeadGuide, RoleAdmin:
		return true
	}
	return false
}
