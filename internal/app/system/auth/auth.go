// Package auth issues and verifies the stateless login credential and
// provides the route middleware built on it.
//
// The credential is a signed HS256 token carried either in the
// Authorization header ("Bearer <token>") or in the "jwt" cookie set by
// SendToken. Protected routes resolve the token's subject to a live
// user on every request, so deleted users and stale tokens (issued
// before a password change) are rejected immediately.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/touristahq/tourista/internal/app/system/apperr"
	"github.com/touristahq/tourista/internal/app/system/respond"
	"github.com/touristahq/tourista/internal/app/system/timeouts"
	"github.com/touristahq/tourista/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// CookieName is the cookie the credential travels in for browser
// clients. API clients use the Authorization header instead.
const CookieName = "jwt"

type ctxKey int

const userKey ctxKey = iota

// UserResolver loads the account a verified token points at.
type UserResolver interface {
	ByID(ctx context.Context, id primitive.ObjectID) (models.User, error)
}

// Manager signs, verifies and transports login credentials.
type Manager struct {
	secret    []byte
	ttl       time.Duration
	cookieTTL time.Duration
	users     UserResolver
	errs      *apperr.Handler
	log       *zap.Logger
}

// New wires a Manager. ttl bounds token validity, cookieTTL the
// browser cookie (usually longer than a session, shorter than ttl is
// pointless).
func New(secret string, ttl, cookieTTL time.Duration, users UserResolver, errs *apperr.Handler, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		secret:    []byte(secret),
		ttl:       ttl,
		cookieTTL: cookieTTL,
		users:     users,
		errs:      errs,
		log:       logger,
	}
}

// Sign issues a credential for the given user id.
func (m *Manager) Sign(userID primitive.ObjectID) (string, error) {
	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   userID.Hex(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(m.secret)
}

// Verify checks signature and expiry and returns the subject user id
// plus the issue time (needed for the password-change freshness check).
func (m *Manager) Verify(token string) (primitive.ObjectID, time.Time, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{},
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrTokenSignatureInvalid
			}
			return m.secret, nil
		})
	if err != nil {
		return primitive.NilObjectID, time.Time{}, err
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" || claims.IssuedAt == nil {
		return primitive.NilObjectID, time.Time{}, jwt.ErrTokenInvalidClaims
	}
	id, err := primitive.ObjectIDFromHex(claims.Subject)
	if err != nil {
		return primitive.NilObjectID, time.Time{}, jwt.ErrTokenInvalidSubject
	}
	return id, claims.IssuedAt.Time, nil
}

// tokenFromRequest pulls the raw credential from the Authorization
// header, falling back to the cookie.
func tokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" && c.Value != loggedOutValue {
		return c.Value
	}
	return ""
}

// resolve runs the full credential check: verify, load user, freshness.
func (m *Manager) resolve(r *http.Request) (models.User, error) {
	raw := tokenFromRequest(r)
	if raw == "" {
		return models.User{}, apperr.Unauthorized("you are not logged in; please log in to get access")
	}

	id, issuedAt, err := m.Verify(raw)
	if err != nil {
		return models.User{}, err
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	user, err := m.users.ByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.User{}, apperr.Unauthorized("the user belonging to this token no longer exists")
		}
		if ae, ok := apperr.As(err); ok && ae.Code == apperr.CodeNotFound {
			return models.User{}, apperr.Unauthorized("the user belonging to this token no longer exists")
		}
		return models.User{}, err
	}

	if user.ChangedPasswordAfter(issuedAt) {
		return models.User{}, apperr.Unauthorized("password was changed recently; please log in again")
	}
	return user, nil
}

// Protect rejects requests without a valid credential and puts the
// resolved user on the context.
func (m *Manager) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := m.resolve(r)
		if err != nil {
			m.errs.Write(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user)))
	})
}

// ProtectOptional attaches the user when a valid credential is present
// and lets the request through anonymously otherwise. Failures are
// silent degradation, not errors.
func (m *Manager) ProtectOptional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user, err := m.resolve(r); err == nil {
			r = r.WithContext(withUser(r.Context(), user))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRoles gates a route to the listed roles. Must run after
// Protect; an anonymous request here is a server wiring bug and gets a
// 403 like any other mismatch.
func RequireRoles(errs *apperr.Handler, roles ...string) func(http.Handler) http.Handler {
	allowed := map[string]bool{}
	for _, role := range roles {
		allowed[role] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := CurrentUser(r)
			if !ok || !allowed[user.Role] {
				errs.Write(w, r, apperr.Forbidden("you do not have permission to perform this action"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CurrentUser returns the user Protect attached to the request.
func CurrentUser(r *http.Request) (models.User, bool) {
	user, ok := r.Context().Value(userKey).(models.User)
	return user, ok
}

func withUser(ctx context.Context, user models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// WithTestUser pre-authenticates a request in tests.
func WithTestUser(r *http.Request, user models.User) *http.Request {
	return r.WithContext(withUser(r.Context(), user))
}

const loggedOutValue = "loggedout"

// SendToken signs a credential for the user, sets the browser cookie
// and writes the token envelope with the (password-scrubbed) user.
func (m *Manager) SendToken(w http.ResponseWriter, r *http.Request, status int, user models.User) {
	token, err := m.Sign(user.ID)
	if err != nil {
		m.errs.Write(w, r, apperr.Unexpected(err))
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(m.cookieTTL),
		HttpOnly: true,
		Secure:   isSecure(r),
		SameSite: http.SameSiteLaxMode,
	})
	respond.Token(w, status, token, map[string]any{"user": user})
}

// ClearToken overwrites the cookie with a short-lived dummy value.
func (m *Manager) ClearToken(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    loggedOutValue,
		Path:     "/",
		Expires:  time.Now().Add(10 * time.Second),
		HttpOnly: true,
		Secure:   isSecure(r),
		SameSite: http.SameSiteLaxMode,
	})
	respond.Success(w, http.StatusOK, nil)
}

func isSecure(r *http.Request) bool {
	return r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https"
}
