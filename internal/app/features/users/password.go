// internal/app/features/users/password.go
package users

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	userstore "github.com/touristahq/tourista/internal/app/store/users"
	"github.com/touristahq/tourista/internal/app/system/apperr"
	"github.com/touristahq/tourista/internal/app/system/auth"
	"github.com/touristahq/tourista/internal/app/system/respond"
	"github.com/touristahq/tourista/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
)

type forgotRequest struct {
	Email string `json:"email"`
}

// ForgotPassword mails a single-use reset link. Only the token's
// digest is stored; a second request invalidates the first link.
// POST /forgotPassword  →  200
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotRequest
	if !h.decode(w, r, &req) {
		return
	}

	if ok, reason := h.logins.Check(r, req.Email); !ok {
		h.errs.Write(w, r, apperr.RateLimited(reason))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	user, err := h.store.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			h.errs.Write(w, r, apperr.NotFound("there is no user with that email address"))
			return
		}
		h.errs.Write(w, r, err)
		return
	}

	raw, hash, err := auth.NewResetToken()
	if err != nil {
		h.errs.Write(w, r, apperr.Unexpected(err))
		return
	}
	if err := h.store.SetResetToken(ctx, user.ID, hash, time.Now().UTC().Add(resetTokenTTL)); err != nil {
		h.errs.Write(w, r, err)
		return
	}

	h.mail.SendPasswordReset(user.Email, resetURL(r, raw), resetTokenTTL)
	respond.Message(w, "token sent to email")
}

func resetURL(r *http.Request, rawToken string) string {
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/api/v1/users/resetPassword/%s", scheme, r.Host, rawToken)
}

type resetRequest struct {
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

// ResetPassword consumes a mailed token and sets a new password, then
// logs the user in.
// PATCH /resetPassword/{token}  →  200 with token, 400 when invalid
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if !h.decode(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	hash := auth.HashResetToken(chi.URLParam(r, "token"))
	user, err := h.store.GetByResetToken(ctx, hash)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			h.errs.Write(w, r, apperr.ValidationFailed("token is invalid or has expired"))
			return
		}
		h.errs.Write(w, r, err)
		return
	}

	if err := h.store.SetPassword(ctx, user.ID, req.Password, req.PasswordConfirm); err != nil {
		h.errs.Write(w, r, err)
		return
	}
	h.sessions.SendToken(w, r, http.StatusOK, user)
}

type updatePasswordRequest struct {
	PasswordCurrent string `json:"passwordCurrent"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

// UpdateMyPassword changes the logged-in user's password after
// re-verifying the current one, then issues a fresh token (the old one
// fails the freshness check from now on).
// PATCH /updateMyPassword  →  200 with token, 401 on wrong current
func (h *Handler) UpdateMyPassword(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		h.errs.Write(w, r, apperr.Unauthorized("you are not logged in; please log in to get access"))
		return
	}

	var req updatePasswordRequest
	if !h.decode(w, r, &req) {
		return
	}
	if !userstore.CheckPassword(user.Password, req.PasswordCurrent) {
		h.errs.Write(w, r, apperr.Unauthorized("your current password is wrong"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.store.SetPassword(ctx, user.ID, req.Password, req.PasswordConfirm); err != nil {
		h.errs.Write(w, r, err)
		return
	}
	h.sessions.SendToken(w, r, http.StatusOK, user)
}
