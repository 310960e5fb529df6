// internal/app/features/users/account.go
package users

import (
	"context"
	"errors"
	"net/http"

	"github.com/touristahq/tourista/internal/app/system/apperr"
	"github.com/touristahq/tourista/internal/app/system/timeouts"
	userstore "github.com/touristahq/tourista/internal/app/store/users"
	"go.mongodb.org/mongo-driver/mongo"
)

type signupRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

// Signup registers an account, logs it in, and sends the welcome email.
// POST /signup  →  201 with token
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !h.decode(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	user, err := h.store.Create(ctx, req.Name, req.Email, req.Password, req.PasswordConfirm)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}

	h.mail.SendWelcome(user.Email, user.Name)
	h.sessions.SendToken(w, r, http.StatusCreated, user)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login verifies credentials and issues a token.
// POST /login  →  200 with token, 401 on bad credentials
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		h.errs.Write(w, r, apperr.ValidationFailed("please provide email and password"))
		return
	}

	if ok, reason := h.logins.Check(r, req.Email); !ok {
		h.errs.Write(w, r, apperr.RateLimited(reason))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	user, err := h.store.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			h.errs.Write(w, r, apperr.Unauthorized("incorrect email or password"))
			return
		}
		h.errs.Write(w, r, err)
		return
	}
	if !userstore.CheckPassword(user.Password, req.Password) {
		h.errs.Write(w, r, apperr.Unauthorized("incorrect email or password"))
		return
	}

	h.logins.ResetEmail(req.Email)
	h.sessions.SendToken(w, r, http.StatusOK, user)
}

// Logout clears the credential cookie.
// GET /logout  →  200
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.ClearToken(w, r)
}
