// internal/app/features/users/me.go
package users

import (
	"bytes"
	"context"
	"net/http"

	"github.com/touristahq/tourista/internal/app/system/apperr"
	"github.com/touristahq/tourista/internal/app/system/auth"
	"github.com/touristahq/tourista/internal/app/system/images"
	"github.com/touristahq/tourista/internal/app/system/respond"
	"github.com/touristahq/tourista/internal/app/system/timeouts"
	"github.com/touristahq/tourista/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
)

func (h *Handler) currentUser(w http.ResponseWriter, r *http.Request) (models.User, bool) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		h.errs.Write(w, r, apperr.Unauthorized("you are not logged in; please log in to get access"))
	}
	return user, ok
}

// Me serves the logged-in user's own record.
// GET /me  →  200
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	respond.Success(w, http.StatusOK, map[string]any{"data": user})
}

// UpdateMe changes the logged-in user's name or email, nothing else.
// Password keys are rejected outright so nobody bypasses hashing.
// PATCH /updateMe  →  200
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	body := bson.M{}
	if !h.decode(w, r, &body) {
		return
	}
	for _, k := range []string{"password", "passwordConfirm"} {
		if _, found := body[k]; found {
			h.errs.Write(w, r, apperr.ValidationFailed("this route is not for password updates, please use /updateMyPassword"))
			return
		}
	}

	// Only these fields are caller-updatable on the own profile.
	patch := bson.M{}
	for _, k := range []string{"name", "email"} {
		if v, found := body[k]; found {
			patch[k] = v
		}
	}
	if len(patch) == 0 {
		h.errs.Write(w, r, apperr.ValidationFailed("no updatable fields in request body"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	updated, err := h.store.Collection().UpdateByID(ctx, user.ID, patch)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	respond.Success(w, http.StatusOK, map[string]any{"data": updated})
}

// UploadPhoto accepts a multipart "photo" file, squares it, and stores
// the processed image.
// PATCH /me/photo  →  200
func (h *Handler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	f, _, err := r.FormFile("photo")
	if err != nil {
		h.errs.Write(w, r, apperr.ValidationFailed("expected a multipart form with a photo file").Wrap(err))
		return
	}
	defer f.Close()

	data, err := images.Process(f, images.UserPhoto)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	url, err := h.photos.Save(ctx, images.Key("users", "user"), bytes.NewReader(data))
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	if err := h.store.SetPhoto(ctx, user.ID, url); err != nil {
		h.errs.Write(w, r, err)
		return
	}

	user.Photo = url
	respond.Success(w, http.StatusOK, map[string]any{"data": user})
}

// DeleteMe soft-deletes the account: it disappears from every read but
// the document stays.
// DELETE /deleteMe  →  204
func (h *Handler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.store.Deactivate(ctx, user.ID); err != nil {
		h.errs.Write(w, r, err)
		return
	}
	respond.NoContent(w)
}
