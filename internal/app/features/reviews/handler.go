// internal/app/features/reviews/handler.go
package reviews

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	reviewstore "github.com/touristahq/tourista/internal/app/store/reviews"
	"github.com/touristahq/tourista/internal/app/system/apperr"
	"github.com/touristahq/tourista/internal/app/system/auth"
	"github.com/touristahq/tourista/internal/app/system/crud"
	"github.com/touristahq/tourista/internal/app/system/respond"
	"github.com/touristahq/tourista/internal/app/system/timeouts"
	"github.com/touristahq/tourista/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler serves reviews, both flat and nested under a tour. Every
// write recomputes the owning tour's rating statistics.
type Handler struct {
	rs      *crud.Resource[models.Review]
	store   *reviewstore.Store
	errs    *apperr.Handler
	log     *zap.Logger
	recalcs func() // metrics hook, may be nil
}

func NewHandler(store *reviewstore.Store, errs *apperr.Handler, logger *zap.Logger, recalcs func()) *Handler {
	if recalcs == nil {
		recalcs = func() {}
	}
	return &Handler{
		rs:      crud.NewResource[models.Review]("review", store.Collection(), errs, logger),
		store:   store,
		errs:    errs,
		log:     logger,
		recalcs: recalcs,
	}
}

// tourScope narrows nested lists to the tour in the path.
func tourScope(r *http.Request) (bson.M, error) {
	raw := chi.URLParam(r, "tourID")
	if raw == "" {
		return nil, nil
	}
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return nil, apperr.InvalidID(raw)
	}
	return bson.M{"tour": id}, nil
}

// List serves reviews, filtered to one tour when nested.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	h.rs.GetAll(tourScope)(w, r)
}

// Get serves a single review.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	h.rs.GetOne(nil)(w, r)
}

// Create inserts a review. Tour comes from the path (nested) or the
// body; the author is always the authenticated user.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		h.errs.Write(w, r, apperr.Unauthorized("you are not logged in; please log in to get access"))
		return
	}

	var review models.Review
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 10<<10)).Decode(&review); err != nil {
		h.errs.Write(w, r, apperr.ValidationFailed("invalid JSON body").Wrap(err))
		return
	}

	if raw := chi.URLParam(r, "tourID"); raw != "" {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			h.errs.Write(w, r, apperr.InvalidID(raw))
			return
		}
		review.TourID = id
	}
	review.UserID = user.ID

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	created, err := h.store.Insert(ctx, review)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	h.recalc(created.TourID)
	respond.Success(w, http.StatusCreated, map[string]any{"data": created})
}

// Update patches a review and recomputes the tour's stats.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := h.rs.ID(r)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}

	patch := bson.M{}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 10<<10)).Decode(&patch); err != nil {
		h.errs.Write(w, r, apperr.ValidationFailed("invalid JSON body").Wrap(err))
		return
	}
	delete(patch, "id")
	delete(patch, "_id")
	delete(patch, "createdAt")
	delete(patch, "updatedAt")
	if len(patch) == 0 {
		h.errs.Write(w, r, apperr.ValidationFailed("no updatable fields in request body"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	updated, err := h.store.UpdateByID(ctx, id, patch)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	h.recalc(updated.TourID)
	respond.Success(w, http.StatusOK, map[string]any{"data": updated})
}

// Delete removes a review and recomputes the tour's stats.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := h.rs.ID(r)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	// The parent tour must be read before the review disappears.
	tourID, err := h.store.TourIDOf(ctx, id)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	if err := h.store.DeleteByID(ctx, id); err != nil {
		h.errs.Write(w, r, err)
		return
	}
	h.recalc(tourID)
	respond.NoContent(w)
}

// recalc updates the tour's rating stats off the hot path. A failure
// leaves stale stats, which the next review write corrects.
func (h *Handler) recalc(tourID primitive.ObjectID) {
	h.recalcs()
	ctx, cancel := context.WithTimeout(context.Background(), timeouts.Long())
	defer cancel()

	if err := h.store.RecalcTourStats(ctx, tourID); err != nil {
		h.log.Error("rating recalculation failed",
			zap.String("tour", tourID.Hex()),
			zap.Error(err))
	}
}
