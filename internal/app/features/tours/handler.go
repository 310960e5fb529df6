// internal/app/features/tours/handler.go
package tours

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	tourstore "github.com/touristahq/tourista/internal/app/store/tours"
	"github.com/touristahq/tourista/internal/app/system/apperr"
	"github.com/touristahq/tourista/internal/app/system/crud"
	"github.com/touristahq/tourista/internal/app/system/respond"
	"github.com/touristahq/tourista/internal/app/system/timeouts"
	"github.com/touristahq/tourista/internal/domain/models"
	"go.uber.org/zap"
)

// Earth radius, used to turn a distance into a sphere-cap angle.
const (
	earthRadiusMiles = 3963.2
	earthRadiusKM    = 6378.1
)

// Handler serves the tour catalog: generic CRUD plus the preset,
// statistics, and geospatial reads.
type Handler struct {
	rs    *crud.Resource[models.Tour]
	store *tourstore.Store
	errs  *apperr.Handler
	log   *zap.Logger
}

func NewHandler(store *tourstore.Store, errs *apperr.Handler, logger *zap.Logger) *Handler {
	return &Handler{
		rs:    crud.NewResource[models.Tour]("tour", store.Collection(), errs, logger),
		store: store,
		errs:  errs,
		log:   logger,
	}
}

// TopCheap is the alias route: the five best-rated tours, cheapest
// first, trimmed to the card fields.
func (h *Handler) TopCheap(w http.ResponseWriter, r *http.Request) {
	params := url.Values{
		"limit":  []string{"5"},
		"sort":   []string{"price,-ratingsAverage"},
		"fields": []string{"name,price,ratingsAverage,summary,difficulty"},
	}
	h.rs.List(w, r, params, nil)
}

// Stats serves the per-difficulty rollup of well-rated tours.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	stats, err := h.store.Stats(ctx)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	respond.Success(w, http.StatusOK, map[string]any{"stats": stats})
}

// MonthlyPlan serves tour starts per month for one year.
func (h *Handler) MonthlyPlan(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil || year < 1900 || year > 3000 {
		h.errs.Write(w, r, apperr.ValidationFailed("please provide a valid year"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	plan, err := h.store.MonthlyPlan(ctx, year)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	respond.Success(w, http.StatusOK, map[string]any{"plan": plan})
}

// Within lists tours starting inside a radius around a point.
// GET /tours-within/{distance}/center/{latlng}/unit/{unit}
func (h *Handler) Within(w http.ResponseWriter, r *http.Request) {
	lat, lng, ok := h.latlng(w, r)
	if !ok {
		return
	}
	distance, err := strconv.ParseFloat(chi.URLParam(r, "distance"), 64)
	if err != nil || distance <= 0 {
		h.errs.Write(w, r, apperr.ValidationFailed("please provide a positive distance"))
		return
	}

	radius := distance / earthRadiusKM
	if chi.URLParam(r, "unit") == "mi" {
		radius = distance / earthRadiusMiles
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	found, err := h.store.Within(ctx, lat, lng, radius)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	respond.List(w, len(found), map[string]any{"data": found})
}

// Distances lists each tour's distance from a point.
// GET /distances/{latlng}/unit/{unit}
func (h *Handler) Distances(w http.ResponseWriter, r *http.Request) {
	lat, lng, ok := h.latlng(w, r)
	if !ok {
		return
	}

	multiplier := 0.001 // meters to km
	if chi.URLParam(r, "unit") == "mi" {
		multiplier = 0.000621371
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	distances, err := h.store.Distances(ctx, lat, lng, multiplier)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	respond.Success(w, http.StatusOK, map[string]any{"data": distances})
}

func (h *Handler) latlng(w http.ResponseWriter, r *http.Request) (lat, lng float64, ok bool) {
	parts := strings.Split(chi.URLParam(r, "latlng"), ",")
	if len(parts) != 2 {
		h.errs.Write(w, r, apperr.ValidationFailed("please provide latitude and longitude in the format lat,lng"))
		return 0, 0, false
	}
	lat, errLat := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	lng, errLng := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if errLat != nil || errLng != nil {
		h.errs.Write(w, r, apperr.ValidationFailed("please provide latitude and longitude in the format lat,lng"))
		return 0, 0, false
	}
	return lat, lng, true
}
