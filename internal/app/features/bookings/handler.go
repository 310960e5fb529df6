// internal/app/features/bookings/handler.go
package bookings

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"

	"github.com/go-chi/chi/v5"
	bookingstore "github.com/touristahq/tourista/internal/app/store/bookings"
	tourstore "github.com/touristahq/tourista/internal/app/store/tours"
	userstore "github.com/touristahq/tourista/internal/app/store/users"
	"github.com/touristahq/tourista/internal/app/system/apperr"
	"github.com/touristahq/tourista/internal/app/system/auth"
	"github.com/touristahq/tourista/internal/app/system/crud"
	"github.com/touristahq/tourista/internal/app/system/payments"
	"github.com/touristahq/tourista/internal/app/system/respond"
	"github.com/touristahq/tourista/internal/app/system/timeouts"
	"github.com/touristahq/tourista/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// maxWebhookBytes bounds the payment callback payload.
const maxWebhookBytes = 1 << 20

// Observer records checkout outcomes (created, fulfilled, failed).
type Observer func(outcome string)

// Handler serves bookings: the traveler checkout flow, the payment
// webhook that fulfills it, and admin management.
type Handler struct {
	rs       *crud.Resource[models.Booking]
	store    *bookingstore.Store
	tours    *tourstore.Store
	users    *userstore.Store
	checkout payments.Checkout
	observe  Observer
	errs     *apperr.Handler
	log      *zap.Logger
}

func NewHandler(store *bookingstore.Store, tours *tourstore.Store, users *userstore.Store, checkout payments.Checkout, observe Observer, errs *apperr.Handler, logger *zap.Logger) *Handler {
	if observe == nil {
		observe = func(string) {}
	}
	return &Handler{
		rs:       crud.NewResource[models.Booking]("booking", store.Collection(), errs, logger),
		store:    store,
		tours:    tours,
		users:    users,
		checkout: checkout,
		observe:  observe,
		errs:     errs,
		log:      logger,
	}
}

// CheckoutSession opens a hosted payment session for one tour and
// returns its URL.
// GET /checkout-session/{tourID}  →  200 {"data":{"session":{"url":...}}}
func (h *Handler) CheckoutSession(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		h.errs.Write(w, r, apperr.Unauthorized("you are not logged in; please log in to get access"))
		return
	}

	raw := chi.URLParam(r, "tourID")
	tourID, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		h.errs.Write(w, r, apperr.InvalidID(raw))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	tour, err := h.tours.Collection().FindByID(ctx, tourID, nil)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}

	base := baseURL(r)
	url, err := h.checkout.CreateSession(ctx, payments.SessionParams{
		TourID:        tour.ID.Hex(),
		TourName:      fmt.Sprintf("%s Tour", tour.Name),
		TourSummary:   tour.Summary,
		ImageURL:      absoluteImageURL(base, tour.ImageCover),
		AmountCents:   int64(math.Round(tour.Price * 100)),
		CustomerEmail: user.Email,
		SuccessURL:    fmt.Sprintf("%s/?alert=booking", base),
		CancelURL:     fmt.Sprintf("%s/tour/%s", base, tour.Slug),
	})
	if err != nil {
		h.observe("failed")
		h.errs.Write(w, r, err)
		return
	}

	h.observe("created")
	respond.Success(w, http.StatusOK, map[string]any{
		"session": map[string]string{"url": url},
	})
}

func baseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s", scheme, r.Host)
}

func absoluteImageURL(base, cover string) string {
	if cover == "" {
		return ""
	}
	return base + cover
}

// Webhook fulfills completed checkouts. The provider signs the payload;
// anything unverifiable is rejected before touching the store.
// POST /webhook-checkout  →  200 {"received":true}
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBytes))
	if err != nil {
		h.errs.Write(w, r, apperr.ValidationFailed("could not read webhook payload").Wrap(err))
		return
	}

	order, err := h.checkout.ParseWebhook(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	if order == nil {
		respond.Success(w, http.StatusOK, map[string]any{"received": true})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	if err := h.fulfill(ctx, order); err != nil {
		h.observe("failed")
		h.errs.Write(w, r, err)
		return
	}

	h.observe("fulfilled")
	respond.Success(w, http.StatusOK, map[string]any{"received": true})
}

func (h *Handler) fulfill(ctx context.Context, order *payments.CheckoutCompleted) error {
	tourID, err := primitive.ObjectIDFromHex(order.TourID)
	if err != nil {
		return apperr.ValidationFailed("webhook carries an invalid tour reference").Wrap(err)
	}
	user, err := h.users.GetByEmail(ctx, order.CustomerEmail)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return apperr.ValidationFailed("webhook customer email matches no account")
		}
		return err
	}

	booking, err := h.store.CreatePaid(ctx, tourID, user.ID, float64(order.AmountCents)/100)
	if err != nil {
		return err
	}
	h.log.Info("booking fulfilled",
		zap.String("booking", booking.ID.Hex()),
		zap.String("tour", tourID.Hex()),
		zap.String("user", user.ID.Hex()))
	return nil
}

// MyBookings lists the traveler's own bookings.
// GET /my  →  200
func (h *Handler) MyBookings(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		h.errs.Write(w, r, apperr.Unauthorized("you are not logged in; please log in to get access"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	found, err := h.store.ForUser(ctx, user.ID)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	respond.List(w, len(found), map[string]any{"data": found})
}
