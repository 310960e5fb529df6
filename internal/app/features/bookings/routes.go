// internal/app/features/bookings/routes.go
package bookings

import (
	"github.com/go-chi/chi/v5"
	"github.com/touristahq/tourista/internal/app/system/apperr"
	"github.com/touristahq/tourista/internal/app/system/auth"
	"github.com/touristahq/tourista/internal/domain/models"
)

// Routes mounts the booking routes. Everything requires login; the
// management operations additionally require admin or lead-guide.
//
// The payment webhook is NOT here: it must sit outside authentication
// and the API body limit, so bootstrap mounts Handler.Webhook directly.
func Routes(h *Handler, sessions *auth.Manager, errs *apperr.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(sessions.Protect)

	r.Get("/checkout-session/{tourID}", h.CheckoutSession)
	r.Get("/my", h.MyBookings)

	r.Group(func(ar chi.Router) {
		ar.Use(auth.RequireRoles(errs, models.RoleAdmin, models.RoleLeadGuide))
		ar.Get("/", h.rs.GetAll(nil))
		ar.Post("/", h.rs.CreateOne(nil))
		ar.Get("/{id}", h.rs.GetOne(nil))
		ar.Patch("/{id}", h.rs.UpdateOne(nil))
		ar.Delete("/{id}", h.rs.DeleteOne())
	})

	return r
}
