// internal/app/features/tours/routes.go
package tours

import (
	"github.com/go-chi/chi/v5"
	"github.com/touristahq/tourista/internal/app/system/apperr"
	"github.com/touristahq/tourista/internal/app/system/auth"
	"github.com/touristahq/tourista/internal/app/system/crud"
	"github.com/touristahq/tourista/internal/domain/models"
)

// Routes mounts the tour routes. Reads are public; writes require the
// admin or lead-guide role; the monthly plan additionally admits guides.
// Typically: r.Mount("/api/v1/tours", tours.Routes(h, sessions, errs, uploader))
func Routes(h *Handler, sessions *auth.Manager, errs *apperr.Handler, uploader *ImageUploader) chi.Router {
	r := chi.NewRouter()

	staff := auth.RequireRoles(errs, models.RoleAdmin, models.RoleLeadGuide)
	guides := auth.RequireRoles(errs, models.RoleAdmin, models.RoleLeadGuide, models.RoleGuide)

	// Preset and analytics reads.
	r.Get("/top-5-cheap", h.TopCheap)
	r.Get("/tour-stats", h.Stats)
	r.With(sessions.Protect, guides).Get("/monthly-plan/{year}", h.MonthlyPlan)

	// Geospatial reads.
	r.Get("/tours-within/{distance}/center/{latlng}/unit/{unit}", h.Within)
	r.Get("/distances/{latlng}/unit/{unit}", h.Distances)

	// Generic resource operations.
	r.Get("/", h.rs.GetAll(nil))
	r.Get("/{id}", h.rs.GetOne(&crud.Populate{
		From:         "reviews",
		LocalField:   "_id",
		ForeignField: "tour",
		As:           "reviews",
	}))

	r.Group(func(pr chi.Router) {
		pr.Use(sessions.Protect, staff)
		pr.Post("/", h.rs.CreateOne(nil))
		pr.Patch("/{id}", h.rs.UpdateOne(nil))
		pr.Delete("/{id}", h.rs.DeleteOne())
		if uploader != nil {
			pr.Patch("/{id}/images", h.UploadImages(uploader))
		}
	})

	return r
}
