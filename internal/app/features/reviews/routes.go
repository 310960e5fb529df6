// internal/app/features/reviews/routes.go
package reviews

import (
	"github.com/go-chi/chi/v5"
	"github.com/touristahq/tourista/internal/app/system/apperr"
	"github.com/touristahq/tourista/internal/app/system/auth"
	"github.com/touristahq/tourista/internal/domain/models"
)

// Routes mounts the review routes. The same router serves both the
// flat mount (/api/v1/reviews) and the nested one
// (/api/v1/tours/{tourID}/reviews); the nested path scopes lists and
// pins the tour on create.
//
// All review routes require login. Only travelers write reviews;
// travelers and admins edit or delete them.
func Routes(h *Handler, sessions *auth.Manager, errs *apperr.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(sessions.Protect)

	travelers := auth.RequireRoles(errs, models.RoleUser)
	owners := auth.RequireRoles(errs, models.RoleUser, models.RoleAdmin)

	r.Get("/", h.List)
	r.With(travelers).Post("/", h.Create)

	r.Get("/{id}", h.Get)
	r.With(owners).Patch("/{id}", h.Update)
	r.With(owners).Delete("/{id}", h.Delete)

	return r
}
