// internal/app/features/users/routes.go
package users

import (
	"github.com/go-chi/chi/v5"
	"github.com/touristahq/tourista/internal/app/system/apperr"
	"github.com/touristahq/tourista/internal/app/system/auth"
	"github.com/touristahq/tourista/internal/domain/models"
)

// Routes mounts all account routes.
// Typically: r.Mount("/api/v1/users", users.Routes(h, sessions, errs))
func Routes(h *Handler, sessions *auth.Manager, errs *apperr.Handler) chi.Router {
	r := chi.NewRouter()

	// Open account flows.
	r.Post("/signup", h.Signup)
	r.Post("/login", h.Login)
	r.Get("/logout", h.Logout)
	r.Post("/forgotPassword", h.ForgotPassword)
	r.Patch("/resetPassword/{token}", h.ResetPassword)

	// The logged-in user's own account.
	r.Group(func(pr chi.Router) {
		pr.Use(sessions.Protect)
		pr.Get("/me", h.Me)
		pr.Patch("/updateMe", h.UpdateMe)
		pr.Patch("/me/photo", h.UploadPhoto)
		pr.Delete("/deleteMe", h.DeleteMe)
		pr.Patch("/updateMyPassword", h.UpdateMyPassword)
	})

	// Admin-only user management.
	r.Group(func(ar chi.Router) {
		ar.Use(sessions.Protect, auth.RequireRoles(errs, models.RoleAdmin))
		ar.Get("/", h.rs.GetAll(nil))
		ar.Post("/", h.CreateNotSupported)
		ar.Get("/{id}", h.rs.GetOne(nil))
		ar.Patch("/{id}", h.rs.UpdateOne(nil))
		ar.Delete("/{id}", h.rs.DeleteOne())
	})

	return r
}
