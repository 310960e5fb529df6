// internal/app/features/users/handler.go
package users

import (
	"encoding/json"
	"net/http"
	"time"

	userstore "github.com/touristahq/tourista/internal/app/store/users"
	"github.com/touristahq/tourista/internal/app/system/apperr"
	"github.com/touristahq/tourista/internal/app/system/auth"
	"github.com/touristahq/tourista/internal/app/system/crud"
	"github.com/touristahq/tourista/internal/app/system/images"
	"github.com/touristahq/tourista/internal/app/system/mailer"
	"github.com/touristahq/tourista/internal/app/system/ratelimit"
	"github.com/touristahq/tourista/internal/domain/models"
	"go.uber.org/zap"
)

// resetTokenTTL bounds how long a mailed password-reset link works.
const resetTokenTTL = 10 * time.Minute

// Handler serves accounts: signup/login, password recovery, the
// authenticated user's profile, and the admin-only user management.
type Handler struct {
	rs       *crud.Resource[models.User]
	store    *userstore.Store
	sessions *auth.Manager
	mail     *mailer.Mailer
	photos   images.Store
	logins   *ratelimit.LoginLimiter
	errs     *apperr.Handler
	log      *zap.Logger
}

func NewHandler(store *userstore.Store, sessions *auth.Manager, mail *mailer.Mailer, photos images.Store, errs *apperr.Handler, logger *zap.Logger) *Handler {
	return &Handler{
		rs:       crud.NewResource[models.User]("user", store.Collection(), errs, logger),
		store:    store,
		sessions: sessions,
		mail:     mail,
		photos:   photos,
		logins:   ratelimit.NewLoginLimiter(),
		errs:     errs,
		log:      logger,
	}
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 10<<10)).Decode(v); err != nil {
		h.errs.Write(w, r, apperr.ValidationFailed("invalid JSON body").Wrap(err))
		return false
	}
	return true
}

// CreateNotSupported answers the admin collection POST: accounts are
// only born through signup, where passwords get hashed.
func (h *Handler) CreateNotSupported(w http.ResponseWriter, r *http.Request) {
	h.errs.Write(w, r, apperr.ValidationFailed("this route is not defined; please use /signup instead"))
}
