// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	bookingsfeature "github.com/touristahq/tourista/internal/app/features/bookings"
	healthfeature "github.com/touristahq/tourista/internal/app/features/health"
	reviewsfeature "github.com/touristahq/tourista/internal/app/features/reviews"
	toursfeature "github.com/touristahq/tourista/internal/app/features/tours"
	usersfeature "github.com/touristahq/tourista/internal/app/features/users"
	bookingstore "github.com/touristahq/tourista/internal/app/store/bookings"
	reviewstore "github.com/touristahq/tourista/internal/app/store/reviews"
	tourstore "github.com/touristahq/tourista/internal/app/store/tours"
	userstore "github.com/touristahq/tourista/internal/app/store/users"
	"github.com/touristahq/tourista/internal/app/system/apperr"
	"github.com/touristahq/tourista/internal/app/system/auth"
	"github.com/touristahq/tourista/internal/app/system/images"
	"github.com/touristahq/tourista/internal/app/system/mailer"
	"github.com/touristahq/tourista/internal/app/system/metrics"
	"github.com/touristahq/tourista/internal/app/system/payments"
	"github.com/touristahq/tourista/internal/app/system/ratelimit"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed.
//
// The API surface lives under /api/v1, rate limited per client IP. The
// Stripe webhook and the health and metrics endpoints sit outside that
// group: the webhook authenticates by signature, not by JWT, and the
// operational endpoints must not be throttled.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	errs := apperr.NewHandler(logger, coreCfg.Env != "prod")
	mets := metrics.New(nil)

	// Stores. Reviews write back into tours when rating stats change.
	tours := tourstore.New(deps.MongoDatabase)
	users := userstore.New(deps.MongoDatabase)
	reviews := reviewstore.New(deps.MongoDatabase, tours)
	bookings := bookingstore.New(deps.MongoDatabase)

	sessions := auth.New(appCfg.JWTSecret, appCfg.JWTTTL, appCfg.JWTCookieTTL, users, errs, logger)

	sender, err := mailer.NewSMTP(appCfg.MailSMTPHost, appCfg.MailSMTPPort, appCfg.MailSMTPUser, appCfg.MailSMTPPass, appCfg.MailFromName, appCfg.MailFrom)
	if err != nil {
		logger.Error("mail client init failed", zap.Error(err))
		return nil, err
	}
	mail := mailer.New(sender, appCfg.SiteName, logger, func(kind, status string) {
		mets.EmailsSentTotal.WithLabelValues(kind, status).Inc()
	})

	photos, err := images.NewLocal(appCfg.ImageLocalPath, appCfg.ImageLocalURL)
	if err != nil {
		logger.Error("image storage init failed", zap.Error(err))
		return nil, err
	}

	checkout := payments.NewStripe(appCfg.StripeSecretKey, appCfg.StripeWebhookSecret)

	toursHandler := toursfeature.NewHandler(tours, errs, logger)
	usersHandler := usersfeature.NewHandler(users, sessions, mail, photos, errs, logger)
	reviewsHandler := reviewsfeature.NewHandler(reviews, errs, logger, mets.RatingRecalcsTotal.Inc)
	bookingsHandler := bookingsfeature.NewHandler(bookings, tours, users, checkout, func(outcome string) {
		mets.CheckoutSessionsTotal.WithLabelValues(outcome).Inc()
		if outcome == "fulfilled" {
			mets.BookingsCreatedTotal.Inc()
		}
	}, errs, logger)

	r := chi.NewRouter()
	r.Use(mets.Middleware)

	// Health check endpoint for load balancers and orchestrators.
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Get("/health", healthHandler.Serve)

	r.Handle("/metrics", metrics.Handler())

	// Uploaded images, served statically with pre-compressed file support.
	r.Handle(appCfg.ImageLocalURL+"/*", fileserver.Handler(appCfg.ImageLocalURL, photos.Root()))

	// Stripe calls this back directly; it is signature-authenticated and
	// must not sit behind the client rate limit or JWT middleware.
	r.Post("/webhook-checkout", bookingsHandler.Webhook)

	r.Route("/api", func(api chi.Router) {
		api.Use(ratelimit.Middleware(ratelimit.New(appCfg.APIRateLimit, appCfg.APIRateWindow), errs))

		api.Mount("/v1/tours", toursfeature.Routes(toursHandler, sessions, errs, &toursfeature.ImageUploader{Store: photos}))
		api.Mount("/v1/tours/{tourID}/reviews", reviewsfeature.Routes(reviewsHandler, sessions, errs))
		api.Mount("/v1/users", usersfeature.Routes(usersHandler, sessions, errs))
		api.Mount("/v1/reviews", reviewsfeature.Routes(reviewsHandler, sessions, errs))
		api.Mount("/v1/bookings", bookingsfeature.Routes(bookingsHandler, sessions, errs))
	})

	return r, nil
}
