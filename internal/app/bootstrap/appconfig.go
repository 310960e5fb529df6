// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig handles framework-level settings (ports, TLS,
// logging, environment). AppConfig is everything specific to this
// application: database coordinates, token secrets, payment keys,
// mail relay, and image storage.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Login token configuration
	JWTSecret    string        // HS256 signing secret (must be strong in production)
	JWTTTL       time.Duration // token validity
	JWTCookieTTL time.Duration // browser cookie lifetime

	// API rate limit (requests per IP per window)
	APIRateLimit  int
	APIRateWindow time.Duration

	// Email/SMTP configuration
	MailSMTPHost string
	MailSMTPPort int
	MailSMTPUser string
	MailSMTPPass string
	MailFrom     string
	MailFromName string
	SiteName     string

	// Payment provider configuration
	StripeSecretKey     string
	StripeWebhookSecret string

	// Image storage
	ImageLocalPath string // filesystem root for processed uploads
	ImageLocalURL  string // URL prefix the images are served under
}
