// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for Tourista.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, jwt_secret, etc.
//   - Environment variables: TOURISTA_MONGO_URI, TOURISTA_JWT_SECRET, etc.
//   - Command-line flags: --mongo_uri, --jwt_secret, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "tourista", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size"},

	// Login tokens
	{Name: "jwt_secret", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "JWT signing secret (must be strong in production)"},
	{Name: "jwt_ttl", Default: "2160h", Desc: "JWT validity (e.g., 2160h for 90 days)"},
	{Name: "jwt_cookie_ttl", Default: "2160h", Desc: "Login cookie lifetime"},

	// API rate limit
	{Name: "api_rate_limit", Default: 100, Desc: "Max API requests per IP per window"},
	{Name: "api_rate_window", Default: "1h", Desc: "API rate limit window"},

	// Email/SMTP configuration
	{Name: "mail_smtp_host", Default: "localhost", Desc: "SMTP server host"},
	{Name: "mail_smtp_port", Default: 1025, Desc: "SMTP server port"},
	{Name: "mail_smtp_user", Default: "", Desc: "SMTP username"},
	{Name: "mail_smtp_pass", Default: "", Desc: "SMTP password"},
	{Name: "mail_from", Default: "noreply@tourista.example", Desc: "From email address"},
	{Name: "mail_from_name", Default: "Tourista", Desc: "From display name"},
	{Name: "site_name", Default: "Tourista", Desc: "Site name used in emails"},

	// Payments
	{Name: "stripe_secret_key", Default: "", Desc: "Stripe secret API key (blank disables checkout)"},
	{Name: "stripe_webhook_secret", Default: "", Desc: "Stripe webhook signing secret"},

	// Image storage
	{Name: "image_local_path", Default: "./uploads/img", Desc: "Local storage path for processed images"},
	{Name: "image_local_url", Default: "/img", Desc: "URL prefix for serving images"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "TOURISTA", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		JWTSecret:    appValues.String("jwt_secret"),
		JWTTTL:       appValues.Duration("jwt_ttl", 90*24*time.Hour),
		JWTCookieTTL: appValues.Duration("jwt_cookie_ttl", 90*24*time.Hour),

		APIRateLimit:  appValues.Int("api_rate_limit"),
		APIRateWindow: appValues.Duration("api_rate_window", time.Hour),

		MailSMTPHost: appValues.String("mail_smtp_host"),
		MailSMTPPort: appValues.Int("mail_smtp_port"),
		MailSMTPUser: appValues.String("mail_smtp_user"),
		MailSMTPPass: appValues.String("mail_smtp_pass"),
		MailFrom:     appValues.String("mail_from"),
		MailFromName: appValues.String("mail_from_name"),
		SiteName:     appValues.String("site_name"),

		StripeSecretKey:     appValues.String("stripe_secret_key"),
		StripeWebhookSecret: appValues.String("stripe_webhook_secret"),

		ImageLocalPath: appValues.String("image_local_path"),
		ImageLocalURL:  appValues.String("image_local_url"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation, catching
// configuration errors before any connection attempt.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	if coreCfg.Env == "prod" {
		if appCfg.JWTSecret == "" || appCfg.JWTSecret == "dev-only-change-me-please-0123456789ABCDEF" {
			return fmt.Errorf("jwt_secret must be set to a strong value in production")
		}
		if appCfg.StripeSecretKey != "" && appCfg.StripeWebhookSecret == "" {
			return fmt.Errorf("stripe_webhook_secret is required when stripe_secret_key is set")
		}
	}

	if appCfg.APIRateLimit <= 0 {
		return fmt.Errorf("api_rate_limit must be positive")
	}
	return nil
}
