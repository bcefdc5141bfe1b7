// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/edirhub/internal/app/system/timeouts"
	"github.com/dalemusser/edirhub/internal/app/system/timezones"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// minKeyLength is the shortest accepted session or CSRF key.
const minKeyLength = 32

// appConfigKeys defines the configuration keys for EdirHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: EDIRHUB_MONGO_URI, EDIRHUB_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "edirhub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "db_timeout_short", Default: "5s", Desc: "Deadline for single-document reads and writes"},
	{Name: "db_timeout_medium", Default: "10s", Desc: "Deadline for list queries and dashboard aggregates"},
	{Name: "db_timeout_long", Default: "30s", Desc: "Deadline for schema setup and multi-collection writes"},
	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "edirhub-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_ttl", Default: "24h", Desc: "Session lifetime (e.g., 12h, 168h)"},
	{Name: "csrf_key", Default: "dev-only-csrf-key-change-me-0123456789", Desc: "CSRF token signing key (32+ characters)"},

	// Google OAuth configuration
	{Name: "google_client_id", Default: "", Desc: "Google OAuth2 client ID"},
	{Name: "google_client_secret", Default: "", Desc: "Google OAuth2 client secret"},
	{Name: "base_url", Default: "http://localhost:3000", Desc: "Public base URL used for OAuth callbacks"},

	// SuperAdmin bootstrap
	{Name: "superadmin_email", Default: "", Desc: "Email of the superadmin user (created on startup)"},
	{Name: "superadmin_password", Default: "", Desc: "Password set when the superadmin is created or reset"},

	// Background work
	{Name: "pending_expiry", Default: "720h", Desc: "How long a registration may stay pending before it is rejected"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_admin", Default: "all", Desc: "Admin event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	{Name: "timezone", Default: "Africa/Addis_Ababa", Desc: "Time zone for contribution dates and event times"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles .env files, config files,
// environment variables (WAFFLE_* for core, EDIRHUB_* for app) and flags,
// merging with precedence: flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "EDIRHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		DBTimeouts: timeouts.Config{
			Short:  appValues.Duration("db_timeout_short", timeouts.DefaultShort),
			Medium: appValues.Duration("db_timeout_medium", timeouts.DefaultMedium),
			Long:   appValues.Duration("db_timeout_long", timeouts.DefaultLong),
		},
		SessionKey:       appValues.String("session_key"),
		SessionName:      appValues.String("session_name"),
		SessionDomain:    appValues.String("session_domain"),
		SessionTTL:       appValues.Duration("session_ttl", 24*time.Hour),
		CSRFKey:          appValues.String("csrf_key"),

		GoogleClientID:     appValues.String("google_client_id"),
		GoogleClientSecret: appValues.String("google_client_secret"),
		BaseURL:            appValues.String("base_url"),

		SuperAdminEmail:    appValues.String("superadmin_email"),
		SuperAdminPassword: appValues.String("superadmin_password"),

		PendingExpiry: appValues.Duration("pending_expiry", 30*24*time.Hour),

		AuditLogAuth:  appValues.String("audit_log_auth"),
		AuditLogAdmin: appValues.String("audit_log_admin"),

		Timezone: appValues.String("timezone"),
	}
	timeouts.Configure(appCfg.DBTimeouts)

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// It catches configuration errors before any connection is attempted.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if appCfg.MongoDatabase == "" {
		return fmt.Errorf("mongo_database must be set")
	}
	if len(appCfg.SessionKey) < minKeyLength {
		return fmt.Errorf("session_key must be at least %d characters", minKeyLength)
	}
	if len(appCfg.CSRFKey) < minKeyLength {
		return fmt.Errorf("csrf_key must be at least %d characters", minKeyLength)
	}
	if appCfg.SessionTTL <= 0 {
		return fmt.Errorf("session_ttl must be positive")
	}
	if appCfg.PendingExpiry <= 0 {
		return fmt.Errorf("pending_expiry must be positive")
	}
	if (appCfg.GoogleClientID == "") != (appCfg.GoogleClientSecret == "") {
		return fmt.Errorf("google_client_id and google_client_secret must be set together")
	}
	if !timezones.Valid(appCfg.Timezone) {
		return fmt.Errorf("unknown timezone %q", appCfg.Timezone)
	}
	for key, mode := range map[string]string{"audit_log_auth": appCfg.AuditLogAuth, "audit_log_admin": appCfg.AuditLogAdmin} {
		switch mode {
		case "all", "db", "log", "off":
		default:
			return fmt.Errorf("%s must be one of all|db|log|off, got %q", key, mode)
		}
	}
	if coreCfg != nil && coreCfg.Env == "prod" && appCfg.SuperAdminEmail == "" {
		logger.Warn("superadmin_email is not set; no one will be able to review Edir requests")
	}
	return nil
}
