// internal/app/bootstrap/appconfig.go
package bootstrap

import (
	"time"

	"github.com/dalemusser/edirhub/internal/app/system/timeouts"
)

// AppConfig holds EdirHub-specific configuration.
//
// These values come from environment variables (EDIRHUB_*), configuration
// files, or command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig
// covers ports, TLS, logging and request limits; everything the portal
// itself needs lives here.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64

	// Per-call database deadlines; zero keeps the default.
	DBTimeouts timeouts.Config

	// Session management configuration
	SessionKey    string        // Secret key for signing session cookies (must be strong in production)
	SessionName   string        // Cookie name for sessions (default: edirhub-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionTTL    time.Duration // How long a sign-in lasts

	// CSRF protection for every form post
	CSRFKey string

	// Google OAuth (optional; sign-in button hidden when blank)
	GoogleClientID     string
	GoogleClientSecret string
	BaseURL            string // e.g., "https://edirhub.example" (OAuth callback host)

	// Superadmin bootstrap
	SuperAdminEmail    string
	SuperAdminPassword string // only used when creating or resetting the account

	// Registrations left pending longer than this are rejected.
	PendingExpiry time.Duration

	// Audit logging: "all" (db+log), "db", "log", or "off"
	AuditLogAuth  string
	AuditLogAdmin string

	// IANA zone used for contribution dates and event times.
	Timezone string
}
