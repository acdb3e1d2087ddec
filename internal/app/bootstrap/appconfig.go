// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like ports, TLS,
// logging level and CORS. AppConfig carries what is specific to
// RetroBoard: where rooms are stored, where audit events go, how sessions
// are signed and how Google sign-in is set up.
type AppConfig struct {
	// SQL database holding users, rooms, categories and cards
	DBDriver string // only "sqlite" is supported
	DBDSN    string // e.g. "file:retroboard.db?_foreign_keys=on"

	// Optional MongoDB audit sink
	AuditMongoURI      string // blank disables the MongoDB audit store
	AuditMongoDatabase string // Database name within MongoDB
	AuditLog           string // "all" (db+log), "db", "log", or "off"

	// Session management configuration
	SessionKey    string        // Secret key for signing session cookies (must be strong in production)
	SessionName   string        // Cookie name for sessions (default: retroboard-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // Session cookie lifetime

	// Password-less sign-in: "auto" (on except in prod), "on", or "off"
	AllowTrust string

	// Google OAuth (both blank disables Google sign-in)
	GoogleClientID     string
	GoogleClientSecret string

	// Base URL used to build the OAuth callback URL
	BaseURL string // e.g., "https://retro.example.com" or "http://localhost:8080"

	// Database operation deadlines (see package timeouts)
	TimeoutShort  time.Duration
	TimeoutMedium time.Duration
	TimeoutLong   time.Duration
}

// GoogleEnabled reports whether Google sign-in is configured.
func (c AppConfig) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

// TrustEnabled reports whether password-less sign-in is allowed in env.
func (c AppConfig) TrustEnabled(env string) bool {
	switch c.AllowTrust {
	case "on":
		return true
	case "off":
		return false
	default:
		return env != "prod"
	}
}
