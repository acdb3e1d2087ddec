// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/dalemusser/retroboard/internal/app/system/database"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// devSessionKey is the default signing key. It is fine for local work and
// rejected in prod.
const devSessionKey = "dev-only-change-me-please-0123456789ABCDEF"

// appConfigKeys defines the configuration keys for RetroBoard.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: db_dsn, session_name, etc.
//   - Environment variables: RETROBOARD_DB_DSN, RETROBOARD_SESSION_NAME, etc.
//   - Command-line flags: --db_dsn, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "db_driver", Default: "sqlite", Desc: "SQL driver for rooms and users (sqlite)"},
	{Name: "db_dsn", Default: "file:retroboard.db?_foreign_keys=on", Desc: "SQL data source name"},

	// Audit logging
	{Name: "audit_mongo_uri", Default: "", Desc: "MongoDB URI for the audit store (blank disables it)"},
	{Name: "audit_mongo_database", Default: "retroboard", Desc: "MongoDB database for audit events"},
	{Name: "audit_log", Default: "all", Desc: "Audit event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	// Sessions
	{Name: "session_key", Default: devSessionKey, Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "retroboard-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "720h", Desc: "Session lifetime (e.g., 24h, 720h)"},

	// Sign-in
	{Name: "allow_trust", Default: "auto", Desc: "Password-less sign-in by login ID: 'auto' (on except in prod), 'on', or 'off'"},

	// Google OAuth configuration
	{Name: "google_client_id", Default: "", Desc: "Google OAuth2 client ID"},
	{Name: "google_client_secret", Default: "", Desc: "Google OAuth2 client secret"},

	// Base URL for the OAuth callback
	{Name: "base_url", Default: "http://localhost:8080", Desc: "Public base URL of this site"},

	// Database deadlines
	{Name: "timeout_short", Default: "5s", Desc: "Deadline for single-row reads"},
	{Name: "timeout_medium", Default: "10s", Desc: "Deadline for fetch-check-mutate transactions"},
	{Name: "timeout_long", Default: "30s", Desc: "Deadline for cascading deletes"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, RETROBOARD_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "RETROBOARD", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		DBDriver: strings.ToLower(appValues.String("db_driver")),
		DBDSN:    appValues.String("db_dsn"),

		AuditMongoURI:      appValues.String("audit_mongo_uri"),
		AuditMongoDatabase: appValues.String("audit_mongo_database"),
		AuditLog:           strings.ToLower(appValues.String("audit_log")),

		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),
		SessionMaxAge: appValues.Duration("session_max_age", 30*24*time.Hour),

		AllowTrust: strings.ToLower(strings.TrimSpace(appValues.String("allow_trust"))),

		GoogleClientID:     appValues.String("google_client_id"),
		GoogleClientSecret: appValues.String("google_client_secret"),

		BaseURL: strings.TrimRight(appValues.String("base_url"), "/"),

		TimeoutShort:  appValues.Duration("timeout_short", 5*time.Second),
		TimeoutMedium: appValues.Duration("timeout_medium", 10*time.Second),
		TimeoutLong:   appValues.Duration("timeout_long", 30*time.Second),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// Catching a bad DSN, URI or key here gives a clear message before any
// connection is attempted.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if !slices.Contains(database.SupportedDrivers, appCfg.DBDriver) {
		return fmt.Errorf("db_driver %q is not supported (want one of %v)", appCfg.DBDriver, database.SupportedDrivers)
	}
	if strings.TrimSpace(appCfg.DBDSN) == "" {
		return fmt.Errorf("db_dsn is required")
	}

	if appCfg.AuditMongoURI != "" {
		if err := wafflemongo.ValidateURI(appCfg.AuditMongoURI); err != nil {
			logger.Error("invalid audit MongoDB URI", zap.Error(err))
			return fmt.Errorf("invalid audit MongoDB URI: %w", err)
		}
		if appCfg.AuditMongoDatabase == "" {
			return fmt.Errorf("audit_mongo_database is required when audit_mongo_uri is set")
		}
	}
	switch appCfg.AuditLog {
	case "all", "db", "log", "off":
	default:
		return fmt.Errorf("audit_log must be 'all', 'db', 'log' or 'off', got %q", appCfg.AuditLog)
	}

	if appCfg.SessionKey == "" {
		return fmt.Errorf("session_key is required")
	}
	if coreCfg != nil && coreCfg.Env == "prod" {
		if appCfg.SessionKey == devSessionKey || len(appCfg.SessionKey) < 32 {
			return fmt.Errorf("session_key must be a private value of at least 32 characters in prod")
		}
	}
	if appCfg.SessionMaxAge <= 0 {
		return fmt.Errorf("session_max_age must be positive")
	}

	switch appCfg.AllowTrust {
	case "", "auto", "off":
	case "on":
		if coreCfg != nil && coreCfg.Env == "prod" {
			logger.Warn("allow_trust is on in prod; anyone can sign in as any password-less account")
		}
	default:
		return fmt.Errorf("allow_trust must be 'auto', 'on' or 'off', got %q", appCfg.AllowTrust)
	}

	if (appCfg.GoogleClientID == "") != (appCfg.GoogleClientSecret == "") {
		return fmt.Errorf("google_client_id and google_client_secret must be set together")
	}
	if appCfg.GoogleEnabled() {
		u, err := url.Parse(appCfg.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("base_url must be an absolute http(s) URL for Google sign-in, got %q", appCfg.BaseURL)
		}
	}

	return nil
}
