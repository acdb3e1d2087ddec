package bootstrap

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/retroboard/internal/app/system/timeouts"
	"github.com/dalemusser/retroboard/internal/testutil"
	"github.com/dalemusser/waffle/config"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func validConfig() AppConfig {
	return AppConfig{
		DBDriver:      "sqlite",
		DBDSN:         "file:" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=on",
		AuditLog:      "log",
		SessionKey:    testutil.TestSessionKey,
		SessionName:   "retroboard-session",
		SessionMaxAge: time.Hour,
		BaseURL:       "http://localhost:8080",
	}
}

func TestValidateConfig(t *testing.T) {
	dev := &config.CoreConfig{Env: "dev"}
	prod := &config.CoreConfig{Env: "prod"}

	tests := []struct {
		name    string
		core    *config.CoreConfig
		mutate  func(*AppConfig)
		wantErr string
	}{
		{"valid", dev, func(*AppConfig) {}, ""},
		{"unknown driver", dev, func(c *AppConfig) { c.DBDriver = "oracle" }, "db_driver"},
		{"empty dsn", dev, func(c *AppConfig) { c.DBDSN = "  " }, "db_dsn"},
		{"bad audit setting", dev, func(c *AppConfig) { c.AuditLog = "sometimes" }, "audit_log"},
		{"bad mongo uri", dev, func(c *AppConfig) { c.AuditMongoURI = "http://nope"; c.AuditMongoDatabase = "x" }, "MongoDB URI"},
		{"mongo without database", dev, func(c *AppConfig) { c.AuditMongoURI = "mongodb://localhost:27017" }, "audit_mongo_database"},
		{"dev key in prod", prod, func(c *AppConfig) { c.SessionKey = devSessionKey }, "session_key"},
		{"short key in prod", prod, func(c *AppConfig) { c.SessionKey = "short" }, "session_key"},
		{"dev key in dev", dev, func(c *AppConfig) { c.SessionKey = devSessionKey }, ""},
		{"half google", dev, func(c *AppConfig) { c.GoogleClientID = "id" }, "google_client"},
		{"google with bad base url", dev, func(c *AppConfig) {
			c.GoogleClientID, c.GoogleClientSecret, c.BaseURL = "id", "secret", "localhost"
		}, "base_url"},
		{"google configured", dev, func(c *AppConfig) { c.GoogleClientID, c.GoogleClientSecret = "id", "secret" }, ""},
		{"bad allow_trust", dev, func(c *AppConfig) { c.AllowTrust = "maybe" }, "allow_trust"},
		{"trust on in prod", prod, func(c *AppConfig) { c.AllowTrust = "on" }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := ValidateConfig(tt.core, cfg, testLogger())
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestTrustEnabled(t *testing.T) {
	tests := []struct {
		setting string
		env     string
		want    bool
	}{
		{"auto", "dev", true},
		{"auto", "prod", false},
		{"", "prod", false},
		{"", "test", true},
		{"on", "prod", true},
		{"off", "dev", false},
	}
	for _, tt := range tests {
		cfg := AppConfig{AllowTrust: tt.setting}
		if got := cfg.TrustEnabled(tt.env); got != tt.want {
			t.Errorf("TrustEnabled(%q) with allow_trust=%q = %v, want %v", tt.env, tt.setting, got, tt.want)
		}
	}
}

func TestCSRFKey(t *testing.T) {
	k := csrfKey("a")
	if len(k) != 32 {
		t.Fatalf("key length = %d, want 32", len(k))
	}
	if string(k) == string(csrfKey("b")) {
		t.Error("different session keys produced the same CSRF key")
	}
}

func TestLifecycle_ConnectMigrateShutdown(t *testing.T) {
	ctx, cancel := testutil.TestContext()
	defer cancel()
	t.Cleanup(timeouts.Reset)

	core := &config.CoreConfig{Env: "test"}
	cfg := validConfig()
	cfg.TimeoutShort = 3 * time.Second

	deps, err := ConnectDB(ctx, core, cfg, testLogger())
	if err != nil {
		t.Fatalf("ConnectDB: %v", err)
	}
	if deps.AuditStore != nil || deps.AuditMongoClient != nil {
		t.Error("audit store should be nil without audit_mongo_uri")
	}
	if deps.LoginLimiter == nil {
		t.Fatal("ConnectDB did not start the login limiter")
	}

	if err := EnsureSchema(ctx, core, cfg, deps, testLogger()); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	if !deps.DB.Migrator().HasTable("rooms") {
		t.Error("rooms table missing after EnsureSchema")
	}

	if err := Startup(ctx, core, cfg, deps, testLogger()); err != nil {
		t.Fatalf("Startup: %v", err)
	}
	if got := timeouts.Short(); got != 3*time.Second {
		t.Errorf("timeouts.Short() = %v, want 3s", got)
	}

	if err := Shutdown(context.Background(), core, cfg, deps, testLogger()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	// Already stopped by Shutdown; a second Stop must be a no-op.
	deps.LoginLimiter.Stop()
}

func TestBuildHandler_Health(t *testing.T) {
	ctx, cancel := testutil.TestContext()
	defer cancel()
	t.Cleanup(timeouts.Reset)

	core := &config.CoreConfig{Env: "test"}
	cfg := validConfig()

	deps, err := ConnectDB(ctx, core, cfg, testLogger())
	if err != nil {
		t.Fatalf("ConnectDB: %v", err)
	}
	t.Cleanup(func() { _ = Shutdown(context.Background(), core, cfg, deps, testLogger()) })
	if err := EnsureSchema(ctx, core, cfg, deps, testLogger()); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	if err := Startup(ctx, core, cfg, deps, testLogger()); err != nil {
		t.Fatalf("Startup: %v", err)
	}

	h, err := BuildHandler(core, cfg, deps, testLogger())
	if err != nil {
		t.Fatalf("BuildHandler: %v", err)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /health: status %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode health body: %v", err)
	}
	if body["database"] != "connected" {
		t.Errorf("database = %q", body["database"])
	}

	// A procedure call without a CSRF token is refused before it runs.
	rec = httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/trpc/room.createRoom", strings.NewReader(`{"name":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("POST without CSRF token: status %d, want 403", rec.Code)
	}
}
