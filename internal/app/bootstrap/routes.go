// internal/app/bootstrap/routes.go
package bootstrap

import (
	"crypto/sha256"
	"net/http"
	"strings"

	authgooglefeature "github.com/dalemusser/retroboard/internal/app/features/authgoogle"
	errorsfeature "github.com/dalemusser/retroboard/internal/app/features/errors"
	healthfeature "github.com/dalemusser/retroboard/internal/app/features/health"
	homefeature "github.com/dalemusser/retroboard/internal/app/features/home"
	loginfeature "github.com/dalemusser/retroboard/internal/app/features/login"
	logoutfeature "github.com/dalemusser/retroboard/internal/app/features/logout"
	roomsfeature "github.com/dalemusser/retroboard/internal/app/features/rooms"
	rpcfeature "github.com/dalemusser/retroboard/internal/app/features/rpc"
	"github.com/dalemusser/retroboard/internal/app/service/roomservice"
	userstore "github.com/dalemusser/retroboard/internal/app/store/users"
	"github.com/dalemusser/retroboard/internal/app/system/auditlog"
	"github.com/dalemusser/retroboard/internal/app/system/auth"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed.
//
// RetroBoard initializes the template engine, applies CSRF and session
// middleware, and mounts the page features, the auth flows and the
// /api/trpc procedure endpoint.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// LoadSessionUser re-reads the user on each request, so disabling an
	// account signs it out immediately.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(deps.DB))

	// Initialize and boot the template engine once at startup.
	// Dev mode enables template reloading for faster iteration.
	eng := templates.New(coreCfg.Env == "dev")
	if err := eng.Boot(logger); err != nil {
		logger.Error("template engine boot failed", zap.Error(err))
		return nil, err
	}
	templates.UseEngine(eng, logger)

	errLog := errorsfeature.NewErrorLogger(logger)
	auditLog := auditlog.New(deps.AuditStore, logger, auditlog.Config{
		Auth: appCfg.AuditLog,
		Room: appCfg.AuditLog,
	})
	rooms := roomservice.New(deps.DB, auditLog, logger)

	r := chi.NewRouter()

	// Health check sits outside CSRF and sessions.
	healthHandler := healthfeature.NewHandler(deps.DB, deps.AuditMongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Static assets with pre-compressed file support (gzip/brotli)
	r.Handle("/static/*", fileserver.Handler("/static", "public"))

	r.Group(func(r chi.Router) {
		if !secure {
			r.Use(plaintextCSRF)
		}
		r.Use(csrf.Protect(
			csrfKey(appCfg.SessionKey),
			csrf.Secure(secure),
			csrf.Path("/"),
			csrf.SameSite(csrf.SameSiteLaxMode),
			csrf.CookieName("retroboard_csrf"),
			csrf.ErrorHandler(csrfFailure(logger)),
		))

		// Global auth middleware: loads SessionUser into context if logged in.
		r.Use(sessionMgr.LoadSessionUser)

		homeHandler := homefeature.NewHandler(rooms, errLog, logger)
		r.Mount("/", homefeature.Routes(homeHandler))

		roomsHandler := roomsfeature.NewHandler(rooms, errLog, logger)
		r.Mount("/rooms", roomsfeature.Routes(roomsHandler, sessionMgr))

		rpcHandler := rpcfeature.NewHandler(rooms, logger)
		r.Mount("/api/trpc", rpcfeature.Routes(rpcHandler))

		// Authentication
		loginHandler := loginfeature.NewHandler(deps.DB, sessionMgr, errLog, auditLog, appCfg.GoogleEnabled(), logger)
		loginHandler.AllowTrust = appCfg.TrustEnabled(coreCfg.Env)
		loginHandler.Limiter = deps.LoginLimiter
		r.Mount("/login", loginfeature.Routes(loginHandler))

		logoutHandler := logoutfeature.NewHandler(sessionMgr, auditLog, logger)
		r.Mount("/logout", logoutfeature.Routes(logoutHandler, sessionMgr))

		googleHandler := authgooglefeature.NewHandler(
			deps.DB,
			sessionMgr,
			auditLog,
			appCfg.GoogleClientID,
			appCfg.GoogleClientSecret,
			appCfg.BaseURL,
			[]byte(appCfg.SessionKey),
			logger,
		)
		r.Mount("/auth/google", authgooglefeature.Routes(googleHandler))

		// Error pages
		errorsHandler := errorsfeature.NewHandler()
		r.Get("/forbidden", errorsHandler.Forbidden)
		r.Get("/unauthorized", errorsHandler.Unauthorized)
	})

	return r, nil
}

// csrfKey derives the 32-byte CSRF authentication key from the session key.
func csrfKey(sessionKey string) []byte {
	sum := sha256.Sum256([]byte("csrf:" + sessionKey))
	return sum[:]
}

// plaintextCSRF tells gorilla/csrf the request arrived over plain http, so
// it skips the https-only Referer check. Used outside prod.
func plaintextCSRF(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
	})
}

// csrfFailure answers a request that failed CSRF validation: a JSON error
// for procedure calls, the forbidden page otherwise.
func csrfFailure(logger *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reason := csrf.FailureReason(r)
		logger.Warn("csrf validation failed",
			zap.String("path", r.URL.Path),
			zap.String("method", r.Method),
			zap.Error(reason))

		if strings.HasPrefix(r.URL.Path, "/api/") {
			rpcfeature.WriteError(w, http.StatusForbidden, "FORBIDDEN", "Invalid or missing CSRF token")
			return
		}
		errorsfeature.RenderForbidden(w, r, "Your form expired. Please go back and try again.", "/")
	})
}
