// internal/app/features/login/handler.go
package login

// Terminology: User Identifiers
//   - UserID / userID / user_id: the UUID primary key of a users row
//   - LoginID / loginID / login_id: the human-readable string users type to sign in

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	uierrors "github.com/dalemusser/retroboard/internal/app/features/errors"
	"github.com/dalemusser/retroboard/internal/app/store/audit"
	userstore "github.com/dalemusser/retroboard/internal/app/store/users"
	"github.com/dalemusser/retroboard/internal/app/system/auditlog"
	"github.com/dalemusser/retroboard/internal/app/system/auth"
	"github.com/dalemusser/retroboard/internal/app/system/authutil"
	"github.com/dalemusser/retroboard/internal/app/system/ratelimit"
	"github.com/dalemusser/retroboard/internal/app/system/timeouts"
	"github.com/dalemusser/retroboard/internal/app/system/viewdata"
	"github.com/dalemusser/retroboard/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Handler struct {
	Users         *userstore.Store
	Log           *zap.Logger
	SessionMgr    *auth.SessionManager
	ErrLog        *uierrors.ErrorLogger
	AuditLog      *auditlog.Logger
	GoogleEnabled bool                    // True if Google OAuth is configured
	AllowTrust    bool                    // false refuses password-less sign-in and sign-up
	Limiter       *ratelimit.LoginLimiter // nil disables throttling
}

func NewHandler(
	db *gorm.DB,
	sessionMgr *auth.SessionManager,
	errLog *uierrors.ErrorLogger,
	audit *auditlog.Logger,
	googleEnabled bool,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Users:         userstore.New(db),
		Log:           logger,
		SessionMgr:    sessionMgr,
		ErrLog:        errLog,
		AuditLog:      audit,
		GoogleEnabled: googleEnabled,
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Template-data                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

type loginFormData struct {
	viewdata.BaseVM
	Error         string
	LoginID       string // What the user typed
	Name          string
	ReturnURL     string
	PasswordRules string
	GoogleEnabled bool
	AllowTrust    bool
}

// errorMessages maps the ?error= codes used by redirects (mostly from the
// Google callback) to what the form shows.
var errorMessages = map[string]string{
	"google_not_configured": "Google sign-in is not available.",
	"google_denied":         "Google sign-in was cancelled.",
	"invalid_state":         "Your sign-in attempt expired. Please try again.",
	"invalid_code":          "Google did not return an authorization code.",
	"token_exchange":        "Google sign-in failed. Please try again.",
	"user_info":             "Could not read your Google profile.",
	"account_disabled":      "Your account is currently disabled.",
	"email_unverified":      "Your Google email address is not verified.",
	"account_conflict":      "An account with this email already exists and cannot be linked to Google. Sign in with your login ID instead.",
	"session":               "Could not start your session. Please try again.",
	"internal":              "A server error occurred.",
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /login                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	ret := query.Get(r, "return")

	if _, ok := auth.CurrentUser(r); ok {
		http.Redirect(w, r, urlutil.SafeReturn(ret, "", "/"), http.StatusSeeOther)
		return
	}

	templates.Render(w, r, "login", loginFormData{
		BaseVM:        viewdata.NewBaseVM(r, "Sign in", "/"),
		Error:         errorMessages[query.Get(r, "error")],
		ReturnURL:     ret,
		PasswordRules: authutil.PasswordRules,
		GoogleEnabled: h.GoogleEnabled,
		AllowTrust:    h.AllowTrust,
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /login                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleLoginPost signs a user in by login id. Unknown login ids get an
// account on the spot: a password account when a password was entered,
// a trust account otherwise (only when AllowTrust is set).
func (h *Handler) HandleLoginPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/login")
		return
	}

	loginID := strings.TrimSpace(r.FormValue("login_id"))
	name := strings.TrimSpace(r.FormValue("name"))
	password := r.FormValue("password")
	ret := strings.TrimSpace(r.FormValue("return"))

	if loginID == "" {
		h.renderFormWithError(w, r, "Please enter your login ID.", loginID, name)
		return
	}

	if h.Limiter != nil {
		if ok, reason := h.Limiter.Check(r, loginID); !ok {
			h.Log.Info("sign-in throttled",
				zap.String("login_id", loginID),
				zap.String("ip", ratelimit.ClientIP(r)))
			w.WriteHeader(http.StatusTooManyRequests)
			h.renderFormWithError(w, r, reason, loginID, name)
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByLoginID(ctx, loginID)
	switch {
	case errors.Is(err, userstore.ErrNotFound):
		h.register(w, r, loginID, name, password, ret)
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "DB find user", err, "A server error occurred.", "/login")
		return
	}

	/*── check status: disabled users cannot log in ────────────────────────*/

	if u.Status == "disabled" {
		h.AuditLog.LoginFailed(ctx, r, audit.EventLoginFailedUserDisabled, u.ID, loginID, "user disabled")
		h.renderFormWithError(w, r, "Your account is currently disabled.", loginID, name)
		return
	}

	/*── route to appropriate auth flow ─────────────────────────────────────*/

	switch u.AuthMethod {
	case "trust":
		if !h.AllowTrust {
			h.AuditLog.LoginFailed(ctx, r, audit.EventLoginFailedTrustDisabled, u.ID, loginID, "trust sign-in disabled")
			h.renderFormWithError(w, r, "Password-less sign-in is turned off for this site, and this account has no password.", loginID, name)
			return
		}
		h.createSessionAndRedirect(w, r, u, ret)

	case "password":
		if password == "" {
			h.renderFormWithError(w, r, "Please enter your password.", loginID, name)
			return
		}
		if !authutil.CheckPassword(password, u.PasswordHash) {
			h.AuditLog.LoginFailed(ctx, r, audit.EventLoginFailedWrongPassword, u.ID, loginID, "wrong password")
			h.renderFormWithError(w, r, "Incorrect password.", loginID, name)
			return
		}
		h.createSessionAndRedirect(w, r, u, ret)

	case "google":
		if !h.GoogleEnabled {
			h.renderFormWithError(w, r, "This account uses Google sign-in, which is not available.", loginID, name)
			return
		}
		redirectURL := "/auth/google"
		if ret != "" {
			redirectURL += "?return=" + url.QueryEscape(ret)
		}
		http.Redirect(w, r, redirectURL, http.StatusSeeOther)

	default:
		h.renderFormWithError(w, r, "Unknown authentication method.", loginID, name)
	}
}

// register creates the account for a first sign-in.
func (h *Handler) register(w http.ResponseWriter, r *http.Request, loginID, name, password, ret string) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if password == "" && !h.AllowTrust {
		h.renderFormWithError(w, r, "Please choose a password to create your account.", loginID, name)
		return
	}
	if password == "" {
		u, created, err := h.Users.FindOrCreateTrust(ctx, loginID, name)
		if err != nil {
			h.ErrLog.LogServerError(w, r, "create trust user", err, "A server error occurred.", "/login")
			return
		}
		if created {
			h.AuditLog.UserCreated(ctx, r, u.ID, "trust")
		}
		h.createSessionAndRedirect(w, r, u, ret)
		return
	}

	if err := authutil.ValidatePassword(password); err != nil {
		h.renderFormWithError(w, r, err.Error()+".", loginID, name)
		return
	}
	hash, err := authutil.HashPassword(password)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "hash password", err, "A server error occurred.", "/login")
		return
	}

	u, err := h.Users.Create(ctx, models.User{
		LoginID:      loginID,
		Name:         name,
		AuthMethod:   "password",
		PasswordHash: hash,
	})
	if errors.Is(err, userstore.ErrDuplicateLoginID) {
		h.renderFormWithError(w, r, "That login ID was just taken. Please sign in again.", loginID, name)
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create password user", err, "A server error occurred.", "/login")
		return
	}
	h.AuditLog.UserCreated(ctx, r, u.ID, "password")
	h.createSessionAndRedirect(w, r, &u, ret)
}

// createSessionAndRedirect creates an authenticated session and redirects to the destination.
func (h *Handler) createSessionAndRedirect(w http.ResponseWriter, r *http.Request, u *models.User, returnURL string) {
	if err := h.SessionMgr.SignIn(w, r, u.ID); err != nil {
		h.Log.Error("save session failed", zap.Error(err), zap.String("login_id", u.LoginID))
		http.Redirect(w, r, "/login?error=session", http.StatusSeeOther)
		return
	}

	if h.Limiter != nil {
		h.Limiter.ResetLoginID(u.LoginID)
	}
	h.AuditLog.LoginSuccess(r.Context(), r, u.ID, u.AuthMethod, u.LoginID)
	h.Log.Info("user signed in",
		zap.String("user_id", u.ID),
		zap.String("login_id", u.LoginID),
		zap.String("auth_method", u.AuthMethod))

	http.Redirect(w, r, urlutil.SafeReturn(returnURL, "", "/"), http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| helper: render the form with an error                                       |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) renderFormWithError(w http.ResponseWriter, r *http.Request, msg, loginID, name string) {
	// From POST, "return" will be in the form; from GET, we might rely on the query.
	ret := strings.TrimSpace(r.FormValue("return"))
	if ret == "" {
		ret = query.Get(r, "return")
	}

	templates.Render(w, r, "login", loginFormData{
		BaseVM:        viewdata.NewBaseVM(r, "Sign in", "/"),
		Error:         msg,
		LoginID:       loginID,
		Name:          name,
		ReturnURL:     ret,
		PasswordRules: authutil.PasswordRules,
		GoogleEnabled: h.GoogleEnabled,
		AllowTrust:    h.AllowTrust,
	})
}
