// internal/app/features/authgoogle/handler.go
package authgoogle

// Terminology: User Identifiers
//   - UserID / userID / user_id: the UUID primary key of a users row
//   - LoginID / loginID / login_id: the human-readable string users type to sign in

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/retroboard/internal/app/store/audit"
	userstore "github.com/dalemusser/retroboard/internal/app/store/users"
	"github.com/dalemusser/retroboard/internal/app/system/auditlog"
	"github.com/dalemusser/retroboard/internal/app/system/auth"
	"github.com/dalemusser/retroboard/internal/app/system/timeouts"
	"github.com/dalemusser/retroboard/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"github.com/gorilla/securecookie"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"gorm.io/gorm"
)

const (
	stateCookieName = "retroboard_oauth_state"
	stateTTL        = 10 * time.Minute

	defaultUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
)

// Handler handles Google OAuth authentication.
type Handler struct {
	Users      *userstore.Store
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	AuditLog   *auditlog.Logger

	// OAuth configuration
	ClientID     string
	ClientSecret string
	RedirectURL  string // e.g., "https://retro.example.com/auth/google/callback"

	// Endpoint and UserInfoURL default to Google's; tests point them at a
	// local server.
	Endpoint    oauth2.Endpoint
	UserInfoURL string

	stateCodec *securecookie.SecureCookie
	secure     bool
}

// NewHandler creates a new Google OAuth handler. stateKey signs the state
// cookie; the session key is a fine choice.
func NewHandler(
	db *gorm.DB,
	sessionMgr *auth.SessionManager,
	audit *auditlog.Logger,
	clientID, clientSecret, baseURL string,
	stateKey []byte,
	logger *zap.Logger,
) *Handler {
	codec := securecookie.New(stateKey, nil)
	codec.MaxAge(int(stateTTL / time.Second))

	secure := strings.HasPrefix(baseURL, "https://")
	if opts := sessionMgr.Store().Options; opts != nil && opts.Secure {
		secure = true
	}

	return &Handler{
		Users:        userstore.New(db),
		Log:          logger,
		SessionMgr:   sessionMgr,
		AuditLog:     audit,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  strings.TrimRight(baseURL, "/") + "/auth/google/callback",
		Endpoint:     google.Endpoint,
		UserInfoURL:  defaultUserInfoURL,
		stateCodec:   codec,
		secure:       secure,
	}
}

// oauth2Config returns the Google OAuth2 configuration.
func (h *Handler) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.ClientID,
		ClientSecret: h.ClientSecret,
		RedirectURL:  h.RedirectURL,
		Scopes: []string{
			"openid",
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: h.Endpoint,
	}
}

// IsConfigured returns true if Google OAuth is configured.
func (h *Handler) IsConfigured() bool {
	return h.ClientID != "" && h.ClientSecret != ""
}

// pendingState is what the state cookie carries between the redirect to
// Google and the callback.
type pendingState struct {
	State  string `json:"s"`
	Return string `json:"r"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /auth/google                                                             |
| Initiates the Google OAuth flow by redirecting to Google's consent screen.   |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	if !h.IsConfigured() {
		h.Log.Warn("Google OAuth not configured")
		http.Redirect(w, r, "/login?error=google_not_configured", http.StatusSeeOther)
		return
	}

	state, err := generateState()
	if err != nil {
		h.Log.Error("failed to generate OAuth state", zap.Error(err))
		http.Redirect(w, r, "/login?error=internal", http.StatusSeeOther)
		return
	}

	returnURL := query.Get(r, "return")

	encoded, err := h.stateCodec.Encode(stateCookieName, pendingState{State: state, Return: returnURL})
	if err != nil {
		h.Log.Error("failed to encode OAuth state", zap.Error(err))
		http.Redirect(w, r, "/login?error=internal", http.StatusSeeOther)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    encoded,
		Path:     "/auth/google",
		MaxAge:   int(stateTTL / time.Second),
		Secure:   h.secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	url := h.oauth2Config().AuthCodeURL(state)

	h.Log.Debug("initiating Google OAuth flow",
		zap.String("redirect_url", url),
		zap.String("return_url", returnURL))

	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /auth/google/callback                                                    |
| Handles the OAuth callback from Google, exchanges code for tokens,           |
| fetches user info, finds or creates the user, and creates session.           |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Check for errors from Google
	if errParam := r.URL.Query().Get("error"); errParam != "" {
		errDesc := r.URL.Query().Get("error_description")
		h.Log.Warn("Google OAuth error",
			zap.String("error", errParam),
			zap.String("description", errDesc))
		h.AuditLog.LoginFailed(ctx, r, audit.EventLoginFailedOAuth, "", "", "google: "+errParam)
		h.redirectToLogin(w, r, "google_denied")
		return
	}

	pending, ok := h.readState(w, r)
	if !ok {
		h.Log.Warn("invalid or expired OAuth state")
		h.AuditLog.LoginFailed(ctx, r, audit.EventLoginFailedOAuth, "", "", "invalid state")
		h.redirectToLogin(w, r, "invalid_state")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		h.Log.Warn("missing OAuth code parameter")
		h.redirectToLogin(w, r, "invalid_code")
		return
	}

	exCtx, cancel := context.WithTimeout(ctx, timeouts.Medium())
	defer cancel()

	token, err := h.oauth2Config().Exchange(exCtx, code)
	if err != nil {
		h.Log.Error("failed to exchange OAuth code", zap.Error(err))
		h.AuditLog.LoginFailed(ctx, r, audit.EventLoginFailedOAuth, "", "", "token exchange failed")
		h.redirectToLogin(w, r, "token_exchange")
		return
	}

	googleUser, err := h.fetchGoogleUserInfo(exCtx, token)
	if err != nil {
		h.Log.Error("failed to fetch Google user info", zap.Error(err))
		h.AuditLog.LoginFailed(ctx, r, audit.EventLoginFailedOAuth, "", "", "user info failed")
		h.redirectToLogin(w, r, "user_info")
		return
	}

	h.Log.Debug("Google user info fetched",
		zap.String("google_id", googleUser.ID),
		zap.String("email", googleUser.Email),
		zap.String("name", googleUser.Name))

	dbCtx, dbCancel := context.WithTimeout(ctx, timeouts.Short())
	defer dbCancel()

	u, created, err := h.Users.UpsertGoogle(dbCtx, userstore.GoogleProfile{
		Subject:       googleUser.ID,
		Email:         googleUser.Email,
		EmailVerified: googleUser.EmailVerified,
		Name:          googleUser.Name,
		Picture:       googleUser.Picture,
	})
	switch {
	case errors.Is(err, userstore.ErrEmailNotVerified):
		h.Log.Info("Google OAuth: email not verified", zap.String("email", googleUser.Email))
		h.AuditLog.LoginFailed(ctx, r, audit.EventLoginFailedOAuth, "", googleUser.Email, "email not verified")
		h.redirectToLogin(w, r, "email_unverified")
		return
	case errors.Is(err, userstore.ErrLinkRefused):
		h.Log.Warn("Google OAuth: refused to link existing account", zap.String("email", googleUser.Email))
		h.AuditLog.LoginFailed(ctx, r, audit.EventLoginFailedOAuth, "", googleUser.Email, "account link refused")
		h.redirectToLogin(w, r, "account_conflict")
		return
	case err != nil:
		h.Log.Error("failed to upsert Google user", zap.Error(err))
		h.redirectToLogin(w, r, "internal")
		return
	}
	if created {
		h.AuditLog.UserCreated(ctx, r, u.ID, "google")
	}

	if u.Status == "disabled" {
		h.Log.Info("Google OAuth: user disabled",
			zap.String("user_id", u.ID),
			zap.String("email", googleUser.Email))
		h.AuditLog.LoginFailed(ctx, r, audit.EventLoginFailedUserDisabled, u.ID, u.LoginID, "user disabled")
		h.redirectToLogin(w, r, "account_disabled")
		return
	}

	h.createSessionAndRedirect(w, r, u, pending.Return)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Google user info                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

// googleUserInfo represents user info returned from Google.
type googleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// fetchGoogleUserInfo retrieves user information from Google's userinfo endpoint.
func (h *Handler) fetchGoogleUserInfo(ctx context.Context, token *oauth2.Token) (*googleUserInfo, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))

	resp, err := client.Get(h.UserInfoURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}
	if info.ID == "" || info.Email == "" {
		return nil, fmt.Errorf("user info is missing id or email")
	}

	return &info, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| State cookie                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

// readState decodes the state cookie, checks it against the state query
// parameter and expires the cookie. It reports false for any mismatch.
func (h *Handler) readState(w http.ResponseWriter, r *http.Request) (pendingState, bool) {
	var p pendingState

	c, err := r.Cookie(stateCookieName)
	if err != nil {
		return p, false
	}
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    "",
		Path:     "/auth/google",
		MaxAge:   -1,
		Secure:   h.secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	if err := h.stateCodec.Decode(stateCookieName, c.Value, &p); err != nil {
		h.Log.Debug("state cookie did not decode", zap.Error(err))
		return p, false
	}

	got := r.URL.Query().Get("state")
	if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(p.State)) != 1 {
		return p, false
	}
	return p, true
}

/*─────────────────────────────────────────────────────────────────────────────*
| Session creation                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

// createSessionAndRedirect creates an authenticated session and redirects to the destination.
func (h *Handler) createSessionAndRedirect(w http.ResponseWriter, r *http.Request, u *models.User, returnURL string) {
	if err := h.SessionMgr.SignIn(w, r, u.ID); err != nil {
		h.Log.Error("save session failed", zap.Error(err), zap.String("user_id", u.ID))
		h.redirectToLogin(w, r, "session")
		return
	}

	h.AuditLog.LoginSuccess(r.Context(), r, u.ID, "google", u.LoginID)

	h.Log.Info("user logged in via Google OAuth",
		zap.String("user_id", u.ID),
		zap.String("login_id", u.LoginID))

	http.Redirect(w, r, urlutil.SafeReturn(returnURL, "", "/"), http.StatusSeeOther)
}

func (h *Handler) redirectToLogin(w http.ResponseWriter, r *http.Request, errorCode string) {
	http.Redirect(w, r, "/login?error="+errorCode, http.StatusSeeOther)
}

// generateState creates a cryptographically secure random state string.
func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
