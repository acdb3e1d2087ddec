// internal/app/system/auth/auth.go
package auth

// Terminology: User Identifiers
//   - UserID / userID / user_id: the UUID primary key of a users row
//   - LoginID / loginID / login_id: the human-readable string users type to sign in

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Session constants                                                           |
*─────────────────────────────────────────────────────────────────────────────*/

const (
	DefaultSessionName = "retroboard-session"

	isAuthKey = "is_authenticated"
	userIDKey = "user_id"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Current-User helper                                                         |
*─────────────────────────────────────────────────────────────────────────────*/

// SessionUser is the signed-in user injected into r.Context().
// It is rebuilt from the users table on every request.
type SessionUser struct {
	ID      string
	Name    string
	LoginID string
	Email   string
	Image   string
}

// UserFetcher loads a signed-in user by id. It returns (nil, nil) when
// the user no longer exists or has been disabled.
type UserFetcher interface {
	FetchUser(ctx context.Context, userID string) (*SessionUser, error)
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the user & “found?” flag.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok && u != nil
}

// WithTestUser injects u into the request context the way LoadSessionUser
// does. Used by handler tests.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}

/*─────────────────────────────────────────────────────────────────────────────*
| SessionManager                                                              |
*─────────────────────────────────────────────────────────────────────────────*/

// SessionManager owns the cookie store and the middleware that reads it.
type SessionManager struct {
	store   *sessions.CookieStore
	name    string
	fetcher UserFetcher
	logger  *zap.Logger
}

// NewSessionManager builds the cookie store. The secure flag controls the
// Secure attribute and SameSite mode: Lax over plain http in dev, None
// with Secure in prod.
func NewSessionManager(sessionKey, name, domain string, maxAge time.Duration, secure bool, logger *zap.Logger) (*SessionManager, error) {
	if sessionKey == "" {
		return nil, fmt.Errorf("session key is empty; provide ≥32 random chars")
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}
	if name == "" {
		name = DefaultSessionName
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	opts := &sessions.Options{
		Domain:   domain,
		Path:     "/",
		MaxAge:   int(maxAge / time.Second),
		Secure:   secure,
		HttpOnly: true,
	}
	if secure {
		opts.SameSite = http.SameSiteNoneMode
	} else {
		opts.SameSite = http.SameSiteLaxMode
	}
	store.Options = opts

	logger.Info("session store initialized",
		zap.String("name", name),
		zap.Bool("secure", secure),
		zap.String("domain", domain))

	return &SessionManager{store: store, name: name, logger: logger}, nil
}

// SetUserFetcher wires the lookup used by LoadSessionUser.
func (sm *SessionManager) SetUserFetcher(f UserFetcher) { sm.fetcher = f }

// Store exposes the cookie store for features that sign cookies of their own.
func (sm *SessionManager) Store() *sessions.CookieStore { return sm.store }

// Name is the session cookie name.
func (sm *SessionManager) Name() string { return sm.name }

// GetSession returns the request's session. A cookie that no longer
// decodes (rotated key, tampering) yields a fresh session rather than an
// error.
func (sm *SessionManager) GetSession(r *http.Request) (*sessions.Session, error) {
	sess, err := sm.store.Get(r, sm.name)
	if err != nil {
		var cookieErr securecookie.Error
		if errors.As(err, &cookieErr) && cookieErr.IsDecode() {
			sm.logger.Debug("discarding undecodable session cookie", zap.Error(err))
			return sess, nil
		}
		return sess, err
	}
	return sess, nil
}

// SignIn marks the session authenticated for userID and saves it.
func (sm *SessionManager) SignIn(w http.ResponseWriter, r *http.Request, userID string) error {
	sess, err := sm.GetSession(r)
	if err != nil {
		return err
	}
	sess.Values[isAuthKey] = true
	sess.Values[userIDKey] = userID
	return sess.Save(r, w)
}

// SignOut clears and expires the session cookie.
func (sm *SessionManager) SignOut(w http.ResponseWriter, r *http.Request) error {
	sess, err := sm.GetSession(r)
	if err != nil {
		return err
	}
	delete(sess.Values, isAuthKey)
	delete(sess.Values, userIDKey)
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

// LoadSessionUser injects the user into context if they are signed in and
// still active.
func (sm *SessionManager) LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := sm.GetSession(r)
		if err != nil || sm.fetcher == nil {
			next.ServeHTTP(w, r)
			return
		}

		isAuth, _ := sess.Values[isAuthKey].(bool)
		userID, _ := sess.Values[userIDKey].(string)
		if !isAuth || userID == "" {
			next.ServeHTTP(w, r)
			return
		}

		u, err := sm.fetcher.FetchUser(r.Context(), userID)
		if err != nil {
			sm.logger.Error("load session user", zap.String("user_id", userID), zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}
		if u != nil {
			r = withUser(r, u)
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSignedIn ensures there is a user in context (set by LoadSessionUser).
// If not signed in:
//   - HTMX: sends HX-Redirect to /login?return=...
//   - HTML: 303 redirect to /login?return=...
//   - API:  401 Unauthorized with a plain error body.
func (sm *SessionManager) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); ok {
			next.ServeHTTP(w, r)
			return
		}

		ret := url.QueryEscape(currentURI(r))

		if r.Header.Get("HX-Request") == "true" {
			w.Header().Set("HX-Redirect", "/login?return="+ret)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		if wantsHTML(r) {
			http.Redirect(w, r, "/login?return="+ret, http.StatusSeeOther)
			return
		}

		http.Error(w, "unauthorized", http.StatusUnauthorized)
	})
}

// helpers

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

func wantsHTML(r *http.Request) bool {
	if r.Header.Get("HX-Request") == "true" {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

func currentURI(r *http.Request) string {
	u := *r.URL
	return u.RequestURI()
}
