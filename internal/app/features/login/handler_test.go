package login_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	uierrors "github.com/dalemusser/retroboard/internal/app/features/errors"
	"github.com/dalemusser/retroboard/internal/app/features/login"
	"github.com/dalemusser/retroboard/internal/app/store/audit"
	userstore "github.com/dalemusser/retroboard/internal/app/store/users"
	"github.com/dalemusser/retroboard/internal/app/system/auditlog"
	"github.com/dalemusser/retroboard/internal/app/system/auth"
	"github.com/dalemusser/retroboard/internal/app/system/authutil"
	"github.com/dalemusser/retroboard/internal/app/system/ratelimit"
	"github.com/dalemusser/retroboard/internal/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type testEnv struct {
	handler  *login.Handler
	fixtures *testutil.Fixtures
	users    *userstore.Store
	logs     *observer.ObservedLogs
	cookie   string
}

func newTestEnv(t *testing.T, googleEnabled bool) testEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	core, logs := observer.New(zap.InfoLevel)
	auditLog := auditlog.New(nil, zap.New(core), auditlog.Config{Auth: "log"})

	sessionMgr := testutil.NewSessionManager(t)
	handler := login.NewHandler(db, sessionMgr, uierrors.NewErrorLogger(logger), auditLog, googleEnabled, logger)
	handler.AllowTrust = true

	return testEnv{
		handler:  handler,
		fixtures: testutil.NewFixtures(t, db),
		users:    userstore.New(db),
		logs:     logs,
		cookie:   sessionMgr.Name(),
	}
}

func postLogin(h *login.Handler, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	// Error paths re-render the form, which panics without initialized templates
	func() {
		defer func() { recover() }()
		h.HandleLoginPost(rec, req)
	}()
	return rec
}

func hasSessionCookie(rec *httptest.ResponseRecorder, name string) bool {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name && c.MaxAge >= 0 {
			return true
		}
	}
	return false
}

func countEvents(logs *observer.ObservedLogs, eventType string) int {
	n := 0
	for _, e := range logs.All() {
		if v, ok := e.ContextMap()["event_type"]; ok && v == eventType {
			n++
		}
	}
	return n
}

func TestHandleLoginPost_ExistingTrustUser(t *testing.T) {
	env := newTestEnv(t, false)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	env.fixtures.CreateUser(ctx, "Olivia", "olivia")

	rec := postLogin(env.handler, url.Values{"login_id": {"Olivia"}})

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/" {
		t.Errorf("Location: got %q, want %q", loc, "/")
	}
	if !hasSessionCookie(rec, env.cookie) {
		t.Error("expected session cookie to be set")
	}
	if countEvents(env.logs, audit.EventLoginSuccess) != 1 {
		t.Error("expected a login_success audit event")
	}
}

func TestHandleLoginPost_WithReturnURL(t *testing.T) {
	env := newTestEnv(t, false)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	env.fixtures.CreateUser(ctx, "Olivia", "olivia")

	rec := postLogin(env.handler, url.Values{
		"login_id": {"olivia"},
		"return":   {"/rooms/abc"},
	})

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/rooms/abc" {
		t.Errorf("Location: got %q, want %q", loc, "/rooms/abc")
	}
}

func TestHandleLoginPost_RejectsOffsiteReturn(t *testing.T) {
	env := newTestEnv(t, false)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	env.fixtures.CreateUser(ctx, "Olivia", "olivia")

	rec := postLogin(env.handler, url.Values{
		"login_id": {"olivia"},
		"return":   {"https://evil.example/steal"},
	})

	if loc := rec.Header().Get("Location"); strings.Contains(loc, "evil.example") {
		t.Errorf("redirected off-site: %q", loc)
	}
}

func TestHandleLoginPost_CreatesTrustUser(t *testing.T) {
	env := newTestEnv(t, false)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	rec := postLogin(env.handler, url.Values{
		"login_id": {"newbie"},
		"name":     {"New Person"},
	})

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}

	u, err := env.users.GetByLoginID(ctx, "newbie")
	if err != nil {
		t.Fatalf("user was not created: %v", err)
	}
	if u.Name != "New Person" || u.AuthMethod != "trust" {
		t.Errorf("unexpected user: name=%q auth=%q", u.Name, u.AuthMethod)
	}
	if countEvents(env.logs, audit.EventUserCreated) != 1 {
		t.Error("expected a user_created audit event")
	}
}

func TestHandleLoginPost_CreatesPasswordUser(t *testing.T) {
	env := newTestEnv(t, false)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	rec := postLogin(env.handler, url.Values{
		"login_id": {"pat"},
		"password": {"correct-horse"},
	})

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}

	u, err := env.users.GetByLoginID(ctx, "pat")
	if err != nil {
		t.Fatalf("user was not created: %v", err)
	}
	if u.AuthMethod != "password" {
		t.Errorf("AuthMethod: got %q, want password", u.AuthMethod)
	}
	if !authutil.CheckPassword("correct-horse", u.PasswordHash) {
		t.Error("stored hash does not match the password")
	}
}

func TestHandleLoginPost_WeakPasswordNotCreated(t *testing.T) {
	env := newTestEnv(t, false)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	rec := postLogin(env.handler, url.Values{
		"login_id": {"pat"},
		"password": {"abc"},
	})

	if rec.Header().Get("Location") != "" {
		t.Errorf("unexpected redirect to %q", rec.Header().Get("Location"))
	}
	if _, err := env.users.GetByLoginID(ctx, "pat"); err == nil {
		t.Error("user should not have been created with a short password")
	}
}

func TestHandleLoginPost_PasswordUser(t *testing.T) {
	env := newTestEnv(t, false)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	env.fixtures.CreatePasswordUser(ctx, "Pat", "pat", "correct-horse")

	t.Run("wrong password", func(t *testing.T) {
		rec := postLogin(env.handler, url.Values{"login_id": {"pat"}, "password": {"nope-nope"}})
		if hasSessionCookie(rec, env.cookie) {
			t.Error("session should not be created for a wrong password")
		}
		if countEvents(env.logs, audit.EventLoginFailedWrongPassword) != 1 {
			t.Error("expected a login_failed_wrong_password audit event")
		}
	})

	t.Run("missing password", func(t *testing.T) {
		rec := postLogin(env.handler, url.Values{"login_id": {"pat"}})
		if hasSessionCookie(rec, env.cookie) {
			t.Error("session should not be created without a password")
		}
	})

	t.Run("correct password", func(t *testing.T) {
		rec := postLogin(env.handler, url.Values{"login_id": {"pat"}, "password": {"correct-horse"}})
		if rec.Code != http.StatusSeeOther {
			t.Fatalf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
		}
		if !hasSessionCookie(rec, env.cookie) {
			t.Error("expected session cookie to be set")
		}
	})
}

func TestHandleLoginPost_TrustDisabled(t *testing.T) {
	env := newTestEnv(t, false)
	env.handler.AllowTrust = false
	ctx, cancel := testutil.TestContext()
	defer cancel()

	env.fixtures.CreateUser(ctx, "Olivia", "olivia")

	t.Run("existing trust account", func(t *testing.T) {
		rec := postLogin(env.handler, url.Values{"login_id": {"olivia"}})
		if hasSessionCookie(rec, env.cookie) {
			t.Error("trust account signed in while trust sign-in is off")
		}
		if rec.Header().Get("Location") != "" {
			t.Errorf("unexpected redirect to %q", rec.Header().Get("Location"))
		}
		if countEvents(env.logs, audit.EventLoginFailedTrustDisabled) != 1 {
			t.Error("expected a login_failed_trust_disabled audit event")
		}
		if countEvents(env.logs, audit.EventLoginSuccess) != 0 {
			t.Error("unexpected login_success audit event")
		}
	})

	t.Run("sign-up without password", func(t *testing.T) {
		rec := postLogin(env.handler, url.Values{"login_id": {"newbie"}})
		if hasSessionCookie(rec, env.cookie) {
			t.Error("session created for a password-less sign-up")
		}
		if _, err := env.users.GetByLoginID(ctx, "newbie"); err == nil {
			t.Error("trust user should not have been created")
		}
	})

	t.Run("sign-up with password", func(t *testing.T) {
		rec := postLogin(env.handler, url.Values{"login_id": {"pat"}, "password": {"correct-horse"}})
		if rec.Code != http.StatusSeeOther {
			t.Fatalf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
		}
		u, err := env.users.GetByLoginID(ctx, "pat")
		if err != nil {
			t.Fatalf("password user was not created: %v", err)
		}
		if u.AuthMethod != "password" {
			t.Errorf("AuthMethod: got %q, want password", u.AuthMethod)
		}
	})
}

func TestHandleLoginPost_DisabledUser(t *testing.T) {
	env := newTestEnv(t, false)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	env.fixtures.CreateDisabledUser(ctx, "Dee", "dee")

	rec := postLogin(env.handler, url.Values{"login_id": {"dee"}})

	if hasSessionCookie(rec, env.cookie) {
		t.Error("disabled user should not get a session")
	}
	if countEvents(env.logs, audit.EventLoginFailedUserDisabled) != 1 {
		t.Error("expected a login_failed_user_disabled audit event")
	}
}

func TestHandleLoginPost_GoogleUserRedirects(t *testing.T) {
	env := newTestEnv(t, true)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, _, err := env.users.UpsertGoogle(ctx, userstore.GoogleProfile{
		Subject:       "g-123",
		Email:         "gina@example.com",
		EmailVerified: true,
		Name:          "Gina",
	}); err != nil {
		t.Fatalf("UpsertGoogle: %v", err)
	}

	rec := postLogin(env.handler, url.Values{
		"login_id": {"gina@example.com"},
		"return":   {"/rooms/abc"},
	})

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}
	want := "/auth/google?return=" + url.QueryEscape("/rooms/abc")
	if loc := rec.Header().Get("Location"); loc != want {
		t.Errorf("Location: got %q, want %q", loc, want)
	}
}

func TestHandleLoginPost_EmptyLoginID(t *testing.T) {
	env := newTestEnv(t, false)

	rec := postLogin(env.handler, url.Values{"login_id": {"   "}})

	if rec.Header().Get("Location") != "" {
		t.Errorf("unexpected redirect to %q", rec.Header().Get("Location"))
	}
}

func TestServeLogin_SignedInRedirects(t *testing.T) {
	env := newTestEnv(t, false)

	req := httptest.NewRequest("GET", "/login?return=/rooms/abc", nil)
	req = auth.WithTestUser(req, &auth.SessionUser{ID: "u1", Name: "Olivia"})
	rec := httptest.NewRecorder()

	env.handler.ServeLogin(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/rooms/abc" {
		t.Errorf("Location: got %q, want %q", loc, "/rooms/abc")
	}
}

func TestHandleLoginPost_Throttled(t *testing.T) {
	env := newTestEnv(t, false)
	env.handler.Limiter = ratelimit.NewLoginLimiterWithConfig(100, time.Minute, 2, time.Minute)
	t.Cleanup(env.handler.Limiter.Stop)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	env.fixtures.CreatePasswordUser(ctx, "Pat", "pat", "correct-horse")

	for i := 0; i < 2; i++ {
		postLogin(env.handler, url.Values{"login_id": {"pat"}, "password": {"nope-nope"}})
	}

	rec := postLogin(env.handler, url.Values{"login_id": {"pat"}, "password": {"correct-horse"}})
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("expected status %d, got %d", http.StatusTooManyRequests, rec.Code)
	}
	if hasSessionCookie(rec, env.cookie) {
		t.Error("throttled sign-in should not get a session")
	}

	// Other login ids are unaffected.
	env.fixtures.CreateUser(ctx, "Olivia", "olivia")
	rec = postLogin(env.handler, url.Values{"login_id": {"olivia"}})
	if rec.Code != http.StatusSeeOther {
		t.Errorf("expected status %d for another login id, got %d", http.StatusSeeOther, rec.Code)
	}
}
