package rooms_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	uierrors "github.com/dalemusser/retroboard/internal/app/features/errors"
	"github.com/dalemusser/retroboard/internal/app/features/rooms"
	"github.com/dalemusser/retroboard/internal/app/service/roomservice"
	"github.com/dalemusser/retroboard/internal/domain/models"
	"github.com/dalemusser/retroboard/internal/testutil"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type env struct {
	h  *rooms.Handler
	db *gorm.DB
	fx *testutil.Fixtures
}

func newEnv(t *testing.T) env {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	svc := roomservice.New(db, nil, logger)
	return env{
		h:  rooms.NewHandler(svc, uierrors.NewErrorLogger(logger), logger),
		db: db,
		fx: testutil.NewFixtures(t, db),
	}
}

func form(u models.User, target string, values url.Values) *http.Request {
	req := testutil.NewFormRequest(target, values.Encode())
	return testutil.WithUser(req, u)
}

func TestServeBoard_MissingRoomRedirectsHome(t *testing.T) {
	e := newEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/rooms/missing", nil)
	req = testutil.WithChiURLParam(req, "id", "missing")
	rec := testutil.NewRecorder()

	e.h.ServeBoard(rec, req)

	rec.AssertRedirect(t, "/")
}

func TestServeBoard_ExistingRoom(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	owner := e.fx.CreateUser(ctx, "Olivia", "olivia")
	room := e.fx.CreateRoom(ctx, "Retro", owner, "Bugs")

	req := httptest.NewRequest(http.MethodGet, "/rooms/"+room.ID, nil)
	req = testutil.WithChiURLParam(req, "id", room.ID)
	rec := testutil.NewRecorder()

	// Template rendering may panic without an initialized engine.
	func() {
		defer func() { _ = recover() }()
		e.h.ServeBoard(rec, req)
	}()

	if loc := rec.Header().Get("Location"); loc != "" {
		t.Errorf("existing room should not redirect, got %q", loc)
	}
}

func TestHandleCreate_RedirectsToBoard(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	u := e.fx.CreateUser(ctx, "Olivia", "olivia")

	rec := testutil.NewRecorder()
	e.h.HandleCreate(rec, form(u, "/rooms", url.Values{
		"name":       {"Sprint 7"},
		"categories": {"Good\r\n\r\nBad\n"},
	}))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d, want 303", rec.Code)
	}

	var room models.Room
	if err := e.db.Preload("Categories").Where("name = ?", "Sprint 7").First(&room).Error; err != nil {
		t.Fatalf("room not created: %v", err)
	}
	if loc := rec.Header().Get("Location"); loc != "/rooms/"+room.ID {
		t.Errorf("Location: got %q", loc)
	}
	if room.OwnerID != u.ID {
		t.Errorf("OwnerID: got %q, want %q", room.OwnerID, u.ID)
	}
	if len(room.Categories) != 2 {
		t.Errorf("expected 2 categories, got %d", len(room.Categories))
	}
	if n := e.fx.CountMembers(ctx, room.ID); n != 1 {
		t.Errorf("expected creator as member, got %d members", n)
	}
}

func TestHandleCreate_BlankNameRedirectsWithError(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	u := e.fx.CreateUser(ctx, "Olivia", "olivia")

	rec := testutil.NewRecorder()
	e.h.HandleCreate(rec, form(u, "/rooms", url.Values{"name": {"  "}}))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); !strings.HasPrefix(loc, "/?error=") {
		t.Errorf("Location: got %q", loc)
	}
}

func TestHandleJoin(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	owner := e.fx.CreateUser(ctx, "Olivia", "olivia")
	member := e.fx.CreateUser(ctx, "Milo", "milo")
	room := e.fx.CreateRoom(ctx, "Retro", owner)

	rec := testutil.NewRecorder()
	e.h.HandleJoin(rec, form(member, "/rooms/join", url.Values{"code": {room.ID}}))
	rec.AssertRedirect(t, "/rooms/"+room.ID)

	// Joining again just opens the board.
	rec = testutil.NewRecorder()
	e.h.HandleJoin(rec, form(member, "/rooms/join", url.Values{"code": {room.ID}}))
	rec.AssertRedirect(t, "/rooms/"+room.ID)

	if n := e.fx.CountMembers(ctx, room.ID); n != 2 {
		t.Errorf("expected 2 members, got %d", n)
	}
}

func TestHandleJoin_UnknownCode(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	u := e.fx.CreateUser(ctx, "Milo", "milo")

	rec := testutil.NewRecorder()
	e.h.HandleJoin(rec, form(u, "/rooms/join", url.Values{"code": {"nope"}}))

	rec.AssertRedirect(t, "/?error="+url.QueryEscape("Room not found"))
}

func TestHandleLeave(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	owner := e.fx.CreateUser(ctx, "Olivia", "olivia")
	member := e.fx.CreateUser(ctx, "Milo", "milo")
	stranger := e.fx.CreateUser(ctx, "Sam", "sam")
	room := e.fx.CreateRoom(ctx, "Retro", owner)
	e.fx.AddMember(ctx, room, member)

	req := testutil.NewAuthenticatedRequest(http.MethodPost, "/rooms/"+room.ID+"/leave", nil, member)
	req = testutil.WithChiURLParam(req, "id", room.ID)
	rec := testutil.NewRecorder()
	e.h.HandleLeave(rec, req)
	rec.AssertRedirect(t, "/")

	req = testutil.NewAuthenticatedRequest(http.MethodPost, "/rooms/"+room.ID+"/leave", nil, stranger)
	req = testutil.WithChiURLParam(req, "id", room.ID)
	rec = testutil.NewRecorder()
	e.h.HandleLeave(rec, req)
	rec.AssertRedirect(t, "/?error="+url.QueryEscape("You have not joined this room"))

	if n := e.fx.CountMembers(ctx, room.ID); n != 1 {
		t.Errorf("expected only the owner left, got %d members", n)
	}
}

func TestRoutes_MutationsRequireSignIn(t *testing.T) {
	e := newEnv(t)
	router := rooms.Routes(e.h, testutil.NewSessionManager(t))

	req := testutil.NewFormRequest("/join", "code=abc")
	req.Header.Set("Accept", "text/html")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); !strings.HasPrefix(loc, "/login?return=") {
		t.Errorf("Location: got %q", loc)
	}
}
