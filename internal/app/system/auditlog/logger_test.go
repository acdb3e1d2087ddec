package auditlog_test

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/retroboard/internal/app/store/audit"
	"github.com/dalemusser/retroboard/internal/app/system/auditlog"
	"github.com/dalemusser/retroboard/internal/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger_NilLogger(t *testing.T) {
	var logger *auditlog.Logger
	ctx := context.Background()
	req := httptest.NewRequest("GET", "/", nil)

	logger.Log(ctx, audit.Event{EventType: "test"})
	logger.LoginSuccess(ctx, req, "u1", "trust", "olive")
	logger.Logout(ctx, req, "u1")
	logger.RoomEvent(ctx, audit.EventRoomCreated, "u1", "r1", nil)
}

func TestLogger_NilStore_LogsToZap(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := auditlog.New(nil, zap.New(core), auditlog.Config{Auth: "all", Room: "all"})

	logger.RoomEvent(context.Background(), audit.EventCardCreated, "m", "r1", map[string]string{"card_id": "c1"})

	entries := logs.FilterMessage("audit event").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 zap entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["event_type"] != audit.EventCardCreated || fields["room_id"] != "r1" || fields["detail_card_id"] != "c1" {
		t.Errorf("unexpected fields %v", fields)
	}
}

func TestLogger_ConfigOff(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := auditlog.New(nil, zap.New(core), auditlog.Config{Auth: "off", Room: "off"})

	req := httptest.NewRequest("GET", "/", nil)
	logger.LoginSuccess(context.Background(), req, "u1", "trust", "olive")
	logger.RoomEvent(context.Background(), audit.EventRoomDeleted, "u1", "r1", nil)

	if logs.Len() != 0 {
		t.Errorf("expected no output when off, got %d entries", logs.Len())
	}
}

func TestLogger_FailedLoginIsWarn(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := auditlog.New(nil, zap.New(core), auditlog.Config{Auth: "log"})

	req := httptest.NewRequest("POST", "/login", nil)
	logger.LoginFailed(context.Background(), req, audit.EventLoginFailedWrongPassword, "u1", "olive", "bad password")

	entries := logs.All()
	if len(entries) != 1 || entries[0].Level != zapcore.WarnLevel {
		t.Fatalf("expected one warn entry, got %+v", entries)
	}
}

func TestLogger_WithRequest_CarriesOrigin(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := auditlog.New(nil, zap.New(core), auditlog.Config{Room: "log"})

	req := httptest.NewRequest("POST", "/api/trpc/room.createRoom", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	ctx := auditlog.WithRequest(context.Background(), req)

	logger.RoomEvent(ctx, audit.EventRoomCreated, "o", "r1", nil)

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if ip := entries[0].ContextMap()["ip"]; ip != "203.0.113.7" {
		t.Errorf("expected first forwarded address, got %v", ip)
	}
}

func TestLogger_ConfigDB_WritesMongo(t *testing.T) {
	db := testutil.SetupTestMongo(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: "db", Room: "db"})
	logger.RoomEvent(ctx, audit.EventRoomJoined, "m", "r1", nil)

	events, err := store.GetByRoom(ctx, "r1", 10)
	if err != nil {
		t.Fatalf("GetByRoom: %v", err)
	}
	if len(events) != 1 || events[0].ActorID != "m" {
		t.Fatalf("expected one room_joined event by m, got %+v", events)
	}
}

func TestLogger_RoomHistory_WithoutStore(t *testing.T) {
	ctx := context.Background()

	var nilLogger *auditlog.Logger
	if events, err := nilLogger.RoomHistory(ctx, "r1", 10); err != nil || len(events) != 0 {
		t.Errorf("nil logger: got %d events, %v", len(events), err)
	}

	logger := auditlog.New(nil, zap.NewNop(), auditlog.Config{Room: "all"})
	logger.RoomEvent(ctx, audit.EventRoomJoined, "m", "r1", nil)
	if events, err := logger.RoomHistory(ctx, "r1", 10); err != nil || len(events) != 0 {
		t.Errorf("no store: got %d events, %v", len(events), err)
	}
}

func TestLogger_RoomHistory_ReadsMongo(t *testing.T) {
	db := testutil.SetupTestMongo(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Room: "db"})
	logger.RoomEvent(ctx, audit.EventRoomCreated, "o", "r1", nil)
	logger.RoomEvent(ctx, audit.EventRoomJoined, "m", "r1", nil)
	logger.RoomEvent(ctx, audit.EventRoomJoined, "m", "r2", nil)

	events, err := logger.RoomHistory(ctx, "r1", 10)
	if err != nil {
		t.Fatalf("RoomHistory: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events for r1, got %d", len(events))
	}
	for _, e := range events {
		if e.RoomID != "r1" {
			t.Errorf("event from another room: %+v", e)
		}
	}

	logOnly := auditlog.New(store, zap.NewNop(), auditlog.Config{Room: "log"})
	if events, err := logOnly.RoomHistory(ctx, "r1", 10); err != nil || len(events) != 0 {
		t.Errorf("log-only config: got %d events, %v", len(events), err)
	}
}
