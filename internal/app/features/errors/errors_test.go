package errors_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	uierrors "github.com/dalemusser/retroboard/internal/app/features/errors"
	"github.com/dalemusser/retroboard/internal/app/system/apperr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// render runs fn, ignoring a template panic; the status is written first.
func render(fn func()) {
	defer func() { _ = recover() }()
	fn()
}

func TestLogServerError(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	el := uierrors.NewErrorLogger(zap.New(core))

	req := httptest.NewRequest(http.MethodGet, "/rooms/x", nil)
	rec := httptest.NewRecorder()
	render(func() {
		el.LogServerError(rec, req, "load room failed", errors.New("boom"), "A database error occurred.", "/")
	})

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status: got %d, want 500", rec.Code)
	}
	entries := logs.FilterMessage("load room failed").All()
	if len(entries) != 1 || entries[0].Level != zapcore.ErrorLevel {
		t.Fatalf("expected one error entry, got %+v", entries)
	}
	if entries[0].ContextMap()["path"] != "/rooms/x" {
		t.Errorf("missing path field: %+v", entries[0].ContextMap())
	}
}

func TestLogAppError_StatusByKind(t *testing.T) {
	el := uierrors.NewErrorLogger(zap.NewNop())

	tests := []struct {
		err  error
		want int
	}{
		{apperr.NotFound("Room not found"), http.StatusNotFound},
		{apperr.Unauthorized("You are not the owner of this room"), http.StatusForbidden},
		{apperr.Unauthenticated("sign in"), http.StatusUnauthorized},
		{apperr.BadRequest("bad"), http.StatusBadRequest},
		{errors.New("db down"), http.StatusInternalServerError},
	}
	for _, tc := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		render(func() { el.LogAppError(rec, req, "op failed", tc.err, "/") })
		if rec.Code != tc.want {
			t.Errorf("%v: status got %d, want %d", tc.err, rec.Code, tc.want)
		}
	}
}

func TestForbiddenAndUnauthorizedPages(t *testing.T) {
	h := uierrors.NewHandler()

	rec := httptest.NewRecorder()
	render(func() { h.Forbidden(rec, httptest.NewRequest(http.MethodGet, "/forbidden", nil)) })
	if rec.Code != http.StatusForbidden {
		t.Errorf("forbidden: got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	render(func() { h.Unauthorized(rec, httptest.NewRequest(http.MethodGet, "/unauthorized", nil)) })
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("unauthorized: got %d", rec.Code)
	}
}
