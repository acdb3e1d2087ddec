// internal/app/features/errors/logger.go
package errors

import (
	"net/http"

	"github.com/dalemusser/retroboard/internal/app/system/apperr"
	"github.com/dalemusser/retroboard/internal/app/system/auth"
	"go.uber.org/zap"
)

// ErrorLogger logs a handler failure with request context and renders a
// friendly error page.
//
//	h.ErrLog.LogServerError(w, r, "load room failed", err, "A database error occurred.", "/")
type ErrorLogger struct {
	Log *zap.Logger
}

func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	return &ErrorLogger{Log: logger}
}

func (l *ErrorLogger) fields(r *http.Request, err error) []zap.Field {
	fs := []zap.Field{
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	}
	if u, ok := auth.CurrentUser(r); ok {
		fs = append(fs, zap.String("user_id", u.ID))
	}
	return fs
}

// LogServerError logs at Error level and renders a 500 page.
func (l *ErrorLogger) LogServerError(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg, backURL string) {
	l.Log.Error(msg, l.fields(r, err)...)
	RenderError(w, r, http.StatusInternalServerError, "Something went wrong", userMsg, backURL)
}

// LogBadRequest logs at Warn level and renders a 400 page.
func (l *ErrorLogger) LogBadRequest(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg, backURL string) {
	l.Log.Warn(msg, l.fields(r, err)...)
	RenderError(w, r, http.StatusBadRequest, "Invalid request", userMsg, backURL)
}

// LogForbidden logs at Info level and renders a 403 page.
func (l *ErrorLogger) LogForbidden(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg, backURL string) {
	l.Log.Info(msg, l.fields(r, err)...)
	RenderForbidden(w, r, userMsg, backURL)
}

// LogAppError renders err according to its apperr kind. Internal errors
// are logged with msg; the other kinds show their own message.
func (l *ErrorLogger) LogAppError(w http.ResponseWriter, r *http.Request, msg string, err error, backURL string) {
	kind := apperr.KindOf(err)
	switch kind {
	case apperr.KindInternal:
		l.LogServerError(w, r, msg, err, "A server error occurred.", backURL)
	case apperr.KindUnauthenticated:
		RenderUnauthorized(w, r, "")
	case apperr.KindUnauthorized:
		l.LogForbidden(w, r, msg, err, apperr.Message(err), backURL)
	case apperr.KindNotFound:
		RenderError(w, r, http.StatusNotFound, "Not found", apperr.Message(err), backURL)
	default:
		RenderError(w, r, kind.HTTPStatus(), "Invalid request", apperr.Message(err), backURL)
	}
}
