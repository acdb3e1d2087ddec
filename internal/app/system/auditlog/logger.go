// internal/app/system/auditlog/logger.go
package auditlog

// Terminology: User Identifiers
//   - UserID / userID / user_id: the UUID primary key of a users row
//   - LoginID / loginID / login_id: the human-readable string users type to sign in

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/retroboard/internal/app/store/audit"
	"go.uber.org/zap"
)

// Config holds audit logging configuration.
type Config struct {
	// Auth controls logging for sign-in and sign-out events.
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	Auth string
	// Room controls logging for room, category, card and membership changes.
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	Room string
}

// Logger provides convenience methods for logging audit events.
// It logs to MongoDB (via audit.Store) when a store is configured and to
// structured logs (via zap).
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger. store may be nil, in which case "db"
// destinations are skipped.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Request origin                                                              |
*─────────────────────────────────────────────────────────────────────────────*/

type origin struct {
	ip        string
	userAgent string
}

type ctxKey struct{}

// WithRequest stores the client address and user agent of r in ctx so that
// events logged further down (e.g. from the room service) carry them.
func WithRequest(ctx context.Context, r *http.Request) context.Context {
	return context.WithValue(ctx, ctxKey{}, origin{ip: getClientIP(r), userAgent: r.UserAgent()})
}

func originFrom(ctx context.Context) origin {
	o, _ := ctx.Value(ctxKey{}).(origin)
	return o
}

// getClientIP extracts the client IP from the request.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}

// logToZap logs the event to zap with consistent structure.
func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}

	if event.UserID != "" {
		fields = append(fields, zap.String("user_id", event.UserID))
	}
	if event.ActorID != "" {
		fields = append(fields, zap.String("actor_id", event.ActorID))
	}
	if event.RoomID != "" {
		fields = append(fields, zap.String("room_id", event.RoomID))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event based on configuration.
// If the logger is nil, this is a no-op (allows tests to use nil audit logger).
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategoryRoom:
		setting = l.config.Room
	default:
		setting = "all"
	}
	if setting == "" {
		setting = "all"
	}
	if setting == "off" {
		return
	}

	if event.IP == "" && event.UserAgent == "" {
		o := originFrom(ctx)
		event.IP, event.UserAgent = o.ip, o.userAgent
	}

	if setting == "all" || setting == "log" {
		l.logToZap(event)
	}

	if (setting == "all" || setting == "db") && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

// --- Authentication Events ---

// LoginSuccess logs a successful sign-in.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID, authMethod, loginID string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		UserID:    userID,
		IP:        getClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
		Details: map[string]string{
			"auth_method": authMethod,
			"login_id":    loginID,
		},
	})
}

// LoginFailed logs a failed sign-in. eventType is one of the
// audit.EventLoginFailed* constants.
func (l *Logger) LoginFailed(ctx context.Context, r *http.Request, eventType, userID, loginID, reason string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     eventType,
		UserID:        userID,
		IP:            getClientIP(r),
		UserAgent:     r.UserAgent(),
		Success:       false,
		FailureReason: reason,
		Details: map[string]string{
			"login_id": loginID,
		},
	})
}

// UserCreated logs an account created on first sign-in.
func (l *Logger) UserCreated(ctx context.Context, r *http.Request, userID, authMethod string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventUserCreated,
		UserID:    userID,
		IP:        getClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
		Details: map[string]string{
			"auth_method": authMethod,
		},
	})
}

// Logout logs a sign-out.
func (l *Logger) Logout(ctx context.Context, r *http.Request, userID string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLogout,
		UserID:    userID,
		IP:        getClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
	})
}

// --- Room Events ---

// RoomEvent logs a successful room mutation by actorID. details may be nil.
func (l *Logger) RoomEvent(ctx context.Context, eventType, actorID, roomID string, details map[string]string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryRoom,
		EventType: eventType,
		ActorID:   actorID,
		RoomID:    roomID,
		Success:   true,
		Details:   details,
	})
}

// RoomHistory returns up to limit stored events for roomID, newest first.
// It is empty when room events are not written to MongoDB.
func (l *Logger) RoomHistory(ctx context.Context, roomID string, limit int64) ([]audit.Event, error) {
	if l == nil || l.store == nil {
		return nil, nil
	}
	switch l.config.Room {
	case "", "all", "db":
	default:
		return nil, nil
	}
	return l.store.GetByRoom(ctx, roomID, limit)
}
