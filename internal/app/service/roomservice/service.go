// Package roomservice implements the room, category and card operations.
//
// Every mutation runs fetch → guard → mutate inside one transaction. The
// guard always sees the owning room as read in that same transaction.
// Errors returned to callers are *apperr.Error values.
package roomservice

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/retroboard/internal/app/system/apperr"
	"github.com/dalemusser/retroboard/internal/app/system/auditlog"
	"github.com/dalemusser/retroboard/internal/app/system/authz"
	"github.com/dalemusser/retroboard/internal/app/system/timeouts"
	"github.com/dalemusser/retroboard/internal/app/system/txn"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	msgRoomNotFound     = "Room not found"
	msgCategoryNotFound = "Category not found"
	msgCardNotFound     = "Card not found"
)

// Service runs room operations against DB.
type Service struct {
	DB    *gorm.DB
	Audit *auditlog.Logger
	Log   *zap.Logger
}

func New(db *gorm.DB, audit *auditlog.Logger, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{DB: db, Audit: audit, Log: logger}
}

// inTx runs fn in a transaction bounded by timeout. A zero timeout leaves
// the deadline to ctx.
func (s *Service) inTx(ctx context.Context, timeout time.Duration, fn func(tx *gorm.DB) error) error {
	return txn.Run(ctx, s.DB, timeout, fn)
}

// fail passes classified errors through and turns anything else into an
// Internal error, logging the cause.
func (s *Service) fail(op string, a authz.Actor, err error) error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return ae
	}
	s.Log.Error("room operation failed",
		zap.String("operation", op),
		zap.String("user_id", a.UserID),
		zap.Error(err))
	return apperr.Internal(op, err)
}

func requireActor(a authz.Actor) error {
	if a.IsZero() {
		return apperr.Unauthenticated("You must be signed in")
	}
	return nil
}

func readTimeout() time.Duration    { return timeouts.Short() }
func writeTimeout() time.Duration   { return timeouts.Medium() }
func cascadeTimeout() time.Duration { return timeouts.Long() }
