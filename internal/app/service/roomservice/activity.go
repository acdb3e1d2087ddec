package roomservice

import (
	"context"
	"errors"

	"github.com/dalemusser/retroboard/internal/app/policy/roompolicy"
	"github.com/dalemusser/retroboard/internal/app/store/audit"
	roomstore "github.com/dalemusser/retroboard/internal/app/store/rooms"
	"github.com/dalemusser/retroboard/internal/app/system/apperr"
	"github.com/dalemusser/retroboard/internal/app/system/authz"
)

// ActivityLimit caps the events RoomActivity returns.
const ActivityLimit = 20

// RoomActivity returns the room's recent audit history, newest first.
// Owner only. It is empty when no audit store is configured.
func (s *Service) RoomActivity(ctx context.Context, a authz.Actor, roomID string) ([]audit.Event, error) {
	if err := requireActor(a); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, readTimeout())
	defer cancel()

	room, err := roomstore.New(s.DB).Get(ctx, roomID)
	if errors.Is(err, roomstore.ErrNotFound) {
		return nil, apperr.NotFound(msgRoomNotFound)
	}
	if err != nil {
		return nil, s.fail("roomActivity", a, err)
	}
	if err := roompolicy.IsOwner(a, room).Err(); err != nil {
		return nil, err
	}

	events, err := s.Audit.RoomHistory(ctx, room.ID, ActivityLimit)
	if err != nil {
		return nil, s.fail("roomActivity", a, err)
	}
	return events, nil
}
