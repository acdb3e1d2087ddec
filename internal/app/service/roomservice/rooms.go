package roomservice

import (
	"context"
	"errors"
	"strconv"

	"github.com/dalemusser/retroboard/internal/app/policy/roompolicy"
	"github.com/dalemusser/retroboard/internal/app/store/audit"
	roomstore "github.com/dalemusser/retroboard/internal/app/store/rooms"
	"github.com/dalemusser/retroboard/internal/app/system/apperr"
	"github.com/dalemusser/retroboard/internal/app/system/authz"
	"github.com/dalemusser/retroboard/internal/app/system/inputval"
	"github.com/dalemusser/retroboard/internal/app/system/timeouts"
	"github.com/dalemusser/retroboard/internal/domain/models"
	"gorm.io/gorm"
)

// CreateRoomInput is the input of room.createRoom.
type CreateRoomInput struct {
	Name       string   `json:"name"`
	Categories []string `json:"categories,omitempty"`
}

// UpdateRoomInput is the input of room.updateRoom. Nil fields are left alone.
type UpdateRoomInput struct {
	ID        string `json:"id"`
	Mutable   *bool  `json:"mutable,omitempty"`
	Anonymous *bool  `json:"anonymous,omitempty"`
}

// CreateRoom creates a room owned by a, with a as its first member and the
// given categories in order. It returns the expanded room.
func (s *Service) CreateRoom(ctx context.Context, a authz.Actor, in CreateRoomInput) (*models.Room, error) {
	if err := requireActor(a); err != nil {
		return nil, err
	}
	name, err := inputval.Name(in.Name)
	if err != nil {
		return nil, apperr.BadRequest("Room name: " + err.Error())
	}
	cats := make([]string, 0, len(in.Categories))
	for _, c := range in.Categories {
		n, err := inputval.Name(c)
		if err != nil {
			return nil, apperr.BadRequest("Category name: " + err.Error())
		}
		cats = append(cats, n)
	}

	var out *models.Room
	err = s.inTx(ctx, writeTimeout(), func(tx *gorm.DB) error {
		rooms := roomstore.New(tx)
		room, err := rooms.Create(ctx, models.Room{Name: name}, a.UserID, cats)
		if err != nil {
			return err
		}
		out, err = rooms.GetExpanded(ctx, room.ID)
		return err
	})
	if err != nil {
		return nil, s.fail("createRoom", a, err)
	}

	s.Audit.RoomEvent(ctx, audit.EventRoomCreated, a.UserID, out.ID, map[string]string{
		"name":       out.Name,
		"categories": strconv.Itoa(len(out.Categories)),
	})
	return out, nil
}

// UpdateRoom changes the room's settings. Owner only.
func (s *Service) UpdateRoom(ctx context.Context, a authz.Actor, in UpdateRoomInput) (*models.Room, error) {
	if err := requireActor(a); err != nil {
		return nil, err
	}

	var out *models.Room
	err := s.inTx(ctx, writeTimeout(), func(tx *gorm.DB) error {
		rooms := roomstore.New(tx)
		room, err := rooms.Get(ctx, in.ID)
		if errors.Is(err, roomstore.ErrNotFound) {
			return apperr.NotFound(msgRoomNotFound)
		}
		if err != nil {
			return err
		}
		if err := roompolicy.IsOwner(a, room).Err(); err != nil {
			return err
		}
		if err := rooms.Update(ctx, room.ID, roomstore.Patch{Mutable: in.Mutable, Anonymous: in.Anonymous}); err != nil {
			return err
		}
		out, err = rooms.GetExpanded(ctx, room.ID)
		return err
	})
	if err != nil {
		return nil, s.fail("updateRoom", a, err)
	}

	s.Audit.RoomEvent(ctx, audit.EventRoomUpdated, a.UserID, out.ID, map[string]string{
		"mutable":   strconv.FormatBool(out.Mutable),
		"anonymous": strconv.FormatBool(out.Anonymous),
	})
	return out, nil
}

// DeleteRoom deletes the room with everything in it and returns the room
// as it was. Owner only.
func (s *Service) DeleteRoom(ctx context.Context, a authz.Actor, id string) (*models.Room, error) {
	if err := requireActor(a); err != nil {
		return nil, err
	}

	ctx, cancel := timeouts.WithTimeout(ctx, cascadeTimeout(), s.Log, "delete room")
	defer cancel()

	var out *models.Room
	err := s.inTx(ctx, 0, func(tx *gorm.DB) error {
		rooms := roomstore.New(tx)
		room, err := rooms.Get(ctx, id)
		if errors.Is(err, roomstore.ErrNotFound) {
			return apperr.NotFound(msgRoomNotFound)
		}
		if err != nil {
			return err
		}
		if err := roompolicy.IsOwner(a, room).Err(); err != nil {
			return err
		}
		if err := rooms.Delete(ctx, room.ID); err != nil {
			return err
		}
		out = room
		return nil
	})
	if err != nil {
		return nil, s.fail("deleteRoom", a, err)
	}

	s.Audit.RoomEvent(ctx, audit.EventRoomDeleted, a.UserID, out.ID, map[string]string{"name": out.Name})
	return out, nil
}

// JoinRoom adds a to the room whose code is given. The code is the room id.
func (s *Service) JoinRoom(ctx context.Context, a authz.Actor, code string) (*models.Room, error) {
	if err := requireActor(a); err != nil {
		return nil, err
	}

	var out *models.Room
	err := s.inTx(ctx, writeTimeout(), func(tx *gorm.DB) error {
		rooms := roomstore.New(tx)
		room, err := rooms.GetWithMembers(ctx, code)
		if errors.Is(err, roomstore.ErrNotFound) {
			return apperr.NotFound(msgRoomNotFound)
		}
		if err != nil {
			return err
		}
		if err := roompolicy.CanJoin(a, room).Err(); err != nil {
			return err
		}
		if err := rooms.AddMember(ctx, room.ID, a.UserID); err != nil {
			if errors.Is(err, roomstore.ErrAlreadyMember) {
				return apperr.BadRequest("You have already joined this room")
			}
			return err
		}
		out, err = rooms.GetExpanded(ctx, room.ID)
		return err
	})
	if err != nil {
		return nil, s.fail("joinRoom", a, err)
	}

	s.Audit.RoomEvent(ctx, audit.EventRoomJoined, a.UserID, out.ID, nil)
	return out, nil
}

// LeaveRoom removes a from the room whose code is given.
func (s *Service) LeaveRoom(ctx context.Context, a authz.Actor, code string) (*models.Room, error) {
	if err := requireActor(a); err != nil {
		return nil, err
	}

	var out *models.Room
	err := s.inTx(ctx, writeTimeout(), func(tx *gorm.DB) error {
		rooms := roomstore.New(tx)
		room, err := rooms.GetWithMembers(ctx, code)
		if errors.Is(err, roomstore.ErrNotFound) {
			return apperr.NotFound(msgRoomNotFound)
		}
		if err != nil {
			return err
		}
		if err := roompolicy.IsMember(a, room).Err(); err != nil {
			return err
		}
		if err := rooms.RemoveMember(ctx, room.ID, a.UserID); err != nil {
			if errors.Is(err, roomstore.ErrNotMember) {
				return apperr.BadRequest("You have not joined this room")
			}
			return err
		}
		out, err = rooms.GetExpanded(ctx, room.ID)
		return err
	})
	if err != nil {
		return nil, s.fail("leaveRoom", a, err)
	}

	s.Audit.RoomEvent(ctx, audit.EventRoomLeft, a.UserID, out.ID, nil)
	return out, nil
}

// GetRoom returns the expanded room. Anyone may call it.
func (s *Service) GetRoom(ctx context.Context, id string) (*models.Room, error) {
	ctx, cancel := context.WithTimeout(ctx, readTimeout())
	defer cancel()

	room, err := roomstore.New(s.DB).GetExpanded(ctx, id)
	if errors.Is(err, roomstore.ErrNotFound) {
		return nil, apperr.NotFound(msgRoomNotFound)
	}
	if err != nil {
		return nil, s.fail("getRoom", authz.Actor{}, err)
	}
	return room, nil
}

// ListMyRooms returns the rooms a owns or has joined, newest first.
func (s *Service) ListMyRooms(ctx context.Context, a authz.Actor) ([]models.Room, error) {
	if err := requireActor(a); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, readTimeout())
	defer cancel()

	rooms, err := roomstore.New(s.DB).ListForUser(ctx, a.UserID)
	if err != nil {
		return nil, s.fail("listMyRooms", a, err)
	}
	return rooms, nil
}
