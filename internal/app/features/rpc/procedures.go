// internal/app/features/rpc/procedures.go
package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"github.com/dalemusser/retroboard/internal/app/service/roomservice"
	"github.com/dalemusser/retroboard/internal/app/system/apperr"
	"github.com/dalemusser/retroboard/internal/app/system/authz"
	"github.com/dalemusser/retroboard/internal/domain/models"
)

type procKind int

const (
	kindQuery procKind = iota
	kindMutation
)

// procedure is one callable entry of the registry.
type procedure struct {
	kind      procKind
	protected bool
	call      func(ctx context.Context, a authz.Actor, raw json.RawMessage) (any, error)
}

// none is the input type of procedures that take no input.
type none struct{}

type validator interface {
	Validate() error
}

func isEmpty(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}

// decode unmarshals raw into In. Missing input is accepted only for none.
func decode[In any](raw json.RawMessage) (In, error) {
	var in In
	if _, ok := any(in).(none); ok {
		return in, nil
	}
	if isEmpty(raw) {
		return in, apperr.BadRequest("input is required")
	}
	if err := json.Unmarshal(raw, &in); err != nil {
		return in, apperr.BadRequest("invalid input: " + err.Error())
	}
	if s, ok := any(in).(string); ok && strings.TrimSpace(s) == "" {
		return in, apperr.BadRequest("input must be a non-empty string")
	}
	if v, ok := any(in).(validator); ok {
		if err := v.Validate(); err != nil {
			return in, err
		}
	}
	return in, nil
}

func typed[In, Out any](k procKind, protected bool, fn func(context.Context, authz.Actor, In) (Out, error)) procedure {
	return procedure{
		kind:      k,
		protected: protected,
		call: func(ctx context.Context, a authz.Actor, raw json.RawMessage) (any, error) {
			in, err := decode[In](raw)
			if err != nil {
				return nil, err
			}
			return fn(ctx, a, in)
		},
	}
}

func protectedQuery[In, Out any](fn func(context.Context, authz.Actor, In) (Out, error)) procedure {
	return typed(kindQuery, true, fn)
}

func publicQuery[In, Out any](fn func(context.Context, authz.Actor, In) (Out, error)) procedure {
	return typed(kindQuery, false, fn)
}

func mutation[In, Out any](fn func(context.Context, authz.Actor, In) (Out, error)) procedure {
	return typed(kindMutation, true, fn)
}

// roomProcedures maps the room router's procedure names to the service.
func roomProcedures(svc *roomservice.Service) map[string]procedure {
	return map[string]procedure{
		"room.createRoom": mutation(svc.CreateRoom),
		"room.updateRoom": mutation(svc.UpdateRoom),
		"room.deleteRoom": mutation(svc.DeleteRoom),
		"room.joinRoom":   mutation(svc.JoinRoom),
		"room.leaveRoom":  mutation(svc.LeaveRoom),
		"room.getRoom": publicQuery(func(ctx context.Context, _ authz.Actor, id string) (*models.Room, error) {
			return svc.GetRoom(ctx, id)
		}),
		"room.listMyRooms": protectedQuery(func(ctx context.Context, a authz.Actor, _ none) ([]models.Room, error) {
			return svc.ListMyRooms(ctx, a)
		}),
		"room.createCategory": mutation(svc.CreateCategory),
		"room.updateCategory": mutation(svc.UpdateCategory),
		"room.deleteCategory": mutation(svc.DeleteCategory),
		"room.createCard":     mutation(svc.CreateCard),
		"room.updateCard":     mutation(svc.UpdateCard),
		"room.deleteCard":     mutation(svc.DeleteCard),
	}
}
