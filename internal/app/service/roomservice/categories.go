package roomservice

import (
	"context"
	"errors"

	"github.com/dalemusser/retroboard/internal/app/policy/roompolicy"
	"github.com/dalemusser/retroboard/internal/app/store/audit"
	categorystore "github.com/dalemusser/retroboard/internal/app/store/categories"
	roomstore "github.com/dalemusser/retroboard/internal/app/store/rooms"
	"github.com/dalemusser/retroboard/internal/app/system/apperr"
	"github.com/dalemusser/retroboard/internal/app/system/authz"
	"github.com/dalemusser/retroboard/internal/app/system/inputval"
	"github.com/dalemusser/retroboard/internal/app/system/timeouts"
	"github.com/dalemusser/retroboard/internal/domain/models"
	"gorm.io/gorm"
)

// CreateCategoryInput is the input of room.createCategory.
type CreateCategoryInput struct {
	RoomID string  `json:"roomId"`
	Name   string  `json:"name"`
	Color  *string `json:"color,omitempty"`
}

// UpdateCategoryInput is the input of room.updateCategory. Nil fields are
// left alone; an empty color clears it.
type UpdateCategoryInput struct {
	ID    string  `json:"id"`
	Name  *string `json:"name,omitempty"`
	Color *string `json:"color,omitempty"`
}

// CreateCategory adds a category to a room. Owner only.
func (s *Service) CreateCategory(ctx context.Context, a authz.Actor, in CreateCategoryInput) (*models.Category, error) {
	if err := requireActor(a); err != nil {
		return nil, err
	}
	name, err := inputval.Name(in.Name)
	if err != nil {
		return nil, apperr.BadRequest("Category name: " + err.Error())
	}
	color, err := inputval.Color(in.Color)
	if err != nil {
		return nil, apperr.BadRequest(err.Error())
	}

	var out models.Category
	err = s.inTx(ctx, writeTimeout(), func(tx *gorm.DB) error {
		room, err := roomstore.New(tx).Get(ctx, in.RoomID)
		if errors.Is(err, roomstore.ErrNotFound) {
			return apperr.NotFound(msgRoomNotFound)
		}
		if err != nil {
			return err
		}
		if err := roompolicy.IsOwner(a, room).Err(); err != nil {
			return err
		}
		out, err = categorystore.New(tx).Create(ctx, room.ID, name, color)
		return err
	})
	if err != nil {
		return nil, s.fail("createCategory", a, err)
	}

	s.Audit.RoomEvent(ctx, audit.EventCategoryCreated, a.UserID, out.RoomID, map[string]string{
		"category_id": out.ID,
		"name":        out.Name,
	})
	return &out, nil
}

// UpdateCategory renames or recolors a category. Owner of its room only.
func (s *Service) UpdateCategory(ctx context.Context, a authz.Actor, in UpdateCategoryInput) (*models.Category, error) {
	if err := requireActor(a); err != nil {
		return nil, err
	}
	var patch categorystore.Patch
	if in.Name != nil {
		name, err := inputval.Name(*in.Name)
		if err != nil {
			return nil, apperr.BadRequest("Category name: " + err.Error())
		}
		patch.Name = &name
	}
	if in.Color != nil {
		color, err := inputval.Color(in.Color)
		if err != nil {
			return nil, apperr.BadRequest(err.Error())
		}
		patch.SetColor, patch.Color = true, color
	}

	var out *models.Category
	err := s.inTx(ctx, writeTimeout(), func(tx *gorm.DB) error {
		cats := categorystore.New(tx)
		cat, err := cats.Get(ctx, in.ID, true)
		if errors.Is(err, categorystore.ErrNotFound) {
			return apperr.NotFound(msgCategoryNotFound)
		}
		if err != nil {
			return err
		}
		if err := roompolicy.IsOwner(a, cat.Room).Err(); err != nil {
			return err
		}
		out, err = cats.Update(ctx, cat.ID, patch)
		return err
	})
	if err != nil {
		return nil, s.fail("updateCategory", a, err)
	}

	s.Audit.RoomEvent(ctx, audit.EventCategoryUpdated, a.UserID, out.RoomID, map[string]string{
		"category_id": out.ID,
		"name":        out.Name,
	})
	return out, nil
}

// DeleteCategory deletes a category and its cards, returning the category
// as it was. Owner of its room only.
func (s *Service) DeleteCategory(ctx context.Context, a authz.Actor, id string) (*models.Category, error) {
	if err := requireActor(a); err != nil {
		return nil, err
	}

	ctx, cancel := timeouts.WithTimeout(ctx, cascadeTimeout(), s.Log, "delete category")
	defer cancel()

	var out *models.Category
	err := s.inTx(ctx, 0, func(tx *gorm.DB) error {
		cats := categorystore.New(tx)
		cat, err := cats.Get(ctx, id, true)
		if errors.Is(err, categorystore.ErrNotFound) {
			return apperr.NotFound(msgCategoryNotFound)
		}
		if err != nil {
			return err
		}
		if err := roompolicy.IsOwner(a, cat.Room).Err(); err != nil {
			return err
		}
		if err := cats.Delete(ctx, cat.ID); err != nil {
			return err
		}
		cat.Room = nil
		out = cat
		return nil
	})
	if err != nil {
		return nil, s.fail("deleteCategory", a, err)
	}

	s.Audit.RoomEvent(ctx, audit.EventCategoryDeleted, a.UserID, out.RoomID, map[string]string{
		"category_id": out.ID,
		"name":        out.Name,
	})
	return out, nil
}
