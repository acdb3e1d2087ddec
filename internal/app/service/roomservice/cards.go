package roomservice

import (
	"context"
	"errors"

	"github.com/dalemusser/retroboard/internal/app/policy/roompolicy"
	"github.com/dalemusser/retroboard/internal/app/store/audit"
	cardstore "github.com/dalemusser/retroboard/internal/app/store/cards"
	categorystore "github.com/dalemusser/retroboard/internal/app/store/categories"
	roomstore "github.com/dalemusser/retroboard/internal/app/store/rooms"
	"github.com/dalemusser/retroboard/internal/app/system/apperr"
	"github.com/dalemusser/retroboard/internal/app/system/authz"
	"github.com/dalemusser/retroboard/internal/app/system/inputval"
	"github.com/dalemusser/retroboard/internal/domain/models"
	"gorm.io/gorm"
)

// CreateCardInput is the input of room.createCard.
type CreateCardInput struct {
	RoomID     string `json:"roomId"`
	CategoryID string `json:"categoryId"`
	Text       string `json:"text"`
}

// UpdateCardInput is the input of room.updateCard.
type UpdateCardInput struct {
	ID   string  `json:"id"`
	Text *string `json:"text,omitempty"`
}

// CreateCard posts a card into a category of a room a belongs to.
func (s *Service) CreateCard(ctx context.Context, a authz.Actor, in CreateCardInput) (*models.Card, error) {
	if err := requireActor(a); err != nil {
		return nil, err
	}
	text, err := inputval.CardText(in.Text)
	if err != nil {
		return nil, apperr.BadRequest("Card text: " + err.Error())
	}

	var out models.Card
	err = s.inTx(ctx, writeTimeout(), func(tx *gorm.DB) error {
		room, err := roomstore.New(tx).GetWithMembers(ctx, in.RoomID)
		if errors.Is(err, roomstore.ErrNotFound) {
			return apperr.NotFound(msgRoomNotFound)
		}
		if err != nil {
			return err
		}
		if err := roompolicy.IsMember(a, room).Err(); err != nil {
			return err
		}

		cat, err := categorystore.New(tx).Get(ctx, in.CategoryID, false)
		if errors.Is(err, categorystore.ErrNotFound) {
			return apperr.NotFound(msgCategoryNotFound)
		}
		if err != nil {
			return err
		}
		if cat.RoomID != room.ID {
			return apperr.BadRequest("Category does not belong to this room")
		}

		out, err = cardstore.New(tx).Create(ctx, room.ID, cat.ID, a.UserID, text)
		return err
	})
	if err != nil {
		return nil, s.fail("createCard", a, err)
	}

	s.Audit.RoomEvent(ctx, audit.EventCardCreated, a.UserID, out.RoomID, map[string]string{
		"card_id":     out.ID,
		"category_id": out.CategoryID,
	})
	return &out, nil
}

// UpdateCard changes the card text. The card's creator or the room owner.
func (s *Service) UpdateCard(ctx context.Context, a authz.Actor, in UpdateCardInput) (*models.Card, error) {
	if err := requireActor(a); err != nil {
		return nil, err
	}
	var text *string
	if in.Text != nil {
		t, err := inputval.CardText(*in.Text)
		if err != nil {
			return nil, apperr.BadRequest("Card text: " + err.Error())
		}
		text = &t
	}

	var out *models.Card
	err := s.inTx(ctx, writeTimeout(), func(tx *gorm.DB) error {
		cards := cardstore.New(tx)
		card, err := cards.Get(ctx, in.ID, true)
		if errors.Is(err, cardstore.ErrNotFound) {
			return apperr.NotFound(msgCardNotFound)
		}
		if err != nil {
			return err
		}
		if err := roompolicy.CanEditCard(a, card).Err(); err != nil {
			return err
		}
		if text == nil {
			card.Room = nil
			out = card
			return nil
		}
		out, err = cards.UpdateText(ctx, card.ID, *text)
		return err
	})
	if err != nil {
		return nil, s.fail("updateCard", a, err)
	}

	if text != nil {
		s.Audit.RoomEvent(ctx, audit.EventCardUpdated, a.UserID, out.RoomID, map[string]string{"card_id": out.ID})
	}
	return out, nil
}

// DeleteCard deletes a card and returns it as it was. The card's creator
// or the room owner.
func (s *Service) DeleteCard(ctx context.Context, a authz.Actor, id string) (*models.Card, error) {
	if err := requireActor(a); err != nil {
		return nil, err
	}

	var out *models.Card
	err := s.inTx(ctx, writeTimeout(), func(tx *gorm.DB) error {
		cards := cardstore.New(tx)
		card, err := cards.Get(ctx, id, true)
		if errors.Is(err, cardstore.ErrNotFound) {
			return apperr.NotFound(msgCardNotFound)
		}
		if err != nil {
			return err
		}
		if err := roompolicy.CanDeleteCard(a, card).Err(); err != nil {
			return err
		}
		if err := cards.Delete(ctx, card.ID); err != nil {
			return err
		}
		card.Room = nil
		out = card
		return nil
	})
	if err != nil {
		return nil, s.fail("deleteCard", a, err)
	}

	s.Audit.RoomEvent(ctx, audit.EventCardDeleted, a.UserID, out.RoomID, map[string]string{"card_id": out.ID})
	return out, nil
}
