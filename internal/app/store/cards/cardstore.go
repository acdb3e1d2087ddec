package cardstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/retroboard/internal/domain/models"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("card not found")

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Get loads the card. With withRoom, Card.Room is loaded for the
// owner-or-creator check.
func (s *Store) Get(ctx context.Context, id string, withRoom bool) (*models.Card, error) {
	q := s.db.WithContext(ctx)
	if withRoom {
		q = q.Preload("Room")
	}
	var c models.Card
	err := q.Where("id = ?", id).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load card: %w", err)
	}
	return &c, nil
}

// Create inserts a card. Room, category and creator must exist.
func (s *Store) Create(ctx context.Context, roomID, categoryID, creatorID, text string) (models.Card, error) {
	c := models.Card{
		Text:       text,
		RoomID:     roomID,
		CategoryID: categoryID,
		CreatorID:  creatorID,
	}
	if err := s.db.WithContext(ctx).Omit("Room", "Category", "Creator").Create(&c).Error; err != nil {
		return models.Card{}, fmt.Errorf("create card: %w", err)
	}
	return c, nil
}

// UpdateText replaces the card text and returns the updated card.
func (s *Store) UpdateText(ctx context.Context, id, text string) (*models.Card, error) {
	res := s.db.WithContext(ctx).Model(&models.Card{}).Where("id = ?", id).Update("text", text)
	if res.Error != nil {
		return nil, fmt.Errorf("update card: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return s.Get(ctx, id, false)
}

// Delete removes the card.
func (s *Store) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Card{})
	if res.Error != nil {
		return fmt.Errorf("delete card: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
