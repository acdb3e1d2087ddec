package categorystore

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/retroboard/internal/domain/models"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("category not found")

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Get loads the category. With withRoom, the owning room is loaded into
// Category.Room for ownership checks.
func (s *Store) Get(ctx context.Context, id string, withRoom bool) (*models.Category, error) {
	q := s.db.WithContext(ctx)
	if withRoom {
		q = q.Preload("Room")
	}
	var c models.Category
	err := q.Where("id = ?", id).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load category: %w", err)
	}
	return &c, nil
}

// Create appends a category to roomID, after every existing one. Run it
// in the same transaction that checked the room.
func (s *Store) Create(ctx context.Context, roomID, name string, color *string) (models.Category, error) {
	db := s.db.WithContext(ctx)

	var next int
	if err := db.Model(&models.Category{}).
		Where("room_id = ?", roomID).
		Select("COALESCE(MAX(position) + 1, 0)").
		Scan(&next).Error; err != nil {
		return models.Category{}, fmt.Errorf("next category position: %w", err)
	}

	c := models.Category{Name: name, Color: color, RoomID: roomID, Position: next}
	if err := db.Omit("Room").Create(&c).Error; err != nil {
		return models.Category{}, fmt.Errorf("create category: %w", err)
	}
	return c, nil
}

// Patch holds category fields to change. SetColor with a nil Color clears
// the color.
type Patch struct {
	Name     *string
	SetColor bool
	Color    *string
}

// Update applies p and returns the updated category.
func (s *Store) Update(ctx context.Context, id string, p Patch) (*models.Category, error) {
	upd := map[string]any{}
	if p.Name != nil {
		upd["name"] = *p.Name
	}
	if p.SetColor {
		upd["color"] = p.Color
	}
	if len(upd) > 0 {
		res := s.db.WithContext(ctx).Model(&models.Category{}).Where("id = ?", id).Updates(upd)
		if res.Error != nil {
			return nil, fmt.Errorf("update category: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, ErrNotFound
		}
	}
	return s.Get(ctx, id, false)
}

// Delete removes the category and every card in it.
func (s *Store) Delete(ctx context.Context, id string) error {
	db := s.db.WithContext(ctx)
	if err := db.Where("category_id = ?", id).Delete(&models.Card{}).Error; err != nil {
		return fmt.Errorf("delete category cards: %w", err)
	}
	res := db.Where("id = ?", id).Delete(&models.Category{})
	if res.Error != nil {
		return fmt.Errorf("delete category: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
