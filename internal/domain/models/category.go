// internal/domain/models/category.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Category groups cards inside a room ("Went well", "Bugs", ...).
// RoomID never changes after creation. Position orders the columns of a
// board; it counts up from 0 within a room in creation order.
type Category struct {
	ID       string  `gorm:"primaryKey;size:36" json:"id"`
	Name     string  `gorm:"size:100;not null" json:"name"`
	Color    *string `gorm:"size:9" json:"color"`
	RoomID   string  `gorm:"size:36;not null;index:idx_categories_room_position,priority:1" json:"roomId"`
	Position int     `gorm:"not null;default:0;index:idx_categories_room_position,priority:2" json:"position"`

	Room *Room `gorm:"foreignKey:RoomID" json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (c *Category) BeforeCreate(*gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
