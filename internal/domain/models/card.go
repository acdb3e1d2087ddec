// internal/domain/models/card.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Card is a single feedback item. Its room, category and creator links
// are set once at creation.
type Card struct {
	ID         string `gorm:"primaryKey;size:36" json:"id"`
	Text       string `gorm:"type:text;not null" json:"text"`
	RoomID     string `gorm:"size:36;not null;index" json:"roomId"`
	CategoryID string `gorm:"size:36;not null;index" json:"categoryId"`
	CreatorID  string `gorm:"size:36;not null;index" json:"creatorId"`

	Room     *Room     `gorm:"foreignKey:RoomID" json:"-"`
	Category *Category `gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE" json:"-"`
	Creator  *User     `gorm:"foreignKey:CreatorID;constraint:OnDelete:CASCADE" json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (c *Card) BeforeCreate(*gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
