// internal/domain/models/poll.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Poll is reserved for room voting. The table exists and polls are
// returned with expanded rooms, but nothing creates them yet.
type Poll struct {
	ID       string `gorm:"primaryKey;size:36" json:"id"`
	RoomID   string `gorm:"size:36;not null;index" json:"roomId"`
	Question string `gorm:"size:500" json:"question"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (p *Poll) BeforeCreate(*gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
