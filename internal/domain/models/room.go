// internal/domain/models/room.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Room is one retrospective session.
//
// The owner is fixed at creation and is also the first entry in Members.
// The room id doubles as the join code handed out to participants.
// Association slices are only populated when the store preloads them
// (see roomstore.GetExpanded).
type Room struct {
	ID        string `gorm:"primaryKey;size:36" json:"id"`
	Name      string `gorm:"size:100;not null" json:"name"`
	Mutable   bool   `gorm:"not null;default:true" json:"mutable"`
	Anonymous bool   `gorm:"not null;default:false" json:"anonymous"`
	OwnerID   string `gorm:"size:36;not null;index" json:"ownerId"`

	Owner      *User      `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"owner,omitempty"`
	Members    []User     `gorm:"many2many:room_members;constraint:OnDelete:CASCADE" json:"members"`
	Categories []Category `gorm:"constraint:OnDelete:CASCADE" json:"categories"`
	Cards      []Card     `gorm:"constraint:OnDelete:CASCADE" json:"cards"`
	Polls      []Poll     `gorm:"constraint:OnDelete:CASCADE" json:"polls"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BeforeCreate assigns a UUID when the caller did not.
func (r *Room) BeforeCreate(*gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// HasMember reports whether userID is in the loaded Members slice.
// Members must have been preloaded.
func (r *Room) HasMember(userID string) bool {
	for _, m := range r.Members {
		if m.ID == userID {
			return true
		}
	}
	return false
}
