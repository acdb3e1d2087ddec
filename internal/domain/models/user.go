// internal/domain/models/user.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is anyone who can sign in. Room ownership and membership live on
// the rooms and room_members tables, not here.
//
// NOTE:
//   - LoginIDCI is the case/diacritic-folded login id and is the lookup key.
//   - PasswordHash and GoogleID never leave the server.
type User struct {
	ID           string  `gorm:"primaryKey;size:36" json:"id"`
	Name         string  `gorm:"size:200;not null" json:"name"`
	LoginID      string  `gorm:"size:254;not null" json:"loginId"`
	LoginIDCI    string  `gorm:"column:login_id_ci;size:254;not null;uniqueIndex" json:"-"`
	Email        *string `gorm:"size:254" json:"email"`
	Image        string  `gorm:"size:500" json:"image"`
	AuthMethod   string  `gorm:"size:20;not null;default:trust" json:"-"` // trust | password | google
	PasswordHash string  `gorm:"size:100" json:"-"`
	GoogleID     *string `gorm:"size:64;uniqueIndex" json:"-"`
	Status       string  `gorm:"size:20;not null;default:active" json:"-"` // active | disabled

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BeforeCreate assigns a UUID when the caller did not.
func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
