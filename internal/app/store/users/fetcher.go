package userstore

import (
	"context"
	"errors"

	"github.com/dalemusser/retroboard/internal/app/system/auth"
	"github.com/dalemusser/retroboard/internal/app/system/timeouts"
	"gorm.io/gorm"
)

// Fetcher implements auth.UserFetcher to load fresh user data on each request.
type Fetcher struct {
	store *Store
}

// NewFetcher creates a UserFetcher that queries the given database.
func NewFetcher(db *gorm.DB) *Fetcher {
	return &Fetcher{store: New(db)}
}

// FetchUser returns nil without error when the user is gone or disabled.
func (f *Fetcher) FetchUser(ctx context.Context, userID string) (*auth.SessionUser, error) {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	u, err := f.store.GetByID(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if u.Status == "disabled" {
		return nil, nil
	}

	su := &auth.SessionUser{
		ID:      u.ID,
		Name:    u.Name,
		LoginID: u.LoginID,
		Image:   u.Image,
	}
	if u.Email != nil {
		su.Email = *u.Email
	}
	return su, nil
}
