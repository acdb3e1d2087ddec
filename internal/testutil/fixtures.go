package testutil

import (
	"context"
	"net/http"
	"testing"

	categorystore "github.com/dalemusser/retroboard/internal/app/store/categories"
	"github.com/dalemusser/retroboard/internal/app/system/authutil"
	"github.com/dalemusser/retroboard/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *gorm.DB
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *gorm.DB) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *gorm.DB {
	return f.db
}

// CreateUser creates an active trust-login user. loginID doubles as the
// display name when name is blank.
func (f *Fixtures) CreateUser(ctx context.Context, name, loginID string) models.User {
	f.t.Helper()

	if name == "" {
		name = loginID
	}
	u := models.User{
		Name:       name,
		LoginID:    loginID,
		LoginIDCI:  text.Fold(loginID),
		AuthMethod: "trust",
		Status:     "active",
	}
	if err := f.db.WithContext(ctx).Create(&u).Error; err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreatePasswordUser creates an active user who signs in with password.
func (f *Fixtures) CreatePasswordUser(ctx context.Context, name, loginID, password string) models.User {
	f.t.Helper()

	hash, err := authutil.HashPassword(password)
	if err != nil {
		f.t.Fatalf("failed to hash test password: %v", err)
	}
	u := models.User{
		Name:         name,
		LoginID:      loginID,
		LoginIDCI:    text.Fold(loginID),
		AuthMethod:   "password",
		PasswordHash: hash,
		Status:       "active",
	}
	if err := f.db.WithContext(ctx).Create(&u).Error; err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateDisabledUser creates a user whose status is disabled.
func (f *Fixtures) CreateDisabledUser(ctx context.Context, name, loginID string) models.User {
	f.t.Helper()

	u := f.CreateUser(ctx, name, loginID)
	if err := f.db.WithContext(ctx).Model(&u).Update("status", "disabled").Error; err != nil {
		f.t.Fatalf("failed to disable test user: %v", err)
	}
	u.Status = "disabled"
	return u
}

// CreateRoom creates a room owned by owner, with the owner as its only
// member and the given categories in order.
func (f *Fixtures) CreateRoom(ctx context.Context, name string, owner models.User, categories ...string) models.Room {
	f.t.Helper()

	room := models.Room{
		Name:    name,
		Mutable: true,
		OwnerID: owner.ID,
	}
	if err := f.db.WithContext(ctx).Create(&room).Error; err != nil {
		f.t.Fatalf("failed to create test room: %v", err)
	}
	f.AddMember(ctx, room, owner)
	for _, c := range categories {
		f.CreateCategory(ctx, room, c)
	}
	return room
}

// AddMember adds u to the room's members.
func (f *Fixtures) AddMember(ctx context.Context, room models.Room, u models.User) {
	f.t.Helper()

	if err := f.db.WithContext(ctx).Model(&room).Association("Members").Append(&u); err != nil {
		f.t.Fatalf("failed to add test member: %v", err)
	}
}

// CreateCategory appends a category to room.
func (f *Fixtures) CreateCategory(ctx context.Context, room models.Room, name string) models.Category {
	f.t.Helper()

	c, err := categorystore.New(f.db).Create(ctx, room.ID, name, nil)
	if err != nil {
		f.t.Fatalf("failed to create test category: %v", err)
	}
	return c
}

// CreateCard creates a card by creator in category.
func (f *Fixtures) CreateCard(ctx context.Context, category models.Category, creator models.User, text string) models.Card {
	f.t.Helper()

	c := models.Card{
		Text:       text,
		RoomID:     category.RoomID,
		CategoryID: category.ID,
		CreatorID:  creator.ID,
	}
	if err := f.db.WithContext(ctx).Create(&c).Error; err != nil {
		f.t.Fatalf("failed to create test card: %v", err)
	}
	return c
}

// CountMembers returns how many members room has.
func (f *Fixtures) CountMembers(ctx context.Context, roomID string) int64 {
	f.t.Helper()

	var n int64
	err := f.db.WithContext(ctx).Table("room_members").Where("room_id = ?", roomID).Count(&n).Error
	if err != nil {
		f.t.Fatalf("failed to count members: %v", err)
	}
	return n
}
