package roomstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/retroboard/internal/domain/models"
	"gorm.io/gorm"
)

var (
	ErrNotFound      = errors.New("room not found")
	ErrAlreadyMember = errors.New("user is already a member")
	ErrNotMember     = errors.New("user is not a member")
)

// Store reads and writes rooms and their memberships. Construct it over a
// transaction handle to have every call take part in that transaction.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Create inserts room owned by ownerID, adds the owner as the first member
// and seeds categories in the given order.
func (s *Store) Create(ctx context.Context, room models.Room, ownerID string, categories []string) (models.Room, error) {
	db := s.db.WithContext(ctx)

	room.ID = ""
	room.OwnerID = ownerID
	room.Mutable = true
	if err := db.Omit("Owner", "Members", "Categories", "Cards", "Polls").Create(&room).Error; err != nil {
		return models.Room{}, fmt.Errorf("create room: %w", err)
	}
	if err := db.Exec("INSERT INTO room_members (room_id, user_id) VALUES (?, ?)", room.ID, ownerID).Error; err != nil {
		return models.Room{}, fmt.Errorf("add owner as member: %w", err)
	}

	for i, name := range categories {
		c := models.Category{Name: name, RoomID: room.ID, Position: i}
		if err := db.Omit("Room").Create(&c).Error; err != nil {
			return models.Room{}, fmt.Errorf("seed category %q: %w", name, err)
		}
	}
	return room, nil
}

// Get loads the bare room.
func (s *Store) Get(ctx context.Context, id string) (*models.Room, error) {
	var r models.Room
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load room: %w", err)
	}
	return &r, nil
}

// GetWithMembers loads the room and its members.
func (s *Store) GetWithMembers(ctx context.Context, id string) (*models.Room, error) {
	var r models.Room
	err := s.db.WithContext(ctx).Preload("Members").Where("id = ?", id).First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load room with members: %w", err)
	}
	return &r, nil
}

// GetExpanded loads the room with owner, members, categories, cards (with
// their creators) and polls. Categories are in board order; cards and
// polls in creation order. Empty associations are returned as empty
// slices, never nil.
func (s *Store) GetExpanded(ctx context.Context, id string) (*models.Room, error) {
	byCreated := func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }
	byPosition := func(db *gorm.DB) *gorm.DB { return db.Order("position ASC, created_at ASC") }

	var r models.Room
	err := s.db.WithContext(ctx).
		Preload("Owner").
		Preload("Members").
		Preload("Categories", byPosition).
		Preload("Cards", byCreated).
		Preload("Cards.Creator").
		Preload("Polls", byCreated).
		Where("id = ?", id).
		First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load expanded room: %w", err)
	}
	normalize(&r)
	return &r, nil
}

func normalize(r *models.Room) {
	if r.Members == nil {
		r.Members = []models.User{}
	}
	if r.Categories == nil {
		r.Categories = []models.Category{}
	}
	if r.Cards == nil {
		r.Cards = []models.Card{}
	}
	if r.Polls == nil {
		r.Polls = []models.Poll{}
	}
}

// Patch holds the room settings that can change. Nil fields are left alone.
type Patch struct {
	Mutable   *bool
	Anonymous *bool
}

// Update applies p to room id.
func (s *Store) Update(ctx context.Context, id string, p Patch) error {
	upd := map[string]any{}
	if p.Mutable != nil {
		upd["mutable"] = *p.Mutable
	}
	if p.Anonymous != nil {
		upd["anonymous"] = *p.Anonymous
	}
	if len(upd) == 0 {
		return nil
	}
	res := s.db.WithContext(ctx).Model(&models.Room{}).Where("id = ?", id).Updates(upd)
	if res.Error != nil {
		return fmt.Errorf("update room: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the room with its cards, categories, polls and
// memberships. Run it inside a transaction.
func (s *Store) Delete(ctx context.Context, id string) error {
	db := s.db.WithContext(ctx)

	for _, step := range []struct {
		what  string
		model any
	}{
		{"cards", &models.Card{}},
		{"categories", &models.Category{}},
		{"polls", &models.Poll{}},
	} {
		if err := db.Where("room_id = ?", id).Delete(step.model).Error; err != nil {
			return fmt.Errorf("delete room %s: %w", step.what, err)
		}
	}
	if err := db.Exec("DELETE FROM room_members WHERE room_id = ?", id).Error; err != nil {
		return fmt.Errorf("delete room members: %w", err)
	}

	res := db.Where("id = ?", id).Delete(&models.Room{})
	if res.Error != nil {
		return fmt.Errorf("delete room: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// IsMember reports whether userID belongs to room roomID.
func (s *Store) IsMember(ctx context.Context, roomID, userID string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Table("room_members").
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("check membership: %w", err)
	}
	return n > 0, nil
}

// AddMember adds userID to the room. ErrAlreadyMember if present.
func (s *Store) AddMember(ctx context.Context, roomID, userID string) error {
	ok, err := s.IsMember(ctx, roomID, userID)
	if err != nil {
		return err
	}
	if ok {
		return ErrAlreadyMember
	}
	if err := s.db.WithContext(ctx).Exec(
		"INSERT INTO room_members (room_id, user_id) VALUES (?, ?)", roomID, userID,
	).Error; err != nil {
		return fmt.Errorf("add member: %w", err)
	}
	return nil
}

// RemoveMember removes userID from the room. ErrNotMember if absent.
func (s *Store) RemoveMember(ctx context.Context, roomID, userID string) error {
	res := s.db.WithContext(ctx).Exec(
		"DELETE FROM room_members WHERE room_id = ? AND user_id = ?", roomID, userID,
	)
	if res.Error != nil {
		return fmt.Errorf("remove member: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotMember
	}
	return nil
}

// ListForUser returns rooms userID owns or has joined, newest first, with
// the owner loaded.
func (s *Store) ListForUser(ctx context.Context, userID string) ([]models.Room, error) {
	var rooms []models.Room
	err := s.db.WithContext(ctx).
		Preload("Owner").
		Where("owner_id = ? OR id IN (?)", userID,
			s.db.Table("room_members").Select("room_id").Where("user_id = ?", userID)).
		Order("created_at DESC").
		Find(&rooms).Error
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	if rooms == nil {
		rooms = []models.Room{}
	}
	return rooms, nil
}
