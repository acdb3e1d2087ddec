package userstore

// Terminology: User Identifiers
//   - UserID / userID / user_id: the UUID primary key of a users row
//   - LoginID / loginID / login_id: the human-readable string users type to sign in

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dalemusser/retroboard/internal/app/system/database"
	"github.com/dalemusser/retroboard/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"gorm.io/gorm"
)

var (
	ErrNotFound         = errors.New("user not found")
	ErrDuplicateLoginID = errors.New("a user with this login id already exists")
	ErrEmailNotVerified = errors.New("google email is not verified")
	ErrLinkRefused      = errors.New("account cannot be linked to google")
	errBadStatus        = errors.New(`status must be "active"|"disabled"`)
	errBadAuthMethod    = errors.New(`auth method must be "trust"|"password"|"google"`)
	errLoginIDRequired  = errors.New("login id is required")
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// GetByID loads a user by id.
func (s *Store) GetByID(ctx context.Context, id string) (*models.User, error) {
	return s.first(ctx, "id = ?", id)
}

// GetByLoginID looks a user up by case/diacritic-folded login id.
func (s *Store) GetByLoginID(ctx context.Context, loginID string) (*models.User, error) {
	return s.first(ctx, "login_id_ci = ?", text.Fold(strings.TrimSpace(loginID)))
}

// GetByGoogleID looks a user up by Google subject id.
func (s *Store) GetByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	return s.first(ctx, "google_id = ?", googleID)
}

func (s *Store) first(ctx context.Context, query string, args ...any) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).Where(query, args...).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	return &u, nil
}

// Create inserts a new user after normalizing & validating fields.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	u.LoginID = strings.TrimSpace(u.LoginID)
	if u.LoginID == "" {
		return models.User{}, errLoginIDRequired
	}
	u.LoginIDCI = text.Fold(u.LoginID)
	u.Name = strings.TrimSpace(u.Name)
	if u.Name == "" {
		u.Name = u.LoginID
	}
	if u.Status == "" {
		u.Status = "active"
	}
	if u.AuthMethod == "" {
		u.AuthMethod = "trust"
	}

	switch u.Status {
	case "active", "disabled":
	default:
		return models.User{}, errBadStatus
	}
	switch u.AuthMethod {
	case "trust", "password", "google":
	default:
		return models.User{}, errBadAuthMethod
	}

	if err := s.db.WithContext(ctx).Create(&u).Error; err != nil {
		if database.IsDuplicate(err) {
			return models.User{}, ErrDuplicateLoginID
		}
		return models.User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// FindOrCreateTrust returns the user with loginID, creating a trust-login
// account named name on first use.
func (s *Store) FindOrCreateTrust(ctx context.Context, loginID, name string) (*models.User, bool, error) {
	u, err := s.GetByLoginID(ctx, loginID)
	if err == nil {
		return u, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	created, err := s.Create(ctx, models.User{LoginID: loginID, Name: name, AuthMethod: "trust"})
	if errors.Is(err, ErrDuplicateLoginID) {
		// Lost a race with a concurrent first sign-in.
		u, err := s.GetByLoginID(ctx, loginID)
		return u, false, err
	}
	if err != nil {
		return nil, false, err
	}
	return &created, true, nil
}

// GoogleProfile is the subset of the Google userinfo response we keep.
type GoogleProfile struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}

// UpsertGoogle returns the user linked to p.Subject. On first sign-in a
// password account whose login id matches the verified Google email is
// linked and switched to Google sign-in; otherwise a new google user is
// created and created is true. Trust accounts and accounts already linked
// to another Google subject are never linked (ErrLinkRefused), and an
// unverified email neither links nor creates (ErrEmailNotVerified).
func (s *Store) UpsertGoogle(ctx context.Context, p GoogleProfile) (u *models.User, created bool, err error) {
	if u, err := s.GetByGoogleID(ctx, p.Subject); err == nil {
		return u, false, nil
	} else if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	if !p.EmailVerified {
		return nil, false, ErrEmailNotVerified
	}

	u, err = s.GetByLoginID(ctx, p.Email)
	switch {
	case err == nil:
		if u.AuthMethod != "password" || u.GoogleID != nil {
			return nil, false, ErrLinkRefused
		}
		return s.linkGoogle(ctx, u, p)
	case !errors.Is(err, ErrNotFound):
		return nil, false, err
	}

	sub, email := p.Subject, p.Email
	c, err := s.Create(ctx, models.User{
		Name:       p.Name,
		LoginID:    p.Email,
		Email:      &email,
		Image:      p.Picture,
		AuthMethod: "google",
		GoogleID:   &sub,
	})
	if err != nil {
		return nil, false, err
	}
	return &c, true, nil
}

func (s *Store) linkGoogle(ctx context.Context, u *models.User, p GoogleProfile) (*models.User, bool, error) {
	sub := p.Subject
	upd := map[string]any{
		"google_id":     &sub,
		"auth_method":   "google",
		"password_hash": "",
	}
	if u.Email == nil {
		email := p.Email
		upd["email"] = &email
		u.Email = &email
	}
	if u.Image == "" && p.Picture != "" {
		upd["image"] = p.Picture
		u.Image = p.Picture
	}
	// The auth_method guard keeps a concurrent link from winning twice.
	res := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND auth_method = ?", u.ID, "password").
		Updates(upd)
	if res.Error != nil {
		if database.IsDuplicate(res.Error) {
			return nil, false, ErrLinkRefused
		}
		return nil, false, fmt.Errorf("link google account: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, false, ErrLinkRefused
	}
	u.GoogleID = &sub
	u.AuthMethod = "google"
	u.PasswordHash = ""
	return u, false, nil
}
