// Package database opens the relational store and keeps its schema in
// step with internal/domain/models.
package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/retroboard/internal/domain/models"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var (
	ErrUnknownDriver   = errors.New("unknown database driver")
	ErrMigrationFailed = errors.New("failed to migrate")
)

// SupportedDrivers lists the accepted values for the db_driver setting.
var SupportedDrivers = []string{"sqlite"}

// Open connects to the database named by driver and dsn and verifies the
// connection with a ping.
func Open(ctx context.Context, driver, dsn string, logger *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch strings.ToLower(driver) {
	case "sqlite", "":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         NewGormLogger(logger, 200*time.Millisecond),
		NowFunc:        func() time.Time { return time.Now().UTC() },
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sql handle: %w", err)
	}
	// SQLite allows one writer; a single connection also keeps shared
	// in-memory databases alive.
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping %s database: %w", driver, err)
	}
	return db, nil
}

// IsDuplicate reports whether err is a unique-constraint violation.
func IsDuplicate(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks that the database answers within ctx.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Migrate creates or updates every table. AutoMigrate is additive and safe
// to run on each start.
func Migrate(ctx context.Context, db *gorm.DB, logger *zap.Logger) error {
	logger.Info("running database migrations")

	steps := []struct {
		name  string
		model any
	}{
		{"users", &models.User{}},
		{"rooms", &models.Room{}},
		{"categories", &models.Category{}},
		{"cards", &models.Card{}},
		{"polls", &models.Poll{}},
	}
	for _, s := range steps {
		if err := db.WithContext(ctx).AutoMigrate(s.model); err != nil {
			logger.Error("migration failed", zap.String("table", s.name), zap.Error(err))
			return fmt.Errorf("%w: %s: %v", ErrMigrationFailed, s.name, err)
		}
	}
	return nil
}
