// Package store persists JusticeHub entities in PostgreSQL through GORM.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/justicehub/platform/internal/model"
	"github.com/justicehub/platform/pkg/logger"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique constraint rejects an insert.
	ErrDuplicate = errors.New("duplicate record")
)

// Options tunes the connection pool.
type Options struct {
	MaxOpenConns int
	MaxIdleConns int
}

// Store wraps a GORM handle. All repository methods hang off it.
type Store struct {
	db     *gorm.DB
	logger *logger.Logger
}

// Open connects to PostgreSQL at dsn.
func Open(dsn string, opts Options, log *logger.Logger) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         newGormLogger(log.Component("gorm")),
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql handle: %w", err)
	}
	if opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return &Store{db: db, logger: log}, nil
}

// New wraps an existing GORM handle.
func New(db *gorm.DB, log *logger.Logger) *Store {
	return &Store{db: db, logger: log}
}

// Migrate creates or updates every table. Parents are migrated before
// children so foreign keys resolve.
func (s *Store) Migrate(ctx context.Context) error {
	err := s.db.WithContext(ctx).AutoMigrate(
		&model.LawyerProfile{},
		&model.LawyerEducation{},
		&model.Appointment{},
		&model.Consultation{},
		&model.DirectMessage{},
		&model.Chat{},
		&model.ChatMessage{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// translate maps GORM errors onto the package sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return err
	}
}
