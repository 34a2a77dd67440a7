// Package sqlitestore is the single-file development backend, built on
// gorm with the sqlite driver.
package sqlitestore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/hongminglow/finance-dashboard-be/internal/models"
	"github.com/hongminglow/finance-dashboard-be/internal/normalize"
	"github.com/hongminglow/finance-dashboard-be/internal/storage"
)

var _ storage.UserStore = (*Store)(nil)

// userRow is the persisted user record.
type userRow struct {
	ID           string  `gorm:"primaryKey;type:text"`
	Email        string  `gorm:"uniqueIndex:users_email_key;size:320;not null"`
	Username     *string `gorm:"uniqueIndex:users_username_key;size:64"`
	FirstName    string  `gorm:"size:120;not null;default:''"`
	LastName     string  `gorm:"size:120;not null;default:''"`
	PasswordHash string  `gorm:"size:255;not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (userRow) TableName() string { return "users" }

func (r userRow) user() models.User {
	return models.User{
		ID:        r.ID,
		Email:     r.Email,
		Username:  r.Username,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

// Store is a gorm-backed UserStore and transactions.Repository.
type Store struct {
	db *gorm.DB
}

// NewStore opens the database at dsn. A plain path gets its directory
// created and WAL pragmas appended; "file:" URIs are used as given.
func NewStore(ctx context.Context, dsn string, debug bool) (*Store, error) {
	if !strings.HasPrefix(dsn, "file:") {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
		dsn += "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"
	}

	gormLogger := logger.Discard
	if debug {
		gormLogger = logger.Default
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite allows one writer; a single connection also keeps in-memory
	// databases alive for the life of the store.
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks that the database file is usable.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// CreateUser inserts a user row.
func (s *Store) CreateUser(ctx context.Context, user models.NewUser) (models.User, error) {
	now := time.Now().UTC()
	row := userRow{
		ID:           uuid.NewString(),
		Email:        normalize.Email(user.Email),
		Username:     user.Username,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		PasswordHash: user.PasswordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if dup := duplicateError(err); dup != nil {
			return models.User{}, dup
		}
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}
	return row.user(), nil
}

// FindByEmail fetches a user and its password hash by email address.
func (s *Store) FindByEmail(ctx context.Context, email string) (models.Credential, error) {
	var row userRow
	err := s.db.WithContext(ctx).Where("email = ?", normalize.Email(email)).Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Credential{}, storage.ErrNotFound
		}
		return models.Credential{}, err
	}
	return models.Credential{User: row.user(), PasswordHash: row.PasswordHash}, nil
}

// FindByID fetches a user by id.
func (s *Store) FindByID(ctx context.Context, id string) (models.User, error) {
	var row userRow
	err := s.db.WithContext(ctx).Omit("password_hash").Where("id = ?", id).Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, storage.ErrNotFound
		}
		return models.User{}, err
	}
	return row.user(), nil
}

// duplicateError maps "UNIQUE constraint failed: users.<col>" to the
// offending field.
func duplicateError(err error) error {
	var sqlErr sqlite3.Error
	if !errors.As(err, &sqlErr) || sqlErr.ExtendedCode != sqlite3.ErrConstraintUnique {
		return nil
	}
	msg := sqlErr.Error()
	switch {
	case strings.Contains(msg, "users.username"):
		return &storage.DuplicateError{Field: storage.FieldUsername}
	case strings.Contains(msg, "users.email"):
		return &storage.DuplicateError{Field: storage.FieldEmail}
	default:
		return fmt.Errorf("%w: %s", storage.ErrDuplicateIdentifier, msg)
	}
}
