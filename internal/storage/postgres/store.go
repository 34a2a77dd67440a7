package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hongminglow/finance-dashboard-be/internal/models"
	"github.com/hongminglow/finance-dashboard-be/internal/normalize"
	"github.com/hongminglow/finance-dashboard-be/internal/storage"
)

// Ensure Store satisfies the storage.UserStore interface at compile time.
var _ storage.UserStore = (*Store)(nil)

const uniqueViolation = "23505"

// Unique constraint names from 00001_create_users.sql.
const (
	emailConstraint    = "users_email_key"
	usernameConstraint = "users_username_key"
)

// Store provides Postgres-backed persistence for users and transactions.
type Store struct {
	pool *pgxpool.Pool
}

// NewUserStore connects to databaseURL and verifies the connection. Schema
// migrations are not applied; run cmd/migrate first.
func NewUserStore(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Close releases database resources.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

const userColumns = `id, email, username, first_name, last_name, created_at, updated_at`

// CreateUser inserts a new user row.
func (s *Store) CreateUser(ctx context.Context, user models.NewUser) (models.User, error) {
	const query = `
		INSERT INTO users (id, email, username, first_name, last_name, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		RETURNING ` + userColumns

	now := time.Now().UTC()
	row := s.pool.QueryRow(ctx, query,
		uuid.NewString(),
		normalize.Email(user.Email),
		user.Username,
		user.FirstName,
		user.LastName,
		user.PasswordHash,
		now,
	)
	created, err := scanUser(row)
	if err != nil {
		if dup := duplicateError(err); dup != nil {
			return models.User{}, dup
		}
		return models.User{}, err
	}
	return created, nil
}

// FindByEmail fetches a user and its password hash by email address.
func (s *Store) FindByEmail(ctx context.Context, email string) (models.Credential, error) {
	const query = `SELECT ` + userColumns + `, password_hash FROM users WHERE email = $1`

	var cred models.Credential
	err := s.pool.QueryRow(ctx, query, normalize.Email(email)).Scan(
		&cred.ID, &cred.Email, &cred.Username, &cred.FirstName, &cred.LastName,
		&cred.CreatedAt, &cred.UpdatedAt, &cred.PasswordHash,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Credential{}, storage.ErrNotFound
		}
		return models.Credential{}, err
	}
	return cred, nil
}

// FindByID fetches a user by id. Ids that are not UUIDs are reported as
// not found.
func (s *Store) FindByID(ctx context.Context, id string) (models.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return models.User{}, storage.ErrNotFound
	}
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(s.pool.QueryRow(ctx, query, id))
}

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	if err := row.Scan(&user.ID, &user.Email, &user.Username, &user.FirstName, &user.LastName, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, storage.ErrNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

// duplicateError maps a unique violation to the field that caused it.
func duplicateError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return nil
	}
	switch pgErr.ConstraintName {
	case emailConstraint:
		return &storage.DuplicateError{Field: storage.FieldEmail}
	case usernameConstraint:
		return &storage.DuplicateError{Field: storage.FieldUsername}
	default:
		return fmt.Errorf("%w: %s", storage.ErrDuplicateIdentifier, pgErr.ConstraintName)
	}
}
