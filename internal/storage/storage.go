package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/hongminglow/finance-dashboard-be/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrDuplicateIdentifier indicates a uniqueness conflict on a login identifier.
var ErrDuplicateIdentifier = errors.New("duplicate identifier")

// Identifier fields guarded by unique indexes.
const (
	FieldEmail    = "email"
	FieldUsername = "username"
)

// DuplicateError reports which unique field rejected an insert.
type DuplicateError struct {
	Field string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s: %s", ErrDuplicateIdentifier, e.Field)
}

func (e *DuplicateError) Unwrap() error { return ErrDuplicateIdentifier }

// DuplicateField returns the field named by a duplicate error, or "" when
// err is not a uniqueness conflict.
func DuplicateField(err error) string {
	var dup *DuplicateError
	if errors.As(err, &dup) {
		return dup.Field
	}
	return ""
}

// UserStore captures persistence operations needed by the authenticator
// and the authorization middleware.
type UserStore interface {
	CreateUser(ctx context.Context, user models.NewUser) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.Credential, error)
	FindByID(ctx context.Context, id string) (models.User, error)
	Ping(ctx context.Context) error
}
