// Package testutil holds fakes and fixtures shared by package tests.
package testutil

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hongminglow/finance-dashboard-be/internal/models"
	"github.com/hongminglow/finance-dashboard-be/internal/normalize"
	"github.com/hongminglow/finance-dashboard-be/internal/storage"
)

// UserStore is an in-memory storage.UserStore. Uniqueness checks and the
// insert happen under one lock, mirroring a unique index.
type UserStore struct {
	mu         sync.Mutex
	byID       map[string]models.Credential
	byEmail    map[string]string
	byUsername map[string]string

	// Err, when set, is returned by every call.
	Err error
}

var _ storage.UserStore = (*UserStore)(nil)

// NewUserStore returns an empty store.
func NewUserStore() *UserStore {
	return &UserStore{
		byID:       make(map[string]models.Credential),
		byEmail:    make(map[string]string),
		byUsername: make(map[string]string),
	}
}

func (s *UserStore) CreateUser(_ context.Context, nu models.NewUser) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return models.User{}, s.Err
	}

	email := normalize.Email(nu.Email)
	if _, ok := s.byEmail[email]; ok {
		return models.User{}, &storage.DuplicateError{Field: storage.FieldEmail}
	}
	if nu.Username != nil {
		if _, ok := s.byUsername[*nu.Username]; ok {
			return models.User{}, &storage.DuplicateError{Field: storage.FieldUsername}
		}
	}

	now := time.Now().UTC()
	u := models.User{
		ID:        uuid.NewString(),
		Email:     email,
		Username:  nu.Username,
		FirstName: nu.FirstName,
		LastName:  nu.LastName,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.byID[u.ID] = models.Credential{User: u, PasswordHash: nu.PasswordHash}
	s.byEmail[email] = u.ID
	if nu.Username != nil {
		s.byUsername[*nu.Username] = u.ID
	}
	return u, nil
}

func (s *UserStore) FindByEmail(_ context.Context, email string) (models.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return models.Credential{}, s.Err
	}
	id, ok := s.byEmail[normalize.Email(email)]
	if !ok {
		return models.Credential{}, storage.ErrNotFound
	}
	return s.byID[id], nil
}

func (s *UserStore) FindByID(_ context.Context, id string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return models.User{}, s.Err
	}
	c, ok := s.byID[id]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return c.User, nil
}

func (s *UserStore) Ping(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Err
}

// Delete removes a user, simulating an account removed out-of-band.
func (s *UserStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byID[id]
	if !ok {
		return
	}
	delete(s.byID, id)
	delete(s.byEmail, c.User.Email)
	if c.User.Username != nil {
		delete(s.byUsername, *c.User.Username)
	}
}

// SetPasswordHash overwrites a stored hash, for corrupt-credential tests.
func (s *UserStore) SetPasswordHash(id, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byID[id]
	if !ok {
		return errors.New("no such user")
	}
	c.PasswordHash = hash
	s.byID[id] = c
	return nil
}

// Len reports how many users are stored.
func (s *UserStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}
