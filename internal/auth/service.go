package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/hongminglow/finance-dashboard-be/internal/models"
	"github.com/hongminglow/finance-dashboard-be/internal/normalize"
	"github.com/hongminglow/finance-dashboard-be/internal/storage"
)

// RegisterInput is the raw registration payload.
type RegisterInput struct {
	Username        string
	FirstName       string
	LastName        string
	Email           string
	Password        string
	ConfirmPassword string
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      models.User
}

// Service orchestrates registration, login and token resolution.
type Service struct {
	users    storage.UserStore
	hasher   *PasswordHasher
	tokens   *TokenManager
	tokenTTL time.Duration
	validate *validator.Validate
	log      *zap.Logger

	// dummyHash is compared against when an email is unknown so login
	// latency matches the known-account path.
	dummyHash string
}

// NewService wires the authenticator. tokenTTL must be positive.
func NewService(users storage.UserStore, hasher *PasswordHasher, tokens *TokenManager, tokenTTL time.Duration, log *zap.Logger) (*Service, error) {
	if tokenTTL <= 0 {
		return nil, fmt.Errorf("token ttl must be positive, got %s", tokenTTL)
	}
	if log == nil {
		log = zap.NewNop()
	}
	dummy, err := hasher.Hash(context.Background(), "dummy-password")
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}
	return &Service{
		users:     users,
		hasher:    hasher,
		tokens:    tokens,
		tokenTTL:  tokenTTL,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		log:       log,
		dummyHash: dummy,
	}, nil
}

// Register validates the input and creates a new account. It does not
// issue a token; callers log in separately.
func (s *Service) Register(ctx context.Context, in RegisterInput) (models.User, error) {
	if in.Password != in.ConfirmPassword {
		return models.User{}, ErrPasswordMismatch
	}

	email := normalize.Email(in.Email)
	if err := s.validate.Var(email, "required,email,max=254"); err != nil {
		return models.User{}, fmt.Errorf("%w: a valid email is required", ErrInvalidInput)
	}

	var username *string
	if u := normalize.Username(in.Username); u != "" {
		if err := s.validate.Var(u, "min=3,max=32"); err != nil || strings.ContainsAny(u, " @") {
			return models.User{}, fmt.Errorf("%w: username must be 3-32 characters without spaces or @", ErrInvalidInput)
		}
		username = &u
	}

	hash, err := s.hasher.Hash(ctx, in.Password)
	if err != nil {
		return models.User{}, err
	}

	created, err := s.users.CreateUser(ctx, models.NewUser{
		Email:        email,
		Username:     username,
		FirstName:    normalize.Name(in.FirstName),
		LastName:     normalize.Name(in.LastName),
		PasswordHash: hash,
	})
	if err != nil {
		switch storage.DuplicateField(err) {
		case storage.FieldEmail:
			return models.User{}, ErrEmailInUse
		case storage.FieldUsername:
			return models.User{}, ErrUsernameInUse
		}
		if errors.Is(err, storage.ErrDuplicateIdentifier) {
			return models.User{}, ErrEmailInUse
		}
		return models.User{}, fmt.Errorf("%w: create user: %v", ErrStorageUnavailable, err)
	}

	s.log.Info("user registered", zap.String("user_id", created.ID))
	return created, nil
}

// Login checks the credentials and issues a bearer token. Every credential
// failure is reported as ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = normalize.Email(email)
	if email == "" || password == "" {
		return LoginResult{}, ErrInvalidCredentials
	}

	cred, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			_, _ = s.hasher.Verify(ctx, password, s.dummyHash)
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, fmt.Errorf("%w: find user: %v", ErrStorageUnavailable, err)
	}

	ok, err := s.hasher.Verify(ctx, password, cred.PasswordHash)
	if err != nil {
		if errors.Is(err, ErrCorruptCredential) {
			s.log.Error("stored password hash is corrupt", zap.String("user_id", cred.User.ID))
		}
		return LoginResult{}, err
	}
	if !ok {
		return LoginResult{}, ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Issue(Claims{UserID: cred.User.ID, Email: cred.User.Email}, s.tokenTTL)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Token: token, ExpiresAt: expiresAt, User: cred.User}, nil
}

// Resolve verifies a bearer token and loads the user it names. A token for
// an account that no longer exists is reported as ErrTokenMalformed.
func (s *Service) Resolve(ctx context.Context, token string) (models.User, error) {
	if token == "" {
		return models.User{}, ErrNoToken
	}
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return models.User{}, err
	}
	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.User{}, fmt.Errorf("%w: unknown subject", ErrTokenMalformed)
		}
		return models.User{}, fmt.Errorf("%w: find user: %v", ErrStorageUnavailable, err)
	}
	return user, nil
}
