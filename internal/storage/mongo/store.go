// Package mongostore provides MongoDB-backed persistence for users and
// transactions.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/hongminglow/finance-dashboard-be/internal/models"
	"github.com/hongminglow/finance-dashboard-be/internal/normalize"
	"github.com/hongminglow/finance-dashboard-be/internal/storage"
)

var _ storage.UserStore = (*Store)(nil)

const (
	usersCollection        = "users"
	transactionsCollection = "transactions"
	migrationsCollection   = "schema_migrations"

	emailIndex    = "users_email_unique"
	usernameIndex = "users_username_unique"
)

// Store wraps a MongoDB database.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

type userDoc struct {
	ID           primitive.ObjectID `bson:"_id"`
	Email        string             `bson:"email"`
	Username     *string            `bson:"username,omitempty"`
	FirstName    string             `bson:"first_name"`
	LastName     string             `bson:"last_name"`
	PasswordHash string             `bson:"password_hash"`
	CreatedAt    time.Time          `bson:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at"`
}

func (d userDoc) user() models.User {
	return models.User{
		ID:        d.ID.Hex(),
		Email:     d.Email,
		Username:  d.Username,
		FirstName: d.FirstName,
		LastName:  d.LastName,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// NewStore connects to uri and selects database dbName. Indexes are
// created by Migrate, not here.
func NewStore(ctx context.Context, uri, dbName string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &Store{client: client, db: client.Database(dbName)}, nil
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Ping checks that the primary is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Store) users() *mongo.Collection { return s.db.Collection(usersCollection) }

// CreateUser inserts a user document. Uniqueness is enforced by the
// users_email_unique and users_username_unique indexes.
func (s *Store) CreateUser(ctx context.Context, user models.NewUser) (models.User, error) {
	now := time.Now().UTC().Truncate(time.Millisecond)
	doc := userDoc{
		ID:           primitive.NewObjectID(),
		Email:        normalize.Email(user.Email),
		Username:     user.Username,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		PasswordHash: user.PasswordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := s.users().InsertOne(ctx, doc); err != nil {
		if dup := duplicateError(err); dup != nil {
			return models.User{}, dup
		}
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}
	return doc.user(), nil
}

// FindByEmail fetches a user and its password hash by email address.
func (s *Store) FindByEmail(ctx context.Context, email string) (models.Credential, error) {
	var doc userDoc
	if err := s.users().FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Credential{}, storage.ErrNotFound
		}
		return models.Credential{}, err
	}
	return models.Credential{User: doc.user(), PasswordHash: doc.PasswordHash}, nil
}

// FindByID fetches a user by its ObjectID hex. Other ids are not found.
func (s *Store) FindByID(ctx context.Context, id string) (models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.User{}, storage.ErrNotFound
	}
	var doc userDoc
	proj := options.FindOne().SetProjection(bson.M{"password_hash": 0})
	if err := s.users().FindOne(ctx, bson.M{"_id": oid}, proj).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.User{}, storage.ErrNotFound
		}
		return models.User{}, err
	}
	return doc.user(), nil
}

// duplicateError maps an E11000 error to the field whose index rejected
// the write. The index name appears in the server message.
func duplicateError(err error) error {
	if !mongo.IsDuplicateKeyError(err) {
		return nil
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, usernameIndex), strings.Contains(msg, legacyUsernameIndex):
		return &storage.DuplicateError{Field: storage.FieldUsername}
	case strings.Contains(msg, emailIndex), strings.Contains(msg, legacyEmailIndex):
		return &storage.DuplicateError{Field: storage.FieldEmail}
	default:
		return fmt.Errorf("%w: %s", storage.ErrDuplicateIdentifier, msg)
	}
}
