package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/hongminglow/finance-dashboard-be/internal/transactions"
)

type migration struct {
	Version int
	Name    string
	Up      func(ctx context.Context, db *mongo.Database) error
	Down    func(ctx context.Context, db *mongo.Database) error
}

type appliedMigration struct {
	Version   int       `bson:"_id"`
	Name      string    `bson:"name"`
	AppliedAt time.Time `bson:"applied_at"`
}

// legacyUsernameIndex is the non-sparse index older deployments created
// on users.username. It rejects a second account without a username.
const legacyUsernameIndex = "username_1"

// legacyEmailIndex is the default-named email index older deployments
// created. MongoDB refuses a second index on the same key.
const legacyEmailIndex = "email_1"

const namespaceNotFound = 26

var migrationSteps = []migration{
	{
		Version: 1,
		Name:    "create_users_email_and_transactions_indexes",
		Up: func(ctx context.Context, db *mongo.Database) error {
			if err := ensureEmailIndex(ctx, db.Collection(usersCollection)); err != nil {
				return err
			}
			_, err := db.Collection(transactionsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
				{Keys: bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: 1}}, Options: options.Index().SetName("transactions_date")},
				{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: options.Index().SetName("transactions_user_id")},
			})
			return err
		},
		Down: func(ctx context.Context, db *mongo.Database) error {
			if err := dropIndexIfExists(ctx, db.Collection(transactionsCollection), "transactions_date"); err != nil {
				return err
			}
			if err := dropIndexIfExists(ctx, db.Collection(transactionsCollection), "transactions_user_id"); err != nil {
				return err
			}
			return dropIndexIfExists(ctx, db.Collection(usersCollection), emailIndex)
		},
	},
	{
		Version: 2,
		Name:    "drop_stale_username_index",
		Up: func(ctx context.Context, db *mongo.Database) error {
			return dropIndexIfExists(ctx, db.Collection(usersCollection), legacyUsernameIndex)
		},
		Down: func(context.Context, *mongo.Database) error { return nil },
	},
	{
		Version: 3,
		Name:    "create_users_username_sparse_index",
		Up: func(ctx context.Context, db *mongo.Database) error {
			_, err := db.Collection(usersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
				Keys:    bson.D{{Key: "username", Value: 1}},
				Options: options.Index().SetName(usernameIndex).SetUnique(true).SetSparse(true),
			})
			return err
		},
		Down: func(ctx context.Context, db *mongo.Database) error {
			return dropIndexIfExists(ctx, db.Collection(usersCollection), usernameIndex)
		},
	},
	{
		Version: 4,
		Name:    "seed_transactions",
		Up: func(ctx context.Context, db *mongo.Database) error {
			rows, err := transactions.SampleTransactions()
			if err != nil {
				return err
			}
			coll := db.Collection(transactionsCollection)
			for _, tx := range rows {
				_, err := coll.ReplaceOne(ctx, bson.M{"_id": tx.ID}, newTransactionDoc(tx), options.Replace().SetUpsert(true))
				if err != nil {
					return err
				}
			}
			return nil
		},
		Down: func(ctx context.Context, db *mongo.Database) error {
			rows, err := transactions.SampleTransactions()
			if err != nil {
				return err
			}
			ids := make(bson.A, 0, len(rows))
			for _, tx := range rows {
				ids = append(ids, tx.ID)
			}
			_, err = db.Collection(transactionsCollection).DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
			return err
		},
	},
}

// ensureEmailIndex creates the unique email index. A unique legacy
// email_1 index is kept as is; a non-unique one is replaced.
func ensureEmailIndex(ctx context.Context, users *mongo.Collection) error {
	legacy, err := findIndex(ctx, users, legacyEmailIndex)
	if err != nil {
		return err
	}
	if legacy != nil {
		if legacy.Unique != nil && *legacy.Unique {
			return nil
		}
		if _, err := users.Indexes().DropOne(ctx, legacyEmailIndex); err != nil {
			return err
		}
	}
	_, err = users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetName(emailIndex).SetUnique(true),
	})
	return err
}

// findIndex returns the named index, or nil when it or its collection does
// not exist.
func findIndex(ctx context.Context, coll *mongo.Collection, name string) (*mongo.IndexSpecification, error) {
	specs, err := coll.Indexes().ListSpecifications(ctx)
	if err != nil {
		var cmdErr mongo.CommandError
		if errors.As(err, &cmdErr) && cmdErr.Code == namespaceNotFound {
			return nil, nil
		}
		return nil, err
	}
	for _, spec := range specs {
		if spec.Name == name {
			return spec, nil
		}
	}
	return nil, nil
}

func dropIndexIfExists(ctx context.Context, coll *mongo.Collection, name string) error {
	spec, err := findIndex(ctx, coll, name)
	if err != nil || spec == nil {
		return err
	}
	_, err = coll.Indexes().DropOne(ctx, name)
	return err
}

// Migrate runs "up", "down" or "status" against the versioned steps
// recorded in the schema_migrations collection.
func (s *Store) Migrate(ctx context.Context, command string) error {
	return runMigrations(ctx, s.db, migrationSteps, command)
}

func runMigrations(ctx context.Context, db *mongo.Database, steps []migration, command string) error {
	applied, err := appliedVersions(ctx, db)
	if err != nil {
		return fmt.Errorf("load applied migrations: %w", err)
	}
	record := db.Collection(migrationsCollection)

	switch command {
	case "up":
		for _, m := range steps {
			if _, ok := applied[m.Version]; ok {
				continue
			}
			start := time.Now()
			if err := m.Up(ctx, db); err != nil {
				return fmt.Errorf("migration %d %s: %w", m.Version, m.Name, err)
			}
			if _, err := record.InsertOne(ctx, appliedMigration{Version: m.Version, Name: m.Name, AppliedAt: time.Now().UTC()}); err != nil {
				return fmt.Errorf("record migration %d: %w", m.Version, err)
			}
			zap.L().Info("migration applied",
				zap.Int("version", m.Version),
				zap.String("name", m.Name),
				zap.Duration("took", time.Since(start)))
		}
		return nil

	case "down":
		for i := len(steps) - 1; i >= 0; i-- {
			m := steps[i]
			if _, ok := applied[m.Version]; !ok {
				continue
			}
			if err := m.Down(ctx, db); err != nil {
				return fmt.Errorf("revert migration %d %s: %w", m.Version, m.Name, err)
			}
			if _, err := record.DeleteOne(ctx, bson.M{"_id": m.Version}); err != nil {
				return fmt.Errorf("unrecord migration %d: %w", m.Version, err)
			}
			zap.L().Info("migration reverted", zap.Int("version", m.Version), zap.String("name", m.Name))
			return nil
		}
		zap.L().Info("no migrations to revert")
		return nil

	case "status":
		for _, m := range steps {
			if a, ok := applied[m.Version]; ok {
				zap.L().Info("migration", zap.Int("version", m.Version), zap.String("name", m.Name), zap.Time("applied_at", a.AppliedAt))
			} else {
				zap.L().Info("migration", zap.Int("version", m.Version), zap.String("name", m.Name), zap.String("applied_at", "pending"))
			}
		}
		return nil

	default:
		return fmt.Errorf("unknown migration command %q", command)
	}
}

func appliedVersions(ctx context.Context, db *mongo.Database) (map[int]appliedMigration, error) {
	cur, err := db.Collection(migrationsCollection).Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make(map[int]appliedMigration)
	for cur.Next(ctx) {
		var a appliedMigration
		if err := cur.Decode(&a); err != nil {
			return nil, err
		}
		out[a.Version] = a
	}
	if err := cur.Err(); err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}
	return out, nil
}
