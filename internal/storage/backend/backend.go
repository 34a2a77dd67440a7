// Package backend opens the storage driver selected by configuration.
package backend

import (
	"context"
	"fmt"

	"github.com/hongminglow/finance-dashboard-be/internal/config"
	"github.com/hongminglow/finance-dashboard-be/internal/storage"
	mongostore "github.com/hongminglow/finance-dashboard-be/internal/storage/mongo"
	"github.com/hongminglow/finance-dashboard-be/internal/storage/postgres"
	sqlitestore "github.com/hongminglow/finance-dashboard-be/internal/storage/sqlite"
	"github.com/hongminglow/finance-dashboard-be/internal/transactions"
)

// Store is what every driver provides.
type Store interface {
	storage.UserStore
	transactions.Repository
	Migrate(ctx context.Context, command string) error
}

// Backend is an opened driver plus its shutdown hook.
type Backend struct {
	Store
	close func(ctx context.Context) error
}

// Close releases the driver's connections.
func (b *Backend) Close(ctx context.Context) error {
	if b.close == nil {
		return nil
	}
	return b.close(ctx)
}

// Open connects to the configured driver.
func Open(ctx context.Context, cfg config.Storage) (*Backend, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		s, err := postgres.NewUserStore(ctx, cfg.URL)
		if err != nil {
			return nil, err
		}
		return &Backend{Store: s, close: func(context.Context) error { s.Close(); return nil }}, nil
	case config.DriverMongo:
		s, err := mongostore.NewStore(ctx, cfg.URL, cfg.Database)
		if err != nil {
			return nil, err
		}
		return &Backend{Store: s, close: s.Close}, nil
	case config.DriverSQLite:
		s, err := sqlitestore.NewStore(ctx, cfg.URL, cfg.Debug)
		if err != nil {
			return nil, err
		}
		return &Backend{Store: s, close: func(context.Context) error { return s.Close() }}, nil
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}
}
