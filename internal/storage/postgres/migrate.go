package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/hongminglow/finance-dashboard-be/internal/storage/postgres/migrations"
)

// gooseRun is a seam for testing goose.RunContext.
var gooseRun = func(ctx context.Context, command string, s *Store) error {
	db := stdlib.OpenDBFromPool(s.pool)
	defer db.Close()
	return goose.RunContext(ctx, command, db, ".")
}

// Migrate runs a goose command ("up", "down", "status") against the
// embedded migrations.
func (s *Store) Migrate(ctx context.Context, command string) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := gooseRun(ctx, command, s); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}
