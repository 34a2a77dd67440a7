package sqlitestore

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm/clause"

	"github.com/hongminglow/finance-dashboard-be/internal/transactions"
)

func tables() []any {
	return []any{&userRow{}, &transactionRow{}}
}

// Migrate runs "up" (AutoMigrate and seed), "down" (drop tables) or
// "status".
func (s *Store) Migrate(ctx context.Context, command string) error {
	db := s.db.WithContext(ctx)
	switch command {
	case "up":
		for _, m := range tables() {
			if err := db.AutoMigrate(m); err != nil {
				return fmt.Errorf("auto migrate: %w", err)
			}
		}
		return s.seedTransactions(ctx)
	case "down":
		return db.Migrator().DropTable(tables()...)
	case "status":
		for _, name := range []string{userRow{}.TableName(), transactionRow{}.TableName()} {
			zap.L().Info("table", zap.String("name", name), zap.Bool("exists", db.Migrator().HasTable(name)))
		}
		return nil
	default:
		return fmt.Errorf("unknown migration command %q", command)
	}
}

func (s *Store) seedTransactions(ctx context.Context) error {
	sample, err := transactions.SampleTransactions()
	if err != nil {
		return err
	}
	rows := make([]transactionRow, 0, len(sample))
	for _, tx := range sample {
		rows = append(rows, transactionRow{
			ID:       tx.ID,
			Date:     tx.Date.UTC(),
			Amount:   tx.Amount,
			Category: tx.Category,
			Status:   tx.Status,
			UserID:   tx.UserID,
		})
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
	if err != nil {
		return fmt.Errorf("seed transactions: %w", err)
	}
	return nil
}
