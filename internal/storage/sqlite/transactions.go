package sqlitestore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/hongminglow/finance-dashboard-be/internal/models"
	"github.com/hongminglow/finance-dashboard-be/internal/transactions"
)

var _ transactions.Repository = (*Store)(nil)

type transactionRow struct {
	ID       string    `gorm:"primaryKey;type:text"`
	Date     time.Time `gorm:"index;not null"`
	Amount   float64   `gorm:"not null"`
	Category string    `gorm:"size:64;not null"`
	Status   string    `gorm:"size:64;not null"`
	UserID   string    `gorm:"index;size:64;not null"`
}

func (transactionRow) TableName() string { return "transactions" }

// ListTransactions returns the rows matching f, newest first.
func (s *Store) ListTransactions(ctx context.Context, f transactions.Filter) ([]models.Transaction, error) {
	var rows []transactionRow
	q := applyFilter(s.db.WithContext(ctx).Model(&transactionRow{}), f)
	if err := q.Order("date DESC").Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	out := make([]models.Transaction, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.Transaction{
			ID:       r.ID,
			Date:     r.Date.UTC(),
			Amount:   r.Amount,
			Category: r.Category,
			Status:   r.Status,
			UserID:   r.UserID,
		})
	}
	return out, nil
}

func applyFilter(q *gorm.DB, f transactions.Filter) *gorm.DB {
	if f.From != nil {
		q = q.Where("date >= ?", f.From.UTC())
	}
	if f.To != nil {
		q = q.Where("date < ?", f.To.UTC().AddDate(0, 0, 1))
	}
	if f.Status != "" {
		q = q.Where("lower(status) = ?", strings.ToLower(f.Status))
	}
	if f.Category != "" {
		q = q.Where("lower(category) = ?", strings.ToLower(f.Category))
	}
	if f.MinAmount != nil {
		q = q.Where("abs(amount) >= ?", *f.MinAmount)
	}
	if f.MaxAmount != nil {
		q = q.Where("abs(amount) <= ?", *f.MaxAmount)
	}
	if f.UserID != "" {
		q = q.Where("user_id = ?", f.UserID)
	}
	return q
}
