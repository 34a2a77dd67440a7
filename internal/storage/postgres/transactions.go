package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/hongminglow/finance-dashboard-be/internal/models"
	"github.com/hongminglow/finance-dashboard-be/internal/transactions"
)

var _ transactions.Repository = (*Store)(nil)

// ListTransactions returns the rows matching f, newest first.
func (s *Store) ListTransactions(ctx context.Context, f transactions.Filter) ([]models.Transaction, error) {
	where, args := transactionWhere(f)
	query := `SELECT id, date, amount::float8, category, status, user_id FROM transactions` +
		where + ` ORDER BY date DESC, id ASC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Transaction, error) {
		var tx models.Transaction
		err := row.Scan(&tx.ID, &tx.Date, &tx.Amount, &tx.Category, &tx.Status, &tx.UserID)
		return tx, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan transactions: %w", err)
	}
	return out, nil
}

// transactionWhere renders f as a WHERE clause with positional arguments.
func transactionWhere(f transactions.Filter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.From != nil {
		add("date >= $%d", *f.From)
	}
	if f.To != nil {
		add("date <= $%d", *f.To)
	}
	if f.Status != "" {
		add("lower(status) = $%d", strings.ToLower(f.Status))
	}
	if f.Category != "" {
		add("lower(category) = $%d", strings.ToLower(f.Category))
	}
	if f.MinAmount != nil {
		add("abs(amount) >= $%d", *f.MinAmount)
	}
	if f.MaxAmount != nil {
		add("abs(amount) <= $%d", *f.MaxAmount)
	}
	if f.UserID != "" {
		add("user_id = $%d", f.UserID)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
