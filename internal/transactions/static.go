package transactions

import (
	"context"

	"github.com/hongminglow/finance-dashboard-be/internal/models"
)

// StaticRepository serves a fixed, in-memory set of rows.
type StaticRepository struct {
	rows []models.Transaction
}

// NewStaticRepository copies rows into a new repository.
func NewStaticRepository(rows []models.Transaction) *StaticRepository {
	return &StaticRepository{rows: append([]models.Transaction(nil), rows...)}
}

func (r *StaticRepository) ListTransactions(ctx context.Context, f Filter) ([]models.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]models.Transaction, 0, len(r.rows))
	for _, tx := range r.rows {
		if f.Match(tx) {
			out = append(out, tx)
		}
	}
	Sort(out)
	return out, nil
}
