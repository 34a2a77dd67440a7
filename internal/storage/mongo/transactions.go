package mongostore

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hongminglow/finance-dashboard-be/internal/models"
	"github.com/hongminglow/finance-dashboard-be/internal/transactions"
)

var _ transactions.Repository = (*Store)(nil)

type transactionDoc struct {
	ID       string    `bson:"_id"`
	Date     time.Time `bson:"date"`
	Amount   float64   `bson:"amount"`
	Category string    `bson:"category"`
	Status   string    `bson:"status"`
	UserID   string    `bson:"user_id"`
}

func newTransactionDoc(tx models.Transaction) transactionDoc {
	return transactionDoc{
		ID:       tx.ID,
		Date:     tx.Date.UTC(),
		Amount:   tx.Amount,
		Category: tx.Category,
		Status:   tx.Status,
		UserID:   tx.UserID,
	}
}

func (d transactionDoc) transaction() models.Transaction {
	return models.Transaction{
		ID:       d.ID,
		Date:     d.Date.UTC(),
		Amount:   d.Amount,
		Category: d.Category,
		Status:   d.Status,
		UserID:   d.UserID,
	}
}

// ListTransactions returns the rows matching f, newest first.
func (s *Store) ListTransactions(ctx context.Context, f transactions.Filter) ([]models.Transaction, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: 1}})
	cur, err := s.db.Collection(transactionsCollection).Find(ctx, transactionFilter(f), opts)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer cur.Close(ctx)

	var docs []transactionDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode transactions: %w", err)
	}
	out := make([]models.Transaction, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.transaction())
	}
	return out, nil
}

func transactionFilter(f transactions.Filter) bson.M {
	filter := bson.M{}

	date := bson.M{}
	if f.From != nil {
		date["$gte"] = *f.From
	}
	if f.To != nil {
		date["$lt"] = f.To.AddDate(0, 0, 1)
	}
	if len(date) > 0 {
		filter["date"] = date
	}

	if f.Status != "" {
		filter["status"] = equalFold(f.Status)
	}
	if f.Category != "" {
		filter["category"] = equalFold(f.Category)
	}
	if f.UserID != "" {
		filter["user_id"] = f.UserID
	}

	var exprs bson.A
	abs := bson.M{"$abs": "$amount"}
	if f.MinAmount != nil {
		exprs = append(exprs, bson.M{"$gte": bson.A{abs, *f.MinAmount}})
	}
	if f.MaxAmount != nil {
		exprs = append(exprs, bson.M{"$lte": bson.A{abs, *f.MaxAmount}})
	}
	if len(exprs) > 0 {
		filter["$expr"] = bson.M{"$and": exprs}
	}
	return filter
}

func equalFold(s string) primitive.Regex {
	return primitive.Regex{Pattern: "^" + regexp.QuoteMeta(s) + "$", Options: "i"}
}
