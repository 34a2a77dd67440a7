package transactions

import (
	_ "embed"
	"fmt"
	"sort"

	"github.com/goccy/go-json"

	"github.com/hongminglow/finance-dashboard-be/internal/models"
)

//go:embed seed.json
var seedJSON []byte

// SampleTransactions returns the demo dataset the dashboard ships with.
func SampleTransactions() ([]models.Transaction, error) {
	var rows []models.Transaction
	if err := json.Unmarshal(seedJSON, &rows); err != nil {
		return nil, fmt.Errorf("decode sample transactions: %w", err)
	}
	return rows, nil
}

// Sort orders rows by date descending, then id ascending.
func Sort(rows []models.Transaction) {
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].Date.Equal(rows[j].Date) {
			return rows[i].Date.After(rows[j].Date)
		}
		return rows[i].ID < rows[j].ID
	})
}
