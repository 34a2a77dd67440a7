package models

import "time"

// Transaction is a single ledger entry shown on the dashboard.
type Transaction struct {
	ID       string    `json:"id"`
	Date     time.Time `json:"date"`
	Amount   float64   `json:"amount"`
	Category string    `json:"category"`
	Status   string    `json:"status"`
	UserID   string    `json:"user_id"`
}
