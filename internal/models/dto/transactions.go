package dto

type TransactionListResponse struct {
	Columns []string         `json:"columns"`
	Count   int              `json:"count"`
	Rows    []map[string]any `json:"rows"`
}
