package transactions

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/hongminglow/finance-dashboard-be/internal/models"
)

// Column names accepted by Project, in their default order.
const (
	ColumnID       = "id"
	ColumnDate     = "date"
	ColumnAmount   = "amount"
	ColumnCategory = "category"
	ColumnStatus   = "status"
	ColumnUserID   = "user_id"
)

// Columns is the full export column set in display order.
var Columns = []string{ColumnID, ColumnDate, ColumnAmount, ColumnCategory, ColumnStatus, ColumnUserID}

// DefaultFilename is used when no usable filename is supplied.
const DefaultFilename = "financial_transactions"

// Export formats.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

var (
	ErrUnknownColumn = errors.New("unknown column")
	ErrUnknownFormat = errors.New("unknown export format")
)

// Table is a projection of transactions onto a chosen set of columns.
type Table struct {
	Columns []string
	Rows    [][]any
}

// ParseColumns splits a comma separated column list. An empty list selects
// every column.
func ParseColumns(raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return append([]string(nil), Columns...), nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, part := range strings.Split(raw, ",") {
		col := strings.ToLower(strings.TrimSpace(part))
		if col == "" || seen[col] {
			continue
		}
		if !knownColumn(col) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, col)
		}
		seen[col] = true
		out = append(out, col)
	}
	if len(out) == 0 {
		return append([]string(nil), Columns...), nil
	}
	return out, nil
}

// ParseFormat accepts "csv" or "json", defaulting to csv.
func ParseFormat(raw string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(raw)); f {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, raw)
	}
}

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// Filename builds a download filename with the format's extension.
func Filename(base, format string) string {
	base = strings.TrimSuffix(strings.TrimSpace(base), "."+format)
	base = strings.Trim(unsafeFilename.ReplaceAllString(base, "_"), "_")
	if base == "" {
		base = DefaultFilename
	}
	return base + "." + format
}

func knownColumn(col string) bool {
	for _, c := range Columns {
		if c == col {
			return true
		}
	}
	return false
}

// Project keeps only the requested columns of each row.
func Project(rows []models.Transaction, columns []string) (Table, error) {
	for _, c := range columns {
		if !knownColumn(c) {
			return Table{}, fmt.Errorf("%w: %q", ErrUnknownColumn, c)
		}
	}
	t := Table{Columns: columns, Rows: make([][]any, 0, len(rows))}
	for _, tx := range rows {
		row := make([]any, len(columns))
		for i, c := range columns {
			row[i] = value(tx, c)
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

func value(tx models.Transaction, col string) any {
	switch col {
	case ColumnID:
		return tx.ID
	case ColumnDate:
		return tx.Date.UTC().Format(DateLayout)
	case ColumnAmount:
		return tx.Amount
	case ColumnCategory:
		return tx.Category
	case ColumnStatus:
		return tx.Status
	case ColumnUserID:
		return tx.UserID
	}
	return nil
}

// Records returns the rows as column-keyed maps.
func (t Table) Records() []map[string]any {
	out := make([]map[string]any, 0, len(t.Rows))
	for _, row := range t.Rows {
		rec := make(map[string]any, len(t.Columns))
		for i, c := range t.Columns {
			rec[c] = row[i]
		}
		out = append(out, rec)
	}
	return out
}

// WriteCSV writes a header line followed by one line per row.
func WriteCSV(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return err
	}
	record := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i, v := range row {
			record[i] = formatCell(v)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes the rows as an indented array of objects.
func WriteJSON(w io.Writer, t Table) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(t.Records())
}

func formatCell(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', 2, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(x)
	}
}
