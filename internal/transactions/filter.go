// Package transactions implements the read-only transaction query used by
// the dashboard table and the export endpoint: filtering, column
// projection and CSV/JSON encoding.
package transactions

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hongminglow/finance-dashboard-be/internal/models"
	"github.com/hongminglow/finance-dashboard-be/internal/normalize"
)

// DateLayout is the wire format for transaction dates.
const DateLayout = "2006-01-02"

// ErrInvalidFilter is returned for unparsable filter parameters.
var ErrInvalidFilter = errors.New("invalid filter")

// Repository lists transactions. Implementations must not mutate state
// and must return rows ordered by date descending, then id.
type Repository interface {
	ListTransactions(ctx context.Context, f Filter) ([]models.Transaction, error)
}

// Filter narrows a transaction listing. Zero values mean "any".
type Filter struct {
	From      *time.Time // inclusive, day granularity
	To        *time.Time // inclusive, day granularity
	Status    string     // lower-cased
	Category  string     // lower-cased
	MinAmount *float64   // compared against |amount|
	MaxAmount *float64   // compared against |amount|
	UserID    string
}

// Match reports whether t passes the filter.
func (f Filter) Match(t models.Transaction) bool {
	day := truncateDay(t.Date)
	if f.From != nil && day.Before(*f.From) {
		return false
	}
	if f.To != nil && day.After(*f.To) {
		return false
	}
	if f.Status != "" && !strings.EqualFold(t.Status, f.Status) {
		return false
	}
	if f.Category != "" && !strings.EqualFold(t.Category, f.Category) {
		return false
	}
	abs := math.Abs(t.Amount)
	if f.MinAmount != nil && abs < *f.MinAmount {
		return false
	}
	if f.MaxAmount != nil && abs > *f.MaxAmount {
		return false
	}
	if f.UserID != "" && t.UserID != f.UserID {
		return false
	}
	return true
}

// ParseFilter reads startDate, endDate, status, category, minAmount,
// maxAmount and userId from query parameters.
func ParseFilter(q url.Values) (Filter, error) {
	var f Filter
	var err error

	if f.From, err = parseDate(q.Get("startDate")); err != nil {
		return Filter{}, fmt.Errorf("%w: startDate: %v", ErrInvalidFilter, err)
	}
	if f.To, err = parseDate(q.Get("endDate")); err != nil {
		return Filter{}, fmt.Errorf("%w: endDate: %v", ErrInvalidFilter, err)
	}
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return Filter{}, fmt.Errorf("%w: startDate is after endDate", ErrInvalidFilter)
	}
	if f.MinAmount, err = parseAmount(q.Get("minAmount")); err != nil {
		return Filter{}, fmt.Errorf("%w: minAmount: %v", ErrInvalidFilter, err)
	}
	if f.MaxAmount, err = parseAmount(q.Get("maxAmount")); err != nil {
		return Filter{}, fmt.Errorf("%w: maxAmount: %v", ErrInvalidFilter, err)
	}
	f.Status = normalize.Choice(q.Get("status"))
	f.Category = normalize.Choice(q.Get("category"))
	f.UserID = strings.TrimSpace(q.Get("userId"))
	return f, nil
}

func parseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func parseAmount(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, errors.New("must be a non-negative number")
	}
	return &v, nil
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
