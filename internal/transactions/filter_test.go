package transactions

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRepo(t *testing.T) *StaticRepository {
	t.Helper()
	rows, err := SampleTransactions()
	require.NoError(t, err)
	require.Len(t, rows, 8)
	return NewStaticRepository(rows)
}

func ids(t *testing.T, repo Repository, q url.Values) []string {
	t.Helper()
	f, err := ParseFilter(q)
	require.NoError(t, err)
	rows, err := repo.ListTransactions(context.Background(), f)
	require.NoError(t, err)
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.ID)
	}
	return out
}

func TestListTransactionsFilters(t *testing.T) {
	repo := sampleRepo(t)

	tests := []struct {
		name string
		q    url.Values
		want []string
	}{
		{"no filter newest first", url.Values{}, []string{"8", "7", "6", "5", "4", "3", "2", "1"}},
		{"inclusive date range", url.Values{"startDate": {"2024-02-05"}, "endDate": {"2024-03-08"}}, []string{"5", "4", "3"}},
		{"status case insensitive", url.Values{"status": {"PENDING"}}, []string{"6", "3"}},
		{"status all", url.Values{"status": {"All"}, "category": {"expense"}}, []string{"8", "6", "4", "2"}},
		{"absolute amount bounds", url.Values{"minAmount": {"850"}, "maxAmount": {"1250.50"}}, []string{"6", "2", "1"}},
		{"user", url.Values{"userId": {"user_003"}}, []string{"8", "3"}},
		{"nothing matches", url.Values{"category": {"refund"}}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(t, repo, tt.q))
		})
	}
}

func TestParseFilterRejectsBadInput(t *testing.T) {
	for name, q := range map[string]url.Values{
		"bad date":       {"startDate": {"15/01/2024"}},
		"reversed range": {"startDate": {"2024-03-01"}, "endDate": {"2024-01-01"}},
		"bad amount":     {"minAmount": {"lots"}},
		"negative":       {"maxAmount": {"-5"}},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseFilter(q)
			assert.ErrorIs(t, err, ErrInvalidFilter)
		})
	}
}

func TestFilterMatchIgnoresTimeOfDay(t *testing.T) {
	day := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	f := Filter{From: &day, To: &day}
	rows, err := SampleTransactions()
	require.NoError(t, err)

	tx := rows[0]
	tx.Date = day.Add(23 * time.Hour)
	assert.True(t, f.Match(tx))
	tx.Date = day.Add(24 * time.Hour)
	assert.False(t, f.Match(tx))
}
