package testutil

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/finance-dashboard-be/internal/models"
	"github.com/hongminglow/finance-dashboard-be/internal/storage"
	"github.com/hongminglow/finance-dashboard-be/internal/transactions"
)

// RequireIntegration skips the test unless RUN_STORE_INTEGRATION=true and
// returns the value of envKey, failing when it is empty.
func RequireIntegration(t *testing.T, envKey string) string {
	t.Helper()
	if os.Getenv("RUN_STORE_INTEGRATION") != "true" {
		t.Skip("set RUN_STORE_INTEGRATION=true to run this integration test")
	}
	loadDotEnv()
	val := os.Getenv(envKey)
	if val == "" {
		t.Fatalf("%s is required", envKey)
	}
	return val
}

func loadDotEnv() {
	for _, path := range []string{".env", "../.env", "../../.env", "../../../.env", "../../../../.env"} {
		_ = godotenv.Load(path)
	}
}

// UserStoreContract checks the behaviour every storage.UserStore must
// share. Emails are made unique per run so live databases can be reused.
func UserStoreContract(t *testing.T, store storage.UserStore) {
	t.Helper()
	ctx, cancel := TestContext()
	defer cancel()

	suffix := time.Now().UnixNano()
	email := fmt.Sprintf("contract_%d@example.com", suffix)
	username := fmt.Sprintf("contract_%d", suffix)

	require.NoError(t, store.Ping(ctx))

	created, err := store.CreateUser(ctx, models.NewUser{
		Email:        email,
		Username:     &username,
		FirstName:    "Ada",
		LastName:     "Lovelace",
		PasswordHash: "$2a$10$hash",
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, email, created.Email)
	require.NotNil(t, created.Username)
	assert.Equal(t, username, *created.Username)
	assert.False(t, created.CreatedAt.IsZero())

	cred, err := store.FindByEmail(ctx, "  "+strings.ToUpper(email)+" ")
	require.NoError(t, err)
	assert.Equal(t, created.ID, cred.ID)
	assert.Equal(t, "$2a$10$hash", cred.PasswordHash)

	byID, err := store.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, email, byID.Email)
	assert.Equal(t, "Ada", byID.FirstName)

	_, err = store.CreateUser(ctx, models.NewUser{Email: strings.ToUpper(email), PasswordHash: "x"})
	assert.ErrorIs(t, err, storage.ErrDuplicateIdentifier)
	assert.Equal(t, storage.FieldEmail, storage.DuplicateField(err))

	_, err = store.CreateUser(ctx, models.NewUser{Email: "other_" + email, Username: &username, PasswordHash: "x"})
	assert.ErrorIs(t, err, storage.ErrDuplicateIdentifier)
	assert.Equal(t, storage.FieldUsername, storage.DuplicateField(err))

	for i := 0; i < 2; i++ {
		u, err := store.CreateUser(ctx, models.NewUser{Email: fmt.Sprintf("nouser_%d_%d@example.com", i, suffix), PasswordHash: "x"})
		require.NoError(t, err, "accounts without a username must not collide")
		assert.Nil(t, u.Username)
	}

	_, err = store.FindByEmail(ctx, fmt.Sprintf("missing_%d@example.com", suffix))
	assert.True(t, errors.Is(err, storage.ErrNotFound), "got %v", err)

	_, err = store.FindByID(ctx, "not-an-id")
	assert.True(t, errors.Is(err, storage.ErrNotFound), "got %v", err)
}

// TransactionRepositoryContract checks that repo, seeded with the sample
// dataset, filters and orders the same way as the in-memory reference.
func TransactionRepositoryContract(t *testing.T, repo transactions.Repository) {
	t.Helper()
	ctx, cancel := TestContext()
	defer cancel()

	sample, err := transactions.SampleTransactions()
	require.NoError(t, err)
	reference := transactions.NewStaticRepository(sample)

	queries := []url.Values{
		{},
		{"startDate": {"2024-02-05"}, "endDate": {"2024-03-08"}},
		{"status": {"pending"}},
		{"category": {"EXPENSE"}, "status": {"all"}},
		{"minAmount": {"850"}, "maxAmount": {"1250.5"}},
		{"userId": {"user_003"}},
		{"category": {"refund"}},
	}
	for _, q := range queries {
		f, err := transactions.ParseFilter(q)
		require.NoError(t, err)

		want, err := reference.ListTransactions(ctx, f)
		require.NoError(t, err)
		got, err := repo.ListTransactions(ctx, f)
		require.NoError(t, err, "query %v", q)

		require.Len(t, got, len(want), "query %v", q)
		for i := range want {
			assert.Equal(t, want[i].ID, got[i].ID, "query %v row %d", q, i)
			assert.InDelta(t, want[i].Amount, got[i].Amount, 0.001)
			assert.Equal(t, want[i].Date.Format(transactions.DateLayout), got[i].Date.UTC().Format(transactions.DateLayout))
			assert.Equal(t, want[i].Status, got[i].Status)
		}
	}
}
