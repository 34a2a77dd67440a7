package sqlitestore

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/finance-dashboard-be/internal/models"
	"github.com/hongminglow/finance-dashboard-be/internal/storage"
	"github.com/hongminglow/finance-dashboard-be/internal/testutil"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	store, err := NewStore(context.Background(), fmt.Sprintf("file:%s?mode=memory&cache=shared", name), false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate(context.Background(), "up"))
	return store
}

func TestUserStoreContract(t *testing.T) {
	testutil.UserStoreContract(t, newTestStore(t))
}

func TestTransactionRepositoryContract(t *testing.T) {
	testutil.TransactionRepositoryContract(t, newTestStore(t))
}

func TestMigrateIsRepeatable(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Migrate(ctx, "up"))
	require.NoError(t, store.Migrate(ctx, "status"))

	var count int64
	require.NoError(t, store.db.Model(&transactionRow{}).Count(&count).Error)
	assert.EqualValues(t, 8, count)

	require.NoError(t, store.Migrate(ctx, "down"))
	assert.False(t, store.db.Migrator().HasTable("users"))
	assert.Error(t, store.Migrate(ctx, "sideways"))
}

func TestFileDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "app.db")
	store, err := NewStore(context.Background(), path, false)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Migrate(context.Background(), "up"))
	assert.FileExists(t, path)
}

func TestConcurrentCreateSameEmail(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	const workers = 6
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.CreateUser(ctx, models.NewUser{Email: "race@example.com", PasswordHash: "x"})
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
		}()
	}
	wg.Wait()

	var ok int
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.Equal(t, storage.FieldEmail, storage.DuplicateField(err))
	}
	assert.Equal(t, 1, ok)
}

func TestDuplicateErrorIgnoresOtherErrors(t *testing.T) {
	assert.Nil(t, duplicateError(errors.New("disk full")))
	assert.Nil(t, duplicateError(sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintNotNull}))
}
