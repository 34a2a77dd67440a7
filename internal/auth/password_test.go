package auth

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasherRoundTrip(t *testing.T) {
	t.Parallel()
	h, err := NewPasswordHasher(bcrypt.MinCost, 2)
	require.NoError(t, err)
	ctx := context.Background()

	first, err := h.Hash(ctx, "pw123")
	require.NoError(t, err)
	second, err := h.Hash(ctx, "pw123")
	require.NoError(t, err)

	assert.NotEqual(t, "pw123", first)
	assert.NotEqual(t, first, second, "each hash carries its own salt")

	ok, err := h.Verify(ctx, "pw123", first)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify(ctx, "wrong", first)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPasswordHasherCorruptHash(t *testing.T) {
	t.Parallel()
	h, err := NewPasswordHasher(bcrypt.MinCost, 1)
	require.NoError(t, err)

	for _, stored := range []string{"", "plaintext", "$2a$10$short"} {
		ok, err := h.Verify(context.Background(), "pw123", stored)
		assert.False(t, ok)
		assert.ErrorIs(t, err, ErrCorruptCredential, "stored=%q", stored)
	}
}

func TestPasswordHasherRejectsBadPasswords(t *testing.T) {
	t.Parallel()
	h, err := NewPasswordHasher(bcrypt.MinCost, 1)
	require.NoError(t, err)

	_, err = h.Hash(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = h.Hash(context.Background(), strings.Repeat("x", 73))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestPasswordHasherHonoursContext(t *testing.T) {
	t.Parallel()
	h, err := NewPasswordHasher(bcrypt.MinCost, 1)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = h.Hash(ctx, "pw123")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewPasswordHasherCostRange(t *testing.T) {
	t.Parallel()
	_, err := NewPasswordHasher(2, 1)
	assert.Error(t, err)
	_, err = NewPasswordHasher(bcrypt.MaxCost+1, 1)
	assert.Error(t, err)
}
