package credstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.Get(ctx, KeyToken)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Set(ctx, KeyToken, "abc"))

	value, err := store.Get(ctx, KeyToken)
	require.NoError(t, err)
	assert.Equal(t, "abc", value)

	// Overwrite
	require.NoError(t, store.Set(ctx, KeyToken, "def"))
	value, err = store.Get(ctx, KeyToken)
	require.NoError(t, err)
	assert.Equal(t, "def", value)

	require.NoError(t, store.Remove(ctx, KeyToken))
	_, err = store.Get(ctx, KeyToken)
	assert.ErrorIs(t, err, ErrNotFound)

	// Removing an absent key is not an error
	require.NoError(t, store.Remove(ctx, KeyToken))
}

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()

	store, err := OpenSQLite(filepath.Join(t.TempDir(), "creds.db"))
	require.NoError(t, err)
	defer store.Close()

	_, err = store.Get(ctx, KeyToken)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Set(ctx, KeyToken, "token-1"))
	require.NoError(t, store.Set(ctx, KeyIdentity, `{"id":"u1"}`))

	value, err := store.Get(ctx, KeyToken)
	require.NoError(t, err)
	assert.Equal(t, "token-1", value)

	// Upsert replaces the previous value
	require.NoError(t, store.Set(ctx, KeyToken, "token-2"))
	value, err = store.Get(ctx, KeyToken)
	require.NoError(t, err)
	assert.Equal(t, "token-2", value)

	require.NoError(t, store.Remove(ctx, KeyToken))
	_, err = store.Get(ctx, KeyToken)
	assert.ErrorIs(t, err, ErrNotFound)

	// The other key survives the removal
	value, err = store.Get(ctx, KeyIdentity)
	require.NoError(t, err)
	assert.Equal(t, `{"id":"u1"}`, value)
}

func TestSQLiteStore_ReopenKeepsValues(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "creds.db")

	store, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, KeyToken, "persisted"))
	require.NoError(t, store.Close())

	reopened, err := OpenSQLite(path)
	require.NoError(t, err)
	defer reopened.Close()

	value, err := reopened.Get(ctx, KeyToken)
	require.NoError(t, err)
	assert.Equal(t, "persisted", value)
}
