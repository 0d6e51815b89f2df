package db_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/habedi/apiclient/db"
	"github.com/habedi/apiclient/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tokenRecord struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// setupEntryStore opens a throwaway SQLite database for one test.
func setupEntryStore(t *testing.T) *db.EntryStore {
	t.Helper()
	gdb, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(gdb) })
	return db.NewEntryStore(gdb)
}

func TestEntryStore_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	s := setupEntryStore(t)

	require.NoError(t, s.Save(ctx, storage.TokenKey, tokenRecord{"access", "refresh"}))

	var got tokenRecord
	found, err := s.Get(ctx, storage.TokenKey, &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, tokenRecord{"access", "refresh"}, got)
}

func TestEntryStore_SaveOverwrites(t *testing.T) {
	ctx := context.Background()
	s := setupEntryStore(t)

	require.NoError(t, s.Save(ctx, storage.TokenKey, tokenRecord{"a1", "r1"}))
	require.NoError(t, s.Save(ctx, storage.TokenKey, tokenRecord{"a2", "r2"}))

	var got tokenRecord
	found, err := s.Get(ctx, storage.TokenKey, &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "a2", got.AccessToken)

	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{storage.TokenKey}, keys)
}

func TestEntryStore_GetMissing(t *testing.T) {
	var got tokenRecord
	found, err := setupEntryStore(t).Get(context.Background(), "missing", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestEntryStore_RemoveAndClear(t *testing.T) {
	ctx := context.Background()
	s := setupEntryStore(t)
	require.NoError(t, s.Save(ctx, "a", 1))
	require.NoError(t, s.Save(ctx, "b", 2))
	require.NoError(t, s.Save(ctx, "c", 3))

	require.NoError(t, s.Remove(ctx, "b"))
	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, keys)

	require.NoError(t, s.Clear(ctx))
	keys, err = s.Keys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestEntryStore_ClearExceptUsername(t *testing.T) {
	ctx := context.Background()
	s := setupEntryStore(t)
	require.NoError(t, s.Save(ctx, storage.UsernameKey, "bob"))
	require.NoError(t, s.Save(ctx, storage.TokenKey, tokenRecord{"a", "r"}))

	require.NoError(t, storage.ClearExceptUsername(ctx, s))

	var username string
	found, err := s.Get(ctx, storage.UsernameKey, &username)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "bob", username)

	found, err = s.Get(ctx, storage.TokenKey, &tokenRecord{})
	require.NoError(t, err)
	assert.False(t, found)
}

func TestEntryStore_Uninitialized(t *testing.T) {
	s := db.NewEntryStore(nil)
	ctx := context.Background()

	_, err := s.Get(ctx, "k", new(string))
	assert.Error(t, err)
	assert.Error(t, s.Save(ctx, "k", "v"))
	assert.Error(t, s.Remove(ctx, "k"))
	assert.Error(t, s.Clear(ctx))
	_, err = s.Keys(ctx)
	assert.Error(t, err)
}
