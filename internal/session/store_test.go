package session

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/confeitapp/internal/sqliteutil"
)

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(filepath.Join(t.TempDir(), "secrets"))
	require.NoError(t, err)

	_, ok, err := store.Get(ctx, TokenKey)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, TokenKey, "tok1"))
	value, ok, err := store.Get(ctx, TokenKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tok1", value)

	require.NoError(t, store.Delete(ctx, TokenKey))
	_, ok, err = store.Get(ctx, TokenKey)
	require.NoError(t, err)
	assert.False(t, ok)

	// Deleting an absent key is not an error.
	require.NoError(t, store.Delete(ctx, TokenKey))
}

func TestFileStorePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permissions only")
	}
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "secrets")
	store, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, TokenKey, "tok1"))

	info, err := os.Stat(filepath.Join(dir, TokenKey))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	dirInfo, err := os.Stat(dir)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o700), dirInfo.Mode().Perm())
}

func TestDBStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	db, err := sqliteutil.OpenMemory()
	require.NoError(t, err)
	defer db.Close()

	store := NewDBStore(db)
	require.NoError(t, store.Init(ctx))

	_, ok, err := store.Get(ctx, UserKey)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, UserKey, `{"id":"u1"}`))
	require.NoError(t, store.Set(ctx, UserKey, `{"id":"u2"}`))

	value, ok, err := store.Get(ctx, UserKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"id":"u2"}`, value, "set must upsert")

	require.NoError(t, store.Delete(ctx, UserKey))
	_, ok, err = store.Get(ctx, UserKey)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTokenSourceDegradesToAbsent(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(filepath.Join(t.TempDir(), "secrets"))
	require.NoError(t, err)

	source := TokenSource{Store: store}
	_, ok := source.Token(ctx)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, TokenKey, "tok1"))
	token, ok := source.Token(ctx)
	assert.True(t, ok)
	assert.Equal(t, "tok1", token)
}
