package cas

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	dir := t.TempDir()
	store, err := NewFileStore(Config{BasePath: dir, StoreMetadata: true})
	require.NoError(t, err)
	return store
}

func TestStoreGoldenHash(t *testing.T) {
	store := newTestStore(t)

	hash, err := store.Store([]byte("Concurrent Data"), "text/plain")
	require.NoError(t, err)
	require.Equal(t, ContentHash("5c735d76fe3537a0f35cf4a4eb14a532"), hash)

	data, err := store.Retrieve(hash)
	require.NoError(t, err)
	require.Equal(t, []byte("Concurrent Data"), data)

	ref, err := store.Inspect(hash)
	require.NoError(t, err)
	require.Equal(t, "text/plain", ref.MimeType)
	require.Equal(t, uint64(15), ref.SizeBytes)
	require.NotNil(t, ref.LocalPath)
}

func TestStoreIsIdempotent(t *testing.T) {
	store := newTestStore(t)

	h1, err := store.Store([]byte("same bytes"), "text/plain")
	require.NoError(t, err)
	h2, err := store.Store([]byte("same bytes"), "text/plain")
	require.NoError(t, err)
	require.Equal(t, h1, h2)

	path, ok := store.Path(h1)
	require.True(t, ok)
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, int64(len("same bytes")), info.Size())
}

func TestRetrieveMissingReturnsNotFound(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Retrieve(ContentHash("deadbeefdeadbeefdeadbeefdeadbeef"))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestReadOnlyStoreRejectsWrites(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(Config{BasePath: dir, ReadOnly: true})
	require.NoError(t, err)

	_, err = store.Store([]byte("data"), "text/plain")
	require.ErrorIs(t, err, ErrReadOnly)
}

func TestStoreShardsByPrefix(t *testing.T) {
	store := newTestStore(t)
	hash, err := store.Store([]byte("shard me"), "text/plain")
	require.NoError(t, err)

	expected := filepath.Join(store.cfg.objectsDir(), hash.Prefix(), hash.Remainder())
	path, ok := store.Path(hash)
	require.True(t, ok)
	require.Equal(t, expected, path)
}
