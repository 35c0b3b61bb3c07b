package cas

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStagingSealProducesContentHash(t *testing.T) {
	store := newTestStore(t)

	chunk, err := store.CreateStaging()
	require.NoError(t, err)
	require.True(t, chunk.IsOpen())

	require.NoError(t, chunk.Write([]byte("abc")))
	require.NoError(t, chunk.Write([]byte("def")))
	require.Equal(t, uint64(6), chunk.BytesWritten())
	require.NoError(t, chunk.Close())
	require.False(t, chunk.IsOpen())

	result, err := chunk.Seal()
	require.NoError(t, err)
	require.Equal(t, HashContent([]byte("abcdef")), result.ContentHash)
	require.Equal(t, uint64(6), result.SizeBytes)

	_, err = os.Stat(chunk.Path())
	require.True(t, os.IsNotExist(err), "staging file must be gone after seal")

	_, err = os.Stat(result.ContentPath)
	require.NoError(t, err, "sealed object must exist in objects/")

	data, err := store.Retrieve(result.ContentHash)
	require.NoError(t, err)
	require.Equal(t, []byte("abcdef"), data)
}

func TestStagingSealIdempotentWhenObjectAlreadySealed(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Store([]byte("duplicate"), "text/plain")
	require.NoError(t, err)

	chunk, err := store.CreateStaging()
	require.NoError(t, err)
	require.NoError(t, chunk.Write([]byte("duplicate")))

	result, err := chunk.Seal()
	require.NoError(t, err)
	require.Equal(t, HashContent([]byte("duplicate")), result.ContentHash)

	_, err = os.Stat(chunk.Path())
	require.True(t, os.IsNotExist(err))
}

func TestStagingWriteAfterCloseFails(t *testing.T) {
	store := newTestStore(t)
	chunk, err := store.CreateStaging()
	require.NoError(t, err)
	require.NoError(t, chunk.Close())

	err = chunk.Write([]byte("too late"))
	require.ErrorIs(t, err, ErrStagingClosed)
}

func TestResolveAddressStagingBeforeSeal(t *testing.T) {
	store := newTestStore(t)
	chunk, err := store.CreateStaging()
	require.NoError(t, err)
	require.NoError(t, chunk.Write([]byte("in progress")))
	require.NoError(t, chunk.Flush())

	data, err := store.ResolveAddress(StagingAddress(chunk.Id()))
	require.NoError(t, err)
	require.Equal(t, []byte("in progress"), data)
}

func TestResolveAddressSealed(t *testing.T) {
	store := newTestStore(t)
	hash, err := store.Store([]byte("sealed content"), "text/plain")
	require.NoError(t, err)

	data, err := store.ResolveAddress(SealedAddress(hash))
	require.NoError(t, err)
	require.Equal(t, []byte("sealed content"), data)
}

func TestCreateStagingRejectedInReadOnlyMode(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(Config{BasePath: dir, ReadOnly: true})
	require.NoError(t, err)

	_, err = store.CreateStaging()
	require.ErrorIs(t, err, ErrReadOnly)
}
