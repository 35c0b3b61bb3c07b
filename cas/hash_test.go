package cas

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashContentGoldenValue(t *testing.T) {
	hash := HashContent([]byte("Concurrent Data"))
	require.Equal(t, ContentHash("5c735d76fe3537a0f35cf4a4eb14a532"), hash)
}

func TestHashContentDeterministic(t *testing.T) {
	require.Equal(t, HashContent([]byte("same bytes")), HashContent([]byte("same bytes")))
}

func TestHashContentLengthAndHex(t *testing.T) {
	hash := HashContent([]byte("x"))
	require.Len(t, hash.String(), hashHexLen)
	require.Len(t, hash.Prefix(), 2)
	require.Len(t, hash.Remainder(), hashHexLen-2)
}

func TestParseContentHashRejectsWrongLength(t *testing.T) {
	_, err := ParseContentHash("abc")
	require.ErrorIs(t, err, ErrInvalidLength)
}

func TestParseContentHashRejectsNonHex(t *testing.T) {
	_, err := ParseContentHash("zzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzz")
	require.ErrorIs(t, err, ErrInvalidHex)
}

func TestParseContentHashNormalizesCase(t *testing.T) {
	hash, err := ParseContentHash("5C735D76FE3537A0F35CF4A4EB14A532")
	require.NoError(t, err)
	require.Equal(t, ContentHash("5c735d76fe3537a0f35cf4a4eb14a532"), hash)
}

func TestStagingIdUniqueAndWellFormed(t *testing.T) {
	id1 := NewStagingId()
	id2 := NewStagingId()
	require.NotEqual(t, id1, id2)
	require.Len(t, id1.String(), hashHexLen)
	require.Equal(t, id1.Prefix()+id1.Remainder(), id1.String())
}

func TestAddressDisplay(t *testing.T) {
	hash := HashContent([]byte("x"))
	require.Equal(t, "content:"+hash.String(), SealedAddress(hash).String())

	id := NewStagingId()
	require.Equal(t, "staging:"+id.String(), StagingAddress(id).String())
}
