// Package cas implements Hootenanny's content-addressable storage: a
// BLAKE3-truncated, sharded filesystem store with separate sealed
// (immutable, hash-named) and staging (mutable, random-id) regions.
package cas

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"
)

// hashHexLen is the length of a rendered ContentHash/StagingId: 128 bits of
// BLAKE3 as lowercase hex.
const hashHexLen = 32

// ErrInvalidLength is returned when a hash string is not exactly 32 hex
// characters.
var ErrInvalidLength = errors.New("cas: invalid hash length, expected 32 hex chars")

// ErrInvalidHex is returned when a hash string contains non-hex characters.
var ErrInvalidHex = errors.New("cas: invalid hex character in hash")

// ContentHash is 128 bits of BLAKE3 rendered as 32 lowercase hex chars. The
// first two chars are the shard prefix, the remaining 30 the leaf filename.
type ContentHash string

// HashContent computes the ContentHash of data: BLAKE3-256 truncated to the
// first 16 bytes, hex-encoded.
func HashContent(data []byte) ContentHash {
	sum := blake3.Sum256(data)
	return ContentHash(hex.EncodeToString(sum[:16]))
}

// ParseContentHash validates and normalizes a hash string.
func ParseContentHash(s string) (ContentHash, error) {
	norm, err := validateHashString(s)
	if err != nil {
		return "", err
	}
	return ContentHash(norm), nil
}

// Prefix returns the 2-char shard directory name.
func (h ContentHash) Prefix() string { return string(h)[:2] }

// Remainder returns the 30-char leaf filename.
func (h ContentHash) Remainder() string { return string(h)[2:] }

func (h ContentHash) String() string { return string(h) }

// StagingId has the same shape as ContentHash (32 hex chars, prefix/
// remainder sharding) but is generated from a random UUID rather than
// content, naming a file whose content is not yet known.
type StagingId string

// NewStagingId generates a fresh random staging id: BLAKE3 of a random
// UUIDv4, truncated to 128 bits and hex-encoded, mirroring ContentHash's
// own truncation so both addressing schemes share a directory layout.
func NewStagingId() StagingId {
	id := uuid.New()
	sum := blake3.Sum256(id[:])
	return StagingId(hex.EncodeToString(sum[:16]))
}

// Prefix returns the 2-char shard directory name.
func (s StagingId) Prefix() string { return string(s)[:2] }

// Remainder returns the 30-char leaf filename.
func (s StagingId) Remainder() string { return string(s)[2:] }

func (s StagingId) String() string { return string(s) }

func validateHashString(s string) (string, error) {
	if len(s) != hashHexLen {
		return "", fmt.Errorf("%w: got %d", ErrInvalidLength, len(s))
	}
	lower := strings.ToLower(s)
	if _, err := hex.DecodeString(lower); err != nil {
		return "", ErrInvalidHex
	}
	return lower, nil
}

// AddressKind discriminates a CasAddress's two variants.
type AddressKind int

const (
	AddressSealed AddressKind = iota
	AddressStaging
)

// Address is a tagged union over a sealed ContentHash or a mutable
// StagingId; both variants share the prefix/remainder projection used for
// directory sharding.
type Address struct {
	Kind    AddressKind
	Sealed  ContentHash
	Staging StagingId
}

// SealedAddress wraps a ContentHash as a Address.
func SealedAddress(h ContentHash) Address { return Address{Kind: AddressSealed, Sealed: h} }

// StagingAddress wraps a StagingId as a Address.
func StagingAddress(id StagingId) Address { return Address{Kind: AddressStaging, Staging: id} }

// Prefix returns the shard directory name regardless of variant.
func (a Address) Prefix() string {
	if a.Kind == AddressSealed {
		return a.Sealed.Prefix()
	}
	return a.Staging.Prefix()
}

// Remainder returns the leaf filename regardless of variant.
func (a Address) Remainder() string {
	if a.Kind == AddressSealed {
		return a.Sealed.Remainder()
	}
	return a.Staging.Remainder()
}

func (a Address) String() string {
	if a.Kind == AddressSealed {
		return "content:" + a.Sealed.String()
	}
	return "staging:" + a.Staging.String()
}
