package cas

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrStagingClosed is returned by Write/Flush/Sync after Close.
var ErrStagingClosed = errors.New("cas: staging file already closed")

// SealResult reports the outcome of sealing a StagingChunk.
type SealResult struct {
	ContentHash ContentHash
	ContentPath string
	SizeBytes   uint64
}

// StagingChunk is a handle to a mutable, incrementally-written staging
// file. Used for in-progress content such as audio or MIDI recording,
// addressed by a random StagingId until its content hash is known.
type StagingChunk struct {
	id           StagingId
	path         string
	store        *FileStore
	file         *os.File
	bytesWritten uint64
}

// CreateStaging allocates a new staging chunk with a fresh random id and
// opens its backing file for writing.
func (s *FileStore) CreateStaging() (*StagingChunk, error) {
	if s.cfg.ReadOnly {
		return nil, ErrReadOnly
	}
	id := NewStagingId()
	path := s.stagingPath(id)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("cas: create staging prefix dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("cas: create staging file: %w", err)
	}
	return &StagingChunk{id: id, path: path, store: s, file: f}, nil
}

func (s *FileStore) stagingPath(id StagingId) string {
	return filepath.Join(s.cfg.stagingDir(), id.Prefix(), id.Remainder())
}

// Id returns the chunk's staging identifier.
func (c *StagingChunk) Id() StagingId { return c.id }

// Path returns the filesystem path of the staging file.
func (c *StagingChunk) Path() string { return c.path }

// BytesWritten returns the number of bytes written so far.
func (c *StagingChunk) BytesWritten() uint64 { return c.bytesWritten }

// IsOpen reports whether the file handle is still open.
func (c *StagingChunk) IsOpen() bool { return c.file != nil }

// Write appends data to the staging file.
func (c *StagingChunk) Write(data []byte) error {
	if c.file == nil {
		return ErrStagingClosed
	}
	n, err := c.file.Write(data)
	c.bytesWritten += uint64(n)
	if err != nil {
		return fmt.Errorf("cas: write staging chunk: %w", err)
	}
	return nil
}

// Flush flushes buffered writes; a no-op once closed.
func (c *StagingChunk) Flush() error {
	if c.file == nil {
		return nil
	}
	return c.file.Sync()
}

// Sync fsyncs the staging file to disk; a no-op once closed.
func (c *StagingChunk) Sync() error {
	if c.file == nil {
		return nil
	}
	return c.file.Sync()
}

// Close releases the file handle without sealing, for handoff to another
// process (e.g. chaosgarden) that writes via mmap before the chunk is
// sealed.
func (c *StagingChunk) Close() error {
	if c.file == nil {
		return nil
	}
	err := c.file.Close()
	c.file = nil
	return err
}

// Seal hashes the staging file's content, moves it into the objects
// directory under its content hash (idempotent: an existing object wins,
// the staging file is discarded), and removes the staging entry.
func (c *StagingChunk) Seal() (SealResult, error) {
	if err := c.Close(); err != nil {
		return SealResult{}, fmt.Errorf("cas: close before seal: %w", err)
	}
	data, err := os.ReadFile(c.path)
	if err != nil {
		return SealResult{}, fmt.Errorf("cas: read staging file: %w", err)
	}

	hash := HashContent(data)
	dest := c.store.objectPath(hash)

	if _, err := os.Stat(dest); err == nil {
		os.Remove(c.path)
		return SealResult{ContentHash: hash, ContentPath: dest, SizeBytes: uint64(len(data))}, nil
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return SealResult{}, fmt.Errorf("cas: create object shard dir: %w", err)
	}
	if err := os.Rename(c.path, dest); err != nil {
		return SealResult{}, fmt.Errorf("cas: seal rename: %w", err)
	}

	if c.store.cfg.StoreMetadata {
		if err := c.store.writeMetadata(hash, Metadata{MimeType: "application/octet-stream", Size: uint64(len(data))}); err != nil {
			return SealResult{}, err
		}
	}
	return SealResult{ContentHash: hash, ContentPath: dest, SizeBytes: uint64(len(data))}, nil
}

// ResolveAddress reads content addressed by either a sealed ContentHash or
// a not-yet-sealed StagingId.
func (s *FileStore) ResolveAddress(addr Address) ([]byte, error) {
	switch addr.Kind {
	case AddressSealed:
		return s.Retrieve(addr.Sealed)
	case AddressStaging:
		data, err := os.ReadFile(s.stagingPath(addr.Staging))
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("cas: read staging address: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("cas: unknown address kind %d", addr.Kind)
	}
}
