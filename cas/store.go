package cas

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrReadOnly is returned by any write operation on a read-only store.
var ErrReadOnly = errors.New("cas: store is read-only")

// ErrNotFound is returned by Retrieve/Inspect when no object exists for a
// hash.
var ErrNotFound = errors.New("cas: object not found")

// Store is the interface both FileStore and any future remote
// implementation satisfy; spec.md §4.4's "path() ... if the store is
// local" is expressed as Path returning ("", false) for non-local stores.
type Store interface {
	Store(data []byte, mimeType string) (ContentHash, error)
	Retrieve(hash ContentHash) ([]byte, error)
	Inspect(hash ContentHash) (Reference, error)
	Path(hash ContentHash) (string, bool)
}

// FileStore is a sharded, filesystem-backed content-addressable store.
// Layout:
//
//	{base}/objects/{aa}/{bbbbbbbb...}           sealed content
//	{base}/staging/{aa}/{bbbbbbbb...}           in-progress writes
//	{base}/metadata/{aa}/{bbbbbbbb...}.json     sidecar {mime_type, size}
type FileStore struct {
	cfg Config
}

// NewFileStore creates a FileStore rooted at cfg.BasePath, creating the
// objects/staging/metadata directories if absent (even in read-only mode,
// so Retrieve/Inspect don't fail on a fresh volume).
func NewFileStore(cfg Config) (*FileStore, error) {
	for _, dir := range []string{cfg.objectsDir(), cfg.stagingDir(), cfg.metadataDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("cas: create %s: %w", dir, err)
		}
	}
	return &FileStore{cfg: cfg}, nil
}

// Store computes the hash of data and, if not already present, writes it
// atomically into the objects shard (temp file + rename on the same
// filesystem). Idempotent: concurrent writers of identical content
// converge, since the destination filename is the hash itself.
func (s *FileStore) Store(data []byte, mimeType string) (ContentHash, error) {
	if s.cfg.ReadOnly {
		return "", ErrReadOnly
	}
	hash := HashContent(data)
	dest := s.objectPath(hash)

	if _, err := os.Stat(dest); err == nil {
		return hash, nil // already sealed; idempotent
	}

	shardDir := filepath.Dir(dest)
	if err := os.MkdirAll(shardDir, 0o755); err != nil {
		return "", fmt.Errorf("cas: create shard dir: %w", err)
	}

	tmp, err := os.CreateTemp(shardDir, ".tmp-*")
	if err != nil {
		return "", fmt.Errorf("cas: create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("cas: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("cas: close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("cas: rename into place: %w", err)
	}

	if s.cfg.StoreMetadata {
		if err := s.writeMetadata(hash, Metadata{MimeType: mimeType, Size: uint64(len(data))}); err != nil {
			return "", err
		}
	}
	return hash, nil
}

// Retrieve reads sealed content by hash. Returns ErrNotFound if absent;
// never reads staging.
func (s *FileStore) Retrieve(hash ContentHash) ([]byte, error) {
	data, err := os.ReadFile(s.objectPath(hash))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("cas: read object: %w", err)
	}
	return data, nil
}

// Inspect returns a Reference combining the hash with its sidecar metadata
// and local path, without reading the object's content.
func (s *FileStore) Inspect(hash ContentHash) (Reference, error) {
	path := s.objectPath(hash)
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return Reference{}, ErrNotFound
	}
	if err != nil {
		return Reference{}, fmt.Errorf("cas: stat object: %w", err)
	}

	meta, err := s.readMetadata(hash)
	size := uint64(info.Size())
	mime := "application/octet-stream"
	if err == nil {
		mime = meta.MimeType
		size = meta.Size
	}
	return Reference{Hash: hash, MimeType: mime, SizeBytes: size}.WithPath(path), nil
}

// Path returns the filesystem path for a sealed hash, allowing external
// consumers (audio engines, hashers) to mmap directly. The bool is false if
// the store cannot expose a local path (never for FileStore).
func (s *FileStore) Path(hash ContentHash) (string, bool) {
	return s.objectPath(hash), true
}

func (s *FileStore) objectPath(hash ContentHash) string {
	return filepath.Join(s.cfg.objectsDir(), hash.Prefix(), hash.Remainder())
}

func (s *FileStore) metadataPath(hash ContentHash) string {
	return filepath.Join(s.cfg.metadataDir(), hash.Prefix(), hash.Remainder()+".json")
}

func (s *FileStore) writeMetadata(hash ContentHash, meta Metadata) error {
	dir := filepath.Join(s.cfg.metadataDir(), hash.Prefix())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cas: create metadata dir: %w", err)
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("cas: marshal metadata: %w", err)
	}
	return os.WriteFile(s.metadataPath(hash), data, 0o644)
}

func (s *FileStore) readMetadata(hash ContentHash) (Metadata, error) {
	data, err := os.ReadFile(s.metadataPath(hash))
	if err != nil {
		return Metadata{}, err
	}
	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return Metadata{}, err
	}
	return meta, nil
}
