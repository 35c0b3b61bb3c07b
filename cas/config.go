package cas

import (
	"os"
	"path/filepath"
)

// Config configures a FileStore. Grounded on original_source's
// cas::config::CasConfig (base_path, store_metadata, read_only) with the
// same HOOTENANNY_CAS_PATH / HOOTENANNY_CAS_READONLY environment override
// convention.
type Config struct {
	// BasePath holds objects/, staging/, and metadata/ subdirectories.
	BasePath string
	// StoreMetadata controls whether Store writes a JSON sidecar.
	StoreMetadata bool
	// ReadOnly rejects all writes with ErrReadOnly when set. Used by
	// downstream readers (e.g. chaosgarden) to assert they never mutate
	// shared storage.
	ReadOnly bool
}

// DefaultConfig returns a config rooted at ~/.hootenanny/cas with metadata
// enabled and writes allowed.
func DefaultConfig() Config {
	return Config{
		BasePath:      defaultBasePath(),
		StoreMetadata: true,
		ReadOnly:      false,
	}
}

// ConfigFromEnv loads a Config from HOOTENANNY_CAS_PATH and
// HOOTENANNY_CAS_READONLY, falling back to DefaultConfig.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	if p := os.Getenv("HOOTENANNY_CAS_PATH"); p != "" {
		cfg.BasePath = p
	}
	if ro := os.Getenv("HOOTENANNY_CAS_READONLY"); ro == "true" || ro == "1" {
		cfg.ReadOnly = true
	}
	return cfg
}

// ReadOnlyConfig builds a read-only config at path with metadata writes
// disabled, matching original_source's CasConfig::read_only constructor.
func ReadOnlyConfig(path string) Config {
	return Config{BasePath: path, StoreMetadata: false, ReadOnly: true}
}

func defaultBasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".hootenanny", "cas")
	}
	return filepath.Join(home, ".hootenanny", "cas")
}

func (c Config) objectsDir() string  { return filepath.Join(c.BasePath, "objects") }
func (c Config) stagingDir() string  { return filepath.Join(c.BasePath, "staging") }
func (c Config) metadataDir() string { return filepath.Join(c.BasePath, "metadata") }
