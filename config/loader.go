package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Layer names a configuration source, in increasing precedence order.
type Layer string

const (
	LayerDefaults    Layer = "defaults"
	LayerSystemFile  Layer = "system_file"
	LayerUserFile    Layer = "user_file"
	LayerLocalFile   Layer = "local_file"
	LayerEnvironment Layer = "environment"
)

// Loader assembles a Config from compiled defaults overridden by a system
// file, a user file, a local file, and finally environment variables.
// Later layers win. File layers are optional: a missing file is skipped,
// but a present file with unknown keys fails the load.
type Loader struct {
	SystemPath string
	UserPath   string
	LocalPath  string
}

// DefaultLoader returns a Loader pointed at the conventional search paths:
// /etc/hootenanny/config.yaml, ~/.hootenanny/config.yaml, ./hootenanny.yaml.
func DefaultLoader() Loader {
	home, _ := os.UserHomeDir()
	return Loader{
		SystemPath: "/etc/hootenanny/config.yaml",
		UserPath:   filepath.Join(home, ".hootenanny", "config.yaml"),
		LocalPath:  "hootenanny.yaml",
	}
}

// Load builds the final Config, applying layers in precedence order and
// validating the result.
func (l Loader) Load() (Config, error) {
	cfg := Default()

	for _, path := range []string{l.SystemPath, l.UserPath, l.LocalPath} {
		if path == "" {
			continue
		}
		if err := mergeFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}

	applyEnv(&cfg)

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func mergeFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if strings.Contains(err.Error(), "not found") || strings.Contains(err.Error(), "unknown field") {
			return fmt.Errorf("%w in %s: %s", ErrUnknownKey, path, err)
		}
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

// applyEnv overrides select fields from environment variables, matching
// the HOOTENANNY_CAS_PATH / HOOTENANNY_CAS_READONLY convention already used
// standalone by the cas package.
func applyEnv(cfg *Config) {
	if v := os.Getenv("HOOTENANNY_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("HOOTENANNY_CAS_PATH"); v != "" {
		cfg.CAS.BasePath = v
	}
	if v := os.Getenv("HOOTENANNY_CAS_READONLY"); v != "" {
		cfg.CAS.ReadOnly = v == "true" || v == "1"
	}
	if v := os.Getenv("HOOTENANNY_WIRE_ENDPOINT"); v != "" {
		cfg.Wire.Endpoint = v
	}
	if v := os.Getenv("HOOTENANNY_GATEWAY_LISTEN_ADDR"); v != "" {
		cfg.Gateway.ListenAddr = v
	}
	if v := os.Getenv("HOOTENANNY_GARDEN_SAMPLE_RATE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Garden.SampleRate = n
		}
	}
}
