package config

import "fmt"

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true,
}

// Validate checks a fully-merged Config for internal consistency.
func Validate(cfg Config) error {
	if !validLogLevels[cfg.LogLevel] {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, cfg.LogLevel)
	}
	if cfg.Wire.Endpoint == "" {
		return fmt.Errorf("%w: wire.endpoint", ErrEmptyEndpoint)
	}
	if len(cfg.Gateway.Backends) == 0 {
		return ErrNoBackends
	}
	if cfg.Garden.SampleRate <= 0 {
		return ErrInvalidSampleRate
	}
	return nil
}
