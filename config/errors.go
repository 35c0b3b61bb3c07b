package config

import "errors"

var (
	ErrUnknownKey       = errors.New("config: unknown key")
	ErrInvalidLogLevel  = errors.New("config: invalid log level")
	ErrEmptyEndpoint    = errors.New("config: endpoint must not be empty")
	ErrNoBackends       = errors.New("config: gateway must declare at least one backend")
	ErrInvalidSampleRate = errors.New("config: sample rate must be positive")
)
