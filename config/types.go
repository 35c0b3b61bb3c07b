// Package config loads Hootenanny's layered process configuration:
// compiled defaults, overridden by a system file, then a user file, then a
// local file, then environment variables, with unknown keys rejected at
// every file layer.
package config

import "time"

// Config is the full set of settings shared by cmd/hootenanny,
// cmd/chaosgarden, and cmd/holler. Each binary reads only the sections it
// needs.
type Config struct {
	LogLevel   string        `yaml:"log_level"`
	CAS        CASConfig     `yaml:"cas"`
	Wire       WireConfig    `yaml:"wire"`
	Gateway    GatewayConfig `yaml:"gateway"`
	Garden     GardenConfig  `yaml:"garden"`
	Hootenanny HootConfig    `yaml:"hootenanny"`
}

// HootConfig configures the hootenanny orchestrator peer's own sockets.
type HootConfig struct {
	RouterEndpoint string `yaml:"router_endpoint"`
	PubEndpoint    string `yaml:"pub_endpoint"`
}

// CASConfig configures the content-addressable store.
type CASConfig struct {
	BasePath      string `yaml:"base_path"`
	StoreMetadata bool   `yaml:"store_metadata"`
	ReadOnly      bool   `yaml:"read_only"`
}

// WireConfig configures a HOOT01 peer client.
type WireConfig struct {
	ServiceName       string        `yaml:"service_name"`
	Endpoint          string        `yaml:"endpoint"`
	RequestTimeout    time.Duration `yaml:"request_timeout"`
	MaxRetries        int           `yaml:"max_retries"`
	BackoffBase       time.Duration `yaml:"backoff_base"`
	BackoffMax        time.Duration `yaml:"backoff_max"`
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
}

// GatewayConfig configures the MCP↔ZMQ gateway (holler).
type GatewayConfig struct {
	ListenAddr         string        `yaml:"listen_addr"`
	Backends           []string      `yaml:"backends"`
	SessionIdleTimeout time.Duration `yaml:"session_idle_timeout"`
	SSEBufferSize      int           `yaml:"sse_buffer_size"`
}

// GardenConfig configures the chaosgarden realtime daemon.
type GardenConfig struct {
	ControlEndpoint   string        `yaml:"control_endpoint"`
	ShellEndpoint     string        `yaml:"shell_endpoint"`
	IOPubEndpoint     string        `yaml:"iopub_endpoint"`
	HeartbeatEndpoint string        `yaml:"heartbeat_endpoint"`
	TickInterval      time.Duration `yaml:"tick_interval"`
	SampleRate        int           `yaml:"sample_rate"`
	RingBufferFrames  int           `yaml:"ring_buffer_frames"`
}

// Default returns the compiled-in baseline configuration.
func Default() Config {
	return Config{
		LogLevel: "info",
		CAS: CASConfig{
			BasePath:      "~/.hootenanny/cas",
			StoreMetadata: true,
			ReadOnly:      false,
		},
		Wire: WireConfig{
			ServiceName:       "hootenanny",
			Endpoint:          "tcp://127.0.0.1:5555",
			RequestTimeout:    5 * time.Second,
			MaxRetries:        3,
			BackoffBase:       100 * time.Millisecond,
			BackoffMax:        5 * time.Second,
			HeartbeatInterval: 30 * time.Second,
		},
		Gateway: GatewayConfig{
			ListenAddr:         "127.0.0.1:8765",
			Backends:           []string{"tcp://127.0.0.1:5555"},
			SessionIdleTimeout: 10 * time.Minute,
			SSEBufferSize:      256,
		},
		Garden: GardenConfig{
			ControlEndpoint:   "tcp://127.0.0.1:5601",
			ShellEndpoint:     "tcp://127.0.0.1:5602",
			IOPubEndpoint:     "tcp://127.0.0.1:5603",
			HeartbeatEndpoint: "tcp://127.0.0.1:5604",
			TickInterval:      time.Millisecond,
			SampleRate:        48000,
			RingBufferFrames:  8192,
		},
		Hootenanny: HootConfig{
			RouterEndpoint: "tcp://127.0.0.1:5555",
			PubEndpoint:    "tcp://127.0.0.1:5556",
		},
	}
}
