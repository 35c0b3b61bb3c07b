// Package bootstrap wires the ambient stack (config, logging, metrics,
// health) that every Hootenanny binary starts with, so cmd/hootenanny,
// cmd/chaosgarden, and cmd/holler each do it identically.
package bootstrap

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap/zapcore"

	"github.com/tobert/hootenanny/api/health"
	"github.com/tobert/hootenanny/config"
	"github.com/tobert/hootenanny/log"
	"github.com/tobert/hootenanny/metrics"
)

// Process bundles the shared dependencies a binary's main wires together.
type Process struct {
	Config  config.Config
	Logger  log.Logger
	Metrics *metrics.Metrics
	Health  *health.Registry
}

// New loads layered config, builds the structured logger at its configured
// level, and creates a fresh Prometheus registry and health registry.
func New(component, configPath string) (*Process, error) {
	loader := config.DefaultLoader()
	if configPath != "" {
		loader.LocalPath = configPath
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("bootstrap: load config: %w", err)
	}

	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: parse log level %q: %w", cfg.LogLevel, err)
	}
	logger := log.New(level, component)

	reg := prometheus.NewRegistry()
	return &Process{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics.New(reg),
		Health:  health.NewRegistry(),
	}, nil
}

// ServeDiagnostics binds /metrics and /healthz on addr; intended to run in
// its own goroutine for the lifetime of the process.
func (p *Process) ServeDiagnostics(addr string) error {
	mux := http.NewServeMux()
	var metricsHandler http.Handler = promhttp.Handler()
	if g, ok := p.Metrics.Registry.(prometheus.Gatherer); ok {
		metricsHandler = promhttp.HandlerFor(g, promhttp.HandlerOpts{})
	}
	mux.Handle("/metrics", metricsHandler)
	mux.HandleFunc("/healthz", health.Handler(p.Health))
	return http.ListenAndServe(addr, mux)
}
