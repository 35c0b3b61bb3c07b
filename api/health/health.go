// Package health implements the health-check surface shared by every
// Hootenanny process: a registry of named Checkers run on demand and
// rendered as an HTTP JSON report.
package health

import (
	"context"
	"time"
)

// Checker is the interface for health checking.
type Checker interface {
	// HealthCheck returns information about the health of the service.
	HealthCheck(context.Context) (interface{}, error)
}

// Checkable is the interface for health reporting.
type Checkable interface {
	// Health returns a health report.
	Health(context.Context) (interface{}, error)
}

// Report is a health report.
type Report struct {
	Details  map[string]interface{} `json:"details,omitempty"`
	Healthy  bool                    `json:"healthy"`
	Checks   []Check                 `json:"checks,omitempty"`
	Duration time.Duration           `json:"duration"`
}

// Check is an individual health check.
type Check struct {
	Name     string                 `json:"name"`
	Healthy  bool                   `json:"healthy"`
	Error    string                 `json:"error,omitempty"`
	Details  map[string]interface{} `json:"details,omitempty"`
	Duration time.Duration          `json:"duration"`
}

// Health represents the health status of a component.
type Health struct {
	Healthy bool        `json:"healthy"`
	Details interface{} `json:"details,omitempty"`
}
