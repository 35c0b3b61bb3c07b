// Package jobstore implements Hootenanny's shared async task registry: an
// in-memory, non-durable mapping from job id to JobInfo, used by every
// service to surface long-running work to the gateway.
package jobstore

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Status is a job's position in its lifecycle DAG.
type Status int

const (
	StatusPending Status = iota
	StatusRunning
	StatusComplete
	StatusFailed
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusComplete:
		return "complete"
	case StatusFailed:
		return "failed"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether s is absorbing: Complete, Failed, or Cancelled.
func (s Status) Terminal() bool {
	return s == StatusComplete || s == StatusFailed || s == StatusCancelled
}

// ID identifies a job, rendered as a UUIDv4 string.
type ID string

// NewID generates a fresh job id.
func NewID() ID { return ID(uuid.New().String()) }

// Info is the full record tracked for one job.
type Info struct {
	ID          ID              `json:"id"`
	Source      string          `json:"source"`
	Status      Status          `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	StartedAt   *time.Time      `json:"started_at,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	Result      json.RawMessage `json:"result,omitempty"`
	Error       string          `json:"error,omitempty"`
	Progress    *float64        `json:"progress,omitempty"`
}

// Stats summarizes the job store by status bucket.
type Stats struct {
	Pending   int `json:"pending"`
	Running   int `json:"running"`
	Complete  int `json:"complete"`
	Failed    int `json:"failed"`
	Cancelled int `json:"cancelled"`
}
