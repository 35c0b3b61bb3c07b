// Package garden implements the chaosgarden realtime kernel: the timeline
// of regions, the audio graph, transport state, and the 4-socket ZMQ
// protocol a control plane uses to drive it.
package garden

import (
	"time"

	"github.com/google/uuid"
)

// RegionID identifies a region on the timeline.
type RegionID string

// NewRegionID generates a fresh region id.
func NewRegionID() RegionID { return RegionID(uuid.New().String()) }

// Beat is a position or duration expressed in musical beats.
type Beat float64

// BehaviorKind discriminates a Region's Behavior tagged union.
type BehaviorKind int

const (
	BehaviorPlayContent BehaviorKind = iota
	BehaviorLatent
	BehaviorApplyProcessing
	BehaviorEmitTrigger
	BehaviorCustom
)

// LatentStatus is the Latent lifecycle's current state.
type LatentStatus int

const (
	LatentPending LatentStatus = iota
	LatentRunning
	LatentResolved
	LatentApproved
	LatentRejected
	LatentFailed
)

func (s LatentStatus) String() string {
	switch s {
	case LatentPending:
		return "pending"
	case LatentRunning:
		return "running"
	case LatentResolved:
		return "resolved"
	case LatentApproved:
		return "approved"
	case LatentRejected:
		return "rejected"
	case LatentFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether s is absorbing: Approved, Rejected, or Failed.
func (s LatentStatus) Terminal() bool {
	return s == LatentApproved || s == LatentRejected || s == LatentFailed
}

// LatentBehavior is the "content to be generated later" variant of Behavior.
type LatentBehavior struct {
	Tool         string
	Params       map[string]interface{}
	Status       LatentStatus
	Progress     float64
	ResolvedHash string
	JobID        string
	WorkerID     string
}

// PlayContentBehavior is the "sealed, playable content" variant of Behavior.
type PlayContentBehavior struct {
	ArtifactID  string
	ContentHash string
}

// Behavior is a Region's tagged union over what it does when played.
// ApplyProcessing/EmitTrigger/Custom are reserved extension points carrying
// only an opaque payload in this port.
type Behavior struct {
	Kind         BehaviorKind
	PlayContent  *PlayContentBehavior
	Latent       *LatentBehavior
	CustomKind   string
	CustomParams map[string]interface{}
}

// Region is a span of musical time on the timeline.
type Region struct {
	ID          RegionID
	Position    Beat
	Duration    Beat
	Behavior    Behavior
	Tags        []string
	Name        string
	Tombstoned  bool
	TombstoneAt *time.Time
}

// IsPlayable reports whether the region can currently be played: never for
// a tombstoned region; otherwise true for PlayContent, true for Latent only
// once Approved and carrying a
// resolved hash, false for reserved behaviors. A Resolved Latent region is
// not yet playable: it still awaits an explicit ApproveLatent.
func (r Region) IsPlayable() bool {
	if r.Tombstoned {
		return false
	}
	switch r.Behavior.Kind {
	case BehaviorPlayContent:
		return true
	case BehaviorLatent:
		l := r.Behavior.Latent
		return l != nil && l.Status == LatentApproved && l.ResolvedHash != ""
	default:
		return false
	}
}

// TransportState is the playhead's current state.
type TransportState struct {
	Playing  bool
	Position Beat
	TempoBPM float64
}

// TempoChange is one point in a piecewise-linear tempo map.
type TempoChange struct {
	AtBeat Beat
	BPM    float64
}

// TempoMap maps beats to BPM as a list of changes plus a default, with
// time<->beat conversion piecewise linear over the map.
type TempoMap struct {
	DefaultBPM float64
	Changes    []TempoChange // any order; a sorted copy is used for lookups
}

// Marker is a named point on the timeline, e.g. a section boundary.
type Marker struct {
	AtBeat   Beat
	Type     string
	Metadata map[string]interface{}
}
