package garden

import (
	"errors"
	"time"
)

// ErrInvalidDuration is returned when a Region's Duration is not positive.
var ErrInvalidDuration = errors.New("garden: region duration must be > 0")

// ErrRegionNotFound is returned when an operation targets an unknown or
// already-tombstoned region id.
var ErrRegionNotFound = errors.New("garden: region not found")

// GCGracePeriod is how long a tombstoned region is retained before GC,
// giving in-flight playback time to finish its current sample cleanly.
const GCGracePeriod = 2 * time.Second

// CreateRegion validates and inserts a new region, assigning it a fresh id.
// Must be called from inside a Store mutation (the single mutator task).
func CreateRegion(state *GardenState, position, duration Beat, behavior Behavior, name string, tags []string) (*Region, error) {
	if duration <= 0 {
		return nil, ErrInvalidDuration
	}
	r := &Region{
		ID:       NewRegionID(),
		Position: position,
		Duration: duration,
		Behavior: behavior,
		Name:     name,
		Tags:     tags,
	}
	state.Regions[r.ID] = r
	return r, nil
}

// MoveRegion updates a region's position; a single CAS-like replacement of
// the position field.
func MoveRegion(state *GardenState, id RegionID, newPosition Beat) error {
	r, ok := state.Regions[id]
	if !ok || r.Tombstoned {
		return ErrRegionNotFound
	}
	r.Position = newPosition
	return nil
}

// TombstoneRegion soft-deletes a region: it is marked non-playable and
// excluded from playback immediately, but retained until GC so in-flight
// playback can finish cleanly.
func TombstoneRegion(state *GardenState, id RegionID, now time.Time) error {
	r, ok := state.Regions[id]
	if !ok || r.Tombstoned {
		return ErrRegionNotFound
	}
	r.Tombstoned = true
	at := now
	r.TombstoneAt = &at
	return nil
}

// GCTombstones removes tombstoned regions whose grace period has elapsed.
func GCTombstones(state *GardenState, now time.Time) int {
	removed := 0
	for id, r := range state.Regions {
		if r.Tombstoned && r.TombstoneAt != nil && now.Sub(*r.TombstoneAt) >= GCGracePeriod {
			delete(state.Regions, id)
			removed++
		}
	}
	return removed
}

// RegionAt returns the (non-tombstoned) region active at beat, if its span
// [Position, Position+Duration) contains it.
func RegionAt(state *GardenState, beat Beat) []*Region {
	var out []*Region
	for _, r := range state.Regions {
		if r.Tombstoned {
			continue
		}
		if beat >= r.Position && beat < r.Position+r.Duration {
			out = append(out, r)
		}
	}
	return out
}
