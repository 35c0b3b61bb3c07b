package garden

import (
	"context"
	"math"
	"time"
)

// TickInterval is the transport tick's period, ~1ms per spec.md §4.3.
const TickInterval = time.Millisecond

// EventKind discriminates a TickEvent's variant.
type EventKind int

const (
	EventBeatTick EventKind = iota
	EventMarkerReached
	EventRegionStarted
	EventRegionEnded
)

// TickEvent is one occurrence emitted by the transport tick loop.
type TickEvent struct {
	Kind     EventKind
	Beat     Beat
	Position Beat
	BPM      float64
	Marker   *Marker
	Region   *Region
}

// Ticker drives the transport: a background loop at TickInterval that
// advances position when playing and emits BeatTick, MarkerReached, and
// region start/end events on crossings. All mutation goes through the
// Store's single mutator task; the only state the ticker keeps itself is
// the set of regions it has reported as started, touched only from inside
// its mutation closures.
type Ticker struct {
	store    *Store
	emit     func(TickEvent)
	interval time.Duration

	activeRegions map[RegionID]bool
}

// NewTicker creates a Ticker over store, invoking emit for every event.
// emit must not block; callers typically hand it a channel send guarded by
// a select with a default, or a bounded fan-out.
func NewTicker(store *Store, emit func(TickEvent)) *Ticker {
	return &Ticker{store: store, emit: emit, interval: TickInterval, activeRegions: make(map[RegionID]bool)}
}

// Run blocks, ticking at t.interval until ctx is cancelled.
func (t *Ticker) Run(ctx context.Context) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			dtMs := float64(now.Sub(last)) / float64(time.Millisecond)
			last = now
			t.tick(dtMs)
		}
	}
}

// tick advances the transport by dtMs of wall time and emits the resulting
// events, all inside a single SubmitSync closure so the advance-and-detect
// pass sees a consistent view of regions and markers; it returns once that
// closure has run and its events have been emitted.
func (t *Ticker) tick(dtMs float64) {
	t.store.SubmitSync(func(state *GardenState) {
		if !state.Transport.Playing {
			return
		}
		before := state.Transport.Position
		bpm := state.Tempo.BPMAt(before)
		after := AdvanceBeat(before, bpm, dtMs)
		state.Transport.Position = after
		state.Transport.TempoBPM = state.Tempo.BPMAt(after)

		t.emitBeatCrossings(before, after, state.Transport.TempoBPM)
		t.emitMarkerCrossings(state, before, after)
		t.emitRegionTransitions(state, before, after)
	})
}

func (t *Ticker) emitBeatCrossings(before, after Beat, bpm float64) {
	firstBeat := math.Floor(float64(before)) + 1
	for b := firstBeat; b <= float64(after); b++ {
		t.emit(TickEvent{Kind: EventBeatTick, Beat: Beat(b), Position: after, BPM: bpm})
	}
}

func (t *Ticker) emitMarkerCrossings(state *GardenState, before, after Beat) {
	for i := range state.Markers {
		m := state.Markers[i]
		if m.AtBeat > before && m.AtBeat <= after {
			t.emit(TickEvent{Kind: EventMarkerReached, Position: after, Marker: &m})
		}
	}
}

func (t *Ticker) emitRegionTransitions(state *GardenState, before, after Beat) {
	for id, r := range state.Regions {
		if r.Tombstoned {
			delete(t.activeRegions, id)
			continue
		}
		active := after >= r.Position && after < r.Position+r.Duration
		wasActive := t.activeRegions[id]

		if active && !wasActive {
			t.activeRegions[id] = true
			region := *r
			t.emit(TickEvent{Kind: EventRegionStarted, Position: after, Region: &region})
		} else if !active && wasActive {
			delete(t.activeRegions, id)
			region := *r
			t.emit(TickEvent{Kind: EventRegionEnded, Position: after, Region: &region})
		}
	}
}
