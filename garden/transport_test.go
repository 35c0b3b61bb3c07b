package garden

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTickerEmitsBeatTickOnCrossing(t *testing.T) {
	store := NewStore()
	defer store.Close()
	store.SubmitSync(func(state *GardenState) {
		state.Transport.Playing = true
		state.Tempo = TempoMap{DefaultBPM: 120}
	})

	var events []TickEvent
	ticker := NewTicker(store, func(e TickEvent) { events = append(events, e) })

	// 120 bpm = 2 beats/sec = one beat per 500ms.
	ticker.tick(500)

	beatTicks := 0
	for _, e := range events {
		if e.Kind == EventBeatTick {
			beatTicks++
		}
	}
	assert.Equal(t, 1, beatTicks)
}

func TestTickerEmitsMarkerReached(t *testing.T) {
	store := NewStore()
	defer store.Close()
	store.SubmitSync(func(state *GardenState) {
		state.Transport.Playing = true
		state.Tempo = TempoMap{DefaultBPM: 120}
		state.Markers = []Marker{{AtBeat: 1, Type: "section"}}
	})

	var events []TickEvent
	ticker := NewTicker(store, func(e TickEvent) { events = append(events, e) })
	ticker.tick(500)

	found := false
	for _, e := range events {
		if e.Kind == EventMarkerReached {
			found = true
		}
	}
	assert.True(t, found)
}

func TestTickerEmitsRegionStartedAndEnded(t *testing.T) {
	store := NewStore()
	defer store.Close()
	store.SubmitSync(func(state *GardenState) {
		state.Transport.Playing = true
		state.Tempo = TempoMap{DefaultBPM: 120}
		_, _ = CreateRegion(state, 1, 1, Behavior{Kind: BehaviorPlayContent}, "r", nil)
	})

	var events []TickEvent
	ticker := NewTicker(store, func(e TickEvent) { events = append(events, e) })

	ticker.tick(500) // beat 0 -> 1, region [1, 2) becomes active
	ticker.tick(500) // beat 1 -> 2, playhead leaves the region: it ends
	ticker.tick(500) // beat 2 -> 3, no region events

	started, ended := false, false
	for _, e := range events {
		if e.Kind == EventRegionStarted {
			started = true
		}
		if e.Kind == EventRegionEnded {
			ended = true
		}
	}
	assert.True(t, started)
	assert.True(t, ended)
}

func TestTickerDoesNothingWhenNotPlaying(t *testing.T) {
	store := NewStore()
	defer store.Close()

	var events []TickEvent
	ticker := NewTicker(store, func(e TickEvent) { events = append(events, e) })
	ticker.tick(1000)
	assert.Empty(t, events)
}
