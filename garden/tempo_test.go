package garden

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdvanceBeatMatchesFormula(t *testing.T) {
	got := AdvanceBeat(0, 120, 500)
	assert.InDelta(t, 1.0, float64(got), 1e-9)
}

func TestBeatToSecondsConstantTempo(t *testing.T) {
	m := TempoMap{DefaultBPM: 120}
	assert.InDelta(t, 2.0, m.BeatToSeconds(4), 1e-9)
}

func TestBeatToSecondsAcrossTempoChange(t *testing.T) {
	m := TempoMap{DefaultBPM: 60, Changes: []TempoChange{{AtBeat: 4, BPM: 120}}}
	// first 4 beats at 60bpm = 4s, next 4 beats at 120bpm = 2s
	assert.InDelta(t, 6.0, m.BeatToSeconds(8), 1e-9)
}

func TestSecondsToBeatIsInverseOfBeatToSeconds(t *testing.T) {
	m := TempoMap{DefaultBPM: 90, Changes: []TempoChange{{AtBeat: 8, BPM: 140}}}
	for _, beat := range []Beat{0, 3, 8, 12.5} {
		seconds := m.BeatToSeconds(beat)
		back := m.SecondsToBeat(seconds)
		assert.InDelta(t, float64(beat), float64(back), 1e-6)
	}
}

func TestBPMAtRespectsSortedChanges(t *testing.T) {
	m := TempoMap{DefaultBPM: 100, Changes: []TempoChange{{AtBeat: 10, BPM: 80}, {AtBeat: 4, BPM: 60}}}
	assert.Equal(t, 100.0, m.BPMAt(0))
	assert.Equal(t, 60.0, m.BPMAt(5))
	assert.Equal(t, 80.0, m.BPMAt(20))
}
