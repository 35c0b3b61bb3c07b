package garden

import "sort"

// BeatToSeconds converts a beat position to elapsed seconds from beat 0,
// integrating BPM piecewise-linearly over the map's sorted changes.
func (m TempoMap) BeatToSeconds(beat Beat) float64 {
	changes := m.sortedChanges()
	elapsed := 0.0
	cursor := Beat(0)
	bpm := m.DefaultBPM

	for _, c := range changes {
		if c.AtBeat >= beat {
			break
		}
		span := c.AtBeat - cursor
		elapsed += float64(span) * 60.0 / bpm
		cursor = c.AtBeat
		bpm = c.BPM
	}
	elapsed += float64(beat-cursor) * 60.0 / bpm
	return elapsed
}

// SecondsToBeat is the inverse of BeatToSeconds: converts elapsed seconds
// into a beat position, integrating the same piecewise-linear tempo map.
func (m TempoMap) SecondsToBeat(seconds float64) Beat {
	changes := m.sortedChanges()
	cursor := Beat(0)
	bpm := m.DefaultBPM
	remaining := seconds

	for _, c := range changes {
		span := c.AtBeat - cursor
		segmentSeconds := float64(span) * 60.0 / bpm
		if segmentSeconds >= remaining {
			return cursor + Beat(remaining*bpm/60.0)
		}
		remaining -= segmentSeconds
		cursor = c.AtBeat
		bpm = c.BPM
	}
	return cursor + Beat(remaining*bpm/60.0)
}

// BPMAt returns the tempo in effect at beat.
func (m TempoMap) BPMAt(beat Beat) float64 {
	changes := m.sortedChanges()
	bpm := m.DefaultBPM
	for _, c := range changes {
		if c.AtBeat > beat {
			break
		}
		bpm = c.BPM
	}
	return bpm
}

func (m TempoMap) sortedChanges() []TempoChange {
	changes := make([]TempoChange, len(m.Changes))
	copy(changes, m.Changes)
	sort.Slice(changes, func(i, j int) bool { return changes[i].AtBeat < changes[j].AtBeat })
	return changes
}

// AdvanceBeat computes the new beat position after dtMs milliseconds at the
// tempo in effect at the current position, matching the transport tick's
// `bpm * 1/60000 * dt_ms` formula.
func AdvanceBeat(current Beat, bpm float64, dtMs float64) Beat {
	return current + Beat(bpm*dtMs/60000.0)
}
