package garden

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRingSinkRoundTrip(t *testing.T) {
	s := NewRingSink(8)
	in := []float32{1, 2, 3, 4}
	n := s.Write(in)
	assert.Equal(t, 4, n)

	out := make([]float32, 4)
	got := s.Read(out)
	assert.Equal(t, 4, got)
	assert.Equal(t, in, out)

	stats := s.Stats()
	assert.Equal(t, uint64(4), stats.FramesWritten)
	assert.Equal(t, uint64(4), stats.FramesRead)
	assert.Equal(t, uint64(0), stats.Underruns)
}

func TestRingSinkUnderrunZeroFillsAndCounts(t *testing.T) {
	s := NewRingSink(4)
	s.Write([]float32{9, 9})

	out := make([]float32, 4)
	got := s.Read(out)
	assert.Equal(t, 2, got)
	assert.Equal(t, []float32{9, 9, 0, 0}, out)

	assert.Equal(t, uint64(1), s.Stats().Underruns)
}

func TestRingSinkWriteTruncatesWhenFull(t *testing.T) {
	s := NewRingSink(4)
	n := s.Write([]float32{1, 2, 3, 4, 5, 6})
	assert.Equal(t, 4, n)
}

func TestNewRingSinkRoundsUpToPowerOfTwo(t *testing.T) {
	s := NewRingSink(5)
	assert.Equal(t, uint64(7), s.mask)
}

func TestNullSinkDiscardsAndReadsSilence(t *testing.T) {
	s := NewNullSink()
	s.Write([]float32{1, 2, 3})
	out := make([]float32, 3)
	out[0] = 7
	got := s.Read(out)
	assert.Equal(t, 3, got)
	assert.Equal(t, []float32{0, 0, 0}, out)

	stats := s.Stats()
	assert.Equal(t, uint64(3), stats.FramesWritten)
	assert.Equal(t, uint64(3), stats.FramesRead)
}
