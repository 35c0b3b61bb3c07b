package garden

import "sync/atomic"

// AudioStats is a snapshot of a sink's runtime counters.
type AudioStats struct {
	FramesWritten uint64
	FramesRead    uint64
	Underruns     uint64
}

// AudioSink is the kernel's pluggable audio output. Implementations must
// make Read safe to call from a realtime audio callback: it must never
// block, never allocate, and never call back into the graph.
type AudioSink interface {
	// Write enqueues producer-side frames; called from the timeline
	// advancer, never from the audio callback.
	Write(frames []float32) (written int)
	// Read drains frames for the audio callback; must not block or
	// allocate. Returns fewer frames than requested on underrun, padding
	// the remainder with silence.
	Read(out []float32) (read int)
	// Stats returns the current counters.
	Stats() AudioStats
}

// RingSink is a lock-free single-producer/single-consumer ring buffer:
// the timeline advancer produces, the audio callback consumes. Capacity is
// rounded up to the next power of two so index wrapping is a mask, not a
// modulo.
type RingSink struct {
	buf  []float32
	mask uint64

	writeIdx atomic.Uint64
	readIdx  atomic.Uint64

	framesWritten atomic.Uint64
	framesRead    atomic.Uint64
	underruns     atomic.Uint64
}

// NewRingSink allocates a RingSink with at least capacityFrames of storage.
func NewRingSink(capacityFrames int) *RingSink {
	size := nextPowerOfTwo(capacityFrames)
	return &RingSink{
		buf:  make([]float32, size),
		mask: uint64(size - 1),
	}
}

func nextPowerOfTwo(n int) int {
	if n < 1 {
		n = 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// Write copies frames into the ring, never overwriting frames the consumer
// has not yet read; it returns fewer than len(frames) if the ring fills.
func (r *RingSink) Write(frames []float32) int {
	writePos := r.writeIdx.Load()
	readPos := r.readIdx.Load()
	capacity := r.mask + 1
	free := capacity - (writePos - readPos)

	n := uint64(len(frames))
	if n > free {
		n = free
	}
	for i := uint64(0); i < n; i++ {
		r.buf[(writePos+i)&r.mask] = frames[i]
	}
	r.writeIdx.Store(writePos + n)
	r.framesWritten.Add(n)
	return int(n)
}

// Read drains up to len(out) frames for the audio callback. Frames beyond
// what's available are zero-filled and counted as an underrun; this method
// never blocks or allocates.
func (r *RingSink) Read(out []float32) int {
	readPos := r.readIdx.Load()
	writePos := r.writeIdx.Load()
	available := writePos - readPos

	n := uint64(len(out))
	got := n
	if got > available {
		got = available
	}
	for i := uint64(0); i < got; i++ {
		out[i] = r.buf[(readPos+i)&r.mask]
	}
	for i := got; i < n; i++ {
		out[i] = 0
	}
	r.readIdx.Store(readPos + got)
	r.framesRead.Add(got)
	if got < n {
		r.underruns.Add(1)
	}
	return int(got)
}

// Stats returns the current frame/underrun counters.
func (r *RingSink) Stats() AudioStats {
	return AudioStats{
		FramesWritten: r.framesWritten.Load(),
		FramesRead:    r.framesRead.Load(),
		Underruns:     r.underruns.Load(),
	}
}

// NullSink discards all writes and always reads silence; used in tests and
// headless operation.
type NullSink struct {
	stats atomic.Pointer[AudioStats]
}

// NewNullSink creates a NullSink with zeroed stats.
func NewNullSink() *NullSink {
	s := &NullSink{}
	s.stats.Store(&AudioStats{})
	return s
}

func (s *NullSink) Write(frames []float32) int {
	st := *s.stats.Load()
	st.FramesWritten += uint64(len(frames))
	s.stats.Store(&st)
	return len(frames)
}

func (s *NullSink) Read(out []float32) int {
	for i := range out {
		out[i] = 0
	}
	st := *s.stats.Load()
	st.FramesRead += uint64(len(out))
	s.stats.Store(&st)
	return len(out)
}

func (s *NullSink) Stats() AudioStats {
	return *s.stats.Load()
}
