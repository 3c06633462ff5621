package sink

import (
	"sync"

	"github.com/gopxl/beep/v2"
)

var _ beep.Streamer = (*gaplessStreamer)(nil)

// gaplessStreamer wraps a streamer and allows seamless transition to a
// queued next streamer, so the output never drops a buffer's worth of
// silence between two tracks of the same sample rate.
type gaplessStreamer struct {
	mu       sync.Mutex
	current  beep.Streamer
	next     beep.Streamer
	onSwitch func()
}

// Stream implements beep.Streamer. onSwitch, when set, is invoked with
// mu released: it runs the sink's transition bookkeeping, which takes
// the sink's own lock, and the audio callback thread must never hold
// two locks in an order some other goroutine takes in reverse.
func (g *gaplessStreamer) Stream(samples [][2]float64) (n int, ok bool) {
	g.mu.Lock()
	n, ok = g.current.Stream(samples)

	if n < len(samples) && ok {
		n2, ok2 := g.current.Stream(samples[n:])
		n += n2
		ok = ok2
	}

	switched := false
	if !ok && g.next != nil {
		g.current = g.next
		g.next = nil
		switched = true
	}
	g.mu.Unlock()

	if !switched {
		return n, ok
	}

	if g.onSwitch != nil {
		g.onSwitch()
	}

	g.mu.Lock()
	current := g.current
	g.mu.Unlock()

	if n < len(samples) {
		n2, ok2 := current.Stream(samples[n:])
		n += n2
		ok = ok2
	} else {
		ok = true
	}

	return n, ok
}

// Err implements beep.Streamer.
func (g *gaplessStreamer) Err() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.current != nil {
		return g.current.Err()
	}
	return nil
}

// SetNext queues s as the streamer to transition to once current ends.
func (g *gaplessStreamer) SetNext(s beep.Streamer) {
	g.mu.Lock()
	g.next = s
	g.mu.Unlock()
}

// ClearNext drops any queued next streamer.
func (g *gaplessStreamer) ClearNext() {
	g.mu.Lock()
	g.next = nil
	g.mu.Unlock()
}

// HasNext reports whether a next streamer is queued.
func (g *gaplessStreamer) HasNext() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.next != nil
}
