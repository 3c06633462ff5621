// Package observer implements the latest-value "watch" channels the core
// exposes to presenters: status, position, tracklist, and volume. A new
// subscriber sees the current value immediately; intermediate values may
// be coalesced, and every subscription has its own independent "changed"
// edge, mirroring the spec's observer-subscription contract (borrow/
// changed) rather than a buffered event stream.
package observer

import "sync"

// Watch holds the latest value of T and notifies subscribers that it
// changed. It is the single-producer (player loop), multi-consumer
// primitive behind status/position/tracklist/volume.
type Watch[T any] struct {
	mu      sync.Mutex
	value   T
	changed chan struct{}
}

// NewWatch creates a Watch seeded with initial.
func NewWatch[T any](initial T) *Watch[T] {
	return &Watch[T]{value: initial, changed: make(chan struct{})}
}

// Send publishes a new value, waking every subscriber currently blocked
// on Changed().
func (w *Watch[T]) Send(v T) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.value = v
	close(w.changed)
	w.changed = make(chan struct{})
}

// Subscribe returns a handle whose Borrow() yields the current value and
// whose Changed() awaits the next update.
func (w *Watch[T]) Subscribe() *Subscription[T] {
	return &Subscription[T]{w: w}
}

// Subscription is a read-only view onto a Watch.
type Subscription[T any] struct {
	w *Watch[T]
}

// Borrow returns the current value without blocking.
func (s *Subscription[T]) Borrow() T {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	return s.w.value
}

// Changed returns a channel that closes the next time the watched value
// is updated. Callers select on it and re-Borrow to pick up the new
// value; the channel returned by one call is only good for one edge.
func (s *Subscription[T]) Changed() <-chan struct{} {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	return s.w.changed
}
