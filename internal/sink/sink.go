// Package sink owns the platform audio output stream, the decoder
// source queue, and position accounting. Only one owner (the player
// loop) is expected to call it; it is not safe for unsynchronized
// concurrent use from multiple goroutines beyond the audio callback,
// which reports source transitions and the end of the stream. Grounded on the teacher's
// internal/player package (player.go, gapless.go, stream.go, volume.go),
// narrowed to the two formats the remote catalog actually serves
// (MP3, FLAC) and generalized from a hardcoded level-to-volume mapping
// to the cubic perceptual curve.
package sink

import (
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"

	"github.com/llehouerou/qobuz-player-go/internal/observer"
)

// QueryResult reports what query_track did with a decoded source.
type QueryResult int

const (
	// Queued means the source was appended to the internal queue; no
	// further action is needed from the caller.
	Queued QueryResult = iota
	// RecreateStreamRequired means the source's sample rate differs
	// from the open stream's; the caller must clear() and re-query
	// after opening a new stream.
	RecreateStreamRequired
)

// Sink owns the output stream and decoder queue described in §4.3.
type Sink struct {
	deviceName string
	driver     outputDriver
	decode     decodeFunc

	mu             sync.Mutex
	streamRate     beep.SampleRate
	streamOpen     bool
	current        *decodedTrack
	queuedNext     *decodedTrack
	gapless        *gaplessStreamer
	ctrl           *beep.Ctrl
	volume         *effects.Volume
	volumeLevel    float64
	durationMu     sync.Mutex
	durationPlayed time.Duration

	trackFinished *observer.Watch[int]
	finishedSeq   int

	monitorDone chan struct{}
}

// New constructs an empty Sink. deviceName is recorded but not used: the
// output stream always opens on the platform's default device, and no
// other device is tried.
func New(deviceName string) *Sink {
	return &Sink{
		deviceName:    deviceName,
		driver:        speakerDriver{},
		decode:        decodeFile,
		trackFinished: observer.NewWatch(0),
		volumeLevel:   1,
	}
}

// TrackFinished returns a subscription that fires once per completed
// source, after the duration accumulator has been updated.
func (s *Sink) TrackFinished() *observer.Subscription[int] {
	return s.trackFinished.Subscribe()
}

// IsEmpty reports whether the sink currently holds an open stream.
func (s *Sink) IsEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.streamOpen
}

// QueryTrack decodes path's header and either appends it to the
// internal queue (when no stream is open yet, or its sample rate
// matches the open stream's) or reports that the stream must be
// recreated first.
func (s *Sink) QueryTrack(path string) (QueryResult, error) {
	track, err := s.decode(path)
	if err != nil {
		return Queued, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.streamOpen {
		if err := s.openStreamLocked(track); err != nil {
			track.Close()
			return Queued, err
		}
		return Queued, nil
	}

	if track.format.SampleRate != s.streamRate {
		track.Close()
		return RecreateStreamRequired, nil
	}

	s.queuedNext = track
	if s.gapless != nil {
		s.gapless.SetNext(track.streamer)
	}
	return Queued, nil
}

// openStreamLocked opens the platform output stream for track's sample
// rate and starts playback of the gapless wrapper. Called with mu held.
func (s *Sink) openStreamLocked(track *decodedTrack) error {
	if err := s.driver.Init(track.format.SampleRate, defaultBufferSize(track.format.SampleRate)); err != nil {
		return err
	}

	s.streamRate = track.format.SampleRate
	s.streamOpen = true
	s.current = track
	s.queuedNext = nil
	s.durationMu.Lock()
	s.durationPlayed = 0
	s.durationMu.Unlock()

	s.gapless = &gaplessStreamer{current: track.streamer, onSwitch: s.handleTransition}
	s.ctrl = &beep.Ctrl{Streamer: s.gapless, Paused: false}
	s.volume = &effects.Volume{
		Streamer: s.ctrl,
		Base:     2,
		Volume:   gainToBeepVolume(volumeToGain(s.volumeLevel)),
	}

	if s.monitorDone != nil {
		close(s.monitorDone)
	}
	s.monitorDone = make(chan struct{})

	s.driver.Play(beep.Seq(s.volume, beep.Callback(s.handleStreamDrained)))
	return nil
}

// handleTransition runs on the audio callback goroutine, with the
// gapless streamer's own lock already released, when the internal
// queue advances to its next source: the just-finished source's
// duration is folded into the accumulator and track_finished fires.
func (s *Sink) handleTransition() {
	s.mu.Lock()
	finished := s.current
	s.current = s.queuedNext
	s.queuedNext = nil
	rate := s.streamRate
	s.mu.Unlock()

	if finished != nil {
		s.durationMu.Lock()
		s.durationPlayed += rate.D(finished.streamer.Len())
		s.durationMu.Unlock()
		go finished.Close()
	}

	s.finishedSeq++
	s.trackFinished.Send(s.finishedSeq)
}

// handleStreamDrained runs when the whole output stream (current plus
// any queued next) has been exhausted with nothing left to switch to.
func (s *Sink) handleStreamDrained() {
	s.mu.Lock()
	finished := s.current
	s.current = nil
	rate := s.streamRate
	s.mu.Unlock()

	if finished != nil {
		s.durationMu.Lock()
		s.durationPlayed += rate.D(finished.streamer.Len())
		s.durationMu.Unlock()
		go finished.Close()
	}

	s.finishedSeq++
	s.trackFinished.Send(s.finishedSeq)
}

// Play forwards to the platform sink; a no-op if no stream exists.
//
// s.mu and the driver (speaker) lock are never held at once here: the
// audio callback thread takes the speaker lock first and can, while
// running it, call back into the sink and take s.mu (via the gapless
// streamer's onSwitch), so this goroutine must never acquire them in
// the opposite order.
func (s *Sink) Play() {
	s.mu.Lock()
	ctrl := s.ctrl
	s.mu.Unlock()
	if ctrl == nil {
		return
	}
	s.driver.Lock()
	ctrl.Paused = false
	s.driver.Unlock()
}

// Pause forwards to the platform sink; a no-op if no stream exists.
func (s *Sink) Pause() {
	s.mu.Lock()
	ctrl := s.ctrl
	s.mu.Unlock()
	if ctrl == nil {
		return
	}
	s.driver.Lock()
	ctrl.Paused = true
	s.driver.Unlock()
}

// Seek moves the current source to d and resets the duration-played
// accumulator to zero (the current source restarts its contribution).
func (s *Sink) Seek(d time.Duration) error {
	s.mu.Lock()
	current := s.current
	rate := s.streamRate
	s.mu.Unlock()
	if current == nil {
		return nil
	}

	pos := rate.N(d)
	if pos < 0 {
		pos = 0
	}
	if total := current.streamer.Len(); pos > total {
		pos = total
	}

	s.driver.Lock()
	err := current.streamer.Seek(pos)
	s.driver.Unlock()
	if err != nil {
		return err
	}

	s.durationMu.Lock()
	s.durationPlayed = 0
	s.durationMu.Unlock()
	return nil
}

// Clear stops output, drops the current and queued sources and the
// output stream, and resets accumulators. Runs
// driver.Clear() before taking s.mu, for the same lock-order reason
// Play documents above.
func (s *Sink) Clear() {
	s.driver.Clear()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.monitorDone != nil {
		close(s.monitorDone)
		s.monitorDone = nil
	}
	if s.current != nil {
		s.current.Close()
		s.current = nil
	}
	if s.queuedNext != nil {
		s.queuedNext.Close()
		s.queuedNext = nil
	}
	s.gapless = nil
	s.ctrl = nil
	s.volume = nil
	s.streamOpen = false

	s.durationMu.Lock()
	s.durationPlayed = 0
	s.durationMu.Unlock()
}

// ClearQueue keeps the output stream but drops any queued source beyond
// the current one.
func (s *Sink) ClearQueue() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gapless != nil {
		s.gapless.ClearNext()
	}
	if s.queuedNext != nil {
		s.queuedNext.Close()
		s.queuedNext = nil
	}
}

// Position reports the player's position within the current source.
// Each decoded source counts its own position from zero, so the
// durations of sources that finished earlier in this stream are not
// subtracted. A negative value is clamped to zero.
func (s *Sink) Position() time.Duration {
	s.mu.Lock()
	current := s.current
	rate := s.streamRate
	s.mu.Unlock()
	if current == nil {
		return 0
	}

	s.driver.Lock()
	pos := rate.D(current.streamer.Position())
	s.driver.Unlock()

	if pos < 0 {
		return 0
	}
	return pos
}

// SyncVolume applies level (a linear [0,1] fader position) through the
// cubic perceptual curve.
func (s *Sink) SyncVolume(level float64) {
	s.mu.Lock()
	s.volumeLevel = level
	volume := s.volume
	s.mu.Unlock()
	if volume == nil {
		return
	}
	s.driver.Lock()
	volume.Volume = gainToBeepVolume(volumeToGain(level))
	s.driver.Unlock()
}
