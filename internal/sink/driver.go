package sink

import (
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"

	"github.com/llehouerou/qobuz-player-go/internal/stderr"
)

// outputDriver is the seam between the Sink and the platform audio
// output. speakerDriver below wraps gopxl/beep/v2/speaker's package-level
// globals; tests substitute a fake so the rest of Sink's logic can run
// without an audio device.
type outputDriver interface {
	Init(sampleRate beep.SampleRate, bufferSize int) error
	Play(s beep.Streamer)
	Clear()
	Lock()
	Unlock()
}

type speakerDriver struct{}

// Init opens the platform output stream. ALSA (and some other native
// backends) write noisy diagnostics directly to file descriptor 2 during
// this call, so it runs with stderr redirected to the capture pipe.
func (speakerDriver) Init(sampleRate beep.SampleRate, bufferSize int) error {
	if err := stderr.Start(); err != nil {
		return speaker.Init(sampleRate, bufferSize)
	}
	defer stderr.Stop()
	return speaker.Init(sampleRate, bufferSize)
}

func (speakerDriver) Play(s beep.Streamer) { speaker.Play(s) }
func (speakerDriver) Clear()               { speaker.Clear() }
func (speakerDriver) Lock()                { speaker.Lock() }
func (speakerDriver) Unlock()              { speaker.Unlock() }

// defaultBufferSize matches the teacher's speaker init buffer: a tenth
// of a second at the stream's sample rate.
func defaultBufferSize(rate beep.SampleRate) int {
	return rate.N(time.Second / 10)
}
