//go:build linux

package mpris

import (
	"fmt"
	"hash/fnv"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/quarckster/go-mpris-server/pkg/server"
	"github.com/quarckster/go-mpris-server/pkg/types"

	"github.com/llehouerou/qobuz-player-go/internal/observer"
	"github.com/llehouerou/qobuz-player-go/internal/player"
	"github.com/llehouerou/qobuz-player-go/internal/tracklist"
)

// Adapter connects the player loop to MPRIS over D-Bus. Grounded on the
// teacher's own mpris.Adapter (same D-Bus server wiring and Close/Stop
// lifecycle), rewired from a playback.Service with Next/Previous/Toggle
// methods onto player.Loop's Facade/observer.Subscription surface: every
// control is now a non-blocking ControlCommand send, and every getter
// reads the latest value off a Subscription instead of calling into a
// mutex-guarded service.
type Adapter struct {
	server *server.Server
}

// New creates and starts a new MPRIS adapter over loop.
func New(loop *player.Loop) (*Adapter, error) {
	root := &rootAdapter{}
	pa := &playerAdapter{
		facade:    loop.Facade(),
		statusSub: loop.Status(),
		posSub:    loop.Position(),
		tlSub:     loop.Tracklist(),
		volumeSub: loop.Volume(),
	}

	a := &Adapter{server: server.NewServer("qobuz-player", root, pa)}

	go func() {
		_ = a.server.Listen()
	}()

	return a, nil
}

// Close stops the adapter and releases D-Bus resources.
func (a *Adapter) Close() error {
	return a.server.Stop()
}

// rootAdapter implements OrgMprisMediaPlayer2Adapter.
type rootAdapter struct{}

func (r *rootAdapter) Raise() error { return nil }
func (r *rootAdapter) Quit() error  { return nil }

func (r *rootAdapter) CanQuit() (bool, error)  { return false, nil }
func (r *rootAdapter) CanRaise() (bool, error) { return false, nil }

func (r *rootAdapter) HasTrackList() (bool, error) { return false, nil }

func (r *rootAdapter) Identity() (string, error) { return "Qobuz Player", nil }

//nolint:revive // Method name required by interface.
func (r *rootAdapter) SupportedUriSchemes() ([]string, error) {
	return nil, nil
}

func (r *rootAdapter) SupportedMimeTypes() ([]string, error) {
	return nil, nil
}

// playerAdapter implements OrgMprisMediaPlayer2PlayerAdapter. Every
// method reads from a standing observer.Subscription rather than
// blocking on the player loop, matching the rule that a presenter never
// blocks the loop.
type playerAdapter struct {
	facade    *player.Facade
	statusSub *observer.Subscription[player.Status]
	posSub    *observer.Subscription[time.Duration]
	tlSub     *observer.Subscription[tracklist.Snapshot]
	volumeSub *observer.Subscription[float32]
}

func (p *playerAdapter) Next() error {
	p.facade.Send(player.NewNextCommand())
	return nil
}

func (p *playerAdapter) Previous() error {
	p.facade.Send(player.NewPreviousCommand())
	return nil
}

func (p *playerAdapter) Pause() error {
	p.facade.Send(player.NewPauseCommand())
	return nil
}

func (p *playerAdapter) PlayPause() error {
	p.facade.Send(player.NewPlayPauseCommand())
	return nil
}

// Stop has no direct equivalent in the player loop's command set (there
// is no Stopped status, only Paused/Playing/Buffering); clearing the
// queue is the closest match and leaves nothing for a client to resume,
// matching what MPRIS clients expect Stop to do.
func (p *playerAdapter) Stop() error {
	p.facade.Send(player.NewClearQueueCommand())
	return nil
}

func (p *playerAdapter) Play() error {
	p.facade.Send(player.NewPlayCommand())
	return nil
}

func (p *playerAdapter) Seek(offset types.Microseconds) error {
	current := p.posSub.Borrow()
	target := current + time.Duration(offset)*time.Microsecond
	p.facade.Send(player.NewSeekCommand(target))
	return nil
}

func (p *playerAdapter) SetPosition(_ string, position types.Microseconds) error {
	p.facade.Send(player.NewSeekCommand(time.Duration(position) * time.Microsecond))
	return nil
}

//nolint:revive // Method name required by interface.
func (p *playerAdapter) OpenUri(_ string) error {
	return nil // not supported: playback is always driven from the catalog
}

// PlaybackStatus maps Buffering to Paused: MPRIS has no third state for
// "not yet producing audio but trying to".
func (p *playerAdapter) PlaybackStatus() (types.PlaybackStatus, error) {
	switch p.statusSub.Borrow() {
	case player.Playing:
		return types.PlaybackStatusPlaying, nil
	default:
		return types.PlaybackStatusPaused, nil
	}
}

func (p *playerAdapter) Rate() (float64, error)        { return 1.0, nil }
func (p *playerAdapter) SetRate(_ float64) error        { return nil }
func (p *playerAdapter) MinimumRate() (float64, error) { return 1.0, nil }
func (p *playerAdapter) MaximumRate() (float64, error) { return 1.0, nil }

func (p *playerAdapter) Metadata() (types.Metadata, error) {
	snap := p.tlSub.Borrow()
	track, queueID := currentTrack(snap)
	if track == nil {
		return types.Metadata{}, nil
	}

	meta := types.Metadata{
		TrackId:     dbus.ObjectPath(formatTrackID(queueID)),
		Length:      types.Microseconds(time.Duration(track.DurationSeconds) * time.Second / time.Microsecond),
		Title:       track.Title,
		Artist:      []string{track.ArtistName},
		Album:       track.AlbumTitle,
		TrackNumber: track.Number,
	}
	if track.Image.Large != "" {
		meta.ArtUrl = track.Image.Large
	}
	return meta, nil
}

func (p *playerAdapter) Volume() (float64, error) {
	return float64(p.volumeSub.Borrow()), nil
}

func (p *playerAdapter) SetVolume(v float64) error {
	p.facade.Send(player.NewSetVolumeCommand(float32(v)))
	return nil
}

func (p *playerAdapter) Position() (int64, error) {
	return p.posSub.Borrow().Microseconds(), nil
}

func (p *playerAdapter) CanGoNext() (bool, error) {
	pos, total := currentPosition(p.tlSub.Borrow())
	return pos+1 < total, nil
}

func (p *playerAdapter) CanGoPrevious() (bool, error) {
	pos, _ := currentPosition(p.tlSub.Borrow())
	return pos > 0, nil
}

func (p *playerAdapter) CanPlay() (bool, error) {
	_, total := currentPosition(p.tlSub.Borrow())
	return total > 0, nil
}

func (p *playerAdapter) CanPause() (bool, error)   { return true, nil }
func (p *playerAdapter) CanSeek() (bool, error)    { return true, nil }
func (p *playerAdapter) CanControl() (bool, error) { return true, nil }

// currentTrack returns the Playing item's Track and stable queue id from
// a tracklist snapshot, or (nil, 0) if nothing is playing.
func currentTrack(snap tracklist.Snapshot) (*tracklist.Track, uint64) {
	for _, item := range snap.Queue {
		if item.Track.Status == tracklist.StatusPlaying {
			tr := item.Track
			return &tr, item.ID
		}
	}
	return nil, 0
}

// currentPosition returns the index of the Playing item (or 0 if none)
// and the total queue length.
func currentPosition(snap tracklist.Snapshot) (pos int, total int) {
	total = len(snap.Queue)
	for i, item := range snap.Queue {
		if item.Track.Status == tracklist.StatusPlaying {
			return i, total
		}
	}
	return 0, total
}

func formatTrackID(queueID uint64) string {
	h := fnv.New64a()
	fmt.Fprintf(h, "%d", queueID)
	return fmt.Sprintf("/org/mpris/MediaPlayer2/Track/%x", h.Sum64())
}
