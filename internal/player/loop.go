// Package player implements the single cooperative actor that owns the
// authoritative Tracklist, the Sink, and the Downloader: it arbitrates
// commands from presenters, prefetches the next track near end-of-track,
// and reconciles target playback status against what the sink reports.
// Grounded in shape on the teacher's internal/playback package (the
// subscribe/broadcast style of subscription.go, the state enum of
// state.go) but restructured from serviceImpl's mutex-guarded method
// calls into a single select loop, since the tracklist here is owned
// exclusively by one goroutine rather than shared behind a lock.
package player

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/llehouerou/qobuz-player-go/internal/apperror"
	"github.com/llehouerou/qobuz-player-go/internal/downloader"
	"github.com/llehouerou/qobuz-player-go/internal/notification"
	"github.com/llehouerou/qobuz-player-go/internal/observer"
	"github.com/llehouerou/qobuz-player-go/internal/remote"
	"github.com/llehouerou/qobuz-player-go/internal/sink"
	"github.com/llehouerou/qobuz-player-go/internal/tracklist"
)

const (
	tickInterval     = 500 * time.Millisecond
	prefetchLookahead = 60 * time.Second
	jumpStep          = 10 * time.Second
)

// sinkPort is the subset of *sink.Sink the loop depends on; narrowed to
// an interface so tests can drive the loop without real audio decode.
type sinkPort interface {
	QueryTrack(path string) (sink.QueryResult, error)
	Play()
	Pause()
	Seek(d time.Duration) error
	Clear()
	ClearQueue()
	Position() time.Duration
	SyncVolume(level float64)
	TrackFinished() *observer.Subscription[int]
	IsEmpty() bool
}

// downloaderPort is the subset of *downloader.Downloader the loop depends on.
type downloaderPort interface {
	EnsureTrackIsDownloaded(ctx context.Context, url string, track tracklist.Track) (string, bool)
	Subscribe() *observer.Subscription[downloader.Event]
}

// Store is the persistence contract consumed by the loop: volume and
// the last tracklist survive a restart through it.
type Store interface {
	SetVolume(v float32) error
	SetTracklist(tl *tracklist.Tracklist) error
	GetTracklist() (*tracklist.Tracklist, error)
}

// Options configures optional delays used to work around devices that
// need real time to settle a state or sample-rate transition.
type Options struct {
	StateChangeDelay      time.Duration
	SampleRateChangeDelay time.Duration
	DeviceName            string
}

// Loop is the player-loop actor described in §4.4: it owns the
// authoritative Tracklist, the Sink, and the Downloader, and is the
// sole mutator of all three.
type Loop struct {
	remote   remote.Client
	sink     sinkPort
	dl       downloaderPort
	store    Store
	notifier *notification.Broadcaster
	opts     Options

	facade *Facade

	tracklist    *tracklist.Tracklist
	targetStatus Status

	nextTrackQueried    bool
	nextTrackInSinkQueue bool

	statusWatch    *observer.Watch[Status]
	positionWatch  *observer.Watch[time.Duration]
	tracklistWatch *observer.Watch[tracklist.Snapshot]
	volumeWatch    *observer.Watch[float32]

	sinkFinished  *observer.Subscription[int]
	dlDone        *observer.Subscription[downloader.Event]
}

// New builds a Loop over its collaborators. If store holds a persisted
// tracklist, it is restored as the initial queue (paused, not playing).
func New(client remote.Client, snk sinkPort, dl downloaderPort, store Store, notifier *notification.Broadcaster, opts Options) *Loop {
	l := &Loop{
		remote:         client,
		sink:           snk,
		dl:             dl,
		store:          store,
		notifier:       notifier,
		opts:           opts,
		facade:         newFacade(),
		tracklist:      tracklist.Empty(),
		targetStatus:   Paused,
		statusWatch:    observer.NewWatch(Paused),
		positionWatch:  observer.NewWatch(time.Duration(0)),
		tracklistWatch: observer.NewWatch(tracklist.Empty().Snapshot()),
		volumeWatch:    observer.NewWatch(float32(1)),
		sinkFinished:   snk.TrackFinished(),
		dlDone:         dl.Subscribe(),
	}
	if store != nil {
		if tl, err := store.GetTracklist(); err == nil && tl != nil {
			l.tracklist = tl
			l.tracklistWatch.Send(l.tracklist.Snapshot())
		}
	}
	return l
}

// Facade returns the non-blocking command sender presenters use.
func (l *Loop) Facade() *Facade { return l.facade }

// Status returns a subscription to the observed playback status.
func (l *Loop) Status() *observer.Subscription[Status] { return l.statusWatch.Subscribe() }

// Position returns a subscription to the observed playback position.
func (l *Loop) Position() *observer.Subscription[time.Duration] { return l.positionWatch.Subscribe() }

// Tracklist returns a subscription to tracklist snapshots.
func (l *Loop) Tracklist() *observer.Subscription[tracklist.Snapshot] { return l.tracklistWatch.Subscribe() }

// Volume returns a subscription to the observed volume.
func (l *Loop) Volume() *observer.Subscription[float32] { return l.volumeWatch.Subscribe() }

// Run drives the event loop until ctx is cancelled. It is intended to
// be run as one goroutine for the lifetime of the process.
func (l *Loop) Run(ctx context.Context) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.handleTick(ctx)
		case cmd := <-l.facade.commands:
			l.handleCommand(ctx, cmd)
		case <-l.sinkFinished.Changed():
			l.handleTrackFinished(ctx)
		case <-l.dlDone.Changed():
			l.handleDoneBuffering(ctx, l.dlDone.Borrow())
		}
	}
}

func (l *Loop) handleTick(ctx context.Context) {
	if l.targetStatus == Playing {
		l.positionWatch.Send(l.sink.Position())
	}
	if l.nextTrackQueried {
		return
	}
	current := l.tracklist.CurrentTrack()
	if current == nil {
		return
	}
	remaining := time.Duration(current.DurationSeconds)*time.Second - l.sink.Position()
	if remaining < prefetchLookahead && remaining > 0 {
		if next := l.tracklist.NextTrack(); next != nil {
			l.queryTrack(ctx, *next, true)
		}
	}
}

// queryTrack implements the query-track subroutine of §4.4.
func (l *Loop) queryTrack(ctx context.Context, track tracklist.Track, isNext bool) {
	if isNext {
		l.nextTrackQueried = true
	}

	url, err := l.remote.TrackURL(ctx, track.ID)
	if err != nil {
		l.reportError(err)
		return
	}

	path, ready := l.dl.EnsureTrackIsDownloaded(ctx, url, track)
	if !ready {
		l.setTargetStatus(Buffering)
		return
	}

	l.finishQueryTrack(isNext, path)
}

func (l *Loop) finishQueryTrack(isNext bool, path string) {
	if l.opts.StateChangeDelay > 0 && l.targetStatus == Paused {
		l.setTargetStatus(Buffering)
		time.Sleep(l.opts.StateChangeDelay)
	}

	result, err := l.sink.QueryTrack(path)
	if err != nil {
		l.reportError(apperror.New(apperror.Stream, "query_track", err))
		return
	}
	if isNext {
		l.nextTrackInSinkQueue = result == sink.Queued
	}

	l.sink.Play()
	l.setTargetStatus(Playing)
}

func (l *Loop) handleTrackFinished(ctx context.Context) {
	newPosition := l.tracklist.CurrentPosition() + 1
	l.tracklist.SkipToTrack(newPosition)
	l.positionWatch.Send(0)

	next := l.tracklist.CurrentTrack()
	switch {
	case next != nil && l.nextTrackInSinkQueue:
		// already queued in the sink; nothing more to do
	case next != nil:
		l.sink.Clear()
		if l.opts.SampleRateChangeDelay > 0 {
			time.Sleep(l.opts.SampleRateChangeDelay)
		}
		l.queryTrack(ctx, *next, false)
	default:
		l.tracklist.Reset()
		l.setTargetStatus(Paused)
		l.sink.Pause()
		l.sink.Clear()
		l.positionWatch.Send(0)
	}

	l.nextTrackQueried = false
	l.nextTrackInSinkQueue = false
	l.broadcastTracklist()
}

func (l *Loop) handleDoneBuffering(ctx context.Context, ev downloader.Event) {
	current := l.tracklist.CurrentTrack()
	isNext := current == nil || current.ID != ev.TrackID

	if l.opts.StateChangeDelay > 0 {
		l.setTargetStatus(Buffering)
		time.Sleep(l.opts.StateChangeDelay)
	}
	_ = ctx
	l.finishQueryTrack(isNext, ev.Path)
}

func (l *Loop) handleCommand(ctx context.Context, cmd ControlCommand) {
	switch cmd.Kind() {
	case cmdAlbum:
		l.playAlbum(ctx, cmd.albumID, cmd.index)
	case cmdPlaylist:
		l.playPlaylist(ctx, cmd.playlistID, cmd.index, cmd.shuffle)
	case cmdArtistTopTracks:
		l.playArtistTopTracks(ctx, cmd.artistID, cmd.index)
	case cmdTrack:
		l.playTrack(ctx, cmd.trackID)
	case cmdNext:
		l.skipToPosition(ctx, l.tracklist.CurrentPosition()+1, false)
	case cmdPrevious:
		l.skipToPosition(ctx, l.tracklist.CurrentPosition()-1, false)
	case cmdPlayPause:
		l.playPause(ctx)
	case cmdPlay:
		l.play(ctx)
	case cmdPause:
		l.pause()
	case cmdSkipToPosition:
		l.skipToPosition(ctx, int(cmd.newPosition), cmd.force)
	case cmdJumpForward:
		l.jumpForward()
	case cmdJumpBackward:
		l.jumpBackward()
	case cmdSeek:
		l.seek(cmd.seekTime)
	case cmdSetVolume:
		l.setVolume(cmd.volume)
	case cmdAddTrackToQueue:
		l.addTrackToQueue(ctx, cmd.trackID)
	case cmdRemoveIndexFromQueue:
		l.removeIndexFromQueue(cmd.index)
	case cmdPlayTrackNext:
		l.playTrackNext(ctx, cmd.trackID)
	case cmdReorderQueue:
		l.reorderQueue(cmd.newOrder)
	case cmdNewQueue:
		l.newQueue(ctx, cmd.queueItems, cmd.playNewQueue)
	case cmdClearQueue:
		l.clearQueue()
	}
}

func (l *Loop) play(ctx context.Context) {
	if l.opts.StateChangeDelay > 0 && l.targetStatus == Paused {
		l.setTargetStatus(Buffering)
		time.Sleep(l.opts.StateChangeDelay)
	}
	if l.sink.IsEmpty() {
		if current := l.tracklist.CurrentTrack(); current != nil {
			l.queryTrack(ctx, *current, false)
			return
		}
	}
	l.setTargetStatus(Playing)
	l.sink.Play()
}

func (l *Loop) pause() {
	l.setTargetStatus(Paused)
	l.sink.Pause()
}

func (l *Loop) playPause(ctx context.Context) {
	if l.targetStatus == Playing || l.targetStatus == Buffering {
		l.pause()
		return
	}
	l.play(ctx)
}

// skipToPosition implements the skip semantics of §4.4: a backward skip
// while more than a second into the current track restarts it instead
// of actually moving, unless force bypasses that rewind check.
func (l *Loop) skipToPosition(ctx context.Context, newPosition int, force bool) {
	if !force && newPosition < l.tracklist.CurrentPosition() && l.sink.Position() > time.Second {
		l.seek(0)
		return
	}

	l.positionWatch.Send(0)
	if track := l.tracklist.SkipToTrack(newPosition); track != nil {
		l.newQueuePath(ctx, *track)
		return
	}

	l.tracklist.Reset()
	l.nextTrackQueried = false
	l.sink.Clear()
	l.setTargetStatus(Paused)
	l.broadcastTracklist()
}

// newQueuePath implements the new-queue path of §4.4, shared by
// skip_to_position and every play_* command that replaces the
// tracklist: clear the sink, query the new current track, and
// broadcast/persist the result.
func (l *Loop) newQueuePath(ctx context.Context, current tracklist.Track) {
	l.sink.Clear()
	l.nextTrackQueried = false
	l.nextTrackInSinkQueue = false
	l.broadcastTracklist()
	l.persistTracklist()
	l.queryTrack(ctx, current, false)
}

func (l *Loop) jumpForward() {
	current := l.tracklist.CurrentTrack()
	if current == nil {
		return
	}
	duration := time.Duration(current.DurationSeconds) * time.Second
	target := l.sink.Position() + jumpStep
	if target > duration {
		target = duration
	}
	l.seek(target)
}

func (l *Loop) jumpBackward() {
	current := l.sink.Position()
	target := current - jumpStep
	if current < jumpStep {
		target = 0
	}
	l.seek(target)
}

func (l *Loop) seek(t time.Duration) {
	if t < 0 {
		t = 0
	}
	if err := l.sink.Seek(t); err != nil {
		l.reportError(apperror.New(apperror.Stream, "seek", err))
		return
	}
	l.positionWatch.Send(t)
}

func (l *Loop) setVolume(v float32) {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	l.sink.SyncVolume(float64(v))
	l.volumeWatch.Send(v)
	if l.store != nil {
		if err := l.store.SetVolume(v); err != nil {
			l.reportError(apperror.New(apperror.Persistence, "set_volume", err))
		}
	}
}

func (l *Loop) clearQueue() {
	l.sink.Clear()
	l.tracklist = tracklist.Empty()
	l.targetStatus = Paused
	l.nextTrackQueried = false
	l.nextTrackInSinkQueue = false
	l.positionWatch.Send(0)
	l.statusWatch.Send(Paused)
	l.broadcastTracklist()
	l.persistTracklist()
}

func (l *Loop) addTrackToQueue(ctx context.Context, id uint32) {
	track, err := l.remote.Track(ctx, id)
	if err != nil {
		l.reportError(err)
		return
	}
	l.tracklist.PushTrack(track)
	l.broadcastTracklist()
	l.persistTracklist()
}

func (l *Loop) playTrackNext(ctx context.Context, id uint32) {
	track, err := l.remote.Track(ctx, id)
	if err != nil {
		l.reportError(err)
		return
	}
	l.tracklist.InsertTrack(l.tracklist.CurrentPosition()+1, track)
	l.nextTrackQueried = false
	l.nextTrackInSinkQueue = false
	l.broadcastTracklist()
	l.persistTracklist()
}

func (l *Loop) removeIndexFromQueue(index int) {
	if l.tracklist.RemoveTrack(index) {
		l.broadcastTracklist()
		l.persistTracklist()
	}
}

func (l *Loop) reorderQueue(newOrder []int) {
	l.tracklist.ReorderQueue(newOrder)
	l.broadcastTracklist()
	l.persistTracklist()
}

func (l *Loop) newQueue(ctx context.Context, items []NewQueueItem, play bool) {
	queueItems := make([]tracklist.QueueItem, 0, len(items))
	for _, it := range items {
		track, err := l.remote.Track(ctx, it.TrackID)
		if err != nil {
			l.reportError(err)
			continue
		}
		queueItems = append(queueItems, tracklist.QueueItem{Track: track, ID: it.QueueID})
	}

	l.tracklist = tracklist.NewWithID(tracklist.NewType(), queueItems)
	if len(queueItems) > 0 {
		l.tracklist.SkipToTrack(0)
	}
	l.positionWatch.Send(0)

	if current := l.tracklist.CurrentTrack(); play && current != nil {
		l.newQueuePath(ctx, *current)
		return
	}

	l.sink.Clear()
	l.nextTrackQueried = false
	l.nextTrackInSinkQueue = false
	l.broadcastTracklist()
	l.persistTracklist()
}

func (l *Loop) playAlbum(ctx context.Context, id string, index int) {
	album, err := l.remote.Album(ctx, id)
	if err != nil {
		l.reportError(err)
		return
	}
	streamable, indexMap := tracklist.FilterStreamable(album.Tracks)
	l.startTracklist(ctx, tracklist.NewAlbumType(album.Title, album.ID, album.Image), streamable, remapStreamableIndex(index, indexMap))
}

func (l *Loop) playPlaylist(ctx context.Context, id uint32, index int, shuffle bool) {
	pl, err := l.remote.Playlist(ctx, id)
	if err != nil {
		l.reportError(err)
		return
	}
	streamable, indexMap := tracklist.FilterStreamable(pl.Tracks)
	index = remapStreamableIndex(index, indexMap)
	if shuffle {
		streamable = shuffleTracks(streamable)
		index = 0
	}
	l.startTracklist(ctx, tracklist.NewPlaylistType(pl.Title, strconv.FormatUint(uint64(pl.ID), 10), pl.Image), streamable, index)
}

func (l *Loop) playArtistTopTracks(ctx context.Context, artistID uint32, index int) {
	page, err := l.remote.ArtistPage(ctx, artistID)
	if err != nil {
		l.reportError(err)
		return
	}
	streamable, indexMap := tracklist.FilterStreamable(page.TopTracks)
	l.startTracklist(ctx, tracklist.NewTopTracksType(page.Name, strconv.FormatUint(uint64(artistID), 10), page.Image), streamable, remapStreamableIndex(index, indexMap))
}

// remapStreamableIndex translates an index into the original,
// unfiltered track list into the corresponding index in the list
// FilterStreamable produced, so "play album starting at track 2"
// still starts at the track the caller meant once unplayable tracks
// are dropped ahead of it. If the requested track itself got dropped,
// it falls forward to the next streamable one, then back to the
// nearest preceding one.
func remapStreamableIndex(index int, indexMap []int) int {
	if index < 0 || index >= len(indexMap) {
		return 0
	}
	if indexMap[index] != -1 {
		return indexMap[index]
	}
	for i := index + 1; i < len(indexMap); i++ {
		if indexMap[i] != -1 {
			return indexMap[i]
		}
	}
	for i := index - 1; i >= 0; i-- {
		if indexMap[i] != -1 {
			return indexMap[i]
		}
	}
	return 0
}

func (l *Loop) playTrack(ctx context.Context, id uint32) {
	track, err := l.remote.Track(ctx, id)
	if err != nil {
		l.reportError(err)
		return
	}
	l.startTracklist(ctx, tracklist.NewType(), []tracklist.Track{track}, 0)
}

func (l *Loop) startTracklist(ctx context.Context, listType tracklist.Type, tracks []tracklist.Track, index int) {
	l.tracklist = tracklist.New(listType, tracks)
	if index > 0 {
		l.tracklist.SkipToTrack(index)
	}
	l.positionWatch.Send(0)

	if current := l.tracklist.CurrentTrack(); current != nil {
		l.newQueuePath(ctx, *current)
		return
	}
	l.sink.Clear()
	l.nextTrackQueried = false
	l.nextTrackInSinkQueue = false
	l.broadcastTracklist()
	l.persistTracklist()
}

func (l *Loop) setTargetStatus(s Status) {
	l.targetStatus = s
	l.statusWatch.Send(s)
}

func (l *Loop) broadcastTracklist() {
	l.tracklistWatch.Send(l.tracklist.Snapshot())
}

func (l *Loop) persistTracklist() {
	if l.store == nil {
		return
	}
	if err := l.store.SetTracklist(l.tracklist); err != nil {
		l.reportError(apperror.New(apperror.Persistence, "set_tracklist", err))
	}
}

func (l *Loop) reportError(err error) {
	slog.Error("player loop error", "error", err)
	if l.notifier != nil {
		l.notifier.Errorf(err)
	}
}

// shuffleTracks returns a randomly reordered copy of tracks.
func shuffleTracks(tracks []tracklist.Track) []tracklist.Track {
	out := make([]tracklist.Track, len(tracks))
	copy(out, tracks)
	rand.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}
