package player

import "time"

// commandKind tags a ControlCommand's variant, mirroring the tagged-union
// style used by tracklist.Type: a kind enum plus one constructor per
// variant, so the loop's command switch stays exhaustive and each
// variant only carries the fields it needs.
type commandKind int

const (
	cmdAlbum commandKind = iota
	cmdPlaylist
	cmdArtistTopTracks
	cmdTrack
	cmdNext
	cmdPrevious
	cmdPlayPause
	cmdPlay
	cmdPause
	cmdSkipToPosition
	cmdJumpForward
	cmdJumpBackward
	cmdSeek
	cmdSetVolume
	cmdAddTrackToQueue
	cmdRemoveIndexFromQueue
	cmdPlayTrackNext
	cmdReorderQueue
	cmdNewQueue
	cmdClearQueue
)

// NewQueueItem is one entry of a NewQueue command: a catalog track id
// paired with the stable queue id the caller wants it to carry (so
// "connect"-style protocols can reference it before the player loop
// has echoed back a snapshot).
type NewQueueItem struct {
	TrackID uint32
	QueueID uint64
}

// ControlCommand is the tagged variant of every operation a presenter
// can ask the player loop to perform. Construct one with the New*
// functions below; the loop's Run select switches on Kind().
type ControlCommand struct {
	kind commandKind

	albumID      string
	playlistID   uint32
	artistID     uint32
	trackID      uint32
	index        int
	shuffle      bool
	newPosition  uint32
	force        bool
	seekTime     time.Duration
	volume       float32
	newOrder     []int
	queueItems   []NewQueueItem
	playNewQueue bool
}

func (c ControlCommand) Kind() commandKind { return c.kind }

// NewAlbumCommand queues an album for playback, starting at index.
func NewAlbumCommand(id string, index int) ControlCommand {
	return ControlCommand{kind: cmdAlbum, albumID: id, index: index}
}

// NewPlaylistCommand queues a playlist for playback, starting at index.
func NewPlaylistCommand(id uint32, index int, shuffle bool) ControlCommand {
	return ControlCommand{kind: cmdPlaylist, playlistID: id, index: index, shuffle: shuffle}
}

// NewArtistTopTracksCommand queues an artist's top tracks.
func NewArtistTopTracksCommand(artistID uint32, index int) ControlCommand {
	return ControlCommand{kind: cmdArtistTopTracks, artistID: artistID, index: index}
}

// NewTrackCommand queues a single track as the whole tracklist.
func NewTrackCommand(id uint32) ControlCommand {
	return ControlCommand{kind: cmdTrack, trackID: id}
}

// NewNextCommand skips to the next track.
func NewNextCommand() ControlCommand { return ControlCommand{kind: cmdNext} }

// NewPreviousCommand skips to the previous track.
func NewPreviousCommand() ControlCommand { return ControlCommand{kind: cmdPrevious} }

// NewPlayPauseCommand toggles between playing and paused.
func NewPlayPauseCommand() ControlCommand { return ControlCommand{kind: cmdPlayPause} }

// NewPlayCommand resumes or starts playback.
func NewPlayCommand() ControlCommand { return ControlCommand{kind: cmdPlay} }

// NewPauseCommand pauses playback.
func NewPauseCommand() ControlCommand { return ControlCommand{kind: cmdPause} }

// NewSkipToPositionCommand jumps to a queue position. When force is
// false and newPosition is behind the current position while the sink
// is more than a second into the current track, it restarts the
// current track instead of actually skipping backward (the "Previous
// acts like restart" behavior); force bypasses that rewind check.
func NewSkipToPositionCommand(newPosition uint32, force bool) ControlCommand {
	return ControlCommand{kind: cmdSkipToPosition, newPosition: newPosition, force: force}
}

// NewJumpForwardCommand advances the current track's position by 10s,
// clamped to its duration.
func NewJumpForwardCommand() ControlCommand { return ControlCommand{kind: cmdJumpForward} }

// NewJumpBackwardCommand rewinds the current track's position by 10s,
// clamping to zero when already below 10s.
func NewJumpBackwardCommand() ControlCommand { return ControlCommand{kind: cmdJumpBackward} }

// NewSeekCommand seeks the current track to an absolute position.
func NewSeekCommand(t time.Duration) ControlCommand {
	return ControlCommand{kind: cmdSeek, seekTime: t}
}

// NewSetVolumeCommand sets the output volume, in [0,1].
func NewSetVolumeCommand(v float32) ControlCommand {
	return ControlCommand{kind: cmdSetVolume, volume: v}
}

// NewAddTrackToQueueCommand appends a track to the end of the queue.
func NewAddTrackToQueueCommand(id uint32) ControlCommand {
	return ControlCommand{kind: cmdAddTrackToQueue, trackID: id}
}

// NewRemoveIndexFromQueueCommand removes the item at index from the queue.
func NewRemoveIndexFromQueueCommand(index int) ControlCommand {
	return ControlCommand{kind: cmdRemoveIndexFromQueue, index: index}
}

// NewPlayTrackNextCommand inserts a track immediately after the
// currently-playing position.
func NewPlayTrackNextCommand(id uint32) ControlCommand {
	return ControlCommand{kind: cmdPlayTrackNext, trackID: id}
}

// NewReorderQueueCommand permutes the queue according to newOrder.
func NewReorderQueueCommand(newOrder []int) ControlCommand {
	return ControlCommand{kind: cmdReorderQueue, newOrder: newOrder}
}

// NewNewQueueCommand replaces the tracklist with items, optionally
// starting playback immediately.
func NewNewQueueCommand(items []NewQueueItem, play bool) ControlCommand {
	return ControlCommand{kind: cmdNewQueue, queueItems: items, playNewQueue: play}
}

// NewClearQueueCommand empties the tracklist and stops playback.
func NewClearQueueCommand() ControlCommand { return ControlCommand{kind: cmdClearQueue} }
