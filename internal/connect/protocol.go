package connect

import (
	"time"

	"github.com/llehouerou/qobuz-player-go/internal/player"
	"github.com/llehouerou/qobuz-player-go/internal/tracklist"
)

// clientCommand is one line a connect client sends. Cmd selects which
// of the other fields apply; unused fields are left zero.
type clientCommand struct {
	Cmd string `json:"cmd"`

	AlbumID    string  `json:"album_id,omitempty"`
	PlaylistID uint32  `json:"playlist_id,omitempty"`
	ArtistID   uint32  `json:"artist_id,omitempty"`
	TrackID    uint32  `json:"track_id,omitempty"`
	Index      int     `json:"index,omitempty"`
	Shuffle    bool    `json:"shuffle,omitempty"`
	Position   int     `json:"position,omitempty"`
	Force      bool    `json:"force,omitempty"`
	PositionMS int64   `json:"position_ms,omitempty"`
	Volume     float32 `json:"volume,omitempty"`
	NewOrder   []int   `json:"new_order,omitempty"`
}

// errorEvent is sent back to a client whose command line failed to parse.
type errorEvent struct {
	Event   string `json:"event"`
	Message string `json:"message"`
}

// stateEvent is the JSON shape of every pushed state update: the same
// observable fields the web presenter's SSE stream reports, independent
// so this package doesn't reach into internal/web's unexported types.
type stateEvent struct {
	Event         string  `json:"event"`
	Status        string  `json:"status"`
	PositionMS    int64   `json:"position_ms"`
	Volume        float32 `json:"volume"`
	ListType      string  `json:"list_type"`
	ListTitle     string  `json:"list_title,omitempty"`
	CurrentIndex  int     `json:"current_index"`
	Total         int     `json:"total"`
	CurrentTitle  string  `json:"current_title,omitempty"`
	CurrentArtist string  `json:"current_artist,omitempty"`
}

func (s *Server) stateEvent() stateEvent {
	snap := s.tlSub.Borrow()
	ev := stateEvent{
		Event:      "state",
		Status:     s.statusSub.Borrow().String(),
		PositionMS: s.posSub.Borrow().Milliseconds(),
		Volume:     s.volumeSub.Borrow(),
		ListType:   listKindName(int(snap.ListType.Kind())),
		ListTitle:  snap.ListType.Title,
		Total:      len(snap.Queue),
	}
	for i, item := range snap.Queue {
		if item.Track.Status == tracklist.StatusPlaying {
			ev.CurrentIndex = i
			ev.CurrentTitle = item.Track.Title
			ev.CurrentArtist = item.Track.ArtistName
			break
		}
	}
	return ev
}

func listKindName(k int) string {
	switch k {
	case 1:
		return "tracks"
	case 2:
		return "album"
	case 3:
		return "playlist"
	case 4:
		return "top_tracks"
	default:
		return "none"
	}
}

// dispatch turns a parsed clientCommand into a ControlCommand sent
// through the Facade. Unknown cmd values are silently ignored: a future
// protocol version's new command is harmless to an older server.
func (s *Server) dispatch(cmd clientCommand) {
	switch cmd.Cmd {
	case "play_album":
		s.facade.Send(player.NewAlbumCommand(cmd.AlbumID, cmd.Index))
	case "play_playlist":
		s.facade.Send(player.NewPlaylistCommand(cmd.PlaylistID, cmd.Index, cmd.Shuffle))
	case "play_artist_top_tracks":
		s.facade.Send(player.NewArtistTopTracksCommand(cmd.ArtistID, cmd.Index))
	case "play_track":
		s.facade.Send(player.NewTrackCommand(cmd.TrackID))
	case "next":
		s.facade.Send(player.NewNextCommand())
	case "previous":
		s.facade.Send(player.NewPreviousCommand())
	case "play_pause":
		s.facade.Send(player.NewPlayPauseCommand())
	case "play":
		s.facade.Send(player.NewPlayCommand())
	case "pause":
		s.facade.Send(player.NewPauseCommand())
	case "skip_to_position":
		s.facade.Send(player.NewSkipToPositionCommand(uint32(cmd.Position), cmd.Force))
	case "jump_forward":
		s.facade.Send(player.NewJumpForwardCommand())
	case "jump_backward":
		s.facade.Send(player.NewJumpBackwardCommand())
	case "seek":
		s.facade.Send(player.NewSeekCommand(time.Duration(cmd.PositionMS) * time.Millisecond))
	case "set_volume":
		s.facade.Send(player.NewSetVolumeCommand(cmd.Volume))
	case "add_track_to_queue":
		s.facade.Send(player.NewAddTrackToQueueCommand(cmd.TrackID))
	case "play_track_next":
		s.facade.Send(player.NewPlayTrackNextCommand(cmd.TrackID))
	case "remove_index_from_queue":
		s.facade.Send(player.NewRemoveIndexFromQueueCommand(cmd.Index))
	case "reorder_queue":
		s.facade.Send(player.NewReorderQueueCommand(cmd.NewOrder))
	case "clear_queue":
		s.facade.Send(player.NewClearQueueCommand())
	}
}
