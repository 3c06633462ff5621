package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/llehouerou/qobuz-player-go/internal/player"
	"github.com/llehouerou/qobuz-player-go/internal/remote"
)

func (s *Server) routes() {
	api := s.engine.Group("/api")

	api.GET("/status", s.handleStatus)
	api.GET("/events", s.handleEvents)

	api.POST("/play/album/:id", s.handlePlayAlbum)
	api.POST("/play/playlist/:id", s.handlePlayPlaylist)
	api.POST("/play/artist/:id", s.handlePlayArtistTopTracks)
	api.POST("/play/track/:id", s.handlePlayTrack)

	api.POST("/control/next", s.handleNext)
	api.POST("/control/previous", s.handlePrevious)
	api.POST("/control/play", s.handlePlay)
	api.POST("/control/pause", s.handlePause)
	api.POST("/control/playpause", s.handlePlayPause)
	api.POST("/control/seek", s.handleSeek)
	api.POST("/control/jump-forward", s.handleJumpForward)
	api.POST("/control/jump-backward", s.handleJumpBackward)
	api.POST("/control/volume", s.handleSetVolume)

	api.POST("/queue/add", s.handleAddToQueue)
	api.POST("/queue/play-next", s.handlePlayTrackNext)
	api.POST("/queue/reorder", s.handleReorderQueue)
	api.POST("/queue/clear", s.handleClearQueue)
	api.DELETE("/queue/:index", s.handleRemoveFromQueue)

	api.GET("/favorites", s.handleFavorites)
	api.POST("/favorites/:kind/:id", s.handleAddFavorite)
	api.DELETE("/favorites/:kind/:id", s.handleRemoveFavorite)
}

func writeError(c *gin.Context, status int, err error) {
	c.JSON(status, gin.H{"status": "error", "error": err.Error()})
}

func writeOK(c *gin.Context, v gin.H) {
	if v == nil {
		v = gin.H{}
	}
	v["status"] = "ok"
	c.JSON(http.StatusOK, v)
}

// statusSnapshot is the JSON shape of GET /api/status and of every SSE
// "status" event: the observable fields a presenter needs to render a
// player bar without polling the catalog.
type statusSnapshot struct {
	Status        string  `json:"status"`
	PositionMS    int64   `json:"position_ms"`
	Volume        float32 `json:"volume"`
	ListType      string  `json:"list_type"`
	ListTitle     string  `json:"list_title,omitempty"`
	CurrentTitle  string  `json:"current_title,omitempty"`
	CurrentArtist string  `json:"current_artist,omitempty"`
	Position      int     `json:"position"`
	Total         int     `json:"total"`
}

func (s *Server) snapshot() statusSnapshot {
	snap := s.tlSub.Borrow()
	out := statusSnapshot{
		Status:     s.statusSub.Borrow().String(),
		PositionMS: s.posSub.Borrow().Milliseconds(),
		Volume:     s.volumeSub.Borrow(),
		ListType:   listKindName(int(snap.ListType.Kind())),
		ListTitle:  snap.ListType.Title,
		Total:      len(snap.Queue),
	}
	for i, item := range snap.Queue {
		if item.Track.Status.String() == "playing" {
			out.Position = i
			out.CurrentTitle = item.Track.Title
			out.CurrentArtist = item.Track.ArtistName
			break
		}
	}
	return out
}

func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.snapshot())
}

// handleEvents streams a "status" SSE event every time the status,
// position, tracklist, or volume watch changes, matching the core's
// observer-subscription fan-out without polling.
func (s *Server) handleEvents(c *gin.Context) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		writeError(c, http.StatusInternalServerError, errUnsupportedStreaming)
		return
	}

	send := func() {
		c.SSEvent("status", s.snapshot())
		flusher.Flush()
	}
	send()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.statusSub.Changed():
			send()
		case <-s.posSub.Changed():
			send()
		case <-s.tlSub.Changed():
			send()
		case <-s.volumeSub.Changed():
			send()
		}
	}
}

var errUnsupportedStreaming = errStr("streaming unsupported")

type errStr string

func (e errStr) Error() string { return string(e) }

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

func parseIndexParam(c *gin.Context, name string) (int, bool) {
	v, err := strconv.Atoi(c.Param(name))
	if err != nil {
		writeError(c, http.StatusBadRequest, err)
		return 0, false
	}
	return v, true
}

func parseUint32Param(c *gin.Context, name string) (uint32, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		writeError(c, http.StatusBadRequest, err)
		return 0, false
	}
	return uint32(v), true
}

func queryIndex(c *gin.Context) int {
	v, err := strconv.Atoi(c.Query("index"))
	if err != nil {
		return 0
	}
	return v
}

func (s *Server) handlePlayAlbum(c *gin.Context) {
	id := c.Param("id")
	s.facade.Send(player.NewAlbumCommand(id, queryIndex(c)))
	writeOK(c, nil)
}

func (s *Server) handlePlayPlaylist(c *gin.Context) {
	id, ok := parseUint32Param(c, "id")
	if !ok {
		return
	}
	shuffle := c.Query("shuffle") == "true"
	s.facade.Send(player.NewPlaylistCommand(id, queryIndex(c), shuffle))
	writeOK(c, nil)
}

func (s *Server) handlePlayArtistTopTracks(c *gin.Context) {
	id, ok := parseUint32Param(c, "id")
	if !ok {
		return
	}
	s.facade.Send(player.NewArtistTopTracksCommand(id, queryIndex(c)))
	writeOK(c, nil)
}

func (s *Server) handlePlayTrack(c *gin.Context) {
	id, ok := parseUint32Param(c, "id")
	if !ok {
		return
	}
	s.facade.Send(player.NewTrackCommand(id))
	writeOK(c, nil)
}

func (s *Server) handleNext(c *gin.Context)     { s.facade.Send(player.NewNextCommand()); writeOK(c, nil) }
func (s *Server) handlePrevious(c *gin.Context) { s.facade.Send(player.NewPreviousCommand()); writeOK(c, nil) }
func (s *Server) handlePlay(c *gin.Context)     { s.facade.Send(player.NewPlayCommand()); writeOK(c, nil) }
func (s *Server) handlePause(c *gin.Context)    { s.facade.Send(player.NewPauseCommand()); writeOK(c, nil) }
func (s *Server) handlePlayPause(c *gin.Context) {
	s.facade.Send(player.NewPlayPauseCommand())
	writeOK(c, nil)
}
func (s *Server) handleJumpForward(c *gin.Context) {
	s.facade.Send(player.NewJumpForwardCommand())
	writeOK(c, nil)
}
func (s *Server) handleJumpBackward(c *gin.Context) {
	s.facade.Send(player.NewJumpBackwardCommand())
	writeOK(c, nil)
}

func (s *Server) handleSeek(c *gin.Context) {
	var body struct {
		PositionMS int64 `json:"position_ms"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, http.StatusBadRequest, err)
		return
	}
	s.facade.Send(player.NewSeekCommand(time.Duration(body.PositionMS) * time.Millisecond))
	writeOK(c, nil)
}

func (s *Server) handleSetVolume(c *gin.Context) {
	var body struct {
		Volume float32 `json:"volume"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, http.StatusBadRequest, err)
		return
	}
	s.facade.Send(player.NewSetVolumeCommand(body.Volume))
	writeOK(c, nil)
}

func (s *Server) handleAddToQueue(c *gin.Context) {
	var body struct {
		TrackID uint32 `json:"track_id"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, http.StatusBadRequest, err)
		return
	}
	s.facade.Send(player.NewAddTrackToQueueCommand(body.TrackID))
	writeOK(c, nil)
}

func (s *Server) handlePlayTrackNext(c *gin.Context) {
	var body struct {
		TrackID uint32 `json:"track_id"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, http.StatusBadRequest, err)
		return
	}
	s.facade.Send(player.NewPlayTrackNextCommand(body.TrackID))
	writeOK(c, nil)
}

func (s *Server) handleRemoveFromQueue(c *gin.Context) {
	index, ok := parseIndexParam(c, "index")
	if !ok {
		return
	}
	s.facade.Send(player.NewRemoveIndexFromQueueCommand(index))
	writeOK(c, nil)
}

func (s *Server) handleReorderQueue(c *gin.Context) {
	var body struct {
		NewOrder []int `json:"new_order"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, http.StatusBadRequest, err)
		return
	}
	s.facade.Send(player.NewReorderQueueCommand(body.NewOrder))
	writeOK(c, nil)
}

func (s *Server) handleClearQueue(c *gin.Context) {
	s.facade.Send(player.NewClearQueueCommand())
	writeOK(c, nil)
}

func (s *Server) handleFavorites(c *gin.Context) {
	favs, err := s.remote.Favorites(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusBadGateway, err)
		return
	}
	c.JSON(http.StatusOK, favs)
}

func (s *Server) handleAddFavorite(c *gin.Context) {
	kind, ok := parseFavoriteKind(c)
	if !ok {
		return
	}
	if err := s.remote.AddFavorite(c.Request.Context(), kind, c.Param("id")); err != nil {
		writeError(c, http.StatusBadGateway, err)
		return
	}
	writeOK(c, nil)
}

func (s *Server) handleRemoveFavorite(c *gin.Context) {
	kind, ok := parseFavoriteKind(c)
	if !ok {
		return
	}
	if err := s.remote.RemoveFavorite(c.Request.Context(), kind, c.Param("id")); err != nil {
		writeError(c, http.StatusBadGateway, err)
		return
	}
	writeOK(c, nil)
}

func parseFavoriteKind(c *gin.Context) (remote.FavoriteKind, bool) {
	switch c.Param("kind") {
	case "album":
		return remote.FavoriteAlbum, true
	case "artist":
		return remote.FavoriteArtist, true
	case "playlist":
		return remote.FavoritePlaylist, true
	case "track":
		return remote.FavoriteTrack, true
	default:
		writeError(c, http.StatusBadRequest, errStr("unknown favorite kind: "+c.Param("kind")))
		return 0, false
	}
}
