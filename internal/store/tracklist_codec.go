package store

import (
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/llehouerou/qobuz-player-go/internal/tracklist"
)

// tracklistDoc is the on-disk shape of a Tracklist: Type's exported
// fields plus its kind tag (Kind() is exported but the enum type behind
// it isn't, so the tag travels as a plain int), and the queue itself.
// tracklist.QueueItem and tracklist.Track are marshaled directly since
// every field they carry is exported.
type tracklistDoc struct {
	Kind       int
	Title      string
	ListID     string
	ArtistName string
	Image      tracklist.Image
	Queue      []tracklist.QueueItem
}

func encodeTracklist(tl *tracklist.Tracklist) ([]byte, error) {
	lt := tl.ListType()
	doc := tracklistDoc{
		Kind:       int(lt.Kind()),
		Title:      lt.Title,
		ListID:     lt.ID,
		ArtistName: lt.ArtistName,
		Image:      lt.Image,
		Queue:      tl.Queue(),
	}
	return json.Marshal(doc)
}

func decodeTracklist(data []byte) (*tracklist.Tracklist, error) {
	var doc tracklistDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	var listType tracklist.Type
	switch doc.Kind {
	case int(tracklist.TypeAlbum):
		listType = tracklist.NewAlbumType(doc.Title, doc.ListID, doc.Image)
	case int(tracklist.TypePlaylist):
		listType = tracklist.NewPlaylistType(doc.Title, doc.ListID, doc.Image)
	case int(tracklist.TypeTopTracks):
		listType = tracklist.NewTopTracksType(doc.ArtistName, doc.ListID, doc.Image)
	case int(tracklist.TypeTracks):
		listType = tracklist.NewTracksType()
	default:
		listType = tracklist.NewType()
	}

	return tracklist.NewWithID(listType, doc.Queue), nil
}

func saveTracklist(db *sql.DB, tl *tracklist.Tracklist) error {
	data, err := encodeTracklist(tl)
	if err != nil {
		return err
	}
	_, err = db.Exec(`
		INSERT INTO player_state (id, tracklist_json) VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET tracklist_json = excluded.tracklist_json
	`, string(data))
	return err
}

func loadTracklist(db *sql.DB) (*tracklist.Tracklist, error) {
	var raw string
	row := db.QueryRow(`SELECT tracklist_json FROM player_state WHERE id = 1`)
	err := row.Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeTracklist([]byte(raw))
}
