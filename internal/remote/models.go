// Package remote defines the consumed interface to the external Qobuz
// catalog service (out of scope per the engine spec; the engine only
// consumes it) and a resty-backed HTTP implementation.
package remote

import "github.com/llehouerou/qobuz-player-go/internal/tracklist"

// Album is a catalog album with its full track list.
type Album struct {
	ID     string
	Title  string
	Image  tracklist.Image
	Tracks []tracklist.Track
}

// Playlist is a catalog playlist with its full track list.
type Playlist struct {
	ID     uint32
	Title  string
	Image  tracklist.Image
	Tracks []tracklist.Track
}

// ArtistPage is the catalog page for a single artist.
type ArtistPage struct {
	Name      string
	Image     tracklist.Image
	TopTracks []tracklist.Track
}

// Favorites is the user's saved albums/artists/playlists/tracks.
type Favorites struct {
	Albums    []Album
	Artists   []ArtistPage
	Playlists []Playlist
	Tracks    []tracklist.Track
}

// FavoriteKind names the entity type a favorite toggle applies to.
type FavoriteKind int

const (
	FavoriteAlbum FavoriteKind = iota
	FavoriteArtist
	FavoritePlaylist
	FavoriteTrack
)
