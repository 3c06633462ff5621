package remote

import (
	"context"
	"fmt"
	"sync"

	"github.com/llehouerou/qobuz-player-go/internal/apperror"
	"github.com/llehouerou/qobuz-player-go/internal/tracklist"
)

// MockClient is an in-memory fake of Client for tests, keyed by id.
// Mirrors the teacher's mock-service style (internal/state/mock.go):
// plain maps guarded by a mutex, zero-value-is-not-found semantics.
type MockClient struct {
	mu        sync.Mutex
	Tracks    map[uint32]tracklist.Track
	TrackURLs map[uint32]string
	Albums    map[string]Album
	Artists   map[uint32]ArtistPage
	Playlists map[uint32]Playlist
	Favs      Favorites
}

// NewMockClient returns an empty MockClient ready for tests to populate.
func NewMockClient() *MockClient {
	return &MockClient{
		Tracks:    make(map[uint32]tracklist.Track),
		TrackURLs: make(map[uint32]string),
		Albums:    make(map[string]Album),
		Artists:   make(map[uint32]ArtistPage),
		Playlists: make(map[uint32]Playlist),
	}
}

func (m *MockClient) Track(_ context.Context, id uint32) (tracklist.Track, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tr, ok := m.Tracks[id]
	if !ok {
		return tracklist.Track{}, apperror.New(apperror.NotFound, "track", fmt.Errorf("track %d not found", id))
	}
	return tr, nil
}

func (m *MockClient) TrackURL(_ context.Context, id uint32) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	url, ok := m.TrackURLs[id]
	if !ok {
		return "", apperror.New(apperror.NotFound, "track_url", fmt.Errorf("track %d has no url", id))
	}
	return url, nil
}

func (m *MockClient) Album(_ context.Context, id string) (Album, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.Albums[id]
	if !ok {
		return Album{}, apperror.New(apperror.NotFound, "album", fmt.Errorf("album %s not found", id))
	}
	return a, nil
}

func (m *MockClient) ArtistPage(_ context.Context, id uint32) (ArtistPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.Artists[id]
	if !ok {
		return ArtistPage{}, apperror.New(apperror.NotFound, "artist", fmt.Errorf("artist %d not found", id))
	}
	return a, nil
}

func (m *MockClient) Playlist(_ context.Context, id uint32) (Playlist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.Playlists[id]
	if !ok {
		return Playlist{}, apperror.New(apperror.NotFound, "playlist", fmt.Errorf("playlist %d not found", id))
	}
	return p, nil
}

func (m *MockClient) Favorites(_ context.Context) (Favorites, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Favs, nil
}

func (m *MockClient) AddFavorite(_ context.Context, kind FavoriteKind, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch kind {
	case FavoriteTrack:
		var tid uint32
		fmt.Sscanf(id, "%d", &tid)
		if tr, ok := m.Tracks[tid]; ok {
			m.Favs.Tracks = append(m.Favs.Tracks, tr)
		}
	case FavoriteAlbum:
		if a, ok := m.Albums[id]; ok {
			m.Favs.Albums = append(m.Favs.Albums, a)
		}
	}
	return nil
}

func (m *MockClient) RemoveFavorite(_ context.Context, kind FavoriteKind, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch kind {
	case FavoriteTrack:
		var tid uint32
		fmt.Sscanf(id, "%d", &tid)
		for i, tr := range m.Favs.Tracks {
			if tr.ID == tid {
				m.Favs.Tracks = append(m.Favs.Tracks[:i], m.Favs.Tracks[i+1:]...)
				break
			}
		}
	case FavoriteAlbum:
		for i, a := range m.Favs.Albums {
			if a.ID == id {
				m.Favs.Albums = append(m.Favs.Albums[:i], m.Favs.Albums[i+1:]...)
				break
			}
		}
	}
	return nil
}

var _ Client = (*MockClient)(nil)
