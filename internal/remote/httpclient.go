package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/llehouerou/qobuz-player-go/internal/apperror"
	"github.com/llehouerou/qobuz-player-go/internal/tracklist"
)

// HTTPClient is the resty-backed Client implementation talking to the
// Qobuz public API surface. Like the teacher's sibling example clients
// (amp's internal/api.Client), authentication state (app id, user
// token) is resolved once at construction and attached to every
// request; the active secret is not used.
type HTTPClient struct {
	rc        *resty.Client
	userToken string
	appID     string
}

// Credentials carries the Qobuz session material resolved at login time
// (spec §6 persisted config columns: user_token, app_id, active_secret).
type Credentials struct {
	UserToken    string
	AppID        string
	ActiveSecret string
}

// NewHTTPClient builds a Client bound to baseURL with the given
// Credentials already attached.
func NewHTTPClient(baseURL string, creds Credentials) *HTTPClient {
	rc := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("X-App-Id", creds.AppID).
		SetHeader("X-User-Auth-Token", creds.UserToken)

	return &HTTPClient{rc: rc, userToken: creds.UserToken, appID: creds.AppID}
}

type trackDTO struct {
	ID              uint32 `json:"id"`
	Title           string `json:"title"`
	TrackNumber     int    `json:"track_number"`
	Duration        int    `json:"duration"`
	ParentalWarning bool   `json:"parental_warning"`
	Hires           bool   `json:"hires"`
	Streamable      bool   `json:"streamable"`
	Performer       struct {
		ID   uint32 `json:"id"`
		Name string `json:"name"`
	} `json:"performer"`
	Album struct {
		ID    string `json:"id"`
		Title string `json:"title"`
		Image struct {
			Large string `json:"large"`
			Small string `json:"small"`
		} `json:"image"`
	} `json:"album"`
}

func (d trackDTO) toTrack() tracklist.Track {
	return tracklist.Track{
		ID:              d.ID,
		Number:          d.TrackNumber,
		Title:           d.Title,
		ArtistName:      d.Performer.Name,
		ArtistID:        d.Performer.ID,
		AlbumTitle:      d.Album.Title,
		AlbumID:         d.Album.ID,
		DurationSeconds: d.Duration,
		Explicit:        d.ParentalWarning,
		HiresAvailable:  d.Hires,
		Available:       d.Streamable,
		Image: tracklist.Image{
			Large:     d.Album.Image.Large,
			Thumbnail: d.Album.Image.Small,
		},
	}
}

func (c *HTTPClient) get(ctx context.Context, path string, params map[string]string, out any) error {
	req := c.rc.R().SetContext(ctx).SetQueryParams(params)
	resp, err := req.Get(path)
	if err != nil {
		return apperror.New(apperror.Network, path, err)
	}
	switch resp.StatusCode() {
	case http.StatusOK:
	case http.StatusNotFound:
		return apperror.New(apperror.NotFound, path, fmt.Errorf("not found"))
	case http.StatusUnauthorized, http.StatusForbidden:
		return apperror.New(apperror.Auth, path, fmt.Errorf("unauthorized"))
	default:
		return apperror.New(apperror.Network, path, fmt.Errorf("unexpected status %d", resp.StatusCode()))
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return apperror.New(apperror.Network, path, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// Track resolves a single track's metadata by id.
func (c *HTTPClient) Track(ctx context.Context, id uint32) (tracklist.Track, error) {
	var dto trackDTO
	if err := c.get(ctx, "/track/get", map[string]string{"track_id": fmt.Sprint(id)}, &dto); err != nil {
		return tracklist.Track{}, err
	}
	return dto.toTrack(), nil
}

// TrackURL resolves the signed, time-limited streaming URL for a track.
func (c *HTTPClient) TrackURL(ctx context.Context, id uint32) (string, error) {
	var out struct {
		URL string `json:"url"`
	}
	if err := c.get(ctx, "/track/getFileUrl", map[string]string{"track_id": fmt.Sprint(id)}, &out); err != nil {
		return "", err
	}
	if out.URL == "" {
		return "", apperror.New(apperror.NotFound, "track_url", fmt.Errorf("track %d has no stream url", id))
	}
	return out.URL, nil
}

// Album resolves an album with its full track list.
func (c *HTTPClient) Album(ctx context.Context, id string) (Album, error) {
	var out struct {
		ID    string `json:"id"`
		Title string `json:"title"`
		Image struct {
			Large string `json:"large"`
			Small string `json:"small"`
		} `json:"image"`
		Tracks struct {
			Items []trackDTO `json:"items"`
		} `json:"tracks"`
	}
	if err := c.get(ctx, "/album/get", map[string]string{"album_id": id}, &out); err != nil {
		return Album{}, err
	}
	tracks := make([]tracklist.Track, len(out.Tracks.Items))
	for i, dto := range out.Tracks.Items {
		tracks[i] = dto.toTrack()
	}
	return Album{
		ID:    out.ID,
		Title: out.Title,
		Image: tracklist.Image{Large: out.Image.Large, Thumbnail: out.Image.Small},
		Tracks: tracks,
	}, nil
}

// ArtistPage resolves an artist's page, including top tracks.
func (c *HTTPClient) ArtistPage(ctx context.Context, id uint32) (ArtistPage, error) {
	var out struct {
		Name  string `json:"name"`
		Image struct {
			Large string `json:"large"`
			Small string `json:"small"`
		} `json:"image"`
		TopTracks []trackDTO `json:"top_tracks"`
	}
	if err := c.get(ctx, "/artist/get", map[string]string{"artist_id": fmt.Sprint(id)}, &out); err != nil {
		return ArtistPage{}, err
	}
	top := make([]tracklist.Track, len(out.TopTracks))
	for i, dto := range out.TopTracks {
		top[i] = dto.toTrack()
	}
	return ArtistPage{
		Name:      out.Name,
		Image:     tracklist.Image{Large: out.Image.Large, Thumbnail: out.Image.Small},
		TopTracks: top,
	}, nil
}

// Playlist resolves a playlist with its full track list.
func (c *HTTPClient) Playlist(ctx context.Context, id uint32) (Playlist, error) {
	var out struct {
		ID    uint32 `json:"id"`
		Title string `json:"name"`
		Image struct {
			Large string `json:"large"`
			Small string `json:"small"`
		} `json:"image"`
		Tracks struct {
			Items []trackDTO `json:"items"`
		} `json:"tracks"`
	}
	if err := c.get(ctx, "/playlist/get", map[string]string{"playlist_id": fmt.Sprint(id)}, &out); err != nil {
		return Playlist{}, err
	}
	tracks := make([]tracklist.Track, len(out.Tracks.Items))
	for i, dto := range out.Tracks.Items {
		tracks[i] = dto.toTrack()
	}
	return Playlist{
		ID:    out.ID,
		Title: out.Title,
		Image: tracklist.Image{Large: out.Image.Large, Thumbnail: out.Image.Small},
		Tracks: tracks,
	}, nil
}

// Favorites resolves the user's saved library.
func (c *HTTPClient) Favorites(ctx context.Context) (Favorites, error) {
	var out struct {
		Albums    struct{ Items []struct {
			ID    string `json:"id"`
			Title string `json:"title"`
		} } `json:"albums"`
		Tracks struct{ Items []trackDTO } `json:"tracks"`
	}
	if err := c.get(ctx, "/favorite/getUserFavorites", nil, &out); err != nil {
		return Favorites{}, err
	}
	favs := Favorites{}
	for _, a := range out.Albums.Items {
		favs.Albums = append(favs.Albums, Album{ID: a.ID, Title: a.Title})
	}
	for _, dto := range out.Tracks.Items {
		favs.Tracks = append(favs.Tracks, dto.toTrack())
	}
	return favs, nil
}

func favoriteKindParam(kind FavoriteKind) string {
	switch kind {
	case FavoriteAlbum:
		return "album_ids"
	case FavoriteArtist:
		return "artist_ids"
	case FavoritePlaylist:
		return "playlist_ids"
	case FavoriteTrack:
		return "track_ids"
	default:
		return "track_ids"
	}
}

// AddFavorite marks id (of the given kind) as a favorite.
func (c *HTTPClient) AddFavorite(ctx context.Context, kind FavoriteKind, id string) error {
	var discard map[string]any
	return c.get(ctx, "/favorite/create", map[string]string{favoriteKindParam(kind): id}, &discard)
}

// RemoveFavorite unmarks id (of the given kind) as a favorite.
func (c *HTTPClient) RemoveFavorite(ctx context.Context, kind FavoriteKind, id string) error {
	var discard map[string]any
	return c.get(ctx, "/favorite/delete", map[string]string{favoriteKindParam(kind): id}, &discard)
}

var _ Client = (*HTTPClient)(nil)
