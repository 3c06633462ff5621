package remote

import (
	"context"

	"github.com/llehouerou/qobuz-player-go/internal/tracklist"
)

// Client is the service-client contract consumed by the player loop and
// the presenters. Implementations must be safe for concurrent use; every
// method wraps its failure as an *apperror.Error of kind Network,
// NotFound, or Auth before returning.
type Client interface {
	Track(ctx context.Context, id uint32) (tracklist.Track, error)
	TrackURL(ctx context.Context, id uint32) (string, error)
	Album(ctx context.Context, id string) (Album, error)
	ArtistPage(ctx context.Context, id uint32) (ArtistPage, error)
	Playlist(ctx context.Context, id uint32) (Playlist, error)
	Favorites(ctx context.Context) (Favorites, error)
	AddFavorite(ctx context.Context, kind FavoriteKind, id string) error
	RemoveFavorite(ctx context.Context, kind FavoriteKind, id string) error
}
