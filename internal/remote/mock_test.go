package remote

import (
	"context"
	"testing"

	"github.com/llehouerou/qobuz-player-go/internal/apperror"
	"github.com/llehouerou/qobuz-player-go/internal/tracklist"
)

func TestMockClient_TrackNotFound(t *testing.T) {
	m := NewMockClient()
	_, err := m.Track(context.Background(), 1)
	if err == nil {
		t.Fatal("expected error for missing track")
	}
	var appErr *apperror.Error
	if !asApperror(err, &appErr) || appErr.Kind != apperror.NotFound {
		t.Fatalf("expected apperror.NotFound, got %v", err)
	}
}

func TestMockClient_AddAndRemoveFavoriteTrack(t *testing.T) {
	m := NewMockClient()
	m.Tracks[7] = tracklist.Track{ID: 7, Title: "Song"}

	ctx := context.Background()
	if err := m.AddFavorite(ctx, FavoriteTrack, "7"); err != nil {
		t.Fatalf("AddFavorite: %v", err)
	}
	favs, err := m.Favorites(ctx)
	if err != nil {
		t.Fatalf("Favorites: %v", err)
	}
	if len(favs.Tracks) != 1 || favs.Tracks[0].ID != 7 {
		t.Fatalf("expected track 7 in favorites, got %+v", favs.Tracks)
	}

	if err := m.RemoveFavorite(ctx, FavoriteTrack, "7"); err != nil {
		t.Fatalf("RemoveFavorite: %v", err)
	}
	favs, _ = m.Favorites(ctx)
	if len(favs.Tracks) != 0 {
		t.Fatalf("expected no favorites after removal, got %+v", favs.Tracks)
	}
}

func asApperror(err error, target **apperror.Error) bool {
	ae, ok := err.(*apperror.Error)
	if !ok {
		return false
	}
	*target = ae
	return true
}
