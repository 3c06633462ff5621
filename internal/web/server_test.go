package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/llehouerou/qobuz-player-go/internal/downloader"
	"github.com/llehouerou/qobuz-player-go/internal/observer"
	"github.com/llehouerou/qobuz-player-go/internal/player"
	"github.com/llehouerou/qobuz-player-go/internal/remote"
	"github.com/llehouerou/qobuz-player-go/internal/sink"
	"github.com/llehouerou/qobuz-player-go/internal/tracklist"
)

// fakeSink and fakeDownloader are minimal stand-ins satisfying the
// unexported sinkPort/downloaderPort interfaces player.New expects —
// Go's structural interface typing lets a value from another package
// satisfy them without naming the interface, mirroring the fakes
// internal/player/loop_test.go builds against the same contract.
type fakeSink struct {
	finished *observer.Watch[int]
}

func newFakeSink() *fakeSink { return &fakeSink{finished: observer.NewWatch(0)} }

func (f *fakeSink) QueryTrack(string) (sink.QueryResult, error)        { return sink.Queued, nil }
func (f *fakeSink) Play()                                              {}
func (f *fakeSink) Pause()                                              {}
func (f *fakeSink) Seek(time.Duration) error                            { return nil }
func (f *fakeSink) Clear()                                              {}
func (f *fakeSink) ClearQueue()                                         {}
func (f *fakeSink) Position() time.Duration                            { return 0 }
func (f *fakeSink) SyncVolume(float64)                                  {}
func (f *fakeSink) TrackFinished() *observer.Subscription[int]         { return f.finished.Subscribe() }
func (f *fakeSink) IsEmpty() bool                                       { return true }

type fakeDownloader struct {
	done *observer.Watch[downloader.Event]
}

func newFakeDownloader() *fakeDownloader {
	return &fakeDownloader{done: observer.NewWatch(downloader.Event{})}
}

func (f *fakeDownloader) EnsureTrackIsDownloaded(context.Context, string, tracklist.Track) (string, bool) {
	return "/tmp/track", true
}
func (f *fakeDownloader) Subscribe() *observer.Subscription[downloader.Event] {
	return f.done.Subscribe()
}

func newTestServer(t *testing.T) (*Server, *player.Loop, *remote.MockClient) {
	t.Helper()
	client := remote.NewMockClient()
	loop := player.New(client, newFakeSink(), newFakeDownloader(), nil, nil, player.Options{})
	srv := New("127.0.0.1:0", loop, client)
	return srv, loop, client
}

func doRequest(s *Server, method, path string, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	return rec
}

func TestHandleStatus_EmptyTracklist(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := doRequest(s, http.MethodGet, "/api/status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var got statusSnapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Status != "paused" {
		t.Errorf("Status = %q, want %q", got.Status, "paused")
	}
	if got.Total != 0 {
		t.Errorf("Total = %d, want 0", got.Total)
	}
}

func TestHandlePlayTrack_SendsCommand(t *testing.T) {
	s, loop, client := newTestServer(t)
	client.Tracks[7] = tracklist.Track{ID: 7, Title: "Test Track", Available: true}
	client.TrackURLs[7] = "https://example.com/7"

	sub := loop.Tracklist()
	changed := sub.Changed()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)

	rec := doRequest(s, http.MethodPost, "/api/play/track/7", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", rec.Code, rec.Body.String())
	}

	select {
	case <-changed:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for tracklist to update")
	}
	snap := sub.Borrow()
	if len(snap.Queue) != 1 || snap.Queue[0].Track.ID != 7 {
		t.Fatalf("tracklist after play/track/7 = %+v", snap)
	}
}

func TestHandleSetVolume_BadBody(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := doRequest(s, http.MethodPost, "/api/control/volume", "not json")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleRemoveFromQueue_InvalidIndex(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := doRequest(s, http.MethodDelete, "/api/queue/not-a-number", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleFavorites_ProxiesClient(t *testing.T) {
	s, _, client := newTestServer(t)
	client.Favs = remote.Favorites{Tracks: []tracklist.Track{{ID: 1, Title: "Fav"}}}

	rec := doRequest(s, http.MethodGet, "/api/favorites", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var favs remote.Favorites
	if err := json.Unmarshal(rec.Body.Bytes(), &favs); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(favs.Tracks) != 1 || favs.Tracks[0].Title != "Fav" {
		t.Fatalf("favorites = %+v", favs)
	}
}
