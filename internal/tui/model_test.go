package tui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/llehouerou/qobuz-player-go/internal/downloader"
	"github.com/llehouerou/qobuz-player-go/internal/observer"
	"github.com/llehouerou/qobuz-player-go/internal/player"
	"github.com/llehouerou/qobuz-player-go/internal/remote"
	"github.com/llehouerou/qobuz-player-go/internal/sink"
	"github.com/llehouerou/qobuz-player-go/internal/tracklist"
)

// fakeSink and fakeDownloader mirror internal/web's test fakes: minimal
// stand-ins satisfying player.New's unexported sinkPort/downloaderPort
// contracts purely by method set.
type fakeSink struct {
	finished *observer.Watch[int]
}

func newFakeSink() *fakeSink { return &fakeSink{finished: observer.NewWatch(0)} }

func (f *fakeSink) QueryTrack(string) (sink.QueryResult, error) { return sink.Queued, nil }
func (f *fakeSink) Play()                                       {}
func (f *fakeSink) Pause()                                      {}
func (f *fakeSink) Seek(time.Duration) error                    { return nil }
func (f *fakeSink) Clear()                                      {}
func (f *fakeSink) ClearQueue()                                 {}
func (f *fakeSink) Position() time.Duration                     { return 0 }
func (f *fakeSink) SyncVolume(float64)                          {}
func (f *fakeSink) TrackFinished() *observer.Subscription[int]  { return f.finished.Subscribe() }
func (f *fakeSink) IsEmpty() bool                                { return true }

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

func newTestModel(t *testing.T) model {
	t.Helper()
	client := remote.NewMockClient()
	loop := player.New(client, newFakeSink(), newFakeDownloader(), nil, nil, player.Options{})
	return newModel(loop)
}

func TestModel_FilterKeystrokesDoNotTriggerPlaybackShortcuts(t *testing.T) {
	m := newTestModel(t)
	m.width, m.height = 60, 20
	m.queue.setSize(m.width, m.queueHeight())

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("/")})
	m = updated.(model)
	if !m.queue.filtering {
		t.Fatalf("expected queue to enter filtering mode after '/'")
	}

	before := m.status
	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("p")})
	m = updated.(model)

	if m.queue.filter.Value() != "p" {
		t.Errorf("filter value = %q, want %q (the 'p' key should type, not trigger previous-track)", m.queue.filter.Value(), "p")
	}
	if m.status != before {
		t.Errorf("status changed from typing into the filter box, want unchanged")
	}
}

func TestModel_EscClearsFilterAndRestoresShortcuts(t *testing.T) {
	m := newTestModel(t)
	m.width, m.height = 60, 20
	m.queue.setSize(m.width, m.queueHeight())

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("/")})
	m = updated.(model)
	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = updated.(model)

	if m.queue.filtering {
		t.Errorf("expected esc to leave filtering mode")
	}
	if m.queue.filter.Value() != "" {
		t.Errorf("expected esc to clear the filter value, got %q", m.queue.filter.Value())
	}
}
