package tui

import (
	"regexp"
	"strings"
	"testing"

	"github.com/llehouerou/qobuz-player-go/internal/tracklist"
)

func stripANSI(s string) string {
	re := regexp.MustCompile(`\x1b\[[0-9;]*m`)
	return re.ReplaceAllString(s, "")
}

func testTrack(title, artist string) tracklist.Track {
	return tracklist.Track{Title: title, ArtistName: artist, Available: true}
}

func TestQueueView_Empty(t *testing.T) {
	m := newQueueModel()
	m.setSize(60, 10)

	stripped := stripANSI(m.view())
	if !strings.Contains(stripped, "Queue — empty") {
		t.Errorf("empty queue should show 'Queue — empty', got: %s", stripped)
	}
}

func TestQueueView_ShowsTrackAndHeader(t *testing.T) {
	tl := tracklist.New(tracklist.NewTracksType(), []tracklist.Track{
		testTrack("Song 1", "Artist 1"),
		testTrack("Song 2", "Artist 2"),
	})

	m := newQueueModel()
	m.setSize(60, 10)
	m.setSnapshot(tl.Snapshot())

	stripped := stripANSI(m.view())
	if !strings.Contains(stripped, "Song 1") || !strings.Contains(stripped, "Artist 1") {
		t.Errorf("should contain first track info, got: %s", stripped)
	}
	if !strings.Contains(stripped, "1st of 2") {
		t.Errorf("header should report position, got: %s", stripped)
	}
}

func TestQueueModel_FilterNarrowsVisibleRows(t *testing.T) {
	tl := tracklist.New(tracklist.NewTracksType(), []tracklist.Track{
		testTrack("Blue Train", "John Coltrane"),
		testTrack("Kind of Blue", "Miles Davis"),
		testTrack("Giant Steps", "John Coltrane"),
	})

	m := newQueueModel()
	m.setSize(60, 10)
	m.setSnapshot(tl.Snapshot())
	m.filter.SetValue("coltrane")

	visible := m.visible()
	if len(visible) != 2 {
		t.Fatalf("visible() returned %d indices, want 2", len(visible))
	}
	for _, idx := range visible {
		if m.snap.Queue[idx].Track.ArtistName != "John Coltrane" {
			t.Errorf("filtered index %d has artist %q, want John Coltrane", idx, m.snap.Queue[idx].Track.ArtistName)
		}
	}

	stripped := stripANSI(m.view())
	if strings.Contains(stripped, "Kind of Blue") {
		t.Errorf("filtered-out track should not appear in view, got: %s", stripped)
	}
	if !strings.Contains(stripped, "Blue Train") || !strings.Contains(stripped, "Giant Steps") {
		t.Errorf("matching tracks should appear in view, got: %s", stripped)
	}
}

func TestQueueModel_CursorClampedToQueueLength(t *testing.T) {
	tl := tracklist.New(tracklist.NewTracksType(), []tracklist.Track{
		testTrack("Song 1", "Artist 1"),
		testTrack("Song 2", "Artist 2"),
		testTrack("Song 3", "Artist 3"),
	})

	m := newQueueModel()
	m.setSize(60, 10)
	m.setSnapshot(tl.Snapshot())
	m.cursor = 2

	shrunk := tracklist.New(tracklist.NewTracksType(), []tracklist.Track{testTrack("Only", "Artist")})
	m.setSnapshot(shrunk.Snapshot())

	if m.cursor != 0 {
		t.Errorf("cursor = %d, want 0 after queue shrank", m.cursor)
	}
}
