package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/llehouerou/qobuz-player-go/internal/player"
	"github.com/llehouerou/qobuz-player-go/internal/tracklist"
)

func TestRenderPlayerBar_EmptyTracklistReturnsEmptyString(t *testing.T) {
	s := newBarState(player.Paused, 0, 0.5, tracklist.Snapshot{})
	if got := renderPlayerBar(s, 80); got != "" {
		t.Errorf("renderPlayerBar() = %q, want empty string", got)
	}
}

func TestRenderPlayerBar_ShowsCurrentTrack(t *testing.T) {
	tl := tracklist.New(tracklist.NewTracksType(), []tracklist.Track{
		{Title: "My Song", ArtistName: "My Artist", DurationSeconds: 200},
	})

	s := newBarState(player.Playing, 30*time.Second, 0.8, tl.Snapshot())
	out := stripANSI(renderPlayerBar(s, 80))

	if !strings.Contains(out, "My Song") {
		t.Errorf("player bar should contain track title, got: %s", out)
	}
	if !strings.Contains(out, "My Artist") {
		t.Errorf("player bar should contain artist, got: %s", out)
	}
	if !strings.Contains(out, "0:30") {
		t.Errorf("player bar should contain elapsed position, got: %s", out)
	}
	if !strings.Contains(out, "3:20") {
		t.Errorf("player bar should contain total duration, got: %s", out)
	}
}

func TestFormatDuration(t *testing.T) {
	cases := map[time.Duration]string{
		0:                 "0:00",
		45 * time.Second:  "0:45",
		125 * time.Second: "2:05",
	}
	for d, want := range cases {
		if got := formatDuration(d); got != want {
			t.Errorf("formatDuration(%v) = %q, want %q", d, got, want)
		}
	}
}

func TestFormatVolume(t *testing.T) {
	if got := formatVolume(0.75); got != "75%" {
		t.Errorf("formatVolume(0.75) = %q, want 75%%", got)
	}
}
