package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/rivo/uniseg"

	"github.com/llehouerou/qobuz-player-go/internal/player"
	"github.com/llehouerou/qobuz-player-go/internal/tracklist"
)

// barState holds everything needed to render the player bar, mirroring
// the compact-mode fields a presenter needs off the core's
// status/position/tracklist/volume watches.
type barState struct {
	status   player.Status
	position time.Duration
	duration time.Duration
	volume   float32
	title    string
	artist   string
	album    string
	index    int
	total    int
}

// barHeight is the player bar's total height: top border + content + bottom border.
const barHeight = 3

func newBarState(status player.Status, pos time.Duration, volume float32, snap tracklist.Snapshot) barState {
	s := barState{status: status, position: pos, volume: volume}

	queue := snap.Queue
	s.total = len(queue)
	for i, item := range queue {
		if item.Track.Status == tracklist.StatusPlaying {
			s.index = i + 1
			s.title = item.Track.Title
			s.artist = item.Track.ArtistName
			s.album = item.Track.AlbumTitle
			s.duration = time.Duration(item.Track.DurationSeconds) * time.Second
			break
		}
	}

	return s
}

func (s barState) empty() bool {
	return s.total == 0
}

// renderPlayerBar returns the player bar string for the given width, or
// an empty string when the tracklist has nothing loaded.
func renderPlayerBar(s barState, width int) string {
	if s.empty() {
		return ""
	}

	innerWidth := max(width-6, 0)

	status := playingSymbol
	if s.status != player.Playing {
		status = pauseSymbol
	}

	title := s.title
	if title == "" {
		title = "Unknown Track"
	}

	var infoParts []string
	if s.artist != "" {
		infoParts = append(infoParts, s.artist)
	}
	if s.album != "" {
		infoParts = append(infoParts, s.album)
	}
	info := strings.Join(infoParts, " · ")

	var trackNum string
	if s.total > 0 {
		trackNum = fmt.Sprintf("%d/%d", s.index, s.total)
	}

	timeStr := fmt.Sprintf("%s / %s", formatDuration(s.position), formatDuration(s.duration))

	separator := "   "
	sepWidth := lipgloss.Width(separator)
	timeWidth := lipgloss.Width(timeStr)
	statusWidth := lipgloss.Width(status + "  ")
	trackNumWidth := lipgloss.Width(trackNum)

	titleWidth := lipgloss.Width(title)
	infoWidth := lipgloss.Width(info)

	minBarWidth := 10

	trackNumSpace := 0
	if trackNum != "" {
		trackNumSpace = trackNumWidth + sepWidth
	}
	availableForContent := innerWidth - statusWidth - timeWidth - sepWidth*2 - minBarWidth - trackNumSpace

	var styledTitle, styledInfo string
	var usedContentWidth int

	switch {
	case titleWidth+sepWidth+infoWidth <= availableForContent:
		styledTitle = titleStyle.Render(title)
		styledInfo = artistStyle.Render(info)
		usedContentWidth = titleWidth + sepWidth + infoWidth
	case titleWidth+sepWidth <= availableForContent && info != "":
		maxInfo := availableForContent - titleWidth - sepWidth
		styledTitle = titleStyle.Render(title)
		styledInfo = artistStyle.Render(truncate(info, maxInfo))
		usedContentWidth = titleWidth + sepWidth + maxInfo
	default:
		maxTitle := max(availableForContent, 10)
		styledTitle = titleStyle.Render(truncate(title, maxTitle))
		usedContentWidth = min(titleWidth, maxTitle)
	}

	barWidth := max(innerWidth-usedContentWidth-trackNumSpace-statusWidth-timeWidth-sepWidth*2, 5)

	var ratio float64
	if s.duration > 0 {
		ratio = float64(s.position) / float64(s.duration)
	}
	filled := min(int(float64(barWidth)*ratio), barWidth)
	filledBar := progressBarFilled.Render(strings.Repeat("━", filled))
	emptyBar := progressBarEmpty.Render(strings.Repeat("─", barWidth-filled))

	var content strings.Builder
	content.WriteString(styledTitle)
	if styledInfo != "" {
		content.WriteString(separator)
		content.WriteString(styledInfo)
	}
	if trackNum != "" {
		content.WriteString(separator)
		content.WriteString(metaStyle.Render(trackNum))
	}
	content.WriteString(separator)
	content.WriteString(status)
	content.WriteString("  ")
	content.WriteString(filledBar)
	content.WriteString(emptyBar)
	content.WriteString(separator)
	content.WriteString(progressTimeStyle.Render(timeStr))

	return barStyle.Padding(0, 2).Width(width - 2).Render(content.String())
}

// truncate shortens s to at most maxWidth grapheme clusters, so a track
// title carrying an emoji or a combining accent doesn't get cut mid
// cluster. Mirrors the cluster-splitting loop the teacher's gradient
// renderer uses for the same reason.
func truncate(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}

	var clusters []string
	gr := uniseg.NewGraphemes(s)
	for gr.Next() {
		clusters = append(clusters, gr.Str())
	}

	if len(clusters) <= maxWidth {
		return s
	}
	if maxWidth <= 3 {
		return strings.Join(clusters[:maxWidth], "")
	}
	return strings.Join(clusters[:maxWidth-3], "") + "..."
}

func formatDuration(d time.Duration) string {
	m := int(d.Minutes())
	sec := int(d.Seconds()) % 60
	return fmt.Sprintf("%d:%02d", m, sec)
}

func formatVolume(v float32) string {
	return strconv.Itoa(int(v*100)) + "%"
}
