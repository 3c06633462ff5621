package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"github.com/llehouerou/qobuz-player-go/internal/tracklist"
)

// jumpToTrackMsg is sent when the user selects a queue entry to jump to.
type jumpToTrackMsg struct {
	index int
}

// removeFromQueueMsg is sent when the user deletes one or more queue entries.
type removeFromQueueMsg struct {
	indices []int
}

// queueModel renders and navigates the current tracklist's queue. It
// holds no reference to the player loop itself; the root model feeds it
// a fresh tracklist.Snapshot on every change and turns its messages into
// ControlCommand sends.
//
// filterInput narrows the visible rows to titles/artists matching its
// value; there is no remote search here, only a client-side filter over
// the queue already loaded, which is all a queue panel can offer without
// a local catalog index to search against.
type queueModel struct {
	snap      tracklist.Snapshot
	cursor    int
	offset    int
	width     int
	height    int
	focused   bool
	selected  map[int]bool
	filtering bool
	filter    textinput.Model
}

func newQueueModel() queueModel {
	ti := textinput.New()
	ti.Prompt = "/"
	ti.Placeholder = "filter queue"
	ti.CharLimit = 64

	return queueModel{selected: make(map[int]bool), filter: ti}
}

func (m *queueModel) setSnapshot(snap tracklist.Snapshot) {
	m.snap = snap
	if m.cursor >= len(m.visible()) {
		m.cursor = max(len(m.visible())-1, 0)
	}
	m.ensureCursorVisible()
}

func (m *queueModel) setSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *queueModel) setFocused(f bool) { m.focused = f }

// visible returns the indices into m.snap.Queue that match the current
// filter text, in order. An empty filter matches everything.
func (m queueModel) visible() []int {
	needle := strings.ToLower(strings.TrimSpace(m.filter.Value()))
	if needle == "" {
		indices := make([]int, len(m.snap.Queue))
		for i := range indices {
			indices[i] = i
		}
		return indices
	}

	var indices []int
	for i, item := range m.snap.Queue {
		haystack := strings.ToLower(item.Track.Title + " " + item.Track.ArtistName)
		if strings.Contains(haystack, needle) {
			indices = append(indices, i)
		}
	}
	return indices
}

func (m queueModel) update(msg tea.Msg) (queueModel, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok || !m.focused {
		return m, nil
	}

	if m.filtering {
		switch keyMsg.String() {
		case "esc":
			m.filtering = false
			m.filter.Blur()
			m.filter.SetValue("")
			m.cursor = 0
			m.offset = 0
			return m, nil
		case "enter":
			m.filtering = false
			m.filter.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.filter, cmd = m.filter.Update(keyMsg)
		m.cursor = 0
		m.offset = 0
		return m, cmd
	}

	visible := m.visible()

	switch keyMsg.String() {
	case "/":
		m.filtering = true
		m.filter.Focus()
		return m, textinput.Blink
	case "x":
		if len(visible) > 0 && m.cursor < len(visible) {
			idx := visible[m.cursor]
			if m.selected[idx] {
				delete(m.selected, idx)
			} else {
				m.selected[idx] = true
			}
		}
	case "j", "down":
		m.moveCursor(1)
	case "k", "up":
		m.moveCursor(-1)
	case "g":
		m.cursor = 0
		m.offset = 0
	case "G":
		if len(visible) > 0 {
			m.cursor = len(visible) - 1
			m.ensureCursorVisible()
		}
	case "enter":
		if len(visible) > 0 && m.cursor < len(visible) {
			idx := visible[m.cursor]
			m.clearSelection()
			return m, func() tea.Msg { return jumpToTrackMsg{index: idx} }
		}
	case "d", "delete":
		if len(visible) > 0 {
			indices := m.selectedOrCursor(visible)
			m.clearSelection()
			return m, func() tea.Msg { return removeFromQueueMsg{indices: indices} }
		}
	case "esc":
		if len(m.filter.Value()) > 0 {
			m.filter.SetValue("")
			m.cursor = 0
			m.offset = 0
		} else if len(m.selected) > 0 {
			m.clearSelection()
		}
	}

	return m, nil
}

func (m *queueModel) selectedOrCursor(visible []int) []int {
	if len(m.selected) == 0 {
		if m.cursor < len(visible) {
			return []int{visible[m.cursor]}
		}
		return nil
	}
	indices := make([]int, 0, len(m.selected))
	for idx := range m.selected {
		indices = append(indices, idx)
	}
	return indices
}

func (m *queueModel) moveCursor(delta int) {
	visible := m.visible()
	if len(visible) == 0 {
		return
	}
	m.cursor += delta
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.cursor >= len(visible) {
		m.cursor = len(visible) - 1
	}
	m.ensureCursorVisible()
}

func (m *queueModel) ensureCursorVisible() {
	listHeight := m.listHeight()
	if listHeight <= 0 {
		return
	}
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+listHeight {
		m.offset = m.cursor - listHeight + 1
	}
}

func (m *queueModel) clearSelection() {
	m.selected = make(map[int]bool)
}

func (m queueModel) listHeight() int {
	h := m.height - 4 // border (2) + header (1) + separator (1)
	if m.filtering {
		h--
	}
	return h
}

func (m queueModel) view() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	innerWidth := m.width - 2
	listHeight := m.listHeight()
	visible := m.visible()

	var header string
	switch {
	case len(m.selected) > 0:
		header = headerStyle.Render(fmt.Sprintf("Queue [%d selected]", len(m.selected)))
	case len(visible) > 0:
		pos := currentVisiblePosition(m.snap, visible) + 1
		header = headerStyle.Render(fmt.Sprintf("Queue — %s of %d", humanize.Ordinal(max(pos, 0)), len(visible)))
	case m.filter.Value() != "":
		header = headerStyle.Render("Queue — no matches")
	default:
		header = headerStyle.Render("Queue — empty")
	}
	header = runewidth.Truncate(header, innerWidth, "...")
	header = runewidth.FillRight(header, innerWidth)

	separator := strings.Repeat("─", innerWidth)

	lines := make([]string, 0, listHeight)
	for i := range listHeight {
		pos := i + m.offset
		if pos >= len(visible) {
			lines = append(lines, strings.Repeat(" ", innerWidth))
			continue
		}
		idx := visible[pos]
		lines = append(lines, m.renderLine(m.snap.Queue[idx], idx, pos, innerWidth))
	}

	content := header + "\n" + separator + "\n" + strings.Join(lines, "\n")
	if m.filtering {
		content += "\n" + runewidth.FillRight(m.filter.View(), innerWidth)
	}
	return panelStyle(m.focused).Width(innerWidth).Render(content)
}

func (m queueModel) renderLine(item tracklist.QueueItem, idx, pos, width int) string {
	prefix := "  "
	if item.Track.Status == tracklist.StatusPlaying {
		prefix = playingSymbol + " "
	}

	suffix := ""
	if m.selected[idx] {
		suffix = " ●"
	}

	info := item.Track.Title
	if item.Track.ArtistName != "" {
		info += " - " + item.Track.ArtistName
	}

	maxInfoWidth := width - 2 - runewidth.StringWidth(suffix)
	info = runewidth.Truncate(info, maxInfoWidth, "...")

	line := prefix + info
	line = runewidth.FillRight(line, width-runewidth.StringWidth(suffix))
	line += suffix

	return m.lineStyle(item, pos).Render(line)
}

func (m queueModel) lineStyle(item tracklist.QueueItem, pos int) lipgloss.Style {
	isCursor := pos == m.cursor && m.focused
	switch item.Track.Status {
	case tracklist.StatusPlaying:
		if isCursor {
			return cursorStyle.Inherit(playingStyle)
		}
		return playingStyle
	case tracklist.StatusPlayed:
		if isCursor {
			return cursorStyle.Inherit(playedStyle)
		}
		return playedStyle
	default:
		if isCursor {
			return cursorStyle
		}
		return trackStyle
	}
}

func currentPosition(snap tracklist.Snapshot) int {
	for i, item := range snap.Queue {
		if item.Track.Status == tracklist.StatusPlaying {
			return i
		}
	}
	return -1
}

// currentVisiblePosition returns the position within visible (a list of
// indices into snap.Queue) of the Playing item, or -1 if it was
// filtered out or nothing is playing.
func currentVisiblePosition(snap tracklist.Snapshot, visible []int) int {
	playing := currentPosition(snap)
	if playing < 0 {
		return -1
	}
	for pos, idx := range visible {
		if idx == playing {
			return pos
		}
	}
	return -1
}
