// Package tui is the terminal presenter: a player bar plus a navigable
// queue panel over the core's Facade and observer subscriptions,
// trimmed down from the teacher's navigator/playerbar/queuepanel shell
// to this domain's remote-catalog queue instead of a local filesystem
// tree.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/llehouerou/qobuz-player-go/internal/observer"
	"github.com/llehouerou/qobuz-player-go/internal/player"
	"github.com/llehouerou/qobuz-player-go/internal/tracklist"
)

type statusChangedMsg struct{ v player.Status }
type positionChangedMsg struct{ v time.Duration }
type tracklistChangedMsg struct{ v tracklist.Snapshot }
type volumeChangedMsg struct{ v float32 }

type model struct {
	facade *player.Facade

	statusSub *observer.Subscription[player.Status]
	posSub    *observer.Subscription[time.Duration]
	tlSub     *observer.Subscription[tracklist.Snapshot]
	volumeSub *observer.Subscription[float32]

	status   player.Status
	position time.Duration
	volume   float32
	snap     tracklist.Snapshot

	queue  queueModel
	width  int
	height int
}

func newModel(loop *player.Loop) model {
	m := model{
		facade:    loop.Facade(),
		statusSub: loop.Status(),
		posSub:    loop.Position(),
		tlSub:     loop.Tracklist(),
		volumeSub: loop.Volume(),
		queue:     newQueueModel(),
	}
	m.status = m.statusSub.Borrow()
	m.position = m.posSub.Borrow()
	m.volume = m.volumeSub.Borrow()
	m.snap = m.tlSub.Borrow()
	m.queue.setSnapshot(m.snap)
	m.queue.setFocused(true)
	return m
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.waitForStatus(), m.waitForPosition(), m.waitForTracklist(), m.waitForVolume())
}

func (m model) waitForStatus() tea.Cmd {
	sub := m.statusSub
	return func() tea.Msg {
		<-sub.Changed()
		return statusChangedMsg{v: sub.Borrow()}
	}
}

func (m model) waitForPosition() tea.Cmd {
	sub := m.posSub
	return func() tea.Msg {
		<-sub.Changed()
		return positionChangedMsg{v: sub.Borrow()}
	}
}

func (m model) waitForTracklist() tea.Cmd {
	sub := m.tlSub
	return func() tea.Msg {
		<-sub.Changed()
		return tracklistChangedMsg{v: sub.Borrow()}
	}
}

func (m model) waitForVolume() tea.Cmd {
	sub := m.volumeSub
	return func() tea.Msg {
		<-sub.Changed()
		return volumeChangedMsg{v: sub.Borrow()}
	}
}

// statusLineHeight is the one-line status summary always shown below
// the queue panel (and the player bar, when present).
const statusLineHeight = 1

func (m model) queueHeight() int {
	h := m.height - statusLineHeight
	if !newBarState(m.status, m.position, m.volume, m.snap).empty() {
		h -= barHeight
	}
	return h
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.queue.setSize(m.width, m.queueHeight())
		return m, nil

	case statusChangedMsg:
		m.status = msg.v
		return m, m.waitForStatus()

	case positionChangedMsg:
		m.position = msg.v
		return m, m.waitForPosition()

	case tracklistChangedMsg:
		m.snap = msg.v
		m.queue.setSnapshot(m.snap)
		m.queue.setSize(m.width, m.queueHeight())
		return m, m.waitForTracklist()

	case volumeChangedMsg:
		m.volume = msg.v
		return m, m.waitForVolume()

	case jumpToTrackMsg:
		m.facade.Send(player.NewSkipToPositionCommand(uint32(msg.index), true))
		return m, nil

	case removeFromQueueMsg:
		for _, idx := range msg.indices {
			m.facade.Send(player.NewRemoveIndexFromQueueCommand(idx))
		}
		return m, nil

	case tea.KeyMsg:
		// While the queue filter box is capturing text, every key goes
		// to it; none of the single-letter playback shortcuts below
		// should fire mid-query ("p" typed into a filter must not pause).
		if m.queue.filtering {
			break
		}
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.facade.Send(player.NewPlayPauseCommand())
			return m, nil
		case "n":
			m.facade.Send(player.NewNextCommand())
			return m, nil
		case "p":
			m.facade.Send(player.NewPreviousCommand())
			return m, nil
		case "right":
			m.facade.Send(player.NewJumpForwardCommand())
			return m, nil
		case "left":
			m.facade.Send(player.NewJumpBackwardCommand())
			return m, nil
		case "+", "=":
			m.facade.Send(player.NewSetVolumeCommand(min(m.volume+0.05, 1)))
			return m, nil
		case "-", "_":
			m.facade.Send(player.NewSetVolumeCommand(max(m.volume-0.05, 0)))
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.queue, cmd = m.queue.update(msg)
	return m, cmd
}

func (m model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	view := m.queue.view()

	bar := renderPlayerBar(newBarState(m.status, m.position, m.volume, m.snap), m.width)
	if bar != "" {
		view += "\n" + bar
	}

	status := m.status.String() + " · volume " + formatVolume(m.volume)
	view += "\n" + statusLineStyle.Render(status)

	return view
}
