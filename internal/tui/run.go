package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/llehouerou/qobuz-player-go/internal/player"
)

// Run drives the terminal presenter until ctx is cancelled or the user
// quits, mirroring the teacher's tea.NewProgram(m, tea.WithAltScreen())
// entrypoint in main.go.
func Run(ctx context.Context, loop *player.Loop) error {
	p := tea.NewProgram(newModel(loop), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
