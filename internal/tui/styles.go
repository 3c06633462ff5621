package tui

import "github.com/charmbracelet/lipgloss"

const (
	playingSymbol = "▶"
	pauseSymbol   = "⏸"
)

var (
	barStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240"))

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("255"))

	artistStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250"))

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	progressBarFilled = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	progressBarEmpty  = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	progressTimeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("255"))

	trackStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250"))

	playingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	cursorStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252"))

	playedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	statusLineStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	panelBorder      = lipgloss.Color("240")
	panelBorderFocus = lipgloss.Color("39")
)

// panelStyle returns the queue panel's border style, highlighted when
// the panel holds keyboard focus.
func panelStyle(focused bool) lipgloss.Style {
	border := panelBorder
	if focused {
		border = panelBorderFocus
	}
	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(border)
}
