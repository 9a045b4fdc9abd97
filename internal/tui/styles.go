package tui

import (
	"sharada-markets/internal/format"

	"github.com/charmbracelet/lipgloss"
)

var (
	saffron = lipgloss.Color("#F28C28")
	muted   = lipgloss.Color(format.ColorGray)

	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(saffron)
	activeTabStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF")).Background(saffron).Padding(0, 1)
	tabStyle       = lipgloss.NewStyle().Foreground(muted).Padding(0, 1)
	sectionStyle   = lipgloss.NewStyle().Bold(true).Underline(true)
	helpStyle      = lipgloss.NewStyle().Foreground(muted)
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color(format.ColorRed))
	noteStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color(format.ColorGolden)).Italic(true)
	boxStyle       = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(muted).Padding(0, 1)
)

func changeStyle(change float64) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(format.ColorForChange(change)))
}

func percentStyle(pct float64) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(format.ColorForPercentage(pct)))
}
