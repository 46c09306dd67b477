package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorText    = lipgloss.Color("#cad3f5")
	colorSubtle  = lipgloss.Color("#6e738d")
	colorWork    = lipgloss.Color("#ed8796")
	colorBreak   = lipgloss.Color("#a6da95")
	colorWarn    = lipgloss.Color("#eed49f")
	colorBorder  = lipgloss.Color("#5b6078")
	colorOffline = lipgloss.Color("#f5a97f")
)

type styles struct {
	Frame    lipgloss.Style
	Phase    lipgloss.Style
	Work     lipgloss.Style
	Break    lipgloss.Style
	Overtime lipgloss.Style
	Stat     lipgloss.Style
	Tag      lipgloss.Style
	Status   lipgloss.Style
	Error    lipgloss.Style
	Offline  lipgloss.Style
	Dialog   lipgloss.Style
	Key      lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		Frame: lipgloss.NewStyle().Padding(1, 2),
		Phase: lipgloss.NewStyle().Foreground(colorText).Bold(true),
		Work:  lipgloss.NewStyle().Foreground(colorWork).Bold(true),
		Break: lipgloss.NewStyle().Foreground(colorBreak).Bold(true),
		Overtime: lipgloss.NewStyle().
			Foreground(colorWarn).
			Bold(true).
			Blink(true),
		Stat: lipgloss.NewStyle().Foreground(colorSubtle),
		Tag: lipgloss.NewStyle().
			Foreground(colorText).
			Background(colorBorder).
			Padding(0, 1),
		Status:  lipgloss.NewStyle().Foreground(colorSubtle).Italic(true),
		Error:   lipgloss.NewStyle().Foreground(colorWork),
		Offline: lipgloss.NewStyle().Foreground(colorOffline).Bold(true),
		Dialog: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(colorWarn).
			Padding(0, 1).
			MarginTop(1),
		Key: lipgloss.NewStyle().Foreground(colorWarn).Bold(true),
	}
}
