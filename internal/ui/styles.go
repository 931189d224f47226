package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/i474232898/weather-search/internal/weather"
)

var (
	colorForeground = lipgloss.Color("#ffffff")
	colorMuted      = lipgloss.Color("#b0bec5")
	colorAccent     = lipgloss.Color("#007bff")
	colorAccentDark = lipgloss.Color("#0080ff")
	colorError      = lipgloss.Color("#ff5555")
	colorWarn       = lipgloss.Color("#ffb86c")
)

type conditionColors struct {
	light lipgloss.Color
	dark  lipgloss.Color
}

var backgrounds = map[weather.Condition]conditionColors{
	weather.ConditionClear:        {"#4da0ff", "#0d253f"},
	weather.ConditionClouds:       {"#b3b3b3", "#333333"},
	weather.ConditionRain:         {"#607d8b", "#263238"},
	weather.ConditionDrizzle:      {"#78909c", "#37474f"},
	weather.ConditionThunderstorm: {"#455a64", "#1c313a"},
	weather.ConditionSnow:         {"#b3e5fc", "#0288d1"},
	weather.ConditionMist:         {"#b0bec5", "#455a64"},
	weather.ConditionFog:          {"#b0bec5", "#455a64"},
	weather.ConditionHaze:         {"#b0bec5", "#455a64"},
}

// Background returns the weather screen colour for a condition.
func Background(c weather.Condition, dark bool) lipgloss.Color {
	bg, ok := backgrounds[c]
	switch {
	case !ok && dark:
		return "#1a1a1a"
	case !ok:
		return "#42a5f5"
	case dark:
		return bg.dark
	default:
		return bg.light
	}
}

type styles struct {
	title     lipgloss.Style
	label     lipgloss.Style
	input     lipgloss.Style
	focused   lipgloss.Style
	item      lipgloss.Style
	selected  lipgloss.Style
	help      lipgloss.Style
	errorBox  lipgloss.Style
	errorText lipgloss.Style
	warn      lipgloss.Style
	button    lipgloss.Style
}

func newStyles(dark bool) styles {
	accent := colorAccent
	if dark {
		accent = colorAccentDark
	}

	input := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorMuted).
		Padding(0, 1).
		Width(40)

	item := lipgloss.NewStyle().Padding(0, 1)

	return styles{
		title:    lipgloss.NewStyle().Bold(true).Foreground(accent),
		label:    lipgloss.NewStyle(),
		input:    input,
		focused:  input.BorderForeground(accent),
		item:     item,
		selected: item.Foreground(colorForeground).Background(accent),
		help:     lipgloss.NewStyle().Foreground(colorMuted),
		errorBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorError).
			Padding(1, 2),
		errorText: lipgloss.NewStyle().Foreground(colorError).Bold(true),
		warn:      lipgloss.NewStyle().Foreground(colorWarn),
		button: lipgloss.NewStyle().
			Foreground(colorForeground).
			Background(accent).
			Padding(0, 2),
	}
}

// weatherBox frames the weather screen in the condition colour.
func weatherBox(c weather.Condition, dark bool) lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(colorForeground).
		Background(Background(c, dark)).
		Padding(1, 2)
}
