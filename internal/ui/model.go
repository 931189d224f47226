// Package ui is the terminal front end: an interactive bubbletea program
// and plain-text rendering for one-shot output.
package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/i474232898/weather-search/internal/weather"
)

// Searcher runs searches. *weather.Service implements it.
type Searcher interface {
	Search(ctx context.Context, raw string) weather.Report
	Reload(ctx context.Context, raw string) weather.Report
	History() []string
}

type screen int

const (
	screenSearch screen = iota
	screenLoading
	screenWeather
	screenError
)

// Options configures the interactive model.
type Options struct {
	Units         weather.Units
	Location      *time.Location
	Dark          bool
	SearchTimeout time.Duration
}

// Model is the bubbletea model for the search/weather/error screens.
type Model struct {
	searcher Searcher
	opts     Options
	styles   styles

	screen  screen
	input   string
	cursor  int // -1 focuses the input, otherwise an index into history
	history []string

	city   string
	report weather.Report
	errMsg string

	width  int
	height int
}

// searchDoneMsg carries a finished search back into Update.
type searchDoneMsg struct {
	city   string
	report weather.Report
}

// NewModel creates the model and loads the recent searches.
func NewModel(searcher Searcher, opts Options) Model {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.SearchTimeout <= 0 {
		opts.SearchTimeout = 30 * time.Second
	}
	return Model{
		searcher: searcher,
		opts:     opts,
		styles:   newStyles(opts.Dark),
		screen:   screenSearch,
		cursor:   -1,
		history:  searcher.History(),
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for every screen
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case searchDoneMsg:
		// Results for a search the user already left are dropped.
		if m.screen != screenLoading || msg.city != m.city {
			return m, nil
		}
		m.report = msg.report
		if msg.report.History != nil {
			m.history = msg.report.History
		}
		if msg.report.CurrentErr != nil || msg.report.Current == nil {
			m.errMsg = weather.MessageFor(msg.report.Err())
			m.screen = screenError
			return m, nil
		}
		m.screen = screenWeather
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		switch m.screen {
		case screenSearch:
			return m.updateSearch(msg)
		case screenLoading:
			if msg.Type == tea.KeyEsc {
				return m.backToSearch(), nil
			}
		case screenWeather:
			switch msg.String() {
			case "q":
				return m, tea.Quit
			case "esc", "b", "backspace":
				return m.backToSearch(), nil
			case "r":
				return m.startSearch(m.city, true)
			}
		case screenError:
			switch msg.String() {
			case "q":
				return m, tea.Quit
			case "enter", "esc", "b":
				return m.backToSearch(), nil
			}
		}
	}

	return m, nil
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		return m, tea.Quit

	case tea.KeyEnter:
		query := m.input
		if m.cursor >= 0 && m.cursor < len(m.history) {
			query = m.history[m.cursor]
		}
		if weather.ParseCityQuery(query).IsEmpty() {
			return m, nil
		}
		return m.startSearch(query, false)

	case tea.KeyDown, tea.KeyTab:
		if len(m.history) > 0 {
			m.cursor++
			if m.cursor >= len(m.history) {
				m.cursor = -1
			}
		}

	case tea.KeyUp, tea.KeyShiftTab:
		if len(m.history) > 0 {
			m.cursor--
			if m.cursor < -1 {
				m.cursor = len(m.history) - 1
			}
		}

	case tea.KeyBackspace:
		if m.cursor == -1 && len(m.input) > 0 {
			r := []rune(m.input)
			m.input = string(r[:len(r)-1])
		}

	case tea.KeySpace:
		m.cursor = -1
		m.input += " "

	case tea.KeyRunes:
		m.cursor = -1
		m.input += string(msg.Runes)
	}
	return m, nil
}

// startSearch moves to the loading screen and runs the search. reload asks
// the provider again even when a fresh answer is cached.
func (m Model) startSearch(query string, reload bool) (Model, tea.Cmd) {
	city := weather.ParseCityQuery(query).String()
	m.city = city
	m.input = ""
	m.cursor = -1
	m.errMsg = ""
	m.screen = screenLoading

	searcher := m.searcher
	timeout := m.opts.SearchTimeout
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if reload {
			return searchDoneMsg{city: city, report: searcher.Reload(ctx, city)}
		}
		return searchDoneMsg{city: city, report: searcher.Search(ctx, city)}
	}
}

func (m Model) backToSearch() Model {
	m.screen = screenSearch
	m.cursor = -1
	m.history = m.searcher.History()
	return m
}

// View renders the current screen
func (m Model) View() string {
	switch m.screen {
	case screenLoading:
		return m.viewLoading()
	case screenWeather:
		return m.viewWeather()
	case screenError:
		return m.viewError()
	default:
		return m.viewSearch()
	}
}

func (m Model) viewSearch() string {
	s := m.styles
	var b strings.Builder

	b.WriteString(s.title.Render("Weather App"))
	b.WriteString("\n\n")

	field := m.input
	if field == "" && m.cursor != -1 {
		field = "Enter city name"
	}
	if m.cursor == -1 {
		b.WriteString(s.focused.Render(field + "_"))
	} else {
		b.WriteString(s.input.Render(field))
	}
	b.WriteString("\n")

	if len(m.history) > 0 {
		b.WriteString("\n")
		b.WriteString(s.label.Render("Recent Searches"))
		b.WriteString("\n")
		for i, h := range m.history {
			if i == m.cursor {
				b.WriteString(s.selected.Render(h))
			} else {
				b.WriteString(s.item.Render(h))
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(s.help.Render("Enter: search • ↑↓: recent searches • Esc: quit"))
	return b.String()
}

func (m Model) viewLoading() string {
	return m.styles.label.Render(fmt.Sprintf("Loading weather for %s...", m.city)) +
		"\n\n" + m.styles.help.Render("Esc: cancel")
}

func (m Model) viewWeather() string {
	r := m.report
	if r.Current == nil {
		return m.viewError()
	}
	c := *r.Current
	units := m.opts.Units
	loc := m.opts.Location
	s := m.styles

	var b strings.Builder
	b.WriteString("← Back\n\n")

	header := c.City
	if c.Country != "" {
		header += ", " + c.Country
	}
	b.WriteString(lipgloss.NewStyle().Bold(true).Render(header))
	b.WriteString("\n")
	b.WriteString(weather.FormatDate(c.ObservedAt, loc))
	b.WriteString("\n\n")

	b.WriteString(lipgloss.NewStyle().Bold(true).Render(weather.FormatTemperature(c.Temperature, units, true)))
	b.WriteString("  ")
	b.WriteString(c.Sky.Description)
	b.WriteString("\n")
	fmt.Fprintf(&b, "H: %s L: %s\n\n",
		weather.FormatTemperature(c.TempMax, units, false),
		weather.FormatTemperature(c.TempMin, units, false),
	)

	for _, d := range weather.Details(c, units) {
		fmt.Fprintf(&b, "%-11s %s\n", d.Label, d.Value)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Sunrise %s   Sunset %s\n", clockOrPlaceholder(c.Sunrise, loc), clockOrPlaceholder(c.Sunset, loc))

	switch {
	case r.ForecastErr != nil:
		b.WriteString("\n")
		b.WriteString(s.warn.Render("Forecast unavailable: " + weather.MessageFor(r.ForecastErr)))
		b.WriteString("\n")
	case len(r.Forecast) > 0:
		b.WriteString("\n5-Day Forecast\n")
		for _, line := range forecastLines(r.Forecast, units) {
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString("Esc: back • r: refresh • q: quit")

	return weatherBox(c.Sky.Condition, m.opts.Dark).Render(b.String())
}

func (m Model) viewError() string {
	s := m.styles
	msg := m.errMsg
	if msg == "" {
		msg = weather.GenericMessage
	}

	var b strings.Builder
	b.WriteString(s.errorText.Render("Oops! Something went wrong"))
	b.WriteString("\n\n")
	b.WriteString(msg)
	b.WriteString("\n\n")
	b.WriteString(s.button.Render("Back to Search"))
	b.WriteString("\n\n")
	b.WriteString(s.help.Render("Enter: back to search • q: quit"))
	return s.errorBox.Render(b.String())
}

// Run starts the interactive program on the alternate screen.
func Run(searcher Searcher, opts Options) error {
	p := tea.NewProgram(NewModel(searcher, opts), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui error: %w", err)
	}
	return nil
}
