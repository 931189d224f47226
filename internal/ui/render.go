package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/i474232898/weather-search/internal/weather"
)

// RenderReport prints a search result as plain text.
func RenderReport(r weather.Report, units weather.Units, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	if r.Empty() {
		return "No city entered.\n"
	}
	if r.CurrentErr != nil || r.Current == nil {
		return fmt.Sprintf("Error: %s\n", weather.MessageFor(r.Err()))
	}

	var b strings.Builder
	writeCurrent(&b, *r.Current, units, loc)

	b.WriteString("\n")
	switch {
	case r.ForecastErr != nil:
		fmt.Fprintf(&b, "Forecast unavailable: %s\n", weather.MessageFor(r.ForecastErr))
	case len(r.Forecast) > 0:
		b.WriteString("5-Day Forecast\n")
		for _, line := range forecastLines(r.Forecast, units) {
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// RenderHistory prints the recent searches, one per line.
func RenderHistory(entries []string) string {
	if len(entries) == 0 {
		return "No recent searches.\n"
	}
	var b strings.Builder
	for i, e := range entries {
		fmt.Fprintf(&b, "%d. %s\n", i+1, e)
	}
	return b.String()
}

func writeCurrent(b *strings.Builder, c weather.CurrentReading, units weather.Units, loc *time.Location) {
	header := c.City
	if c.Country != "" {
		header += ", " + c.Country
	}
	b.WriteString(header + "\n")
	if d := weather.FormatDate(c.ObservedAt, loc); d != "" {
		b.WriteString(d + "\n")
	}
	b.WriteString("\n")

	fmt.Fprintf(b, "%s  %s\n", weather.FormatTemperature(c.Temperature, units, true), c.Sky.Description)
	fmt.Fprintf(b, "H: %s L: %s\n",
		weather.FormatTemperature(c.TempMax, units, false),
		weather.FormatTemperature(c.TempMin, units, false),
	)
	b.WriteString("\n")

	for _, d := range weather.Details(c, units) {
		fmt.Fprintf(b, "%-11s %s\n", d.Label, d.Value)
	}
	b.WriteString("\n")
	fmt.Fprintf(b, "Sunrise %s   Sunset %s\n", clockOrPlaceholder(c.Sunrise, loc), clockOrPlaceholder(c.Sunset, loc))
}

func forecastLines(days []weather.DailySummary, units weather.Units) []string {
	lines := make([]string, 0, len(days))
	for _, d := range days {
		lines = append(lines, fmt.Sprintf("%-4s %5s / %-5s %s",
			d.Weekday,
			weather.FormatTemperature(d.TempMax, units, false),
			weather.FormatTemperature(d.TempMin, units, false),
			d.Sky.Condition,
		))
	}
	return lines
}

func clockOrPlaceholder(t time.Time, loc *time.Location) string {
	if s := weather.FormatClock(t, loc); s != "" {
		return s
	}
	return weather.Placeholder
}
