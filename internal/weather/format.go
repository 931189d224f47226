package weather

import (
	"fmt"
	"math"
	"time"
)

// Placeholder printed when a value is missing.
const Placeholder = "--"

// FormatTemperature rounds t and appends the unit symbol, or a bare degree
// sign when showUnit is false.
func FormatTemperature(t float64, units Units, showUnit bool) string {
	if math.IsNaN(t) {
		return Placeholder
	}
	if !showUnit {
		return fmt.Sprintf("%d°", int(math.Round(t)))
	}
	return fmt.Sprintf("%d%s", int(math.Round(t)), units.TemperatureSymbol())
}

// FormatWindSpeed rounds a wind speed and appends its unit.
func FormatWindSpeed(speed float64, units Units) string {
	if math.IsNaN(speed) {
		return Placeholder
	}
	return fmt.Sprintf("%d %s", int(math.Round(speed)), units.SpeedUnit())
}

// FormatVisibility prints meters as kilometres with one decimal.
func FormatVisibility(meters int) string {
	if meters <= 0 {
		return Placeholder
	}
	return fmt.Sprintf("%.1f km", float64(meters)/1000)
}

// FormatDate renders "Monday, Jan 2" in loc.
func FormatDate(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	return t.In(loc).Format("Monday, Jan 2")
}

// FormatClock renders "03:04 PM" in loc.
func FormatClock(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	return t.In(loc).Format("03:04 PM")
}

// IconURL returns the provider icon image for code at the given density.
func IconURL(code string, size int) string {
	if code == "" {
		return ""
	}
	if size <= 0 {
		size = 2
	}
	return fmt.Sprintf("https://openweathermap.org/img/wn/%s@%dx.png", code, size)
}

// Detail is one labelled value of the current-weather details grid.
type Detail struct {
	Label string
	Value string
}

// Details lists humidity, wind, pressure and visibility for r.
func Details(r CurrentReading, units Units) []Detail {
	return []Detail{
		{Label: "Humidity", Value: fmt.Sprintf("%.0f %%", r.Humidity)},
		{Label: "Wind", Value: FormatWindSpeed(r.WindSpeed, units)},
		{Label: "Pressure", Value: fmt.Sprintf("%.0f hPa", r.Pressure)},
		{Label: "Visibility", Value: FormatVisibility(r.Visibility)},
	}
}
