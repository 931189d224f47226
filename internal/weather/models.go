package weather

import (
	"strings"
	"time"
)

// Condition is the primary weather group reported by the provider.
type Condition string

const (
	ConditionUnknown      Condition = "Unknown"
	ConditionClear        Condition = "Clear"
	ConditionClouds       Condition = "Clouds"
	ConditionRain         Condition = "Rain"
	ConditionDrizzle      Condition = "Drizzle"
	ConditionThunderstorm Condition = "Thunderstorm"
	ConditionSnow         Condition = "Snow"
	ConditionMist         Condition = "Mist"
	ConditionFog          Condition = "Fog"
	ConditionHaze         Condition = "Haze"
)

// ParseCondition maps a provider "main" value onto a Condition.
// Unlisted groups (Smoke, Dust, Tornado, ...) become ConditionUnknown.
func ParseCondition(s string) Condition {
	switch c := Condition(strings.TrimSpace(s)); c {
	case ConditionClear, ConditionClouds, ConditionRain, ConditionDrizzle,
		ConditionThunderstorm, ConditionSnow, ConditionMist, ConditionFog, ConditionHaze:
		return c
	default:
		return ConditionUnknown
	}
}

// Units selects the measurement system requested from the provider.
type Units string

const (
	UnitsMetric   Units = "metric"
	UnitsImperial Units = "imperial"
)

// TemperatureSymbol returns the unit suffix used when printing temperatures.
func (u Units) TemperatureSymbol() string {
	if u == UnitsImperial {
		return "°F"
	}
	return "°C"
}

// SpeedUnit returns the wind speed unit the provider reports in.
func (u Units) SpeedUnit() string {
	if u == UnitsImperial {
		return "mph"
	}
	return "m/s"
}

// CityQuery is a user-entered city name. It keeps the caller's casing for
// display and compares case-insensitively.
type CityQuery string

// ParseCityQuery trims surrounding whitespace from raw input.
func ParseCityQuery(raw string) CityQuery {
	return CityQuery(strings.TrimSpace(raw))
}

// IsEmpty reports whether the query must not be sent to the provider.
func (q CityQuery) IsEmpty() bool {
	return strings.TrimSpace(string(q)) == ""
}

// Key returns the canonical, case-folded form used for cache and history lookups.
func (q CityQuery) Key() string {
	return strings.ToLower(strings.TrimSpace(string(q)))
}

// Equal compares two queries ignoring case and surrounding whitespace.
func (q CityQuery) Equal(other CityQuery) bool {
	return strings.EqualFold(strings.TrimSpace(string(q)), strings.TrimSpace(string(other)))
}

func (q CityQuery) String() string {
	return strings.TrimSpace(string(q))
}

// Sky describes what the weather looks like: group, icon and free text.
type Sky struct {
	Condition   Condition `json:"condition"`
	Description string    `json:"description,omitempty"`
	Icon        string    `json:"icon,omitempty"`
}

// CurrentReading is a single current-weather observation for a city.
// Temperatures and wind speed are in the configured Units.
type CurrentReading struct {
	City       string    `json:"city"`
	Country    string    `json:"country"`
	ObservedAt time.Time `json:"observedAt"`

	Temperature float64 `json:"temperature"`
	TempMin     float64 `json:"tempMin"`
	TempMax     float64 `json:"tempMax"`
	Humidity    float64 `json:"humidityPercent"`
	Pressure    float64 `json:"pressureHpa"`
	WindSpeed   float64 `json:"windSpeed"`
	Visibility  int     `json:"visibilityMeters"`

	Sunrise time.Time `json:"sunrise"`
	Sunset  time.Time `json:"sunset"`

	Sky Sky `json:"sky"`
}

// ForecastSample is one 3-hour forecast data point.
type ForecastSample struct {
	Timestamp time.Time `json:"timestamp"`
	TempMin   float64   `json:"tempMin"`
	TempMax   float64   `json:"tempMax"`
	Sky       Sky       `json:"sky"`
}

// DailySummary condenses all samples of one UTC calendar day.
type DailySummary struct {
	Date      string    `json:"date"`    // YYYY-MM-DD
	Weekday   string    `json:"weekday"` // Mon, Tue, ...
	TempMin   float64   `json:"tempMin"`
	TempMax   float64   `json:"tempMax"`
	Sky       Sky       `json:"sky"`
	FirstSeen time.Time `json:"firstSeen"`
}
