package cache

import (
	"time"

	"github.com/i474232898/weather-search/internal/weather"
)

// Kind selects which provider query a cache entry holds.
type Kind string

const (
	KindCurrent  Kind = "currentWeather"
	KindForecast Kind = "forecast"
)

// State is the lifecycle position of one cache entry.
//
//	Empty --get--> Fetching --ok--> Fresh --freshFor elapsed--> Stale --get--> Fetching
//	                        \--err--> Failed --get--> Fetching
//
// Any state except Fetching returns to Empty after maxIdle without a read,
// or on Invalidate.
type State int

const (
	StateEmpty State = iota
	StateFetching
	StateFresh
	StateStale
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateFetching:
		return "fetching"
	case StateFresh:
		return "fresh"
	case StateStale:
		return "stale"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is what Get hands back: the cached value for one (kind, city) key.
// Only the field matching Kind is populated.
type Result struct {
	Kind      Kind
	City      weather.CityQuery
	State     State
	FetchedAt time.Time

	Current  weather.CurrentReading
	Forecast []weather.ForecastSample
}

// NoData reports the neutral result returned for blank queries.
func (r Result) NoData() bool {
	return r.State == StateEmpty
}

type entry struct {
	kind Kind
	city weather.CityQuery

	value    any
	hasValue bool
	err      error

	fetching   bool
	fetchedAt  time.Time
	lastAccess time.Time
}

func (e *entry) state(now time.Time, freshFor time.Duration) State {
	switch {
	case e.fetching:
		return StateFetching
	case e.err != nil:
		return StateFailed
	case !e.hasValue:
		return StateEmpty
	case now.Sub(e.fetchedAt) < freshFor:
		return StateFresh
	default:
		return StateStale
	}
}

func (e *entry) result(state State) Result {
	r := Result{
		Kind:      e.kind,
		City:      e.city,
		State:     state,
		FetchedAt: e.fetchedAt,
	}
	switch v := e.value.(type) {
	case weather.CurrentReading:
		r.Current = v
	case []weather.ForecastSample:
		r.Forecast = append([]weather.ForecastSample(nil), v...)
	}
	return r
}

func entryKey(kind Kind, city weather.CityQuery) string {
	return string(kind) + ":" + city.Key()
}
