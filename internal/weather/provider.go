package weather

import "context"

// Source abstracts the weather data provider. Implementations must return
// only *Error values so callers can rely on the normalized taxonomy.
type Source interface {
	FetchCurrent(ctx context.Context, city CityQuery) (CurrentReading, error)
	FetchForecast(ctx context.Context, city CityQuery) ([]ForecastSample, error)
}

// History is the recent-search list the Service records into.
type History interface {
	Load() []string
	Record(city CityQuery) []string
}

// Forgetter is implemented by sources that keep answers around, so a reload
// can drop them before fetching again.
type Forgetter interface {
	Forget(city CityQuery)
}
