package weather

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Report is everything one city search produced. Current and forecast are
// fetched independently, so either half can fail on its own.
type Report struct {
	City        CityQuery       `json:"city"`
	Current     *CurrentReading `json:"current,omitempty"`
	Forecast    []DailySummary  `json:"forecast"`
	CurrentErr  error           `json:"-"`
	ForecastErr error           `json:"-"`
	History     []string        `json:"history"`
}

// Empty reports whether the search was skipped because the query was blank.
func (r Report) Empty() bool {
	return r.City.IsEmpty()
}

// Err returns the first failure of the search, current weather first.
// Callers that render the whole screen as an error use this.
func (r Report) Err() error {
	if r.CurrentErr != nil {
		return r.CurrentErr
	}
	return r.ForecastErr
}

// Service runs a search: it records the city, fetches current weather and
// forecast concurrently through the Source and summarizes the forecast.
type Service struct {
	source  Source
	history History
	logger  *slog.Logger
}

// NewService creates a new Service. source is normally the query cache.
func NewService(source Source, history History, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		source:  source,
		history: history,
		logger:  logger,
	}
}

// Search looks up current weather and the 5-day summary for raw.
// A blank query returns an empty Report without touching history or network.
func (s *Service) Search(ctx context.Context, raw string) Report {
	city := ParseCityQuery(raw)
	if city.IsEmpty() {
		return Report{Forecast: []DailySummary{}, History: s.History()}
	}

	report := Report{City: city, Forecast: []DailySummary{}}
	if s.history != nil {
		report.History = s.history.Record(city)
	}

	var g errgroup.Group
	g.Go(func() error {
		current, err := s.source.FetchCurrent(ctx, city)
		if err != nil {
			report.CurrentErr = err
			s.logger.Warn("current weather fetch failed", "city", city.String(), "kind", KindOf(err), "error", err)
			return nil
		}
		report.Current = &current
		return nil
	})
	g.Go(func() error {
		samples, err := s.source.FetchForecast(ctx, city)
		if err != nil {
			report.ForecastErr = err
			s.logger.Warn("forecast fetch failed", "city", city.String(), "kind", KindOf(err), "error", err)
			return nil
		}
		report.Forecast = Summarize(samples)
		return nil
	})
	_ = g.Wait()

	s.logger.Debug("search completed",
		"city", city.String(),
		"current_ok", report.CurrentErr == nil,
		"forecast_days", len(report.Forecast),
	)
	return report
}

// Reload repeats the search for raw after dropping any answers the source
// still holds for it, so the provider is asked again.
func (s *Service) Reload(ctx context.Context, raw string) Report {
	if f, ok := s.source.(Forgetter); ok {
		if city := ParseCityQuery(raw); !city.IsEmpty() {
			f.Forget(city)
		}
	}
	return s.Search(ctx, raw)
}

// History returns the recent searches, most recent first.
func (s *Service) History() []string {
	if s.history == nil {
		return []string{}
	}
	return s.history.Load()
}

// Refresh re-fetches current weather and forecast for every city in the
// history so the next search is served from a warm cache. It returns the
// number of cities for which at least one fetch failed.
func (s *Service) Refresh(ctx context.Context) int {
	cities := s.History()
	if len(cities) == 0 {
		return 0
	}

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed int
	)
	for _, c := range cities {
		city := ParseCityQuery(c)
		wg.Add(1)
		go func() {
			defer wg.Done()

			_, currentErr := s.source.FetchCurrent(ctx, city)
			_, forecastErr := s.source.FetchForecast(ctx, city)
			if currentErr == nil && forecastErr == nil {
				return
			}
			s.logger.Warn("refresh failed", "city", city.String(), "current_error", currentErr, "forecast_error", forecastErr)
			mu.Lock()
			failed++
			mu.Unlock()
		}()
	}
	wg.Wait()
	return failed
}
