package providers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-search/internal/weather"
)

// DefaultOpenWeatherURL is the OpenWeatherMap 2.5 API root.
const DefaultOpenWeatherURL = "https://api.openweathermap.org/data/2.5"

// OpenWeatherProvider implements weather.Source for OpenWeatherMap.
type OpenWeatherProvider struct {
	name    string
	apiKey  string
	baseURL string
	units   weather.Units
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
	logger  *slog.Logger
}

// Option customizes an OpenWeatherProvider.
type Option func(*OpenWeatherProvider)

// WithBaseURL points the provider at another API root, e.g. the local stub.
func WithBaseURL(baseURL string) Option {
	return func(p *OpenWeatherProvider) {
		if baseURL != "" {
			p.baseURL = strings.TrimSuffix(baseURL, "/")
		}
	}
}

// WithUnits selects metric or imperial values.
func WithUnits(units weather.Units) Option {
	return func(p *OpenWeatherProvider) {
		if units != "" {
			p.units = units
		}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(p *OpenWeatherProvider) {
		if logger != nil {
			p.logger = logger
		}
	}
}

func NewOpenWeatherProvider(client *http.Client, apiKey string, opts ...Option) *OpenWeatherProvider {
	p := &OpenWeatherProvider{
		name:    "openweathermap",
		apiKey:  apiKey,
		baseURL: DefaultOpenWeatherURL,
		units:   weather.UnitsMetric,
		client:  client,
		circuit: newCircuitBreaker("openweather"),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

type owmSky struct {
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type currentPayload struct {
	Name       string `json:"name"`
	Dt         int64  `json:"dt"`
	Visibility int    `json:"visibility"`
	Main       struct {
		Temp     float64 `json:"temp"`
		TempMin  float64 `json:"temp_min"`
		TempMax  float64 `json:"temp_max"`
		Humidity float64 `json:"humidity"`
		Pressure float64 `json:"pressure"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Sys struct {
		Country string `json:"country"`
		Sunrise int64  `json:"sunrise"`
		Sunset  int64  `json:"sunset"`
	} `json:"sys"`
	Weather []owmSky `json:"weather"`
}

type forecastPayload struct {
	List []struct {
		Dt   int64 `json:"dt"`
		Main struct {
			TempMin float64 `json:"temp_min"`
			TempMax float64 `json:"temp_max"`
		} `json:"main"`
		Weather []owmSky `json:"weather"`
	} `json:"list"`
}

// FetchCurrent calls /weather for city.
func (p *OpenWeatherProvider) FetchCurrent(ctx context.Context, city weather.CityQuery) (weather.CurrentReading, error) {
	var payload currentPayload
	if err := p.get(ctx, "/weather", city, &payload); err != nil {
		return weather.CurrentReading{}, err
	}

	return weather.CurrentReading{
		City:        payload.Name,
		Country:     payload.Sys.Country,
		ObservedAt:  unixUTC(payload.Dt),
		Temperature: payload.Main.Temp,
		TempMin:     payload.Main.TempMin,
		TempMax:     payload.Main.TempMax,
		Humidity:    payload.Main.Humidity,
		Pressure:    payload.Main.Pressure,
		WindSpeed:   payload.Wind.Speed,
		Visibility:  payload.Visibility,
		Sunrise:     unixUTC(payload.Sys.Sunrise),
		Sunset:      unixUTC(payload.Sys.Sunset),
		Sky:         mapSky(payload.Weather),
	}, nil
}

// FetchForecast calls /forecast for city. A body without a list yields no samples.
func (p *OpenWeatherProvider) FetchForecast(ctx context.Context, city weather.CityQuery) ([]weather.ForecastSample, error) {
	var payload forecastPayload
	if err := p.get(ctx, "/forecast", city, &payload); err != nil {
		return nil, err
	}

	samples := make([]weather.ForecastSample, 0, len(payload.List))
	for _, item := range payload.List {
		samples = append(samples, weather.ForecastSample{
			Timestamp: unixUTC(item.Dt),
			TempMin:   item.Main.TempMin,
			TempMax:   item.Main.TempMax,
			Sky:       mapSky(item.Weather),
		})
	}
	return samples, nil
}

func (p *OpenWeatherProvider) get(ctx context.Context, path string, city weather.CityQuery, out any) error {
	if p.apiKey == "" {
		return weather.NewError(weather.KindUnauthorized, fmt.Errorf("openweather: %w", errMissingKey))
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("q", city.String())
		values.Set("appid", p.apiKey)
		values.Set("units", string(p.units))

		u := fmt.Sprintf("%s%s?%s", p.baseURL, path, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	start := time.Now()
	resp, err := doRequest(ctx, p.client, p.circuit, buildRequest)
	if err != nil {
		p.logger.Debug("provider request failed",
			"provider", p.Name(), "path", path, "city", city.String(), "kind", weather.KindOf(err), "elapsed", time.Since(start))
		return err
	}
	defer resp.Body.Close()

	p.logger.Debug("provider request completed",
		"provider", p.Name(), "path", path, "city", city.String(), "status", resp.StatusCode, "elapsed", time.Since(start))
	return decodeJSON(resp.Body, out)
}

func mapSky(items []owmSky) weather.Sky {
	if len(items) == 0 {
		return weather.Sky{Condition: weather.ConditionUnknown}
	}
	return weather.Sky{
		Condition:   weather.ParseCondition(items[0].Main),
		Description: items[0].Description,
		Icon:        items[0].Icon,
	}
}

func unixUTC(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}
