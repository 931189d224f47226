package providers

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-search/internal/stubapi"
	"github.com/i474232898/weather-search/internal/weather"
)

var _ weather.Source = (*OpenWeatherProvider)(nil)

const currentJSON = `{
  "weather": [{"id": 500, "main": "Rain", "description": "light rain", "icon": "10d"}],
  "main": {"temp": 12.4, "temp_min": 10.1, "temp_max": 14.9, "humidity": 81, "pressure": 1012},
  "visibility": 9000,
  "wind": {"speed": 4.6},
  "dt": 1710064800,
  "sys": {"country": "FR", "sunrise": 1710050400, "sunset": 1710092400},
  "name": "Paris",
  "cod": 200
}`

const forecastJSON = `{
  "cod": "200",
  "list": [
    {"dt": 1710072000, "main": {"temp_min": 9, "temp_max": 11}, "weather": [{"main": "Clouds", "icon": "03d"}]},
    {"dt": 1710082800, "main": {"temp_min": 7, "temp_max": 13}, "weather": [{"main": "Sand", "icon": "50d"}]},
    {"dt": 1710093600, "main": {"temp_min": 6, "temp_max": 8}, "weather": []}
  ]
}`

func newProvider(t *testing.T, handler http.HandlerFunc) (*OpenWeatherProvider, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return NewOpenWeatherProvider(srv.Client(), "test-key", WithBaseURL(srv.URL)), &calls
}

func TestFetchCurrentDecodesPayload(t *testing.T) {
	p, _ := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/weather", r.URL.Path)
		assert.Equal(t, "Paris", r.URL.Query().Get("q"))
		assert.Equal(t, "test-key", r.URL.Query().Get("appid"))
		assert.Equal(t, "metric", r.URL.Query().Get("units"))
		w.Write([]byte(currentJSON))
	})

	got, err := p.FetchCurrent(context.Background(), weather.ParseCityQuery("  Paris "))
	require.NoError(t, err)

	assert.Equal(t, "Paris", got.City)
	assert.Equal(t, "FR", got.Country)
	assert.Equal(t, time.Unix(1710064800, 0).UTC(), got.ObservedAt)
	assert.InDelta(t, 12.4, got.Temperature, 1e-9)
	assert.InDelta(t, 10.1, got.TempMin, 1e-9)
	assert.InDelta(t, 14.9, got.TempMax, 1e-9)
	assert.InDelta(t, 81, got.Humidity, 1e-9)
	assert.InDelta(t, 1012, got.Pressure, 1e-9)
	assert.InDelta(t, 4.6, got.WindSpeed, 1e-9)
	assert.Equal(t, 9000, got.Visibility)
	assert.Equal(t, time.Unix(1710050400, 0).UTC(), got.Sunrise)
	assert.Equal(t, time.Unix(1710092400, 0).UTC(), got.Sunset)
	assert.Equal(t, weather.Sky{Condition: weather.ConditionRain, Description: "light rain", Icon: "10d"}, got.Sky)
}

func TestFetchForecastDecodesSamples(t *testing.T) {
	p, _ := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/forecast", r.URL.Path)
		w.Write([]byte(forecastJSON))
	})

	got, err := p.FetchForecast(context.Background(), "Paris")
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, time.Unix(1710072000, 0).UTC(), got[0].Timestamp)
	assert.Equal(t, weather.ConditionClouds, got[0].Sky.Condition)
	assert.Equal(t, weather.ConditionUnknown, got[1].Sky.Condition, "unlisted groups map to Unknown")
	assert.Equal(t, "50d", got[1].Sky.Icon)
	assert.Equal(t, weather.ConditionUnknown, got[2].Sky.Condition, "missing weather entry maps to Unknown")
}

func TestFetchForecastWithoutList(t *testing.T) {
	p, _ := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"cod":"200","message":0}`))
	})

	got, err := p.FetchForecast(context.Background(), "Paris")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Empty(t, weather.Summarize(got))
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		kind    weather.ErrorKind
		message string
	}{
		{
			name:    "not found",
			status:  http.StatusNotFound,
			body:    `{"cod":"404","message":"city not found"}`,
			kind:    weather.KindNotFound,
			message: "City not found. Please check the spelling and try again.",
		},
		{
			name:    "unauthorized",
			status:  http.StatusUnauthorized,
			body:    `{"cod":401,"message":"Invalid API key."}`,
			kind:    weather.KindUnauthorized,
			message: "API key invalid or not activated yet. New API keys may take 2 hours to activate.",
		},
		{
			name:    "rate limited",
			status:  http.StatusTooManyRequests,
			body:    `{"cod":429}`,
			kind:    weather.KindRateLimited,
			message: "Too many requests. Please wait a moment and try again.",
		},
		{
			name:    "server error",
			status:  http.StatusBadGateway,
			body:    `upstream down`,
			kind:    weather.KindUnknown,
			message: weather.GenericMessage,
		},
		{
			name:    "bad request",
			status:  http.StatusBadRequest,
			body:    `{"cod":"400","message":"Nothing to geocode"}`,
			kind:    weather.KindUnknown,
			message: weather.GenericMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _ := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := p.FetchCurrent(context.Background(), "Paris")
			require.Error(t, err)

			var we *weather.Error
			require.ErrorAs(t, err, &we)
			assert.Equal(t, tt.kind, we.Kind)
			assert.Equal(t, tt.status, we.Status)
			assert.Equal(t, tt.message, weather.MessageFor(err))
		})
	}
}

func TestUndecodableBodyIsUnknown(t *testing.T) {
	p, _ := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>maintenance</html>`))
	})

	_, err := p.FetchCurrent(context.Background(), "Paris")
	assert.ErrorIs(t, err, weather.ErrUnknown)
}

func TestNoResponseIsNetworkUnavailable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	p := NewOpenWeatherProvider(&http.Client{Timeout: time.Second}, "k", WithBaseURL("http://"+addr))
	_, err = p.FetchForecast(context.Background(), "Paris")
	assert.ErrorIs(t, err, weather.ErrNetworkUnavailable)
	assert.Zero(t, weather.Normalize(err).Status)
}

func TestMissingKeyIsUnauthorizedWithoutRequest(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	p := NewOpenWeatherProvider(srv.Client(), "", WithBaseURL(srv.URL))
	_, err := p.FetchCurrent(context.Background(), "Paris")
	assert.ErrorIs(t, err, weather.ErrUnauthorized)
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestCircuitBreakerOpensAfterRepeatedFailures(t *testing.T) {
	p, calls := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	for i := 0; i < 6; i++ {
		_, err := p.FetchCurrent(context.Background(), "Paris")
		require.ErrorIs(t, err, weather.ErrUnknown)
	}

	_, err := p.FetchCurrent(context.Background(), "Paris")
	assert.ErrorIs(t, err, weather.ErrNetworkUnavailable)
	assert.Equal(t, int32(6), atomic.LoadInt32(calls), "open breaker must not reach the upstream")
}

func TestNotFoundDoesNotTripBreaker(t *testing.T) {
	p, calls := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for i := 0; i < 10; i++ {
		_, err := p.FetchCurrent(context.Background(), "Nowhere")
		require.ErrorIs(t, err, weather.ErrNotFound)
	}
	assert.Equal(t, int32(10), atomic.LoadInt32(calls))
}

func TestAgainstStub(t *testing.T) {
	stub := stubapi.New(stubapi.Options{
		APIKey: "stub-key",
		Cities: map[string]string{"Tokyo": "JP"},
	})
	app := stub.App()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })

	base := "http://" + ln.Addr().String() + "/data/2.5"
	client := &http.Client{Timeout: 5 * time.Second}

	p := NewOpenWeatherProvider(client, "stub-key", WithBaseURL(base), WithUnits(weather.UnitsImperial))

	current, err := p.FetchCurrent(context.Background(), "tokyo")
	require.NoError(t, err)
	assert.Equal(t, "Tokyo", current.City)
	assert.Equal(t, "JP", current.Country)
	assert.NotEqual(t, weather.ConditionUnknown, current.Sky.Condition)

	samples, err := p.FetchForecast(context.Background(), "Tokyo")
	require.NoError(t, err)
	require.Len(t, samples, 40)
	days := weather.Summarize(samples)
	assert.LessOrEqual(t, len(days), weather.MaxForecastDays)
	assert.NotEmpty(t, days)

	_, err = p.FetchCurrent(context.Background(), "Atlantis")
	assert.ErrorIs(t, err, weather.ErrNotFound)

	bad := NewOpenWeatherProvider(client, "wrong", WithBaseURL(base))
	_, err = bad.FetchForecast(context.Background(), "Tokyo")
	assert.ErrorIs(t, err, weather.ErrUnauthorized)

	assert.Equal(t, 2, stub.Hits("/weather"))
	assert.Equal(t, 2, stub.Hits("/forecast"))
}
