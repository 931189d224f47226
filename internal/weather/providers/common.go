package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-search/internal/weather"
)

// maxErrorBody bounds how much of an error response is read for its message.
const maxErrorBody = 4 << 10

var (
	errNoHTTPClient = errors.New("http client not configured")
	errMissingKey   = errors.New("api key is not configured")
)

// upstreamError marks responses the circuit breaker should count as failures.
type upstreamError struct {
	status int
	detail string
}

func (e *upstreamError) Error() string {
	return fmt.Sprintf("upstream returned %d", e.status)
}

func newCircuitBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    1 * time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	})
}

// doRequest executes one HTTP request through the circuit breaker and returns
// a 2xx response or a *weather.Error. It never retries; the query cache owns
// the retry policy. The caller must close the returned body.
func doRequest(
	ctx context.Context,
	client *http.Client,
	cb *gobreaker.CircuitBreaker,
	buildRequest func() (*http.Request, error),
) (*http.Response, error) {
	if client == nil {
		return nil, weather.NewError(weather.KindUnknown, errNoHTTPClient)
	}

	req, err := buildRequest()
	if err != nil {
		return nil, weather.NewError(weather.KindUnknown, err)
	}
	req = req.WithContext(ctx)

	result, err := cb.Execute(func() (interface{}, error) {
		resp, execErr := client.Do(req)
		if execErr != nil {
			return nil, execErr
		}

		// Rate limiting and server errors count against the breaker; other
		// client errors are definitive answers from a healthy upstream.
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			detail := readErrorDetail(resp.Body)
			resp.Body.Close()
			return nil, &upstreamError{status: resp.StatusCode, detail: detail}
		}
		return resp, nil
	})
	if err != nil {
		return nil, classify(err)
	}

	resp, ok := result.(*http.Response)
	if !ok {
		return nil, weather.NewError(weather.KindUnknown, fmt.Errorf("unexpected result type from circuit breaker"))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := readErrorDetail(resp.Body)
		resp.Body.Close()
		return nil, weather.StatusError(resp.StatusCode, detail)
	}
	return resp, nil
}

// classify maps a failed round trip onto the error taxonomy. Anything that
// did not produce a response counts as the network being unavailable.
func classify(err error) *weather.Error {
	var upstream *upstreamError
	if errors.As(err, &upstream) {
		return weather.StatusError(upstream.status, upstream.detail)
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return weather.NewError(weather.KindNetworkUnavailable, fmt.Errorf("circuit breaker open: %w", err))
	}
	return weather.NewError(weather.KindNetworkUnavailable, err)
}

// readErrorDetail extracts the "message" field of a provider error body.
func readErrorDetail(body io.Reader) string {
	var payload struct {
		Message string `json:"message"`
	}
	data, err := io.ReadAll(io.LimitReader(body, maxErrorBody))
	if err != nil || len(data) == 0 {
		return ""
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return ""
	}
	return payload.Message
}

// decodeJSON decodes a successful response body into v.
func decodeJSON(body io.Reader, v any) error {
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return weather.NewError(weather.KindUnknown, fmt.Errorf("decode response: %w", err))
	}
	return nil
}
