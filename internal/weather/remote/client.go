// Package remote is the HTTP client for the weather service backing the
// dashboard: current conditions, daily forecast and location search.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

const tracerName = "WeatherClient"

var (
	// ErrEmptyQuery is returned by SearchLocations for blank input; nothing is sent.
	ErrEmptyQuery = errors.New("search query is empty")
	// ErrNoTarget is returned when a query carries neither coordinates nor a city.
	ErrNoTarget = errors.New("query has no location target")
)

// NetworkError reports a failed call to the weather service: transport
// failure, non-2xx status, open circuit or an undecodable body.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("weather service %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Endpoints are the service paths, relative to the base URL.
type Endpoints struct {
	Weather   string
	Forecast  string
	Locations string
}

// Config configures a Client.
type Config struct {
	BaseURL   string
	Endpoints Endpoints
	Backoff   BackoffConfig

	BreakerMaxRequests uint32
	BreakerInterval    time.Duration
	BreakerTimeout     time.Duration
}

// Client talks to the weather service. Every call issues exactly one
// request unless retries are configured.
type Client struct {
	baseURL   string
	endpoints Endpoints
	httpCfg   HTTPClientConfig
	circuit   *gobreaker.CircuitBreaker
	logger    *slog.Logger
}

// New creates a Client.
func New(client *http.Client, cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "weather-service",
		MaxRequests: cfg.BreakerMaxRequests,
		Interval:    cfg.BreakerInterval,
		Timeout:     cfg.BreakerTimeout,
	})

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		endpoints: Endpoints{
			Weather:   normalizePath(cfg.Endpoints.Weather),
			Forecast:  normalizePath(cfg.Endpoints.Forecast),
			Locations: normalizePath(cfg.Endpoints.Locations),
		},
		httpCfg: HTTPClientConfig{
			Client:  client,
			Backoff: cfg.Backoff,
		},
		circuit: cb,
		logger:  logger.With(slog.String("component", "weather-client")),
	}
}

// FetchCurrentWeather returns current conditions for the query's target.
func (c *Client) FetchCurrentWeather(ctx context.Context, q weather.Query) (weather.CurrentWeather, error) {
	values, err := targetValues(q)
	if err != nil {
		return weather.CurrentWeather{}, err
	}

	var out weather.CurrentWeather
	if err := c.get(ctx, "FetchCurrentWeather", c.endpoints.Weather, values, &out); err != nil {
		return weather.CurrentWeather{}, err
	}
	return out, nil
}

// FetchForecast returns the daily forecast exactly as the service reports it.
func (c *Client) FetchForecast(ctx context.Context, q weather.Query) (weather.Forecast, error) {
	values, err := targetValues(q)
	if err != nil {
		return weather.Forecast{}, err
	}

	var out weather.Forecast
	if err := c.get(ctx, "FetchForecast", c.endpoints.Forecast, values, &out); err != nil {
		return weather.Forecast{}, err
	}
	return out, nil
}

// SearchLocations returns places matching a partial name.
func (c *Client) SearchLocations(ctx context.Context, query string) ([]weather.Location, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	values := url.Values{}
	values.Set("query", query)

	var out []weather.Location
	if err := c.get(ctx, "SearchLocations", c.endpoints.Locations, values, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, op, path string, values url.Values, out any) (err error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, op, trace.WithAttributes(
		attribute.String("http.path", path),
	))
	defer span.End()

	start := time.Now()
	defer func() { observeRequest(op, start, err) }()

	l := c.logger.With(slog.String("method", op))

	buildRequest := func(ctx context.Context) (*http.Request, error) {
		u := fmt.Sprintf("%s%s?%s", c.baseURL, path, values.Encode())
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, c.httpCfg, c.circuit, buildRequest)
	if err != nil {
		l.ErrorContext(ctx, "weather service request failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		l.ErrorContext(ctx, "failed to decode weather service response", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "decode failed")
		return &NetworkError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// targetValues builds the query string: units plus either lat/lon or city.
func targetValues(q weather.Query) (url.Values, error) {
	values := url.Values{}

	units := q.Units
	if units == "" {
		units = weather.UnitsMetric
	}
	values.Set("units", string(units))

	switch {
	case q.Target.Coords != nil:
		values.Set("lat", strconv.FormatFloat(q.Target.Coords.Lat, 'f', -1, 64))
		values.Set("lon", strconv.FormatFloat(q.Target.Coords.Lon, 'f', -1, 64))
	case q.Target.City != "":
		values.Set("city", q.Target.City)
	default:
		return nil, ErrNoTarget
	}
	return values, nil
}

func normalizePath(p string) string {
	if p == "" || strings.HasPrefix(p, "/") {
		return p
	}
	return "/" + p
}
