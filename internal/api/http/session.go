package httpapi

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/i474232898/weather-dashboard/internal/dashboard"
	"github.com/i474232898/weather-dashboard/internal/search"
	"github.com/i474232898/weather-dashboard/internal/store"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

// WeatherAPI is the remote service as seen by a session.
type WeatherAPI interface {
	weather.Source
	weather.LocationSearcher
}

// SessionOptions configure new sessions.
type SessionOptions struct {
	DefaultCity  string
	DefaultUnits weather.Units
	// SearchRate and SearchBurst pace each session's outbound searches.
	// A zero rate disables pacing.
	SearchRate  float64
	SearchBurst int
	Logger      *slog.Logger
}

// NewSessionFactory builds sessions whose search box feeds its selections to
// the session's coordinator.
func NewSessionFactory(api WeatherAPI, opts SessionOptions) store.Factory {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return func(id string) *store.Session {
		logger := opts.Logger.With(slog.String("session", id))

		coordOpts := []dashboard.Option{
			dashboard.WithDefaultCity(opts.DefaultCity),
			dashboard.WithLogger(logger),
		}
		if opts.DefaultUnits != "" {
			coordOpts = append(coordOpts, dashboard.WithUnits(opts.DefaultUnits))
		}
		coord := dashboard.New(api, coordOpts...)

		searchOpts := []search.Option{search.WithLogger(logger)}
		if opts.SearchRate > 0 {
			burst := opts.SearchBurst
			if burst <= 0 {
				burst = 1
			}
			searchOpts = append(searchOpts, search.WithLimiter(rate.NewLimiter(rate.Limit(opts.SearchRate), burst)))
		}

		box := search.New(api, func(ctx context.Context, loc weather.Location) {
			if err := coord.SelectLocation(ctx, loc); err != nil && !errors.Is(err, dashboard.ErrSuperseded) {
				logger.Warn("load after selection failed", slog.Any("error", err))
			}
		}, searchOpts...)

		return &store.Session{Dashboard: coord, Search: box}
	}
}
