// Package dashboard holds the root coordinator: the selected location, the
// unit preference and the fetched weather for one viewer.
package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/i474232898/weather-dashboard/internal/geo"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

// DefaultCity is used when geolocation fails and nothing else is configured.
const DefaultCity = "New York"

// Phase is the view-level state.
type Phase string

const (
	PhaseResolving Phase = "resolving-location"
	PhaseLoading   Phase = "loading"
	PhaseReady     Phase = "ready"
	PhaseError     Phase = "error"
)

// ErrSuperseded is returned by Refresh when a newer request replaced it
// before it completed; its results were discarded.
var ErrSuperseded = errors.New("refresh superseded by a newer request")

// State is an immutable snapshot handed to renderers.
type State struct {
	Phase    Phase
	Target   weather.Target
	Units    weather.Units
	Current  *weather.CurrentWeather
	Forecast *weather.Forecast
	Err      error
}

// Coordinator owns one viewer's dashboard state.
type Coordinator struct {
	source      weather.Source
	defaultCity string
	logger      *slog.Logger

	mu       sync.Mutex
	phase    Phase
	mounted  bool
	target   weather.Target
	units    weather.Units
	current  *weather.CurrentWeather
	forecast *weather.Forecast
	err      error
	seq      uint64
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithDefaultCity overrides the geolocation fallback.
func WithDefaultCity(city string) Option {
	return func(c *Coordinator) {
		if city != "" {
			c.defaultCity = city
		}
	}
}

// WithUnits sets the initial unit system.
func WithUnits(u weather.Units) Option {
	return func(c *Coordinator) { c.units = u }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) { c.logger = l }
}

// New creates a coordinator in the resolving phase.
func New(source weather.Source, opts ...Option) *Coordinator {
	c := &Coordinator{
		source:      source,
		defaultCity: DefaultCity,
		logger:      slog.Default(),
		phase:       PhaseResolving,
		units:       weather.UnitsMetric,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Mounted reports whether Mount has resolved a location.
func (c *Coordinator) Mounted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mounted
}

// Mount resolves the initial location once and fetches. A failing locator
// falls back to the default city. Later calls are no-ops. If a location is
// selected or the coordinator is reset while the locator runs, the located
// position is dropped and ErrSuperseded is returned.
func (c *Coordinator) Mount(ctx context.Context, locator geo.Locator) error {
	c.mu.Lock()
	if c.mounted {
		c.mu.Unlock()
		return nil
	}
	c.mounted = true
	gen := c.seq
	c.mu.Unlock()

	if locator == nil {
		locator = geo.Unavailable
	}

	target := weather.CityTarget(c.defaultCity)
	coords, err := locator.Locate(ctx)
	if err != nil {
		c.logger.WarnContext(ctx, "geolocation failed; using default location",
			slog.String("city", c.defaultCity), slog.Any("error", err))
	} else {
		target = weather.CoordinatesTarget(coords)
	}

	c.mu.Lock()
	// A selection or reset made while locating wins.
	if !c.target.IsZero() || !c.mounted || c.seq != gen {
		c.mu.Unlock()
		return ErrSuperseded
	}
	c.target = target
	c.mu.Unlock()

	return c.Refresh(ctx)
}

// SelectLocation makes loc the active target and fetches. Coordinates win
// over the name; the unused field is cleared. A location with neither is
// ignored.
func (c *Coordinator) SelectLocation(ctx context.Context, loc weather.Location) error {
	target, ok := weather.TargetFor(loc)
	if !ok {
		c.logger.WarnContext(ctx, "ignoring location without coordinates or name")
		return nil
	}

	c.mu.Lock()
	c.target = target
	c.mounted = true
	c.mu.Unlock()

	return c.Refresh(ctx)
}

// ToggleUnits flips metric and imperial and re-fetches, since the service
// supplies the unit-dependent fields.
func (c *Coordinator) ToggleUnits(ctx context.Context) error {
	c.mu.Lock()
	c.units = c.units.Toggle()
	c.mu.Unlock()

	return c.Refresh(ctx)
}

// Refresh fetches current weather and forecast concurrently for the active
// query. The view becomes ready only if both succeed; any failure drops both
// results. Responses for a superseded query are discarded.
func (c *Coordinator) Refresh(ctx context.Context) error {
	c.mu.Lock()
	if c.target.IsZero() {
		c.mu.Unlock()
		return nil
	}
	c.seq++
	seq := c.seq
	q := weather.Query{Target: c.target, Units: c.units}
	c.phase = PhaseLoading
	c.mu.Unlock()

	l := c.logger.With(slog.String("query", q.Key()))

	var (
		current  weather.CurrentWeather
		forecast weather.Forecast
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		current, err = c.source.FetchCurrentWeather(gctx, q)
		return err
	})
	g.Go(func() error {
		var err error
		forecast, err = c.source.FetchForecast(gctx, q)
		return err
	})
	err := g.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()

	if seq != c.seq || q.Key() != (weather.Query{Target: c.target, Units: c.units}).Key() {
		l.DebugContext(ctx, "discarding stale weather response")
		return ErrSuperseded
	}

	if err != nil {
		l.ErrorContext(ctx, "failed to load weather data", slog.Any("error", err))
		c.phase = PhaseError
		c.current = nil
		c.forecast = nil
		c.err = err
		return err
	}

	c.phase = PhaseReady
	c.current = &current
	c.forecast = &forecast
	c.err = nil
	return nil
}

// Reset returns to the resolving phase so the next Mount starts over, like a
// full page reload.
func (c *Coordinator) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	c.phase = PhaseResolving
	c.mounted = false
	c.target = weather.Target{}
	c.current = nil
	c.forecast = nil
	c.err = nil
}

// Snapshot returns the current state. Fetched values are never mutated after
// being stored, so sharing the pointers is safe.
func (c *Coordinator) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		Phase:    c.phase,
		Target:   c.target,
		Units:    c.units,
		Current:  c.current,
		Forecast: c.forecast,
		Err:      c.err,
	}
}
