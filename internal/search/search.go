// Package search implements the location search input: length-gated remote
// lookups, a result dropdown and location-select events.
package search

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/time/rate"

	"github.com/i474232898/weather-dashboard/internal/geo"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

// MinQueryLength is the shortest query that triggers a remote search.
const MinQueryLength = 3

// State is the search input's lifecycle state.
type State string

const (
	StateIdle      State = "idle"
	StateQuerying  State = "querying"
	StateResults   State = "results"
	StateNoResults State = "no-results"
	StateFailed    State = "failed"
)

// SelectFunc receives location-select events.
type SelectFunc func(ctx context.Context, loc weather.Location)

// Snapshot is an immutable view of the input.
type Snapshot struct {
	Query        string             `json:"query"`
	State        State              `json:"state"`
	Results      []weather.Location `json:"results"`
	DropdownOpen bool               `json:"dropdownOpen"`
}

// Box is one search input. It is safe for concurrent use; the lock is never
// held across the remote call.
type Box struct {
	source   weather.LocationSearcher
	limiter  *rate.Limiter
	onSelect SelectFunc
	logger   *slog.Logger

	mu      sync.Mutex
	query   string
	state   State
	results []weather.Location
	open    bool
	seq     uint64
}

// Option configures a Box.
type Option func(*Box)

// WithLimiter paces outbound searches. Calls wait for a token; none are dropped.
func WithLimiter(l *rate.Limiter) Option {
	return func(b *Box) { b.limiter = l }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Box) { b.logger = l }
}

// New creates an idle Box.
func New(source weather.LocationSearcher, onSelect SelectFunc, opts ...Option) *Box {
	b := &Box{
		source:   source,
		onSelect: onSelect,
		logger:   slog.Default(),
		state:    StateIdle,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Input handles a change of the query text. Surrounding whitespace does not
// count toward the minimum length and is not sent.
func (b *Box) Input(ctx context.Context, value string) Snapshot {
	term := strings.TrimSpace(value)

	b.mu.Lock()
	b.query = value
	b.seq++
	seq := b.seq

	if utf8.RuneCountInString(term) < MinQueryLength {
		b.results = nil
		b.open = false
		b.state = StateIdle
		snap := b.snapshotLocked()
		b.mu.Unlock()
		return snap
	}

	b.state = StateQuerying
	b.open = true
	b.mu.Unlock()

	results, err := b.search(ctx, term)

	b.mu.Lock()
	defer b.mu.Unlock()

	if seq != b.seq {
		// A newer input superseded this one.
		return b.snapshotLocked()
	}

	switch {
	case err != nil:
		b.logger.ErrorContext(ctx, "location search failed",
			slog.String("query", term), slog.Any("error", err))
		b.results = nil
		b.state = StateFailed
	case len(results) == 0:
		b.results = nil
		b.state = StateNoResults
	default:
		b.results = results
		b.state = StateResults
	}
	return b.snapshotLocked()
}

func (b *Box) search(ctx context.Context, value string) ([]weather.Location, error) {
	if b.limiter != nil {
		if err := b.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	return b.source.SearchLocations(ctx, value)
}

// Select emits loc, shows its name in the input and closes the dropdown.
func (b *Box) Select(ctx context.Context, loc weather.Location) Snapshot {
	b.mu.Lock()
	b.seq++
	b.query = loc.Name
	b.open = false
	b.state = StateIdle
	snap := b.snapshotLocked()
	b.mu.Unlock()

	b.emit(ctx, loc)
	return snap
}

// UseCurrentLocation asks locator for a position and emits it. On failure the
// error is logged and the dropdown is left as it was; ok reports success.
func (b *Box) UseCurrentLocation(ctx context.Context, locator geo.Locator) (snap Snapshot, ok bool) {
	coords, err := locator.Locate(ctx)
	if err != nil {
		b.logger.WarnContext(ctx, "current location unavailable", slog.Any("error", err))
		return b.Snapshot(), false
	}

	b.mu.Lock()
	b.seq++
	b.query = ""
	b.open = false
	b.state = StateIdle
	snap = b.snapshotLocked()
	b.mu.Unlock()

	b.emit(ctx, weather.LocationAt(coords))
	return snap, true
}

// ClickOutside closes the dropdown without touching the query.
func (b *Box) ClickOutside() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.open = false
	return b.snapshotLocked()
}

// Focus reopens the dropdown when there are results to show.
func (b *Box) Focus() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.results) > 0 {
		b.open = true
	}
	return b.snapshotLocked()
}

// Clear empties the input.
func (b *Box) Clear() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.seq++
	b.query = ""
	b.results = nil
	b.open = false
	b.state = StateIdle
	return b.snapshotLocked()
}

// Snapshot returns the current state.
func (b *Box) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshotLocked()
}

func (b *Box) snapshotLocked() Snapshot {
	var results []weather.Location
	if len(b.results) > 0 {
		results = make([]weather.Location, len(b.results))
		copy(results, b.results)
	}
	return Snapshot{
		Query:        b.query,
		State:        b.state,
		Results:      results,
		DropdownOpen: b.open,
	}
}

func (b *Box) emit(ctx context.Context, loc weather.Location) {
	if b.onSelect != nil {
		b.onSelect(ctx, loc)
	}
}
