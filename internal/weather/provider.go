package weather

import (
	"context"
)

// Source abstracts the remote weather service's read operations used by the
// dashboard.
type Source interface {
	FetchCurrentWeather(ctx context.Context, q Query) (CurrentWeather, error)
	FetchForecast(ctx context.Context, q Query) (Forecast, error)
}

// LocationSearcher abstracts the remote location search.
type LocationSearcher interface {
	SearchLocations(ctx context.Context, query string) ([]Location, error)
}
