// Package geo models the one-shot geolocation capability the dashboard
// consumes: browser-reported positions and a server-side home address.
package geo

import (
	"context"
	"errors"
	"fmt"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

// Reason classifies why a position could not be obtained.
type Reason string

const (
	ReasonDenied      Reason = "denied"
	ReasonUnavailable Reason = "unavailable"
	ReasonTimeout     Reason = "timeout"
	ReasonFailed      Reason = "failed"
)

// ParseReason maps a browser-reported reason; unknown values become ReasonFailed.
func ParseReason(s string) Reason {
	switch Reason(s) {
	case ReasonDenied, ReasonUnavailable, ReasonTimeout:
		return Reason(s)
	default:
		return ReasonFailed
	}
}

// ErrUnavailable is wrapped by errors from a missing capability.
var ErrUnavailable = errors.New("geolocation unavailable")

// GeolocationError reports a failed position request.
type GeolocationError struct {
	Reason Reason
	Err    error
}

func (e *GeolocationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("geolocation %s: %v", e.Reason, e.Err)
	}
	return "geolocation " + string(e.Reason)
}

func (e *GeolocationError) Unwrap() error {
	return e.Err
}

// Locator obtains the current position once per call. There is no retry.
type Locator interface {
	Locate(ctx context.Context) (weather.Coordinates, error)
}

// Fixed is a position already obtained elsewhere, typically reported by the
// browser's geolocation API.
type Fixed weather.Coordinates

// Locate returns the fixed position.
func (f Fixed) Locate(ctx context.Context) (weather.Coordinates, error) {
	if err := ctx.Err(); err != nil {
		return weather.Coordinates{}, &GeolocationError{Reason: ReasonTimeout, Err: err}
	}
	return weather.Coordinates(f), nil
}

// Failed is a capability that has already failed with the given reason.
type Failed struct {
	Reason Reason
}

// Locate always fails.
func (f Failed) Locate(context.Context) (weather.Coordinates, error) {
	err := &GeolocationError{Reason: f.Reason}
	if f.Reason == ReasonUnavailable {
		err.Err = ErrUnavailable
	}
	return weather.Coordinates{}, err
}

// Unavailable is the absent capability.
var Unavailable Locator = Failed{Reason: ReasonUnavailable}
