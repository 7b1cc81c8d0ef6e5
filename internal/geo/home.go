package geo

import (
	"context"
	"fmt"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

// GeocodeFunc resolves an address to a position.
type GeocodeFunc func(address geocoder.Address) (geocoder.Location, error)

// HomeLocator resolves a configured home address through the Google
// Geocoding API. It is the server-side stand-in for browser geolocation.
type HomeLocator struct {
	address geocoder.Address
	geocode GeocodeFunc
}

// NewHomeLocator configures the geocoder with apiKey.
func NewHomeLocator(apiKey, city, country string) *HomeLocator {
	geocoder.ApiKey = apiKey
	return &HomeLocator{
		address: geocoder.Address{City: city, Country: country},
		geocode: geocoder.Geocoding,
	}
}

// WithGeocoder replaces the geocoding call.
func (h *HomeLocator) WithGeocoder(fn GeocodeFunc) *HomeLocator {
	h.geocode = fn
	return h
}

// Locate geocodes the home address. The geocoder has no context support;
// the lookup is abandoned (not cancelled) when ctx ends first.
func (h *HomeLocator) Locate(ctx context.Context) (weather.Coordinates, error) {
	type result struct {
		loc geocoder.Location
		err error
	}

	done := make(chan result, 1)
	go func() {
		loc, err := h.geocode(h.address)
		done <- result{loc: loc, err: err}
	}()

	select {
	case <-ctx.Done():
		return weather.Coordinates{}, &GeolocationError{Reason: ReasonTimeout, Err: ctx.Err()}
	case r := <-done:
		if r.err != nil {
			return weather.Coordinates{}, &GeolocationError{
				Reason: ReasonFailed,
				Err:    fmt.Errorf("geocode %s, %s: %w", h.address.City, h.address.Country, r.err),
			}
		}
		return weather.Coordinates{Lat: r.loc.Latitude, Lon: r.loc.Longitude}, nil
	}
}
