package weather

import (
	"fmt"
	"strconv"
)

// Units is the display convention requested from the weather service.
type Units string

const (
	UnitsMetric   Units = "metric"
	UnitsImperial Units = "imperial"
)

// ParseUnits validates a units string. Empty input means metric.
func ParseUnits(s string) (Units, error) {
	switch Units(s) {
	case "", UnitsMetric:
		return UnitsMetric, nil
	case UnitsImperial:
		return UnitsImperial, nil
	default:
		return "", fmt.Errorf("unknown units %q", s)
	}
}

// Toggle flips metric and imperial.
func (u Units) Toggle() Units {
	if u == UnitsImperial {
		return UnitsMetric
	}
	return UnitsImperial
}

// Coordinates is a geographic position in decimal degrees.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Location is a place returned by the location search endpoint.
// Lat/Lon are optional and only meaningful when both are set.
type Location struct {
	Name    string   `json:"name"`
	Country string   `json:"country"`
	State   string   `json:"state,omitempty"`
	Lat     *float64 `json:"lat,omitempty"`
	Lon     *float64 `json:"lon,omitempty"`
}

// Coordinates returns the location's position if both components are present.
func (l Location) Coordinates() (Coordinates, bool) {
	if l.Lat == nil || l.Lon == nil {
		return Coordinates{}, false
	}
	return Coordinates{Lat: *l.Lat, Lon: *l.Lon}, true
}

// LocationAt builds a Location carrying only coordinates.
func LocationAt(c Coordinates) Location {
	lat, lon := c.Lat, c.Lon
	return Location{Lat: &lat, Lon: &lon}
}

// Target is the active location descriptor used for fetching.
// Exactly one of Coords and City is authoritative.
type Target struct {
	Coords *Coordinates `json:"coords,omitempty"`
	City   string       `json:"city,omitempty"`
}

// CoordinatesTarget targets a geographic position.
func CoordinatesTarget(c Coordinates) Target {
	return Target{Coords: &c}
}

// CityTarget targets a free-text place name.
func CityTarget(name string) Target {
	return Target{City: name}
}

// TargetFor applies the selection rule: coordinates win when both lat and lon
// are present, otherwise the name is used. ok is false when neither is usable.
func TargetFor(loc Location) (t Target, ok bool) {
	if c, has := loc.Coordinates(); has {
		return CoordinatesTarget(c), true
	}
	if loc.Name != "" {
		return CityTarget(loc.Name), true
	}
	return Target{}, false
}

// IsZero reports whether the target has not been resolved yet.
func (t Target) IsZero() bool {
	return t.Coords == nil && t.City == ""
}

// Key returns a canonical string for the target.
func (t Target) Key() string {
	if t.Coords != nil {
		return "coords:" + strconv.FormatFloat(t.Coords.Lat, 'f', -1, 64) +
			"," + strconv.FormatFloat(t.Coords.Lon, 'f', -1, 64)
	}
	return "city:" + t.City
}

// Query is a fully specified fetch request.
type Query struct {
	Target Target
	Units  Units
}

// Key identifies the request; responses for a stale key are discarded.
func (q Query) Key() string {
	return q.Target.Key() + "|" + string(q.Units)
}

// ConditionInfo is the primary condition descriptor reported by the service.
type ConditionInfo struct {
	Main        string `json:"main"`
	Description string `json:"description"`
}

// CurrentWeather mirrors the remote service's current-conditions payload.
// Temperatures are in Celsius, sun times are unix seconds.
type CurrentWeather struct {
	Name string `json:"name"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  float64 `json:"humidity"`
		Pressure  float64 `json:"pressure"`
	} `json:"main"`
	Weather []ConditionInfo `json:"weather"`
	Wind    struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Visibility float64 `json:"visibility"`
	Clouds     struct {
		All float64 `json:"all"`
	} `json:"clouds"`
	Sys struct {
		Country string `json:"country"`
		Sunrise int64  `json:"sunrise"`
		Sunset  int64  `json:"sunset"`
	} `json:"sys"`
	// Timezone is the place's offset from UTC in seconds.
	Timezone int `json:"timezone"`
}

// Primary returns the first condition entry, if any.
func (w CurrentWeather) Primary() (ConditionInfo, bool) {
	if len(w.Weather) == 0 {
		return ConditionInfo{}, false
	}
	return w.Weather[0], true
}

// ForecastDay is one aggregated forecast day.
type ForecastDay struct {
	Date  string `json:"date"`
	Day   string `json:"day"`
	Temps struct {
		Min float64 `json:"min"`
		Max float64 `json:"max"`
	} `json:"temps"`
	Weather ConditionInfo `json:"weather"`
}

// Forecast is the ordered (chronological) list of forecast days.
type Forecast struct {
	DailyForecasts []ForecastDay `json:"dailyForecasts"`
}
