package presentation

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

const metersPerMile = 1609

// RoundHalfUp rounds to the nearest integer with halves going up (-2.5 -> -2).
func RoundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}

// CelsiusToFahrenheit converts a Celsius temperature.
func CelsiusToFahrenheit(c float64) float64 {
	return c*9/5 + 32
}

// TemperatureValue returns the rounded display value for a Celsius reading.
func TemperatureValue(celsius float64, units weather.Units) int {
	if units == weather.UnitsImperial {
		return RoundHalfUp(CelsiusToFahrenheit(celsius))
	}
	return RoundHalfUp(celsius)
}

// UnitSymbol is "C" or "F".
func UnitSymbol(units weather.Units) string {
	if units == weather.UnitsImperial {
		return "F"
	}
	return "C"
}

// FormatTemperature renders a Celsius reading as "<n>°C" or "<n>°F".
func FormatTemperature(celsius float64, units weather.Units) string {
	return fmt.Sprintf("%d°%s", TemperatureValue(celsius, units), UnitSymbol(units))
}

// FormatWindSpeed renders the service's wind speed with the unit label the
// service uses for the requested units.
func FormatWindSpeed(speed float64, units weather.Units) string {
	label := "m/s"
	if units == weather.UnitsImperial {
		label = "mph"
	}
	return fmt.Sprintf("%s %s", trimFloat(speed), label)
}

// FormatVisibility renders visibility given in meters.
func FormatVisibility(meters float64, units weather.Units) string {
	if units == weather.UnitsImperial {
		return fmt.Sprintf("%.1f mi", meters/metersPerMile)
	}
	return fmt.Sprintf("%.1f km", meters/1000)
}

// FormatPercent renders a 0-100 value.
func FormatPercent(v float64) string {
	return trimFloat(v) + "%"
}

// FormatPressure renders hectopascals.
func FormatPressure(hpa float64) string {
	return trimFloat(hpa) + " hPa"
}

// FormatClock renders a unix timestamp as "03:04 PM" in the place's UTC
// offset (seconds).
func FormatClock(unix int64, offsetSeconds int) string {
	return time.Unix(unix, 0).In(zoneFor(offsetSeconds)).Format("03:04 PM")
}

// FormatLongDate renders "Monday, January 2, 2006".
func FormatLongDate(t time.Time, offsetSeconds int) string {
	return t.In(zoneFor(offsetSeconds)).Format("Monday, January 2, 2006")
}

func zoneFor(offsetSeconds int) *time.Location {
	if offsetSeconds == 0 {
		return time.UTC
	}
	return time.FixedZone("", offsetSeconds)
}

func trimFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
