package presentation

import (
	"time"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

// Background is a CSS gradient descriptor.
type Background struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// CSS renders the descriptor as a CSS background value.
func (b Background) CSS() string {
	return "linear-gradient(to bottom right, " + b.From + ", " + b.To + ")"
}

type gradientPair struct {
	day   Background
	night Background
}

var defaultGradients = gradientPair{
	day:   Background{From: "#2196f3", To: "#03a9f4"},
	night: Background{From: "#1a237e", To: "#000000"},
}

// Rain and drizzle share a pair.
var rainGradients = gradientPair{
	day:   Background{From: "#546e7a", To: "#37474f"},
	night: Background{From: "#1a237e", To: "#01579b"},
}

var conditionGradients = map[weather.Condition]gradientPair{
	weather.ConditionClear: defaultGradients,
	weather.ConditionClouds: {
		day:   Background{From: "#78909c", To: "#607d8b"},
		night: Background{From: "#37474f", To: "#263238"},
	},
	weather.ConditionRain:    rainGradients,
	weather.ConditionDrizzle: rainGradients,
	weather.ConditionThunderstorm: {
		day:   Background{From: "#455a64", To: "#263238"},
		night: Background{From: "#263238", To: "#000000"},
	},
	weather.ConditionSnow: {
		day:   Background{From: "#eceff1", To: "#cfd8dc"},
		night: Background{From: "#455a64", To: "#546e7a"},
	},
	weather.ConditionMist: {
		day:   Background{From: "#b0bec5", To: "#90a4ae"},
		night: Background{From: "#37474f", To: "#455a64"},
	},
}

// BackgroundFor selects the gradient for a raw condition keyword and time of
// day. Unknown conditions use the default pair.
func BackgroundFor(condition string, isNight bool) Background {
	pair, ok := conditionGradients[weather.ParseCondition(condition)]
	if !ok {
		pair = defaultGradients
	}
	if isNight {
		return pair.night
	}
	return pair.day
}

// IsDaytime reports whether now lies strictly between sunrise and sunset
// (unix seconds).
func IsDaytime(now time.Time, sunrise, sunset int64) bool {
	return now.After(time.Unix(sunrise, 0)) && now.Before(time.Unix(sunset, 0))
}
