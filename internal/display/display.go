// Package display turns dashboard and search snapshots into view models for
// the HTML templates. Everything here is a pure function of its inputs.
package display

import (
	"time"

	"github.com/i474232898/weather-dashboard/internal/dashboard"
	"github.com/i474232898/weather-dashboard/internal/presentation"
	"github.com/i474232898/weather-dashboard/internal/search"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

// ForecastDays is the number of forecast rows shown.
const ForecastDays = 5

// ErrorMessage is the single message shown for any load failure.
const ErrorMessage = "Failed to load weather data. Please try again."

// defaultCondition drives the background when nothing has been fetched.
const defaultCondition = "Clear"

// CurrentPanel is the main current-conditions card.
type CurrentPanel struct {
	Place            string `json:"place"`
	Date             string `json:"date"`
	Temperature      string `json:"temperature"`
	TemperatureValue int    `json:"temperatureValue"`
	UnitSymbol       string `json:"unitSymbol"`
	UnitToggleLabel  string `json:"unitToggleLabel"`
	Icon             string `json:"icon"`
	Description      string `json:"description"`
	FeelsLike        string `json:"feelsLike"`
	Humidity         string `json:"humidity"`
	WindSpeed        string `json:"windSpeed"`
}

// DetailsPanel shows sun times, visibility, pressure and cloudiness.
type DetailsPanel struct {
	Sunrise    string `json:"sunrise"`
	Sunset     string `json:"sunset"`
	Visibility string `json:"visibility"`
	Pressure   string `json:"pressure"`
	Cloudiness string `json:"cloudiness"`
}

// ForecastRow is one day of the forecast list.
type ForecastRow struct {
	Key         string `json:"key"`
	Label       string `json:"label"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
	Max         string `json:"max"`
	Min         string `json:"min"`
}

// SearchResult is one dropdown entry.
type SearchResult struct {
	Name     string `json:"name"`
	Subtitle string `json:"subtitle"`
	Lat      string `json:"lat,omitempty"`
	Lon      string `json:"lon,omitempty"`
	Country  string `json:"country"`
	State    string `json:"state,omitempty"`
}

// SearchView is the search input and dropdown.
type SearchView struct {
	Query        string         `json:"query"`
	State        search.State   `json:"state"`
	DropdownOpen bool           `json:"dropdownOpen"`
	Results      []SearchResult `json:"results"`
	// Message is shown instead of results when non-empty.
	Message string `json:"message,omitempty"`
}

// Page is the full view model.
type Page struct {
	Phase        dashboard.Phase `json:"phase"`
	Units        weather.Units   `json:"units"`
	Background   string          `json:"background"`
	IsNight      bool            `json:"isNight"`
	Search       SearchView      `json:"search"`
	Current      *CurrentPanel   `json:"current,omitempty"`
	Details      *DetailsPanel   `json:"details,omitempty"`
	Forecast     []ForecastRow   `json:"forecast,omitempty"`
	ErrorMessage string          `json:"errorMessage,omitempty"`
}

// BuildPage renders the dashboard state at time now. Day and night are
// derived here, never stored.
func BuildPage(st dashboard.State, sr search.Snapshot, now time.Time) Page {
	page := Page{
		Phase:  st.Phase,
		Units:  st.Units,
		Search: BuildSearch(sr),
	}

	condition := defaultCondition
	if st.Current != nil {
		if primary, ok := st.Current.Primary(); ok && primary.Main != "" {
			condition = primary.Main
		}
		page.IsNight = !presentation.IsDaytime(now, st.Current.Sys.Sunrise, st.Current.Sys.Sunset)
	}
	page.Background = presentation.BackgroundFor(condition, page.IsNight).CSS()

	switch st.Phase {
	case dashboard.PhaseError:
		page.ErrorMessage = ErrorMessage
	case dashboard.PhaseReady:
		if st.Current != nil {
			current := BuildCurrent(*st.Current, st.Units, now)
			details := BuildDetails(*st.Current, st.Units)
			page.Current = &current
			page.Details = &details
		}
		if st.Forecast != nil {
			page.Forecast = BuildForecast(*st.Forecast, st.Units)
		}
	}
	return page
}

// BuildCurrent renders the current-conditions panel.
func BuildCurrent(w weather.CurrentWeather, units weather.Units, now time.Time) CurrentPanel {
	primary, _ := w.Primary()

	place := w.Name
	if w.Sys.Country != "" {
		place += ", " + w.Sys.Country
	}

	return CurrentPanel{
		Place:            place,
		Date:             presentation.FormatLongDate(now, w.Timezone),
		Temperature:      presentation.FormatTemperature(w.Main.Temp, units),
		TemperatureValue: presentation.TemperatureValue(w.Main.Temp, units),
		UnitSymbol:       presentation.UnitSymbol(units),
		UnitToggleLabel:  "°" + presentation.UnitSymbol(units),
		Icon:             presentation.IconFor(primary.Main).Asset(),
		Description:      primary.Description,
		FeelsLike:        presentation.FormatTemperature(w.Main.FeelsLike, units),
		Humidity:         presentation.FormatPercent(w.Main.Humidity),
		WindSpeed:        presentation.FormatWindSpeed(w.Wind.Speed, units),
	}
}

// BuildDetails renders the details panel.
func BuildDetails(w weather.CurrentWeather, units weather.Units) DetailsPanel {
	return DetailsPanel{
		Sunrise:    presentation.FormatClock(w.Sys.Sunrise, w.Timezone),
		Sunset:     presentation.FormatClock(w.Sys.Sunset, w.Timezone),
		Visibility: presentation.FormatVisibility(w.Visibility, units),
		Pressure:   presentation.FormatPressure(w.Main.Pressure),
		Cloudiness: presentation.FormatPercent(w.Clouds.All),
	}
}

// BuildForecast renders at most ForecastDays rows; the first is "Today".
func BuildForecast(f weather.Forecast, units weather.Units) []ForecastRow {
	days := f.DailyForecasts
	if len(days) > ForecastDays {
		days = days[:ForecastDays]
	}

	rows := make([]ForecastRow, 0, len(days))
	for i, d := range days {
		label := d.Day
		if i == 0 {
			label = "Today"
		}
		rows = append(rows, ForecastRow{
			Key:         d.Date,
			Label:       label,
			Icon:        presentation.IconFor(d.Weather.Main).Asset(),
			Description: d.Weather.Description,
			Max:         presentation.FormatTemperature(d.Temps.Max, units),
			Min:         presentation.FormatTemperature(d.Temps.Min, units),
		})
	}
	return rows
}
