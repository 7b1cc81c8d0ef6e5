package display

import (
	"strconv"

	"github.com/i474232898/weather-dashboard/internal/search"
)

const (
	searchingMessage   = "Searching..."
	noResultsMessage   = "No locations found"
	unavailableMessage = "Search is unavailable right now"
)

// BuildSearch renders the search input and its dropdown.
func BuildSearch(sr search.Snapshot) SearchView {
	view := SearchView{
		Query:        sr.Query,
		State:        sr.State,
		DropdownOpen: sr.DropdownOpen,
	}

	switch sr.State {
	case search.StateQuerying:
		view.Message = searchingMessage
	case search.StateNoResults:
		view.Message = noResultsMessage
	case search.StateFailed:
		view.Message = unavailableMessage
	}

	for _, loc := range sr.Results {
		r := SearchResult{
			Name:     loc.Name,
			Subtitle: loc.Country,
			Country:  loc.Country,
			State:    loc.State,
		}
		if loc.State != "" {
			r.Subtitle = loc.State + ", " + loc.Country
		}
		if c, ok := loc.Coordinates(); ok {
			r.Lat = strconv.FormatFloat(c.Lat, 'f', -1, 64)
			r.Lon = strconv.FormatFloat(c.Lon, 'f', -1, 64)
		}
		view.Results = append(view.Results, r)
	}
	return view
}
