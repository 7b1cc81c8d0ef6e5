package httpapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-dashboard/internal/display"
	"github.com/i474232898/weather-dashboard/internal/geo"
	"github.com/i474232898/weather-dashboard/internal/search"
	"github.com/i474232898/weather-dashboard/internal/store"
	"github.com/i474232898/weather-dashboard/internal/weather"
	"github.com/i474232898/weather-dashboard/internal/weather/remote"
)

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

const resolvingMarker = "Finding your location"

// upstream fakes the weather service and records the weather requests.
type upstream struct {
	mu       sync.Mutex
	fail     bool
	requests []url.Values
}

func (u *upstream) weatherRequests() []url.Values {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]url.Values(nil), u.requests...)
}

func (u *upstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	u.mu.Lock()
	fail := u.fail
	if r.URL.Path == "/weather" {
		u.requests = append(u.requests, r.URL.Query())
	}
	u.mu.Unlock()

	if fail {
		http.Error(w, "boom", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/weather":
		fmt.Fprintf(w, `{"name":"New York","main":{"temp":20,"feels_like":19,"humidity":80,"pressure":1009},
			"weather":[{"main":"Rain","description":"light rain"}],"wind":{"speed":3},"visibility":8000,
			"clouds":{"all":100},"sys":{"country":"US","sunrise":%d,"sunset":%d}}`,
			now.Add(-6*time.Hour).Unix(), now.Add(6*time.Hour).Unix())
	case "/forecast":
		fmt.Fprint(w, `{"dailyForecasts":[{"date":"2025-06-01","day":"Sun","temps":{"min":15,"max":21},"weather":{"main":"Rain","description":"rain"}}]}`)
	case "/locations":
		if r.URL.Query().Get("query") == "Zzz" {
			fmt.Fprint(w, `[]`)
			return
		}
		fmt.Fprint(w, `[{"name":"London","country":"GB","state":"England","lat":51.5,"lon":-0.12}]`)
	default:
		http.NotFound(w, r)
	}
}

func newTestApp(t *testing.T, home geo.Locator) (*fiber.App, *upstream) {
	t.Helper()

	up := &upstream{}
	srv := httptest.NewServer(up)
	t.Cleanup(srv.Close)

	client := remote.New(srv.Client(), remote.Config{
		BaseURL:   srv.URL,
		Endpoints: remote.Endpoints{Weather: "/weather", Forecast: "/forecast", Locations: "/locations"},
	}, nil)

	sessions := store.NewMemoryStore(NewSessionFactory(client, SessionOptions{
		DefaultCity:  "New York",
		DefaultUnits: weather.UnitsMetric,
	}), 100, time.Hour)

	app := NewApp(Deps{
		Sessions:       sessions,
		HomeLocator:    home,
		CookieName:     "wd_session",
		CookieMaxAge:   time.Hour,
		FetchTimeout:   5 * time.Second,
		MetricsEnabled: true,
		Now:            func() time.Time { return now },
	})
	return app, up
}

// browser carries the session cookie across requests.
type browser struct {
	t      *testing.T
	app    *fiber.App
	cookie *http.Cookie
}

func (b *browser) do(req *http.Request) (*http.Response, string) {
	b.t.Helper()
	if b.cookie != nil {
		req.AddCookie(b.cookie)
	}
	resp, err := b.app.Test(req, 5000)
	require.NoError(b.t, err)
	for _, c := range resp.Cookies() {
		if c.Name == "wd_session" {
			b.cookie = c
		}
	}
	body, err := io.ReadAll(resp.Body)
	require.NoError(b.t, err)
	return resp, string(body)
}

func (b *browser) get(target string) (*http.Response, string) {
	return b.do(httptest.NewRequest(http.MethodGet, target, nil))
}

func (b *browser) post(target string, form url.Values) (*http.Response, string) {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", fiber.MIMEApplicationForm)
	return b.do(req)
}

func (b *browser) state() display.Page {
	b.t.Helper()
	_, body := b.get("/api/state")
	var page display.Page
	require.NoError(b.t, json.Unmarshal([]byte(body), &page))
	return page
}

func TestIndexAsksBrowserForLocation(t *testing.T) {
	app, up := newTestApp(t, nil)
	b := &browser{t: t, app: app}

	resp, body := b.get("/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, resolvingMarker)
	assert.NotNil(t, b.cookie)
	assert.Empty(t, up.weatherRequests())
}

func TestIndexWithBrowserCoordinates(t *testing.T) {
	app, up := newTestApp(t, nil)
	b := &browser{t: t, app: app}

	resp, body := b.get("/?lat=40.7&lon=-74")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "New York")
	assert.Contains(t, body, "20°C")
	assert.Contains(t, body, `data-icon="cloud-rain"`)

	reqs := up.weatherRequests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "40.7", reqs[0].Get("lat"))
	assert.Equal(t, "-74", reqs[0].Get("lon"))
	assert.Equal(t, "metric", reqs[0].Get("units"))
	assert.Empty(t, reqs[0].Get("city"))

	// A mounted session ignores later coordinates.
	b.get("/?lat=1&lon=1")
	assert.Len(t, up.weatherRequests(), 1)
}

func TestIndexFallsBackToDefaultCity(t *testing.T) {
	app, up := newTestApp(t, nil)
	b := &browser{t: t, app: app}

	resp, _ := b.get("/?geo=denied")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	reqs := up.weatherRequests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "New York", reqs[0].Get("city"))
	assert.Equal(t, "ready", string(b.state().Phase))
}

func TestIndexUsesHomeLocator(t *testing.T) {
	app, up := newTestApp(t, geo.Fixed{Lat: 38.72, Lon: -9.14})
	b := &browser{t: t, app: app}

	_, body := b.get("/")
	assert.NotContains(t, body, resolvingMarker)

	reqs := up.weatherRequests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "38.72", reqs[0].Get("lat"))
}

func TestIndexRejectsInvalidCoordinates(t *testing.T) {
	app, _ := newTestApp(t, nil)
	b := &browser{t: t, app: app}

	resp, _ := b.get("/?lat=200&lon=0")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestErrorViewAndRetry(t *testing.T) {
	app, up := newTestApp(t, nil)
	b := &browser{t: t, app: app}

	up.mu.Lock()
	up.fail = true
	up.mu.Unlock()

	_, body := b.get("/?lat=40.7&lon=-74")
	assert.Contains(t, body, display.ErrorMessage)
	assert.Contains(t, body, `href="/?retry=1"`)

	page := b.state()
	assert.Equal(t, "error", string(page.Phase))
	assert.Nil(t, page.Current)
	assert.Empty(t, page.Forecast)

	up.mu.Lock()
	up.fail = false
	up.mu.Unlock()

	// Retry resets the session and asks for the location again.
	_, body = b.get("/?retry=1")
	assert.Contains(t, body, resolvingMarker)

	b.get("/?lat=40.7&lon=-74")
	assert.Equal(t, "ready", string(b.state().Phase))
}

func TestToggleUnitsRefetches(t *testing.T) {
	app, up := newTestApp(t, nil)
	b := &browser{t: t, app: app}
	b.get("/?lat=40.7&lon=-74")

	resp, _ := b.post("/units", url.Values{})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	reqs := up.weatherRequests()
	require.Len(t, reqs, 2)
	assert.Equal(t, "imperial", reqs[1].Get("units"))
	assert.Equal(t, "40.7", reqs[1].Get("lat"))

	page := b.state()
	assert.Equal(t, weather.UnitsImperial, page.Units)
	require.NotNil(t, page.Current)
	assert.Equal(t, "68°F", page.Current.Temperature)
}

func TestSelectLocation(t *testing.T) {
	app, up := newTestApp(t, nil)
	b := &browser{t: t, app: app}
	b.get("/?geo=denied")

	resp, _ := b.post("/select", url.Values{
		"name": {"London"}, "country": {"GB"}, "state": {"England"},
		"lat": {"51.5"}, "lon": {"-0.12"},
	})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)

	reqs := up.weatherRequests()
	require.Len(t, reqs, 2)
	assert.Equal(t, "51.5", reqs[1].Get("lat"))
	assert.Empty(t, reqs[1].Get("city"))

	resp, _ = b.post("/select", url.Values{"name": {"Paris"}})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	reqs = up.weatherRequests()
	require.Len(t, reqs, 3)
	assert.Equal(t, "Paris", reqs[2].Get("city"))
}

func TestSelectLocationValidation(t *testing.T) {
	app, _ := newTestApp(t, nil)
	b := &browser{t: t, app: app}

	tests := map[string]url.Values{
		"nothing":      {},
		"lat only":     {"name": {"X"}, "lat": {"10"}},
		"bad latitude": {"name": {"X"}, "lat": {"91"}, "lon": {"0"}},
	}
	for name, form := range tests {
		t.Run(name, func(t *testing.T) {
			resp, _ := b.post("/select", form)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestLocate(t *testing.T) {
	app, up := newTestApp(t, nil)
	b := &browser{t: t, app: app}
	b.get("/?geo=denied")

	resp, _ := b.post("/locate", url.Values{"error": {"denied"}})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Len(t, up.weatherRequests(), 1)

	resp, _ = b.post("/locate", url.Values{"lat": {"48.85"}, "lon": {"2.35"}})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	reqs := up.weatherRequests()
	require.Len(t, reqs, 2)
	assert.Equal(t, "48.85", reqs[1].Get("lat"))

	resp, _ = b.post("/locate", url.Values{"lat": {"48.85"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSearchAPI(t *testing.T) {
	app, _ := newTestApp(t, nil)
	b := &browser{t: t, app: app}

	var view display.SearchView

	_, body := b.get("/api/search?q=Lo")
	require.NoError(t, json.Unmarshal([]byte(body), &view))
	assert.Equal(t, search.StateIdle, view.State)
	assert.Empty(t, view.Results)

	_, body = b.get("/api/search?q=Lon")
	require.NoError(t, json.Unmarshal([]byte(body), &view))
	assert.Equal(t, search.StateResults, view.State)
	assert.True(t, view.DropdownOpen)
	require.Len(t, view.Results, 1)
	assert.Equal(t, "England, GB", view.Results[0].Subtitle)
	assert.Equal(t, "51.5", view.Results[0].Lat)

	_, body = b.get("/api/search?q=Zzz")
	view = display.SearchView{}
	require.NoError(t, json.Unmarshal([]byte(body), &view))
	assert.Equal(t, search.StateNoResults, view.State)
	assert.Equal(t, "No locations found", view.Message)

	req := httptest.NewRequest(http.MethodPost, "/search/dismiss", nil)
	req.Header.Set("Accept", fiber.MIMEApplicationJSON)
	resp, _ := b.do(req)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.False(t, b.state().Search.DropdownOpen)
}

func TestIndexRendersSearchDropdown(t *testing.T) {
	app, _ := newTestApp(t, nil)
	b := &browser{t: t, app: app}
	b.get("/?geo=denied")

	_, body := b.get("/?q=Lon")
	assert.Contains(t, body, `class="dropdown"`)
	assert.Contains(t, body, `value="London"`)
}

func TestHealthAndMetrics(t *testing.T) {
	app, _ := newTestApp(t, nil)
	b := &browser{t: t, app: app}

	resp, body := b.get("/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"status":"ok"`)

	b.get("/?lat=40.7&lon=-74")
	resp, body = b.get("/metrics")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "weather_dashboard_upstream_requests_total")
}

func TestSessionsKeepTheirOwnValues(t *testing.T) {
	app, up := newTestApp(t, nil)
	alice := &browser{t: t, app: app}
	bob := &browser{t: t, app: app}

	alice.get("/?geo=denied")
	alice.post("/select", url.Values{"name": {"Paris"}})

	bob.get("/?geo=denied")
	bob.post("/select", url.Values{"name": {"Tokyo"}})
	bob.get("/api/search?q=Xxxxx")

	resp, _ := alice.post("/units", url.Values{})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)

	reqs := up.weatherRequests()
	require.NotEmpty(t, reqs)
	last := reqs[len(reqs)-1]
	assert.Equal(t, "Paris", last.Get("city"))
	assert.Equal(t, "imperial", last.Get("units"))

	page := alice.state()
	assert.Equal(t, "Paris", page.Search.Query)
}

func TestSearchFocusAndClear(t *testing.T) {
	app, _ := newTestApp(t, nil)
	b := &browser{t: t, app: app}
	b.get("/?geo=denied")
	b.get("/api/search?q=Lon")

	dismiss := httptest.NewRequest(http.MethodPost, "/search/dismiss", nil)
	dismiss.Header.Set("Accept", fiber.MIMEApplicationJSON)
	b.do(dismiss)

	// Closed results stay in the page, hidden until focus.
	_, body := b.get("/")
	assert.Contains(t, body, `class="dropdown" hidden`)
	assert.Contains(t, body, `action="/search/clear"`)

	focus := httptest.NewRequest(http.MethodPost, "/search/focus", nil)
	focus.Header.Set("Accept", fiber.MIMEApplicationJSON)
	resp, body := b.do(focus)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var view display.SearchView
	require.NoError(t, json.Unmarshal([]byte(body), &view))
	assert.True(t, view.DropdownOpen)
	assert.Equal(t, "Lon", view.Query)

	resp, _ = b.post("/search/clear", url.Values{})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)

	page := b.state()
	assert.Empty(t, page.Search.Query)
	assert.Equal(t, search.StateIdle, page.Search.State)
	assert.False(t, page.Search.DropdownOpen)
	assert.Empty(t, page.Search.Results)

	_, body = b.get("/")
	assert.NotContains(t, body, `class="dropdown"`)
	assert.NotContains(t, body, `action="/search/clear"`)
}
