package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-dashboard/internal/dashboard"
	"github.com/i474232898/weather-dashboard/internal/display"
	"github.com/i474232898/weather-dashboard/internal/geo"
	"github.com/i474232898/weather-dashboard/internal/store"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

var validate = validator.New()

var errLatLonPair = errors.New("lat and lon must be sent together")

type handler struct {
	deps Deps
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, deps Deps) {
	h := &handler{deps: deps}

	app.Get("/", h.index)
	app.Post("/select", h.selectLocation)
	app.Post("/locate", h.locate)
	app.Post("/units", h.toggleUnits)
	app.Post("/search/dismiss", h.dismissSearch)
	app.Post("/search/focus", h.focusSearch)
	app.Post("/search/clear", h.clearSearch)

	api := app.Group("/api")
	api.Get("/search", h.searchJSON)
	api.Get("/state", h.stateJSON)
}

func (h *handler) index(c *fiber.Ctx) error {
	sess := h.session(c)
	ctx, cancel := h.fetchContext(c)
	defer cancel()

	if c.Query("retry") != "" {
		sess.Dashboard.Reset()
	}

	if !sess.Dashboard.Mounted() {
		locator, err := h.initialLocator(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if locator == nil {
			return h.render(c, sess, true)
		}
		if err := sess.Dashboard.Mount(ctx, locator); err != nil && !errors.Is(err, dashboard.ErrSuperseded) {
			h.deps.Logger.Warn("initial load failed", slog.String("session", sess.ID), slog.Any("error", err))
		}
	}

	if c.Context().QueryArgs().Has("q") {
		var q searchQuery
		if err := q.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		sess.Search.Input(ctx, q.Q)
	}

	return h.render(c, sess, false)
}

func (h *handler) selectLocation(c *fiber.Ctx) error {
	var form selectForm
	if err := form.bind(c); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	sess := h.session(c)
	ctx, cancel := h.fetchContext(c)
	defer cancel()

	sess.Search.Select(ctx, form.toLocation())
	return c.Redirect("/", fiber.StatusSeeOther)
}

func (h *handler) locate(c *fiber.Ctx) error {
	var form locateForm
	if err := form.bind(c); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	sess := h.session(c)
	ctx, cancel := h.fetchContext(c)
	defer cancel()

	if _, ok := sess.Search.UseCurrentLocation(ctx, form.locator()); !ok {
		h.deps.Logger.Info("current location unavailable",
			slog.String("session", sess.ID), slog.String("reason", form.Error))
	}
	return c.Redirect("/", fiber.StatusSeeOther)
}

func (h *handler) toggleUnits(c *fiber.Ctx) error {
	sess := h.session(c)
	ctx, cancel := h.fetchContext(c)
	defer cancel()

	if err := sess.Dashboard.ToggleUnits(ctx); err != nil && !errors.Is(err, dashboard.ErrSuperseded) {
		h.deps.Logger.Warn("reload after unit toggle failed", slog.String("session", sess.ID), slog.Any("error", err))
	}
	return c.Redirect("/", fiber.StatusSeeOther)
}

func (h *handler) dismissSearch(c *fiber.Ctx) error {
	sess := h.session(c)
	sess.Search.ClickOutside()
	if wantsJSON(c) {
		return c.SendStatus(fiber.StatusNoContent)
	}
	return c.Redirect("/", fiber.StatusSeeOther)
}

func (h *handler) focusSearch(c *fiber.Ctx) error {
	sess := h.session(c)
	snap := sess.Search.Focus()
	if wantsJSON(c) {
		return c.JSON(display.BuildSearch(snap))
	}
	return c.Redirect("/", fiber.StatusSeeOther)
}

func (h *handler) clearSearch(c *fiber.Ctx) error {
	sess := h.session(c)
	snap := sess.Search.Clear()
	if wantsJSON(c) {
		return c.JSON(display.BuildSearch(snap))
	}
	return c.Redirect("/", fiber.StatusSeeOther)
}

// wantsJSON reports whether the caller is the page script rather than a form.
func wantsJSON(c *fiber.Ctx) bool {
	return c.Accepts(fiber.MIMEApplicationJSON, fiber.MIMETextHTML) == fiber.MIMEApplicationJSON
}

func (h *handler) searchJSON(c *fiber.Ctx) error {
	var q searchQuery
	if err := q.bind(c); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	sess := h.session(c)
	ctx, cancel := h.fetchContext(c)
	defer cancel()

	return c.JSON(display.BuildSearch(sess.Search.Input(ctx, q.Q)))
}

func (h *handler) stateJSON(c *fiber.Ctx) error {
	sess := h.session(c)
	return c.JSON(display.BuildPage(sess.Dashboard.Snapshot(), sess.Search.Snapshot(), h.deps.Now()))
}

func (h *handler) render(c *fiber.Ctx, sess *store.Session, resolving bool) error {
	page := display.BuildPage(sess.Dashboard.Snapshot(), sess.Search.Snapshot(), h.deps.Now())
	return c.Render("views/index", fiber.Map{
		"Page":      page,
		"Resolving": resolving,
	})
}

// session loads the caller's session, issuing a cookie for new ones.
func (h *handler) session(c *fiber.Ctx) *store.Session {
	sess, created := h.deps.Sessions.GetOrCreate(c.Cookies(h.deps.CookieName))
	if created {
		c.Cookie(&fiber.Cookie{
			Name:     h.deps.CookieName,
			Value:    sess.ID,
			Path:     "/",
			MaxAge:   int(h.deps.CookieMaxAge.Seconds()),
			Secure:   h.deps.CookieSecure,
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
	}
	return sess
}

func (h *handler) fetchContext(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.UserContext(), h.deps.FetchTimeout)
}

// initialLocator picks the source of the first location. A nil locator means
// the browser has not been asked yet.
func (h *handler) initialLocator(c *fiber.Ctx) (geo.Locator, error) {
	if reason := c.Query("geo"); reason != "" {
		return geo.Failed{Reason: geo.ParseReason(reason)}, nil
	}
	if c.Query("lat") != "" || c.Query("lon") != "" {
		var p coordinateParams
		p.Lat, p.Lon = c.Query("lat"), c.Query("lon")
		if err := validate.Struct(p); err != nil {
			return nil, err
		}
		return p.locator(), nil
	}
	if h.deps.HomeLocator != nil {
		return h.deps.HomeLocator, nil
	}
	return nil, nil
}

// coordinateParams holds a latitude/longitude pair sent by the browser.
type coordinateParams struct {
	Lat string `validate:"required,latitude"`
	Lon string `validate:"required,longitude"`
}

func (p coordinateParams) locator() geo.Locator {
	lat, _ := strconv.ParseFloat(p.Lat, 64)
	lon, _ := strconv.ParseFloat(p.Lon, 64)
	return geo.Fixed{Lat: lat, Lon: lon}
}

// searchQuery holds the search input text.
type searchQuery struct {
	Q string `validate:"max=100"`
}

func (s *searchQuery) bind(c *fiber.Ctx) error {
	s.Q = c.Query("q")
	return validate.Struct(s)
}

// selectForm is a dropdown entry posted back by the browser.
type selectForm struct {
	Name    string `validate:"max=200"`
	Country string `validate:"max=100"`
	State   string `validate:"max=100"`
	Lat     string `validate:"omitempty,latitude"`
	Lon     string `validate:"omitempty,longitude"`
}

func (f *selectForm) bind(c *fiber.Ctx) error {
	f.Name = strings.TrimSpace(c.FormValue("name"))
	f.Country = c.FormValue("country")
	f.State = c.FormValue("state")
	f.Lat = c.FormValue("lat")
	f.Lon = c.FormValue("lon")
	if (f.Lat == "") != (f.Lon == "") {
		return errLatLonPair
	}
	if f.Name == "" && f.Lat == "" {
		return errors.New("name or coordinates are required")
	}
	return validate.Struct(f)
}

func (f selectForm) toLocation() weather.Location {
	loc := weather.Location{Name: f.Name, Country: f.Country, State: f.State}
	if f.Lat != "" && f.Lon != "" {
		lat, _ := strconv.ParseFloat(f.Lat, 64)
		lon, _ := strconv.ParseFloat(f.Lon, 64)
		loc.Lat, loc.Lon = &lat, &lon
	}
	return loc
}

// locateForm is the outcome of an on-demand browser geolocation.
type locateForm struct {
	Lat   string `validate:"omitempty,latitude"`
	Lon   string `validate:"omitempty,longitude"`
	Error string `validate:"omitempty,oneof=denied unavailable timeout failed"`
}

func (f *locateForm) bind(c *fiber.Ctx) error {
	f.Lat = c.FormValue("lat")
	f.Lon = c.FormValue("lon")
	f.Error = c.FormValue("error")
	if f.Error == "" && (f.Lat == "" || f.Lon == "") {
		return errLatLonPair
	}
	return validate.Struct(f)
}

func (f locateForm) locator() geo.Locator {
	if f.Error != "" {
		return geo.Failed{Reason: geo.ParseReason(f.Error)}
	}
	return coordinateParams{Lat: f.Lat, Lon: f.Lon}.locator()
}
