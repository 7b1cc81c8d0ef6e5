package httpapi

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/template/html/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/i474232898/weather-dashboard/internal/geo"
	"github.com/i474232898/weather-dashboard/internal/store"
)

//go:embed views/*.html
var viewsFS embed.FS

// Deps are the collaborators of the HTTP layer.
type Deps struct {
	Sessions *store.MemoryStore
	// HomeLocator resolves the initial location server-side; nil means the
	// browser is asked instead.
	HomeLocator geo.Locator

	CookieName   string
	CookieSecure bool
	CookieMaxAge time.Duration

	// FetchTimeout bounds the weather calls made while handling a request.
	FetchTimeout   time.Duration
	MetricsEnabled bool
	AccessLog      bool

	Now    func() time.Time
	Logger *slog.Logger
}

// NewViews returns the template engine over the embedded views.
func NewViews() *html.Engine {
	engine := html.NewFileSystem(http.FS(viewsFS), ".html")
	engine.AddFunc("safeCSS", func(s string) template.CSS {
		// Only palette values from the presentation package reach this.
		return template.CSS(s)
	})
	return engine
}

// NewApp builds the Fiber application with middleware and routes.
func NewApp(deps Deps) *fiber.App {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.CookieName == "" {
		deps.CookieName = "wd_session"
	}
	if deps.FetchTimeout <= 0 {
		deps.FetchTimeout = 15 * time.Second
	}

	app := fiber.New(fiber.Config{
		AppName:               "weather-dashboard",
		DisableStartupMessage: true,
		// Query and form values outlive the request inside sessions.
		Immutable:             true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          30 * time.Second,
		Views:                 NewViews(),
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	if deps.AccessLog {
		app.Use(logger.New())
	}
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":   "ok",
			"service":  "weather-dashboard",
			"sessions": deps.Sessions.Len(),
		})
	})

	if deps.MetricsEnabled {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	}

	RegisterRoutes(app, deps)
	return app
}
