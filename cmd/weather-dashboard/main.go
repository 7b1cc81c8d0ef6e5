package main

import (
	"context"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/i474232898/weather-dashboard/internal/api/http"
	"github.com/i474232898/weather-dashboard/internal/config"
	"github.com/i474232898/weather-dashboard/internal/geo"
	"github.com/i474232898/weather-dashboard/internal/scheduler"
	"github.com/i474232898/weather-dashboard/internal/store"
	"github.com/i474232898/weather-dashboard/internal/weather"
	"github.com/i474232898/weather-dashboard/internal/weather/remote"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := newLogger(os.Stdout, cfg.LogLevel)
	slog.SetDefault(logger)

	// Shared HTTP client for outbound calls to the weather service.
	httpClient := &http.Client{
		Timeout: cfg.API.HTTPTimeout,
	}

	client := remote.New(httpClient, remote.Config{
		BaseURL: cfg.API.BaseURL,
		Endpoints: remote.Endpoints{
			Weather:   cfg.API.WeatherPath,
			Forecast:  cfg.API.ForecastPath,
			Locations: cfg.API.LocationsPath,
		},
		Backoff: remote.BackoffConfig{
			InitialInterval: cfg.API.RetryInterval,
			MaxInterval:     cfg.API.RetryMaxBackoff,
			MaxRetries:      cfg.API.MaxRetries,
		},
		BreakerMaxRequests: cfg.API.BreakerMaxRequests,
		BreakerInterval:    cfg.API.BreakerInterval,
		BreakerTimeout:     cfg.API.BreakerTimeout,
	}, logger)

	units, err := weather.ParseUnits(cfg.DefaultUnits)
	if err != nil {
		log.Fatalf("invalid default units: %v", err)
	}

	// Per-browser sessions with configured retention.
	sessions := store.NewMemoryStore(httpapi.NewSessionFactory(client, httpapi.SessionOptions{
		DefaultCity:  cfg.DefaultCity,
		DefaultUnits: units,
		SearchRate:   cfg.Search.RatePerSecond,
		SearchBurst:  cfg.Search.Burst,
		Logger:       logger,
	}), cfg.Session.MaxSessions, cfg.Session.MaxAge)

	// Scheduler that periodically drops idle sessions.
	sched := scheduler.New(sessions, cfg.Session.SweepInterval, logger)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	var home geo.Locator
	if cfg.HomeLocatorEnabled() {
		home = geo.NewHomeLocator(cfg.Geocoder.APIKey, cfg.Geocoder.HomeCity, cfg.Geocoder.HomeCountry)
		logger.Info("server-side home location enabled", slog.String("city", cfg.Geocoder.HomeCity))
	}

	app := httpapi.NewApp(httpapi.Deps{
		Sessions:       sessions,
		HomeLocator:    home,
		CookieName:     cfg.Session.CookieName,
		CookieSecure:   cfg.Session.CookieSecure,
		CookieMaxAge:   cfg.Session.MaxAge,
		FetchTimeout:   2*cfg.API.HTTPTimeout + time.Second,
		MetricsEnabled: cfg.MetricsEnabled,
		AccessLog:      true,
		Logger:         logger,
	})

	// Start server with graceful shutdown
	go func() {
		logger.Info("listening", slog.String("port", cfg.Port), slog.String("weather_api", cfg.API.BaseURL))
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.Error("fiber server stopped", slog.Any("error", err))
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("error during shutdown", slog.Any("error", err))
	}
}

// newLogger returns a text logger writing to w at the named level.
func newLogger(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: parseLevel(level)}))
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}
