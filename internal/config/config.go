package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// DefaultAPIBaseURL is the only fallback for the weather service base URL.
const DefaultAPIBaseURL = "http://localhost:3000"

// APIConfig describes the remote weather service.
type APIConfig struct {
	BaseURL       string `validate:"required,url"`
	WeatherPath   string `validate:"required,startswith=/"`
	ForecastPath  string `validate:"required,startswith=/"`
	LocationsPath string `validate:"required,startswith=/"`

	HTTPTimeout time.Duration `validate:"gt=0"`

	// MaxRetries is 0 by default: failures surface to the viewer immediately.
	MaxRetries      int           `validate:"gte=0,lte=5"`
	RetryInterval   time.Duration `validate:"required_unless=MaxRetries 0"`
	RetryMaxBackoff time.Duration

	BreakerMaxRequests uint32
	BreakerInterval    time.Duration
	BreakerTimeout     time.Duration
}

// GeocoderConfig enables the server-side home locator when APIKey is set.
type GeocoderConfig struct {
	APIKey      string
	HomeCity    string `validate:"required_with=APIKey"`
	HomeCountry string
}

// SessionConfig controls per-browser state retention.
type SessionConfig struct {
	MaxSessions   int           `validate:"gte=0"`
	MaxAge        time.Duration `validate:"gte=0"`
	SweepInterval time.Duration `validate:"gt=0"`
	CookieName    string        `validate:"required"`
	CookieSecure  bool
}

// SearchConfig paces outbound location searches.
type SearchConfig struct {
	RatePerSecond float64 `validate:"gt=0"`
	Burst         int     `validate:"gt=0"`
}

type AppConfig struct {
	Port        string `validate:"required,numeric"`
	DefaultCity string `validate:"required"`
	// DefaultUnits is the unit system of new sessions.
	DefaultUnits string `validate:"oneof=metric imperial"`

	API      APIConfig
	Geocoder GeocoderConfig
	Session  SessionConfig
	Search   SearchConfig

	LogLevel string `validate:"oneof=debug info warn error"`
	// MetricsEnabled exposes /metrics.
	MetricsEnabled bool
}

var validate = validator.New()

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	return FromEnv()
}

// FromEnv reads configuration from the process environment only.
func FromEnv() (*AppConfig, error) {
	cfg := &AppConfig{}
	var err error

	cfg.Port = getenvDefault("PORT", "8080")
	cfg.DefaultCity = getenvDefault("DEFAULT_CITY", "New York")
	cfg.DefaultUnits = getenvDefault("DEFAULT_UNITS", "metric")
	cfg.LogLevel = getenvDefault("LOG_LEVEL", "info")
	cfg.MetricsEnabled = getenvBool("METRICS_ENABLED", true)

	cfg.API.BaseURL = getenvDefault("WEATHER_API_URL", DefaultAPIBaseURL)
	cfg.API.WeatherPath = getenvDefault("WEATHER_API_WEATHER_PATH", "/api/weather")
	cfg.API.ForecastPath = getenvDefault("WEATHER_API_FORECAST_PATH", "/api/forecast")
	cfg.API.LocationsPath = getenvDefault("WEATHER_API_LOCATIONS_PATH", "/api/locations")
	cfg.API.MaxRetries = getenvInt("WEATHER_API_MAX_RETRIES", 0)
	cfg.API.BreakerMaxRequests = uint32(getenvInt("WEATHER_API_BREAKER_MAX_REQUESTS", 5))

	if cfg.API.HTTPTimeout, err = getenvDuration("WEATHER_API_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if cfg.API.RetryInterval, err = getenvDuration("WEATHER_API_RETRY_INTERVAL", "500ms"); err != nil {
		return nil, err
	}
	if cfg.API.RetryMaxBackoff, err = getenvDuration("WEATHER_API_RETRY_MAX_BACKOFF", "5s"); err != nil {
		return nil, err
	}
	if cfg.API.BreakerInterval, err = getenvDuration("WEATHER_API_BREAKER_INTERVAL", "1m"); err != nil {
		return nil, err
	}
	if cfg.API.BreakerTimeout, err = getenvDuration("WEATHER_API_BREAKER_TIMEOUT", "30s"); err != nil {
		return nil, err
	}

	cfg.Geocoder.APIKey = os.Getenv("GOOGLE_GEOCODING_API_KEY")
	cfg.Geocoder.HomeCity = os.Getenv("HOME_CITY")
	cfg.Geocoder.HomeCountry = os.Getenv("HOME_COUNTRY")

	cfg.Session.MaxSessions = getenvInt("SESSION_MAX", 10000)
	cfg.Session.CookieName = getenvDefault("SESSION_COOKIE", "wd_session")
	cfg.Session.CookieSecure = getenvBool("SESSION_COOKIE_SECURE", false)
	if cfg.Session.MaxAge, err = getenvDuration("SESSION_MAX_AGE", "2h"); err != nil {
		return nil, err
	}
	if cfg.Session.SweepInterval, err = getenvDuration("SESSION_SWEEP_INTERVAL", "5m"); err != nil {
		return nil, err
	}

	cfg.Search.RatePerSecond = getenvFloat("SEARCH_RATE_PER_SECOND", 5)
	cfg.Search.Burst = getenvInt("SEARCH_BURST", 3)

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// HomeLocatorEnabled reports whether a server-side home address is configured.
func (c *AppConfig) HomeLocatorEnabled() bool {
	return c.Geocoder.APIKey != "" && c.Geocoder.HomeCity != ""
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
