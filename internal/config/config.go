package config

import (
	"encoding/base64"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2/middleware/encryptcookie"
	"github.com/joho/godotenv"
)

type AppConfig struct {
	Port   string `validate:"required,numeric"`
	DBPath string `validate:"required"`

	// SessionSecret is the base64 encoded AES key sealing the session cookie.
	SessionSecret     string        `validate:"required,base64"`
	SessionCookieName string        `validate:"required"`
	SessionMaxAge     time.Duration `validate:"gte=0"`

	// Open-Meteo endpoints, overridable for tests and mirrors.
	GeocodingURL      string `validate:"required,url"`
	ForecastURL       string `validate:"required,url"`
	GeocodingLanguage string `validate:"required,alpha"`

	// HTTPTimeout of zero leaves outbound calls without a client timeout.
	HTTPTimeout      time.Duration `validate:"gte=0"`
	BreakerThreshold uint32

	// MaintenanceInterval controls how often the store is checkpointed.
	MaintenanceInterval time.Duration `validate:"gte=0"`
}

var validate = validator.New()

// Load reads configuration from the environment (and a .env file if present)
// with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.Port = getenvDefault("PORT", "8080")
	cfg.DBPath = getenvDefault("DB_PATH", "weather.db")

	cfg.SessionSecret = os.Getenv("SESSION_SECRET")
	if cfg.SessionSecret == "" {
		log.Printf("WARN: SESSION_SECRET is not set; generated a per-process key, sessions will not survive restarts")
		cfg.SessionSecret = encryptcookie.GenerateKey()
	}
	cfg.SessionCookieName = getenvDefault("SESSION_COOKIE_NAME", "session")

	var err error
	if cfg.SessionMaxAge, err = getenvDuration("SESSION_MAX_AGE", "336h"); err != nil {
		return nil, err
	}

	cfg.GeocodingURL = getenvDefault("GEOCODING_URL", "https://geocoding-api.open-meteo.com/v1/search")
	cfg.ForecastURL = getenvDefault("FORECAST_URL", "https://api.open-meteo.com/v1/forecast")
	cfg.GeocodingLanguage = getenvDefault("GEOCODING_LANGUAGE", "ru")

	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "0s"); err != nil {
		return nil, err
	}
	cfg.BreakerThreshold = uint32(getenvInt("UPSTREAM_BREAKER_THRESHOLD", 0))

	if cfg.MaintenanceInterval, err = getenvDuration("MAINTENANCE_INTERVAL", "60m"); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints and the session key length.
func (c *AppConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	key, err := base64.StdEncoding.DecodeString(c.SessionSecret)
	if err != nil {
		return fmt.Errorf("invalid SESSION_SECRET: %w", err)
	}
	switch len(key) {
	case 16, 24, 32:
	default:
		return fmt.Errorf("invalid SESSION_SECRET: key must be 16, 24 or 32 bytes, got %d", len(key))
	}
	return nil
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
		if err == nil && n >= 0 {
			return n
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
