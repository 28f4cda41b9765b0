package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type Config struct {
	Server struct {
		Port            string
		ReadTimeout     time.Duration
		WriteTimeout    time.Duration
		ShutdownTimeout time.Duration
		SearchTimeout   time.Duration
		LogLevel        string
		AllowOrigins    string
	}

	WeatherAPI struct {
		AccuWeatherAPIKey string
		OpenWeatherAPIKey string
		AccuWeatherURL    string
		OpenWeatherURL    string
		OpenWeatherGeoURL string
		Units             string
		Timeout           time.Duration
	}

	Retry struct {
		MaxAttempts int
		Delay       time.Duration
	}

	CircuitBreaker struct {
		Threshold int
		Timeout   time.Duration
	}

	RateLimit struct {
		RequestsPerSecond float64
		Burst             int
	}

	Sessions struct {
		TTL             time.Duration
		CleanupInterval time.Duration
	}

	Assets struct {
		Dir string
	}

	Scheduler struct {
		Enabled           bool
		AttributionReload string
		BreakerReport     string
	}
}

// HasCredentials reports whether both provider keys are present. Without
// them every search is answered as unavailable.
func (c *Config) HasCredentials() bool {
	return c.WeatherAPI.AccuWeatherAPIKey != "" && c.WeatherAPI.OpenWeatherAPIKey != ""
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if err := godotenv.Load(); err != nil {
		zap.L().Info("No .env file found, using environment variables")
	}

	cfg := &Config{}

	// Server configuration
	cfg.Server.Port = getEnv("FIBER_PORT", "8080")
	cfg.Server.ReadTimeout = parseDuration(getEnv("FIBER_READ_TIMEOUT", "10s"))
	cfg.Server.WriteTimeout = parseDuration(getEnv("FIBER_WRITE_TIMEOUT", "60s"))
	cfg.Server.ShutdownTimeout = parseDuration(getEnv("SHUTDOWN_TIMEOUT", "30s"))
	cfg.Server.SearchTimeout = parseDuration(getEnv("SEARCH_TIMEOUT", "45s"))
	cfg.Server.LogLevel = getEnv("LOG_LEVEL", "info")
	cfg.Server.AllowOrigins = getEnv("CORS_ALLOW_ORIGINS", "*")

	// Weather API configuration
	cfg.WeatherAPI.AccuWeatherAPIKey = strings.TrimSpace(getEnv("ACCUWEATHER_API_KEY", ""))
	cfg.WeatherAPI.OpenWeatherAPIKey = strings.TrimSpace(getEnv("OPENWEATHER_API_KEY", ""))
	cfg.WeatherAPI.AccuWeatherURL = getEnv("ACCUWEATHER_URL", "http://dataservice.accuweather.com")
	cfg.WeatherAPI.OpenWeatherURL = getEnv("OPENWEATHER_URL", "https://api.openweathermap.org")
	cfg.WeatherAPI.OpenWeatherGeoURL = getEnv("OPENWEATHER_GEO_URL", "http://api.openweathermap.org")
	cfg.WeatherAPI.Units = getEnv("OPENWEATHER_UNITS", "imperial")
	cfg.WeatherAPI.Timeout = parseDuration(getEnv("UPSTREAM_TIMEOUT", "10s"))

	// Retry configuration
	cfg.Retry.MaxAttempts = parseInt(getEnv("MAX_ATTEMPTS", "3"))
	cfg.Retry.Delay = parseDuration(getEnv("RETRY_DELAY", "2s"))

	// Circuit breaker configuration
	cfg.CircuitBreaker.Threshold = parseInt(getEnv("CIRCUIT_BREAKER_THRESHOLD", "5"))
	cfg.CircuitBreaker.Timeout = parseDuration(getEnv("CIRCUIT_BREAKER_TIMEOUT", "30s"))

	// Rate limit configuration
	cfg.RateLimit.RequestsPerSecond = parseFloat(getEnv("RATE_LIMIT_RPS", "5"))
	cfg.RateLimit.Burst = parseInt(getEnv("RATE_LIMIT_BURST", "5"))

	// Search session configuration
	cfg.Sessions.TTL = parseDuration(getEnv("SESSION_TTL", "10m"))
	cfg.Sessions.CleanupInterval = parseDuration(getEnv("SESSION_CLEANUP_INTERVAL", "1m"))

	cfg.Assets.Dir = getEnv("ASSETS_DIR", "./assets")

	// Scheduler configuration
	cfg.Scheduler.Enabled = parseBool(getEnv("SCHEDULER_ENABLED", "true"))
	cfg.Scheduler.AttributionReload = getEnv("ATTRIBUTION_RELOAD", "@every 10m")
	cfg.Scheduler.BreakerReport = getEnv("BREAKER_REPORT", "@every 1m")

	if !cfg.HasCredentials() {
		zap.L().Warn("Weather API credentials missing, searches will report the service as unavailable",
			zap.Bool("accuweather_key_set", cfg.WeatherAPI.AccuWeatherAPIKey != ""),
			zap.Bool("openweather_key_set", cfg.WeatherAPI.OpenWeatherAPIKey != ""))
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(value string) time.Duration {
	duration, err := time.ParseDuration(value)
	if err != nil {
		zap.L().Warn("Failed to parse duration", zap.String("value", value), zap.Error(err))
		return 0
	}
	return duration
}

func parseInt(value string) int {
	intValue, err := strconv.Atoi(value)
	if err != nil {
		zap.L().Warn("Failed to parse int", zap.String("value", value), zap.Error(err))
		return 0
	}
	return intValue
}

func parseFloat(value string) float64 {
	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		zap.L().Warn("Failed to parse float", zap.String("value", value), zap.Error(err))
		return 0
	}
	return floatValue
}

func parseBool(value string) bool {
	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		zap.L().Warn("Failed to parse bool", zap.String("value", value), zap.Error(err))
		return false
	}
	return boolValue
}
