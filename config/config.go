package config

import (
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/sirupsen/logrus"
)

const DefaultAPIBaseURL = "http://localhost:5000/api"

type Config struct {
	APIBaseURL        string
	RequestTimeout    time.Duration
	RateLimit         int
	RateLimitInterval time.Duration
	PollInterval      time.Duration
	PollTimeout       time.Duration
	DBPath            string
	LogDir            string
	LogLevel          string
	MockPort          string
	SummaryDir        string
}

func LoadConfig() *Config {
	return &Config{
		APIBaseURL:        GetEnv("API_BASE_URL", DefaultAPIBaseURL),
		RequestTimeout:    getEnvAsDuration("REQUEST_TIMEOUT", 0),
		RateLimit:         getEnvAsInt("RATE_LIMIT", 0),
		RateLimitInterval: getEnvAsDuration("RATE_LIMIT_INTERVAL", 1*time.Second),
		PollInterval:      getEnvAsDuration("POLL_INTERVAL", 2*time.Second),
		PollTimeout:       getEnvAsDuration("POLL_TIMEOUT", 30*time.Minute),
		DBPath:            GetEnv("DB_PATH", "./data/jobs.db"),
		LogDir:            GetEnv("LOG_DIR", ""),
		LogLevel:          GetEnv("LOG_LEVEL", "info"),
		MockPort:          GetEnv("MOCK_PORT", "5000"),
		SummaryDir:        GetEnv("SUMMARY_DIR", "./summaries"),
	}
}

func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		logrus.WithFields(logrus.Fields{
			"key":          key,
			"value":        value,
			"defaultValue": defaultValue,
		}).Warn("Invalid duration, using default")
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		logrus.WithFields(logrus.Fields{
			"key":          key,
			"value":        value,
			"defaultValue": defaultValue,
		}).Warn("Invalid integer, using default")
	}
	return defaultValue
}

func ValidateConfig(cfg *Config) error {
	if cfg.APIBaseURL == "" {
		return errors.New("API base URL is required")
	}
	u, err := url.Parse(cfg.APIBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.Errorf("API base URL must be an absolute http(s) URL: %q", cfg.APIBaseURL)
	}
	if cfg.RequestTimeout < 0 {
		return errors.New("request timeout must not be negative")
	}
	if cfg.RateLimit < 0 {
		return errors.New("rate limit must not be negative")
	}
	if cfg.RateLimit > 0 && cfg.RateLimitInterval <= 0 {
		return errors.New("rate limit interval must be greater than 0")
	}
	if cfg.PollInterval <= 0 {
		return errors.New("poll interval must be greater than 0")
	}
	if cfg.PollTimeout <= 0 {
		return errors.New("poll timeout must be greater than 0")
	}
	if cfg.DBPath == "" {
		return errors.New("database path is required")
	}
	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		return errors.Wrap(err, "invalid log level")
	}
	return nil
}
