package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	App struct {
		ENV string
	}

	Log struct {
		Level     string
		Format    string
		Component string
		Source    bool
	}

	DB struct {
		DSN      string
		Host     string
		Port     string
		User     string
		Password string
		Name     string
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	// Metrics is the ops listener exposing Prometheus metrics and liveness.
	Metrics struct {
		Addr string
	}

	Feed struct {
		DefaultPageSize int
		MaxPageSize     int
	}

	// Score holds the compatibility scorer weights. Defaults are the
	// documented interest/proximity/age split; tunable per deployment.
	Score struct {
		InterestWeight  float64
		ProximityWeight float64
		AgeWeight       float64
	}

	Retention struct {
		MessageDays   int
		IntervalHours int
	}
}

func New() *Config {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.App.ENV = getEnvDefault("APP_ENV", "development")

	// Logger
	cfg.Log.Level = getEnvDefault("LOG_LEVEL", "info")
	cfg.Log.Format = getEnvDefault("LOG_FORMAT", "text")
	cfg.Log.Component = getEnvDefault("LOG_COMPONENT", "kindred_server")
	cfg.Log.Source = isTruthy(os.Getenv("LOG_SOURCE"))

	// Database
	cfg.DB.DSN = os.Getenv("MYSQL_DSN")
	if cfg.DB.DSN == "" {
		cfg.DB.Host = getEnvDefault("DB_HOST", "localhost")
		cfg.DB.Port = getEnvDefault("DB_PORT", "3306")
		cfg.DB.User = getEnvDefault("DB_USER", "root")
		cfg.DB.Password = getEnvDefault("DB_PASSWORD", "root")
		cfg.DB.Name = getEnvDefault("DB_NAME", "kindred")

		cfg.DB.DSN = fmt.Sprintf(
			"%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
			cfg.DB.User, cfg.DB.Password, cfg.DB.Host, cfg.DB.Port, cfg.DB.Name,
		)
	}

	// Redis
	cfg.Redis.Addr = getEnvDefault("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnvDefault("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)

	// Ops
	cfg.Metrics.Addr = getEnvDefault("METRICS_ADDR", "127.0.0.1:9090")

	// Feed
	cfg.Feed.DefaultPageSize = getEnvInt("FEED_PAGE_SIZE", 20)
	cfg.Feed.MaxPageSize = getEnvInt("FEED_MAX_PAGE_SIZE", 100)

	// Scorer weights
	cfg.Score.InterestWeight = getEnvFloat("SCORE_WEIGHT_INTEREST", 0.4)
	cfg.Score.ProximityWeight = getEnvFloat("SCORE_WEIGHT_PROXIMITY", 0.4)
	cfg.Score.AgeWeight = getEnvFloat("SCORE_WEIGHT_AGE", 0.2)

	// Retention
	cfg.Retention.MessageDays = getEnvInt("RETENTION_MESSAGE_DAYS", 365)
	cfg.Retention.IntervalHours = getEnvInt("RETENTION_INTERVAL_HOURS", 24)

	return cfg
}

func getEnvDefault(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getEnvInt(k string, def int) int {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvFloat(k string, def float64) float64 {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}
