package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Config is loaded once at startup from the environment (.env in dev).
type Config struct {
	Port           string
	DatabaseDSN    string
	AllowedOrigins []string

	// Matching tunables. Defaults follow the engine's contract; override
	// per deployment, not per request.
	DateSlackDays   int
	AcceptThreshold float64

	LogLevel  string
	LogFormat string // "json" or "text"
}

func Load() *Config {
	return &Config{
		Port:            getenv("PORT", "8080"),
		DatabaseDSN:     buildDSN(),
		AllowedOrigins:  strings.Split(getenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"), ","),
		DateSlackDays:   getenvInt("RECON_DATE_SLACK_DAYS", 5),
		AcceptThreshold: getenvFloat("RECON_ACCEPT_THRESHOLD", 70),
		LogLevel:        getenv("LOG_LEVEL", "info"),
		LogFormat:       getenv("LOG_FORMAT", "text"),
	}
}

func buildDSN() string {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		return dsn
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		getenv("DB_HOST", "localhost"),
		getenv("DB_USER", "postgres"),
		getenv("DB_PASSWORD", "postgres"),
		getenv("DB_NAME", "reconciliation"),
		getenv("DB_PORT", "5432"),
		getenv("DB_SSLMODE", "disable"),
	)
}

// InitDB opens the postgres connection or exits.
func InitDB(cfg *Config) *gorm.DB {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		logrus.WithError(err).Fatal("failed to connect to database")
	}
	return db
}

// NewLogger builds the process-wide structured logger.
func NewLogger(cfg *Config) *logrus.Logger {
	log := logrus.New()
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(lvl)
	}
	if cfg.LogFormat == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	return log
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getenvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
