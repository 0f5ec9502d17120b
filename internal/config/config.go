package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"smartreminder/internal/clock"
	"smartreminder/internal/database"
	"smartreminder/internal/services"
	"smartreminder/internal/utils"

	"github.com/joho/godotenv"
)

// Store backends
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config is everything the server reads from the environment
type Config struct {
	Port              string
	GinMode           string
	Store             string
	DatabaseDSN       string
	SchedulerInterval time.Duration
	Zone              clock.Zone
	Email             services.EmailConfig
	CORSOrigins       []string
	Debug             bool
}

// LoadDotEnv reads .env if present. A missing file is not an error.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

// Load builds a Config from the environment
func Load() (*Config, error) {
	cfg := &Config{
		Port:    getEnv("PORT", "8080"),
		GinMode: os.Getenv("GIN_MODE"),
		Store:   strings.ToLower(getEnv("STORE", StorePostgres)),
		Email: services.EmailConfig{
			APIKey:    os.Getenv("SENDGRID_API_KEY"),
			FromEmail: os.Getenv("SENDGRID_FROM_EMAIL"),
			FromName:  getEnv("SENDGRID_FROM_NAME", "SmartReminder"),
		},
		CORSOrigins: utils.SplitList(getEnv("CORS_ORIGINS", "*")),
	}

	var err error
	if cfg.SchedulerInterval, err = getSeconds("SCHEDULER_INTERVAL", services.DefaultInterval); err != nil {
		return nil, err
	}
	if cfg.Email.Timeout, err = getSeconds("SENDGRID_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.Debug, err = getBool("DEBUG", false); err != nil {
		return nil, err
	}
	if cfg.Zone, err = clock.LoadZone(getEnv("REMINDER_TIMEZONE", clock.DefaultZone)); err != nil {
		return nil, err
	}

	switch cfg.Store {
	case StoreMemory:
	case StorePostgres:
		if cfg.DatabaseDSN, err = databaseDSN(cfg.GinMode); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown STORE %q, expected %s or %s", cfg.Store, StorePostgres, StoreMemory)
	}

	return cfg, nil
}

// databaseDSN uses DATABASE_URL in release mode, DB_* parameters otherwise
func databaseDSN(ginMode string) (string, error) {
	if url := os.Getenv("DATABASE_URL"); url != "" || ginMode == "release" {
		if url == "" {
			return "", fmt.Errorf("required environment variable DATABASE_URL is not set")
		}
		return url, nil
	}

	var missing []string
	required := func(key string) string {
		value, ok := os.LookupEnv(key)
		if !ok || value == "" {
			missing = append(missing, key)
		}
		return value
	}
	host := required("DB_HOST")
	user := required("DB_USER")
	password := required("DB_PASSWORD")
	dbname := required("DB_NAME")
	port := required("DB_PORT")
	if len(missing) > 0 {
		return "", fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}

	return database.BuildDSN(host, user, password, dbname, port, os.Getenv("DB_SSL_MODE")), nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getSeconds(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	seconds, err := strconv.Atoi(value)
	if err != nil || seconds <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a positive number of seconds", key, value)
	}
	return time.Duration(seconds) * time.Second, nil
}

func getBool(key string, fallback bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return b, nil
}
