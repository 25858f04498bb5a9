package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Config represents the full application configuration surface.
type Config struct {
	App      AppConfig
	Log      LogConfig
	Store    StoreConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Kafka    KafkaConfig
	Alerts   AlertConfig
}

type AppConfig struct {
	Name        string
	Port        string
	SeedOnStart bool
}

type LogConfig struct {
	Level       string
	Development bool
}

// StoreConfig selects the ledger backend.
type StoreConfig struct {
	Driver string
}

type DatabaseConfig struct {
	URL      string
	Host     string
	User     string
	Password string
	Name     string
	Port     string
	Timezone string
}

// DSN returns DATABASE_URL when set, otherwise a key/value DSN built from the parts.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=%s",
		d.Host, d.User, d.Password, d.Name, d.Port, d.Timezone,
	)
}

type JWTConfig struct {
	Secret string
	TTL    time.Duration
}

// KafkaConfig is optional; an empty broker list disables the event stream.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

type AlertConfig struct {
	CronSchedule string
	Timezone     string
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// A missing .env is fine when the environment is already populated.
		_ = godotenv.Load()
	}

	ttlHours, err := strconv.Atoi(getenvWithDefault("JWT_TTL_HOURS", "24"))
	if err != nil {
		return nil, fmt.Errorf("JWT_TTL_HOURS: %w", err)
	}
	timezone := getenvWithDefault("TIMEZONE", "Asia/Jakarta")

	cfg := &Config{
		App: AppConfig{
			Name:        getenvWithDefault("APP_NAME", "go-stock-engine"),
			Port:        getenvWithDefault("APP_PORT", "3000"),
			SeedOnStart: getenvBool("SEED_ON_START", true),
		},
		Log: LogConfig{
			Level:       getenvWithDefault("LOG_LEVEL", "info"),
			Development: getenvBool("LOG_DEVELOPMENT", false),
		},
		Store: StoreConfig{
			Driver: getenvWithDefault("STORE_DRIVER", StoreDriverPostgres),
		},
		Database: DatabaseConfig{
			URL:      os.Getenv("DATABASE_URL"),
			Host:     getenvWithDefault("DB_HOST", "localhost"),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     os.Getenv("DB_NAME"),
			Port:     getenvWithDefault("DB_PORT", "5432"),
			Timezone: getenvWithDefault("DB_TIMEZONE", timezone),
		},
		JWT: JWTConfig{
			Secret: os.Getenv("JWT_SECRET"),
			TTL:    time.Duration(ttlHours) * time.Hour,
		},
		Kafka: KafkaConfig{
			Brokers: splitList(os.Getenv("KAFKA_BROKERS")),
			Topic:   getenvWithDefault("KAFKA_TOPIC", "stock-events"),
		},
		Alerts: AlertConfig{
			CronSchedule: getenvWithDefault("ALERT_CRON_SCHEDULE", "*/15 * * * *"),
			Timezone:     timezone,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.App.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	switch c.Store.Driver {
	case StoreDriverMemory:
	case StoreDriverPostgres:
		if c.Database.URL == "" && (c.Database.User == "" || c.Database.Name == "") {
			return errors.New("DATABASE_URL or DB_USER and DB_NAME must be provided")
		}
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q", StoreDriverPostgres, StoreDriverMemory)
	}

	if c.JWT.Secret == "" {
		return errors.New("JWT_SECRET must be provided")
	}
	if c.JWT.TTL <= 0 {
		return errors.New("JWT_TTL_HOURS must be positive")
	}

	if c.Kafka.Enabled() && c.Kafka.Topic == "" {
		return errors.New("KAFKA_TOPIC must not be empty when KAFKA_BROKERS is set")
	}

	if c.Alerts.CronSchedule == "" {
		return errors.New("ALERT_CRON_SCHEDULE must be provided")
	}
	if _, err := time.LoadLocation(c.Alerts.Timezone); err != nil {
		return fmt.Errorf("TIMEZONE: %w", err)
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
