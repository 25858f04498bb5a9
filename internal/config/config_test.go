package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keys = []string{
	"APP_NAME", "APP_PORT", "SEED_ON_START", "LOG_LEVEL", "LOG_DEVELOPMENT", "STORE_DRIVER",
	"DATABASE_URL", "DB_HOST", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_PORT", "DB_TIMEZONE",
	"JWT_SECRET", "JWT_TTL_HOURS", "KAFKA_BROKERS", "KAFKA_TOPIC", "ALERT_CRON_SCHEDULE", "TIMEZONE",
}

// clearEnv blanks every key so values from the host do not leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoad_MemoryDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.App.Port)
	assert.True(t, cfg.App.SeedOnStart)
	assert.Equal(t, StoreDriverMemory, cfg.Store.Driver)
	assert.Equal(t, 24*time.Hour, cfg.JWT.TTL)
	assert.False(t, cfg.Kafka.Enabled())
	assert.Equal(t, "*/15 * * * *", cfg.Alerts.CronSchedule)
}

func TestLoad_FromEnvFile(t *testing.T) {
	clearEnv(t)
	for _, k := range keys {
		// godotenv never overrides variables that are already set.
		require.NoError(t, os.Unsetenv(k))
	}
	path := filepath.Join(t.TempDir(), ".env")
	content := "JWT_SECRET=abc\nDB_USER=stock\nDB_NAME=stock\nKAFKA_BROKERS=k1:9092, k2:9092\nJWT_TTL_HOURS=8\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Cleanup(func() {
		for _, k := range keys {
			_ = os.Unsetenv(k)
		}
	})

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 8*time.Hour, cfg.JWT.TTL)
	assert.Contains(t, cfg.Database.DSN(), "dbname=stock")
	assert.Contains(t, cfg.Database.DSN(), "TimeZone=Asia/Jakarta")
}

func TestValidate_Failures(t *testing.T) {
	base := func() *Config {
		return &Config{
			App:    AppConfig{Port: "3000"},
			Store:  StoreConfig{Driver: StoreDriverMemory},
			JWT:    JWTConfig{Secret: "x", TTL: time.Hour},
			Alerts: AlertConfig{CronSchedule: "@hourly", Timezone: "UTC"},
		}
	}
	require.NoError(t, base().Validate())

	cases := map[string]func(c *Config){
		"no secret":       func(c *Config) { c.JWT.Secret = "" },
		"bad driver":      func(c *Config) { c.Store.Driver = "sqlite" },
		"postgres no dsn": func(c *Config) { c.Store.Driver = StoreDriverPostgres },
		"kafka no topic":  func(c *Config) { c.Kafka.Brokers = []string{"k:9092"} },
		"bad timezone":    func(c *Config) { c.Alerts.Timezone = "Mars/Olympus" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := base()
			mutate(c)
			assert.Error(t, c.Validate())
		})
	}

	var nilCfg *Config
	assert.Error(t, nilCfg.Validate())
}

func TestDSN_PrefersURL(t *testing.T) {
	d := DatabaseConfig{URL: "postgres://u:p@h/db", Host: "ignored"}
	assert.Equal(t, "postgres://u:p@h/db", d.DSN())
}
