package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port           string   `mapstructure:"PORT"`
	Env            string   `mapstructure:"ENV"`
	DatabaseURL    string   `mapstructure:"DATABASE_URL"`
	DBMaxConns     int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns     int32    `mapstructure:"DB_MIN_CONNS"`
	RedisURL       string   `mapstructure:"REDIS_URL"`
	AuthSigningKey string   `mapstructure:"AUTH_SIGNING_KEY"`
	AuthIssuer     string   `mapstructure:"AUTH_ISSUER"`
	AuthAudience   string   `mapstructure:"AUTH_AUDIENCE"`
	CORSOrigins    []string `mapstructure:"CORS_ORIGINS"`
	Timezone       string   `mapstructure:"TIMEZONE"`
	MigrationsDir  string   `mapstructure:"MIGRATIONS_DIR"`

	SlotGenEnabled    bool          `mapstructure:"SLOTGEN_ENABLED"`
	SlotGenInterval   time.Duration `mapstructure:"SLOTGEN_INTERVAL"`
	SlotGenWindowDays int           `mapstructure:"SLOTGEN_WINDOW_DAYS"`
	SlotGenRunOnStart bool          `mapstructure:"SLOTGEN_RUN_ON_START"`
	SlotGenLockTTL    time.Duration `mapstructure:"SLOTGEN_LOCK_TTL"`
}

var envKeys = []string{
	"PORT", "ENV", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS", "REDIS_URL",
	"AUTH_SIGNING_KEY", "AUTH_ISSUER", "AUTH_AUDIENCE", "CORS_ORIGINS", "TIMEZONE", "MIGRATIONS_DIR",
	"SLOTGEN_ENABLED", "SLOTGEN_INTERVAL", "SLOTGEN_WINDOW_DAYS", "SLOTGEN_RUN_ON_START", "SLOTGEN_LOCK_TTL",
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("CORS_ORIGINS", "http://localhost:4200")
	v.SetDefault("TIMEZONE", "Asia/Tehran")
	v.SetDefault("MIGRATIONS_DIR", "./migrations")
	v.SetDefault("SLOTGEN_ENABLED", true)
	v.SetDefault("SLOTGEN_INTERVAL", "24h")
	v.SetDefault("SLOTGEN_WINDOW_DAYS", 30)
	v.SetDefault("SLOTGEN_RUN_ON_START", true)
	v.SetDefault("SLOTGEN_LOCK_TTL", "10m")

	// Bind env vars explicitly so Unmarshal picks them up
	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if len(cfg.CORSOrigins) <= 1 {
		if origins := v.GetString("CORS_ORIGINS"); origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.IsDev() {
		log.Println("WARNING: running in DEVELOPMENT mode (ENV=development); unauthenticated requests act as admin.")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Location resolves TIMEZONE. All slot dates and times are wall-clock in it.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Validate checks that the configuration is safe to run.
func (c *Config) Validate() error {
	if !c.IsDev() && len(c.AuthSigningKey) < 32 {
		return fmt.Errorf("AUTH_SIGNING_KEY must be at least 32 bytes outside development (ENV=%q)", c.Env)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.SlotGenEnabled {
		if c.SlotGenInterval <= 0 {
			return fmt.Errorf("SLOTGEN_INTERVAL must be positive, got %s", c.SlotGenInterval)
		}
		if c.SlotGenWindowDays <= 0 {
			return fmt.Errorf("SLOTGEN_WINDOW_DAYS must be positive, got %d", c.SlotGenWindowDays)
		}
		if c.SlotGenLockTTL <= 0 {
			return fmt.Errorf("SLOTGEN_LOCK_TTL must be positive, got %s", c.SlotGenLockTTL)
		}
	}
	return nil
}
