// Package config reads server settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Addr string `env:"YOFIT_ADDR" envDefault:":8080"`

	DBDriver string `env:"YOFIT_DB_DRIVER" envDefault:"sqlite3"`
	DBDSN    string `env:"YOFIT_DB_DSN"    envDefault:"yofit.db"`

	RateLimitWindow time.Duration `env:"YOFIT_RATE_LIMIT_WINDOW" envDefault:"60s"`
	RateLimitMax    int           `env:"YOFIT_RATE_LIMIT_MAX"    envDefault:"60"`
	TrustedProxies  []string      `env:"YOFIT_TRUSTED_PROXIES"   envSeparator:","`

	JWTSecret string `env:"YOFIT_JWT_SECRET"`
	DevUser   string `env:"YOFIT_DEV_USER"`

	SnapshotTTL time.Duration `env:"YOFIT_SNAPSHOT_TTL" envDefault:"1h"`
	CatalogFile string        `env:"YOFIT_CATALOG_FILE"`
	SeedOnStart bool          `env:"YOFIT_SEED_ON_START" envDefault:"true"`

	Redis Redis
}

type Redis struct {
	Host     string `env:"REDIS_HOST"`
	Port     string `env:"REDIS_PORT"     envDefault:"6379"`
	Username string `env:"REDIS_USERNAME"`
	Password string `env:"REDIS_PASSWORD"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load reads optional dotenv files, then the environment. Variables already
// set in the environment win over dotenv values.
func Load(dotenv ...string) (Config, error) {
	if len(dotenv) == 0 {
		dotenv = []string{".env"}
	}
	for _, path := range dotenv {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", path, err)
		}
	}

	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.RateLimitWindow <= 0 {
		return fmt.Errorf("YOFIT_RATE_LIMIT_WINDOW must be positive, got %s", c.RateLimitWindow)
	}
	if c.RateLimitMax <= 0 {
		return fmt.Errorf("YOFIT_RATE_LIMIT_MAX must be positive, got %d", c.RateLimitMax)
	}
	switch c.DBDriver {
	case "sqlite3", "sqlite", "postgres", "postgresql":
	default:
		return fmt.Errorf("YOFIT_DB_DRIVER %q is not supported", c.DBDriver)
	}
	return nil
}
