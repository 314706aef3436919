package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/danielhkuo/campus-ballot/db"
)

type Config struct {
	Port            int           `envconfig:"PORT" default:"3318"`
	DatabaseURL     string        `envconfig:"DATABASE_URL"`
	DatabaseType    string        `envconfig:"DATABASE_TYPE" default:"sqlite"`
	JWTSecret       string        `envconfig:"JWT_SECRET"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
	Env             string        `envconfig:"APP_ENV" default:"dev"`
	SentryDSN       string        `envconfig:"SENTRY_DSN"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// ParseFlags loads environment defaults, then applies CLI flags on top
func ParseFlags(args []string) (Config, error) {
	var cfg Config

	// Environment first; flags below use these values as their defaults
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("invalid environment: %w", err)
	}

	fs := flag.NewFlagSet("campus-ballot", flag.ContinueOnError)

	fs.IntVar(&cfg.Port, "p", cfg.Port, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", cfg.DatabaseURL, "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", cfg.DatabaseType, "Database type (sqlite, postgres or pgx)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.StringVar(&cfg.Env, "env", cfg.Env, "Environment (dev or prod)")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.JWTSecret, "jwt-secret", cfg.JWTSecret, "JWT signing secret (prefer env)")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("invalid port %d", cfg.Port)
	}
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}
	if _, err := db.DriverName(cfg.DatabaseType); err != nil {
		return Config{}, err
	}

	// Secrets - MUST be provided
	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET required")
	}

	return cfg, nil
}
