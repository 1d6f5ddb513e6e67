// Package config loads the bookstore service configuration.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	pkgconfig "github.com/Skotchmaster/bookstore/pkg/config"
)

type Config struct {
	pkgconfig.Config

	AdminUsername string
	AdminPassword string
}

// Load reads .env when present, then the process environment, and validates
// the keys the service cannot run without.
func Load(envFile string) (*Config, error) {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	} else if err != nil {
		slog.Info("env_file_not_found", "file", envFile, "reason", "using process environment")
	}

	cfg := &Config{
		Config:        pkgconfig.Load(),
		AdminUsername: os.Getenv("ADMIN_USERNAME"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if err := pkgconfig.NonEmpty(string(c.JWTAccessSecret), "JWT_SECRET"); err != nil {
		errs = append(errs, err)
	}
	if err := pkgconfig.NonEmpty(string(c.JWTRefreshSecret), "JWT_REFRESH_SECRET"); err != nil {
		errs = append(errs, err)
	}
	switch c.DBDriver {
	case "postgres":
		if err := pkgconfig.NonEmpty(c.DatabaseURL, "DATABASE_URL"); err != nil {
			errs = append(errs, err)
		}
	case "sqlite":
		if c.DatabaseURL == "" {
			c.DatabaseURL = "bookstore.db"
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver))
	}
	if (c.AdminUsername == "") != (c.AdminPassword == "") {
		errs = append(errs, errors.New("ADMIN_USERNAME and ADMIN_PASSWORD must be set together"))
	}
	return errors.Join(errs...)
}
