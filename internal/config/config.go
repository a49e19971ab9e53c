// Package config loads client configuration from the environment, with an
// optional .env file for development.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config carries everything the CLI needs to reach the API and find its local
// session data.
type Config struct {
	BaseURL        string        `env:"CONFEIT_API_URL" envDefault:"http://localhost:8080/api"`
	DataDir        string        `env:"CONFEIT_DATA_DIR"`
	RequestTimeout time.Duration `env:"CONFEIT_TIMEOUT" envDefault:"10s"`
}

// Load reads .env when present, then the process environment. DataDir
// defaults to a confeit directory under the user config dir.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	if cfg.DataDir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return Config{}, fmt.Errorf("resolve user config dir: %w", err)
		}
		cfg.DataDir = filepath.Join(base, "confeit")
	}
	return cfg, nil
}
