package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var ErrParsingConfig = errors.New("failed to parse environment variables into config")

// Config is the process configuration, read from the environment and an
// optional .env file in the working directory.
type Config struct {
	// Root is the notes directory all document paths are confined to
	Root string `env:"ROOT" envDefault:"."`
	// Settings is the bbolt settings file, relative to Root unless absolute
	Settings string `env:"SETTINGS" envDefault:".notelock"`
	// Password is used instead of prompting when set
	Password string `env:"PASSWORD"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"warn"`
	LogJSON  bool   `env:"LOG_JSON" envDefault:"false"`
}

const Prefix = "NOTELOCK_"

// Load reads Config. Missing .env files are ignored; variables already set
// in the environment win over .env values.
func Load(dotenv ...string) (*Config, error) {
	if err := godotenv.Load(dotenv...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: Prefix}); err != nil {
		return nil, errors.Join(ErrParsingConfig, err)
	}
	return cfg, nil
}

// SettingsPath resolves the settings file against Root
func (c *Config) SettingsPath() string {
	if c.Settings == "" || filepath.IsAbs(c.Settings) {
		return c.Settings
	}
	return filepath.Join(c.Root, c.Settings)
}
