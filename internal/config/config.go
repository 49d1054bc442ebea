// Package config reads the server configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the game server settings.
//
//	PORT / GAME_PORT  listen port, PORT wins when both are set (default 8081)
//	CATALOG_PATH      ability catalog YAML, built-in catalog when empty
//	SCENARIO_DIR      directory of scenario YAML files
//	JOURNAL_PATH      SQLite journal file, journaling is off when empty
//	DODGE_TIMEOUT     how long an interactive dodge waits before rolling
type Config struct {
	Port         string        `env:"PORT"`
	GamePort     string        `env:"GAME_PORT" envDefault:"8081"`
	CatalogPath  string        `env:"CATALOG_PATH"`
	ScenarioDir  string        `env:"SCENARIO_DIR" envDefault:"scenarios"`
	JournalPath  string        `env:"JOURNAL_PATH" envDefault:"data/journal.db"`
	DodgeTimeout time.Duration `env:"DODGE_TIMEOUT" envDefault:"5s"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses a Config.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.DodgeTimeout <= 0 {
		return Config{}, fmt.Errorf("parse env: DODGE_TIMEOUT must be positive, got %s", cfg.DodgeTimeout)
	}
	return cfg, nil
}

// ListenAddr returns the address to bind.
func (c Config) ListenAddr() string {
	if c.Port != "" {
		return ":" + c.Port
	}
	return ":" + c.GamePort
}
