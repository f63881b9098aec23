// Package config loads server configuration from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Server is the configuration of the cricketd server process.
type Server struct {
	// Port the HTTP server listens on.
	Port int `env:"PORT" envDefault:"8080"`

	// DBPath is the SQLite database path. ":memory:" for ephemeral runs.
	DBPath string `env:"DB_PATH" envDefault:"cricket.db"`

	// AllowedOrigins for CORS, comma separated.
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envDefault:"http://localhost:5173,http://localhost:8080"`
}

// FromEnv parses the server configuration from environment variables.
func FromEnv() (Server, error) {
	var cfg Server
	if err := env.Parse(&cfg); err != nil {
		return Server{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
