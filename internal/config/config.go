// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/joeshaw/envdecode"
)

// Config mirrors the environment surface of the service. All fields are
// optional: without database parameters the server runs on the in-memory
// store, without TLS material it serves plain HTTP.
type Config struct {
	Host string `env:"HOST,default=0.0.0.0"`
	Port string `env:"PORT,default=8080"`

	// Either a full DSN, or the individual POSTGRES_* parts.
	DSN              string `env:"TETOCA_PG_DSN"`
	PostgresUser     string `env:"POSTGRES_USER"`
	PostgresPassword string `env:"POSTGRES_PASSWORD"`
	PostgresServer   string `env:"POSTGRES_SERVER,default=localhost"`
	PostgresPort     string `env:"POSTGRES_PORT,default=5432"`
	PostgresDB       string `env:"POSTGRES_DB"`

	SecretKey     string `env:"SECRET_KEY"`
	Algorithm     string `env:"ALGORITHM,default=HS256"`
	ExpireMinutes int    `env:"ACCESS_TOKEN_EXPIRE_MINUTES,default=30"`

	SSLKey  string `env:"SSLKEY"`
	SSLCert string `env:"SSLCER"`

	RateBurst  int `env:"TETOCA_RATE_BURST,default=50"`
	RatePerSec int `env:"TETOCA_RATE_PER_SEC,default=25"`
}

// Load decodes the configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// DatabaseDSN returns the configured DSN, assembling it from the POSTGRES_*
// parts when no full DSN is set. Empty means "no database".
func (c Config) DatabaseDSN() string {
	if c.DSN != "" {
		return c.DSN
	}
	if c.PostgresDB == "" {
		return ""
	}
	u := url.URL{
		Scheme: "postgres",
		Host:   c.PostgresServer + ":" + c.PostgresPort,
		Path:   "/" + c.PostgresDB,
	}
	if c.PostgresUser != "" {
		u.User = url.UserPassword(c.PostgresUser, c.PostgresPassword)
	}
	return u.String()
}

// Addr returns the listen address.
func (c Config) Addr() string {
	return c.Host + ":" + c.Port
}

// TokenTTL returns the access token lifetime.
func (c Config) TokenTTL() time.Duration {
	return time.Duration(c.ExpireMinutes) * time.Minute
}
