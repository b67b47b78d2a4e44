package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config comes entirely from the environment. With no variables set the
// server runs fully in-memory on the default port.
type Config struct {
	Addr          string `env:"ADDR" envDefault:":8080"`
	JWTSecret     string `env:"JWT_SECRET" envDefault:"dev-secret-change-me"`
	RedisAddr     string `env:"REDIS_ADDR"`
	NATSURL       string `env:"NATS_URL"`
	DBPath        string `env:"DB_PATH"`
	InboxPageSize int    `env:"INBOX_PAGE_SIZE" envDefault:"20"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
