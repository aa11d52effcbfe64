package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type ServerConfig struct {
	PostgresDSN string `env:"POSTGRES_DSN,required,notEmpty"`
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`

	AdminAPIKey string `env:"ADMIN_API_KEY"`

	InitialBalance  int64         `env:"INITIAL_BALANCE" envDefault:"100000"`
	AutobetInterval time.Duration `env:"AUTOBET_INTERVAL" envDefault:"250ms"`
	SettleTimeout   time.Duration `env:"SETTLE_TIMEOUT" envDefault:"5s"`
	BetRatePerSec   float64       `env:"BET_RATE_PER_SEC" envDefault:"10"`
	BetRateBurst    int           `env:"BET_RATE_BURST" envDefault:"20"`
	EventBufferSize int           `env:"EVENT_BUFFER_SIZE" envDefault:"500"`

	// SettleURL points sessions at a remote House; empty settles locally.
	SettleURL    string `env:"SETTLE_URL"`
	SettleAPIKey string `env:"SETTLE_API_KEY"`

	SeedPlayerName string `env:"SEED_PLAYER_NAME"`
	SeedPlayerKey  string `env:"SEED_PLAYER_KEY"`
}

func LoadServer() (ServerConfig, error) {
	var cfg ServerConfig
	err := env.Parse(&cfg)
	return cfg, err
}
