package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// BotConfig drives cmd/autobet-bot.
type BotConfig struct {
	APIURL string `env:"API_URL" envDefault:"http://localhost:8080"`
	WSURL  string `env:"WS_URL" envDefault:"ws://localhost:8080/api/stream"`
	APIKey string `env:"API_KEY" envDefault:""`

	Game         string        `env:"BOT_GAME" envDefault:"dice"`
	Stake        int64         `env:"BOT_STAKE" envDefault:"100"`
	Count        int           `env:"BOT_COUNT" envDefault:"20"`
	Target       float64       `env:"BOT_TARGET" envDefault:"50.5"`
	Over         bool          `env:"BOT_OVER" envDefault:"true"`
	OnLossPct    float64       `env:"BOT_ON_LOSS_PCT" envDefault:"0"`
	OnWinPct     float64       `env:"BOT_ON_WIN_PCT" envDefault:"0"`
	StopOnProfit int64         `env:"BOT_STOP_ON_PROFIT" envDefault:"0"`
	StopOnLoss   int64         `env:"BOT_STOP_ON_LOSS" envDefault:"0"`
	Timeout      time.Duration `env:"BOT_TIMEOUT" envDefault:"5m"`
}

func LoadBot() (BotConfig, error) {
	var cfg BotConfig
	err := env.Parse(&cfg)
	return cfg, err
}
