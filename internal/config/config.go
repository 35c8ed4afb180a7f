package config

import (
	"errors"
	"fmt"
	"time"

	"gamebot/internal/logger"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	ErrNoTransport   = errors.New("neither BOT_TOKEN nor JWT_SECRET is set")
	ErrBadRateLimit  = errors.New("EVENT_RATE_LIMIT must not be negative")
	ErrBadRateWindow = errors.New("EVENT_RATE_WINDOW must be positive")
	ErrBadAPILimit   = errors.New("API_RATE_LIMIT must not be negative and API_RATE_WINDOW must be positive")
)

type Config struct {
	AppPort     string `env:"APP_PORT" envDefault:"8080"`
	BotToken    string `env:"BOT_TOKEN"`
	DatabaseURL string `env:"DATABASE_URL"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// websocket transport and /api are enabled only with a secret
	JWTSecret     string `env:"JWT_SECRET"`
	AllowedOrigin string `env:"ALLOWED_ORIGIN"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogJSON  bool   `env:"LOG_JSON" envDefault:"false"`

	// per-user inbound events, 0 disables the limiter
	EventRateLimit  int           `env:"EVENT_RATE_LIMIT" envDefault:"30"`
	EventRateWindow time.Duration `env:"EVENT_RATE_WINDOW" envDefault:"10s"`

	// per-client /api requests, 0 disables the limiter
	APIRateLimit  int           `env:"API_RATE_LIMIT" envDefault:"60"`
	APIRateWindow time.Duration `env:"API_RATE_WINDOW" envDefault:"1m"`

	Words WordFiles
}

// WordFiles points at optional newline separated word lists. Empty paths
// fall back to the embedded defaults.
type WordFiles struct {
	Targets    string `env:"WORDS_TARGETS_FILE"`
	Valid      string `env:"WORDS_VALID_FILE"`
	Dictionary string `env:"WORDS_DICTIONARY_FILE"`
	Common     string `env:"WORDS_COMMON_FILE"`
}

// Parse reads the process environment into a Config and validates it.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.BotToken == "" && c.JWTSecret == "" {
		return ErrNoTransport
	}
	if c.EventRateLimit < 0 {
		return ErrBadRateLimit
	}
	if c.EventRateWindow <= 0 {
		return ErrBadRateWindow
	}
	if c.APIRateLimit < 0 || c.APIRateWindow <= 0 {
		return ErrBadAPILimit
	}
	return nil
}

// BotEnabled reports whether the Telegram transport should start.
func (c *Config) BotEnabled() bool { return c.BotToken != "" }

// WebEnabled reports whether the websocket transport and token API should start.
func (c *Config) WebEnabled() bool { return c.JWTSecret != "" }

// Загрузка конфига из .env и окружения
func Load() *Config {
	_ = godotenv.Load()

	cfg, err := Parse()
	if err != nil {
		logger.Fatal("invalid configuration", "error", err)
	}
	return cfg
}
