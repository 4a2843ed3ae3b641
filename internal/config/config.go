package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	Port           string `mapstructure:"PORT"`
	Addr           string `mapstructure:"ADDR"`
	PostgresURL    string `mapstructure:"POSTGRES_URL"`
	RedisURL       string `mapstructure:"REDIS_URL"`
	MongoURI       string `mapstructure:"MONGO_URI"`
	MongoDatabase  string `mapstructure:"MONGO_DATABASE"`
	KafkaBrokers   string `mapstructure:"KAFKA_BROKERS"`
	KafkaTopic     string `mapstructure:"KAFKA_TOPIC"`
	KafkaGroup     string `mapstructure:"KAFKA_GROUP"`
	IdleTimeout    int    `mapstructure:"IDLE_TIMEOUT"`
	SweepInterval  int    `mapstructure:"SWEEP_INTERVAL"`
	StatsInterval  int    `mapstructure:"STATS_INTERVAL"`
	BookTTL        int    `mapstructure:"BOOK_TTL"`
	RandomStart    bool   `mapstructure:"RANDOM_START"`
	SearchVariety  bool   `mapstructure:"SEARCH_VARIETY"`
	Connect4Depth  int    `mapstructure:"CONNECT4_DEPTH"`
	TicTacToeDepth int    `mapstructure:"TICTACTOE_DEPTH"`
	LogLevel       string `mapstructure:"LOG_LEVEL"`
}

// Durations are configured in whole seconds.
var defaults = map[string]any{
	"PORT":            "",
	"ADDR":            ":8080",
	"POSTGRES_URL":    "",
	"REDIS_URL":       "",
	"MONGO_URI":       "",
	"MONGO_DATABASE":  "intelligence",
	"KAFKA_BROKERS":   "",
	"KAFKA_TOPIC":     "game-events",
	"KAFKA_GROUP":     "analytics-consumer",
	"IDLE_TIMEOUT":    1800,
	"SWEEP_INTERVAL":  60,
	"STATS_INTERVAL":  30,
	"BOOK_TTL":        0,
	"RANDOM_START":    false,
	"SEARCH_VARIETY":  false,
	"CONNECT4_DEPTH":  5,
	"TICTACTOE_DEPTH": 9,
	"LOG_LEVEL":       "info",
}

// Load reads defaults, then the optional file at path, then the
// environment, later sources winning.
func Load(path string) (*Config, error) {
	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Connect4Depth < 1 || c.TicTacToeDepth < 1 {
		return fmt.Errorf("%w: search depths must be positive", ErrInvalidConfig)
	}
	if c.IdleTimeout < 1 || c.SweepInterval < 1 || c.StatsInterval < 1 {
		return fmt.Errorf("%w: intervals must be positive", ErrInvalidConfig)
	}
	if c.BookTTL < 0 {
		return fmt.Errorf("%w: BOOK_TTL must not be negative", ErrInvalidConfig)
	}
	return nil
}

// ListenAddr prefers PORT, as set by most hosting platforms, over ADDR.
func (c *Config) ListenAddr() string {
	if c.Port != "" {
		return ":" + c.Port
	}
	return c.Addr
}

func (c *Config) Brokers() []string {
	var out []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

func (c *Config) IdleAfter() time.Duration  { return time.Duration(c.IdleTimeout) * time.Second }
func (c *Config) SweepEvery() time.Duration { return time.Duration(c.SweepInterval) * time.Second }
func (c *Config) StatsEvery() time.Duration { return time.Duration(c.StatsInterval) * time.Second }
func (c *Config) BookExpiry() time.Duration { return time.Duration(c.BookTTL) * time.Second }

func NewLogger(level string) (*zap.SugaredLogger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if strings.EqualFold(level, "debug") {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return logger.Sugar(), nil
}
