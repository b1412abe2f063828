// Package config provides configuration management for the paper trading application.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Trading TradingConfig `mapstructure:"trading"`
	Risk    RiskConfig    `mapstructure:"risk"`
	Feed    FeedConfig    `mapstructure:"feed"`
	Storage StorageConfig `mapstructure:"storage"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// TradingConfig holds simulation parameters.
type TradingConfig struct {
	InitialBalance float64       `mapstructure:"initial_balance"`
	FillDelay      time.Duration `mapstructure:"fill_delay"`
	MarginRate     float64       `mapstructure:"margin_rate"`
	DefaultProduct string        `mapstructure:"default_product"` // MIS, NRML
}

// RiskConfig holds risk classification thresholds, as fractions of balance.
type RiskConfig struct {
	MediumThreshold float64 `mapstructure:"medium_threshold"`
	HighThreshold   float64 `mapstructure:"high_threshold"`
}

// FeedConfig holds market data feed configuration.
type FeedConfig struct {
	Mode         string        `mapstructure:"mode"` // "mock", "websocket"
	WSURL        string        `mapstructure:"ws_url"`
	TickInterval time.Duration `mapstructure:"tick_interval"`
	BasePrice    float64       `mapstructure:"base_price"`
	Volatility   float64       `mapstructure:"volatility"`
	Symbols      []string      `mapstructure:"symbols"`
}

// StorageConfig holds persistence configuration.
type StorageConfig struct {
	DBPath string `mapstructure:"db_path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Console    bool   `mapstructure:"console"`
	File       bool   `mapstructure:"file"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/paper-trader"
	}
	return filepath.Join(home, ".config", "paper-trader")
}

// Default returns the built-in configuration.
func Default() *Config {
	configDir := DefaultConfigDir()
	return &Config{
		Trading: TradingConfig{
			InitialBalance: 100000,
			FillDelay:      2 * time.Second,
			MarginRate:     0.20,
			DefaultProduct: "MIS",
		},
		Risk: RiskConfig{
			MediumThreshold: 0.6,
			HighThreshold:   0.3,
		},
		Feed: FeedConfig{
			Mode:         "mock",
			TickInterval: time.Second,
			BasePrice:    1000,
			Volatility:   0.002,
		},
		Storage: StorageConfig{
			DBPath: filepath.Join(configDir, "trader.db"),
		},
		Logging: LoggingConfig{
			Level:      "info",
			Console:    true,
			File:       true,
			FilePath:   filepath.Join(configDir, "logs", "trader.log"),
			MaxSize:    100,
			MaxBackups: 7,
			MaxAge:     30,
		},
	}
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	cfg := Default()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			if err := createTemplateConfig(configDir); err != nil {
				return nil, fmt.Errorf("creating config template: %w", err)
			}
			applyEnvOverrides(cfg)
			return cfg, cfg.Validate()
		}
		return nil, fmt.Errorf("loading config.toml: %w", err)
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config.toml: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides lets environment variables override file values.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PAPER_TRADER_BALANCE"); v != "" {
		if balance, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Trading.InitialBalance = balance
		}
	}
	if v := os.Getenv("PAPER_TRADER_FILL_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Trading.FillDelay = d
		}
	}
	if v := os.Getenv("PAPER_TRADER_DB"); v != "" {
		cfg.Storage.DBPath = v
	}
	if v := os.Getenv("PAPER_TRADER_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("PAPER_TRADER_FEED_URL"); v != "" {
		cfg.Feed.Mode = "websocket"
		cfg.Feed.WSURL = v
	}
}

// Validate checks configuration sanity.
func (c *Config) Validate() error {
	if c.Trading.InitialBalance <= 0 {
		return fmt.Errorf("trading.initial_balance must be positive, got %v", c.Trading.InitialBalance)
	}
	if c.Trading.FillDelay <= 0 {
		return fmt.Errorf("trading.fill_delay must be positive, got %v", c.Trading.FillDelay)
	}
	if c.Trading.MarginRate <= 0 || c.Trading.MarginRate > 1 {
		return fmt.Errorf("trading.margin_rate must be in (0, 1], got %v", c.Trading.MarginRate)
	}
	if c.Trading.DefaultProduct != "MIS" && c.Trading.DefaultProduct != "NRML" {
		return fmt.Errorf("trading.default_product must be MIS or NRML, got %q", c.Trading.DefaultProduct)
	}
	if c.Risk.HighThreshold <= 0 || c.Risk.MediumThreshold <= c.Risk.HighThreshold {
		return fmt.Errorf("risk thresholds must satisfy 0 < high < medium, got high=%v medium=%v",
			c.Risk.HighThreshold, c.Risk.MediumThreshold)
	}
	switch c.Feed.Mode {
	case "mock":
	case "websocket":
		if c.Feed.WSURL == "" {
			return fmt.Errorf("feed.ws_url is required when feed.mode is websocket")
		}
	default:
		return fmt.Errorf("feed.mode must be mock or websocket, got %q", c.Feed.Mode)
	}
	return nil
}

const configTemplate = `# paper-trader configuration

[trading]
initial_balance = 100000.0
fill_delay = "2s"
margin_rate = 0.2
default_product = "MIS"

[risk]
medium_threshold = 0.6
high_threshold = 0.3

[feed]
mode = "mock"
# ws_url = "wss://example.com/ticks"
tick_interval = "1s"
base_price = 1000.0
volatility = 0.002
symbols = ["RELIANCE", "TCS", "INFY"]

[storage]
# db_path = "/path/to/trader.db"

[logging]
level = "info"
console = true
file = true
max_size = 100
max_backups = 7
max_age = 30
`

// createTemplateConfig writes a commented config template for first runs.
func createTemplateConfig(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return err
	}
	path := filepath.Join(configDir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	return os.WriteFile(path, []byte(configTemplate), 0644)
}
