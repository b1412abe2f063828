package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"zero balance", func(c *Config) { c.Trading.InitialBalance = 0 }, true},
		{"negative fill delay", func(c *Config) { c.Trading.FillDelay = -time.Second }, true},
		{"margin rate above one", func(c *Config) { c.Trading.MarginRate = 1.5 }, true},
		{"bad product", func(c *Config) { c.Trading.DefaultProduct = "CNC" }, true},
		{"inverted risk thresholds", func(c *Config) {
			c.Risk.MediumThreshold = 0.2
			c.Risk.HighThreshold = 0.5
		}, true},
		{"websocket without url", func(c *Config) {
			c.Feed.Mode = "websocket"
			c.Feed.WSURL = ""
		}, true},
		{"websocket with url", func(c *Config) {
			c.Feed.Mode = "websocket"
			c.Feed.WSURL = "wss://example.com/ticks"
		}, false},
		{"unknown feed mode", func(c *Config) { c.Feed.Mode = "replay" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadCreatesTemplateOnFirstRun(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Trading.InitialBalance != 100000 {
		t.Errorf("expected default balance, got %v", cfg.Trading.InitialBalance)
	}

	if _, err := os.Stat(filepath.Join(dir, "config.toml")); err != nil {
		t.Errorf("expected config template to be written: %v", err)
	}
}

func TestLoadReadsTOML(t *testing.T) {
	dir := t.TempDir()
	toml := `
[trading]
initial_balance = 50000.0
fill_delay = "500ms"
margin_rate = 0.1
default_product = "NRML"
`
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(toml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Trading.InitialBalance != 50000 {
		t.Errorf("initial_balance = %v, want 50000", cfg.Trading.InitialBalance)
	}
	if cfg.Trading.FillDelay != 500*time.Millisecond {
		t.Errorf("fill_delay = %v, want 500ms", cfg.Trading.FillDelay)
	}
	if cfg.Trading.DefaultProduct != "NRML" {
		t.Errorf("default_product = %q, want NRML", cfg.Trading.DefaultProduct)
	}
	// Sections absent from the file keep their defaults.
	if cfg.Risk.MediumThreshold != 0.6 {
		t.Errorf("medium_threshold = %v, want 0.6", cfg.Risk.MediumThreshold)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PAPER_TRADER_BALANCE", "75000")
	t.Setenv("PAPER_TRADER_FILL_DELAY", "50ms")
	t.Setenv("PAPER_TRADER_DB", "/tmp/override.db")

	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Trading.InitialBalance != 75000 {
		t.Errorf("balance = %v, want 75000", cfg.Trading.InitialBalance)
	}
	if cfg.Trading.FillDelay != 50*time.Millisecond {
		t.Errorf("fill_delay = %v, want 50ms", cfg.Trading.FillDelay)
	}
	if cfg.Storage.DBPath != "/tmp/override.db" {
		t.Errorf("db_path = %q, want /tmp/override.db", cfg.Storage.DBPath)
	}
}
