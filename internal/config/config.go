// Package config loads blackjack settings from an HCL file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Config represents the complete configuration
type Config struct {
	Game   *GameSettings   `hcl:"game,block"`
	Server *ServerSettings `hcl:"server,block"`
	UI     *UISettings     `hcl:"ui,block"`
}

// GameSettings controls the table
type GameSettings struct {
	StartingBalance int   `hcl:"starting_balance,optional"`
	Chips           []int `hcl:"chips,optional"`
	Seed            int64 `hcl:"seed,optional"`
}

// ServerSettings controls the WebSocket session server
type ServerSettings struct {
	Address     string `hcl:"address,optional"`
	Port        int    `hcl:"port,optional"`
	IdleTimeout int    `hcl:"idle_timeout,optional"`
	LogLevel    string `hcl:"log_level,optional"`
}

// UISettings controls the terminal front end
type UISettings struct {
	LogFile  string `hcl:"log_file,optional"`
	LogLevel string `hcl:"log_level,optional"`
	NoColor  bool   `hcl:"no_color,optional"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Game: &GameSettings{
			StartingBalance: 1000,
			Chips:           []int{1, 10, 100, 500, 1000},
		},
		Server: &ServerSettings{
			Address:     "localhost",
			Port:        8080,
			IdleTimeout: 300,
			LogLevel:    "info",
		},
		UI: &UISettings{
			LogFile:  "blackjack.log",
			LogLevel: "info",
		},
	}
}

// Load reads configuration from filename. A missing file yields the defaults.
func Load(filename string) (*Config, error) {
	src, err := os.ReadFile(filename)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(src, filename)
}

// Parse decodes HCL source and fills unset values from Default
func Parse(src []byte, filename string) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var cfg Config
	diags = gohcl.DecodeBody(file.Body, nil, &cfg)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	defaults := Default()

	if c.Game == nil {
		c.Game = defaults.Game
	}
	if c.Game.StartingBalance == 0 {
		c.Game.StartingBalance = defaults.Game.StartingBalance
	}
	if len(c.Game.Chips) == 0 {
		c.Game.Chips = defaults.Game.Chips
	}

	if c.Server == nil {
		c.Server = defaults.Server
	}
	if c.Server.Address == "" {
		c.Server.Address = defaults.Server.Address
	}
	if c.Server.Port == 0 {
		c.Server.Port = defaults.Server.Port
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = defaults.Server.IdleTimeout
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = defaults.Server.LogLevel
	}

	if c.UI == nil {
		c.UI = defaults.UI
	}
	if c.UI.LogFile == "" {
		c.UI.LogFile = defaults.UI.LogFile
	}
	if c.UI.LogLevel == "" {
		c.UI.LogLevel = defaults.UI.LogLevel
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Game.StartingBalance <= 0 {
		return fmt.Errorf("starting balance must be positive: %d", c.Game.StartingBalance)
	}
	for _, chip := range c.Game.Chips {
		if chip <= 0 {
			return fmt.Errorf("chip values must be positive: %d", chip)
		}
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Server.IdleTimeout < 0 {
		return fmt.Errorf("idle timeout must not be negative: %d", c.Server.IdleTimeout)
	}
	if _, err := log.ParseLevel(c.Server.LogLevel); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if _, err := log.ParseLevel(c.UI.LogLevel); err != nil {
		return fmt.Errorf("ui: %w", err)
	}
	return nil
}

// ServerAddress returns the host:port the server listens on
func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// IdleTimeout returns how long a server session may sit without actions
func (c *Config) IdleTimeout() time.Duration {
	return time.Duration(c.Server.IdleTimeout) * time.Second
}
