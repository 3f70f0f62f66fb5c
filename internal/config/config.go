package config

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/yourusername/winsync/internal/client"
	"github.com/yourusername/winsync/internal/frame"
	"github.com/yourusername/winsync/internal/types"
	"github.com/yourusername/winsync/internal/windowinfo"
)

const (
	DefaultConfigDir  = ".config/winsync"
	DefaultConfigFile = "config.yaml"
)

// DefaultConfig returns the configuration used when no file exists
func DefaultConfig() *Config {
	return &Config{
		Settings: Settings{
			SocketPath:     client.DefaultSocketPath,
			Timeout:        client.DefaultTimeout.String(),
			FrameInterval:  frame.DefaultInterval.String(),
			ConfirmTimeout: windowinfo.DefaultConfirmTimeout.String(),
		},
		Window: WindowConfig{
			WidgetSize: windowinfo.DefaultWidgetSize.String(),
		},
	}
}

// LoadConfig loads configuration from the specified path or default location.
// If path is empty, ~/.config/winsync/config.{yaml,yml,json,toml} is tried in
// that order and DefaultConfig is returned when none exists.
// Format is picked by extension.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("cannot determine home directory: %w", err)
		}
		for _, name := range []string{"config.yaml", "config.yml", "config.json", "config.toml"} {
			candidate := filepath.Join(home, DefaultConfigDir, name)
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
		if path == "" {
			return DefaultConfig(), nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	return LoadConfigFromBytes(data, format)
}

// LoadConfigFromBytes loads configuration from raw bytes.
// format should be "yaml", "json" or "toml". Missing fields take defaults.
func LoadConfigFromBytes(data []byte, format string) (*Config, error) {
	cfg := DefaultConfig()

	switch format {
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case "json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	case "toml":
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse TOML config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format: %s", format)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetConfigPath returns the default config file path
func GetConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, DefaultConfigDir, DefaultConfigFile)
}

// GetTimeout returns the RPC timeout
func (c *Config) GetTimeout() time.Duration {
	return durationOr(c.Settings.Timeout, client.DefaultTimeout)
}

// GetFrameInterval returns the scheduler tick interval
func (c *Config) GetFrameInterval() time.Duration {
	return durationOr(c.Settings.FrameInterval, frame.DefaultInterval)
}

// GetConfirmTimeout returns how long to wait for an edge event
func (c *Config) GetConfirmTimeout() time.Duration {
	return durationOr(c.Settings.ConfirmTimeout, windowinfo.DefaultConfirmTimeout)
}

// GetWidgetSize returns the widget mode window size
func (c *Config) GetWidgetSize() types.Vec2 {
	if v, err := types.ParseVec2(c.Window.WidgetSize); err == nil {
		return v
	}
	return windowinfo.DefaultWidgetSize
}

// GetMinimumSize returns the configured minimum size, if any
func (c *Config) GetMinimumSize() (types.Vec2, bool) {
	if c.Window.MinimumSize == "" {
		return types.Vec2{}, false
	}
	v, err := types.ParseVec2(c.Window.MinimumSize)
	return v, err == nil
}

// WindowActions returns the actions that apply the window section
func (c *Config) WindowActions() []windowinfo.Action {
	var actions []windowinfo.Action
	if minimum, ok := c.GetMinimumSize(); ok {
		actions = append(actions, windowinfo.SetMinimumSize{Value: minimum})
	}
	if c.Window.Resizable != nil {
		actions = append(actions, windowinfo.SetResizable{Value: *c.Window.Resizable})
	}
	return actions
}

// Revision identifies the window section's content. Equal sections share a
// revision, so reloading an unchanged file re-applies nothing.
func (c *Config) Revision() string {
	data, _ := json.Marshal(c.Window)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:8])
}

func durationOr(s string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return def
}
