package config

import (
	"fmt"
	"time"

	"github.com/yourusername/winsync/internal/types"
)

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	if err := validateSettings(&c.Settings); err != nil {
		return fmt.Errorf("settings: %w", err)
	}
	if err := validateWindow(&c.Window); err != nil {
		return fmt.Errorf("window: %w", err)
	}
	return nil
}

func validateSettings(s *Settings) error {
	if s.SocketPath == "" {
		return fmt.Errorf("socketPath must not be empty")
	}

	durations := []struct {
		name  string
		value string
	}{
		{"timeout", s.Timeout},
		{"frameInterval", s.FrameInterval},
		{"confirmTimeout", s.ConfirmTimeout},
	}
	for _, d := range durations {
		if d.value == "" {
			continue
		}
		v, err := time.ParseDuration(d.value)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", d.name, d.value, err)
		}
		if v <= 0 {
			return fmt.Errorf("%s must be positive, got %s", d.name, d.value)
		}
	}

	return nil
}

func validateWindow(w *WindowConfig) error {
	sizes := []struct {
		name  string
		value string
	}{
		{"minimumSize", w.MinimumSize},
		{"widgetSize", w.WidgetSize},
	}
	for _, sz := range sizes {
		if sz.value == "" {
			continue
		}
		v, err := types.ParseVec2(sz.value)
		if err != nil {
			return fmt.Errorf("%s: %w", sz.name, err)
		}
		if v.W() <= 0 || v.H() <= 0 {
			return fmt.Errorf("%s must be positive in both dimensions, got %s", sz.name, sz.value)
		}
	}
	return nil
}
