package config

// Config is the root configuration structure
type Config struct {
	Settings Settings     `yaml:"settings" json:"settings" toml:"settings"`
	Window   WindowConfig `yaml:"window" json:"window" toml:"window"`
}

// Settings contains global application settings. Durations use Go syntax
// ("500ms", "2s"); empty fields take their defaults.
type Settings struct {
	SocketPath     string `yaml:"socketPath" json:"socketPath" toml:"socketPath"`
	Timeout        string `yaml:"timeout" json:"timeout" toml:"timeout"`
	FrameInterval  string `yaml:"frameInterval" json:"frameInterval" toml:"frameInterval"`
	ConfirmTimeout string `yaml:"confirmTimeout" json:"confirmTimeout" toml:"confirmTimeout"`
	StatePath      string `yaml:"statePath,omitempty" json:"statePath,omitempty" toml:"statePath,omitempty"`
	JournalPath    string `yaml:"journalPath,omitempty" json:"journalPath,omitempty" toml:"journalPath,omitempty"`
	LogPath        string `yaml:"logPath,omitempty" json:"logPath,omitempty" toml:"logPath,omitempty"`
	MetricsAddr    string `yaml:"metricsAddr,omitempty" json:"metricsAddr,omitempty" toml:"metricsAddr,omitempty"`
}

// WindowConfig holds window properties applied whenever the config is
// (re)loaded. Sizes are "WxH".
type WindowConfig struct {
	MinimumSize string `yaml:"minimumSize,omitempty" json:"minimumSize,omitempty" toml:"minimumSize,omitempty"`
	WidgetSize  string `yaml:"widgetSize,omitempty" json:"widgetSize,omitempty" toml:"widgetSize,omitempty"`
	Resizable   *bool  `yaml:"resizable,omitempty" json:"resizable,omitempty" toml:"resizable,omitempty"`
}
