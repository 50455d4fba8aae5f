package config

import "time"

// CurrentConfigVersion is the schema version for the config file.
// Increment when making breaking changes to the config structure.
const CurrentConfigVersion = 1

// DefaultServer matches the path prefix the metrics service mounts its API under.
const DefaultServer = "http://localhost:8000/api/v1/system-info"

// Config represents the complete .fleetwatch.yaml configuration file.
type Config struct {
	Version int `yaml:"version" mapstructure:"version"`

	// Server is the base URL of the metrics service. The four read endpoints
	// (/computers/, /computers/{id}, ...) are resolved relative to it.
	Server string `yaml:"server" mapstructure:"server"`

	// PollInterval is the cadence of host detail refreshes, measured from the
	// start of one cycle to the start of the next.
	PollInterval time.Duration `yaml:"poll_interval" mapstructure:"poll_interval"`

	// RequestTimeout bounds each individual HTTP request.
	RequestTimeout time.Duration `yaml:"request_timeout" mapstructure:"request_timeout"`

	// HistoryLimit is the size of the history window requested per cycle.
	HistoryLimit int `yaml:"history_limit" mapstructure:"history_limit"`

	// RosterInterval re-fetches the host list on this cadence. Zero fetches once.
	RosterInterval time.Duration `yaml:"roster_interval" mapstructure:"roster_interval"`

	Output OutputConfig `yaml:"output" mapstructure:"output"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
	Demo   DemoConfig   `yaml:"demo" mapstructure:"demo"`
}

// OutputConfig controls how results are printed.
type OutputConfig struct {
	// Color mode: auto, always, never.
	Color string `yaml:"color" mapstructure:"color"`

	// Format for one-shot commands: text, json, yaml.
	Format string `yaml:"format" mapstructure:"format"`

	// Thresholds for metric coloring (percent).
	Warning  int `yaml:"warning" mapstructure:"warning"`
	Critical int `yaml:"critical" mapstructure:"critical"`
}

// LogConfig controls diagnostic logging.
type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"`

	// File receives logs while the TUI is running. Empty discards them.
	File string `yaml:"file" mapstructure:"file"`
}

// DemoConfig configures the local demo metrics service.
type DemoConfig struct {
	Listen         string        `yaml:"listen" mapstructure:"listen"`
	SampleInterval time.Duration `yaml:"sample_interval" mapstructure:"sample_interval"`
	HistorySize    int           `yaml:"history_size" mapstructure:"history_size"`
	TopProcesses   int           `yaml:"top_processes" mapstructure:"top_processes"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version:        CurrentConfigVersion,
		Server:         DefaultServer,
		PollInterval:   60 * time.Second,
		RequestTimeout: 10 * time.Second,
		HistoryLimit:   100,
		RosterInterval: 0,
		Output: OutputConfig{
			Color:    "auto",
			Format:   "text",
			Warning:  70,
			Critical: 90,
		},
		Log: LogConfig{
			Level: "info",
		},
		Demo: DemoConfig{
			Listen:         "127.0.0.1:8000",
			SampleInterval: 5 * time.Second,
			HistorySize:    720,
			TopProcesses:   10,
		},
	}
}
