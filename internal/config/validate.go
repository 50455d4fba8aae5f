package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rileyhilliard/fleetwatch/internal/errors"
)

const (
	// MinHistoryLimit and MaxHistoryLimit bound the history window.
	// The metrics service rejects limits above 1000.
	MinHistoryLimit = 1
	MaxHistoryLimit = 1000

	// MinPollInterval stops a misconfigured interval from hammering the service.
	MinPollInterval = time.Second
)

// ValidColorModes lists accepted values for output.color.
var ValidColorModes = []string{"auto", "always", "never"}

// ValidFormats lists accepted values for output.format.
var ValidFormats = []string{"text", "json", "yaml"}

// ValidLogLevels lists accepted values for log.level.
var ValidLogLevels = []string{"debug", "info", "warn", "error"}

// ValidationOption controls validation behavior.
type ValidationOption func(*validationContext)

type validationContext struct {
	skipDemo bool
}

// SkipDemo disables validation of the demo section. Client commands use this
// so a bad demo block never blocks monitoring.
func SkipDemo() ValidationOption {
	return func(ctx *validationContext) {
		ctx.skipDemo = true
	}
}

// Validate checks the config for errors and returns structured error messages.
func Validate(cfg *Config, opts ...ValidationOption) error {
	ctx := &validationContext{}
	for _, opt := range opts {
		opt(ctx)
	}

	if cfg.Version > CurrentConfigVersion {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("This config is from the future (version %d, but fleetwatch only knows up to %d)", cfg.Version, CurrentConfigVersion),
			"Upgrade fleetwatch to a newer release")
	}

	if err := validateServer(cfg.Server); err != nil {
		return err
	}

	if cfg.PollInterval < MinPollInterval {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("poll_interval %s is too short", cfg.PollInterval),
			fmt.Sprintf("Use at least %s, e.g. poll_interval: 60s", MinPollInterval))
	}

	if cfg.RequestTimeout <= 0 {
		return errors.New(errors.ErrConfig,
			"request_timeout must be positive",
			"Try something like: request_timeout: 10s")
	}

	if cfg.RequestTimeout >= cfg.PollInterval {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("request_timeout (%s) must be shorter than poll_interval (%s)", cfg.RequestTimeout, cfg.PollInterval),
			"Otherwise a slow request could still be running when the next refresh is due")
	}

	if cfg.HistoryLimit < MinHistoryLimit || cfg.HistoryLimit > MaxHistoryLimit {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("history_limit %d is out of range", cfg.HistoryLimit),
			fmt.Sprintf("Pick a value between %d and %d", MinHistoryLimit, MaxHistoryLimit))
	}

	if cfg.RosterInterval < 0 {
		return errors.New(errors.ErrConfig,
			"roster_interval can't be negative",
			"Use 0 to fetch the host list once, or a duration like 5m")
	}

	if err := validateOneOf("output.color", cfg.Output.Color, ValidColorModes); err != nil {
		return err
	}
	if err := validateOneOf("output.format", cfg.Output.Format, ValidFormats); err != nil {
		return err
	}
	if cfg.Output.Warning <= 0 || cfg.Output.Critical > 100 || cfg.Output.Warning >= cfg.Output.Critical {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Thresholds don't make sense (warning %d, critical %d)", cfg.Output.Warning, cfg.Output.Critical),
			"Warning must be above 0 and below critical, critical at most 100")
	}
	if err := validateOneOf("log.level", strings.ToLower(cfg.Log.Level), ValidLogLevels); err != nil {
		return err
	}

	if !ctx.skipDemo {
		if err := validateDemo(cfg.Demo); err != nil {
			return err
		}
	}

	return nil
}

func validateServer(server string) error {
	if server == "" {
		return errors.New(errors.ErrConfig,
			"No server configured",
			"Set server in .fleetwatch.yaml or pass --server http://host:8000/api/v1/system-info")
	}

	u, err := url.Parse(server)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("'%s' isn't a usable server URL", server),
			"Use a full http(s) URL, e.g. http://localhost:8000/api/v1/system-info")
	}
	return nil
}

func validateDemo(d DemoConfig) error {
	if d.Listen == "" {
		return errors.New(errors.ErrConfig,
			"demo.listen is empty",
			"Use an address like 127.0.0.1:8000")
	}
	if d.SampleInterval < 100*time.Millisecond {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("demo.sample_interval %s is too short", d.SampleInterval),
			"Use at least 100ms")
	}
	if d.HistorySize < 1 {
		return errors.New(errors.ErrConfig,
			"demo.history_size must be at least 1",
			"Try demo.history_size: 720 (one hour at 5s samples)")
	}
	if d.TopProcesses < 0 {
		return errors.New(errors.ErrConfig,
			"demo.top_processes can't be negative",
			"Use 0 to skip process sampling")
	}
	return nil
}

func validateOneOf(key, value string, allowed []string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return errors.New(errors.ErrConfig,
		fmt.Sprintf("'%s' isn't a valid %s", value, key),
		"Valid options: "+strings.Join(allowed, ", "))
}
