package doctor

import (
	"context"
	"errors"
	"fmt"

	"github.com/rileyhilliard/fleetwatch/internal/config"
	fwerrors "github.com/rileyhilliard/fleetwatch/internal/errors"
)

// ConfigFileCheck reports which config file is in use. Running on defaults
// is allowed, so a missing file only warns.
type ConfigFileCheck struct {
	ConfigPath string // Explicit path, or empty to search
}

func (c *ConfigFileCheck) Name() string     { return "config_file" }
func (c *ConfigFileCheck) Category() string { return CategoryConfig }

func (c *ConfigFileCheck) Run(context.Context) CheckResult {
	path, err := config.Find(c.ConfigPath)
	if err != nil {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    fwerrors.Summary(err),
			Suggestion: "Check the --config path and its permissions",
		}
	}

	if path == "" {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusWarn,
			Message:    "No config file found, using built-in defaults",
			Suggestion: "Run 'fleetwatch config init' to create .fleetwatch.yaml",
		}
	}

	return CheckResult{
		Name:    c.Name(),
		Status:  StatusPass,
		Message: fmt.Sprintf("Config file: %s", path),
	}
}

// ConfigValidCheck loads the effective config and validates it. Cfg is set
// after Run when the config is usable.
type ConfigValidCheck struct {
	// Load returns the effective config, flags and environment applied.
	Load func() (*config.Config, error)

	Cfg *config.Config
}

func (c *ConfigValidCheck) Name() string     { return "config_valid" }
func (c *ConfigValidCheck) Category() string { return CategoryConfig }

func (c *ConfigValidCheck) Run(context.Context) CheckResult {
	cfg, err := c.Load()
	if err == nil {
		err = config.Validate(cfg, config.SkipDemo())
	}
	if err != nil {
		var suggestion string
		var fe *fwerrors.Error
		if errors.As(err, &fe) {
			suggestion = fe.Suggestion
		}
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    fwerrors.Summary(err),
			Suggestion: suggestion,
		}
	}

	c.Cfg = cfg
	return CheckResult{
		Name:    c.Name(),
		Status:  StatusPass,
		Message: fmt.Sprintf("Server %s, refresh every %s", cfg.Server, cfg.PollInterval),
	}
}

// NewConfigChecks creates all config-related checks.
func NewConfigChecks(configPath string, load func() (*config.Config, error)) (*ConfigValidCheck, []Check) {
	valid := &ConfigValidCheck{Load: load}
	return valid, []Check{
		&ConfigFileCheck{ConfigPath: configPath},
		valid,
	}
}
