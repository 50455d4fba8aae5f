package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rileyhilliard/fleetwatch/internal/api"
	"github.com/rileyhilliard/fleetwatch/internal/config"
	fwerrors "github.com/rileyhilliard/fleetwatch/internal/errors"
	"github.com/rileyhilliard/fleetwatch/internal/logger"
	"github.com/rileyhilliard/fleetwatch/internal/ui"
	"github.com/spf13/cobra"
)

// FormatFlag holds --format for commands that print data.
type FormatFlag struct {
	Format string
}

// AddFormatFlag registers --format on a command. An empty value falls back
// to output.format from the config.
func AddFormatFlag(cmd *cobra.Command, flag *FormatFlag) {
	cmd.Flags().StringVar(&flag.Format, "format", "", "output format: text, json or yaml")
}

// Resolve picks the flag value over the configured default and validates it.
func (f FormatFlag) Resolve(cfg *config.Config) (string, error) {
	format := strings.ToLower(strings.TrimSpace(f.Format))
	if format == "" {
		format = cfg.Output.Format
	}
	for _, valid := range config.ValidFormats {
		if format == valid {
			return format, nil
		}
	}
	return "", fwerrors.New(fwerrors.ErrUsage,
		fmt.Sprintf("'%s' isn't an output format", f.Format),
		"Use one of: "+strings.Join(config.ValidFormats, ", "))
}

// ParseDuration parses a duration flag. Returns zero duration if the flag is empty.
func ParseDuration(name, flag string) (time.Duration, error) {
	if flag == "" {
		return 0, nil
	}

	duration, err := time.ParseDuration(flag)
	if err != nil || duration <= 0 {
		return 0, fwerrors.WrapWithCode(err, fwerrors.ErrUsage,
			fmt.Sprintf("%s '%s' doesn't look like a valid duration", name, flag),
			"Try something like 5s, 2m, or 500ms.")
	}
	return duration, nil
}

// ParseHostID parses a positional host id.
func ParseHostID(arg string) (int, error) {
	id, err := strconv.Atoi(strings.TrimPrefix(strings.TrimSpace(arg), "#"))
	if err != nil || id <= 0 {
		return 0, fwerrors.New(fwerrors.ErrUsage,
			fmt.Sprintf("'%s' isn't a host id", arg),
			"Host ids are positive integers. Run 'fleetwatch hosts' to list them.")
	}
	return id, nil
}

// loadConfig finds and loads the config, then applies the global flags.
// The returned path is empty when defaults were used.
func loadConfig() (*config.Config, string, error) {
	cfg, path, err := config.LoadOrDefault(cfgFile)
	if err != nil {
		return nil, "", err
	}
	if err := applyGlobalFlags(cfg); err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func applyGlobalFlags(cfg *config.Config) error {
	if serverFlag != "" {
		cfg.Server = strings.TrimRight(strings.TrimSpace(serverFlag), "/")
	}
	timeout, err := ParseDuration("--timeout", timeoutFlag)
	if err != nil {
		return err
	}
	if timeout > 0 {
		cfg.RequestTimeout = timeout
	}
	if debugFlag {
		cfg.Log.Level = "debug"
	}
	return nil
}

// session is what every client command starts from: a validated config and a
// transport client built from it.
type session struct {
	cfg    *config.Config
	path   string
	client *api.Client
	log    logger.Logger
}

// newSession loads and validates config, sets the color profile and builds
// the client. Logging goes to stderr; the monitor reconfigures it.
func newSession() (*session, error) {
	cfg, path, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if err := config.Validate(cfg, config.SkipDemo()); err != nil {
		return nil, err
	}

	ui.ApplyColorMode(cfg.Output.Color)
	if _, err := logger.Configure(logger.Options{Level: cfg.Log.Level}); err != nil {
		return nil, fwerrors.WrapWithCode(err, fwerrors.ErrConfig,
			"Couldn't set up logging", "Check log.level in your config")
	}

	client, err := api.New(api.Options{
		BaseURL:   cfg.Server,
		Timeout:   cfg.RequestTimeout,
		UserAgent: "fleetwatch/" + version,
		Logger:    logger.NewEnvLogger("api"),
	})
	if err != nil {
		return nil, err
	}

	return &session{
		cfg:    cfg,
		path:   path,
		client: client,
		log:    logger.NewEnvLogger("cli"),
	}, nil
}
