package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/rileyhilliard/fleetwatch/internal/config"
	fwerrors "github.com/rileyhilliard/fleetwatch/internal/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	configInitForce  bool
	configInitGlobal bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Create, inspect and edit the fleetwatch config",
	Long: `Manage the YAML config fleetwatch reads its defaults from.

The config is looked up in this order:
  1. --config
  2. .fleetwatch.yaml in the current directory or a parent (up to the git root)
  3. ~/.config/fleetwatch/config.yaml

Any key can also be overridden from the environment, e.g.
FLEETWATCH_SERVER or FLEETWATCH_OUTPUT_COLOR.`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the defaults",
	Long: `Write .fleetwatch.yaml in the current directory (or the global config with
--global). On a terminal you're asked for the server URL; otherwise --server
or the default is used.

Examples:
  fleetwatch config init
  fleetwatch config init --server http://metrics.lan:8000/api/v1/system-info
  fleetwatch config init --global --force`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return configInit(configInitOptions{
			Global:      configInitGlobal,
			Force:       configInitForce,
			Server:      serverFlag,
			Interactive: isInteractive(),
		}, cmd.OutOrStdout())
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective config",
	Long: `Print the config fleetwatch would use right now: the file found by the
lookup order, environment overrides and global flags merged over defaults.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return configShow(cmd.OutOrStdout())
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set one key in the config file",
	Long: `Set a dotted key in the config file that would be loaded, keeping the rest
of the file as it is. The result is validated and the file is left unchanged
when the new value is rejected.

Examples:
  fleetwatch config set server http://metrics.lan:8000/api/v1/system-info
  fleetwatch config set poll_interval 30s
  fleetwatch config set output.color never`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return configSet(cfgFile, args[0], args[1], cmd.OutOrStdout())
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "overwrite an existing config file")
	configInitCmd.Flags().BoolVar(&configInitGlobal, "global", false, "write ~/.config/fleetwatch/config.yaml instead")
	configCmd.AddCommand(configInitCmd, configShowCmd, configSetCmd)
	rootCmd.AddCommand(configCmd)
}

func isInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// configInitOptions holds options for config init.
type configInitOptions struct {
	Global      bool
	Force       bool
	Server      string // Pre-specified server URL
	Interactive bool   // Prompt for missing values
	Dir         string // Target directory for the local file; cwd when empty
}

func configInit(opts configInitOptions, out io.Writer) error {
	path, err := initTarget(opts)
	if err != nil {
		return err
	}

	if _, err := os.Stat(path); err == nil && !opts.Force {
		if !opts.Interactive {
			return fwerrors.New(fwerrors.ErrConfig,
				fmt.Sprintf("Config file already exists: %s", path),
				"Use --force to overwrite")
		}

		var overwrite bool
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title(fmt.Sprintf("'%s' already exists. Overwrite?", path)).
					Value(&overwrite),
			),
		)
		if err := form.Run(); err != nil {
			return fwerrors.WrapWithCode(err, fwerrors.ErrConfig,
				"Failed to get user input",
				"Try running with --force to overwrite")
		}
		if !overwrite {
			fmt.Fprintln(out, "Cancelled.")
			return nil
		}
	}

	cfg := config.DefaultConfig()
	server := strings.TrimSpace(opts.Server)
	if server == "" && opts.Interactive {
		server = config.DefaultServer
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Metrics service URL").
					Description("Base URL of the system-info API").
					Placeholder(config.DefaultServer).
					Value(&server).
					Validate(func(s string) error {
						if strings.TrimSpace(s) == "" {
							return fmt.Errorf("server URL is required")
						}
						return nil
					}),
			),
		)
		if err := form.Run(); err != nil {
			return fwerrors.WrapWithCode(err, fwerrors.ErrConfig,
				"Failed to get user input",
				"Pass --server to skip the prompt")
		}
	}
	if server != "" {
		cfg.Server = strings.TrimRight(strings.TrimSpace(server), "/")
	}

	if err := config.Validate(cfg); err != nil {
		return err
	}
	if err := config.Save(path, cfg); err != nil {
		return fwerrors.WrapWithCode(err, fwerrors.ErrConfig,
			"Couldn't write "+path,
			"Check the directory is writable")
	}

	fmt.Fprintf(out, "Wrote %s\n", path)
	return nil
}

func initTarget(opts configInitOptions) (string, error) {
	if opts.Global {
		path := config.GlobalConfigPath()
		if path == "" {
			return "", fwerrors.New(fwerrors.ErrConfig,
				"Can't find your home directory for the global config",
				"Run without --global to write .fleetwatch.yaml here")
		}
		return path, nil
	}
	dir := opts.Dir
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, config.ConfigFileName), nil
}

func configShow(out io.Writer) error {
	cfg, path, err := loadConfig()
	if err != nil {
		return err
	}
	source := path
	if source == "" {
		source = "built-in defaults"
	}
	fmt.Fprintf(out, "# source: %s\n", source)
	return config.Encode(out, cfg)
}

// configSet writes key=value into the config that would be loaded and
// restores the previous contents if the result doesn't validate.
func configSet(explicit, key, value string, out io.Writer) error {
	path, err := config.Find(explicit)
	if err != nil {
		return err
	}
	if path == "" {
		return fwerrors.New(fwerrors.ErrConfig,
			"No config file to update",
			"Run 'fleetwatch config init' first")
	}

	previous, err := os.ReadFile(path)
	if err != nil {
		return fwerrors.WrapWithCode(err, fwerrors.ErrConfig,
			"Couldn't read "+path, "Check file permissions")
	}

	if err := config.SetValue(path, key, value); err != nil {
		return fwerrors.WrapWithCode(err, fwerrors.ErrConfig,
			fmt.Sprintf("Couldn't set %s", key),
			"Keys are dotted paths like output.color or demo.listen")
	}

	cfg, err := config.Load(path)
	if err == nil {
		err = config.Validate(cfg)
	}
	if err != nil {
		if restoreErr := os.WriteFile(path, previous, 0o644); restoreErr != nil {
			return fwerrors.WrapWithCode(restoreErr, fwerrors.ErrConfig,
				"Couldn't restore "+path+" after a rejected value",
				"Fix the file by hand")
		}
		return err
	}

	fmt.Fprintf(out, "Set %s = %s in %s\n", key, value, path)
	return nil
}
