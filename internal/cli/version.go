package cli

import (
	"io"
	"runtime"

	"github.com/rileyhilliard/fleetwatch/internal/config"
	"github.com/spf13/cobra"
)

// Build information, set through ldflags by the release build.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	versionShort  bool
	versionFormat FormatFlag
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of fleetwatch.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if versionShort || versionFormat.Format == "" {
			printVersion(cmd, versionShort)
			return nil
		}
		format, err := versionFormat.Resolve(config.DefaultConfig())
		if err != nil {
			return err
		}
		return writeFormatted(cmd.OutOrStdout(), format, currentBuild(), func(io.Writer) error {
			printVersion(cmd, false)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Print only the version number")
	AddFormatFlag(versionCmd, &versionFormat)
}

// buildInfo is the json/yaml form of 'fleetwatch version'.
type buildInfo struct {
	Version string `json:"version" yaml:"version"`
	Commit  string `json:"commit" yaml:"commit"`
	Built   string `json:"built" yaml:"built"`
	Go      string `json:"go" yaml:"go"`
	OS      string `json:"os" yaml:"os"`
	Arch    string `json:"arch" yaml:"arch"`
}

func currentBuild() buildInfo {
	return buildInfo{
		Version: version,
		Commit:  commit,
		Built:   date,
		Go:      runtime.Version(),
		OS:      runtime.GOOS,
		Arch:    runtime.GOARCH,
	}
}

func printVersion(cmd *cobra.Command, short bool) {
	if short {
		cmd.Println(version)
		return
	}

	cmd.Printf("fleetwatch %s\n", formatVersion(version))
	cmd.Printf("commit: %s\n", commit)
	cmd.Printf("built: %s\n", date)
	cmd.Printf("go: %s\n", runtime.Version())
	cmd.Printf("os/arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
}

// formatVersion ensures version has a 'v' prefix for display
func formatVersion(v string) string {
	if v == "" || v == "dev" {
		return v
	}
	if v[0] != 'v' {
		return "v" + v
	}
	return v
}

// SetVersionInfo sets the version information (called from main).
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
}

// GetVersion returns the current version string.
func GetVersion() string {
	return version
}
