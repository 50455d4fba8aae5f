package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/rileyhilliard/fleetwatch/internal/config"
	"github.com/rileyhilliard/fleetwatch/internal/demo"
	"github.com/rileyhilliard/fleetwatch/internal/logger"
	"github.com/spf13/cobra"
)

var (
	demoListenFlag   string
	demoIntervalFlag string
)

var serveDemoCmd = &cobra.Command{
	Use:   "serve-demo",
	Short: "Serve this machine's metrics through the same API fleetwatch reads",
	Long: `Run a small read-only metrics service exposing this machine as host 1.

Snapshots are sampled every demo.sample_interval and kept in memory, newest
last, up to demo.history_size. Nothing is written to disk.

Examples:
  fleetwatch serve-demo
  fleetwatch serve-demo --listen 0.0.0.0:8000
  # in another terminal
  fleetwatch monitor --server http://127.0.0.1:8000/api/v1/system-info`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveDemoCommand(cmd.Context(), cmd.ErrOrStderr())
	},
}

func init() {
	serveDemoCmd.Flags().StringVar(&demoListenFlag, "listen", "", "address to listen on (default: demo.listen)")
	serveDemoCmd.Flags().StringVar(&demoIntervalFlag, "sample-interval", "", "time between samples (default: demo.sample_interval)")
	rootCmd.AddCommand(serveDemoCmd)
}

func serveDemoCommand(ctx context.Context, stderr io.Writer) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	if demoListenFlag != "" {
		cfg.Demo.Listen = demoListenFlag
	}
	interval, err := ParseDuration("--sample-interval", demoIntervalFlag)
	if err != nil {
		return err
	}
	if interval > 0 {
		cfg.Demo.SampleInterval = interval
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	if _, err := logger.Configure(logger.Options{Level: cfg.Log.Level}); err != nil {
		return err
	}
	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	svc := demo.New(demo.Options{
		Sampler:     demo.NewSystemSampler(cfg.Demo.TopProcesses),
		Interval:    cfg.Demo.SampleInterval,
		HistorySize: cfg.Demo.HistorySize,
		Logger:      logger.NewEnvLogger("demo"),
	})

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(stderr, "Serving this machine as host %d on http://%s%s (Ctrl+C to stop)\n",
		demo.HostID, cfg.Demo.Listen, demo.BasePath)
	return svc.ListenAndServe(ctx, cfg.Demo.Listen)
}
