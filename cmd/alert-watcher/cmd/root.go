package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/oshokin/accirescue/internal/config"
	"github.com/oshokin/accirescue/internal/logger"
	"github.com/oshokin/accirescue/internal/service/watcher"
	"github.com/oshokin/accirescue/internal/version"
)

var (
	// cfgPath stores the configuration file path.
	cfgPath string
	// reconnectInterval is the delay between stream reconnects.
	reconnectInterval time.Duration
	// logLevel overrides the default log level.
	logLevel string

	// rootCmd represents the base command for following alert outcomes.
	rootCmd = &cobra.Command{
		Use:   "alert-watcher [server-address]",
		Short: "Follow the outcome of the current accident alert.",
		Long: `Subscribes to the alert server's event stream and logs every decision.

Exits once a responder accepts the alert. A broken stream is reopened after
the reconnect interval; the state is polled in between so an acceptance that
happened before connecting still ends the watch.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			if logLevel != "" && !logger.Configure(logLevel) {
				logger.WarnKV(ctx, "Unknown log level, keeping default", "log_level", logLevel)
			}

			var serverAddress string
			if len(args) > 0 {
				serverAddress = args[0]
			}

			return watcher.Run(ctx, &watcher.Options{
				ConfigPath:        cfgPath,
				ServerAddress:     serverAddress,
				ReconnectInterval: reconnectInterval,
			})
		},
	}
)

// Execute runs the alert-watcher CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().DurationVarP(&reconnectInterval, "reconnect", "r", watcher.DefaultReconnectInterval, "delay between stream reconnects")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
}
