package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/accirescue/internal/config"
	"github.com/oshokin/accirescue/internal/logger"
	"github.com/oshokin/accirescue/internal/service/server"
	"github.com/oshokin/accirescue/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// httpAddress overrides the responder gateway listen address.
	httpAddress string
	// recordsFile overrides the notification log path.
	recordsFile string
	// logLevel overrides the configured log level.
	logLevel string

	// rootCmd represents the base command for running the alert server.
	rootCmd = &cobra.Command{
		Use:   "alert-server [listen-address]",
		Short: "Run the alert arbitration server.",
		Long: `Starts the alert server that decides which responder takes an accident alert.

The gRPC API is served on the port of server_addr from the configuration file,
or on the listen address given as argument (e.g., :9090, 0.0.0.0:8080).
Responders answer through the HTTP gateway on http_addr, which also pushes
outcome events to browsers over server-sent events and WebSocket.
Opening an alert texts nearby responders when SMS credentials are configured.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			applyLogLevel(ctx)

			var listenAddress string
			if len(args) > 0 {
				listenAddress = args[0]
			}

			options := &server.Options{
				ConfigPath:    configPath,
				ListenAddress: listenAddress,
				HTTPAddress:   httpAddress,
				RecordsFile:   recordsFile,
			}

			return server.Run(ctx, options)
		},
	}
)

// Execute runs the alert-server CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// applyLogLevel applies the --log-level flag when it was set.
func applyLogLevel(ctx context.Context) {
	if logLevel != "" && !logger.Configure(logLevel) {
		logger.WarnKV(ctx, "Unknown log level, keeping default", "log_level", logLevel)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().StringVar(&httpAddress, "http-addr", "", "responder gateway listen address")
	rootCmd.Flags().StringVarP(&recordsFile, "records-file", "r", "", "path to the JSON-lines notification log")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
}
