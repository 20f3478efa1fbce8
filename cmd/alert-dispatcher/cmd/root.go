package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/accirescue/internal/config"
	domain "github.com/oshokin/accirescue/internal/domain/alert"
	"github.com/oshokin/accirescue/internal/logger"
	"github.com/oshokin/accirescue/internal/service/detector"
	"github.com/oshokin/accirescue/internal/version"
)

var (
	// cfgPath stores the configuration file path.
	cfgPath string
	// serverAddress overrides the configured server address.
	serverAddress string
	// location is where the camera is mounted.
	location domain.Location
	// logLevel overrides the default log level.
	logLevel string

	// rootCmd represents the base command for evaluating one camera frame.
	rootCmd = &cobra.Command{
		Use:   "alert-dispatcher <frame-file>",
		Short: "Open an alert when a camera frame shows an accident.",
		Long: `Evaluates a captured camera frame with the detection service.

When an accident is detected, asks the alert server to open a new alert at
the camera location, which texts the nearest responders.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			if logLevel != "" && !logger.Configure(logLevel) {
				logger.WarnKV(ctx, "Unknown log level, keeping default", "log_level", logLevel)
			}

			resp, err := detector.Run(ctx, &detector.Options{
				ConfigPath:    cfgPath,
				ServerAddress: serverAddress,
				FramePath:     args[0],
				Location:      location,
			})
			if err != nil {
				return err
			}

			if resp == nil {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no accident detected")

				return nil
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "alert %s opened, %d notified, %d failed\n",
				resp.AlertID, resp.Notified, resp.Failed)

			return nil
		},
	}
)

// Execute runs the alert-dispatcher CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().StringVarP(&serverAddress, "server", "s", "", "alert server address")
	rootCmd.Flags().Float64Var(&location.Latitude, "lat", 0, "camera latitude")
	rootCmd.Flags().Float64Var(&location.Longitude, "lon", 0, "camera longitude")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	_ = rootCmd.MarkFlagRequired("lat")
	_ = rootCmd.MarkFlagRequired("lon")
}
