package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/accirescue/internal/config"
	domain "github.com/oshokin/accirescue/internal/domain/alert"
	"github.com/oshokin/accirescue/internal/logger"
	"github.com/oshokin/accirescue/internal/service/responder"
	"github.com/oshokin/accirescue/internal/version"
)

var (
	// cfgPath stores the configuration file path.
	cfgPath string
	// responderID is the identity to answer as.
	responderID string
	// serverAddress overrides the configured server address.
	serverAddress string
	// logLevel overrides the default log level.
	logLevel string

	// rootCmd is the base command; decisions are subcommands.
	rootCmd = &cobra.Command{
		Use:   "alert-responder",
		Short: "Answer the current accident alert.",
		Long: `Submits an accept or reject decision for the current accident alert.

The first acceptance wins the alert; later acceptances are refused with the
name of the winner. Rejections never block other responders.
Transport failures are retried until the server gives a definitive answer.`,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			if logLevel != "" && !logger.Configure(logLevel) {
				logger.WarnKV(cmd.Context(), "Unknown log level, keeping default", "log_level", logLevel)
			}
		},
	}
)

// decisionCommand builds the subcommand submitting one decision.
func decisionCommand(decision domain.Decision, short string) *cobra.Command {
	return &cobra.Command{
		Use:   string(decision),
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return responder.Run(ctx, &responder.Options{
				ConfigPath:    cfgPath,
				ServerAddress: serverAddress,
				ResponderID:   responderID,
				Decision:      string(decision),
			})
		},
	}
}

// Execute runs the alert-responder CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cfgPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	flags.StringVar(&responderID, "as", "", "responder identity, defaults to the host name")
	flags.StringVarP(&serverAddress, "server", "s", "", "alert server address")
	flags.StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		decisionCommand(domain.DecisionAccept, "Accept the alert and take the call."),
		decisionCommand(domain.DecisionReject, "Decline the alert and leave it to others."),
	)
}
