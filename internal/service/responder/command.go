package responder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oshokin/accirescue/internal/config"
	domain "github.com/oshokin/accirescue/internal/domain/alert"
	"github.com/oshokin/accirescue/internal/logger"
	"github.com/oshokin/accirescue/internal/service/common"
)

// Options configures a single responder submission.
type Options struct {
	// ConfigPath to YAML settings file, defaults to standard filename if empty.
	ConfigPath string

	// ServerAddress overrides server address from config when specified.
	ServerAddress string

	// ResponderID is the identity to submit as; the host name when empty.
	ResponderID string

	// Decision is the raw answer, accept or reject.
	Decision string

	// RetryInterval is the delay between attempts after transport failures.
	RetryInterval time.Duration
}

// DefaultRetryInterval defines the delay between submission attempts.
const DefaultRetryInterval = 1 * time.Second

// Run submits the decision and retries until the server gives a definitive
// verdict or ctx ends. A conflict or validation verdict is returned as an error.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "alert-responder")

	// Validate locally before touching the network.
	decision, err := domain.ParseDecision(opts.Decision)
	if err != nil {
		return err
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}

	serverAddress := cfg.ServerAddress
	if opts.ServerAddress != "" {
		serverAddress = opts.ServerAddress
	}

	responderID := opts.ResponderID
	if responderID == "" {
		if responderID, err = common.DefaultResponderID(); err != nil {
			return err
		}
	}

	retryInterval := opts.RetryInterval
	if retryInterval <= 0 {
		retryInterval = DefaultRetryInterval
	}

	client, err := common.Dial(ctx, serverAddress, common.WithCallTimeout(cfg.Timeout))
	if err != nil {
		return err
	}

	defer func() {
		_ = client.Close()
	}()

	ctx = logger.WithFields(ctx, "responder_id", responderID, "decision", decision)
	logger.InfoKV(ctx, "Submitting decision", "server_address", serverAddress)

	// attempt submits once and returns (completed, error).
	attempt := func() (bool, error) {
		resp, err := client.Respond(ctx, responderID, decision)

		switch {
		case err == nil:
			logger.InfoKV(ctx, resp.GetMessage(), "outcome", resp.GetOutcome(), "alert_id", resp.AlertID)

			return true, nil
		case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrValidation):
			logger.WarnKV(ctx, "Submission refused", "error", err)

			return true, err
		default:
			logger.ErrorKV(ctx, "Respond failed", "error", err)

			return false, nil
		}
	}

	if done, err := attempt(); done {
		return err
	}

	ticker := time.NewTicker(retryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("no verdict received: %w", ctx.Err())
		case <-ticker.C:
			if done, err := attempt(); done {
				return err
			}
		}
	}
}
