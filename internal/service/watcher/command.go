package watcher

import (
	"context"
	"fmt"
	"time"

	"github.com/oshokin/accirescue/internal/config"
	"github.com/oshokin/accirescue/internal/logger"
	pb "github.com/oshokin/accirescue/internal/pb/v1"
	"github.com/oshokin/accirescue/internal/service/common"
)

// Options controls the watcher stream and configuration.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// ServerAddress provides an optional gRPC server address override.
	ServerAddress string
	// ReconnectInterval is the delay before reopening a broken stream.
	ReconnectInterval time.Duration
}

// DefaultReconnectInterval defines the delay between stream reconnects.
const DefaultReconnectInterval = 5 * time.Second

// Run follows the event stream until a redirect event arrives or ctx ends.
// The state is polled each time the server confirms the subscription, so an
// acceptance made while disconnected or while subscribing still ends the watch.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "alert-watcher")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	reconnectInterval := opts.ReconnectInterval
	if reconnectInterval <= 0 {
		reconnectInterval = DefaultReconnectInterval
	}

	serverAddress := cfg.ServerAddress
	if opts.ServerAddress != "" {
		serverAddress = opts.ServerAddress
	}

	client, err := common.Dial(ctx, serverAddress, common.WithCallTimeout(cfg.Timeout))
	if err != nil {
		return fmt.Errorf("dial server: %w", err)
	}

	defer func() {
		_ = client.Close()
	}()

	logger.InfoKV(ctx, "Watching alert outcomes", "server_address", serverAddress)

	for {
		err = client.Watch(ctx, func(event *pb.Event) bool {
			logger.InfoKV(ctx, "Alert update", "responder", event.Responder, "response", event.Response)

			return !event.GetRedirect()
		}, common.WithSubscribed(func() bool {
			return !accepted(ctx, client)
		}))

		switch {
		case ctx.Err() != nil:
			logger.Info(ctx, "Context canceled, exiting")

			return nil
		case err == nil:
			logger.Info(ctx, "Alert accepted, exiting")

			return nil
		}

		logger.ErrorKV(ctx, "Watch stream failed", "error", err)

		select {
		case <-ctx.Done():
			logger.Info(ctx, "Context canceled, exiting")

			return nil
		case <-time.After(reconnectInterval):
		}
	}
}

// accepted polls the state and reports whether the alert was already taken.
func accepted(ctx context.Context, client *common.Client) bool {
	state, err := client.GetState(ctx)
	if err != nil {
		logger.ErrorKV(ctx, "Check state failed", "error", err)

		return false
	}

	if !state.GetIsLocked() {
		return false
	}

	logger.InfoKV(ctx, "Alert already accepted", "winner", state.GetAcceptedBy())

	return true
}
