package detector

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/oshokin/accirescue/internal/config"
	"github.com/oshokin/accirescue/internal/detection"
	domain "github.com/oshokin/accirescue/internal/domain/alert"
	"github.com/oshokin/accirescue/internal/logger"
	pb "github.com/oshokin/accirescue/internal/pb/v1"
	"github.com/oshokin/accirescue/internal/service/common"
)

// Options configures one detection run.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// ServerAddress provides an optional gRPC server address override.
	ServerAddress string
	// FramePath is the image to evaluate.
	FramePath string
	// Location is where the camera is mounted.
	Location domain.Location
	// Detector overrides the configured detection service.
	Detector detection.Service
}

// errFrameRequired is returned when no frame path is given.
var errFrameRequired = errors.New("frame path must be provided")

// Run evaluates the frame and opens an alert on a positive verdict.
// It returns the opened alert, or nil when nothing was detected.
func Run(ctx context.Context, opts *Options) (*pb.OpenAlertResponse, error) {
	ctx = logger.WithName(ctx, "alert-dispatcher")

	if opts.FramePath == "" {
		return nil, errFrameRequired
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	frame, err := os.ReadFile(opts.FramePath)
	if err != nil {
		return nil, fmt.Errorf("read frame: %w", err)
	}

	detector := opts.Detector
	if detector == nil {
		detector = detection.NewStatic(cfg.Detection.Verdict)
	}

	ctx = logger.WithKV(ctx, "frame", opts.FramePath)

	detected, err := detector.Evaluate(ctx, frame)
	if err != nil {
		return nil, fmt.Errorf("evaluate frame: %w", err)
	}

	if !detected {
		logger.Info(ctx, "No accident detected")

		return nil, nil //nolint:nilnil // Nothing to open is not an error.
	}

	serverAddress := cfg.ServerAddress
	if opts.ServerAddress != "" {
		serverAddress = opts.ServerAddress
	}

	client, err := common.Dial(ctx, serverAddress, common.WithCallTimeout(cfg.Timeout))
	if err != nil {
		return nil, fmt.Errorf("dial server: %w", err)
	}

	defer func() {
		_ = client.Close()
	}()

	resp, err := client.OpenAlert(ctx, opts.Location)
	if err != nil {
		return nil, err
	}

	logger.InfoKV(ctx, "Accident detected, alert opened",
		"alert_id", resp.AlertID,
		"location", opts.Location.MapsLink(),
		"notified", resp.Notified,
		"failed", resp.Failed,
	)

	return resp, nil
}
