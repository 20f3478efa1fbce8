package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"google.golang.org/grpc"

	api "github.com/oshokin/accirescue/internal/api/grpc/arbitration"
	"github.com/oshokin/accirescue/internal/api/http/respond"
	"github.com/oshokin/accirescue/internal/broadcast"
	"github.com/oshokin/accirescue/internal/config"
	"github.com/oshokin/accirescue/internal/logger"
	"github.com/oshokin/accirescue/internal/notify/mirror"
	"github.com/oshokin/accirescue/internal/notify/sms"
	pb "github.com/oshokin/accirescue/internal/pb/v1"
	"github.com/oshokin/accirescue/internal/repository/records"
	"github.com/oshokin/accirescue/internal/service/dispatch"
	"github.com/oshokin/accirescue/internal/version"
)

// Options controls the alert-server process and configuration.
type Options struct {
	// ConfigPath specifies the path to settings YAML file.
	ConfigPath string
	// ListenAddress provides an optional listen address override for the gRPC server.
	ListenAddress string
	// HTTPAddress provides an optional listen address override for the responder gateway.
	HTTPAddress string
	// RecordsFile overrides the JSON-lines notification log path.
	RecordsFile string
}

// shutdownTimeout bounds the graceful stop of the HTTP gateway.
const shutdownTimeout = 10 * time.Second

// ErrNoServerAddress indicates missing server configuration.
var ErrNoServerAddress = errors.New("no server address configured")

// Run starts the gRPC server and the responder gateway and blocks until
// context is canceled or one of them stops.
//
//nolint:funlen // Process wiring reads best top to bottom.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "alert-server")
	logger.InfoKV(ctx, "Starting alert server", version.Fields()...)

	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	if settings.LogLevel != "" && !logger.Configure(settings.LogLevel) {
		logger.WarnKV(ctx, "Unknown log level, keeping default", "log_level", settings.LogLevel)
	}

	listenAddress, err := resolveListenAddress(settings.ServerAddress, opts.ListenAddress)
	if err != nil {
		return fmt.Errorf("resolve listen address: %w", err)
	}

	httpAddress := settings.HTTPAddress
	if opts.HTTPAddress != "" {
		httpAddress = opts.HTTPAddress
	}

	if opts.RecordsFile != "" {
		settings.RecordsFile = opts.RecordsFile
	}

	store, closeStore, err := openStore(ctx, settings)
	if err != nil {
		return err
	}

	defer closeStore()

	var workers sync.WaitGroup

	defer workers.Wait()

	hub := broadcast.NewHub(broadcast.DefaultBuffer)
	defer hub.Close()

	if settings.Redis.Address != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     settings.Redis.Address,
			Password: settings.Redis.Password,
			DB:       settings.Redis.DB,
		})

		defer func() {
			_ = client.Close()
		}()

		workers.Go(func() {
			mirror.New(client, settings.Redis.Channel).Run(ctx, hub)
		})
	}

	dispatcher := dispatch.New(store.directory, newGateway(ctx, settings.SMS), store.log, dispatch.Options{
		ResponseURL:   settings.ResponseURL,
		RadiusKM:      settings.Dispatch.RadiusKM,
		MaxRecipients: settings.Dispatch.MaxRecipients,
		SpeedKMH:      settings.Dispatch.SpeedKMH,
	})

	svc := newService(hub, dispatcher, store.log)

	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", listenAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", listenAddress, err)
	}

	grpcServer := grpc.NewServer()
	pb.RegisterAlertServiceServer(grpcServer, api.NewServer(svc))

	gateway := respond.New(ctx, svc)

	logger.InfoKV(ctx, "Alert server listening",
		"grpc_address", listenAddress,
		"http_address", httpAddress,
		"records_file", settings.RecordsFile,
		"mongo", settings.Mongo.URI != "",
		"redis", settings.Redis.Address != "",
		"sms", settings.SMS.Enabled(),
	)

	errs := make(chan error, 2)

	go func() {
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errs <- fmt.Errorf("serve gRPC: %w", err)

			return
		}

		errs <- nil
	}()

	go func() {
		if err := gateway.Start(httpAddress); err != nil {
			errs <- fmt.Errorf("serve HTTP: %w", err)

			return
		}

		errs <- nil
	}()

	var runErr error

	select {
	case <-ctx.Done():
	case runErr = <-errs:
	}

	logger.Info(ctx, "Shutting down servers")

	// Closing the hub ends Watch streams and realtime connections first,
	// otherwise the graceful stops would wait on them forever.
	hub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := gateway.Shutdown(shutdownCtx); err != nil {
		logger.ErrorKV(ctx, "HTTP gateway shutdown failed", "error", err)
	}

	grpcServer.GracefulStop()

	logger.Info(ctx, "Servers stopped")

	return runErr
}

// storage bundles the notification log and the responder directory.
type storage struct {
	log       records.Repository
	directory records.Directory
}

// openStore picks Mongo when configured and the JSON-lines file otherwise.
// Responders from the settings file are always part of the directory.
func openStore(ctx context.Context, settings *config.Config) (*storage, func(), error) {
	static := records.StaticDirectory(settings.Responders)

	if settings.Mongo.URI == "" {
		var log records.Repository
		if settings.RecordsFile != "" {
			log = records.NewFileRepository(settings.RecordsFile)
		}

		return &storage{log: log, directory: static}, func() {}, nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, settings.Timeout)
	defer cancel()

	repo, err := records.ConnectMongo(connectCtx, settings.Mongo.URI, settings.Mongo.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("connect mongo: %w", err)
	}

	closeFn := func() {
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), settings.Timeout)
		defer cancel()

		if err := repo.Close(closeCtx); err != nil {
			logger.ErrorKV(ctx, "Failed to disconnect mongo", "error", err)
		}
	}

	return &storage{
		log:       repo,
		directory: records.MultiDirectory{static, repo},
	}, closeFn, nil
}

// newGateway returns the Twilio gateway when credentials are configured and a
// logging stand-in otherwise.
func newGateway(ctx context.Context, settings config.SMS) dispatch.Gateway {
	if !settings.Enabled() {
		logger.Warn(ctx, "SMS credentials not configured, messages will only be logged")

		return sms.Log{}
	}

	return sms.NewTwilio(settings.AccountSID, settings.AuthToken, settings.FromNumber)
}

// resolveListenAddress determines the listen address for the gRPC server.
// If override is provided, uses it directly. Otherwise extracts port from configAddr.
func resolveListenAddress(configAddr, override string) (string, error) {
	if override != "" {
		return override, nil
	}

	if configAddr == "" {
		return "", ErrNoServerAddress
	}

	_, port, err := net.SplitHostPort(configAddr)
	if err != nil {
		return "", fmt.Errorf("invalid server address format %q: %w", configAddr, err)
	}

	return ":" + port, nil
}
