package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"

	"google.golang.org/grpc"

	api "github.com/oshokin/release-channels/internal/api/grpc/updater"
	"github.com/oshokin/release-channels/internal/config"
	"github.com/oshokin/release-channels/internal/logger"
	repository "github.com/oshokin/release-channels/internal/repository/channel"
	"github.com/oshokin/release-channels/internal/service/remote"
	"github.com/oshokin/release-channels/internal/service/updater"
)

// Options controls the daemon process.
type Options struct {
	// ConfigPath specifies the path to settings YAML file.
	ConfigPath string
	// ListenAddress overrides the configured gRPC listen address.
	ListenAddress string
}

// Run starts the gRPC server and blocks until context is canceled or server stops.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "daemon")

	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	listenAddress := settings.ListenAddress
	if opts.ListenAddress != "" {
		listenAddress = opts.ListenAddress
	}

	svc, err := NewService(ctx, settings)
	if err != nil {
		return fmt.Errorf("initialise service: %w", err)
	}

	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", listenAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", listenAddress, err)
	}

	logger.InfoKV(ctx, "Updater daemon listening",
		"listen_address", lis.Addr().String(),
		"update_host", settings.UpdateHost,
		"current_version", settings.CurrentVersion,
	)

	return Serve(ctx, lis, svc)
}

// NewService builds the update orchestration described by settings.
// The persisted channel is read once here; failures fall back to stable.
func NewService(ctx context.Context, settings *config.Config) (*updater.Service, error) {
	channelPath, err := settings.ChannelPath()
	if err != nil {
		return nil, fmt.Errorf("resolve channel path: %w", err)
	}

	endpoints, err := updater.NewEndpointBuilder(settings.UpdateHost, settings.Org, settings.App)
	if err != nil {
		return nil, err
	}

	collaborator, err := remote.FromConfig(settings)
	if err != nil {
		return nil, fmt.Errorf("create update client: %w", err)
	}

	store := updater.LoadStore(logger.WithName(ctx, "store"), repository.NewFileRepository(channelPath))

	logger.InfoKV(ctx, "Release channel loaded", "channel", store.Get().String(), "path", channelPath)

	return updater.NewService(store, endpoints, collaborator), nil
}

// Serve answers update commands on lis until ctx is canceled.
func Serve(ctx context.Context, lis net.Listener, svc api.Service) error {
	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(api.LoggingInterceptor(ctx)))
	api.RegisterUpdaterServer(grpcServer, api.NewServer(svc))

	// Done channel is closed after GracefulStop finishes to ensure we block
	// until the server fully stops before returning.
	done := make(chan struct{})

	go func() {
		<-ctx.Done()
		logger.Info(ctx, "Shutting down gRPC server")
		grpcServer.GracefulStop()
		close(done)
	}()

	if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("serve gRPC: %w", err)
	}

	<-done
	logger.Info(ctx, "GRPC server stopped")

	return nil
}
