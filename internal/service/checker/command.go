package checker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oshokin/release-channels/internal/config"
	"github.com/oshokin/release-channels/internal/domain/release"
	"github.com/oshokin/release-channels/internal/logger"
	"github.com/oshokin/release-channels/internal/service/common"
)

// Options controls the checker polling behavior and configuration.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// DaemonAddress provides an optional daemon address override.
	DaemonAddress string
	// PollInterval defines the interval between update checks.
	PollInterval time.Duration
	// AutoInstall installs the first update found and stops polling.
	AutoInstall bool
}

// DefaultPollInterval is used when no interval is provided.
const DefaultPollInterval = time.Hour

// errInstalled indicates that an update has been installed and polling should stop.
var errInstalled = errors.New("update installed")

// updater is the subset of the daemon client the checker uses.
type updater interface {
	FetchUpdate(ctx context.Context) (*release.Metadata, error)
	InstallUpdate(ctx context.Context) error
}

// Run checks for updates immediately and then on every interval until the
// context is canceled or, with AutoInstall, an update has been installed.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "checker")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	daemonAddress := cfg.ListenAddress
	if opts.DaemonAddress != "" {
		daemonAddress = opts.DaemonAddress
	}

	actor, err := common.DetectActor()
	if err != nil {
		return fmt.Errorf("detect actor: %w", err)
	}

	client, err := common.Dial(ctx, daemonAddress, common.WithCallTimeout(cfg.Timeout), common.WithActor(actor))
	if err != nil {
		return fmt.Errorf("dial daemon: %w", err)
	}

	defer func() {
		_ = client.Close()
	}()

	logger.InfoKV(ctx, "Polling for updates", "daemon_address", daemonAddress, "interval", interval(opts).String())

	return poll(ctx, client, opts)
}

// poll runs checks until cancellation or installation.
func poll(ctx context.Context, client updater, opts *Options) error {
	check := func() bool {
		err := checkOnce(ctx, client, opts.AutoInstall)
		switch {
		case errors.Is(err, errInstalled):
			logger.Info(ctx, "Update installed, exiting")
			return true
		case err != nil:
			logger.ErrorKV(ctx, "Update check failed", "error", err)
		}

		return false
	}

	if check() {
		return nil
	}

	ticker := time.NewTicker(interval(opts))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Context canceled, exiting")
			return nil
		case <-ticker.C:
			if check() {
				return nil
			}
		}
	}
}

// checkOnce fetches once and installs the result when requested.
// Returns errInstalled after a successful install.
func checkOnce(ctx context.Context, client updater, autoInstall bool) error {
	metadata, err := client.FetchUpdate(ctx)
	if err != nil {
		return err
	}

	if metadata == nil {
		logger.Debug(ctx, "No update available")
		return nil
	}

	logger.InfoKV(ctx, "Update available", "version", metadata.Version, "current_version", metadata.CurrentVersion)

	if !autoInstall {
		return nil
	}

	if err = client.InstallUpdate(ctx); err != nil {
		return err
	}

	return errInstalled
}

func interval(opts *Options) time.Duration {
	if opts.PollInterval <= 0 {
		return DefaultPollInterval
	}

	return opts.PollInterval
}
