package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/oshokin/release-channels/internal/config"
	"github.com/oshokin/release-channels/internal/domain/channel"
	"github.com/oshokin/release-channels/internal/logger"
	"github.com/oshokin/release-channels/internal/service/common"
)

// Options configures how the CLI reaches the daemon.
type Options struct {
	// ConfigPath to YAML settings file, defaults to standard filename if empty.
	ConfigPath string

	// DaemonAddress overrides the listen address from config when specified.
	DaemonAddress string

	// Output receives command results; defaults to stdout.
	Output io.Writer
}

// Fetch checks the selected channel and prints the update metadata or null.
func Fetch(ctx context.Context, opts *Options) error {
	return withClient(ctx, opts, "fetch", func(ctx context.Context, c *common.Client) error {
		metadata, err := c.FetchUpdate(ctx)
		if err != nil {
			return err
		}

		if metadata == nil {
			logger.Info(ctx, "Application is up to date")
		} else {
			logger.InfoKV(ctx, "Update available", "version", metadata.Version, "current_version", metadata.CurrentVersion)
		}

		return writeResult(opts, metadata)
	})
}

// Install installs the update found by the last fetch.
func Install(ctx context.Context, opts *Options) error {
	return withClient(ctx, opts, "install", func(ctx context.Context, c *common.Client) error {
		if err := c.InstallUpdate(ctx); err != nil {
			return err
		}

		logger.Info(ctx, "Update installed, restart the application to use it")

		return nil
	})
}

// GetChannel prints the selected channel tag.
func GetChannel(ctx context.Context, opts *Options) error {
	return withClient(ctx, opts, "channel", func(ctx context.Context, c *common.Client) error {
		ch, err := c.GetChannel(ctx)
		if err != nil {
			return err
		}

		return writeResult(opts, ch)
	})
}

// SetChannel selects the channel named by tag.
// Unknown tags are rejected before contacting the daemon.
func SetChannel(ctx context.Context, opts *Options, tag string) error {
	ch, err := channel.Parse(tag)
	if err != nil {
		return err
	}

	return withClient(ctx, opts, "channel", func(ctx context.Context, c *common.Client) error {
		if err := c.SetChannel(ctx, ch); err != nil {
			return err
		}

		logger.InfoKV(ctx, "Release channel selected", "channel", ch.String())

		return nil
	})
}

// ListChannels prints every channel the daemon accepts.
func ListChannels(ctx context.Context, opts *Options) error {
	return withClient(ctx, opts, "channel", func(ctx context.Context, c *common.Client) error {
		channels, err := c.AvailableChannels(ctx)
		if err != nil {
			return err
		}

		return writeResult(opts, channels)
	})
}

// withClient loads settings, dials the daemon and runs call with a named logger.
func withClient(
	ctx context.Context,
	opts *Options,
	name string,
	call func(ctx context.Context, c *common.Client) error,
) error {
	ctx = logger.WithName(ctx, name)

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}

	address := cfg.ListenAddress
	if opts.DaemonAddress != "" {
		address = opts.DaemonAddress
	}

	// Identify current user and hostname for the daemon's request log.
	actor, err := common.DetectActor()
	if err != nil {
		logger.WarnKV(ctx, "Unable to detect actor", "error", err)
	}

	client, err := common.Dial(ctx, address, common.WithCallTimeout(cfg.Timeout), common.WithActor(actor))
	if err != nil {
		return err
	}

	defer func() {
		_ = client.Close()
	}()

	logger.DebugKV(ctx, "Connected to updater daemon", "daemon_address", address)

	return call(ctx, client)
}

// writeResult writes v to the configured output as a single JSON line.
func writeResult(opts *Options, v any) error {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	if err := json.NewEncoder(out).Encode(v); err != nil {
		return fmt.Errorf("write result: %w", err)
	}

	return nil
}
