package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/oshokin/release-channels/internal/config"
	"github.com/oshokin/release-channels/internal/logger"
	"github.com/oshokin/release-channels/internal/service/checker"
	"github.com/oshokin/release-channels/internal/service/client"
	"github.com/oshokin/release-channels/internal/service/daemon"
	"github.com/oshokin/release-channels/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// logLevel selects the minimum level written to stderr.
	logLevel string
	// daemonAddress overrides the configured daemon address.
	daemonAddress string
	// pollInterval is the delay between checks of the watch command.
	pollInterval time.Duration
	// autoInstall makes the watch command install the first update found.
	autoInstall bool

	// rootCmd represents the base command.
	rootCmd = &cobra.Command{
		Use:   "release-channels",
		Short: "Check for, download and apply application updates per release channel.",
		Long: `Keeps a desktop application up to date from the release channel the user selected.

The serve command runs the updater daemon that owns the selected channel and the
pending update. The other commands talk to a running daemon over gRPC and print
their results as JSON.`,
		SilenceUsage: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			level, ok := logger.ParseLogLevel(logLevel)
			if !ok {
				return fmt.Errorf("unknown log level %q", logLevel)
			}

			logger.SetLevel(level)

			return nil
		},
	}

	serveCmd = &cobra.Command{
		Use:   "serve [listen-address]",
		Short: "Run the updater daemon.",
		Long: `Starts the gRPC updater daemon.

The selected release channel is restored from the application config directory.
Listen address can be provided as argument to override config (e.g., 127.0.0.1:9090).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			var listenAddress string
			if len(args) > 0 {
				listenAddress = args[0]
			}

			return daemon.Run(ctx, &daemon.Options{
				ConfigPath:    configPath,
				ListenAddress: listenAddress,
			})
		},
	}

	fetchCmd = &cobra.Command{
		Use:   "fetch",
		Short: "Check the selected channel for a newer build.",
		Long:  "Prints {\"version\",\"currentVersion\"} when an update is available, or null.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext()
			defer stop()

			return client.Fetch(ctx, clientOptions(cmd))
		},
	}

	installCmd = &cobra.Command{
		Use:   "install",
		Short: "Download and apply the update found by the last fetch.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext()
			defer stop()

			return client.Install(ctx, clientOptions(cmd))
		},
	}

	watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Check the selected channel periodically.",
		Long: `Checks for an update immediately and then on every interval until interrupted.

With --install the first update found is installed and the command exits.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, stop := signalContext()
			defer stop()

			return checker.Run(ctx, &checker.Options{
				ConfigPath:    configPath,
				DaemonAddress: daemonAddress,
				PollInterval:  pollInterval,
				AutoInstall:   autoInstall,
			})
		},
	}

	channelCmd = &cobra.Command{
		Use:   "channel",
		Short: "Inspect or change the release channel.",
	}

	channelGetCmd = &cobra.Command{
		Use:   "get",
		Short: "Print the selected release channel.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext()
			defer stop()

			return client.GetChannel(ctx, clientOptions(cmd))
		},
	}

	channelSetCmd = &cobra.Command{
		Use:       "set <stable|beta|nightly>",
		Short:     "Select the release channel.",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"stable", "beta", "nightly"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			return client.SetChannel(ctx, clientOptions(cmd), args[0])
		},
	}

	channelListCmd = &cobra.Command{
		Use:   "list",
		Short: "Print every available release channel.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext()
			defer stop()

			return client.ListChannels(ctx, clientOptions(cmd))
		},
	}
)

// Execute runs the release-channels CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// signalContext is canceled on SIGTERM or SIGINT.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
}

func clientOptions(cmd *cobra.Command) *client.Options {
	return &client.Options{
		ConfigPath:    configPath,
		DaemonAddress: daemonAddress,
		Output:        cmd.OutOrStdout(),
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.PersistentFlags().
		StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	for _, c := range []*cobra.Command{fetchCmd, installCmd, watchCmd, channelCmd} {
		c.PersistentFlags().StringVarP(&daemonAddress, "address", "a", "", "updater daemon address, overrides config")
	}

	watchCmd.Flags().DurationVarP(&pollInterval, "interval", "i", checker.DefaultPollInterval, "delay between checks")
	watchCmd.Flags().BoolVar(&autoInstall, "install", false, "install the first update found and exit")

	channelCmd.AddCommand(channelGetCmd, channelSetCmd, channelListCmd)
	rootCmd.AddCommand(serveCmd, fetchCmd, installCmd, watchCmd, channelCmd)
}
