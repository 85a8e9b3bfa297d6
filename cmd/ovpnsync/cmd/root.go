package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ovpnsync/internal/app"
	"ovpnsync/internal/config"
	"ovpnsync/internal/logger"
)

var (
	configPath      string
	intervalMinutes float64
	logLevel        string
)

// rootCmd runs the sync loop until interrupted
var rootCmd = &cobra.Command{
	Use:   "ovpnsync [source] [destination]",
	Short: "Keep an OpenVPN profile pointed at this machine's public IP",
	Long: `ovpnsync polls the public IP address of this machine, rewrites the first
"remote <IPv4>" line of an OpenVPN client profile when the address changes,
and publishes the profile to a local path or to the Dropbox business folder.

Examples:
  # Publish into the Dropbox business folder every 10 minutes
  ovpnsync /etc/openvpn/client.ovpn dropbox::vpn/client.ovpn

  # Check every 30 seconds and publish to a local path
  ovpnsync -i 0.5 client.ovpn /srv/share/client.ovpn`,
	Args:          cobra.MaximumNArgs(2),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup(cmd, args)
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		a, err := app.New(cfg, log)
		if err != nil {
			log.Error("Failed to initialize", zap.Error(err))
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := a.Run(ctx); err != nil {
			log.Error("Sync loop failed", zap.Error(err))
			return err
		}
		log.Info("Shutdown complete")
		return nil
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configPath, "config", "c", "", "path to config file")
	flags.Float64VarP(&intervalMinutes, "interval-minutes", "i", config.DefaultInterval.Minutes(), "minutes to wait between IP address checks")
	flags.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")

	rootCmd.AddCommand(onceCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return err
}

// setup loads the configuration and builds the logger
func setup(cmd *cobra.Command, args []string) (*config.Config, *zap.Logger, error) {
	o := config.Overrides{LogLevel: logLevel}
	if len(args) > 0 {
		o.Source = args[0]
	}
	if len(args) > 1 {
		o.Destination = args[1]
	}
	if cmd.Flags().Changed("interval-minutes") {
		if intervalMinutes <= 0 {
			return nil, nil, fmt.Errorf("--interval-minutes must be positive")
		}
		o.IntervalMinutes = intervalMinutes
	}

	loader := config.NewLoader()
	cfg, err := loader.Load(configPath, o)
	if err != nil {
		return nil, nil, err
	}

	log, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, nil, err
	}

	if used := loader.ConfigFileUsed(); used != "" {
		log.Info("Loaded configuration", zap.String("file", used))
	} else {
		log.Debug("No configuration file found, using flags and environment")
	}
	return cfg, log, nil
}
