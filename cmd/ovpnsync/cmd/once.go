package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"ovpnsync/internal/app"
)

// onceCmd runs a single cycle, for cron jobs and smoke tests
var onceCmd = &cobra.Command{
	Use:          "once [source] [destination]",
	Short:        "Run a single sync cycle and exit",
	Args:         cobra.MaximumNArgs(2),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup(cmd, args)
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		a, err := app.New(cfg, log)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		_, err = a.RunOnce(ctx)
		return err
	},
}
