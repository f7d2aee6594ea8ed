package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobbeacon/internal/scheduler"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the batch daemon",
	Long:  "Runs one ingest-and-notify batch immediately, then on the configured schedule; blocks until SIGINT/SIGTERM.",
	RunE:  runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx, false, logger)
	if err != nil {
		logger.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer a.close()

	logger.Info("config loaded",
		"schedule", a.cfg.Schedule,
		"sources", len(a.cfg.EnabledSources()),
		"regions", a.cfg.Filters.Regions,
		"store", a.cfg.Store.Driver,
		"capacity", a.state.Capacity(),
	)

	sched, err := scheduler.New(a.runner, a.cfg.Schedule, logger)
	if err != nil {
		logger.Error("invalid schedule", "error", err)
		os.Exit(1)
	}
	if err := sched.Run(ctx); err != nil {
		logger.Error("scheduler error", "error", err)
		os.Exit(1)
	}

	logger.Info("goodbye")
	return nil
}
