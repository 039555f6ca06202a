package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"notechan/internal/notes/db"
	"notechan/pkg/logger"
)

const (
	LogSweepFinished = "sweep finished"

	ErrSweepDisabled = "cleanup sweeper is disabled in configuration"
	ErrSweep         = "sweep failed"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run one pass over the cleanup queue and exit",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if !cfg.Sweeper.Enabled {
			return errors.New(ErrSweepDisabled)
		}

		store, err := db.Open(ctx, cfg)
		if err != nil {
			return fmt.Errorf("%s: %w", ErrInitDB, err)
		}
		defer store.Close(ctx)

		client, err := openRedis(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() { _ = client.Close() }()

		stats, err := newSweeper(cfg, store, cleanupQueue(cfg, client), noteCache(cfg, client)).SweepOnce(ctx)
		if err != nil {
			return fmt.Errorf("%s: %w", ErrSweep, err)
		}

		logger.Log(ctx).Info(ctx, LogSweepFinished,
			zap.Int("processed", stats.Processed),
			zap.Int("removed", stats.Removed),
			zap.Int("requeued", stats.Requeued),
			zap.Int("dropped", stats.Dropped))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sweepCmd)
}
