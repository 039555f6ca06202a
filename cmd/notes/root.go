package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"notechan/internal/notes/config"
	"notechan/pkg/logger"
)

// Константы для сообщений команд.
const (
	ErrLoadConfig           = "failed to load configuration"
	ErrInitLoggerWithConfig = "failed to initialize logger with configuration settings"
)

var (
	configPath string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "notes",
	Short: "Notes and channels service",
	Long: `notes хранит заметки пользователей, сгруппированные по каналам,
и отдает их по HTTP. Хранилище - Postgres или MongoDB, кэш и очередь очистки - Redis.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		loaded, err := config.Load(ctx, configPath)
		if err != nil {
			logger.Log(ctx).Error(ctx, ErrLoadConfig, zap.Error(err))
			return fmt.Errorf("%s: %w", ErrLoadConfig, err)
		}

		log, err := logger.NewLogger(loaded.Logging.GetEnvironment(), loaded.Logging.Level)
		if err != nil {
			return fmt.Errorf("%s: %w", ErrInitLoggerWithConfig, err)
		}
		logger.SetGlobalLogger(log)

		cfg = loaded
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a yaml/env config file; environment variables take precedence")
}
