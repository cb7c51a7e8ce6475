package cmd

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ramanasai/bloom/internal/clock"
	"github.com/ramanasai/bloom/internal/config"
	"github.com/ramanasai/bloom/internal/db"
	"github.com/ramanasai/bloom/internal/logger"
	"github.com/ramanasai/bloom/internal/schedule"
)

var (
	cfg        config.Config
	configPath string
	stopRemind context.CancelFunc = func() {}
)

var rootCmd = &cobra.Command{
	Use:          "bloom",
	Short:        "Breathing, meditation and focus from the terminal",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if configPath == "" {
			if configPath, err = config.Path(); err != nil {
				return err
			}
		}
		if cfg, err = config.LoadFrom(configPath); err != nil {
			return err
		}
		if err := logger.Init(logConfig(cfg.Log)); err != nil {
			return err
		}
		logger.Debug("command started", "command", cmd.CommandPath())

		// The remind command runs its own loop in the foreground.
		if cfg.Reminder.Enabled && cmd.Name() != "remind" && os.Getenv("BLOOM_NO_REMINDER") != "1" {
			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			stopRemind = cancel
			go schedule.Run(ctx, clock.Real(), cfg, remindNow)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		stopRemind()
		_ = logger.Close()
	},
}

func Execute() error { return rootCmd.Execute() }

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/bloom/config.yaml)")
	rootCmd.AddCommand(
		breatheCmd, patternsCmd, focusCmd, logCmd, historyCmd,
		statsCmd, achievementsCmd, configCmd, remindCmd, versionCmd,
	)
}

// logConfig resolves the log destination. The default is a file in the
// data directory so terminal views stay clean.
func logConfig(c config.LogConfig) logger.Config {
	out := c.Output
	if out == "" {
		if dir, err := db.DataDir(); err == nil {
			out = filepath.Join(dir, "bloom.log")
		}
	}
	return logger.Config{Level: c.Level, Format: c.Format, OutputPath: out}
}
