package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ramanasai/bloom/internal/clock"
	"github.com/ramanasai/bloom/internal/logger"
	"github.com/ramanasai/bloom/internal/notify"
	"github.com/ramanasai/bloom/internal/schedule"
)

var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Run the daily practice reminder in the foreground",
	Long: `Sends a desktop notification at reminder.time on reminder.workdays,
skipping reminder.holidays. Runs until interrupted.

	bloom config set reminder.time 07:30
	bloom config set reminder.workdays mon,tue,wed,thu,fri
	bloom remind
	bloom remind --now`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if once, _ := cmd.Flags().GetBool("now"); once {
			remindNow()
			return nil
		}
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()
		fmt.Printf("Next reminder at %s\n", schedule.NextAt(clock.Real().Now(), cfg).Format("Mon Jan 2 15:04 MST"))
		schedule.Run(ctx, clock.Real(), cfg, remindNow)
		return nil
	},
}

func init() {
	remindCmd.Flags().Bool("now", false, "Send one reminder and exit")
}

// remindNow sends the practice prompt with the current streak.
func remindNow() {
	streak := 0
	if a, err := openApp(); err != nil {
		logger.Warn("reminder: open database", "err", err)
	} else {
		if st, err := a.tracker.Stats(context.Background()); err == nil {
			streak = st.CurrentStreak
		}
		a.Close()
	}
	title, msg := notify.FormatPracticePrompt(streak)
	if err := notify.Info(title, msg); err != nil {
		logger.Warn("reminder notification failed", "err", err)
	}
	logger.Info("reminder sent", "streak", streak)
}
