package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ramanasai/bloom/internal/domain"
	"github.com/ramanasai/bloom/internal/utils"
)

var (
	logKind  string
	logNotes string
	logAt    string
)

var logCmd = &cobra.Command{
	Use:   "log <minutes>",
	Short: "Log a meditation session",
	Long: `Records a meditation you did away from the terminal. The session is
taken to have ended now unless --at gives its start.

	bloom log 10
	bloom log 20 --kind "body scan" --notes "restless at first"
	bloom log 15 --at "yesterday"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		minutes, err := strconv.ParseFloat(strings.TrimSpace(args[0]), 64)
		if err != nil || minutes <= 0 || minutes > 24*60 {
			return fmt.Errorf("minutes must be a positive number up to 1440, got %q", args[0])
		}
		seconds := int(minutes * 60)

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		now := a.clock.Now()
		started := now.Add(-time.Duration(seconds) * time.Second)
		if logAt != "" {
			if started, err = utils.ParseDate(logAt, now, cfg.Location()); err != nil {
				return fmt.Errorf("invalid --at: %w", err)
			}
		}
		m := domain.MeditationSession{
			ID:              uuid.NewString(),
			StartedAt:       started,
			DurationSeconds: seconds,
			Kind:            strings.TrimSpace(logKind),
			Completed:       true,
			Notes:           strings.TrimSpace(logNotes),
		}
		if err := a.tracker.SaveMeditation(cmd.Context(), m); err != nil {
			return err
		}

		st, err := a.tracker.Stats(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Logged %s. Streak: %d day(s), %d/%d min this week.\n",
			utils.FormatDuration(seconds), st.CurrentStreak, st.WeeklyMinutes, st.WeeklyGoalMinutes)
		return nil
	},
}

func init() {
	logCmd.Flags().StringVarP(&logKind, "kind", "k", "", "kind of meditation, e.g. mindfulness, body scan")
	logCmd.Flags().StringVarP(&logNotes, "notes", "n", "", "free-form notes")
	logCmd.Flags().StringVar(&logAt, "at", "", "start time: today, yesterday, 2026-03-01 07:30, ...")
}
