package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ramanasai/bloom/internal/db"
	"github.com/ramanasai/bloom/internal/domain"
	"github.com/ramanasai/bloom/internal/utils"
)

var (
	histType      string
	histSince     string
	histUntil     string
	histFormat    string
	histPage      string
	histLimit     int
	histCompleted bool
	histNoColor   bool
	clearYes      bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past sessions",
	Long: `Examples:
	bloom history                              # everything, newest first
	bloom history --type breathing --since 7d  # breathing in the last week
	bloom history --since "this month" --format table
	bloom history --format csv --limit 1000 > sessions.csv
	bloom history --page 2`,
	RunE: func(cmd *cobra.Command, args []string) error {
		kinds, err := db.ParseKind(histType)
		if err != nil {
			return err
		}
		format, err := utils.ParseFormat(histFormat)
		if err != nil {
			return err
		}
		loc := cfg.Location()
		now := time.Now()

		filter := db.Filter{CompletedOnly: histCompleted}
		filters := map[string]string{}
		if histType != "" {
			filters["type"] = kindList(kinds)
		}
		if histSince != "" {
			if filter.Since, err = utils.ParseDate(histSince, now, loc); err != nil {
				return fmt.Errorf("invalid --since: %w", err)
			}
			filters["since"] = filter.Since.Format("2006-01-02 15:04")
		}
		if histUntil != "" {
			if filter.Until, err = utils.ParseDate(histUntil, now, loc); err != nil {
				return fmt.Errorf("invalid --until: %w", err)
			}
			filters["until"] = filter.Until.Format("2006-01-02 15:04")
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		rows, err := listRows(cmd, a, kinds, filter)
		if err != nil {
			return err
		}

		if histLimit <= 0 || histLimit > 1000 {
			histLimit = 20
		}
		total := len(rows)
		pageNo, err := utils.ParsePage(histPage, utils.NewPage(total, histLimit, 1).TotalPages)
		if err != nil {
			return err
		}
		page := utils.NewPage(total, histLimit, pageNo)
		start, end := page.Bounds()

		rc := utils.DefaultRenderConfig()
		rc.Format = format
		rc.Location = loc
		if histNoColor {
			rc.Color = false
		}
		out, err := utils.NewRenderer(rc).RenderHistory(utils.History{
			Rows:       rows[start:end],
			Total:      total,
			Page:       page.Current,
			PerPage:    page.PerPage,
			TotalPages: page.TotalPages,
			Filters:    filters,
		})
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

// listRows loads every matching session; kinds are merged in memory so
// a page can span them.
func listRows(cmd *cobra.Command, a *app, kinds []db.Kind, f db.Filter) ([]utils.Row, error) {
	ctx := cmd.Context()
	var (
		meds    []domain.MeditationSession
		breaths []domain.BreathingSession
		focus   []domain.FocusSession
		err     error
	)
	for _, k := range kinds {
		switch k {
		case db.KindMeditation:
			meds, err = a.store.ListMeditations(ctx, f)
		case db.KindBreathing:
			breaths, err = a.store.ListBreathing(ctx, f)
		case db.KindFocus:
			focus, err = a.store.ListFocus(ctx, f)
		}
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", k, err)
		}
	}
	return utils.RowsFrom(meds, breaths, focus), nil
}

var historyRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete one session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()
		kind, err := a.tracker.Delete(cmd.Context(), args[0])
		if err != nil {
			if db.IsNotFound(err) {
				return fmt.Errorf("no session with id %q", args[0])
			}
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s session %s.\n", kind, args[0])
		return nil
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all sessions, or all of one --type",
	Long: `Deletes history permanently. Achievements already unlocked stay
unlocked.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		kinds, err := db.ParseKind(histType)
		if err != nil {
			return err
		}
		if !clearYes {
			fmt.Fprintf(cmd.OutOrStdout(), "Delete all %s sessions? Type 'yes' to confirm: ", kindList(kinds))
			answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if strings.TrimSpace(strings.ToLower(answer)) != "yes" {
				return errors.New("aborted")
			}
		}
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()
		n, err := a.tracker.Clear(cmd.Context(), kinds...)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d sessions.\n", n)
		return nil
	},
}

func init() {
	historyCmd.PersistentFlags().StringVarP(&histType, "type", "t", "", "meditation|breathing|focus|all")
	historyCmd.Flags().StringVarP(&histSince, "since", "s", "", "only sessions from this time: today, 7d, this week, 2026-03-01, ...")
	historyCmd.Flags().StringVar(&histUntil, "until", "", "only sessions before this time")
	historyCmd.Flags().StringVarP(&histFormat, "format", "f", "default", "default|table|json|csv|compact|quiet")
	historyCmd.Flags().StringVarP(&histPage, "page", "p", "1", "page number, or first|last")
	historyCmd.Flags().IntVarP(&histLimit, "limit", "l", 20, "sessions per page (max 1000)")
	historyCmd.Flags().BoolVar(&histCompleted, "completed", false, "only completed sessions")
	historyCmd.Flags().BoolVar(&histNoColor, "no-color", false, "disable colour")
	historyClearCmd.Flags().BoolVarP(&clearYes, "yes", "y", false, "skip the confirmation prompt")

	historyCmd.AddCommand(historyRmCmd, historyClearCmd)
}
