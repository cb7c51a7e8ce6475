package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ramanasai/bloom/internal/ui"
)

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show streaks, weekly goal and your tree",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		st, _, err := a.tracker.Refresh(cmd.Context())
		if err != nil {
			return err
		}
		if statsJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(st)
		}
		fmt.Fprint(cmd.OutOrStdout(), ui.RenderStats(st, ui.ThemeFor(cfg.Theme), cfg.Location()))
		return nil
	},
}

var achievementsJSON bool

var achievementsCmd = &cobra.Command{
	Use:   "achievements",
	Short: "List achievements and progress",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		list, err := a.tracker.Achievements(cmd.Context())
		if err != nil {
			return err
		}
		if achievementsJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(list)
		}
		fmt.Fprint(cmd.OutOrStdout(), ui.RenderAchievements(list, ui.ThemeFor(cfg.Theme), cfg.Location()))
		return nil
	},
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "print as JSON")
	achievementsCmd.Flags().BoolVar(&achievementsJSON, "json", false, "print as JSON")
}
