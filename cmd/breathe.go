package cmd

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/ramanasai/bloom/internal/db"
	"github.com/ramanasai/bloom/internal/domain"
	"github.com/ramanasai/bloom/internal/notify"
	"github.com/ramanasai/bloom/internal/ui"
)

var (
	breatheCycles  int
	breatheAmbient string
	breatheQuiet   bool
)

var breatheCmd = &cobra.Command{
	Use:   "breathe [pattern]",
	Short: "Run a guided breathing exercise",
	Long: `Runs a breathing pattern in the terminal. Without an argument the box
pattern is used; see "bloom patterns list" for the rest.

	bloom breathe
	bloom breathe relax_478 --cycles 6
	bloom breathe coherent --ambient rain`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		id := "box"
		if len(args) == 1 {
			id = args[0]
		}
		all, err := a.patterns(ctx)
		if err != nil {
			return err
		}
		p, ok := domain.FindPattern(all, id)
		if !ok {
			return fmt.Errorf("unknown pattern %q (see bloom patterns list)", id)
		}
		if breatheCycles > 0 {
			p.Cycles = breatheCycles
		}

		feedback := notify.NewBeeper(a.log)
		engine := a.breathingEngine(feedback)
		opts := breathingOptions()
		if breatheAmbient != "" {
			opts.Ambient = breatheAmbient
		}
		if breatheQuiet {
			opts.Sound, opts.Haptics = false, false
		}
		engine.SetOptions(opts)
		if err := engine.SelectPattern(p); err != nil {
			return err
		}

		engine.Start()
		model := ui.NewBreathingModel(engine, ui.ThemeFor(cfg.Theme))
		defer model.Close()
		before := a.recorder.saves()
		if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
			engine.Stop()
			return err
		}
		// The final record is written from the engine's tick loop.
		if model.Finished() && !a.recorder.waitForSave(before, 3*time.Second) {
			a.log.Warn("breathing record not saved before exit")
		}
		engine.Stop()

		fmt.Println(model.View())
		return nil
	},
}

var patternsCmd = &cobra.Command{
	Use:   "patterns",
	Short: "List and manage breathing patterns",
}

var patternsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List built-in and custom patterns",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()
		all, err := a.patterns(cmd.Context())
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tRHYTHM\tCYCLES\tLENGTH")
		for _, p := range all {
			name := p.Name
			if p.Custom {
				name += " *"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", p.ID, name, rhythm(p), p.Cycles, (time.Duration(p.TotalSeconds()) * time.Second).String())
		}
		return w.Flush()
	},
}

var (
	patName                         string
	patInhale, patHoldIn, patExhale int
	patHoldOut, patCycles           int
)

var patternsAddCmd = &cobra.Command{
	Use:     "add",
	Short:   "Save a custom pattern",
	Example: `  bloom patterns add --name "Long exhale" --inhale 4 --exhale 8 --cycles 6`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		now := a.clock.Now()
		p, err := domain.NewCustomPattern(patName, patInhale, patHoldIn, patExhale, patHoldOut, patCycles, now)
		if err != nil {
			return err
		}
		if err := a.store.SavePattern(cmd.Context(), p, now); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%s), %s per cycle.\n", p.ID, p.Name, rhythm(p))
		return nil
	},
}

var patternsRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a custom pattern",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, ok := domain.FindPattern(domain.BuiltinPatterns(), args[0]); ok {
			return fmt.Errorf("%s is built in and cannot be removed", args[0])
		}
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()
		if err := a.store.DeletePattern(cmd.Context(), args[0]); err != nil {
			if errors.Is(err, db.ErrNotFound) {
				return fmt.Errorf("no custom pattern %q", args[0])
			}
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %s.\n", args[0])
		return nil
	},
}

// rhythm reads like "4-4-4-4".
func rhythm(p domain.Pattern) string {
	parts := make([]string, 0, len(domain.CyclePhases))
	for _, ph := range domain.CyclePhases {
		parts = append(parts, fmt.Sprint(p.PhaseSeconds(ph)))
	}
	return strings.Join(parts, "-")
}

func init() {
	breatheCmd.Flags().IntVarP(&breatheCycles, "cycles", "c", 0, "override the pattern's cycle count")
	breatheCmd.Flags().StringVar(&breatheAmbient, "ambient", "", "ambient sound: none|rain|ocean|forest")
	breatheCmd.Flags().BoolVarP(&breatheQuiet, "quiet", "q", false, "no tones or pulses")

	patternsAddCmd.Flags().StringVarP(&patName, "name", "n", "", "pattern name")
	patternsAddCmd.Flags().IntVar(&patInhale, "inhale", 4, "inhale seconds")
	patternsAddCmd.Flags().IntVar(&patHoldIn, "hold-in", 0, "hold seconds after inhaling")
	patternsAddCmd.Flags().IntVar(&patExhale, "exhale", 4, "exhale seconds")
	patternsAddCmd.Flags().IntVar(&patHoldOut, "hold-out", 0, "hold seconds after exhaling")
	patternsAddCmd.Flags().IntVar(&patCycles, "cycles", 4, "number of cycles")
	_ = patternsAddCmd.MarkFlagRequired("name")

	patternsCmd.AddCommand(patternsListCmd, patternsAddCmd, patternsRmCmd)
}
