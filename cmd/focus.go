package cmd

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/ramanasai/bloom/internal/domain"
	"github.com/ramanasai/bloom/internal/pomodoro"
	"github.com/ramanasai/bloom/internal/ui"
)

var (
	focusMode      string
	focusTask      string
	focusCycles    int
	focusMinutes   int
	breakMinutes   int
	longBreakMins  int
	focusTickCount int
)

var focusCmd = &cobra.Command{
	Use:   "focus",
	Short: "Run the Pomodoro focus timer",
	Long: `Starts a focus run, or reattaches to one left running or paused.
Quitting with q keeps the timer; "bloom focus stop" ends it.

	bloom focus
	bloom focus --mode long --task "write report"
	bloom focus --mode custom --focus 40 --break 8 --cycles 3`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		engine, err := a.pomodoroEngine(ctx)
		if err != nil {
			return err
		}
		st := engine.State()
		if st.InRun() {
			if cmd.Flags().Changed("mode") || cmd.Flags().Changed("task") {
				fmt.Fprintln(cmd.ErrOrStderr(), "A focus run is already in progress; reattaching. Use `bloom focus stop` to start over.")
			}
		} else {
			if err := applyFocusFlags(cmd, engine); err != nil {
				return err
			}
			engine.Start()
		}

		model := ui.NewFocusModel(engine, ui.ThemeFor(cfg.Theme))
		defer model.Close()
		before := a.recorder.saves()
		if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
			return err
		}
		// A full run is recorded from the engine's tick loop.
		if model.Completed() && !a.recorder.waitForSave(before, 3*time.Second) {
			a.log.Warn("focus record not saved before exit")
		}

		fmt.Println(model.View())
		if model.Detached() {
			fmt.Println(`Timer saved. Run "bloom focus" to reattach or "bloom focus stop" to end it.`)
		}
		return nil
	},
}

func applyFocusFlags(cmd *cobra.Command, e *pomodoro.Engine) error {
	flags := cmd.Flags()
	if flags.Changed("mode") {
		mode, ok := domain.ParseFocusMode(focusMode)
		if !ok {
			return fmt.Errorf("unknown mode %q (pomodoro|short|long|custom)", focusMode)
		}
		e.SelectMode(mode)
	}
	if flags.Changed("focus") || flags.Changed("break") || flags.Changed("long-break") {
		st := e.State()
		f, b, l := st.CustomFocusMinutes, st.CustomBreakMinutes, st.LongBreakMinutes
		if flags.Changed("focus") {
			f = focusMinutes
		}
		if flags.Changed("break") {
			b = breakMinutes
		}
		if flags.Changed("long-break") {
			l = longBreakMins
		}
		e.SetDurations(f, b, l)
	}
	if flags.Changed("cycles") {
		e.SetCycles(focusCycles)
	}
	if flags.Changed("task") {
		e.SetTask(focusTask)
	}
	return nil
}

var focusStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the persisted timer",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()
		engine, err := a.pomodoroEngine(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), describeTimer(engine.State()))
		return nil
	},
}

var focusTickCmd = &cobra.Command{
	Use:   "tick",
	Short: "Advance the persisted timer by whole seconds",
	Long: `Loads the saved timer, advances it by --seconds and saves it again.
Seconds spent between sessions count toward the automatic start of the
next one, so repeated ticks carry a run through its breaks. Meant for an
external scheduler such as cron when no "bloom focus" view is open.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()
		engine, err := a.pomodoroEngine(cmd.Context())
		if err != nil {
			return err
		}
		for i := 0; i < focusTickCount; i++ {
			engine.Tick()
		}
		fmt.Fprint(cmd.OutOrStdout(), describeTimer(engine.State()))
		return nil
	},
}

var focusStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "End the current focus run and record it",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()
		engine, err := a.pomodoroEngine(cmd.Context())
		if err != nil {
			return err
		}
		st := engine.State()
		if !st.InRun() {
			fmt.Fprintln(cmd.OutOrStdout(), "No focus run in progress.")
			return nil
		}
		engine.Stop()
		fmt.Fprintf(cmd.OutOrStdout(), "Stopped after %d work sessions, %dm focused.\n", st.CompletedWorkSessions, st.WorkSeconds/60)
		return nil
	},
}

func describeTimer(st pomodoro.State) string {
	if !st.InRun() {
		f, b := st.FocusMinutes(), st.BreakMinutes()
		return fmt.Sprintf("Idle. Next run: %s %d/%d min, long break %d min, %d cycles.\n",
			st.Mode.DisplayName(), f, b, st.LongBreakMinutes, st.TotalCycles)
	}
	status := string(st.Status)
	if st.Status == domain.StatusIdle {
		status = "between sessions"
	}
	s := fmt.Sprintf("%s %s, %s left (%s)\nCycle %d of %d, %d work sessions completed\n",
		st.Mode.DisplayName(), st.SessionType.Label(), st.RemainingLabel(), status,
		st.CurrentCycle+1, st.TotalCycles, st.CompletedWorkSessions)
	if st.TaskName != "" {
		s += "Task: " + st.TaskName + "\n"
	}
	return s
}

func init() {
	focusCmd.Flags().StringVarP(&focusMode, "mode", "m", "", "pomodoro|short|long|custom (default from config)")
	focusCmd.Flags().StringVarP(&focusTask, "task", "t", "", "what you are working on")
	focusCmd.Flags().IntVarP(&focusCycles, "cycles", "c", 0, "work sessions before a long break")
	focusCmd.Flags().IntVar(&focusMinutes, "focus", 0, "custom focus minutes")
	focusCmd.Flags().IntVar(&breakMinutes, "break", 0, "custom short break minutes")
	focusCmd.Flags().IntVar(&longBreakMins, "long-break", 0, "long break minutes")

	focusTickCmd.Flags().IntVarP(&focusTickCount, "seconds", "n", 1, "seconds to advance")

	focusCmd.AddCommand(focusStatusCmd, focusTickCmd, focusStopCmd)
}
