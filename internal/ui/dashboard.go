package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/ramanasai/bloom/internal/domain"
	"github.com/ramanasai/bloom/internal/stats"
)

var treeStages = [...]string{"seed", "sprout", "sapling", "young tree", "tree", "full bloom"}

// TreeStage names a tree level.
func TreeStage(level int) string {
	return treeStages[max(0, min(level, len(treeStages)-1))]
}

const sparkBlocks = "▁▂▃▄▅▆▇█"

// Spark draws one block per value, scaled to the largest.
func Spark(values []int) string {
	blocks := []rune(sparkBlocks)
	peak := 0
	for _, v := range values {
		peak = max(peak, v)
	}
	var b strings.Builder
	for _, v := range values {
		i := 0
		if peak > 0 {
			i = v * (len(blocks) - 1) / peak
		}
		b.WriteRune(blocks[i])
	}
	return b.String()
}

// RenderStats is the `bloom stats` dashboard.
func RenderStats(s stats.Stats, theme Theme, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	bar := progress.New(progress.WithGradient(theme.BarStart, theme.BarEnd), progress.WithWidth(30))
	row := func(label, value string) string {
		return theme.Label.Render(fmt.Sprintf("%-16s", label)) + theme.Value.Render(value)
	}

	overview := strings.Join([]string{
		theme.Title.Render("Practice"),
		row("Sessions", fmt.Sprint(s.TotalSessions)),
		row("Minutes", fmt.Sprint(s.TotalMinutes)),
		row("Average", fmt.Sprintf("%d min", s.AverageMinutes)),
		row("Current streak", days(s.CurrentStreak)),
		row("Longest streak", days(s.LongestStreak)),
		row("Last session", lastSession(s.LastSession, loc)),
	}, "\n")

	week := strings.Join([]string{
		theme.Title.Render("This week"),
		row("Minutes", fmt.Sprintf("%d / %d", s.WeeklyMinutes, s.WeeklyGoalMinutes)),
		bar.ViewAs(s.WeeklyGoalProgress),
		row("Sessions", fmt.Sprint(s.WeeklySessions)),
		row("This month", fmt.Sprintf("%d min in %d sessions", s.MonthlyMinutes, s.MonthlySessions)),
		row("Last 7 days", sevenDays(s.LastSevenDays)),
	}, "\n")

	favorite := s.FavoriteExercise
	if favorite == "" {
		favorite = "-"
	}
	habits := strings.Join([]string{
		theme.Title.Render("Habits"),
		row("Breathing", fmt.Sprintf("%d sessions, favourite %s", s.BreathingSessions, favorite)),
		row("Focus", fmt.Sprintf("%d intervals, %d min", s.FocusSessions, s.FocusMinutes)),
		row("Most productive", string(s.MostProductiveTime)),
		row("Early / late", fmt.Sprintf("%d before 8am, %d after 10pm", s.EarlyBirdSessions, s.NightOwlSessions)),
		row("Weekend streak", fmt.Sprint(s.WeekendStreak)),
	}, "\n")

	tree := strings.Join([]string{
		theme.Title.Render("Your tree"),
		row("Stage", fmt.Sprintf("%s (level %d of %d)", TreeStage(s.TreeLevel), s.TreeLevel, stats.MaxTreeLevel)),
		bar.ViewAs(s.TreeProgress),
	}, "\n")

	top := lipgloss.JoinHorizontal(lipgloss.Top, theme.Border.Render(overview), " ", theme.Border.Render(week))
	bottom := lipgloss.JoinHorizontal(lipgloss.Top, theme.Border.Render(habits), " ", theme.Border.Render(tree))
	return lipgloss.JoinVertical(lipgloss.Left, top, bottom) + "\n"
}

func days(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}

func lastSession(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return "never"
	}
	return t.In(loc).Format("Mon Jan 2 15:04")
}

func sevenDays(totals []stats.DayTotal) string {
	values := make([]int, len(totals))
	for i, d := range totals {
		values[i] = d.Minutes
	}
	return Spark(values)
}

// RenderAchievements lists every achievement grouped by category,
// unlocked ones first within each group.
func RenderAchievements(list []domain.Achievement, theme Theme, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	bar := progress.New(progress.WithSolidFill(theme.BarEnd), progress.WithWidth(20), progress.WithoutPercentage())

	byCat := map[domain.AchievementCategory][]domain.Achievement{}
	var order []domain.AchievementCategory
	unlocked := 0
	for _, a := range list {
		c := a.Type.Category()
		if _, ok := byCat[c]; !ok {
			order = append(order, c)
		}
		byCat[c] = append(byCat[c], a)
		if a.Unlocked {
			unlocked++
		}
	}

	var b strings.Builder
	b.WriteString(theme.Title.Render(fmt.Sprintf("Achievements  %d / %d", unlocked, len(list))))
	b.WriteString("\n")
	for _, c := range order {
		b.WriteString("\n")
		b.WriteString(theme.Label.Render(strings.ToUpper(string(c))))
		b.WriteString("\n")
		group := byCat[c]
		for _, pass := range []bool{true, false} {
			for _, a := range group {
				if a.Unlocked != pass {
					continue
				}
				b.WriteString(achievementLine(a, theme, bar, loc))
				b.WriteString("\n")
			}
		}
	}
	return b.String()
}

func achievementLine(a domain.Achievement, theme Theme, bar progress.Model, loc *time.Location) string {
	name := fmt.Sprintf("%-18s", a.Type.Title())
	if a.Unlocked {
		when := ""
		if !a.UnlockedAt.IsZero() {
			when = "  " + a.UnlockedAt.In(loc).Format("2006-01-02")
		}
		return "  " + theme.Success.Render("✓ "+name) + theme.Hint.Render(a.Type.Description()+when)
	}
	pct := 0.0
	if a.Target > 0 {
		pct = float64(a.Progress) / float64(a.Target)
	}
	return "  " + theme.Value.Render("· "+name) + bar.ViewAs(pct) +
		theme.Hint.Render(fmt.Sprintf(" %d/%d  %s", a.Progress, a.Target, a.Type.Description()))
}
