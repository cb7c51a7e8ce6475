package utils

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

type OutputFormat string

const (
	FormatDefault OutputFormat = "default"
	FormatTable   OutputFormat = "table"
	FormatJSON    OutputFormat = "json"
	FormatCSV     OutputFormat = "csv"
	FormatCompact OutputFormat = "compact"
	FormatQuiet   OutputFormat = "quiet"
)

var formats = []OutputFormat{FormatDefault, FormatTable, FormatJSON, FormatCSV, FormatCompact, FormatQuiet}

func ParseFormat(s string) (OutputFormat, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return FormatDefault, nil
	}
	for _, f := range formats {
		if string(f) == s {
			return f, nil
		}
	}
	return FormatDefault, fmt.Errorf("unknown format %q", s)
}

type RenderConfig struct {
	Format   OutputFormat
	Width    int
	Color    bool
	Location *time.Location
}

// DefaultRenderConfig honours $COLUMNS and $NO_COLOR.
func DefaultRenderConfig() RenderConfig {
	width := 100
	if v, err := strconv.Atoi(os.Getenv("COLUMNS")); err == nil && v > 40 {
		width = v
	}
	_, noColor := os.LookupEnv("NO_COLOR")
	return RenderConfig{
		Format:   FormatDefault,
		Width:    width,
		Color:    !noColor,
		Location: time.Local,
	}
}

// History is a page of rows plus the filters that produced it.
type History struct {
	Rows       []Row             `json:"sessions"`
	Total      int               `json:"total"`
	Page       int               `json:"page,omitempty"`
	PerPage    int               `json:"per_page,omitempty"`
	TotalPages int               `json:"total_pages,omitempty"`
	Filters    map[string]string `json:"filters,omitempty"`
}

type Renderer struct {
	cfg    RenderConfig
	styles styles
}

type styles struct {
	title, separator, meta, kind, text, good, warn lipgloss.Style
}

func NewRenderer(cfg RenderConfig) *Renderer {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Width <= 0 {
		cfg.Width = 100
	}
	return &Renderer{cfg: cfg, styles: newStyles(cfg.Color)}
}

func newStyles(color bool) styles {
	plain := lipgloss.NewStyle()
	if !color {
		return styles{
			title:     plain.Bold(true),
			separator: plain,
			meta:      plain,
			kind:      plain.Bold(true),
			text:      plain,
			good:      plain,
			warn:      plain,
		}
	}
	return styles{
		title:     plain.Bold(true).Foreground(lipgloss.Color("#A6E3A1")),
		separator: plain.Foreground(lipgloss.Color("#6C7086")),
		meta:      plain.Faint(true),
		kind:      plain.Bold(true),
		text:      plain,
		good:      plain.Foreground(lipgloss.Color("#A6E3A1")),
		warn:      plain.Foreground(lipgloss.Color("#FAB387")),
	}
}

func (r *Renderer) RenderHistory(h History) (string, error) {
	switch r.cfg.Format {
	case FormatJSON:
		return r.renderJSON(h)
	case FormatCSV:
		return r.renderCSV(h)
	case FormatTable:
		return r.renderTable(h), nil
	case FormatCompact:
		return r.renderCompact(h), nil
	case FormatQuiet:
		return r.renderQuiet(h), nil
	default:
		return r.renderDefault(h), nil
	}
}

func (r *Renderer) rule() string {
	return r.styles.separator.Render(strings.Repeat("─", min(r.cfg.Width, 120))) + "\n"
}

func (r *Renderer) renderDefault(h History) string {
	var b strings.Builder
	b.WriteString(r.styles.title.Render("Practice History"))
	for _, k := range []string{"type", "since", "until"} {
		if v := h.Filters[k]; v != "" {
			b.WriteString("  " + r.styles.separator.Render(k+" ") + r.styles.meta.Render(v))
		}
	}
	b.WriteString("\n")
	b.WriteString(r.rule())

	if len(h.Rows) == 0 {
		b.WriteString(r.styles.meta.Render("No sessions yet. Try `bloom breathe` or `bloom focus`."))
		b.WriteString("\n")
		return b.String()
	}

	for _, row := range h.Rows {
		b.WriteString(r.renderRow(row))
		b.WriteString(r.rule())
	}

	page := NewPage(h.Total, max(h.PerPage, 1), h.Page)
	b.WriteString(r.styles.meta.Render(page.Summary()))
	b.WriteString("\n")
	if nav := page.Navigation(); nav != "" {
		b.WriteString(r.styles.meta.Render(nav))
		b.WriteString("\n")
	}
	return b.String()
}

func (r *Renderer) renderRow(row Row) string {
	at := row.StartedAt.In(r.cfg.Location)
	meta := []string{
		r.styles.meta.Render("[" + shortID(row.ID) + "]"),
		r.styles.meta.Render(at.Format("2006-01-02 15:04")),
		r.styles.kind.Foreground(colorForKind(row.Kind, r.cfg.Color)).Render(row.Kind),
		r.statusStyle(row.Status).Render(row.Status),
	}

	var b strings.Builder
	b.WriteString(strings.Join(meta, "  "))
	b.WriteString("\n")
	line := "  " + row.Title + "  " + FormatDuration(row.DurationSeconds)
	if row.Detail != "" {
		line += "  " + r.styles.meta.Render("("+row.Detail+")")
	}
	b.WriteString(r.styles.text.Render(line))
	b.WriteString("\n")
	if row.Notes != "" {
		b.WriteString(r.styles.meta.Render("  " + row.Notes))
		b.WriteString("\n")
	}
	return b.String()
}

func (r *Renderer) statusStyle(status string) lipgloss.Style {
	if status == StatusCompleted {
		return r.styles.good
	}
	return r.styles.warn
}

func (r *Renderer) renderJSON(h History) (string, error) {
	data, err := json.MarshalIndent(h, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal history: %w", err)
	}
	return string(data) + "\n", nil
}

func (r *Renderer) renderCSV(h History) (string, error) {
	var b strings.Builder
	w := csv.NewWriter(&b)
	_ = w.Write([]string{"id", "kind", "started_at", "duration_seconds", "title", "detail", "status", "notes"})
	for _, row := range h.Rows {
		_ = w.Write([]string{
			row.ID,
			row.Kind,
			row.StartedAt.UTC().Format(time.RFC3339),
			strconv.Itoa(row.DurationSeconds),
			row.Title,
			row.Detail,
			row.Status,
			row.Notes,
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("write csv: %w", err)
	}
	return b.String(), nil
}

func (r *Renderer) renderTable(h History) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(r.styles.separator).
		Headers("ID", "DATE", "KIND", "TITLE", "DURATION", "STATUS")
	for _, row := range h.Rows {
		t.Row(
			shortID(row.ID),
			row.StartedAt.In(r.cfg.Location).Format("2006-01-02 15:04"),
			row.Kind,
			truncate(row.Title, 40),
			FormatDuration(row.DurationSeconds),
			row.Status,
		)
	}
	return t.Render() + "\n"
}

func (r *Renderer) renderCompact(h History) string {
	var b strings.Builder
	for _, row := range h.Rows {
		fmt.Fprintf(&b, "%s %s %s %s\n",
			r.styles.meta.Render(row.StartedAt.In(r.cfg.Location).Format("01-02 15:04")),
			r.styles.kind.Render(fmt.Sprintf("%-10s", row.Kind)),
			FormatDuration(row.DurationSeconds),
			truncate(row.Title, 60))
	}
	return b.String()
}

// renderQuiet prints full ids only, for scripting.
func (r *Renderer) renderQuiet(h History) string {
	var b strings.Builder
	for _, row := range h.Rows {
		b.WriteString(row.ID)
		b.WriteString("\n")
	}
	return b.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if r := []rune(s); len(r) > n {
		return string(r[:n-3]) + "..."
	}
	return s
}

func colorForKind(kind string, color bool) lipgloss.TerminalColor {
	if !color {
		return lipgloss.NoColor{}
	}
	switch kind {
	case "breathing":
		return lipgloss.Color("#89B4FA")
	case "focus":
		return lipgloss.Color("#F9E2AF")
	default:
		return lipgloss.Color("#94E2D5")
	}
}
