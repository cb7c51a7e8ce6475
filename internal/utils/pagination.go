package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// Page describes one page of a result set.
type Page struct {
	Total      int
	PerPage    int
	Current    int
	Offset     int
	TotalPages int
}

// NewPage clamps current into [1, TotalPages]. An empty set has one page.
func NewPage(total, perPage, current int) Page {
	if perPage < 1 {
		perPage = 1
	}
	totalPages := (total + perPage - 1) / perPage
	if totalPages == 0 {
		totalPages = 1
	}
	current = max(1, min(current, totalPages))
	return Page{
		Total:      total,
		PerPage:    perPage,
		Current:    current,
		Offset:     (current - 1) * perPage,
		TotalPages: totalPages,
	}
}

// Bounds returns the half-open slice range [start, end) of the page.
func (p Page) Bounds() (start, end int) {
	start = min(p.Offset, p.Total)
	end = min(p.Offset+p.PerPage, p.Total)
	return start, end
}

func (p Page) HasNext() bool { return p.Current < p.TotalPages }
func (p Page) HasPrev() bool { return p.Current > 1 }

// Summary reads like "Showing 11-20 of 42 sessions (page 2 of 5)".
func (p Page) Summary() string {
	if p.Total == 0 {
		return "No sessions"
	}
	start, end := p.Bounds()
	s := fmt.Sprintf("Showing %d-%d of %d session%s", start+1, end, p.Total, plural(p.Total))
	if p.TotalPages > 1 {
		s += fmt.Sprintf(" (page %d of %d)", p.Current, p.TotalPages)
	}
	return s
}

// Navigation hints at the --page values for neighbouring pages.
func (p Page) Navigation() string {
	var hints []string
	if p.HasPrev() {
		hints = append(hints, fmt.Sprintf("--page %d for previous", p.Current-1))
	}
	if p.HasNext() {
		hints = append(hints, fmt.Sprintf("--page %d for next", p.Current+1))
	}
	return strings.Join(hints, ", ")
}

// ParsePage accepts a page number, "first" or "last". Out-of-range
// numbers are clamped later by NewPage.
func ParsePage(s string, totalPages int) (int, error) {
	switch s = strings.TrimSpace(strings.ToLower(s)); s {
	case "", "first":
		return 1, nil
	case "last":
		return max(totalPages, 1), nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 1, fmt.Errorf("invalid page %q", s)
	}
	return n, nil
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
