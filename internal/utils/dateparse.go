package utils

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	relativeAgo = regexp.MustCompile(`^(\d+)\s*(d|day|days|w|week|weeks|m|month|months|y|year|years)(\s+ago)?$`)
	hoursAgo    = regexp.MustCompile(`^(\d+)\s*(h|hour|hours)(\s+ago)?$`)
)

var dateFormats = []string{
	"2006-01-02",
	"2006/01/02",
	"Jan 2, 2006",
	"2 Jan 2006",
	"January 2, 2006",
	"2006-01-02 15:04",
	time.RFC3339,
}

// ParseDate reads a history bound relative to now: "today", "yesterday",
// "this week" (Monday), "this month", "last week", "3 days ago", "2w",
// "12h", or a calendar date. Day-based forms resolve to local midnight;
// month names match case-insensitively.
func ParseDate(input string, now time.Time, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	input = strings.TrimSpace(strings.ToLower(input))
	if input == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	now = now.In(loc)
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)

	switch input {
	case "now":
		return now, nil
	case "today":
		return midnight, nil
	case "yesterday":
		return midnight.AddDate(0, 0, -1), nil
	case "this week", "week":
		wd := (int(now.Weekday()) + 6) % 7
		return midnight.AddDate(0, 0, -wd), nil
	case "this month", "month":
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc), nil
	case "this year", "year":
		return time.Date(now.Year(), 1, 1, 0, 0, 0, 0, loc), nil
	case "last week":
		return midnight.AddDate(0, 0, -7), nil
	case "last month":
		return midnight.AddDate(0, -1, 0), nil
	}

	if m := hoursAgo.FindStringSubmatch(input); m != nil {
		n, _ := strconv.Atoi(m[1])
		return now.Add(-time.Duration(n) * time.Hour), nil
	}
	if m := relativeAgo.FindStringSubmatch(input); m != nil {
		n, _ := strconv.Atoi(m[1])
		switch m[2][0] {
		case 'd':
			return midnight.AddDate(0, 0, -n), nil
		case 'w':
			return midnight.AddDate(0, 0, -7*n), nil
		case 'm':
			return midnight.AddDate(0, -n, 0), nil
		case 'y':
			return midnight.AddDate(-n, 0, 0), nil
		}
	}

	for _, f := range dateFormats {
		if t, err := time.ParseInLocation(f, input, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse date %q", input)
}
