// Package dateparse parses visit-date input strings into a date plus an
// optional time-of-day component.
package dateparse

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Visit is a parsed visit date. HasTime reports whether the input carried a
// clock time; without one the visit is "some time that day".
type Visit struct {
	Date    time.Time
	HasTime bool
}

// Parse parses a visit date input string using the current time as the
// reference point.
//
// Supported formats:
//   - Exact dates: "2026-03-01", optionally with a time "2026-03-01 14:30"
//   - Keywords: "now", "today", "yesterday"
//   - Relative days back: "-3d", relative weeks back: "-2w"
//   - Day names: "monday", "tuesday", etc. (most recent occurrence)
//   - Bare times: "14:30" (today at that time)
func Parse(input string) (Visit, error) {
	return ParseFrom(input, time.Now())
}

// ParseFrom parses a visit date input relative to the given reference time.
// This variant enables deterministic testing with a fixed "now".
func ParseFrom(input string, now time.Time) (Visit, error) {
	input = strings.TrimSpace(strings.ToLower(input))
	if input == "" {
		return Visit{}, fmt.Errorf("empty date input")
	}

	// Exact date with time: YYYY-MM-DD HH:MM
	if t, err := time.Parse("2006-01-02 15:04", input); err == nil {
		return checkPast(Visit{Date: t, HasTime: true}, now)
	}

	// Exact date: YYYY-MM-DD
	if t, err := time.Parse("2006-01-02", input); err == nil {
		return checkPast(Visit{Date: t}, now)
	}

	// Bare time: HH:MM, today
	if t, err := time.Parse("15:04", input); err == nil {
		d := time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, now.Location())
		return checkPast(Visit{Date: d, HasTime: true}, now)
	}

	// Keywords
	switch input {
	case "now":
		return Visit{Date: now, HasTime: true}, nil
	case "today":
		return Visit{Date: dateOnly(now)}, nil
	case "yesterday":
		return Visit{Date: dateOnly(now.AddDate(0, 0, -1))}, nil
	}

	// Relative offsets back: -Nd, -Nw
	if strings.HasPrefix(input, "-") && len(input) >= 3 {
		suffix := input[len(input)-1]
		n, err := strconv.Atoi(input[1 : len(input)-1])
		if err == nil && n >= 0 {
			switch suffix {
			case 'd':
				return Visit{Date: dateOnly(now.AddDate(0, 0, -n))}, nil
			case 'w':
				return Visit{Date: dateOnly(now.AddDate(0, 0, -n*7))}, nil
			default:
				return Visit{}, fmt.Errorf("unknown relative unit %q in %q (use d or w)", string(suffix), input)
			}
		}
	}

	// Day names: most recent occurrence of that weekday
	dayMap := map[string]time.Weekday{
		"sunday":    time.Sunday,
		"monday":    time.Monday,
		"tuesday":   time.Tuesday,
		"wednesday": time.Wednesday,
		"thursday":  time.Thursday,
		"friday":    time.Friday,
		"saturday":  time.Saturday,
	}
	if wd, ok := dayMap[input]; ok {
		daysBack := (int(now.Weekday()) - int(wd) + 7) % 7
		if daysBack == 0 {
			daysBack = 7
		}
		return Visit{Date: dateOnly(now.AddDate(0, 0, -daysBack))}, nil
	}

	return Visit{}, fmt.Errorf("unrecognized date %q (try 2026-03-01, yesterday, -3d, or monday)", input)
}

// checkPast rejects visit dates in the future; a visit can't postdate now.
func checkPast(v Visit, now time.Time) (Visit, error) {
	if v.Date.After(now) && !sameDay(v.Date, now) {
		return Visit{}, fmt.Errorf("visit date %s is in the future", v.Date.Format("2006-01-02"))
	}
	return v, nil
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
