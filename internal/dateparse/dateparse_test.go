package dateparse

import (
	"testing"
	"time"
)

// Wednesday afternoon.
var testNow = time.Date(2026, 3, 11, 15, 0, 0, 0, time.UTC)

func TestParseFrom(t *testing.T) {
	cases := []struct {
		input    string
		wantDate string
		wantTime bool
	}{
		{"2026-03-01", "2026-03-01 00:00", false},
		{"2026-03-01 14:30", "2026-03-01 14:30", true},
		{"14:30", "2026-03-11 14:30", true},
		{"today", "2026-03-11 00:00", false},
		{"yesterday", "2026-03-10 00:00", false},
		{"-3d", "2026-03-08 00:00", false},
		{"-2w", "2026-02-25 00:00", false},
		{"monday", "2026-03-09 00:00", false},
		{"wednesday", "2026-03-04 00:00", false}, // same weekday goes back a week
		{"Sunday", "2026-03-08 00:00", false},    // case-insensitive
	}
	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			v, err := ParseFrom(tc.input, testNow)
			if err != nil {
				t.Fatalf("ParseFrom(%q) failed: %v", tc.input, err)
			}
			if got := v.Date.Format("2006-01-02 15:04"); got != tc.wantDate {
				t.Errorf("date: got %s, want %s", got, tc.wantDate)
			}
			if v.HasTime != tc.wantTime {
				t.Errorf("HasTime: got %v, want %v", v.HasTime, tc.wantTime)
			}
		})
	}
}

func TestParseNow(t *testing.T) {
	v, err := ParseFrom("now", testNow)
	if err != nil {
		t.Fatalf("ParseFrom failed: %v", err)
	}
	if !v.Date.Equal(testNow) || !v.HasTime {
		t.Errorf("now: got %v hasTime=%v", v.Date, v.HasTime)
	}
}

func TestParseRejectsFuture(t *testing.T) {
	for _, input := range []string{"2026-03-12", "2027-01-01", "16:30"} {
		if input == "16:30" {
			// A later clock time today is still the same day; allowed.
			if _, err := ParseFrom(input, testNow); err != nil {
				t.Errorf("ParseFrom(%q): %v", input, err)
			}
			continue
		}
		if _, err := ParseFrom(input, testNow); err == nil {
			t.Errorf("ParseFrom(%q) accepted a future date", input)
		}
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	for _, input := range []string{"", "sometime", "-3x", "03/11/2026"} {
		if _, err := ParseFrom(input, testNow); err == nil {
			t.Errorf("ParseFrom(%q) succeeded", input)
		}
	}
}
