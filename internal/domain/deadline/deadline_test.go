package deadline

import (
	"testing"
	"time"
)

func TestDaysRemaining(t *testing.T) {
	now := time.Date(2026, 1, 13, 23, 45, 0, 0, time.UTC)

	testCases := []struct {
		name string
		date time.Time
		want int
	}{
		{"today late in the evening", time.Date(2026, 1, 13, 0, 0, 0, 0, time.UTC), 0},
		{"tomorrow", time.Date(2026, 1, 14, 0, 0, 0, 0, time.UTC), 1},
		{"next week", time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC), 7},
		{"yesterday", time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC), -1},
		{"across a month boundary", time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC), 20},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d := &Deadline{Name: "x", Date: tc.date}
			if got := d.DaysRemaining(now); got != tc.want {
				t.Errorf("DaysRemaining = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestDaysRemainingAcrossDSTTransition(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Jerusalem")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	// Clocks spring forward on 27/03/2026, making it a 23-hour day. An
	// hour-based count over local midnights would truncate the span and
	// report yesterday's deadline as due today.
	now := time.Date(2026, 3, 28, 12, 0, 0, 0, loc)

	testCases := []struct {
		name string
		date time.Time
		want int
	}{
		{"yesterday is the short day", time.Date(2026, 3, 27, 0, 0, 0, 0, loc), -1},
		{"two days ago", time.Date(2026, 3, 26, 0, 0, 0, 0, loc), -2},
		{"today", time.Date(2026, 3, 28, 0, 0, 0, 0, loc), 0},
		{"tomorrow", time.Date(2026, 3, 29, 0, 0, 0, 0, loc), 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d := &Deadline{Name: "x", Date: tc.date}
			if got := d.DaysRemaining(now); got != tc.want {
				t.Errorf("DaysRemaining = %d, want %d", got, tc.want)
			}
		})
	}
}
