package portal

import (
	"fmt"
	"strings"
	"time"
)

// The portal renders dates and times as loosely formatted strings. Every
// watcher that needs an absolute instant goes through ParseLocalDateTime so
// that upstream format drift has exactly one place to fix.

var dateLayouts = []string{
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"2006-01-02",
}

var timeLayouts = []string{
	"15:04",
	"15:04:05",
	"3:04 PM",
}

// ParseLocalDateTime combines a portal date string and time string into an
// absolute instant in loc.
func ParseLocalDateTime(dateStr, timeStr string, loc *time.Location) (time.Time, error) {
	day, err := ParseLocalDate(dateStr, loc)
	if err != nil {
		return time.Time{}, err
	}
	timeStr = strings.TrimSpace(timeStr)
	for _, layout := range timeLayouts {
		t, err := time.ParseInLocation(layout, timeStr, loc)
		if err == nil {
			return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized portal time %q", timeStr)
}

// ParseLocalDate parses a portal date string into midnight of that day in loc.
func ParseLocalDate(dateStr string, loc *time.Location) (time.Time, error) {
	dateStr = strings.TrimSpace(dateStr)
	for _, layout := range dateLayouts {
		d, err := time.ParseInLocation(layout, dateStr, loc)
		if err == nil {
			return d, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized portal date %q", dateStr)
}

var weekdayNames = map[time.Weekday]string{
	time.Sunday:    "الأحد",
	time.Monday:    "الاثنين",
	time.Tuesday:   "الثلاثاء",
	time.Wednesday: "الأربعاء",
	time.Thursday:  "الخميس",
	time.Friday:    "الجمعة",
	time.Saturday:  "السبت",
}

// WeekdayName returns the Arabic weekday string the portal uses in lecture
// schedules.
func WeekdayName(d time.Weekday) string {
	return weekdayNames[d]
}

// CurrentTerm derives the registrar term code for the given instant. The
// academic year starts in September: Sep-Jan is term 1, Feb-Jun term 2 and
// Jul-Aug the summer term 3. The code is the starting calendar year followed
// by the term digit, e.g. "20251".
func CurrentTerm(now time.Time) string {
	year := now.Year()
	var term int
	switch m := now.Month(); {
	case m >= time.September:
		term = 1
	case m == time.January:
		year--
		term = 1
	case m >= time.February && m <= time.June:
		year--
		term = 2
	default: // July, August
		year--
		term = 3
	}
	return fmt.Sprintf("%d%d", year, term)
}
