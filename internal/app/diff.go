package app

import (
	"qou_notification_bot/internal/domain/portal"
)

// CourseChange pairs the previous and current snapshot of a course whose
// marks changed.
type CourseChange struct {
	Old portal.Course
	New portal.Course
}

// DiffCourses returns every course in cur whose code also exists in prev and
// whose midterm or final mark differs textually. Courses that only appear in
// cur are not changes; with an empty prev the first observation establishes
// the baseline and nothing is reported.
func DiffCourses(prev, cur []portal.Course) []CourseChange {
	if len(prev) == 0 {
		return nil
	}
	byCode := make(map[string]portal.Course, len(prev))
	for _, c := range prev {
		byCode[c.Code] = c
	}

	var changes []CourseChange
	for _, c := range cur {
		old, ok := byCode[c.Code]
		if !ok {
			continue
		}
		if old.Midterm != c.Midterm || old.Final != c.Final {
			changes = append(changes, CourseChange{Old: old, New: c})
		}
	}
	return changes
}

// AverageChanged reports whether the two average snapshots differ. A missing
// cur is never a change; a missing prev with a present cur is.
func AverageChanged(prev, cur *portal.Average) bool {
	if cur == nil {
		return false
	}
	if prev == nil {
		return true
	}
	return *prev != *cur
}
