package deadline

import "time"

// Deadline is an operator-defined important date (registration close, fee
// payment, project hand-in). Past deadlines are excluded from reminders but
// never deleted by the engine.
type Deadline struct {
	ID        int64
	Name      string
	Date      time.Time // date-only, in the operating timezone
	CreatedAt time.Time
}

// DaysRemaining counts whole calendar days between now's date and the
// deadline's date. Today is 0; past deadlines are negative. The dates are
// compared in a fixed UTC frame so a 23-hour DST spring-forward day still
// counts as one day.
func (d *Deadline) DaysRemaining(now time.Time) int {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	due := time.Date(d.Date.Year(), d.Date.Month(), d.Date.Day(), 0, 0, 0, 0, time.UTC)
	return int(due.Sub(today).Hours() / 24)
}
