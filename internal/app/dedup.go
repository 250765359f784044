package app

import (
	"sync"

	"qou_notification_bot/internal/domain/portal"
)

// The dedup registries suppress re-notification of a fact already announced
// within the current clearing window. Keys are typed composites so a course
// code can never collide with a date fragment. Each registry has exactly one
// writing watcher; the mutex exists because the midnight purge runs on the
// scheduler goroutine.

// dayKey marks a once-per-day fact for an account.
type dayKey struct {
	ChatID int64
	Date   string
}

// meetingKey marks a once-per-instance lecture fact.
type meetingKey struct {
	ChatID     int64
	CourseCode string
	Date       string
}

// discussionKey marks a once-per-instance discussion fact.
type discussionKey struct {
	ChatID   int64
	Identity portal.DiscussionIdentity
}

// LectureDedup is the lecture watcher's notification memory: the daily
// digest, the one-hour warnings and the start pings. All three clear together
// at local midnight.
type LectureDedup struct {
	mu      sync.Mutex
	digests map[dayKey]struct{}
	warned  map[meetingKey]struct{}
	started map[meetingKey]struct{}
}

func NewLectureDedup() *LectureDedup {
	return &LectureDedup{
		digests: make(map[dayKey]struct{}),
		warned:  make(map[meetingKey]struct{}),
		started: make(map[meetingKey]struct{}),
	}
}

// DigestOnce reports whether today's digest for the account is still unsent,
// and marks it sent.
func (d *LectureDedup) DigestOnce(chatID int64, date string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return fireOnce(d.digests, dayKey{ChatID: chatID, Date: date})
}

// WarnOnce gates the one-hour warning for one meeting instance.
func (d *LectureDedup) WarnOnce(chatID int64, courseCode, date string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return fireOnce(d.warned, meetingKey{ChatID: chatID, CourseCode: courseCode, Date: date})
}

// StartOnce gates the started-now ping for one meeting instance.
func (d *LectureDedup) StartOnce(chatID int64, courseCode, date string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return fireOnce(d.started, meetingKey{ChatID: chatID, CourseCode: courseCode, Date: date})
}

// ClearDaily purges all three registries at local midnight.
func (d *LectureDedup) ClearDaily() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.digests = make(map[dayKey]struct{})
	d.warned = make(map[meetingKey]struct{})
	d.started = make(map[meetingKey]struct{})
}

// DiscussionDedup is the discussion watcher's notification memory. The daily
// digest and the starts-soon reminders are day-scoped; the known-session
// catalog persists for the process lifetime because it represents everything
// ever observed, not a daily fact.
type DiscussionDedup struct {
	mu      sync.Mutex
	digests map[dayKey]struct{}
	soon    map[discussionKey]struct{}
	known   map[int64]map[portal.DiscussionIdentity]struct{}
}

func NewDiscussionDedup() *DiscussionDedup {
	return &DiscussionDedup{
		digests: make(map[dayKey]struct{}),
		soon:    make(map[discussionKey]struct{}),
		known:   make(map[int64]map[portal.DiscussionIdentity]struct{}),
	}
}

func (d *DiscussionDedup) DigestOnce(chatID int64, date string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return fireOnce(d.digests, dayKey{ChatID: chatID, Date: date})
}

// SoonOnce gates the starts-in-under-30-minutes reminder for one session.
func (d *DiscussionDedup) SoonOnce(chatID int64, id portal.DiscussionIdentity) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return fireOnce(d.soon, discussionKey{ChatID: chatID, Identity: id})
}

// ObserveCatalog merges the freshly fetched identities into the account's
// known-session set and returns the ones not seen before. The set only grows:
// a session that transiently drops out of a fetch and reappears later is not
// new. The very first observation for an account records the catalog silently
// and reports first=true.
func (d *DiscussionDedup) ObserveCatalog(chatID int64, ids []portal.DiscussionIdentity) (added []portal.DiscussionIdentity, first bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	known, seen := d.known[chatID]
	if !seen {
		known = make(map[portal.DiscussionIdentity]struct{}, len(ids))
		d.known[chatID] = known
	}
	for _, id := range ids {
		if _, ok := known[id]; ok {
			continue
		}
		known[id] = struct{}{}
		if seen {
			added = append(added, id)
		}
	}
	return added, !seen
}

// ClearDaily purges the day-scoped registries. The known-session catalog
// survives.
func (d *DiscussionDedup) ClearDaily() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.digests = make(map[dayKey]struct{})
	d.soon = make(map[discussionKey]struct{})
}

func fireOnce[K comparable](set map[K]struct{}, k K) bool {
	if _, ok := set[k]; ok {
		return false
	}
	set[k] = struct{}{}
	return true
}
