// Package scheduler is the timed-job primitive of the engine: a cron engine
// for calendar-recurring triggers plus a registry of one-shot reminder jobs
// keyed by a composite identity with replace-on-upsert semantics.
package scheduler

import (
	"fmt"
	"sync"
	"time"

	domainTelegram "qou_notification_bot/internal/domain/telegram"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Reminder is the payload of a one-shot job: a recipient and the text to
// deliver when the trigger instant arrives.
type Reminder struct {
	ChatID int64
	Text   string
}

// ReminderKey is the stable identity of a one-shot job. Upserting a key that
// is already armed replaces the earlier job, so re-running a scheduling pass
// for the same day never duplicates reminders.
type ReminderKey struct {
	ChatID     int64
	ExamType   string
	CourseCode string
	Date       string
	Slot       string
}

func (k ReminderKey) String() string {
	return fmt.Sprintf("%d|%s|%s|%s|%s", k.ChatID, k.ExamType, k.CourseCode, k.Date, k.Slot)
}

// armedReminder is one pending one-shot job. The generation number identifies
// the arming that created it, so a callback whose job was replaced while it
// was already queued can tell it is stale.
type armedReminder struct {
	timer *time.Timer
	gen   uint64
}

// JobScheduler owns every scheduled job in the process. All methods are safe
// under concurrent invocation; in particular a firing job may arm new jobs.
type JobScheduler struct {
	cronEngine *cron.Cron
	client     domainTelegram.Client
	logger     *logrus.Entry

	mu     sync.Mutex
	gen    uint64
	timers map[ReminderKey]*armedReminder
}

func NewJobScheduler(client domainTelegram.Client, loc *time.Location, logger *logrus.Entry) *JobScheduler {
	return &JobScheduler{
		cronEngine: cron.New(cron.WithLocation(loc)),
		client:     client,
		logger:     logger,
		timers:     make(map[ReminderKey]*armedReminder),
	}
}

// ScheduleRecurring registers fn on a cron spec, e.g. "0 0 * * *" for the
// daily midnight trigger.
func (s *JobScheduler) ScheduleRecurring(spec, name string, fn func()) error {
	_, err := s.cronEngine.AddFunc(spec, func() {
		s.logger.WithField("job", name).Info("Recurring job triggered")
		fn()
	})
	if err != nil {
		return fmt.Errorf("could not add recurring job %s: %w", name, err)
	}
	return nil
}

// UpsertReminder arms a one-shot reminder at the given instant, replacing any
// job already armed under the same key. Instants that have already passed are
// not armed; the method reports whether a job is now pending.
func (s *JobScheduler) UpsertReminder(key ReminderKey, at time.Time, r Reminder) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.timers[key]; ok {
		old.timer.Stop()
		delete(s.timers, key)
	}
	if !at.After(time.Now()) {
		return false
	}

	s.gen++
	gen := s.gen
	timer := time.AfterFunc(time.Until(at), func() {
		s.fire(key, gen, r)
	})
	s.timers[key] = &armedReminder{timer: timer, gen: gen}
	s.logger.WithFields(logrus.Fields{
		"job":        key.String(),
		"trigger_at": at.Format(time.RFC3339),
	}).Debug("Reminder armed")
	return true
}

// fire delivers a reminder whose trigger instant arrived. A job that was
// replaced after its callback was already queued carries a stale generation
// and is dropped.
func (s *JobScheduler) fire(key ReminderKey, gen uint64, r Reminder) {
	s.mu.Lock()
	current, ok := s.timers[key]
	if !ok || current.gen != gen {
		s.mu.Unlock()
		return
	}
	delete(s.timers, key)
	s.mu.Unlock()

	if err := s.client.SendMessage(r.ChatID, r.Text, nil); err != nil {
		s.logger.WithError(err).WithField("job", key.String()).Error("Failed to deliver reminder")
		return
	}
	s.logger.WithField("job", key.String()).Info("Reminder delivered")
}

// Pending returns the number of armed one-shot jobs.
func (s *JobScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

func (s *JobScheduler) Start() {
	s.cronEngine.Start()
	s.logger.Info("Job scheduler started")
}

// Stop halts the cron engine and disarms every pending one-shot job.
func (s *JobScheduler) Stop() {
	ctx := s.cronEngine.Stop()
	<-ctx.Done()

	s.mu.Lock()
	for key, armed := range s.timers {
		armed.timer.Stop()
		delete(s.timers, key)
	}
	s.mu.Unlock()
	s.logger.Info("Job scheduler stopped")
}
