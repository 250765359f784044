package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"qou_notification_bot/internal/domain/account"
	"qou_notification_bot/internal/domain/portal"
	domainTelegram "qou_notification_bot/internal/domain/telegram"

	"github.com/sirupsen/logrus"
)

// CourseWatcher detects mark changes in the current-term course list. It
// polls faster during the evening window in which the portal usually posts
// marks.
type CourseWatcher struct {
	accounts     account.Repository
	portal       portal.Client
	sink         domainTelegram.Client
	logger       *logrus.Entry
	interval     time.Duration
	peakInterval time.Duration
	peakHour     int
	loc          *time.Location
	opTimeout    time.Duration
	now          func() time.Time
}

func NewCourseWatcher(
	accounts account.Repository,
	portalClient portal.Client,
	sink domainTelegram.Client,
	interval, peakInterval time.Duration,
	peakHour int,
	loc *time.Location,
	opTimeout time.Duration,
	logger *logrus.Entry,
) *CourseWatcher {
	return &CourseWatcher{
		accounts:     accounts,
		portal:       portalClient,
		sink:         sink,
		logger:       logger.WithField("watcher", "courses"),
		interval:     interval,
		peakInterval: peakInterval,
		peakHour:     peakHour,
		loc:          loc,
		opTimeout:    opTimeout,
		now:          time.Now,
	}
}

func (w *CourseWatcher) Name() string { return "courses" }

// Interval returns the peak-window interval between peakHour and midnight
// local time, the regular interval otherwise.
func (w *CourseWatcher) Interval(now time.Time) time.Duration {
	if now.In(w.loc).Hour() >= w.peakHour {
		return w.peakInterval
	}
	return w.interval
}

func (w *CourseWatcher) Pass(ctx context.Context) {
	forEachActiveAccount(ctx, w.accounts, w.opTimeout, w.logger, w.checkAccount)
}

func (w *CourseWatcher) checkAccount(ctx context.Context, acc *account.Account) {
	logger := w.logger.WithField("chat_id", acc.ChatID)

	sess, err := w.portal.Login(ctx, acc.Credentials())
	if err != nil {
		logger.WithError(err).Warn("Portal login failed, skipping account this cycle")
		return
	}
	courses, err := sess.Courses(ctx)
	if err != nil {
		logger.WithError(err).Warn("Course fetch failed, skipping account this cycle")
		return
	}

	if acc.CourseSnapshot.Valid {
		var prev []portal.Course
		if err := json.Unmarshal([]byte(acc.CourseSnapshot.String), &prev); err != nil {
			logger.WithError(err).Error("Stored course snapshot is corrupt, re-establishing baseline")
		} else if changes := DiffCourses(prev, courses); len(changes) > 0 {
			if err := w.sink.SendMessage(acc.ChatID, formatCourseChanges(changes), nil); err != nil {
				logger.WithError(err).Error("Failed to deliver grade notification")
			}
		}
	}

	// Persisted unconditionally so the next cycle diffs against the
	// current state.
	encoded, err := json.Marshal(courses)
	if err != nil {
		logger.WithError(err).Error("Failed to encode course snapshot")
		return
	}
	if err := w.accounts.SetCourseSnapshot(ctx, acc.ChatID, string(encoded)); err != nil {
		logger.WithError(err).Error("Failed to persist course snapshot")
	}
}

func formatCourseChanges(changes []CourseChange) string {
	var b strings.Builder
	b.WriteString("📊 تم تحديث علاماتك:\n")
	for _, ch := range changes {
		fmt.Fprintf(&b, "\n%s - %s\n", ch.New.Code, ch.New.Name)
		if ch.Old.Midterm != ch.New.Midterm {
			fmt.Fprintf(&b, "العلامة النصفية: %s (كانت %s)\n", ch.New.Midterm, ch.Old.Midterm)
		}
		if ch.Old.Final != ch.New.Final {
			fmt.Fprintf(&b, "العلامة النهائية: %s (كانت %s)\n", ch.New.Final, ch.Old.Final)
		}
	}
	return b.String()
}
