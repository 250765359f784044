package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"qou_notification_bot/internal/domain/account"
	"qou_notification_bot/internal/domain/portal"
	domainTelegram "qou_notification_bot/internal/domain/telegram"

	"github.com/sirupsen/logrus"
)

// LectureWatcher announces today's lectures: a morning digest, a warning
// within the hour before each meeting and a ping when a meeting starts. It
// polls every minute so the starting-now ping lands close to the actual
// start.
type LectureWatcher struct {
	accounts   account.Repository
	portal     portal.Client
	sink       domainTelegram.Client
	dedup      *LectureDedup
	logger     *logrus.Entry
	interval   time.Duration
	digestHour int
	loc        *time.Location
	opTimeout  time.Duration
	now        func() time.Time
}

func NewLectureWatcher(
	accounts account.Repository,
	portalClient portal.Client,
	sink domainTelegram.Client,
	dedup *LectureDedup,
	interval time.Duration,
	digestHour int,
	loc *time.Location,
	opTimeout time.Duration,
	logger *logrus.Entry,
) *LectureWatcher {
	return &LectureWatcher{
		accounts:   accounts,
		portal:     portalClient,
		sink:       sink,
		dedup:      dedup,
		logger:     logger.WithField("watcher", "lectures"),
		interval:   interval,
		digestHour: digestHour,
		loc:        loc,
		opTimeout:  opTimeout,
		now:        time.Now,
	}
}

func (w *LectureWatcher) Name() string { return "lectures" }

func (w *LectureWatcher) Interval(time.Time) time.Duration { return w.interval }

func (w *LectureWatcher) Pass(ctx context.Context) {
	forEachActiveAccount(ctx, w.accounts, w.opTimeout, w.logger, w.checkAccount)
}

func (w *LectureWatcher) checkAccount(ctx context.Context, acc *account.Account) {
	logger := w.logger.WithField("chat_id", acc.ChatID)

	sess, err := w.portal.Login(ctx, acc.Credentials())
	if err != nil {
		logger.WithError(err).Warn("Portal login failed, skipping account this cycle")
		return
	}
	meetings, err := sess.LectureSchedule(ctx)
	if err != nil {
		logger.WithError(err).Warn("Schedule fetch failed, skipping account this cycle")
		return
	}

	now := w.now().In(w.loc)
	today := portal.WeekdayName(now.Weekday())
	date := now.Format("2006-01-02")

	var todays []portal.Meeting
	for _, m := range meetings {
		if m.Day == today {
			todays = append(todays, m)
		}
	}
	if len(todays) == 0 {
		return
	}

	if now.Hour() == w.digestHour && w.dedup.DigestOnce(acc.ChatID, date) {
		if err := w.sink.SendMessage(acc.ChatID, formatLectureDigest(todays), nil); err != nil {
			logger.WithError(err).Error("Failed to deliver lecture digest")
		}
	}

	dateStr := now.Format("02/01/2006")
	for _, m := range todays {
		start, err := portal.ParseLocalDateTime(dateStr, m.From, w.loc)
		if err != nil {
			logger.WithError(err).WithField("course", m.CourseCode).Debug("Unparsable meeting start time")
			continue
		}

		if until := start.Sub(now); until > 0 && until <= time.Hour {
			if w.dedup.WarnOnce(acc.ChatID, m.CourseCode, date) {
				text := fmt.Sprintf("⏰ محاضرة %s تبدأ الساعة %s (خلال أقل من ساعة)\nالمبنى %s - قاعة %s",
					m.CourseName, m.From, m.Building, m.Room)
				if err := w.sink.SendMessage(acc.ChatID, text, nil); err != nil {
					logger.WithError(err).Error("Failed to deliver lecture warning")
				}
			}
			continue
		}

		end, err := portal.ParseLocalDateTime(dateStr, m.To, w.loc)
		if err != nil {
			logger.WithError(err).WithField("course", m.CourseCode).Debug("Unparsable meeting end time")
			continue
		}
		if !now.Before(start) && !now.After(end) {
			if w.dedup.StartOnce(acc.ChatID, m.CourseCode, date) {
				text := fmt.Sprintf("▶️ بدأت الآن محاضرة %s (حتى الساعة %s)\nالمبنى %s - قاعة %s",
					m.CourseName, m.To, m.Building, m.Room)
				if err := w.sink.SendMessage(acc.ChatID, text, nil); err != nil {
					logger.WithError(err).Error("Failed to deliver lecture start ping")
				}
			}
		}
	}
}

func formatLectureDigest(meetings []portal.Meeting) string {
	var b strings.Builder
	b.WriteString("📅 محاضرات اليوم:\n")
	for _, m := range meetings {
		fmt.Fprintf(&b, "\n• %s (%s - %s)\nالمبنى %s - قاعة %s\n%s\n",
			m.CourseName, m.From, m.To, m.Building, m.Room, m.Lecturer)
	}
	return b.String()
}
