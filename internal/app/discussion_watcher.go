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

// DiscussionWatcher covers three independent facts about discussion
// sessions: a morning digest of today's sessions, an announcement of
// sessions newly added to the catalog and a reminder shortly before today's
// sessions begin. The catalog memory lives in process only; it is not
// persisted.
type DiscussionWatcher struct {
	accounts   account.Repository
	portal     portal.Client
	sink       domainTelegram.Client
	dedup      *DiscussionDedup
	logger     *logrus.Entry
	interval   time.Duration
	digestHour int
	loc        *time.Location
	opTimeout  time.Duration
	now        func() time.Time
}

func NewDiscussionWatcher(
	accounts account.Repository,
	portalClient portal.Client,
	sink domainTelegram.Client,
	dedup *DiscussionDedup,
	interval time.Duration,
	digestHour int,
	loc *time.Location,
	opTimeout time.Duration,
	logger *logrus.Entry,
) *DiscussionWatcher {
	return &DiscussionWatcher{
		accounts:   accounts,
		portal:     portalClient,
		sink:       sink,
		dedup:      dedup,
		logger:     logger.WithField("watcher", "discussions"),
		interval:   interval,
		digestHour: digestHour,
		loc:        loc,
		opTimeout:  opTimeout,
		now:        time.Now,
	}
}

func (w *DiscussionWatcher) Name() string { return "discussions" }

func (w *DiscussionWatcher) Interval(time.Time) time.Duration { return w.interval }

func (w *DiscussionWatcher) Pass(ctx context.Context) {
	forEachActiveAccount(ctx, w.accounts, w.opTimeout, w.logger, w.checkAccount)
}

func (w *DiscussionWatcher) checkAccount(ctx context.Context, acc *account.Account) {
	logger := w.logger.WithField("chat_id", acc.ChatID)

	sess, err := w.portal.Login(ctx, acc.Credentials())
	if err != nil {
		logger.WithError(err).Warn("Portal login failed, skipping account this cycle")
		return
	}
	discussions, err := sess.Discussions(ctx)
	if err != nil {
		logger.WithError(err).Warn("Discussion fetch failed, skipping account this cycle")
		return
	}

	now := w.now().In(w.loc)
	date := now.Format("2006-01-02")

	var todays []portal.Discussion
	for _, d := range discussions {
		day, err := portal.ParseLocalDate(d.Date, w.loc)
		if err != nil {
			logger.WithError(err).WithField("course", d.CourseCode).Debug("Unparsable discussion date")
			continue
		}
		if day.Year() == now.Year() && day.YearDay() == now.YearDay() {
			todays = append(todays, d)
		}
	}

	if len(todays) > 0 && now.Hour() == w.digestHour && w.dedup.DigestOnce(acc.ChatID, date) {
		if err := w.sink.SendMessage(acc.ChatID, formatDiscussionDigest(todays), nil); err != nil {
			logger.WithError(err).Error("Failed to deliver discussion digest")
		}
	}

	// Novelty detection over the whole catalog. The first observation for
	// an account records the baseline silently.
	ids := make([]portal.DiscussionIdentity, 0, len(discussions))
	byIdentity := make(map[portal.DiscussionIdentity]portal.Discussion, len(discussions))
	for _, d := range discussions {
		ids = append(ids, d.Identity())
		byIdentity[d.Identity()] = d
	}
	added, first := w.dedup.ObserveCatalog(acc.ChatID, ids)
	if !first {
		for _, id := range added {
			d := byIdentity[id]
			text := fmt.Sprintf("🆕 تمت إضافة لقاء جديد لمقرر %s\nبتاريخ %s الساعة %s", d.CourseName, d.Date, d.From)
			if err := w.sink.SendMessage(acc.ChatID, text, nil); err != nil {
				logger.WithError(err).Error("Failed to deliver new-discussion notification")
			}
		}
	}

	for _, d := range todays {
		start, err := portal.ParseLocalDateTime(d.Date, d.From, w.loc)
		if err != nil {
			continue
		}
		if until := start.Sub(now); until > 0 && until <= 30*time.Minute {
			if w.dedup.SoonOnce(acc.ChatID, d.Identity()) {
				text := fmt.Sprintf("⏰ لقاء مقرر %s يبدأ الساعة %s (خلال أقل من 30 دقيقة)", d.CourseName, d.From)
				if err := w.sink.SendMessage(acc.ChatID, text, nil); err != nil {
					logger.WithError(err).Error("Failed to deliver discussion reminder")
				}
			}
		}
	}
}

func formatDiscussionDigest(discussions []portal.Discussion) string {
	var b strings.Builder
	b.WriteString("🗣 لقاءات اليوم:\n")
	for _, d := range discussions {
		fmt.Fprintf(&b, "\n• %s (%s - %s)\n", d.CourseName, d.From, d.To)
	}
	return b.String()
}
