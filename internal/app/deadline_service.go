package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"qou_notification_bot/internal/domain/account"
	"qou_notification_bot/internal/domain/deadline"
	domainTelegram "qou_notification_bot/internal/domain/telegram"

	"github.com/sirupsen/logrus"
)

// DeadlineService periodically reminds every account of the upcoming
// operator-defined deadlines, and fans out a one-line announcement when a
// new deadline is created. Past deadlines are silently excluded from both
// paths; they are never deleted here.
type DeadlineService struct {
	accounts  account.Repository
	deadlines deadline.Repository
	sink      domainTelegram.Client
	logger    *logrus.Entry
	interval  time.Duration
	opTimeout time.Duration
	loc       *time.Location
	now       func() time.Time
}

func NewDeadlineService(
	accounts account.Repository,
	deadlines deadline.Repository,
	sink domainTelegram.Client,
	interval, opTimeout time.Duration,
	loc *time.Location,
	logger *logrus.Entry,
) *DeadlineService {
	return &DeadlineService{
		accounts:  accounts,
		deadlines: deadlines,
		sink:      sink,
		logger:    logger.WithField("watcher", "deadlines"),
		interval:  interval,
		opTimeout: opTimeout,
		loc:       loc,
		now:       time.Now,
	}
}

func (s *DeadlineService) Name() string { return "deadlines" }

func (s *DeadlineService) Interval(time.Time) time.Duration { return s.interval }

// Pass sends one aggregated reminder per account. Accounts receive nothing
// when no deadline is today or later.
func (s *DeadlineService) Pass(ctx context.Context) {
	all, err := s.deadlines.List(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list deadlines, retrying next pass")
		return
	}

	now := s.now().In(s.loc)
	var upcoming []*deadline.Deadline
	for _, d := range all {
		if d.DaysRemaining(now) >= 0 {
			upcoming = append(upcoming, d)
		}
	}
	if len(upcoming) == 0 {
		return
	}
	text := formatDeadlineDigest(upcoming, now)

	forEachActiveAccount(ctx, s.accounts, s.opTimeout, s.logger, func(ctx context.Context, acc *account.Account) {
		if err := s.sink.SendMessage(acc.ChatID, text, nil); err != nil {
			s.logger.WithError(err).WithField("chat_id", acc.ChatID).Error("Failed to deliver deadline digest")
		}
	})
}

// NotifyNewDeadline is the engine's only inbound entry point: the admin flow
// calls it right after creating a deadline. Deadlines already in the past
// are announced to no one.
func (s *DeadlineService) NotifyNewDeadline(ctx context.Context, id int64) error {
	d, err := s.deadlines.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load deadline %d: %w", id, err)
	}

	now := s.now().In(s.loc)
	days := d.DaysRemaining(now)
	if days < 0 {
		return nil
	}

	text := fmt.Sprintf("🔔 تمت إضافة موعد جديد: %s بتاريخ %s (%s)",
		d.Name, d.Date.Format("02/01/2006"), formatDaysRemaining(days))
	forEachActiveAccount(ctx, s.accounts, s.opTimeout, s.logger, func(ctx context.Context, acc *account.Account) {
		if err := s.sink.SendMessage(acc.ChatID, text, nil); err != nil {
			s.logger.WithError(err).WithField("chat_id", acc.ChatID).Error("Failed to deliver new-deadline notification")
		}
	})
	return nil
}

func formatDeadlineDigest(upcoming []*deadline.Deadline, now time.Time) string {
	var b strings.Builder
	b.WriteString("🔔 مواعيد مهمة قادمة:\n")
	for _, d := range upcoming {
		fmt.Fprintf(&b, "\n• %s - %s (%s)\n",
			d.Name, d.Date.Format("02/01/2006"), formatDaysRemaining(d.DaysRemaining(now)))
	}
	return b.String()
}

func formatDaysRemaining(days int) string {
	switch days {
	case 0:
		return "اليوم!"
	case 1:
		return "غداً"
	case 2:
		return "بعد يومين"
	default:
		if days <= 10 {
			return fmt.Sprintf("بعد %d أيام", days)
		}
		return fmt.Sprintf("بعد %d يوماً", days)
	}
}
