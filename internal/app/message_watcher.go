package app

import (
	"context"
	"fmt"
	"time"

	"qou_notification_bot/internal/domain/account"
	"qou_notification_bot/internal/domain/portal"
	domainTelegram "qou_notification_bot/internal/domain/telegram"

	"github.com/sirupsen/logrus"
)

// MessageWatcher announces the newest inbox message of every account. Unlike
// the course and average watchers there is no baseline suppression: a user
// who just registered expects to see their latest mail once.
type MessageWatcher struct {
	accounts  account.Repository
	portal    portal.Client
	sink      domainTelegram.Client
	logger    *logrus.Entry
	interval  time.Duration
	opTimeout time.Duration
}

func NewMessageWatcher(
	accounts account.Repository,
	portalClient portal.Client,
	sink domainTelegram.Client,
	interval, opTimeout time.Duration,
	logger *logrus.Entry,
) *MessageWatcher {
	return &MessageWatcher{
		accounts:  accounts,
		portal:    portalClient,
		sink:      sink,
		logger:    logger.WithField("watcher", "messages"),
		interval:  interval,
		opTimeout: opTimeout,
	}
}

func (w *MessageWatcher) Name() string { return "messages" }

func (w *MessageWatcher) Interval(time.Time) time.Duration { return w.interval }

func (w *MessageWatcher) Pass(ctx context.Context) {
	forEachActiveAccount(ctx, w.accounts, w.opTimeout, w.logger, w.checkAccount)
}

func (w *MessageWatcher) checkAccount(ctx context.Context, acc *account.Account) {
	logger := w.logger.WithField("chat_id", acc.ChatID)

	sess, err := w.portal.Login(ctx, acc.Credentials())
	if err != nil {
		logger.WithError(err).Warn("Portal login failed, skipping account this cycle")
		return
	}
	msg, err := sess.LatestMessage(ctx)
	if err != nil {
		logger.WithError(err).Warn("Inbox fetch failed, skipping account this cycle")
		return
	}
	if msg == nil {
		return
	}
	if acc.LastMessageID.Valid && acc.LastMessageID.String == msg.ID {
		return
	}

	text := fmt.Sprintf("📬 رسالة جديدة في البوابة الأكاديمية\n\nالموضوع: %s\nالمرسل: %s\nالتاريخ: %s\n\n%s",
		msg.Subject, msg.Sender, msg.Date, msg.Body)
	if err := w.sink.SendMessage(acc.ChatID, text, nil); err != nil {
		logger.WithError(err).Error("Failed to deliver new-message notification")
	}

	// The marker advances even when delivery failed: at-least-once with no
	// re-detection on the next cycle.
	if err := w.accounts.SetLastMessageID(ctx, acc.ChatID, msg.ID); err != nil {
		logger.WithError(err).Error("Failed to persist last-message marker")
	}
}
