package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"qou_notification_bot/internal/domain/account"
	"qou_notification_bot/internal/domain/portal"
	domainTelegram "qou_notification_bot/internal/domain/telegram"

	"github.com/sirupsen/logrus"
)

// AverageWatcher compares the term and cumulative averages against the
// stored marker once a day. The first observation establishes the baseline
// and is not announced.
type AverageWatcher struct {
	accounts  account.Repository
	portal    portal.Client
	sink      domainTelegram.Client
	logger    *logrus.Entry
	interval  time.Duration
	opTimeout time.Duration
}

func NewAverageWatcher(
	accounts account.Repository,
	portalClient portal.Client,
	sink domainTelegram.Client,
	interval, opTimeout time.Duration,
	logger *logrus.Entry,
) *AverageWatcher {
	return &AverageWatcher{
		accounts:  accounts,
		portal:    portalClient,
		sink:      sink,
		logger:    logger.WithField("watcher", "averages"),
		interval:  interval,
		opTimeout: opTimeout,
	}
}

func (w *AverageWatcher) Name() string { return "averages" }

func (w *AverageWatcher) Interval(time.Time) time.Duration { return w.interval }

func (w *AverageWatcher) Pass(ctx context.Context) {
	forEachActiveAccount(ctx, w.accounts, w.opTimeout, w.logger, w.checkAccount)
}

func (w *AverageWatcher) checkAccount(ctx context.Context, acc *account.Account) {
	logger := w.logger.WithField("chat_id", acc.ChatID)

	sess, err := w.portal.Login(ctx, acc.Credentials())
	if err != nil {
		logger.WithError(err).Warn("Portal login failed, skipping account this cycle")
		return
	}
	avg, err := sess.Average(ctx)
	if err != nil {
		logger.WithError(err).Warn("Average fetch failed, skipping account this cycle")
		return
	}
	if avg == nil {
		return
	}

	var prev *portal.Average
	if acc.AverageSnapshot.Valid {
		prev = &portal.Average{}
		if err := json.Unmarshal([]byte(acc.AverageSnapshot.String), prev); err != nil {
			logger.WithError(err).Error("Stored average snapshot is corrupt, re-establishing baseline")
			prev = nil
		}
	}

	if prev != nil && AverageChanged(prev, avg) {
		text := fmt.Sprintf("📈 تغيّر معدلك:\nمعدل الفصل: %s\nالمعدل التراكمي: %s", avg.Term, avg.Cumulative)
		if err := w.sink.SendMessage(acc.ChatID, text, nil); err != nil {
			logger.WithError(err).Error("Failed to deliver average notification")
		}
	}

	encoded, err := json.Marshal(avg)
	if err != nil {
		logger.WithError(err).Error("Failed to encode average snapshot")
		return
	}
	if err := w.accounts.SetAverageSnapshot(ctx, acc.ChatID, string(encoded)); err != nil {
		logger.WithError(err).Error("Failed to persist average snapshot")
	}
}
