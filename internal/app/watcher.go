package app

import (
	"context"
	"time"

	"qou_notification_bot/internal/domain/account"

	"github.com/sirupsen/logrus"
)

// Watcher is one independent change-detection loop. Interval takes the
// current time because some watchers poll faster inside a peak window.
type Watcher interface {
	Name() string
	Interval(now time.Time) time.Duration
	Pass(ctx context.Context)
}

// RunWatcher drives a watcher until the context is cancelled. Each pass is
// followed by the watcher's interval; a failing pass simply waits for the
// next tick, so the interval doubles as the retry backoff.
func RunWatcher(ctx context.Context, w Watcher, logger *logrus.Entry) {
	logger = logger.WithField("watcher", w.Name())
	logger.Info("Watcher started")
	for {
		w.Pass(ctx)
		select {
		case <-ctx.Done():
			logger.Info("Watcher stopped")
			return
		case <-time.After(w.Interval(time.Now())):
		}
	}
}

// forEachActiveAccount runs fn for every active account under a bounded
// per-account timeout. A failure inside fn must never abort the pass; fn
// logs and returns. A failure to list the accounts themselves is logged and
// retried on the next pass.
func forEachActiveAccount(
	ctx context.Context,
	repo account.Repository,
	opTimeout time.Duration,
	logger *logrus.Entry,
	fn func(ctx context.Context, acc *account.Account),
) {
	accounts, err := repo.ListActive(ctx)
	if err != nil {
		logger.WithError(err).Error("Failed to list accounts, retrying next pass")
		return
	}
	for _, acc := range accounts {
		if ctx.Err() != nil {
			return
		}
		accCtx, cancel := context.WithTimeout(ctx, opTimeout)
		fn(accCtx, acc)
		cancel()
	}
}
