package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"qou_notification_bot/internal/app"
	"qou_notification_bot/internal/infra/config"
	idb "qou_notification_bot/internal/infra/database"
	"qou_notification_bot/internal/infra/logger"
	portalinfra "qou_notification_bot/internal/infra/portal"
	"qou_notification_bot/internal/infra/scheduler"
	"qou_notification_bot/internal/infra/telegram"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("Could not load application configuration: %v", err)
	}
	logger.Init(cfg)
	log := logger.Get().WithField("component", "main")
	log.WithFields(logrus.Fields{
		"environment": cfg.Environment,
		"timezone":    cfg.Location.String(),
	}).Info("Portal notification bot starting")

	db, err := idb.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("Could not connect to database")
	}
	defer db.Close()
	log.Info("Database connection established")

	accountRepo := idb.NewPostgresAccountRepository(db)
	deadlineRepo := idb.NewPostgresDeadlineRepository(db)

	portalClient := portalinfra.NewHTTPClient(cfg.PortalBaseURL, cfg.PortalTimeout, logger.Get().WithField("component", "portal"))

	pref := telebot.Settings{
		Token:  cfg.TelegramToken,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c telebot.Context) {
			entry := logger.Get().WithField("component", "telebot").WithError(err)
			if c != nil && c.Sender() != nil {
				entry = entry.WithField("sender_id", c.Sender().ID)
			}
			entry.Error("Bot error")
		},
	}
	bot, err := telebot.NewBot(pref)
	if err != nil {
		log.WithError(err).Fatal("Could not create Telegram bot")
	}
	sink := telegram.NewTelebotAdapter(bot)

	sched := scheduler.NewJobScheduler(sink, cfg.Location, logger.Get().WithField("component", "scheduler"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	watcherLog := logger.Get().WithField("component", "watcher")
	lectureDedup := app.NewLectureDedup()
	discussionDedup := app.NewDiscussionDedup()

	watchers := []app.Watcher{
		app.NewMessageWatcher(accountRepo, portalClient, sink, cfg.MessageInterval, cfg.PortalTimeout, watcherLog),
		app.NewCourseWatcher(accountRepo, portalClient, sink, cfg.CourseInterval, cfg.CoursePeakInterval, cfg.CoursePeakHour, cfg.Location, cfg.PortalTimeout, watcherLog),
		app.NewLectureWatcher(accountRepo, portalClient, sink, lectureDedup, cfg.LectureInterval, cfg.DigestHour, cfg.Location, cfg.PortalTimeout, watcherLog),
		app.NewAverageWatcher(accountRepo, portalClient, sink, cfg.AverageInterval, cfg.PortalTimeout, watcherLog),
		app.NewDiscussionWatcher(accountRepo, portalClient, sink, discussionDedup, cfg.DiscussionInterval, cfg.DigestHour, cfg.Location, cfg.PortalTimeout, watcherLog),
	}

	deadlineService := app.NewDeadlineService(accountRepo, deadlineRepo, sink, cfg.DeadlineInterval, cfg.PortalTimeout, cfg.Location, watcherLog)
	watchers = append(watchers, deadlineService)

	examService := app.NewExamService(accountRepo, portalClient, sink, sched, cfg.TermCode, cfg.Location, cfg.PortalTimeout, logger.Get().WithField("component", "exams"))

	// The midnight job purges the day-scoped dedup registries and re-arms
	// the day's exam reminders.
	err = sched.ScheduleRecurring(cfg.MidnightCronSpec, "midnight", func() {
		lectureDedup.ClearDaily()
		discussionDedup.ClearDaily()
		examService.RunDailyPass(ctx)
	})
	if err != nil {
		log.WithError(err).Fatal("Could not schedule the midnight job")
	}
	sched.Start()

	for _, w := range watchers {
		go app.RunWatcher(ctx, w, watcherLog)
	}

	accountService := app.NewAccountService(accountRepo, portalClient)
	adminService := app.NewAdminService(accountRepo, deadlineRepo, cfg.AdminTelegramID)
	handlerLog := logger.Get().WithField("component", "handlers")
	telegram.RegisterBotCommands(ctx, bot, accountService, handlerLog)
	telegram.RegisterAdminHandlers(ctx, bot, adminService, deadlineService, sched, cfg.AdminTelegramID, cfg.Location, handlerLog)

	log.Info("Application setup complete, starting bot")
	go bot.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down")
	cancel()
	sched.Stop()
	bot.Stop()
	log.Info("Shut down gracefully")
}
