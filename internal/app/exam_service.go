package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"qou_notification_bot/internal/domain/account"
	"qou_notification_bot/internal/domain/portal"
	domainTelegram "qou_notification_bot/internal/domain/telegram"
	"qou_notification_bot/internal/infra/scheduler"

	"github.com/sirupsen/logrus"
)

// Reminder offsets per exam event. An offset already in the past at arming
// time is simply never entered.
var reminderSlots = []struct {
	Slot   string
	Offset time.Duration
	Phrase string
}{
	{Slot: "2h", Offset: -2 * time.Hour, Phrase: "بعد ساعتين"},
	{Slot: "30m", Offset: -30 * time.Minute, Phrase: "بعد نصف ساعة"},
	{Slot: "start", Offset: 0, Phrase: "الآن"},
}

// ExamService runs once a day: it summarizes today's exams per account and
// arms the three timed reminders for each of them in the job scheduler. The
// composite job keys make a re-run of the same day replace rather than
// duplicate.
type ExamService struct {
	accounts  account.Repository
	portal    portal.Client
	sink      domainTelegram.Client
	sched     *scheduler.JobScheduler
	logger    *logrus.Entry
	termCode  string
	loc       *time.Location
	opTimeout time.Duration
	now       func() time.Time
}

func NewExamService(
	accounts account.Repository,
	portalClient portal.Client,
	sink domainTelegram.Client,
	sched *scheduler.JobScheduler,
	termCode string,
	loc *time.Location,
	opTimeout time.Duration,
	logger *logrus.Entry,
) *ExamService {
	return &ExamService{
		accounts:  accounts,
		portal:    portalClient,
		sink:      sink,
		sched:     sched,
		logger:    logger.WithField("service", "exams"),
		termCode:  termCode,
		loc:       loc,
		opTimeout: opTimeout,
		now:       time.Now,
	}
}

// RunDailyPass is the body of the scheduler's recurring midnight job.
func (s *ExamService) RunDailyPass(ctx context.Context) {
	s.logger.Info("Daily exam pass started")
	forEachActiveAccount(ctx, s.accounts, s.opTimeout, s.logger, s.checkAccount)
}

func (s *ExamService) checkAccount(ctx context.Context, acc *account.Account) {
	logger := s.logger.WithField("chat_id", acc.ChatID)

	sess, err := s.portal.Login(ctx, acc.Credentials())
	if err != nil {
		logger.WithError(err).Warn("Portal login failed, skipping account this cycle")
		return
	}

	now := s.now().In(s.loc)
	term := s.termCode
	if term == "" {
		term = portal.CurrentTerm(now)
	}

	var todays []portal.ExamEvent
	for _, examType := range portal.AllExamTypes() {
		events, err := sess.ExamSchedule(ctx, term, examType)
		if err != nil {
			logger.WithError(err).WithField("exam_type", examType).Warn("Exam schedule fetch failed")
			continue
		}
		for _, ev := range events {
			day, err := portal.ParseLocalDate(ev.Date, s.loc)
			if err != nil {
				logger.WithError(err).WithField("course", ev.CourseCode).Warn("Unparsable exam date, skipping event")
				continue
			}
			if day.Year() == now.Year() && day.YearDay() == now.YearDay() {
				todays = append(todays, ev)
			}
		}
	}
	if len(todays) == 0 {
		return
	}

	if err := s.sink.SendMessage(acc.ChatID, formatExamSummary(todays), nil); err != nil {
		logger.WithError(err).Error("Failed to deliver exam summary")
	}

	for _, ev := range todays {
		start, err := portal.ParseLocalDateTime(ev.Date, ev.From, s.loc)
		if err != nil {
			logger.WithError(err).WithField("course", ev.CourseCode).Warn("Unparsable exam start time, not scheduling reminders")
			continue
		}
		s.armReminders(acc.ChatID, ev, start)
	}
}

// armReminders upserts the three one-shot jobs of one exam event. Slots
// whose trigger instant has already passed are dropped by the scheduler.
func (s *ExamService) armReminders(chatID int64, ev portal.ExamEvent, start time.Time) {
	for _, slot := range reminderSlots {
		key := scheduler.ReminderKey{
			ChatID:     chatID,
			ExamType:   string(ev.Type),
			CourseCode: ev.CourseCode,
			Date:       ev.Date,
			Slot:       slot.Slot,
		}
		text := fmt.Sprintf("📝 تذكير: امتحان %s لمقرر %s يبدأ %s (الساعة %s)",
			ev.Type.Label(), ev.CourseName, slot.Phrase, ev.From)
		armed := s.sched.UpsertReminder(key, start.Add(slot.Offset), scheduler.Reminder{ChatID: chatID, Text: text})
		if !armed {
			s.logger.WithField("job", key.String()).Debug("Reminder instant already passed, not armed")
		}
	}
}

func formatExamSummary(events []portal.ExamEvent) string {
	var b strings.Builder
	b.WriteString("📝 امتحانات اليوم:\n")
	for _, ev := range events {
		fmt.Fprintf(&b, "\n• [%s] %s الساعة %s\n", ev.Type.Label(), ev.CourseName, ev.From)
		if ev.Note != "" {
			fmt.Fprintf(&b, "ملاحظة: %s\n", ev.Note)
		}
	}
	return b.String()
}
