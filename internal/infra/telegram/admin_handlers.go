package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"qou_notification_bot/internal/app"
	"qou_notification_bot/internal/domain/portal"
	idb "qou_notification_bot/internal/infra/database"
	"qou_notification_bot/internal/infra/scheduler"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// RegisterAdminHandlers wires the operator commands: deadline management,
// account administration and a scheduler status view. Creating a deadline
// immediately fans out the new-deadline announcement through the deadline
// service.
func RegisterAdminHandlers(
	ctx context.Context,
	b *telebot.Bot,
	adminService *app.AdminService,
	deadlineService *app.DeadlineService,
	sched *scheduler.JobScheduler,
	adminTelegramID int64,
	loc *time.Location,
	baseLogger *logrus.Entry,
) {
	b.Handle("/add_deadline", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/add_deadline",
			"sender_id": c.Sender().ID,
		})
		handlerLogger.Info("Command received")

		if c.Sender().ID != adminTelegramID {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send("ليس لديك صلاحية لتنفيذ هذا الأمر.")
		}

		// Expected format: /add_deadline <dd/mm/yyyy> <name...>
		args := c.Args()
		if len(args) < 2 {
			return c.Send("صيغة غير صحيحة. الاستخدام: /add_deadline <يوم/شهر/سنة> <الاسم>")
		}

		date, err := portal.ParseLocalDate(args[0], loc)
		if err != nil {
			handlerLogger.WithField("arg", args[0]).Warn("Invalid date format")
			return c.Send("التاريخ غير صحيح. الصيغة المطلوبة: يوم/شهر/سنة، مثال: 15/01/2026")
		}
		name := strings.TrimSpace(strings.Join(args[1:], " "))
		if name == "" {
			return c.Send("الاسم لا يمكن أن يكون فارغاً.")
		}

		d, err := adminService.AddDeadline(ctx, c.Sender().ID, name, date)
		if err != nil {
			handlerLogger.WithError(err).Error("Failed to add deadline")
			return c.Send("حدث خطأ أثناء إضافة الموعد.")
		}
		handlerLogger.WithField("deadline_id", d.ID).Info("Deadline added")

		if err := deadlineService.NotifyNewDeadline(ctx, d.ID); err != nil {
			handlerLogger.WithError(err).Error("Failed to fan out new-deadline notification")
		}
		return c.Send(fmt.Sprintf("تمت إضافة الموعد \"%s\" بتاريخ %s (رقم %d).", d.Name, d.Date.Format("02/01/2006"), d.ID))
	})

	b.Handle("/deadlines", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/deadlines",
			"sender_id": c.Sender().ID,
		})
		handlerLogger.Info("Command received")

		if c.Sender().ID != adminTelegramID {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send("ليس لديك صلاحية لتنفيذ هذا الأمر.")
		}

		deadlines, err := adminService.ListDeadlines(ctx, c.Sender().ID)
		if err != nil {
			handlerLogger.WithError(err).Error("Failed to list deadlines")
			return c.Send("حدث خطأ أثناء جلب المواعيد.")
		}
		if len(deadlines) == 0 {
			return c.Send("لا توجد مواعيد مسجلة.")
		}
		var sb strings.Builder
		sb.WriteString("المواعيد المسجلة:\n")
		for _, d := range deadlines {
			fmt.Fprintf(&sb, "\n%d. %s - %s\n", d.ID, d.Name, d.Date.Format("02/01/2006"))
		}
		return c.Send(sb.String())
	})

	b.Handle("/remove_deadline", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/remove_deadline",
			"sender_id": c.Sender().ID,
		})
		handlerLogger.Info("Command received")

		if c.Sender().ID != adminTelegramID {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send("ليس لديك صلاحية لتنفيذ هذا الأمر.")
		}

		args := c.Args()
		if len(args) != 1 {
			return c.Send("صيغة غير صحيحة. الاستخدام: /remove_deadline <الرقم>")
		}
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return c.Send("رقم الموعد يجب أن يكون عدداً.")
		}

		if err := adminService.RemoveDeadline(ctx, c.Sender().ID, id); err != nil {
			if err == idb.ErrDeadlineNotFound {
				return c.Send(fmt.Sprintf("لا يوجد موعد بالرقم %d.", id))
			}
			handlerLogger.WithError(err).Error("Failed to remove deadline")
			return c.Send("حدث خطأ أثناء حذف الموعد.")
		}
		handlerLogger.WithField("deadline_id", id).Info("Deadline removed")
		return c.Send(fmt.Sprintf("تم حذف الموعد رقم %d.", id))
	})

	b.Handle("/remove_account", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/remove_account",
			"sender_id": c.Sender().ID,
		})
		handlerLogger.Info("Command received")

		if c.Sender().ID != adminTelegramID {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send("ليس لديك صلاحية لتنفيذ هذا الأمر.")
		}

		args := c.Args()
		if len(args) != 1 {
			return c.Send("صيغة غير صحيحة. الاستخدام: /remove_account <chat_id>")
		}
		chatID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return c.Send("المعرف يجب أن يكون عدداً.")
		}

		acc, err := adminService.DeactivateAccount(ctx, c.Sender().ID, chatID)
		if err != nil {
			switch err {
			case idb.ErrAccountNotFound:
				return c.Send(fmt.Sprintf("لا يوجد حساب بالمعرف %d.", chatID))
			case app.ErrAccountAlreadyInactive:
				return c.Send(fmt.Sprintf("الحساب %d متوقف أصلاً.", chatID))
			default:
				handlerLogger.WithError(err).Error("Failed to deactivate account")
				return c.Send("حدث خطأ أثناء إيقاف الحساب.")
			}
		}
		handlerLogger.WithField("chat_id", acc.ChatID).Info("Account deactivated by admin")
		return c.Send(fmt.Sprintf("تم إيقاف إشعارات الحساب %d (%s).", acc.ChatID, acc.PortalID))
	})

	b.Handle("/status", func(c telebot.Context) error {
		if c.Sender().ID != adminTelegramID {
			return c.Send("ليس لديك صلاحية لتنفيذ هذا الأمر.")
		}
		accounts, err := adminService.ListAccounts(ctx, c.Sender().ID)
		if err != nil {
			baseLogger.WithError(err).Error("Failed to list accounts for /status")
			return c.Send("حدث خطأ أثناء جلب الحالة.")
		}
		active := 0
		for _, a := range accounts {
			if a.IsActive {
				active++
			}
		}
		return c.Send(fmt.Sprintf("الحسابات: %d (منها %d فعّالة)\nتذكيرات الامتحانات المجدولة: %d",
			len(accounts), active, sched.Pending()))
	})
}
