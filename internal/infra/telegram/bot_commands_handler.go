package telegram

import (
	"context"

	"qou_notification_bot/internal/app"
	idb "qou_notification_bot/internal/infra/database"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// RegisterBotCommands wires the student-facing commands: /start, /help,
// /register and /stop.
func RegisterBotCommands(
	ctx context.Context,
	b *telebot.Bot,
	accountService *app.AccountService,
	baseLogger *logrus.Entry,
) {
	b.Handle("/start", func(c telebot.Context) error {
		baseLogger.WithFields(logrus.Fields{
			"handler":   "/start",
			"sender_id": c.Sender().ID,
		}).Info("Command received")
		return c.Send("أهلاً بك! أنا بوت إشعارات البوابة الأكاديمية.\n" +
			"أُعلمك بالرسائل الجديدة وتحديثات العلامات والمعدل ومحاضرات اليوم واللقاءات والامتحانات.\n\n" +
			"للتسجيل أرسل:\n/register <الرقم الجامعي> <كلمة المرور>\n\n" +
			"لمزيد من المساعدة أرسل /help")
	})

	b.Handle("/help", func(c telebot.Context) error {
		return c.Send("الأوامر المتاحة:\n\n" +
			"/register <الرقم الجامعي> <كلمة المرور>\nربط حسابك في البوابة لتصلك الإشعارات.\n\n" +
			"/stop\nإيقاف الإشعارات. بياناتك تبقى محفوظة ويمكنك التسجيل من جديد.\n\n" +
			"/help\nعرض هذه الرسالة.")
	})

	b.Handle("/register", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/register",
			"sender_id": c.Sender().ID,
		})
		handlerLogger.Info("Command received")

		args := c.Args()
		if len(args) != 2 {
			return c.Send("صيغة غير صحيحة. الاستخدام: /register <الرقم الجامعي> <كلمة المرور>")
		}

		acc, err := accountService.Register(ctx, c.Sender().ID, args[0], args[1])
		if err != nil {
			switch err {
			case app.ErrAccountAlreadyExists:
				return c.Send("حسابك مسجل أصلاً. أرسل /stop أولاً إن أردت تغيير البيانات.")
			case app.ErrBadPortalCredentials:
				handlerLogger.Warn("Portal rejected registration credentials")
				return c.Send("تعذر تسجيل الدخول إلى البوابة. تأكد من الرقم الجامعي وكلمة المرور.")
			default:
				handlerLogger.WithError(err).Error("Registration failed")
				return c.Send("حدث خطأ أثناء التسجيل. حاول مرة أخرى لاحقاً.")
			}
		}
		handlerLogger.WithField("portal_id", acc.PortalID).Info("Account registered")
		return c.Send("تم التسجيل بنجاح! ستصلك الإشعارات من الآن فصاعداً.")
	})

	b.Handle("/stop", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/stop",
			"sender_id": c.Sender().ID,
		})
		handlerLogger.Info("Command received")

		_, err := accountService.Deactivate(ctx, c.Sender().ID)
		if err != nil {
			switch err {
			case idb.ErrAccountNotFound:
				return c.Send("لا يوجد حساب مسجل لهذه المحادثة.")
			case app.ErrAccountAlreadyInactive:
				return c.Send("الإشعارات متوقفة أصلاً.")
			default:
				handlerLogger.WithError(err).Error("Deactivation failed")
				return c.Send("حدث خطأ أثناء إيقاف الإشعارات.")
			}
		}
		handlerLogger.Info("Account deactivated")
		return c.Send("تم إيقاف الإشعارات. أرسل /register للعودة في أي وقت.")
	})
}
