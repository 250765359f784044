package telegram

import "gopkg.in/telebot.v3"

// Client is the notification sink. It decouples the watchers from the bot
// library; delivery failures are logged by callers, never treated as fatal.
type Client interface {
	SendMessage(recipientChatID int64, text string, options *telebot.SendOptions) error
}
