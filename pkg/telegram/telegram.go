package telegram

import (
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Notifier defines the interface for an operational notifier.
type Notifier interface {
	SendMessage(text string) error
}

type client struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewClient creates a new Telegram notifier client.
func NewClient(botToken string, chatID int64) (Notifier, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, err
	}
	return &client{
		bot:    bot,
		chatID: chatID,
	}, nil
}

// SendMessage sends a message to the configured Telegram chat.
func (c *client) SendMessage(text string) error {
	msg := tgbotapi.NewMessage(c.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	_, err := c.bot.Send(msg)
	return err
}

// FormatSweepSummary renders a resolution-sweep report for the ops channel.
func FormatSweepSummary(at time.Time, due, published int) string {
	return fmt.Sprintf("*Resolution sweep* %s\nDue predictions: %d\nPublished for scoring: %d",
		at.Format("2006-01-02 15:04:05 MST"), due, published)
}

// noop is used when no bot token is configured.
type noop struct{}

// NewNoopNotifier returns a Notifier that discards all messages.
func NewNoopNotifier() Notifier {
	return noop{}
}

func (noop) SendMessage(string) error { return nil }
