// internal/infra/telegram/notifier.go
package telegram

import (
	"fmt"
	"time"

	"github.com/eyelabsai/QuickReviews/internal/domain/ops"

	"gopkg.in/telebot.v3"
)

// OpsNotifier implements the ops.Notifier interface using the
// gopkg.in/telebot.v3 library. It only sends; no handlers are registered.
type OpsNotifier struct {
	bot    *telebot.Bot
	chatID int64
}

func NewOpsNotifier(token string, chatID int64) (*OpsNotifier, error) {
	bot, err := telebot.NewBot(telebot.Settings{
		Token:  token,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		return nil, fmt.Errorf("could not create Telegram bot: %w", err)
	}
	return &OpsNotifier{bot: bot, chatID: chatID}, nil
}

// Notify sends a text message to the configured ops chat.
func (n *OpsNotifier) Notify(text string) error {
	_, err := n.bot.Send(&telebot.User{ID: n.chatID}, text)
	return err
}

var _ ops.Notifier = (*OpsNotifier)(nil)
