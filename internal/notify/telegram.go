package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/romanzh1/practice-srs/internal/models"
)

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Telegram struct {
	api     sender
	limiter *rate.Limiter
}

// NewTelegram connects to the bot API. perSecond caps outgoing messages; Telegram
// allows roughly 30 per second across chats.
func NewTelegram(token string, perSecond float64) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot API: %w", err)
	}

	zap.L().Info("telegram notifier authorized", zap.String("bot", api.Self.UserName))

	return newTelegram(api, perSecond), nil
}

func newTelegram(api sender, perSecond float64) *Telegram {
	if perSecond <= 0 {
		perSecond = 25
	}

	return &Telegram{
		api:     api,
		limiter: rate.NewLimiter(rate.Limit(perSecond), 1),
	}
}

func (t *Telegram) SendRevisionReminder(ctx context.Context, reminder models.RevisionReminder) error {
	if reminder.TelegramChatID == 0 {
		return fmt.Errorf("no telegram chat (owner_id: %s)", reminder.OwnerID)
	}

	if err := t.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("wait for send slot (owner_id: %s): %w", reminder.OwnerID, err)
	}

	msg := tgbotapi.NewMessage(reminder.TelegramChatID, reminderHTML(reminder))
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := t.api.Send(msg); err != nil {
		return fmt.Errorf("send message (owner_id: %s, chat_id: %d): %w", reminder.OwnerID, reminder.TelegramChatID, err)
	}

	return nil
}
