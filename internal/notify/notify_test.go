package notify

import (
	"context"
	"errors"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/romanzh1/practice-srs/internal/models"
)

type fakeSender struct {
	sent []tgbotapi.MessageConfig
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if f.err != nil {
		return tgbotapi.Message{}, f.err
	}
	f.sent = append(f.sent, c.(tgbotapi.MessageConfig))
	return tgbotapi.Message{}, nil
}

func TestReminderText(t *testing.T) {
	tests := []struct {
		name     string
		reminder models.RevisionReminder
		want     string
	}{
		{
			name:     "single with name",
			reminder: models.RevisionReminder{DueCount: 1, FirstDueProblemName: "Two Sum"},
			want:     "You have 1 pending revision: Two Sum 5 mins now saves hours later!",
		},
		{
			name:     "single without name",
			reminder: models.RevisionReminder{DueCount: 1},
			want:     "You have 1 pending revision to complete. 5 mins now saves hours later!",
		},
		{
			name:     "several",
			reminder: models.RevisionReminder{DueCount: 4, FirstDueProblemName: "Two Sum"},
			want:     "You have 4 pending revisions to complete. 5 mins now saves hours later!",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ReminderText(tt.reminder))
		})
	}
}

func TestTelegram_SendRevisionReminder(t *testing.T) {
	api := &fakeSender{}
	tg := newTelegram(api, 1000)

	err := tg.SendRevisionReminder(context.Background(), models.RevisionReminder{
		OwnerID:             "alice",
		TelegramChatID:      42,
		DueCount:            1,
		FirstDueProblemName: "a < b",
	})
	require.NoError(t, err)
	require.Len(t, api.sent, 1)

	msg := api.sent[0]
	assert.Equal(t, int64(42), msg.ChatID)
	assert.Equal(t, tgbotapi.ModeHTML, msg.ParseMode)
	assert.Equal(t, "<b>📚 Revision Reminder</b>\nYou have 1 pending revision: a &lt; b 5 mins now saves hours later!", msg.Text)
}

func TestTelegram_Errors(t *testing.T) {
	ctx := context.Background()

	tg := newTelegram(&fakeSender{}, 1000)
	assert.Error(t, tg.SendRevisionReminder(ctx, models.RevisionReminder{OwnerID: "alice", DueCount: 2}))

	boom := errors.New("bad gateway")
	tg = newTelegram(&fakeSender{err: boom}, 1000)
	err := tg.SendRevisionReminder(ctx, models.RevisionReminder{OwnerID: "alice", TelegramChatID: 1, DueCount: 2})
	assert.ErrorIs(t, err, boom)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	tg = newTelegram(&fakeSender{}, 1000)
	assert.Error(t, tg.SendRevisionReminder(cancelled, models.RevisionReminder{OwnerID: "alice", TelegramChatID: 1, DueCount: 2}))
}

func TestLog_SendRevisionReminder(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	notifier := NewLog(zap.New(core))

	require.NoError(t, notifier.SendRevisionReminder(context.Background(), models.RevisionReminder{OwnerID: "bob", DueCount: 3}))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, reminderTitle, entries[0].Message)
	assert.Equal(t, "bob", entries[0].ContextMap()["owner_id"])
	assert.Equal(t, int64(3), entries[0].ContextMap()["due"])
}
