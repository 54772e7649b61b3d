package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/romanzh1/practice-srs/internal/models"
)

// Log writes reminders to a zap logger. Used when no bot token is configured.
type Log struct {
	logger *zap.Logger
}

func NewLog(logger *zap.Logger) *Log {
	if logger == nil {
		logger = zap.L()
	}
	return &Log{logger: logger}
}

func (l *Log) SendRevisionReminder(_ context.Context, reminder models.RevisionReminder) error {
	l.logger.Info(reminderTitle,
		zap.String("owner_id", reminder.OwnerID),
		zap.Int("due", reminder.DueCount),
		zap.String("text", ReminderText(reminder)))
	return nil
}
