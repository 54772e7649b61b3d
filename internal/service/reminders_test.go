package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/romanzh1/practice-srs/internal/models"
	"github.com/romanzh1/practice-srs/internal/repository/testdb"
	"github.com/romanzh1/practice-srs/internal/service"
)

type MockNotifier struct {
	mu        sync.Mutex
	reminders []models.RevisionReminder
	failFor   map[string]bool
}

func (m *MockNotifier) SendRevisionReminder(_ context.Context, reminder models.RevisionReminder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failFor[reminder.OwnerID] {
		return errors.New("chat not found")
	}
	m.reminders = append(m.reminders, reminder)
	return nil
}

func TestDispatchReminders(t *testing.T) {
	ctx := context.Background()
	db := testdb.New(t)
	solved := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	now := time.Date(2024, 1, 17, 9, 0, 0, 0, time.UTC)

	notifier := &MockNotifier{failFor: map[string]bool{"dave": true}}
	svc := service.NewService(db, service.WithNotifier(notifier))

	// alice has the 3-day and 7-day reviews of one problem due
	first := createProblem(t, db, "alice", "Two Sum", solved)
	require.NoError(t, svc.ScheduleOnSolve(ctx, "alice", first.ID, solved, true))
	// bob has nothing due yet
	second := createProblem(t, db, "bob", "Trapping Rain Water", now)
	require.NoError(t, svc.ScheduleOnSolve(ctx, "bob", second.ID, now, true))
	// dave has one due but delivery fails
	third := createProblem(t, db, "dave", "Word Ladder", solved)
	require.NoError(t, svc.ScheduleOnSolve(ctx, "dave", third.ID, solved, true))

	for owner, chat := range map[string]int64{"alice": 1, "bob": 2, "dave": 4} {
		_, err := svc.SaveReminderSubscription(ctx, owner, chat, true)
		require.NoError(t, err)
	}
	// carol opted out of reminders entirely
	carol := createProblem(t, db, "carol", "Jump Game", solved)
	require.NoError(t, svc.ScheduleOnSolve(ctx, "carol", carol.ID, solved, true))
	_, err := svc.SaveReminderSubscription(ctx, "carol", 3, false)
	require.NoError(t, err)

	result, err := svc.DispatchReminders(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, service.DispatchResult{Subscribers: 3, Notified: 1, Failed: 1}, result)

	require.Len(t, notifier.reminders, 1)
	assert.Equal(t, models.RevisionReminder{
		OwnerID:             "alice",
		TelegramChatID:      1,
		DueCount:            2,
		FirstDueProblemName: "Two Sum",
	}, notifier.reminders[0])
}

func TestDispatchReminders_NoNotifier(t *testing.T) {
	_, err := service.NewService(testdb.New(t)).DispatchReminders(context.Background(), time.Now())
	assert.Error(t, err)
}
