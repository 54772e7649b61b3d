package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/romanzh1/practice-srs/internal/models"
)

// reminderWorkers bounds how many owners are processed at once.
const reminderWorkers = 4

type Notifier interface {
	SendRevisionReminder(ctx context.Context, reminder models.RevisionReminder) error
}

type DispatchResult struct {
	Subscribers int
	Notified    int
	Failed      int
}

// DispatchReminders notifies every subscribed owner who has reviews due on now's calendar day.
// A failure for one owner is logged and counted, the rest are still processed.
func (s *Service) DispatchReminders(ctx context.Context, now time.Time) (DispatchResult, error) {
	if s.notifier == nil {
		return DispatchResult{}, fmt.Errorf("no notifier configured")
	}

	subs, err := s.repo.ListReminderSubscriptions(ctx)
	if err != nil {
		return DispatchResult{}, fmt.Errorf("list reminder subscriptions: %w", err)
	}

	var notified, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(reminderWorkers)
	for _, sub := range subs {
		g.Go(func() error {
			sent, err := s.remindOwner(gctx, sub, now)
			if err != nil {
				failed.Add(1)
				zap.L().Error("failed to send revision reminder",
					zap.String("owner_id", sub.OwnerID),
					zap.Int64("chat_id", sub.TelegramChatID),
					zap.Error(err))
				return nil
			}
			if sent {
				notified.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	result := DispatchResult{
		Subscribers: len(subs),
		Notified:    int(notified.Load()),
		Failed:      int(failed.Load()),
	}

	zap.L().Info("revision reminders dispatched",
		zap.Int("subscribers", result.Subscribers),
		zap.Int("notified", result.Notified),
		zap.Int("failed", result.Failed))

	return result, nil
}

func (s *Service) remindOwner(ctx context.Context, sub *models.ReminderSubscription, now time.Time) (bool, error) {
	due, err := s.GetDueAndUpcoming(ctx, sub.OwnerID, now)
	if err != nil {
		return false, err
	}
	if len(due.Today) == 0 {
		return false, nil
	}

	reminder := models.RevisionReminder{
		OwnerID:        sub.OwnerID,
		TelegramChatID: sub.TelegramChatID,
		DueCount:       len(due.Today),
	}

	first := due.Today[0]
	problem, err := s.repo.GetProblem(ctx, sub.OwnerID, first.ProblemID)
	if err != nil {
		zap.L().Warn("failed to load due problem name",
			zap.String("owner_id", sub.OwnerID),
			zap.String("problem_id", first.ProblemID),
			zap.Error(err))
	} else {
		reminder.FirstDueProblemName = problem.Name
	}

	if err = s.notifier.SendRevisionReminder(ctx, reminder); err != nil {
		return false, fmt.Errorf("send revision reminder (owner_id: %s): %w", sub.OwnerID, err)
	}

	return true, nil
}
