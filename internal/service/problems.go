package service

import (
	"context"
	"fmt"

	"github.com/romanzh1/practice-srs/internal/models"
)

// LogProblem stores a solved problem and schedules its reviews when the owner asked for them
// either with the flag or through the "Needs Revision" status.
func (s *Service) LogProblem(ctx context.Context, problem *models.Problem) (*models.Problem, error) {
	if problem.DateSolved.IsZero() {
		problem.DateSolved = s.now()
	}

	requested := problem.MarkedForRevision || problem.Status == models.ProblemStatusNeedsRevision
	problem.MarkedForRevision = requested

	if err := s.repo.CreateProblem(ctx, problem); err != nil {
		return nil, err
	}

	if err := s.ScheduleOnSolve(ctx, problem.OwnerID, problem.ID, problem.DateSolved, requested); err != nil {
		return nil, fmt.Errorf("schedule solved problem (owner_id: %s, problem_id: %s): %w", problem.OwnerID, problem.ID, err)
	}

	return problem, nil
}

func (s *Service) GetProblem(ctx context.Context, ownerID, problemID string) (*models.Problem, error) {
	return s.repo.GetProblem(ctx, ownerID, problemID)
}

func (s *Service) SaveReminderSubscription(ctx context.Context, ownerID string, chatID int64, enabled bool) (*models.ReminderSubscription, error) {
	sub := &models.ReminderSubscription{
		OwnerID:        ownerID,
		TelegramChatID: chatID,
		Enabled:        enabled,
	}

	if err := s.repo.SaveReminderSubscription(ctx, sub); err != nil {
		return nil, err
	}

	return sub, nil
}
