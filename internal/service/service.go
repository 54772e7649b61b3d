package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/romanzh1/practice-srs/internal/models"
	"github.com/romanzh1/practice-srs/internal/service/srs"
	"github.com/romanzh1/practice-srs/pkg/utils"
)

type Service struct {
	repo     models.Repository
	notifier Notifier
	now      func() time.Time
}

type Option func(*Service)

// WithClock replaces the wall clock used for opt-in dates and completion timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func WithNotifier(notifier Notifier) Option {
	return func(s *Service) {
		s.notifier = notifier
	}
}

func NewService(repo models.Repository, opts ...Option) *Service {
	s := &Service{
		repo: repo,
		now:  utils.NowUTC,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ScheduleOnSolve creates the 3, 7 and 30 day reviews of a freshly solved problem.
// Cycles that already have a pending review are left alone, so repeated calls converge.
func (s *Service) ScheduleOnSolve(ctx context.Context, ownerID, problemID string, solvedDate time.Time, revisionRequested bool) error {
	if !revisionRequested {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, cycle := range srs.Cycles() {
		g.Go(func() error {
			record := &models.RevisionRecord{
				OwnerID:       ownerID,
				ProblemID:     problemID,
				Cycle:         cycle,
				ScheduledDate: srs.ScheduledDate(solvedDate, cycle),
				Status:        models.StatusPending,
			}

			err := s.repo.CreateRevision(gctx, record)
			var dup *models.DuplicatePendingError
			if errors.As(err, &dup) {
				zap.L().Debug("revision already pending, skipping",
					zap.String("owner_id", ownerID),
					zap.String("problem_id", problemID),
					zap.String("cycle", string(cycle)))
				return nil
			}
			if err != nil {
				return fmt.Errorf("schedule revision (owner_id: %s, problem_id: %s, cycle: %s): %w", ownerID, problemID, cycle, err)
			}
			return nil
		})
	}

	return g.Wait()
}

// OptInRevision enrolls an already logged problem with a single 3-day review from now.
func (s *Service) OptInRevision(ctx context.Context, ownerID, problemID string) (*models.RevisionRecord, error) {
	if _, err := s.repo.GetProblem(ctx, ownerID, problemID); err != nil {
		return nil, err
	}

	exists, err := s.repo.PendingExists(ctx, ownerID, problemID, srs.OptInCycle)
	if err != nil {
		return nil, fmt.Errorf("check pending revision (owner_id: %s, problem_id: %s): %w", ownerID, problemID, err)
	}
	if exists {
		return nil, &models.AlreadyScheduledError{OwnerID: ownerID, ProblemID: problemID}
	}

	record := &models.RevisionRecord{
		OwnerID:       ownerID,
		ProblemID:     problemID,
		Cycle:         srs.OptInCycle,
		ScheduledDate: srs.ScheduledDate(s.now(), srs.OptInCycle),
		Status:        models.StatusPending,
	}

	if err = s.repo.CreateRevision(ctx, record); err != nil {
		var dup *models.DuplicatePendingError
		if errors.As(err, &dup) {
			return nil, &models.AlreadyScheduledError{OwnerID: ownerID, ProblemID: problemID, Err: err}
		}
		return nil, fmt.Errorf("create opt-in revision (owner_id: %s, problem_id: %s): %w", ownerID, problemID, err)
	}

	if err = s.repo.SetMarkedForRevision(ctx, ownerID, problemID, true); err != nil {
		zap.L().Warn("failed to mark problem for revision",
			zap.String("owner_id", ownerID),
			zap.String("problem_id", problemID),
			zap.Error(err))
	}

	return record, nil
}

// OptOutRevision drops every pending review of the problem and clears its revision flag.
// Completed history is kept.
func (s *Service) OptOutRevision(ctx context.Context, ownerID, problemID string) (int, error) {
	var deleted int
	err := s.repo.RunInTx(ctx, func(tx models.Repository) error {
		n, err := tx.DeletePendingFor(ctx, ownerID, problemID)
		if err != nil {
			return err
		}
		deleted = n

		err = tx.SetMarkedForRevision(ctx, ownerID, problemID, false)
		var notFound *models.NotFoundError
		if err != nil && !errors.As(err, &notFound) {
			return err
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("opt out of revision (owner_id: %s, problem_id: %s): %w", ownerID, problemID, err)
	}

	return deleted, nil
}

// GetDueAndUpcoming splits pending reviews at the end of now's calendar day.
// Overdue reviews stay in today until completed.
func (s *Service) GetDueAndUpcoming(ctx context.Context, ownerID string, now time.Time) (*models.DueAndUpcoming, error) {
	endOfDay := utils.EndOfDay(now)

	today, err := s.repo.FindPendingDueBy(ctx, ownerID, endOfDay)
	if err != nil {
		return nil, err
	}

	upcoming, err := s.repo.FindPendingAfter(ctx, ownerID, endOfDay, srs.DefaultUpcomingLimit)
	if err != nil {
		return nil, err
	}

	stats, err := s.revisionStats(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	return &models.DueAndUpcoming{
		Today:    today,
		Upcoming: upcoming,
		Stats:    stats,
	}, nil
}

func (s *Service) revisionStats(ctx context.Context, ownerID string) (models.RevisionStats, error) {
	pending, err := s.repo.CountByStatus(ctx, ownerID, models.StatusPending)
	if err != nil {
		return models.RevisionStats{}, err
	}

	completed, err := s.repo.CountByStatus(ctx, ownerID, models.StatusCompleted)
	if err != nil {
		return models.RevisionStats{}, err
	}

	return models.RevisionStats{
		TotalPending:   pending,
		TotalCompleted: completed,
		CompletionRate: srs.CompletionRate(completed, pending),
	}, nil
}

// CompleteRevision finishes a pending review. Updating the problem counters afterwards is
// best-effort: a failure there is logged and the completed record is still returned.
func (s *Service) CompleteRevision(ctx context.Context, recordID int64, ownerID, notes string, timeTaken *int) (*models.RevisionRecord, error) {
	at := s.now()

	record, err := s.repo.MarkCompleted(ctx, recordID, ownerID, notes, timeTaken, at)
	if err != nil {
		return nil, err
	}

	if err = s.repo.RecordProblemRevision(ctx, ownerID, record.ProblemID, at); err != nil {
		zap.L().Warn("failed to update problem revision counters",
			zap.String("owner_id", ownerID),
			zap.String("problem_id", record.ProblemID),
			zap.Int64("revision_id", recordID),
			zap.Error(err))
	}

	return record, nil
}
