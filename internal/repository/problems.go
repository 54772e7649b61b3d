package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/romanzh1/practice-srs/internal/models"
)

var problemColumns = []string{
	"id", "owner_id", "name", "platform", "difficulty", "topic", "status",
	"date_solved", "marked_for_revision", "revision_count", "last_revised", "created_at",
}

func (r *DB) CreateProblem(ctx context.Context, problem *models.Problem) error {
	if problem.ID == "" {
		problem.ID = uuid.NewString()
	}
	if problem.CreatedAt.IsZero() {
		problem.CreatedAt = dbTime(time.Now())
	}
	if problem.RevisionDates == nil {
		problem.RevisionDates = []time.Time{}
	}

	query := r.psql.Insert("problems").
		Columns(problemColumns...).
		Values(problem.ID, problem.OwnerID, problem.Name, problem.Platform, problem.Difficulty, problem.Topic, problem.Status,
			dbTime(problem.DateSolved), problem.MarkedForRevision, problem.RevisionCount, utcPtr(problem.LastRevised), dbTime(problem.CreatedAt))

	stmt, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build SQL query (owner_id: %s, problem_id: %s): %w", problem.OwnerID, problem.ID, err)
	}

	if _, err = r.ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("create problem (owner_id: %s, name: %s): %w", problem.OwnerID, problem.Name, err)
	}

	return nil
}

func (r *DB) GetProblem(ctx context.Context, ownerID, id string) (*models.Problem, error) {
	query := r.psql.Select(problemColumns...).
		From("problems").
		Where(squirrel.Eq{"id": id, "owner_id": ownerID})

	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build SQL query (owner_id: %s, problem_id: %s): %w", ownerID, id, err)
	}

	var problem models.Problem
	if err = r.GetContext(ctx, &problem, stmt, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &models.NotFoundError{Entity: "problem", ID: id, OwnerID: ownerID}
		}
		return nil, fmt.Errorf("get problem (owner_id: %s, problem_id: %s): %w", ownerID, id, err)
	}

	dates, err := r.problemRevisionDates(ctx, id)
	if err != nil {
		return nil, err
	}
	problem.RevisionDates = dates

	return &problem, nil
}

func (r *DB) problemRevisionDates(ctx context.Context, id string) ([]time.Time, error) {
	query := r.psql.Select("revised_at").
		From("problem_revision_dates").
		Where(squirrel.Eq{"problem_id": id}).
		OrderBy("revised_at ASC")

	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build SQL query (problem_id: %s): %w", id, err)
	}

	dates := []time.Time{}
	if err = r.SelectContext(ctx, &dates, stmt, args...); err != nil {
		return nil, fmt.Errorf("query revision dates (problem_id: %s): %w", id, err)
	}

	return dates, nil
}

func (r *DB) SetMarkedForRevision(ctx context.Context, ownerID, id string, marked bool) error {
	query := r.psql.Update("problems").
		Set("marked_for_revision", marked).
		Where(squirrel.Eq{"id": id, "owner_id": ownerID})

	stmt, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build SQL query (owner_id: %s, problem_id: %s): %w", ownerID, id, err)
	}

	result, err := r.ExecContext(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("set marked for revision (owner_id: %s, problem_id: %s, marked: %t): %w", ownerID, id, marked, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected (owner_id: %s, problem_id: %s): %w", ownerID, id, err)
	}
	if rows == 0 {
		return &models.NotFoundError{Entity: "problem", ID: id, OwnerID: ownerID}
	}

	return nil
}

// RecordProblemRevision bumps the denormalized revision counters of an owner's problem.
func (r *DB) RecordProblemRevision(ctx context.Context, ownerID, id string, at time.Time) error {
	at = dbTime(at)

	return r.inTx(ctx, func(tx *DB) error {
		update := tx.psql.Update("problems").
			Set("revision_count", squirrel.Expr("revision_count + 1")).
			Set("last_revised", at).
			Where(squirrel.Eq{"id": id, "owner_id": ownerID})

		stmt, args, err := update.ToSql()
		if err != nil {
			return fmt.Errorf("build SQL query (owner_id: %s, problem_id: %s): %w", ownerID, id, err)
		}

		result, err := tx.ExecContext(ctx, stmt, args...)
		if err != nil {
			return fmt.Errorf("increment revision count (owner_id: %s, problem_id: %s): %w", ownerID, id, err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("get rows affected (problem_id: %s): %w", id, err)
		}
		if rows == 0 {
			return &models.NotFoundError{Entity: "problem", ID: id, OwnerID: ownerID}
		}

		insert := tx.psql.Insert("problem_revision_dates").
			Columns("problem_id", "revised_at").
			Values(id, at)

		stmt, args, err = insert.ToSql()
		if err != nil {
			return fmt.Errorf("build SQL query (problem_id: %s): %w", id, err)
		}

		if _, err = tx.ExecContext(ctx, stmt, args...); err != nil {
			return fmt.Errorf("append revision date (problem_id: %s, date: %s): %w", id, at.Format(time.RFC3339), err)
		}

		return nil
	})
}
