package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/romanzh1/practice-srs/internal/models"
	"github.com/romanzh1/practice-srs/internal/service/srs"
)

var revisionColumns = []string{
	"id", "owner_id", "problem_id", "cycle", "scheduled_date", "status",
	"completed_date", "performance_notes", "time_taken", "created_at", "updated_at",
}

func (r *DB) CreateRevision(ctx context.Context, record *models.RevisionRecord) error {
	if !srs.ValidCycle(record.Cycle) {
		return fmt.Errorf("unknown revision cycle (owner_id: %s, problem_id: %s, cycle: %s)", record.OwnerID, record.ProblemID, record.Cycle)
	}

	now := dbTime(time.Now())
	record.ScheduledDate = dbTime(record.ScheduledDate)
	if record.Status == "" {
		record.Status = models.StatusPending
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.CreatedAt = dbTime(record.CreatedAt)
	record.UpdatedAt = now

	query := r.psql.Insert("revisions").
		Columns("owner_id", "problem_id", "cycle", "scheduled_date", "status", "completed_date", "performance_notes", "time_taken", "created_at", "updated_at").
		Values(record.OwnerID, record.ProblemID, record.Cycle, record.ScheduledDate, record.Status, utcPtr(record.CompletedDate), record.PerformanceNotes, record.TimeTaken, record.CreatedAt, record.UpdatedAt).
		Suffix("RETURNING id")

	stmt, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build SQL query (owner_id: %s, problem_id: %s): %w", record.OwnerID, record.ProblemID, err)
	}

	if err = r.QueryRowxContext(ctx, stmt, args...).Scan(&record.ID); err != nil {
		if isUniqueViolation(err) {
			return &models.DuplicatePendingError{OwnerID: record.OwnerID, ProblemID: record.ProblemID, Cycle: record.Cycle}
		}
		return fmt.Errorf("create revision (owner_id: %s, problem_id: %s, cycle: %s): %w", record.OwnerID, record.ProblemID, record.Cycle, err)
	}

	return nil
}

func (r *DB) GetRevision(ctx context.Context, ownerID string, id int64) (*models.RevisionRecord, error) {
	query := r.psql.Select(revisionColumns...).
		From("revisions").
		Where(squirrel.Eq{"id": id, "owner_id": ownerID})

	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build SQL query (owner_id: %s, id: %d): %w", ownerID, id, err)
	}

	var record models.RevisionRecord
	if err = r.GetContext(ctx, &record, stmt, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, revisionNotFound(ownerID, id)
		}
		return nil, fmt.Errorf("get revision (owner_id: %s, id: %d): %w", ownerID, id, err)
	}

	return &record, nil
}

func (r *DB) PendingExists(ctx context.Context, ownerID, problemID string, cycle models.Cycle) (bool, error) {
	query := r.psql.Select("COUNT(*)").
		From("revisions").
		Where(squirrel.Eq{"owner_id": ownerID, "problem_id": problemID, "cycle": cycle, "status": models.StatusPending})

	stmt, args, err := query.ToSql()
	if err != nil {
		return false, fmt.Errorf("build SQL query (owner_id: %s, problem_id: %s): %w", ownerID, problemID, err)
	}

	var count int
	if err = r.QueryRowxContext(ctx, stmt, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("check pending revision exists (owner_id: %s, problem_id: %s, cycle: %s): %w", ownerID, problemID, cycle, err)
	}

	return count > 0, nil
}

func (r *DB) FindPendingDueBy(ctx context.Context, ownerID string, cutoff time.Time) ([]*models.RevisionRecord, error) {
	query := r.psql.Select(revisionColumns...).
		From("revisions").
		Where(squirrel.Eq{"owner_id": ownerID, "status": models.StatusPending}).
		Where(squirrel.LtOrEq{"scheduled_date": dbTime(cutoff)}).
		OrderBy("scheduled_date ASC", "id ASC")

	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build SQL query (owner_id: %s): %w", ownerID, err)
	}

	records := []*models.RevisionRecord{}
	if err = r.SelectContext(ctx, &records, stmt, args...); err != nil {
		return nil, fmt.Errorf("query due revisions (owner_id: %s, cutoff_time: %s): %w", ownerID, cutoff.Format(time.RFC3339), err)
	}

	return records, nil
}

func (r *DB) FindPendingAfter(ctx context.Context, ownerID string, cutoff time.Time, limit int) ([]*models.RevisionRecord, error) {
	if limit <= 0 {
		limit = srs.DefaultUpcomingLimit
	}

	query := r.psql.Select(revisionColumns...).
		From("revisions").
		Where(squirrel.Eq{"owner_id": ownerID, "status": models.StatusPending}).
		Where(squirrel.Gt{"scheduled_date": dbTime(cutoff)}).
		OrderBy("scheduled_date ASC", "id ASC").
		Limit(uint64(limit))

	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build SQL query (owner_id: %s): %w", ownerID, err)
	}

	records := []*models.RevisionRecord{}
	if err = r.SelectContext(ctx, &records, stmt, args...); err != nil {
		return nil, fmt.Errorf("query upcoming revisions (owner_id: %s, cutoff_time: %s): %w", ownerID, cutoff.Format(time.RFC3339), err)
	}

	return records, nil
}

func (r *DB) CountByStatus(ctx context.Context, ownerID string, status models.RevisionStatus) (int, error) {
	query := r.psql.Select("COUNT(*)").
		From("revisions").
		Where(squirrel.Eq{"owner_id": ownerID, "status": status})

	stmt, args, err := query.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build SQL query (owner_id: %s): %w", ownerID, err)
	}

	var count int
	if err = r.QueryRowxContext(ctx, stmt, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count revisions (owner_id: %s, status: %s): %w", ownerID, status, err)
	}

	return count, nil
}

func (r *DB) DeletePendingFor(ctx context.Context, ownerID, problemID string) (int, error) {
	query := r.psql.Delete("revisions").
		Where(squirrel.Eq{"owner_id": ownerID, "problem_id": problemID, "status": models.StatusPending})

	stmt, args, err := query.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build SQL query (owner_id: %s, problem_id: %s): %w", ownerID, problemID, err)
	}

	result, err := r.ExecContext(ctx, stmt, args...)
	if err != nil {
		return 0, fmt.Errorf("delete pending revisions (owner_id: %s, problem_id: %s): %w", ownerID, problemID, err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected (owner_id: %s, problem_id: %s): %w", ownerID, problemID, err)
	}

	return int(deleted), nil
}

// MarkCompleted moves a pending record to completed with a single conditional update,
// so concurrent callers see exactly one success.
func (r *DB) MarkCompleted(ctx context.Context, id int64, ownerID, notes string, timeTaken *int, at time.Time) (*models.RevisionRecord, error) {
	at = dbTime(at)

	var record *models.RevisionRecord
	err := r.inTx(ctx, func(tx *DB) error {
		query := tx.psql.Update("revisions").
			Set("status", models.StatusCompleted).
			Set("completed_date", at).
			Set("performance_notes", notes).
			Set("time_taken", timeTaken).
			Set("updated_at", at).
			Where(squirrel.Eq{"id": id, "owner_id": ownerID, "status": models.StatusPending})

		stmt, args, err := query.ToSql()
		if err != nil {
			return fmt.Errorf("build SQL query (owner_id: %s, id: %d): %w", ownerID, id, err)
		}

		result, err := tx.ExecContext(ctx, stmt, args...)
		if err != nil {
			return fmt.Errorf("mark revision completed (owner_id: %s, id: %d): %w", ownerID, id, err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("get rows affected (owner_id: %s, id: %d): %w", ownerID, id, err)
		}
		if rows == 0 {
			return revisionNotFound(ownerID, id)
		}

		record, err = tx.GetRevision(ctx, ownerID, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	return record, nil
}

func revisionNotFound(ownerID string, id int64) *models.NotFoundError {
	return &models.NotFoundError{Entity: "revision", ID: strconv.FormatInt(id, 10), OwnerID: ownerID}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := dbTime(*t)
	return &u
}

// dbTime normalizes t to UTC at microsecond precision, the finest Postgres timestamps keep.
// Cutoffs such as the last nanosecond of a day would otherwise round up to the next day.
func dbTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
