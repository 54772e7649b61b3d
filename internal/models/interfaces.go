package models

import (
	"context"
	"time"
)

type Repository interface {
	CreateRevision(ctx context.Context, record *RevisionRecord) error
	GetRevision(ctx context.Context, ownerID string, id int64) (*RevisionRecord, error)
	PendingExists(ctx context.Context, ownerID, problemID string, cycle Cycle) (bool, error)
	FindPendingDueBy(ctx context.Context, ownerID string, cutoff time.Time) ([]*RevisionRecord, error)
	FindPendingAfter(ctx context.Context, ownerID string, cutoff time.Time, limit int) ([]*RevisionRecord, error)
	CountByStatus(ctx context.Context, ownerID string, status RevisionStatus) (int, error)
	DeletePendingFor(ctx context.Context, ownerID, problemID string) (int, error)
	MarkCompleted(ctx context.Context, id int64, ownerID, notes string, timeTaken *int, at time.Time) (*RevisionRecord, error)

	CreateProblem(ctx context.Context, problem *Problem) error
	GetProblem(ctx context.Context, ownerID, id string) (*Problem, error)
	SetMarkedForRevision(ctx context.Context, ownerID, id string, marked bool) error
	RecordProblemRevision(ctx context.Context, ownerID, id string, at time.Time) error

	SaveReminderSubscription(ctx context.Context, sub *ReminderSubscription) error
	ListReminderSubscriptions(ctx context.Context) ([]*ReminderSubscription, error)

	RunInTx(ctx context.Context, fn func(Repository) error) error
}
