package models

import "time"

type Cycle string

const (
	CycleThreeDay  Cycle = "3-day"
	CycleSevenDay  Cycle = "7-day"
	CycleThirtyDay Cycle = "30-day"
)

type RevisionStatus string

const (
	StatusPending   RevisionStatus = "pending"
	StatusCompleted RevisionStatus = "completed"
	// StatusSkipped is reserved; nothing produces it yet.
	StatusSkipped RevisionStatus = "skipped"
)

type RevisionRecord struct {
	ID               int64          `db:"id" json:"id"`
	OwnerID          string         `db:"owner_id" json:"ownerId"`
	ProblemID        string         `db:"problem_id" json:"problemId"`
	Cycle            Cycle          `db:"cycle" json:"cycle"`
	ScheduledDate    time.Time      `db:"scheduled_date" json:"scheduledDate"`
	Status           RevisionStatus `db:"status" json:"status"`
	CompletedDate    *time.Time     `db:"completed_date" json:"completedDate,omitempty"`
	PerformanceNotes string         `db:"performance_notes" json:"performanceNotes"`
	TimeTaken        *int           `db:"time_taken" json:"timeTaken,omitempty"`
	CreatedAt        time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time      `db:"updated_at" json:"updatedAt"`
}

type Problem struct {
	ID                string      `db:"id" json:"id"`
	OwnerID           string      `db:"owner_id" json:"ownerId"`
	Name              string      `db:"name" json:"name"`
	Platform          string      `db:"platform" json:"platform"`
	Difficulty        string      `db:"difficulty" json:"difficulty"`
	Topic             string      `db:"topic" json:"topic"`
	Status            string      `db:"status" json:"status"`
	DateSolved        time.Time   `db:"date_solved" json:"dateSolved"`
	MarkedForRevision bool        `db:"marked_for_revision" json:"markedForRevision"`
	RevisionCount     int         `db:"revision_count" json:"revisionCount"`
	LastRevised       *time.Time  `db:"last_revised" json:"lastRevised,omitempty"`
	RevisionDates     []time.Time `db:"-" json:"revisionDates"`
	CreatedAt         time.Time   `db:"created_at" json:"createdAt"`
}

// ProblemStatusNeedsRevision schedules revisions even without the explicit flag.
const ProblemStatusNeedsRevision = "Needs Revision"

type RevisionStats struct {
	TotalPending   int     `json:"totalPending"`
	TotalCompleted int     `json:"totalCompleted"`
	CompletionRate float64 `json:"completionRate"`
}

type DueAndUpcoming struct {
	Today    []*RevisionRecord `json:"today"`
	Upcoming []*RevisionRecord `json:"upcoming"`
	Stats    RevisionStats     `json:"stats"`
}

type ReminderSubscription struct {
	OwnerID        string    `db:"owner_id" json:"ownerId"`
	TelegramChatID int64     `db:"telegram_chat_id" json:"telegramChatId"`
	Enabled        bool      `db:"enabled" json:"enabled"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time `db:"updated_at" json:"updatedAt"`
}

type RevisionReminder struct {
	OwnerID             string
	TelegramChatID      int64
	DueCount            int
	FirstDueProblemName string
}
