package database

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// MeetingStatus is the job lifecycle state of a meeting record.
type MeetingStatus string

const (
	StatusUploaded   MeetingStatus = "UPLOADED"
	StatusProcessing MeetingStatus = "PROCESSING"
	StatusCompleted  MeetingStatus = "COMPLETED"
	StatusFailed     MeetingStatus = "FAILED"
)

// ActionStatus tracks whether an action item has been closed out.
type ActionStatus string

const (
	ActionPending   ActionStatus = "PENDING"
	ActionCompleted ActionStatus = "COMPLETED"
)

type Meeting struct {
	MeetingID     int32
	UserID        int32
	Title         string
	AudioFilePath pgtype.Text
	Status        MeetingStatus
	CreatedAt     time.Time
}

type Transcript struct {
	TranscriptID   int32
	MeetingID      int32
	TranscriptText string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Summary struct {
	SummaryID    int32
	MeetingID    int32
	SummaryText  string
	KeyDecisions pgtype.Text
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type ActionItem struct {
	ActionID    int32
	MeetingID   int32
	Description string
	AssignedTo  pgtype.Text
	DueDate     pgtype.Date
	Status      ActionStatus
	CreatedAt   time.Time
}

type User struct {
	UserID    int32
	Email     string
	FullName  pgtype.Text
	CreatedAt time.Time
}

// ActionItemParams is the insertable portion of an action item; the rest is
// defaulted by the database.
type ActionItemParams struct {
	Description string
	AssignedTo  pgtype.Text
	DueDate     pgtype.Date
}
