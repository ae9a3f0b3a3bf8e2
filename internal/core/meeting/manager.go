// Package meeting owns the meeting job lifecycle: which status transitions are
// legal and how they are committed. Every transition is a short, independent
// statement so that a status change is never lost to a failure in the
// surrounding pipeline work.
package meeting

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kumarDivyanshu/summarizer/internal/database"
	"github.com/rs/zerolog/log"
)

// ErrJobBusy is returned when a reprocess request loses the status swap to a
// concurrent attempt on the same meeting.
var ErrJobBusy = errors.New("meeting is already being processed")

// Store is the slice of the persistence layer the lifecycle manager needs.
type Store interface {
	InsertMeeting(ctx context.Context, userID int32, title string, status database.MeetingStatus) (database.Meeting, error)
	GetMeeting(ctx context.Context, meetingID int32) (database.Meeting, error)
	SetMeetingStatus(ctx context.Context, meetingID int32, status database.MeetingStatus) error
	SwapMeetingStatus(ctx context.Context, meetingID int32, status database.MeetingStatus) (bool, error)
	TransitionMeetingStatus(ctx context.Context, meetingID int32, from, to database.MeetingStatus) (bool, error)
	SetMeetingAudioPath(ctx context.Context, meetingID int32, path string) error
}

var legalTransitions = map[database.MeetingStatus][]database.MeetingStatus{
	database.StatusUploaded:   {database.StatusProcessing},
	database.StatusProcessing: {database.StatusCompleted, database.StatusFailed},
	// Terminal states re-enter PROCESSING on a reprocess request.
	database.StatusCompleted: {database.StatusProcessing},
	database.StatusFailed:    {database.StatusProcessing},
}

// Legal reports whether the transition from one status to another is allowed.
func Legal(from, to database.MeetingStatus) bool {
	for _, t := range legalTransitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// Manager commits lifecycle transitions against the store.
type Manager struct {
	store Store
}

func NewManager(store Store) *Manager {
	return &Manager{store: store}
}

// CreateProcessing inserts a new meeting row already in PROCESSING. The insert
// is its own short operation; a later pipeline failure cannot undo it.
func (m *Manager) CreateProcessing(ctx context.Context, userID int32, title string) (database.Meeting, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = "Meeting"
	}
	return m.store.InsertMeeting(ctx, userID, title, database.StatusProcessing)
}

// BeginReprocess acquires the meeting for processing via a compare-and-swap on
// the status column. A concurrent reprocess of the same meeting gets ErrJobBusy.
func (m *Manager) BeginReprocess(ctx context.Context, meetingID int32) error {
	ok, err := m.store.SwapMeetingStatus(ctx, meetingID, database.StatusProcessing)
	if err != nil {
		return fmt.Errorf("swap status: %w", err)
	}
	if !ok {
		return ErrJobBusy
	}
	return nil
}

// Complete moves PROCESSING -> COMPLETED. It refuses any other source state:
// a meeting must never show COMPLETED unless this attempt got there through
// the full pipeline.
func (m *Manager) Complete(ctx context.Context, meetingID int32) error {
	ok, err := m.store.TransitionMeetingStatus(ctx, meetingID,
		database.StatusProcessing, database.StatusCompleted)
	if err != nil {
		return fmt.Errorf("transition status: %w", err)
	}
	if !ok {
		return fmt.Errorf("meeting %d not in %s", meetingID, database.StatusProcessing)
	}
	return nil
}

// MarkFailed records the failure unconditionally and swallows its own errors,
// so that the failure record survives whatever wreckage the caller is
// unwinding from.
func (m *Manager) MarkFailed(ctx context.Context, meetingID int32) {
	if err := m.store.SetMeetingStatus(ctx, meetingID, database.StatusFailed); err != nil {
		log.Error().Err(err).Int32("meeting_id", meetingID).Msg("failed to mark meeting FAILED")
	}
}

func (m *Manager) Get(ctx context.Context, meetingID int32) (database.Meeting, error) {
	return m.store.GetMeeting(ctx, meetingID)
}

func (m *Manager) SetAudioPath(ctx context.Context, meetingID int32, path string) error {
	return m.store.SetMeetingAudioPath(ctx, meetingID, path)
}
