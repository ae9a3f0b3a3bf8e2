package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned by lookups for rows that do not exist.
var ErrNotFound = pgx.ErrNoRows

// Store is the hand-rolled query layer over the connection pool. Every method
// is a single short statement (or a small transaction) so that no database
// connection is ever held across an external network call.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const meetingColumns = "meeting_id, user_id, title, audio_file_path, status, created_at"

func scanMeeting(row pgx.Row) (Meeting, error) {
	var m Meeting
	err := row.Scan(&m.MeetingID, &m.UserID, &m.Title, &m.AudioFilePath, &m.Status, &m.CreatedAt)
	return m, err
}

func (s *Store) InsertMeeting(ctx context.Context, userID int32, title string, status MeetingStatus) (Meeting, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO meetings (user_id, title, status)
		VALUES ($1, $2, $3)
		RETURNING `+meetingColumns,
		userID, title, status)
	return scanMeeting(row)
}

func (s *Store) GetMeeting(ctx context.Context, meetingID int32) (Meeting, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+meetingColumns+` FROM meetings WHERE meeting_id = $1`, meetingID)
	return scanMeeting(row)
}

func (s *Store) GetMeetingForUser(ctx context.Context, meetingID, userID int32) (Meeting, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+meetingColumns+` FROM meetings WHERE meeting_id = $1 AND user_id = $2`,
		meetingID, userID)
	return scanMeeting(row)
}

func (s *Store) ListMeetingsByUser(ctx context.Context, userID int32) ([]Meeting, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+meetingColumns+` FROM meetings
		WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var meetings []Meeting
	for rows.Next() {
		m, err := scanMeeting(rows)
		if err != nil {
			return nil, err
		}
		meetings = append(meetings, m)
	}
	return meetings, rows.Err()
}

func (s *Store) SetMeetingStatus(ctx context.Context, meetingID int32, status MeetingStatus) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE meetings SET status = $2 WHERE meeting_id = $1`, meetingID, status)
	return err
}

// SwapMeetingStatus sets the status only if the row is not already in it.
// Returns false when the swap lost, i.e. another worker got there first.
func (s *Store) SwapMeetingStatus(ctx context.Context, meetingID int32, status MeetingStatus) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE meetings SET status = $2 WHERE meeting_id = $1 AND status <> $2`,
		meetingID, status)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// TransitionMeetingStatus moves the row from one status to another, guarded:
// the update applies only while the row is still in the expected status.
func (s *Store) TransitionMeetingStatus(ctx context.Context, meetingID int32, from, to MeetingStatus) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE meetings SET status = $3 WHERE meeting_id = $1 AND status = $2`,
		meetingID, from, to)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) SetMeetingAudioPath(ctx context.Context, meetingID int32, path string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE meetings SET audio_file_path = $2 WHERE meeting_id = $1`,
		meetingID, pgtype.Text{String: path, Valid: path != ""})
	return err
}

func (s *Store) UpsertTranscript(ctx context.Context, meetingID int32, text string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO transcripts (meeting_id, transcript_text)
		VALUES ($1, $2)
		ON CONFLICT (meeting_id)
		DO UPDATE SET transcript_text = EXCLUDED.transcript_text, updated_at = NOW()`,
		meetingID, text)
	return err
}

func (s *Store) GetTranscript(ctx context.Context, meetingID int32) (Transcript, error) {
	var t Transcript
	err := s.pool.QueryRow(ctx, `
		SELECT transcript_id, meeting_id, transcript_text, created_at, updated_at
		FROM transcripts WHERE meeting_id = $1`, meetingID).
		Scan(&t.TranscriptID, &t.MeetingID, &t.TranscriptText, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func (s *Store) UpsertSummary(ctx context.Context, meetingID int32, text string, keyDecisions string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO summaries (meeting_id, summary_text, key_decisions)
		VALUES ($1, $2, $3)
		ON CONFLICT (meeting_id)
		DO UPDATE SET summary_text = EXCLUDED.summary_text,
		              key_decisions = EXCLUDED.key_decisions,
		              updated_at = NOW()`,
		meetingID, text, pgtype.Text{String: keyDecisions, Valid: keyDecisions != ""})
	return err
}

func (s *Store) GetSummary(ctx context.Context, meetingID int32) (Summary, error) {
	var sm Summary
	err := s.pool.QueryRow(ctx, `
		SELECT summary_id, meeting_id, summary_text, key_decisions, created_at, updated_at
		FROM summaries WHERE meeting_id = $1`, meetingID).
		Scan(&sm.SummaryID, &sm.MeetingID, &sm.SummaryText, &sm.KeyDecisions, &sm.CreatedAt, &sm.UpdatedAt)
	return sm, err
}

// ReplaceActionItems deletes the full action-item set for the meeting and
// reinserts the given items, in order, inside one transaction. No merge.
func (s *Store) ReplaceActionItems(ctx context.Context, meetingID int32, items []ActionItemParams) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM action_items WHERE meeting_id = $1`, meetingID); err != nil {
		return fmt.Errorf("delete action items: %w", err)
	}
	for _, it := range items {
		_, err := tx.Exec(ctx, `
			INSERT INTO action_items (meeting_id, description, assigned_to, due_date)
			VALUES ($1, $2, $3, $4)`,
			meetingID, it.Description, it.AssignedTo, it.DueDate)
		if err != nil {
			return fmt.Errorf("insert action item: %w", err)
		}
	}
	return tx.Commit(ctx)
}

func (s *Store) ListActionItems(ctx context.Context, meetingID int32) ([]ActionItem, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT action_id, meeting_id, description, assigned_to, due_date, status, created_at
		FROM action_items WHERE meeting_id = $1 ORDER BY created_at ASC, action_id ASC`,
		meetingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []ActionItem
	for rows.Next() {
		var it ActionItem
		if err := rows.Scan(&it.ActionID, &it.MeetingID, &it.Description,
			&it.AssignedTo, &it.DueDate, &it.Status, &it.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (s *Store) InsertUser(ctx context.Context, email string, fullName string) (User, error) {
	var u User
	err := s.pool.QueryRow(ctx, `
		INSERT INTO users (email, full_name)
		VALUES ($1, $2)
		RETURNING user_id, email, full_name, created_at`,
		email, pgtype.Text{String: fullName, Valid: fullName != ""}).
		Scan(&u.UserID, &u.Email, &u.FullName, &u.CreatedAt)
	return u, err
}

func (s *Store) GetUser(ctx context.Context, userID int32) (User, error) {
	var u User
	err := s.pool.QueryRow(ctx, `
		SELECT user_id, email, full_name, created_at FROM users WHERE user_id = $1`,
		userID).Scan(&u.UserID, &u.Email, &u.FullName, &u.CreatedAt)
	return u, err
}
