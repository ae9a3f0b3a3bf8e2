package meeting

import (
	"context"
	"errors"
	"testing"

	"github.com/kumarDivyanshu/summarizer/internal/database"
)

// fakeStore keeps one meeting in memory and mimics the conditional updates
// the real query layer performs.
type fakeStore struct {
	meeting   database.Meeting
	statusErr error
	inserted  []database.Meeting
}

func (f *fakeStore) InsertMeeting(_ context.Context, userID int32, title string, status database.MeetingStatus) (database.Meeting, error) {
	m := database.Meeting{MeetingID: int32(len(f.inserted) + 1), UserID: userID, Title: title, Status: status}
	f.inserted = append(f.inserted, m)
	f.meeting = m
	return m, nil
}

func (f *fakeStore) GetMeeting(_ context.Context, meetingID int32) (database.Meeting, error) {
	if f.meeting.MeetingID != meetingID {
		return database.Meeting{}, database.ErrNotFound
	}
	return f.meeting, nil
}

func (f *fakeStore) SetMeetingStatus(_ context.Context, _ int32, status database.MeetingStatus) error {
	if f.statusErr != nil {
		return f.statusErr
	}
	f.meeting.Status = status
	return nil
}

func (f *fakeStore) SwapMeetingStatus(_ context.Context, _ int32, status database.MeetingStatus) (bool, error) {
	if f.meeting.Status == status {
		return false, nil
	}
	f.meeting.Status = status
	return true, nil
}

func (f *fakeStore) TransitionMeetingStatus(_ context.Context, _ int32, from, to database.MeetingStatus) (bool, error) {
	if f.meeting.Status != from {
		return false, nil
	}
	f.meeting.Status = to
	return true, nil
}

func (f *fakeStore) SetMeetingAudioPath(_ context.Context, _ int32, path string) error {
	f.meeting.AudioFilePath.String = path
	f.meeting.AudioFilePath.Valid = true
	return nil
}

func TestLegalTransitions(t *testing.T) {
	cases := []struct {
		from, to database.MeetingStatus
		want     bool
	}{
		{database.StatusUploaded, database.StatusProcessing, true},
		{database.StatusProcessing, database.StatusCompleted, true},
		{database.StatusProcessing, database.StatusFailed, true},
		{database.StatusCompleted, database.StatusProcessing, true},
		{database.StatusFailed, database.StatusProcessing, true},
		{database.StatusUploaded, database.StatusCompleted, false},
		{database.StatusCompleted, database.StatusFailed, false},
		{database.StatusFailed, database.StatusCompleted, false},
		{database.StatusCompleted, database.StatusUploaded, false},
	}
	for _, tc := range cases {
		if got := Legal(tc.from, tc.to); got != tc.want {
			t.Errorf("Legal(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestCreateProcessingDefaultsTitle(t *testing.T) {
	store := &fakeStore{}
	mgr := NewManager(store)

	m, err := mgr.CreateProcessing(context.Background(), 7, "   ")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if m.Title != "Meeting" {
		t.Errorf("title = %q, want Meeting", m.Title)
	}
	if m.Status != database.StatusProcessing {
		t.Errorf("status = %s, want PROCESSING", m.Status)
	}
}

func TestBeginReprocessBusy(t *testing.T) {
	store := &fakeStore{meeting: database.Meeting{MeetingID: 1, Status: database.StatusFailed}}
	mgr := NewManager(store)

	if err := mgr.BeginReprocess(context.Background(), 1); err != nil {
		t.Fatalf("first reprocess: %v", err)
	}
	if store.meeting.Status != database.StatusProcessing {
		t.Fatalf("status = %s, want PROCESSING", store.meeting.Status)
	}

	// Second attempt loses the swap because the row is already PROCESSING.
	if err := mgr.BeginReprocess(context.Background(), 1); !errors.Is(err, ErrJobBusy) {
		t.Fatalf("second reprocess err = %v, want ErrJobBusy", err)
	}
}

func TestCompleteRequiresProcessing(t *testing.T) {
	store := &fakeStore{meeting: database.Meeting{MeetingID: 1, Status: database.StatusProcessing}}
	mgr := NewManager(store)

	if err := mgr.Complete(context.Background(), 1); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if store.meeting.Status != database.StatusCompleted {
		t.Fatalf("status = %s, want COMPLETED", store.meeting.Status)
	}

	// Already COMPLETED, so the guarded transition must refuse.
	if err := mgr.Complete(context.Background(), 1); err == nil {
		t.Fatal("expected error completing a non-PROCESSING meeting")
	}
}

func TestMarkFailedSwallowsStoreError(t *testing.T) {
	store := &fakeStore{
		meeting:   database.Meeting{MeetingID: 1, Status: database.StatusProcessing},
		statusErr: errors.New("connection reset"),
	}
	mgr := NewManager(store)

	// Must not panic or surface the error.
	mgr.MarkFailed(context.Background(), 1)
	if store.meeting.Status != database.StatusProcessing {
		t.Fatalf("status changed despite store error: %s", store.meeting.Status)
	}
}
