package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/kumarDivyanshu/summarizer/internal/core/llm"
	"github.com/kumarDivyanshu/summarizer/internal/core/meeting"
	"github.com/kumarDivyanshu/summarizer/internal/core/queue"
	"github.com/kumarDivyanshu/summarizer/internal/database"
)

// fixture holds one meeting row plus everything the pipeline writes, with
// every dependency faked in memory.
type fixture struct {
	meeting     database.Meeting
	transcripts map[int32]string
	summaries   map[int32]string
	actionItems map[int32][]database.ActionItemParams
	published   []queue.JobMessage
	notified    []string

	saveErr       error
	transcribeErr error
	summarizeErr  error
	publishErr    error
	summaryResult llm.SummaryResult
}

func newFixture() *fixture {
	return &fixture{
		transcripts: map[int32]string{},
		summaries:   map[int32]string{},
		actionItems: map[int32][]database.ActionItemParams{},
		summaryResult: llm.SummaryResult{
			SummaryText:  "short recap",
			KeyDecisions: "decided things",
			ActionItems:  []llm.ActionItem{{Description: "follow up", AssignedTo: "Sam", DueDate: "2026-09-01"}},
		},
	}
}

// meeting.Store

func (f *fixture) InsertMeeting(_ context.Context, userID int32, title string, status database.MeetingStatus) (database.Meeting, error) {
	f.meeting = database.Meeting{MeetingID: 1, UserID: userID, Title: title, Status: status}
	return f.meeting, nil
}

func (f *fixture) GetMeeting(_ context.Context, meetingID int32) (database.Meeting, error) {
	if f.meeting.MeetingID != meetingID {
		return database.Meeting{}, database.ErrNotFound
	}
	return f.meeting, nil
}

func (f *fixture) SetMeetingStatus(_ context.Context, _ int32, status database.MeetingStatus) error {
	f.meeting.Status = status
	return nil
}

func (f *fixture) SwapMeetingStatus(_ context.Context, _ int32, status database.MeetingStatus) (bool, error) {
	if f.meeting.Status == status {
		return false, nil
	}
	f.meeting.Status = status
	return true, nil
}

func (f *fixture) TransitionMeetingStatus(_ context.Context, _ int32, from, to database.MeetingStatus) (bool, error) {
	if f.meeting.Status != from {
		return false, nil
	}
	f.meeting.Status = to
	return true, nil
}

func (f *fixture) SetMeetingAudioPath(_ context.Context, _ int32, path string) error {
	f.meeting.AudioFilePath.String = path
	f.meeting.AudioFilePath.Valid = true
	return nil
}

// Records

func (f *fixture) UpsertTranscript(_ context.Context, meetingID int32, text string) error {
	f.transcripts[meetingID] = text
	return nil
}

func (f *fixture) UpsertSummary(_ context.Context, meetingID int32, text string, _ string) error {
	f.summaries[meetingID] = text
	return nil
}

func (f *fixture) ReplaceActionItems(_ context.Context, meetingID int32, items []database.ActionItemParams) error {
	f.actionItems[meetingID] = items
	return nil
}

func (f *fixture) GetUser(_ context.Context, userID int32) (database.User, error) {
	return database.User{UserID: userID, Email: "owner@example.com"}, nil
}

// AudioStore

func (f *fixture) SaveAudio(_ int32, _ io.Reader, filename string) (string, error) {
	if f.saveErr != nil {
		return "", f.saveErr
	}
	return "/uploads/" + filename, nil
}

// Transcriber

func (f *fixture) Transcribe(_ context.Context, _ int32, _ string) (string, error) {
	if f.transcribeErr != nil {
		return "", f.transcribeErr
	}
	return "the transcript", nil
}

// llm.Summarizer

func (f *fixture) Summarize(_ context.Context, _ string) (llm.SummaryResult, error) {
	if f.summarizeErr != nil {
		return llm.SummaryResult{}, f.summarizeErr
	}
	return f.summaryResult, nil
}

// queue.Publisher

func (f *fixture) Publish(_ context.Context, msg queue.JobMessage) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, msg)
	return nil
}

func (f *fixture) Close() error { return nil }

// Notifier

func (f *fixture) SendSummary(recipient, _, _ string) {
	f.notified = append(f.notified, recipient)
}

func newCoordinator(f *fixture) *Coordinator {
	return NewCoordinator(meeting.NewManager(f), f, f, f, f, f, f, false)
}

func TestCreateAndEnqueue(t *testing.T) {
	f := newFixture()
	c := newCoordinator(f)

	m, err := c.CreateAndEnqueue(context.Background(), 3, "Standup", strings.NewReader("audio"), "standup.mp3")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if m.Status != database.StatusProcessing {
		t.Errorf("status = %s, want PROCESSING", m.Status)
	}
	if !m.AudioFilePath.Valid || m.AudioFilePath.String != "/uploads/standup.mp3" {
		t.Errorf("audio path = %+v", m.AudioFilePath)
	}
	if len(f.published) != 1 || f.published[0].MeetingID != m.MeetingID {
		t.Errorf("published = %v", f.published)
	}
}

func TestCreateAndEnqueueStorageFailure(t *testing.T) {
	f := newFixture()
	f.saveErr = errors.New("disk full")
	c := newCoordinator(f)

	if _, err := c.CreateAndEnqueue(context.Background(), 3, "Standup", strings.NewReader("audio"), "a.mp3"); err == nil {
		t.Fatal("expected error")
	}
	if f.meeting.Status != database.StatusFailed {
		t.Errorf("status = %s, want FAILED", f.meeting.Status)
	}
	if len(f.published) != 0 {
		t.Error("job published despite storage failure")
	}
}

// Synchronous dispatch must surface publish failure to the caller instead of
// pretending the job was queued. The row stays PROCESSING for an explicit
// reprocess.
func TestCreateAndEnqueueSyncPublishFailure(t *testing.T) {
	f := newFixture()
	f.publishErr = errors.New("broker unavailable")
	c := newCoordinator(f)

	if _, err := c.CreateAndEnqueue(context.Background(), 3, "Standup", strings.NewReader("audio"), "a.mp3"); err == nil {
		t.Fatal("expected publish error")
	}
	if f.meeting.Status != database.StatusProcessing {
		t.Errorf("status = %s, want PROCESSING", f.meeting.Status)
	}
	if len(f.published) != 0 {
		t.Errorf("published = %v", f.published)
	}
}

func TestRunSynchronously(t *testing.T) {
	f := newFixture()
	c := newCoordinator(f)

	m, err := c.RunSynchronously(context.Background(), 3, "Standup", strings.NewReader("audio"), "standup.mp3")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if m.Status != database.StatusCompleted {
		t.Errorf("status = %s, want COMPLETED", m.Status)
	}
	if f.transcripts[1] != "the transcript" {
		t.Errorf("transcript = %q", f.transcripts[1])
	}
	if len(f.published) != 0 {
		t.Errorf("inline run must not queue a job, published = %v", f.published)
	}
}

// Submit runs inline when async dispatch is off and the pipeline is wired,
// and queues otherwise.
func TestSubmit(t *testing.T) {
	t.Run("inline", func(t *testing.T) {
		f := newFixture()
		c := newCoordinator(f)

		m, err := c.Submit(context.Background(), 3, "Standup", strings.NewReader("audio"), "a.mp3")
		if err != nil {
			t.Fatalf("submit: %v", err)
		}
		if m.Status != database.StatusCompleted {
			t.Errorf("status = %s, want COMPLETED", m.Status)
		}
		if len(f.published) != 0 {
			t.Error("inline submit queued a job")
		}
	})

	t.Run("publish-only coordinator", func(t *testing.T) {
		f := newFixture()
		c := NewCoordinator(meeting.NewManager(f), f, f, nil, nil, f, nil, false)

		m, err := c.Submit(context.Background(), 3, "Standup", strings.NewReader("audio"), "a.mp3")
		if err != nil {
			t.Fatalf("submit: %v", err)
		}
		if m.Status != database.StatusProcessing {
			t.Errorf("status = %s, want PROCESSING", m.Status)
		}
		if len(f.published) != 1 {
			t.Errorf("published = %v, want one job", f.published)
		}
		if len(f.transcripts) != 0 {
			t.Error("publish-only coordinator ran the pipeline")
		}
	})
}

func TestProcessCompletesAndNotifies(t *testing.T) {
	f := newFixture()
	f.meeting = database.Meeting{MeetingID: 1, UserID: 3, Title: "Standup", Status: database.StatusProcessing}
	f.meeting.AudioFilePath.String = "/uploads/a.mp3"
	f.meeting.AudioFilePath.Valid = true
	c := newCoordinator(f)

	if err := c.Process(context.Background(), 1); err != nil {
		t.Fatalf("process: %v", err)
	}
	if f.meeting.Status != database.StatusCompleted {
		t.Errorf("status = %s, want COMPLETED", f.meeting.Status)
	}
	if f.transcripts[1] != "the transcript" {
		t.Errorf("transcript = %q", f.transcripts[1])
	}
	if f.summaries[1] != "short recap" {
		t.Errorf("summary = %q", f.summaries[1])
	}
	items := f.actionItems[1]
	if len(items) != 1 || items[0].Description != "follow up" {
		t.Fatalf("action items = %+v", items)
	}
	if !items[0].DueDate.Valid || items[0].DueDate.Time.Format("2006-01-02") != "2026-09-01" {
		t.Errorf("due date = %+v", items[0].DueDate)
	}
	if len(f.notified) != 1 || f.notified[0] != "owner@example.com" {
		t.Errorf("notified = %v", f.notified)
	}
}

func TestProcessTranscribeFailure(t *testing.T) {
	f := newFixture()
	f.meeting = database.Meeting{MeetingID: 1, UserID: 3, Status: database.StatusProcessing}
	f.meeting.AudioFilePath.String = "/uploads/a.mp3"
	f.meeting.AudioFilePath.Valid = true
	f.transcribeErr = errors.New("speech backend down")
	c := newCoordinator(f)

	if err := c.Process(context.Background(), 1); err == nil {
		t.Fatal("expected error")
	}
	if f.meeting.Status != database.StatusFailed {
		t.Errorf("status = %s, want FAILED", f.meeting.Status)
	}
	if len(f.transcripts) != 0 {
		t.Error("transcript written despite transcription failure")
	}
	if len(f.notified) != 0 {
		t.Error("notification sent for failed job")
	}
}

// A summarize failure still keeps the transcript written before it.
func TestProcessSummarizeFailureKeepsTranscript(t *testing.T) {
	f := newFixture()
	f.meeting = database.Meeting{MeetingID: 1, UserID: 3, Status: database.StatusProcessing}
	f.meeting.AudioFilePath.String = "/uploads/a.mp3"
	f.meeting.AudioFilePath.Valid = true
	f.summarizeErr = errors.New("model unavailable")
	c := newCoordinator(f)

	if err := c.Process(context.Background(), 1); err == nil {
		t.Fatal("expected error")
	}
	if f.meeting.Status != database.StatusFailed {
		t.Errorf("status = %s, want FAILED", f.meeting.Status)
	}
	if f.transcripts[1] != "the transcript" {
		t.Errorf("transcript = %q, want it kept", f.transcripts[1])
	}
	if len(f.summaries) != 0 {
		t.Error("summary written despite failure")
	}
}

func TestProcessWithoutAudio(t *testing.T) {
	f := newFixture()
	f.meeting = database.Meeting{MeetingID: 1, Status: database.StatusProcessing}
	c := newCoordinator(f)

	if err := c.Process(context.Background(), 1); !errors.Is(err, ErrNoAudioStored) {
		t.Fatalf("err = %v, want ErrNoAudioStored", err)
	}
	if f.meeting.Status != database.StatusFailed {
		t.Errorf("status = %s, want FAILED", f.meeting.Status)
	}
}

func TestReprocess(t *testing.T) {
	f := newFixture()
	f.meeting = database.Meeting{MeetingID: 1, Status: database.StatusCompleted}
	f.meeting.AudioFilePath.String = "/uploads/a.mp3"
	f.meeting.AudioFilePath.Valid = true
	c := newCoordinator(f)

	if err := c.Reprocess(context.Background(), 1); err != nil {
		t.Fatalf("reprocess: %v", err)
	}
	if f.meeting.Status != database.StatusProcessing {
		t.Errorf("status = %s, want PROCESSING", f.meeting.Status)
	}
	if len(f.published) != 1 {
		t.Errorf("published = %v", f.published)
	}

	// Already PROCESSING now, so a second request is rejected without a
	// duplicate job.
	if err := c.Reprocess(context.Background(), 1); !errors.Is(err, meeting.ErrJobBusy) {
		t.Fatalf("err = %v, want ErrJobBusy", err)
	}
	if len(f.published) != 1 {
		t.Error("duplicate job published")
	}
}

func TestReprocessSyncPublishFailure(t *testing.T) {
	f := newFixture()
	f.meeting = database.Meeting{MeetingID: 1, Status: database.StatusCompleted}
	f.meeting.AudioFilePath.String = "/uploads/a.mp3"
	f.meeting.AudioFilePath.Valid = true
	f.publishErr = errors.New("broker unavailable")
	c := newCoordinator(f)

	if err := c.Reprocess(context.Background(), 1); err == nil {
		t.Fatal("expected publish error")
	}
}

func TestReprocessWithoutAudio(t *testing.T) {
	f := newFixture()
	f.meeting = database.Meeting{MeetingID: 1, Status: database.StatusFailed}
	c := newCoordinator(f)

	if err := c.Reprocess(context.Background(), 1); !errors.Is(err, ErrNoAudioStored) {
		t.Fatalf("err = %v, want ErrNoAudioStored", err)
	}
	if f.meeting.Status != database.StatusFailed {
		t.Errorf("status = %s, must stay FAILED", f.meeting.Status)
	}
}

func TestToActionParams(t *testing.T) {
	items := []llm.ActionItem{
		{Description: "  ship it  ", AssignedTo: " Lee ", DueDate: "2026-01-02"},
		{Description: "", AssignedTo: "nobody", DueDate: "2026-01-02"},
		{Description: "vague task", AssignedTo: "", DueDate: "next Tuesday"},
	}
	params := toActionParams(items)
	if len(params) != 2 {
		t.Fatalf("len = %d, want 2 (blank description dropped)", len(params))
	}
	if params[0].Description != "ship it" || params[0].AssignedTo.String != "Lee" || !params[0].AssignedTo.Valid {
		t.Errorf("params[0] = %+v", params[0])
	}
	if !params[0].DueDate.Valid {
		t.Error("valid ISO date not parsed")
	}
	if params[1].AssignedTo.Valid {
		t.Error("blank assignee should be null")
	}
	if params[1].DueDate.Valid {
		t.Error("non-ISO date should be null, not an error")
	}
}
