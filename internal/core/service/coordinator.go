// Package service runs the meeting pipeline: store the audio, dispatch a
// job, then transcribe, summarize, extract action items, and notify.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog/log"

	"github.com/kumarDivyanshu/summarizer/internal/core/llm"
	"github.com/kumarDivyanshu/summarizer/internal/core/meeting"
	"github.com/kumarDivyanshu/summarizer/internal/core/queue"
	"github.com/kumarDivyanshu/summarizer/internal/database"
	"github.com/kumarDivyanshu/summarizer/internal/metrics"
)

// ErrNoAudioStored means a reprocess was requested for a meeting that never
// finished its upload.
var ErrNoAudioStored = errors.New("meeting has no stored audio file")

// Transcriber produces a transcript for a stored audio file.
type Transcriber interface {
	Transcribe(ctx context.Context, meetingID int32, audioPath string) (string, error)
}

// Records persists pipeline results. Each call is a short independent
// operation so partial progress survives a later failure.
type Records interface {
	UpsertTranscript(ctx context.Context, meetingID int32, text string) error
	UpsertSummary(ctx context.Context, meetingID int32, text string, keyDecisions string) error
	ReplaceActionItems(ctx context.Context, meetingID int32, items []database.ActionItemParams) error
	GetUser(ctx context.Context, userID int32) (database.User, error)
}

// AudioStore stages uploaded audio on disk.
type AudioStore interface {
	SaveAudio(ownerID int32, r io.Reader, filename string) (string, error)
}

// Notifier delivers the finished summary. Implementations must be best
// effort; the coordinator does not check an error.
type Notifier interface {
	SendSummary(recipient, meetingTitle, summary string)
}

// Coordinator owns the end-to-end pipeline for one meeting job.
type Coordinator struct {
	meetings      *meeting.Manager
	records       Records
	audio         AudioStore
	transcriber   Transcriber
	summarizer    llm.Summarizer
	publisher     queue.Publisher
	notifier      Notifier
	asyncDispatch bool
}

func NewCoordinator(
	meetings *meeting.Manager,
	records Records,
	audio AudioStore,
	transcriber Transcriber,
	summarizer llm.Summarizer,
	publisher queue.Publisher,
	notifier Notifier,
	asyncDispatch bool,
) *Coordinator {
	return &Coordinator{
		meetings:      meetings,
		records:       records,
		audio:         audio,
		transcriber:   transcriber,
		summarizer:    summarizer,
		publisher:     publisher,
		notifier:      notifier,
		asyncDispatch: asyncDispatch,
	}
}

// Submit is the upload entry point. With async dispatch enabled, or on a
// publish-only coordinator, the job is queued and the call returns right
// away. When async dispatch is disabled and this coordinator carries the
// full pipeline, the job runs inline before the call returns.
func (c *Coordinator) Submit(ctx context.Context, userID int32, title string, audio io.Reader, filename string) (database.Meeting, error) {
	if !c.asyncDispatch && c.transcriber != nil {
		return c.RunSynchronously(ctx, userID, title, audio, filename)
	}
	return c.CreateAndEnqueue(ctx, userID, title, audio, filename)
}

// CreateAndEnqueue records a new meeting, stores its audio, and dispatches a
// processing job. The meeting is created in PROCESSING before the file is
// written so a crash in between leaves a row a reprocess can pick up; a
// storage failure marks it FAILED immediately.
func (c *Coordinator) CreateAndEnqueue(ctx context.Context, userID int32, title string, audio io.Reader, filename string) (database.Meeting, error) {
	mt, err := c.createWithAudio(ctx, userID, title, audio, filename)
	if err != nil {
		return database.Meeting{}, err
	}
	if err := c.dispatch(ctx, mt.MeetingID); err != nil {
		return database.Meeting{}, err
	}
	return mt, nil
}

// RunSynchronously stores the audio and runs the whole pipeline before
// returning, skipping the queue entirely. The returned meeting carries the
// final status.
func (c *Coordinator) RunSynchronously(ctx context.Context, userID int32, title string, audio io.Reader, filename string) (database.Meeting, error) {
	mt, err := c.createWithAudio(ctx, userID, title, audio, filename)
	if err != nil {
		return database.Meeting{}, err
	}
	if err := c.Process(ctx, mt.MeetingID); err != nil {
		return database.Meeting{}, err
	}
	return c.meetings.Get(ctx, mt.MeetingID)
}

func (c *Coordinator) createWithAudio(ctx context.Context, userID int32, title string, audio io.Reader, filename string) (database.Meeting, error) {
	mt, err := c.meetings.CreateProcessing(ctx, userID, title)
	if err != nil {
		return database.Meeting{}, err
	}
	path, err := c.audio.SaveAudio(userID, audio, filename)
	if err != nil {
		c.meetings.MarkFailed(ctx, mt.MeetingID)
		return database.Meeting{}, fmt.Errorf("store audio: %w", err)
	}
	if err := c.meetings.SetAudioPath(ctx, mt.MeetingID, path); err != nil {
		c.meetings.MarkFailed(ctx, mt.MeetingID)
		return database.Meeting{}, err
	}
	mt.AudioFilePath = pgtype.Text{String: path, Valid: true}
	return mt, nil
}

// Reprocess re-runs the pipeline for an existing meeting. Meetings without
// stored audio are rejected, and a meeting already in PROCESSING returns
// meeting.ErrJobBusy instead of queueing a duplicate job.
func (c *Coordinator) Reprocess(ctx context.Context, meetingID int32) error {
	mt, err := c.meetings.Get(ctx, meetingID)
	if err != nil {
		return err
	}
	if !mt.AudioFilePath.Valid || mt.AudioFilePath.String == "" {
		return ErrNoAudioStored
	}
	if err := c.meetings.BeginReprocess(ctx, meetingID); err != nil {
		return err
	}
	return c.dispatch(ctx, meetingID)
}

// dispatch sends the job message. The async variant swallows send failures
// and counts them; the synchronous variant propagates them, leaving the
// PROCESSING row behind for an explicit reprocess.
func (c *Coordinator) dispatch(ctx context.Context, meetingID int32) error {
	msg := queue.JobMessage{MeetingID: meetingID}
	if c.asyncDispatch {
		queue.PublishAsync(ctx, c.publisher, msg)
		return nil
	}
	if err := c.publisher.Publish(ctx, msg); err != nil {
		return fmt.Errorf("publish job for meeting %d: %w", meetingID, err)
	}
	return nil
}

// Process runs the full pipeline for a queued job. Any failure marks the
// meeting FAILED; results written before the failure are kept.
func (c *Coordinator) Process(ctx context.Context, meetingID int32) error {
	mt, err := c.meetings.Get(ctx, meetingID)
	if err != nil {
		return fmt.Errorf("load meeting %d: %w", meetingID, err)
	}
	if !mt.AudioFilePath.Valid || mt.AudioFilePath.String == "" {
		c.fail(ctx, meetingID)
		return ErrNoAudioStored
	}

	started := time.Now()
	transcript, err := c.transcriber.Transcribe(ctx, meetingID, mt.AudioFilePath.String)
	if err != nil {
		c.fail(ctx, meetingID)
		return err
	}
	log.Info().
		Int32("meeting_id", meetingID).
		Dur("took", time.Since(started)).
		Int("transcript_chars", len(transcript)).
		Msg("transcription finished")

	return c.FinishFromTranscript(ctx, mt, transcript)
}

// FinishFromTranscript runs the pipeline from a transcript onward. The
// recovery loop calls this directly once a resumed operation yields text.
func (c *Coordinator) FinishFromTranscript(ctx context.Context, mt database.Meeting, transcript string) error {
	id := mt.MeetingID
	if err := c.records.UpsertTranscript(ctx, id, transcript); err != nil {
		c.fail(ctx, id)
		return fmt.Errorf("save transcript: %w", err)
	}

	result, err := c.summarizer.Summarize(ctx, transcript)
	if err != nil {
		c.fail(ctx, id)
		return fmt.Errorf("summarize: %w", err)
	}
	if err := c.records.UpsertSummary(ctx, id, result.SummaryText, result.KeyDecisions); err != nil {
		c.fail(ctx, id)
		return fmt.Errorf("save summary: %w", err)
	}
	if err := c.records.ReplaceActionItems(ctx, id, toActionParams(result.ActionItems)); err != nil {
		c.fail(ctx, id)
		return fmt.Errorf("save action items: %w", err)
	}

	if err := c.meetings.Complete(ctx, id); err != nil {
		c.fail(ctx, id)
		return err
	}
	metrics.JobsProcessed.Inc()

	if c.notifier != nil {
		if user, err := c.records.GetUser(ctx, mt.UserID); err == nil {
			c.notifier.SendSummary(user.Email, mt.Title, result.SummaryText)
		} else {
			log.Warn().Err(err).Int32("user_id", mt.UserID).Msg("owner lookup failed, skipping notification")
		}
	}
	return nil
}

func (c *Coordinator) fail(ctx context.Context, meetingID int32) {
	c.meetings.MarkFailed(ctx, meetingID)
	metrics.JobsFailed.Inc()
}

func toActionParams(items []llm.ActionItem) []database.ActionItemParams {
	params := make([]database.ActionItemParams, 0, len(items))
	for _, it := range items {
		desc := strings.TrimSpace(it.Description)
		if desc == "" {
			continue
		}
		params = append(params, database.ActionItemParams{
			Description: desc,
			AssignedTo:  optionalText(it.AssignedTo),
			DueDate:     parseDueDate(it.DueDate),
		})
	}
	return params
}

func optionalText(s string) pgtype.Text {
	s = strings.TrimSpace(s)
	return pgtype.Text{String: s, Valid: s != ""}
}

// parseDueDate accepts ISO dates only; anything else becomes a null date
// rather than a failed job.
func parseDueDate(s string) pgtype.Date {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return pgtype.Date{}
	}
	return pgtype.Date{Time: t, Valid: true}
}
