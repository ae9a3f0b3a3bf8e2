package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/kumarDivyanshu/summarizer/internal/core/asr"
	"github.com/kumarDivyanshu/summarizer/internal/core/meeting"
	"github.com/kumarDivyanshu/summarizer/internal/core/service"
	"github.com/kumarDivyanshu/summarizer/internal/metrics"
)

// Recovery resumes long-running recognitions whose worker died mid-poll.
// The handle store survives restarts, so each pass polls every orphaned
// operation and finishes or fails the meeting it belongs to. Operations a
// consumer in this process is still awaiting are not listed as pending and
// are left alone.
type Recovery struct {
	Coordinator *service.Coordinator
	Transcriber *asr.Service
	Meetings    *meeting.Manager
	Interval    time.Duration
}

// Loop runs one pass immediately and then on every interval tick until ctx
// is cancelled.
func (r *Recovery) Loop(ctx context.Context) {
	r.pass(ctx)
	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.pass(ctx)
		}
	}
}

func (r *Recovery) pass(ctx context.Context) {
	pending, err := r.Transcriber.PendingOperations()
	if err != nil {
		log.Error().Err(err).Msg("failed to list pending operations")
		return
	}
	for meetingID, handle := range pending {
		r.resolve(ctx, meetingID, handle)
	}
}

func (r *Recovery) resolve(ctx context.Context, meetingID int32, handle asr.Handle) {
	text, done, err := r.Transcriber.PollRemote(ctx, meetingID, handle)
	if !done {
		return
	}
	metrics.OperationsRecovered.Inc()

	if err != nil {
		log.Error().Err(err).Int32("meeting_id", meetingID).Msg("recovered operation failed")
		r.Meetings.MarkFailed(ctx, meetingID)
		metrics.JobsFailed.Inc()
		return
	}

	mt, err := r.Meetings.Get(ctx, meetingID)
	if err != nil {
		log.Error().Err(err).Int32("meeting_id", meetingID).Msg("recovered operation for unknown meeting")
		return
	}
	log.Info().Int32("meeting_id", meetingID).Str("operation", handle.OperationName).Msg("resuming meeting from recovered operation")
	if err := r.Coordinator.FinishFromTranscript(ctx, mt, text); err != nil {
		log.Error().Err(err).Int32("meeting_id", meetingID).Msg("failed to finish recovered meeting")
	}
}
