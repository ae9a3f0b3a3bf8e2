// Package queue moves meeting-processing jobs between the API and the
// workers. A job message carries only the meeting id; workers load the rest
// from the database.
package queue

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/kumarDivyanshu/summarizer/internal/metrics"
)

// JobMessage is the wire format of one processing job.
type JobMessage struct {
	MeetingID int32 `json:"meeting_id"`
}

// Publisher dispatches processing jobs.
type Publisher interface {
	// Publish sends a job and reports delivery failure to the caller.
	Publish(ctx context.Context, msg JobMessage) error
	Close() error
}

// Consumer delivers jobs to a handler until ctx is cancelled. A handler
// error marks the job failed on the worker side; messages are never
// redelivered.
type Consumer interface {
	Consume(ctx context.Context, handle func(ctx context.Context, msg JobMessage) error) error
	Close() error
}

// PublishAsync sends a job without surfacing failure to the caller. A
// failed publish is logged and counted; the meeting stays in PROCESSING
// until a reprocess request re-enqueues it.
func PublishAsync(ctx context.Context, p Publisher, msg JobMessage) {
	go func() {
		if err := p.Publish(context.WithoutCancel(ctx), msg); err != nil {
			metrics.PublishesDropped.Inc()
			log.Error().Err(err).Int32("meeting_id", msg.MeetingID).Msg("job publish dropped")
		}
	}()
}

func encode(msg JobMessage) ([]byte, error) {
	return json.Marshal(msg)
}

func decode(body []byte) (JobMessage, error) {
	var msg JobMessage
	err := json.Unmarshal(body, &msg)
	return msg, err
}
