package queue

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"
)

// Memory is an in-process queue for single-binary deployments and tests.
// The zero value is not usable; use NewMemory.
type Memory struct {
	jobs   chan JobMessage
	closed chan struct{}
	once   sync.Once
}

func NewMemory(buffer int) *Memory {
	return &Memory{
		jobs:   make(chan JobMessage, buffer),
		closed: make(chan struct{}),
	}
}

var errClosed = errors.New("queue closed")

func (m *Memory) Publish(ctx context.Context, msg JobMessage) error {
	select {
	case m.jobs <- msg:
		return nil
	case <-m.closed:
		return errClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Memory) Consume(ctx context.Context, handle func(ctx context.Context, msg JobMessage) error) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.closed:
			return errClosed
		case msg := <-m.jobs:
			if err := handle(ctx, msg); err != nil {
				log.Error().Err(err).Int32("meeting_id", msg.MeetingID).Msg("job handler failed")
			}
		}
	}
}

func (m *Memory) Close() error {
	m.once.Do(func() { close(m.closed) })
	return nil
}
