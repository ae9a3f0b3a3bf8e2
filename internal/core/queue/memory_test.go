package queue

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryPublishConsume(t *testing.T) {
	q := NewMemory(4)
	defer q.Close()

	got := make(chan JobMessage, 3)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.Consume(ctx, func(_ context.Context, msg JobMessage) error {
		got <- msg
		return nil
	})

	for _, id := range []int32{1, 2, 3} {
		if err := q.Publish(context.Background(), JobMessage{MeetingID: id}); err != nil {
			t.Fatalf("publish %d: %v", id, err)
		}
	}

	for _, want := range []int32{1, 2, 3} {
		select {
		case msg := <-got:
			if msg.MeetingID != want {
				t.Fatalf("meeting id = %d, want %d", msg.MeetingID, want)
			}
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for message")
		}
	}
}

func TestMemoryHandlerErrorDoesNotStopConsumer(t *testing.T) {
	q := NewMemory(4)
	defer q.Close()

	got := make(chan int32, 2)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.Consume(ctx, func(_ context.Context, msg JobMessage) error {
		got <- msg.MeetingID
		if msg.MeetingID == 1 {
			return errors.New("pipeline failed")
		}
		return nil
	})

	q.Publish(context.Background(), JobMessage{MeetingID: 1})
	q.Publish(context.Background(), JobMessage{MeetingID: 2})

	for _, want := range []int32{1, 2} {
		select {
		case id := <-got:
			if id != want {
				t.Fatalf("meeting id = %d, want %d", id, want)
			}
		case <-time.After(time.Second):
			t.Fatal("consumer stopped after handler error")
		}
	}
}

func TestMemoryPublishAfterClose(t *testing.T) {
	q := NewMemory(0)
	q.Close()
	if err := q.Publish(context.Background(), JobMessage{MeetingID: 1}); err == nil {
		t.Fatal("expected error publishing to closed queue")
	}
	// Close is idempotent.
	if err := q.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}
