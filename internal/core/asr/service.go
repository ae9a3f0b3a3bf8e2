// Package asr turns stored meeting audio into a transcript. Audio is first
// normalized to 16kHz mono LINEAR16, then one of three strategies runs:
// inline recognition for small files, long-running recognition via object
// storage when a bucket is configured, otherwise segmentation into chunks
// recognized inline and stitched back together.
package asr

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"

	"github.com/kumarDivyanshu/summarizer/internal/core/transcode"
	"github.com/kumarDivyanshu/summarizer/internal/metrics"
)

type strategy string

const (
	strategyInline  strategy = "inline"
	strategyRemote  strategy = "remote"
	strategyChunked strategy = "chunked"
)

// selectStrategy picks how to transcribe a normalized file of the given
// size. Files over the inline limit go through object storage when a bucket
// is configured, and fall back to chunked inline recognition when not.
func selectStrategy(size, inlineMax int64, bucket string) strategy {
	if size <= inlineMax {
		return strategyInline
	}
	if bucket != "" {
		return strategyRemote
	}
	return strategyChunked
}

type Config struct {
	LanguageCode   string
	Bucket         string
	InlineMaxBytes int64
	ChunkSeconds   int
	PollBudget     time.Duration
}

// Service orchestrates normalization, strategy selection, and recognition.
type Service struct {
	cfg        Config
	transcoder transcode.Transcoder
	backend    Backend
	objects    ObjectStore
	handles    HandleStore

	// pollInterval overrides the initial poll backoff; zero means the
	// default.
	pollInterval time.Duration

	// active tracks meetings this process is polling right now, so the
	// recovery loop does not race a live await on the same operation.
	mu     sync.Mutex
	active map[int32]struct{}
}

// NewService wires a transcription service. objects may be nil when no
// bucket is configured; the remote strategy is never selected in that case.
func NewService(cfg Config, tc transcode.Transcoder, backend Backend, objects ObjectStore, handles HandleStore) *Service {
	return &Service{
		cfg:        cfg,
		transcoder: tc,
		backend:    backend,
		objects:    objects,
		handles:    handles,
		active:     make(map[int32]struct{}),
	}
}

func (s *Service) markActive(meetingID int32) {
	s.mu.Lock()
	s.active[meetingID] = struct{}{}
	s.mu.Unlock()
}

func (s *Service) clearActive(meetingID int32) {
	s.mu.Lock()
	delete(s.active, meetingID)
	s.mu.Unlock()
}

// Transcribe produces the transcript for the audio file at audioPath. All
// intermediate artifacts (normalized WAV, chunk directory, staged objects)
// are cleaned up regardless of outcome.
func (s *Service) Transcribe(ctx context.Context, meetingID int32, audioPath string) (string, error) {
	wav, err := s.transcoder.Normalize(ctx, audioPath)
	if err != nil {
		return "", failed(err)
	}
	defer os.Remove(wav)

	info, err := os.Stat(wav)
	if err != nil {
		return "", failed(err)
	}

	st := selectStrategy(info.Size(), s.cfg.InlineMaxBytes, s.cfg.Bucket)
	log.Debug().
		Int32("meeting_id", meetingID).
		Str("strategy", string(st)).
		Int64("size_bytes", info.Size()).
		Msg("transcription strategy selected")

	var text string
	switch st {
	case strategyInline:
		text, err = s.transcribeInline(ctx, wav)
	case strategyRemote:
		text, err = s.transcribeRemote(ctx, meetingID, wav)
	default:
		text, err = s.transcribeChunked(ctx, wav)
	}

	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.Transcriptions.WithLabelValues(string(st), outcome).Inc()
	if err != nil {
		return "", failed(err)
	}
	return text, nil
}

func (s *Service) transcribeInline(ctx context.Context, wavPath string) (string, error) {
	content, err := os.ReadFile(wavPath)
	if err != nil {
		return "", err
	}
	return s.backend.Recognize(ctx, content)
}

// transcribeRemote stages the file in object storage and blocks on the
// long-running operation. The handle is persisted before polling begins so a
// crash mid-poll can be recovered, and removed once the operation resolves.
// The staged object is deleted unconditionally.
func (s *Service) transcribeRemote(ctx context.Context, meetingID int32, wavPath string) (string, error) {
	if s.objects == nil {
		return "", ErrBucketRequired
	}
	uri, err := s.objects.Upload(ctx, wavPath)
	if err != nil {
		return "", err
	}
	defer func() {
		if err := s.objects.Delete(context.WithoutCancel(ctx), uri); err != nil {
			log.Warn().Err(err).Str("uri", uri).Msg("failed to delete staged audio object")
		}
	}()

	name, err := s.backend.StartLongRunning(ctx, uri)
	if err != nil {
		return "", err
	}
	// The meeting stays in the active set until after its handle is gone,
	// so recovery never observes a handle it is allowed to poll while this
	// await is in flight.
	s.markActive(meetingID)
	defer s.clearActive(meetingID)
	if err := s.handles.Put(meetingID, Handle{OperationName: name, ObjectURI: uri}); err != nil {
		log.Warn().Err(err).Int32("meeting_id", meetingID).Msg("failed to persist operation handle")
	}
	defer func() {
		if err := s.handles.Remove(meetingID); err != nil {
			log.Warn().Err(err).Int32("meeting_id", meetingID).Msg("failed to remove operation handle")
		}
	}()

	return s.awaitOperation(ctx, name)
}

func (s *Service) transcribeChunked(ctx context.Context, wavPath string) (string, error) {
	chunks, err := s.transcoder.Segment(ctx, wavPath, s.cfg.ChunkSeconds)
	if err != nil {
		return "", err
	}
	if len(chunks) == 0 {
		return "", errors.New("segmentation produced no chunks")
	}
	defer os.RemoveAll(filepath.Dir(chunks[0]))

	parts := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		content, err := os.ReadFile(chunk)
		if err != nil {
			return "", err
		}
		text, err := s.backend.Recognize(ctx, content)
		if err != nil {
			return "", fmt.Errorf("chunk %s: %w", filepath.Base(chunk), err)
		}
		if text = strings.TrimSpace(text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " "), nil
}

var errStillRunning = errors.New("operation still running")

// awaitOperation polls an operation with exponential backoff until it
// resolves or the poll budget runs out.
func (s *Service) awaitOperation(ctx context.Context, name string) (string, error) {
	interval := s.pollInterval
	if interval == 0 {
		interval = 5 * time.Second
	}
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = interval
	bo.MaxInterval = 45 * time.Second
	bo.MaxElapsedTime = s.cfg.PollBudget

	var text string
	poll := func() error {
		t, done, err := s.backend.PollOperation(ctx, name)
		if err != nil {
			return backoff.Permanent(err)
		}
		if !done {
			return errStillRunning
		}
		text = t
		return nil
	}
	if err := backoff.Retry(poll, backoff.WithContext(bo, ctx)); err != nil {
		if errors.Is(err, errStillRunning) {
			return "", fmt.Errorf("operation %s did not finish within %s", name, s.cfg.PollBudget)
		}
		return "", err
	}
	return text, nil
}

// PollRemote checks a recovered operation once. While the operation is still
// running it returns done=false and leaves the handle in place. On any
// resolution, success or failure, the staged object and the handle are
// cleaned up.
func (s *Service) PollRemote(ctx context.Context, meetingID int32, h Handle) (string, bool, error) {
	text, done, err := s.backend.PollOperation(ctx, h.OperationName)
	if err == nil && !done {
		return "", false, nil
	}

	cleanupCtx := context.WithoutCancel(ctx)
	if s.objects != nil {
		if derr := s.objects.Delete(cleanupCtx, h.ObjectURI); derr != nil {
			log.Warn().Err(derr).Str("uri", h.ObjectURI).Msg("failed to delete staged audio object")
		}
	}
	if rerr := s.handles.Remove(meetingID); rerr != nil {
		log.Warn().Err(rerr).Int32("meeting_id", meetingID).Msg("failed to remove operation handle")
	}

	if err != nil {
		return "", true, failed(err)
	}
	return text, true, nil
}

// PendingOperations lists the persisted handles that are orphaned, meaning
// no goroutine in this process is awaiting them. Only those are safe for the
// recovery loop to resolve.
func (s *Service) PendingOperations() (map[int32]Handle, error) {
	all, err := s.handles.ListAll()
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	for id := range s.active {
		delete(all, id)
	}
	s.mu.Unlock()
	return all, nil
}
