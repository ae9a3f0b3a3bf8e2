// Package worker consumes meeting jobs from the queue and runs the
// processing pipeline. It also resumes long-running recognitions left behind
// by a previous run.
package worker

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/kumarDivyanshu/summarizer/internal/config"
	"github.com/kumarDivyanshu/summarizer/internal/core/asr"
	"github.com/kumarDivyanshu/summarizer/internal/core/llm"
	"github.com/kumarDivyanshu/summarizer/internal/core/mail"
	"github.com/kumarDivyanshu/summarizer/internal/core/meeting"
	"github.com/kumarDivyanshu/summarizer/internal/core/queue"
	"github.com/kumarDivyanshu/summarizer/internal/core/service"
	"github.com/kumarDivyanshu/summarizer/internal/core/storage"
	"github.com/kumarDivyanshu/summarizer/internal/core/transcode"
	"github.com/kumarDivyanshu/summarizer/internal/database"
)

// BuildPipeline wires the full processing stack against an open pool. The
// returned asr.Service is exposed separately so callers can drive the
// recovery loop.
func BuildPipeline(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, publisher queue.Publisher) (*service.Coordinator, *asr.Service, error) {
	store := database.NewStore(pool)
	meetings := meeting.NewManager(store)

	opts, err := asr.ResolveCredentials(ctx, cfg.ASR.CredentialsPath)
	if err != nil {
		return nil, nil, err
	}
	backend, err := asr.NewGCPBackend(ctx, cfg.ASR.LanguageCode, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("speech client: %w", err)
	}

	var objects asr.ObjectStore
	if cfg.ASR.Bucket != "" {
		gcs, err := asr.NewGCSStore(ctx, cfg.ASR.Bucket, opts...)
		if err != nil {
			return nil, nil, fmt.Errorf("storage client: %w", err)
		}
		objects = gcs
	}

	handles := asr.NewFileHandleStore(filepath.Join(cfg.ASR.TempDir, "lro-jobs.json"))
	transcriber := asr.NewService(asr.Config{
		LanguageCode:   cfg.ASR.LanguageCode,
		Bucket:         cfg.ASR.Bucket,
		InlineMaxBytes: cfg.ASR.InlineMaxBytes,
		ChunkSeconds:   cfg.ASR.ChunkSeconds,
		PollBudget:     cfg.ASR.PollBudget,
	}, transcode.NewFFmpeg(cfg.FFmpeg.Path, cfg.ASR.TempDir), backend, objects, handles)

	summarizer, err := llm.NewGemini(ctx, cfg.LLM.APIKey, cfg.LLM.Model)
	if err != nil {
		return nil, nil, err
	}

	notifier := mail.NewSender(mail.Config{
		Enabled:  cfg.Mail.Enabled,
		Host:     cfg.Mail.Host,
		Port:     cfg.Mail.Port,
		Username: cfg.Mail.Username,
		Password: cfg.Mail.Password,
		From:     cfg.Mail.From,
	})

	audio := storage.NewAudio(cfg.Storage.BaseDir)
	coordinator := service.NewCoordinator(meetings, store, audio, transcriber, summarizer, publisher, notifier, cfg.Queue.AsyncDispatch)
	return coordinator, transcriber, nil
}

// Run starts the worker: queue consumers plus the operation recovery loop.
func Run(ctx context.Context, cfg *config.Config) error {
	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err == nil {
		zerolog.SetGlobalLevel(level)
	}

	pool, err := database.Connect(ctx, cfg.Database.URL, cfg.Database.MaxConnections)
	if err != nil {
		return fmt.Errorf("database connect: %w", err)
	}
	defer pool.Close()

	topology := queue.Topology{
		Exchange:   cfg.Queue.Exchange,
		Queue:      cfg.Queue.Name,
		RoutingKey: cfg.Queue.RoutingKey,
	}
	publisher, err := queue.NewAMQPPublisher(cfg.Queue.URL, topology)
	if err != nil {
		return err
	}
	defer publisher.Close()

	coordinator, transcriber, err := BuildPipeline(ctx, cfg, pool, publisher)
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	recovery := &Recovery{
		Coordinator: coordinator,
		Transcriber: transcriber,
		Meetings:    meeting.NewManager(database.NewStore(pool)),
		Interval:    cfg.Worker.RecoveryInterval,
	}
	go recovery.Loop(runCtx)

	consumers := make([]*queue.AMQPConsumer, 0, cfg.Worker.Concurrency)
	errCh := make(chan error, cfg.Worker.Concurrency)
	for i := 0; i < cfg.Worker.Concurrency; i++ {
		consumer, err := queue.NewAMQPConsumer(cfg.Queue.URL, topology)
		if err != nil {
			for _, c := range consumers {
				c.Close()
			}
			return err
		}
		consumers = append(consumers, consumer)
		go func() {
			errCh <- consumer.Consume(runCtx, Handler(coordinator))
		}()
	}
	log.Info().Int("concurrency", cfg.Worker.Concurrency).Str("queue", cfg.Queue.Name).Msg("worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		log.Info().Msg("shutting down...")
	case err := <-errCh:
		if err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("consumer stopped")
		}
	}
	cancel()

	for _, c := range consumers {
		c.Close()
	}
	return nil
}

// Handler adapts the coordinator to the queue consumer contract. Jobs with
// ids that no longer resolve are dropped rather than retried.
func Handler(coordinator *service.Coordinator) func(ctx context.Context, msg queue.JobMessage) error {
	return func(ctx context.Context, msg queue.JobMessage) error {
		if msg.MeetingID <= 0 {
			log.Warn().Int32("meeting_id", msg.MeetingID).Msg("dropping job with invalid meeting id")
			return nil
		}
		log.Info().Int32("meeting_id", msg.MeetingID).Msg("processing meeting")
		return coordinator.Process(ctx, msg.MeetingID)
	}
}
