// Package controller runs the HTTP API: uploads, meeting queries, and job
// dispatch. With a broker configured it only publishes jobs; without one it
// runs the whole pipeline in-process over an in-memory queue.
package controller

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/kumarDivyanshu/summarizer/internal/config"
	"github.com/kumarDivyanshu/summarizer/internal/controller/api"
	"github.com/kumarDivyanshu/summarizer/internal/core/meeting"
	"github.com/kumarDivyanshu/summarizer/internal/core/queue"
	"github.com/kumarDivyanshu/summarizer/internal/core/service"
	"github.com/kumarDivyanshu/summarizer/internal/core/storage"
	"github.com/kumarDivyanshu/summarizer/internal/database"
	"github.com/kumarDivyanshu/summarizer/internal/worker"
)

func Run(ctx context.Context, cfg *config.Config) error {
	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err == nil {
		zerolog.SetGlobalLevel(level)
	}
	log.Debug().Str("level", cfg.Logging.Level).Msg("log level configured")

	pool, err := database.Connect(ctx, cfg.Database.URL, cfg.Database.MaxConnections)
	if err != nil {
		return fmt.Errorf("database connect: %w", err)
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	store := database.NewStore(pool)
	coordinator, cleanup, err := buildCoordinator(runCtx, cfg, pool)
	if err != nil {
		return err
	}
	defer cleanup()

	e := echo.New()
	e.HideBanner = true

	api.SetupRouter(e, api.RouterConfig{
		Store:       store,
		Coordinator: coordinator,
	})

	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		log.Info().Str("addr", addr).Msg("HTTP server started")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down...")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}
	return nil
}

// buildCoordinator picks the dispatch mode. With a broker URL the API stays
// thin: publish only, workers do the rest. Without one the full pipeline is
// built here and fed by an in-memory queue, which needs the speech and model
// credentials available to this process.
func buildCoordinator(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) (*service.Coordinator, func(), error) {
	if cfg.Queue.URL != "" {
		publisher, err := queue.NewAMQPPublisher(cfg.Queue.URL, queue.Topology{
			Exchange:   cfg.Queue.Exchange,
			Queue:      cfg.Queue.Name,
			RoutingKey: cfg.Queue.RoutingKey,
		})
		if err != nil {
			return nil, nil, err
		}
		store := database.NewStore(pool)
		meetings := meeting.NewManager(store)
		audio := storage.NewAudio(cfg.Storage.BaseDir)
		coordinator := service.NewCoordinator(meetings, store, audio, nil, nil, publisher, nil, cfg.Queue.AsyncDispatch)
		return coordinator, func() { publisher.Close() }, nil
	}

	log.Warn().Msg("no queue URL configured, processing jobs in-process")
	mem := queue.NewMemory(64)
	coordinator, transcriber, err := worker.BuildPipeline(ctx, cfg, pool, mem)
	if err != nil {
		return nil, nil, err
	}
	go func() {
		if err := mem.Consume(ctx, worker.Handler(coordinator)); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("in-process consumer stopped")
		}
	}()

	// Handles orphaned by a crash of this process need resolving here too,
	// since no separate worker exists in this mode.
	recovery := &worker.Recovery{
		Coordinator: coordinator,
		Transcriber: transcriber,
		Meetings:    meeting.NewManager(database.NewStore(pool)),
		Interval:    cfg.Worker.RecoveryInterval,
	}
	go recovery.Loop(ctx)

	return coordinator, func() { mem.Close() }, nil
}
