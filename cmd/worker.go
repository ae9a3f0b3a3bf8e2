package cmd

import (
	"context"
	"fmt"

	"github.com/kumarDivyanshu/summarizer/internal/config"
	"github.com/kumarDivyanshu/summarizer/internal/worker"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
)

func workerCmd() *cli.Command {
	return &cli.Command{
		Name:  "worker",
		Usage: "Run a processing worker (drains the meeting job queue, resumes in-flight transcriptions)",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "PostgreSQL connection string",
				Sources: cli.EnvVars("SM_DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "queue-url",
				Usage:   "AMQP broker URL",
				Sources: cli.EnvVars("SM_QUEUE_URL"),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := config.Load(cmd.String("config"))
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			if v := cmd.String("database-url"); v != "" {
				cfg.Database.URL = v
			}
			if v := cmd.String("queue-url"); v != "" {
				cfg.Queue.URL = v
			}
			if v := cmd.String("log-level"); v != "" {
				cfg.Logging.Level = v
			}

			if cfg.Database.URL == "" {
				return fmt.Errorf("database URL is required (set SM_DATABASE_URL env or database.url in config)")
			}
			if cfg.Queue.URL == "" {
				return fmt.Errorf("queue URL is required for workers (set SM_QUEUE_URL env or queue.url in config)")
			}

			log.Info().Str("queue", cfg.Queue.Name).Msg("starting worker")

			return worker.Run(ctx, cfg)
		},
	}
}
