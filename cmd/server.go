package cmd

import (
	"context"
	"fmt"

	"github.com/kumarDivyanshu/summarizer/internal/config"
	"github.com/kumarDivyanshu/summarizer/internal/controller"
	"github.com/urfave/cli/v3"
)

func serverCmd() *cli.Command {
	return &cli.Command{
		Name:  "server",
		Usage: "Run the API server (upload, status, reprocess endpoints + async dispatch)",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "PostgreSQL connection string",
				Sources: cli.EnvVars("SM_DATABASE_URL"),
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
			if v := cmd.String("log-level"); v != "" {
				cfg.Logging.Level = v
			}

			if cfg.Database.URL == "" {
				return fmt.Errorf("database URL is required (set SM_DATABASE_URL env or database.url in config)")
			}

			return controller.Run(ctx, cfg)
		},
	}
}
