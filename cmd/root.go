package cmd

import (
	"github.com/urfave/cli/v3"
)

var version = "dev"

func App() *cli.Command {
	return &cli.Command{
		Name:    "summarizer",
		Version: version,
		Usage:   "Meeting summarizer: upload a recording, get a transcript, summary and action items",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to TOML config file",
				Sources: cli.EnvVars("SUMMARIZER_CONFIG_PATH"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("SUMMARIZER_LOG_LEVEL"),
			},
		},
		Commands: []*cli.Command{
			serverCmd(),
			workerCmd(),
			migrateCmd(),
		},
	}
}
