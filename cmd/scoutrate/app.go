package main

import (
	"github.com/urfave/cli/v2"
)

// Global flag names.
const (
	flagConfig      = "config"
	flagEngine      = "engine"
	flagSeason      = "season"
	flagLogLevel    = "log-level"
	flagMetricsAddr = "metrics-addr"
)

func newApp() *cli.App {
	return &cli.App{
		Name:  "scoutrate",
		Usage: "scouter accuracy validation and rating engine",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Usage:   "service settings file (YAML)",
				EnvVars: []string{"SCOUTRATE_CONFIG"},
			},
			&cli.StringFlag{
				Name:  flagEngine,
				Usage: "engine configuration file; overrides engine_config",
			},
			&cli.StringFlag{
				Name:  flagSeason,
				Usage: "rating season; overrides the engine configuration",
			},
			&cli.StringFlag{
				Name:  flagLogLevel,
				Usage: "debug, info, warn or error; overrides log_level",
			},
			&cli.StringFlag{
				Name:  flagMetricsAddr,
				Usage: "serve Prometheus metrics on this address, e.g. :9090",
			},
		},
		Commands: []*cli.Command{
			newValidateCommand(),
			newRatingCommand(),
			newRankCommand(),
			newObservationsCommand(),
			newMigrateCommand(),
		},
	}
}
