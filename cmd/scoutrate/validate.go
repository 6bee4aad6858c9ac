package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/ahrav/go-scoutrate/internal/domain"
)

const (
	flagStrategy     = "strategy"
	flagDryRun       = "dry-run"
	flagObservations = "observations"
)

// exitPartialFailure is returned when a run completed but some scouters or
// matches could not be validated.
const exitPartialFailure = 2

func validateFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:    flagStrategy,
			Aliases: []string{"s"},
			Usage:   "restrict the run to these strategies (consensus, official_result)",
		},
		&cli.BoolFlag{
			Name:  flagDryRun,
			Usage: "compute rating changes without persisting them",
		},
		&cli.StringFlag{
			Name:  flagObservations,
			Usage: "read observations from a JSON file instead of the database",
		},
	}
}

func newValidateCommand() *cli.Command {
	return &cli.Command{
		Name:  "validate",
		Usage: "validate scouters and update their ratings",
		Subcommands: []*cli.Command{
			{
				Name:      "match",
				Usage:     "validate every scouter of one match",
				ArgsUsage: "<match-key>",
				Flags:     validateFlags(),
				Action: func(c *cli.Context) error {
					return runValidation(c, func(s *session, key string, kinds []domain.StrategyKind) (*domain.ValidationExecutionSummary, error) {
						orch, err := s.orchestrator(c, storeOptionsFrom(c))
						if err != nil {
							return nil, err
						}
						return orch.ValidateMatch(c.Context, key, kinds...)
					})
				},
			},
			{
				Name:      "event",
				Usage:     "validate every match of an event in play order",
				ArgsUsage: "<event-key>",
				Flags:     validateFlags(),
				Action: func(c *cli.Context) error {
					return runValidation(c, func(s *session, key string, kinds []domain.StrategyKind) (*domain.ValidationExecutionSummary, error) {
						orch, err := s.orchestrator(c, storeOptionsFrom(c))
						if err != nil {
							return nil, err
						}
						return orch.ValidateEvent(c.Context, key, kinds...)
					})
				},
			},
		},
	}
}

type validateFunc func(s *session, key string, kinds []domain.StrategyKind) (*domain.ValidationExecutionSummary, error)

func runValidation(c *cli.Context, run validateFunc) error {
	if c.NArg() != 1 {
		return cli.Exit("expected exactly one key", 1)
	}
	s, err := newSession(c)
	if err != nil {
		return err
	}
	defer s.Close()

	kinds := make([]domain.StrategyKind, 0, len(c.StringSlice(flagStrategy)))
	for _, k := range c.StringSlice(flagStrategy) {
		kinds = append(kinds, domain.StrategyKind(k))
	}

	summary, err := run(s, c.Args().First(), kinds)
	if summary != nil {
		if werr := writeJSON(c.App.Writer, summary); werr != nil {
			return werr
		}
	}
	if err != nil {
		return err
	}
	if summary.ScoutersErrored > 0 || len(summary.FailedMatches) > 0 {
		return cli.Exit(fmt.Sprintf("%d scouters errored, %d matches failed",
			summary.ScoutersErrored, len(summary.FailedMatches)), exitPartialFailure)
	}
	return nil
}

func storeOptionsFrom(c *cli.Context) storeOptions {
	return storeOptions{
		observationsFile: c.String(flagObservations),
		dryRun:           c.Bool(flagDryRun),
	}
}
