package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/ahrav/go-scoutrate/infrastructure/postgres"
	"github.com/ahrav/go-scoutrate/pkg/logger"
)

func newObservationsCommand() *cli.Command {
	return &cli.Command{
		Name:  "observations",
		Usage: "manage scouting observations",
		Subcommands: []*cli.Command{
			{
				Name:      "import",
				Usage:     "load observations from a JSON file into the database",
				ArgsUsage: "<file.json>",
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return cli.Exit("expected exactly one file", 1)
					}
					obs, err := readObservations(c.Args().First())
					if err != nil {
						return err
					}
					s, err := newSession(c)
					if err != nil {
						return err
					}
					defer s.Close()

					db, err := s.database(c.Context)
					if err != nil {
						return err
					}
					if err := postgres.NewStore(db, 0).InsertObservations(c.Context, obs...); err != nil {
						return err
					}
					s.log.Info(c.Context, "imported observations", logger.Int("count", len(obs)))
					fmt.Fprintf(c.App.Writer, "imported %d observations\n", len(obs))
					return nil
				},
			},
		},
	}
}
