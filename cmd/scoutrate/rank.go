package main

import (
	"fmt"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/ahrav/go-scoutrate/internal/domain"
)

func newRankCommand() *cli.Command {
	return &cli.Command{
		Name:  "rank",
		Usage: "rank and rating arithmetic",
		Subcommands: []*cli.Command{
			{
				Name:      "preview",
				Usage:     "preview the rating change for an accuracy score",
				ArgsUsage: "<rating> <accuracy>",
				Flags: []cli.Flag{
					&cli.Float64Flag{Name: "k-factor", Value: domain.DefaultKFactor, Usage: "K-factor of the update"},
				},
				Action: previewRank,
			},
		},
	}
}

func previewRank(c *cli.Context) error {
	if c.NArg() != 2 {
		return cli.Exit("expected <rating> <accuracy>", 1)
	}
	current, err := strconv.ParseFloat(c.Args().Get(0), 64)
	if err != nil {
		return domain.NewInputError("rating", c.Args().Get(0), "must be a number")
	}
	accuracy, err := strconv.ParseFloat(c.Args().Get(1), 64)
	if err != nil {
		return domain.NewInputError("accuracy", c.Args().Get(1), "must be a number")
	}

	cfg := domain.DefaultCalculatorConfig()
	cfg.KFactor = c.Float64("k-factor")
	calc, err := domain.NewCalculator(cfg)
	if err != nil {
		return err
	}
	change, err := calc.CalculateNewRating(current, accuracy, cfg.DefaultRating)
	if err != nil {
		return err
	}

	before, after := domain.GetRank(current), domain.GetRank(change.NewRating)
	fmt.Fprintf(c.App.Writer, "%.1f -> %.1f (%+.2f, %s)\n", current, change.NewRating, change.Delta, change.Outcome)
	if before != after {
		fmt.Fprintf(c.App.Writer, "rank %s -> %s\n", before, after)
	} else {
		fmt.Fprintf(c.App.Writer, "rank %s\n", after)
	}
	return nil
}
