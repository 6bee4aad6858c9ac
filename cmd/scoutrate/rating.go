package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/ahrav/go-scoutrate/infrastructure/postgres"
	"github.com/ahrav/go-scoutrate/internal/domain"
	"github.com/ahrav/go-scoutrate/internal/ports"
)

const (
	flagLimit  = "limit"
	flagOffset = "offset"
)

func newRatingCommand() *cli.Command {
	return &cli.Command{
		Name:  "rating",
		Usage: "inspect scouter ratings",
		Subcommands: []*cli.Command{
			{
				Name:      "show",
				Usage:     "print a scouter's rating and rank",
				ArgsUsage: "<scouter-id>",
				Action:    showRating,
			},
			{
				Name:      "history",
				Usage:     "print a scouter's rating history, newest first",
				ArgsUsage: "<scouter-id>",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: flagLimit, Value: 20, Usage: "maximum number of entries"},
					&cli.IntFlag{Name: flagOffset, Usage: "number of entries to skip"},
				},
				Action: showHistory,
			},
		},
	}
}

// ratingStore opens the Postgres rating store and the engine's season.
func ratingStore(c *cli.Context) (*session, *postgres.Store, string, error) {
	if c.NArg() != 1 {
		return nil, nil, "", cli.Exit("expected exactly one scouter id", 1)
	}
	s, err := newSession(c)
	if err != nil {
		return nil, nil, "", err
	}
	engineCfg, _, err := s.engine(c.String(flagSeason))
	if err != nil {
		s.Close()
		return nil, nil, "", err
	}
	db, err := s.database(c.Context)
	if err != nil {
		s.Close()
		return nil, nil, "", err
	}
	return s, postgres.NewStore(db, engineCfg.Calculator.DefaultRating), engineCfg.Season, nil
}

func showRating(c *cli.Context) error {
	s, store, season, err := ratingStore(c)
	if err != nil {
		return err
	}
	defer s.Close()

	r, err := store.GetRating(c.Context, c.Args().First(), season)
	if err != nil {
		return err
	}
	progress := domain.GetProgressToNextRank(r.CurrentElo)

	w := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "scouter\t%s\n", r.ScouterID)
	if r.SeasonID != "" {
		fmt.Fprintf(w, "season\t%s\n", r.SeasonID)
	}
	fmt.Fprintf(w, "rating\t%.1f (peak %.1f, lowest %.1f)\n", r.CurrentElo, r.PeakElo, r.LowestElo)
	fmt.Fprintf(w, "rank\t%s (%.0f%%)\n", progress.Rank, progress.Progress)
	if progress.NextRank != nil {
		fmt.Fprintf(w, "next rank\t%s in %.1f points\n", *progress.NextRank, progress.PointsNeeded)
	}
	fmt.Fprintf(w, "validations\t%d (%d successful, %d failed)\n",
		r.TotalValidations, r.SuccessfulValidations, r.FailedValidations)
	fmt.Fprintf(w, "confidence\t%.2f\n", r.ConfidenceLevel)
	return w.Flush()
}

func showHistory(c *cli.Context) error {
	s, store, _, err := ratingStore(c)
	if err != nil {
		return err
	}
	defer s.Close()

	history, err := store.ListHistory(c.Context, c.Args().First(), ports.Page{
		Limit:  c.Int(flagLimit),
		Offset: c.Int(flagOffset),
	})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tMATCH\tTEAM\tBEFORE\tAFTER\tDELTA\tACCURACY")
	for _, h := range history {
		fmt.Fprintf(w, "%s\t%s\t%d\t%.1f\t%.1f\t%+.1f\t%.2f\n",
			h.CreatedAt.Format("2006-01-02 15:04"), h.MatchKey, h.TeamNumber,
			h.EloBefore, h.EloAfter, h.EloDelta, h.AccuracyScore)
	}
	return w.Flush()
}
