package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	if err := Migrations.DiscoverCaller(); err != nil {
		panic(err)
	}
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			statements := []string{
				`CREATE TABLE IF NOT EXISTS scouting_observations (
					id TEXT PRIMARY KEY,
					match_key TEXT NOT NULL,
					event_key TEXT NOT NULL,
					team_number INTEGER NOT NULL,
					scouter_id TEXT NOT NULL,
					schema_version TEXT NOT NULL DEFAULT '',
					data JSONB NOT NULL DEFAULT '{}'::jsonb,
					submitted_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				)`,
				`CREATE INDEX IF NOT EXISTS idx_observations_match ON scouting_observations (match_key, team_number)`,
				`CREATE INDEX IF NOT EXISTS idx_observations_event ON scouting_observations (event_key)`,

				`CREATE TABLE IF NOT EXISTS scouter_ratings (
					scouter_id TEXT NOT NULL,
					season_id TEXT NOT NULL DEFAULT '',
					current_elo DOUBLE PRECISION NOT NULL,
					peak_elo DOUBLE PRECISION NOT NULL,
					lowest_elo DOUBLE PRECISION NOT NULL,
					total_validations INTEGER NOT NULL DEFAULT 0,
					successful_validations INTEGER NOT NULL DEFAULT 0,
					failed_validations INTEGER NOT NULL DEFAULT 0,
					confidence_level DOUBLE PRECISION NOT NULL,
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					PRIMARY KEY (scouter_id, season_id),
					CHECK (lowest_elo <= current_elo AND current_elo <= peak_elo),
					CHECK (confidence_level >= 0 AND confidence_level <= 1)
				)`,

				`CREATE TABLE IF NOT EXISTS validation_runs (
					id UUID PRIMARY KEY,
					match_key TEXT NOT NULL,
					event_key TEXT NOT NULL,
					strategy_set TEXT NOT NULL,
					run_version INTEGER NOT NULL,
					input_hash TEXT NOT NULL,
					status TEXT NOT NULL,
					phases TEXT[] NOT NULL DEFAULT '{}',
					started_at TIMESTAMPTZ NOT NULL,
					finished_at TIMESTAMPTZ NOT NULL,
					UNIQUE (match_key, strategy_set, run_version)
				)`,

				`CREATE TABLE IF NOT EXISTS validation_results (
					id UUID PRIMARY KEY,
					run_id UUID NOT NULL,
					match_key TEXT NOT NULL,
					event_key TEXT NOT NULL,
					team_number INTEGER NOT NULL,
					scouter_id TEXT NOT NULL,
					strategy TEXT NOT NULL,
					field_path TEXT NOT NULL,
					expected_value TEXT NOT NULL,
					actual_value TEXT NOT NULL,
					accuracy_score DOUBLE PRECISION NOT NULL CHECK (accuracy_score >= 0 AND accuracy_score <= 1),
					validation_outcome TEXT NOT NULL,
					weight DOUBLE PRECISION NOT NULL DEFAULT 1,
					notes TEXT NOT NULL DEFAULT '',
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				)`,
				`CREATE INDEX IF NOT EXISTS idx_validation_results_scouter ON validation_results (scouter_id, created_at DESC)`,
				`CREATE INDEX IF NOT EXISTS idx_validation_results_run ON validation_results (run_id)`,

				`CREATE TABLE IF NOT EXISTS elo_history (
					id UUID PRIMARY KEY,
					run_id UUID NOT NULL,
					scouter_id TEXT NOT NULL,
					season_id TEXT NOT NULL DEFAULT '',
					match_key TEXT NOT NULL,
					event_key TEXT NOT NULL,
					team_number INTEGER NOT NULL,
					elo_before DOUBLE PRECISION NOT NULL,
					elo_after DOUBLE PRECISION NOT NULL,
					elo_delta DOUBLE PRECISION NOT NULL,
					outcome TEXT NOT NULL,
					accuracy_score DOUBLE PRECISION NOT NULL,
					validation_result_ids TEXT[] NOT NULL DEFAULT '{}',
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					UNIQUE (run_id, scouter_id)
				)`,
				`CREATE INDEX IF NOT EXISTS idx_elo_history_scouter ON elo_history (scouter_id, created_at DESC)`,
			}
			for _, stmt := range statements {
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					return fmt.Errorf("failed to apply schema: %w", err)
				}
			}
			return nil
		})
	}, func(ctx context.Context, db *bun.DB) error {
		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			for _, table := range []string{
				"elo_history", "validation_results", "validation_runs",
				"scouter_ratings", "scouting_observations",
			} {
				if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
					return fmt.Errorf("failed to drop %s: %w", table, err)
				}
			}
			return nil
		})
	})
}
