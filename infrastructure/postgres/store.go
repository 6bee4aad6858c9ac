package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/ahrav/go-scoutrate/internal/domain"
	"github.com/ahrav/go-scoutrate/internal/ports"
)

var (
	_ ports.ObservationStore = (*Store)(nil)
	_ ports.RatingStore      = (*Store)(nil)
)

// uniqueViolation is the SQLSTATE of a unique constraint violation.
const uniqueViolation = "23505"

// maxRunVersionAttempts bounds retries when two runs race for a version.
const maxRunVersionAttempts = 3

// Store implements ports.ObservationStore and ports.RatingStore.
type Store struct {
	db            *bun.DB
	defaultRating float64
}

// NewStore creates a Store. Scouters without a rating row read back with
// defaultRating.
func NewStore(db *bun.DB, defaultRating float64) *Store {
	return &Store{db: db, defaultRating: defaultRating}
}

// GetObservationsForMatch returns the match's observations ordered by id.
func (s *Store) GetObservationsForMatch(ctx context.Context, matchKey string) ([]domain.Observation, error) {
	var rows []observationModel
	err := s.db.NewSelect().
		Model(&rows).
		Where("match_key = ?", matchKey).
		OrderExpr("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to select observations for %s: %w", matchKey, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("observations for match %s: %w", matchKey, domain.ErrNotFound)
	}
	return observationsToDomain(rows), nil
}

// GetObservationsForTeamInMatch returns one team's observations.
func (s *Store) GetObservationsForTeamInMatch(ctx context.Context, matchKey string, teamNumber int) ([]domain.Observation, error) {
	var rows []observationModel
	err := s.db.NewSelect().
		Model(&rows).
		Where("match_key = ? AND team_number = ?", matchKey, teamNumber).
		OrderExpr("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to select observations for %s team %d: %w", matchKey, teamNumber, err)
	}
	return observationsToDomain(rows), nil
}

// ListMatchKeysForEvent returns the event's match keys in play order.
func (s *Store) ListMatchKeysForEvent(ctx context.Context, eventKey string) ([]string, error) {
	var keys []string
	err := s.db.NewSelect().
		Model((*observationModel)(nil)).
		ColumnExpr("DISTINCT match_key").
		Where("event_key = ?", eventKey).
		Scan(ctx, &keys)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches for %s: %w", eventKey, err)
	}
	return domain.SortMatchKeys(keys), nil
}

// InsertObservations stores observations. Used by imports and tests.
func (s *Store) InsertObservations(ctx context.Context, obs ...domain.Observation) error {
	if len(obs) == 0 {
		return nil
	}
	rows := make([]*observationModel, 0, len(obs))
	for _, o := range obs {
		if o.EventKey == "" {
			o.EventKey = domain.EventKeyOf(o.MatchKey)
		}
		rows = append(rows, observationToModel(o))
	}
	if _, err := s.db.NewInsert().Model(&rows).Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert observations: %w", err)
	}
	return nil
}

// GetRating returns the stored rating or a fresh default one.
func (s *Store) GetRating(ctx context.Context, scouterID, seasonID string) (domain.ScouterRating, error) {
	row := new(scouterRatingModel)
	err := s.db.NewSelect().
		Model(row).
		Where("scouter_id = ? AND season_id = ?", scouterID, seasonID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NewScouterRating(scouterID, seasonID, s.defaultRating), nil
	}
	if err != nil {
		return domain.ScouterRating{}, fmt.Errorf("failed to get rating for %s: %w", scouterID, err)
	}
	return row.toDomain(), nil
}

// SaveRating upserts a rating row.
func (s *Store) SaveRating(ctx context.Context, rating domain.ScouterRating) error {
	if err := upsertRating(ctx, s.db, rating); err != nil {
		return domain.NewPersistenceError("save_rating", rating.ScouterID, err)
	}
	return nil
}

// AppendHistory inserts one history row.
func (s *Store) AppendHistory(ctx context.Context, entry domain.EloHistoryEntry) error {
	if _, err := s.db.NewInsert().Model(historyToModel(entry)).Exec(ctx); err != nil {
		return domain.NewPersistenceError("append_history", entry.ScouterID, err)
	}
	return nil
}

// AppendValidationResults inserts result rows.
func (s *Store) AppendValidationResults(ctx context.Context, results []domain.ValidationResult) error {
	if err := insertResults(ctx, s.db, results); err != nil {
		scouter := ""
		if len(results) > 0 {
			scouter = results[0].ScouterID
		}
		return domain.NewPersistenceError("append_validation_results", scouter, err)
	}
	return nil
}

// ApplyScouterUpdate locks the scouter's rating row with SELECT ... FOR
// UPDATE, builds the update from it and writes the rating, history row and
// results in the same transaction. A missing row is inserted with the
// default rating first so that first-time scouters are locked too.
func (s *Store) ApplyScouterUpdate(
	ctx context.Context,
	scouterID, seasonID string,
	build domain.ScouterUpdateFunc,
) (domain.ScouterUpdate, error) {
	var (
		applied  domain.ScouterUpdate
		buildErr error
	)
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		current, err := s.lockRating(ctx, tx, scouterID, seasonID)
		if err != nil {
			return err
		}
		u, err := build(current)
		if err != nil {
			buildErr = err
			return err
		}
		if err := upsertRating(ctx, tx, u.Rating); err != nil {
			return err
		}
		if _, err := tx.NewInsert().Model(historyToModel(u.History)).Exec(ctx); err != nil {
			return fmt.Errorf("failed to insert history: %w", err)
		}
		if err := insertResults(ctx, tx, u.Results); err != nil {
			return err
		}
		applied = u
		return nil
	})
	if buildErr != nil {
		return domain.ScouterUpdate{}, buildErr
	}
	if err != nil {
		return domain.ScouterUpdate{}, domain.NewPersistenceError("apply_scouter_update", scouterID, err)
	}
	return applied, nil
}

func (s *Store) lockRating(ctx context.Context, tx bun.Tx, scouterID, seasonID string) (domain.ScouterRating, error) {
	_, err := tx.NewInsert().
		Model(ratingToModel(domain.NewScouterRating(scouterID, seasonID, s.defaultRating))).
		On("CONFLICT (scouter_id, season_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return domain.ScouterRating{}, fmt.Errorf("failed to seed rating: %w", err)
	}

	row := new(scouterRatingModel)
	err = tx.NewSelect().
		Model(row).
		Where("scouter_id = ? AND season_id = ?", scouterID, seasonID).
		For("UPDATE").
		Scan(ctx)
	if err != nil {
		return domain.ScouterRating{}, fmt.Errorf("failed to lock rating: %w", err)
	}
	return row.toDomain(), nil
}

// RecordRun inserts the run row with the next free version for its match
// and strategy set, and stores the version on run.
func (s *Store) RecordRun(ctx context.Context, run *domain.ValidationRun) error {
	var lastErr error
	for range maxRunVersionAttempts {
		var version int
		err := s.db.NewRaw(`
			INSERT INTO validation_runs
				(id, match_key, event_key, strategy_set, run_version, input_hash, status, phases, started_at, finished_at)
			SELECT ?, ?, ?, ?, COALESCE(MAX(run_version), 0) + 1, ?, ?, ?, ?, ?
			FROM validation_runs
			WHERE match_key = ? AND strategy_set = ?
			RETURNING run_version`,
			run.ID, run.MatchKey, run.EventKey, run.StrategySet,
			run.InputHash, string(run.Status), pgdialect.Array(run.Phases), run.StartedAt, run.FinishedAt,
			run.MatchKey, run.StrategySet,
		).Scan(ctx, &version)
		if err == nil {
			run.RunVersion = version
			return nil
		}
		if !isUniqueViolation(err) {
			return domain.NewPersistenceError("record_run", "", err)
		}
		lastErr = err
	}
	return domain.NewPersistenceError("record_run", "", lastErr)
}

// ListHistory returns a scouter's history, newest first.
func (s *Store) ListHistory(ctx context.Context, scouterID string, page ports.Page) ([]domain.EloHistoryEntry, error) {
	var rows []eloHistoryModel
	q := s.db.NewSelect().
		Model(&rows).
		Where("scouter_id = ?", scouterID).
		OrderExpr("created_at DESC, id DESC")
	if page.Limit > 0 {
		q = q.Limit(page.Limit)
	}
	if page.Offset > 0 {
		q = q.Offset(page.Offset)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list history for %s: %w", scouterID, err)
	}
	out := make([]domain.EloHistoryEntry, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out, nil
}

func upsertRating(ctx context.Context, db bun.IDB, rating domain.ScouterRating) error {
	_, err := db.NewInsert().
		Model(ratingToModel(rating)).
		On("CONFLICT (scouter_id, season_id) DO UPDATE").
		Set("current_elo = EXCLUDED.current_elo").
		Set("peak_elo = EXCLUDED.peak_elo").
		Set("lowest_elo = EXCLUDED.lowest_elo").
		Set("total_validations = EXCLUDED.total_validations").
		Set("successful_validations = EXCLUDED.successful_validations").
		Set("failed_validations = EXCLUDED.failed_validations").
		Set("confidence_level = EXCLUDED.confidence_level").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to upsert rating: %w", err)
	}
	return nil
}

func insertResults(ctx context.Context, db bun.IDB, results []domain.ValidationResult) error {
	if len(results) == 0 {
		return nil
	}
	rows := make([]validationResultModel, 0, len(results))
	for _, r := range results {
		rows = append(rows, resultToModel(r))
	}
	if _, err := db.NewInsert().Model(&rows).Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert validation results: %w", err)
	}
	return nil
}

func observationsToDomain(rows []observationModel) []domain.Observation {
	out := make([]domain.Observation, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out
}

func isUniqueViolation(err error) bool {
	var pgErr pgdriver.Error
	return errors.As(err, &pgErr) && pgErr.Field('C') == uniqueViolation
}
