package postgres

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/ahrav/go-scoutrate/internal/domain"
)

type scouterRatingModel struct {
	bun.BaseModel `bun:"table:scouter_ratings,alias:sr"`

	ScouterID             string    `bun:"scouter_id,pk"`
	SeasonID              string    `bun:"season_id,pk"`
	CurrentElo            float64   `bun:"current_elo,notnull"`
	PeakElo               float64   `bun:"peak_elo,notnull"`
	LowestElo             float64   `bun:"lowest_elo,notnull"`
	TotalValidations      int       `bun:"total_validations,notnull"`
	SuccessfulValidations int       `bun:"successful_validations,notnull"`
	FailedValidations     int       `bun:"failed_validations,notnull"`
	ConfidenceLevel       float64   `bun:"confidence_level,notnull"`
	UpdatedAt             time.Time `bun:"updated_at,notnull"`
}

func ratingToModel(r domain.ScouterRating) *scouterRatingModel {
	return &scouterRatingModel{
		ScouterID:             r.ScouterID,
		SeasonID:              r.SeasonID,
		CurrentElo:            r.CurrentElo,
		PeakElo:               r.PeakElo,
		LowestElo:             r.LowestElo,
		TotalValidations:      r.TotalValidations,
		SuccessfulValidations: r.SuccessfulValidations,
		FailedValidations:     r.FailedValidations,
		ConfidenceLevel:       r.ConfidenceLevel,
		UpdatedAt:             r.UpdatedAt,
	}
}

func (m *scouterRatingModel) toDomain() domain.ScouterRating {
	return domain.ScouterRating{
		ScouterID:             m.ScouterID,
		SeasonID:              m.SeasonID,
		CurrentElo:            m.CurrentElo,
		PeakElo:               m.PeakElo,
		LowestElo:             m.LowestElo,
		TotalValidations:      m.TotalValidations,
		SuccessfulValidations: m.SuccessfulValidations,
		FailedValidations:     m.FailedValidations,
		ConfidenceLevel:       m.ConfidenceLevel,
		UpdatedAt:             m.UpdatedAt,
	}
}

type eloHistoryModel struct {
	bun.BaseModel `bun:"table:elo_history,alias:eh"`

	ID                  string    `bun:"id,pk,type:uuid"`
	RunID               string    `bun:"run_id,notnull,type:uuid"`
	ScouterID           string    `bun:"scouter_id,notnull"`
	SeasonID            string    `bun:"season_id,notnull"`
	MatchKey            string    `bun:"match_key,notnull"`
	EventKey            string    `bun:"event_key,notnull"`
	TeamNumber          int       `bun:"team_number,notnull"`
	EloBefore           float64   `bun:"elo_before,notnull"`
	EloAfter            float64   `bun:"elo_after,notnull"`
	EloDelta            float64   `bun:"elo_delta,notnull"`
	Outcome             string    `bun:"outcome,notnull"`
	AccuracyScore       float64   `bun:"accuracy_score,notnull"`
	ValidationResultIDs []string  `bun:"validation_result_ids,array"`
	CreatedAt           time.Time `bun:"created_at,notnull"`
}

func historyToModel(e domain.EloHistoryEntry) *eloHistoryModel {
	return &eloHistoryModel{
		ID:                  e.ID,
		RunID:               e.RunID,
		ScouterID:           e.ScouterID,
		SeasonID:            e.SeasonID,
		MatchKey:            e.MatchKey,
		EventKey:            e.EventKey,
		TeamNumber:          e.TeamNumber,
		EloBefore:           e.EloBefore,
		EloAfter:            e.EloAfter,
		EloDelta:            e.EloDelta,
		Outcome:             string(e.Outcome),
		AccuracyScore:       e.AccuracyScore,
		ValidationResultIDs: e.ValidationResultIDs,
		CreatedAt:           e.CreatedAt,
	}
}

func (m *eloHistoryModel) toDomain() domain.EloHistoryEntry {
	return domain.EloHistoryEntry{
		ID:                  m.ID,
		RunID:               m.RunID,
		ScouterID:           m.ScouterID,
		SeasonID:            m.SeasonID,
		MatchKey:            m.MatchKey,
		EventKey:            m.EventKey,
		TeamNumber:          m.TeamNumber,
		EloBefore:           m.EloBefore,
		EloAfter:            m.EloAfter,
		EloDelta:            m.EloDelta,
		Outcome:             domain.EloOutcome(m.Outcome),
		AccuracyScore:       m.AccuracyScore,
		ValidationResultIDs: m.ValidationResultIDs,
		CreatedAt:           m.CreatedAt,
	}
}

type validationResultModel struct {
	bun.BaseModel `bun:"table:validation_results,alias:vr"`

	ID            string    `bun:"id,pk,type:uuid"`
	RunID         string    `bun:"run_id,notnull,type:uuid"`
	MatchKey      string    `bun:"match_key,notnull"`
	EventKey      string    `bun:"event_key,notnull"`
	TeamNumber    int       `bun:"team_number,notnull"`
	ScouterID     string    `bun:"scouter_id,notnull"`
	Strategy      string    `bun:"strategy,notnull"`
	FieldPath     string    `bun:"field_path,notnull"`
	ExpectedValue string    `bun:"expected_value,notnull"`
	ActualValue   string    `bun:"actual_value,notnull"`
	AccuracyScore float64   `bun:"accuracy_score,notnull"`
	Outcome       string    `bun:"validation_outcome,notnull"`
	Weight        float64   `bun:"weight,notnull"`
	Notes         string    `bun:"notes,notnull"`
	CreatedAt     time.Time `bun:"created_at,notnull"`
}

func resultToModel(r domain.ValidationResult) validationResultModel {
	return validationResultModel{
		ID:            r.ID,
		RunID:         r.RunID,
		MatchKey:      r.MatchKey,
		EventKey:      r.EventKey,
		TeamNumber:    r.TeamNumber,
		ScouterID:     r.ScouterID,
		Strategy:      string(r.Strategy),
		FieldPath:     r.FieldPath,
		ExpectedValue: r.ExpectedValue,
		ActualValue:   r.ActualValue,
		AccuracyScore: r.AccuracyScore,
		Outcome:       string(r.Outcome),
		Weight:        r.Weight,
		Notes:         r.Notes,
		CreatedAt:     r.CreatedAt,
	}
}

type validationRunModel struct {
	bun.BaseModel `bun:"table:validation_runs,alias:vrun"`

	ID          string    `bun:"id,pk,type:uuid"`
	MatchKey    string    `bun:"match_key,notnull"`
	EventKey    string    `bun:"event_key,notnull"`
	StrategySet string    `bun:"strategy_set,notnull"`
	RunVersion  int       `bun:"run_version,notnull"`
	InputHash   string    `bun:"input_hash,notnull"`
	Status      string    `bun:"status,notnull"`
	Phases      []string  `bun:"phases,array"`
	StartedAt   time.Time `bun:"started_at,notnull"`
	FinishedAt  time.Time `bun:"finished_at,notnull"`
}

type observationModel struct {
	bun.BaseModel `bun:"table:scouting_observations,alias:so"`

	ID            string         `bun:"id,pk"`
	MatchKey      string         `bun:"match_key,notnull"`
	EventKey      string         `bun:"event_key,notnull"`
	TeamNumber    int            `bun:"team_number,notnull"`
	ScouterID     string         `bun:"scouter_id,notnull"`
	SchemaVersion string         `bun:"schema_version,notnull"`
	Data          map[string]any `bun:"data,type:jsonb,notnull"`
	SubmittedAt   time.Time      `bun:"submitted_at,notnull"`
}

func observationToModel(o domain.Observation) *observationModel {
	return &observationModel{
		ID:            o.ID,
		MatchKey:      o.MatchKey,
		EventKey:      o.EventKey,
		TeamNumber:    o.TeamNumber,
		ScouterID:     o.ScouterID,
		SchemaVersion: o.SchemaVersion,
		Data:          o.Data,
		SubmittedAt:   o.SubmittedAt,
	}
}

func (m *observationModel) toDomain() domain.Observation {
	return domain.Observation{
		ID:            m.ID,
		MatchKey:      m.MatchKey,
		EventKey:      m.EventKey,
		TeamNumber:    m.TeamNumber,
		ScouterID:     m.ScouterID,
		SchemaVersion: m.SchemaVersion,
		Data:          m.Data,
		SubmittedAt:   m.SubmittedAt,
	}
}
