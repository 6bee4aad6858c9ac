// Package memstore provides in-memory observation and rating stores. They
// back dry runs and tests; nothing is persisted across processes.
package memstore

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/ahrav/go-scoutrate/internal/domain"
	"github.com/ahrav/go-scoutrate/internal/ports"
)

var (
	_ ports.ObservationStore = (*Store)(nil)
	_ ports.RatingStore      = (*Store)(nil)
)

// Store keeps observations, ratings, history, results and runs in memory.
// It is safe for concurrent use.
type Store struct {
	mu            sync.RWMutex
	defaultRating float64

	observations map[string][]domain.Observation
	ratings      map[ratingKey]domain.ScouterRating
	history      []domain.EloHistoryEntry
	results      []domain.ValidationResult
	runs         []domain.ValidationRun
}

type ratingKey struct {
	scouter, season string
}

// New creates an empty store. Ratings that were never saved read back as
// defaultRating.
func New(defaultRating float64) *Store {
	return &Store{
		defaultRating: defaultRating,
		observations:  make(map[string][]domain.Observation),
		ratings:       make(map[ratingKey]domain.ScouterRating),
	}
}

// AddObservations seeds observations. Observations without an event key get
// the one encoded in their match key.
func (s *Store) AddObservations(obs ...domain.Observation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range obs {
		if o.EventKey == "" {
			o.EventKey = domain.EventKeyOf(o.MatchKey)
		}
		s.observations[o.MatchKey] = append(s.observations[o.MatchKey], o)
	}
}

// GetObservationsForMatch returns every observation of matchKey. A match
// with no observations is domain.ErrNotFound.
func (s *Store) GetObservationsForMatch(_ context.Context, matchKey string) ([]domain.Observation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obs, ok := s.observations[matchKey]
	if !ok || len(obs) == 0 {
		return nil, fmt.Errorf("observations for match %s: %w", matchKey, domain.ErrNotFound)
	}
	return slices.Clone(obs), nil
}

// GetObservationsForTeamInMatch returns the observations of one team.
func (s *Store) GetObservationsForTeamInMatch(_ context.Context, matchKey string, teamNumber int) ([]domain.Observation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Observation
	for _, o := range s.observations[matchKey] {
		if o.TeamNumber == teamNumber {
			out = append(out, o)
		}
	}
	return out, nil
}

// ListMatchKeysForEvent returns the event's match keys in play order.
func (s *Store) ListMatchKeysForEvent(_ context.Context, eventKey string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var keys []string
	for key, obs := range s.observations {
		if len(obs) > 0 && obs[0].EventKey == eventKey {
			keys = append(keys, key)
		}
	}
	return domain.SortMatchKeys(keys), nil
}

// GetRating returns the stored rating or a fresh default one.
func (s *Store) GetRating(_ context.Context, scouterID, seasonID string) (domain.ScouterRating, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ratingLocked(scouterID, seasonID), nil
}

func (s *Store) ratingLocked(scouterID, seasonID string) domain.ScouterRating {
	if r, ok := s.ratings[ratingKey{scouterID, seasonID}]; ok {
		return r
	}
	return domain.NewScouterRating(scouterID, seasonID, s.defaultRating)
}

// SaveRating upserts a rating.
func (s *Store) SaveRating(_ context.Context, rating domain.ScouterRating) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ratings[ratingKey{rating.ScouterID, rating.SeasonID}] = rating
	return nil
}

// AppendHistory appends one history entry.
func (s *Store) AppendHistory(_ context.Context, entry domain.EloHistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, entry)
	return nil
}

// AppendValidationResults appends results.
func (s *Store) AppendValidationResults(_ context.Context, results []domain.ValidationResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, results...)
	return nil
}

// ApplyScouterUpdate reads the current rating, builds the update and writes
// the rating, history entry and results under one lock.
func (s *Store) ApplyScouterUpdate(
	_ context.Context,
	scouterID, seasonID string,
	build domain.ScouterUpdateFunc,
) (domain.ScouterUpdate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := build(s.ratingLocked(scouterID, seasonID))
	if err != nil {
		return domain.ScouterUpdate{}, err
	}
	s.ratings[ratingKey{u.Rating.ScouterID, u.Rating.SeasonID}] = u.Rating
	s.history = append(s.history, u.History)
	s.results = append(s.results, u.Results...)
	return u, nil
}

// RecordRun stores run and assigns its RunVersion.
func (s *Store) RecordRun(_ context.Context, run *domain.ValidationRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	version := 0
	for _, r := range s.runs {
		if r.MatchKey == run.MatchKey && r.StrategySet == run.StrategySet && r.RunVersion > version {
			version = r.RunVersion
		}
	}
	run.RunVersion = version + 1
	s.runs = append(s.runs, *run)
	return nil
}

// ListHistory returns a scouter's history, newest first.
func (s *Store) ListHistory(_ context.Context, scouterID string, page ports.Page) ([]domain.EloHistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type indexed struct {
		i int
		e domain.EloHistoryEntry
	}
	var matched []indexed
	for i, e := range s.history {
		if e.ScouterID == scouterID {
			matched = append(matched, indexed{i, e})
		}
	}
	slices.SortFunc(matched, func(a, b indexed) int {
		if c := b.e.CreatedAt.Compare(a.e.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.i, a.i)
	})

	start := min(max(page.Offset, 0), len(matched))
	end := len(matched)
	if page.Limit > 0 {
		end = min(start+page.Limit, end)
	}
	out := make([]domain.EloHistoryEntry, 0, end-start)
	for _, m := range matched[start:end] {
		out = append(out, m.e)
	}
	return out, nil
}

// Results returns every stored validation result.
func (s *Store) Results() []domain.ValidationResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.results)
}

// Runs returns every recorded run.
func (s *Store) Runs() []domain.ValidationRun {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.runs)
}
