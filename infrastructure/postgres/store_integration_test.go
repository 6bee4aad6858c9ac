//go:build integration

package postgres

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"

	"github.com/ahrav/go-scoutrate/internal/domain"
	"github.com/ahrav/go-scoutrate/internal/ports"
	"github.com/ahrav/go-scoutrate/pkg/logger"
)

func startPostgres(t *testing.T) *bun.DB {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("scoutrate"),
		postgres.WithUsername("scoutrate"),
		postgres.WithPassword("scoutrate"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := Open(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	group, err := Migrate(ctx, db)
	require.NoError(t, err)
	require.False(t, group.IsZero())
	return db
}

func TestStore_Integration(t *testing.T) {
	ctx := context.Background()
	db := startPostgres(t)
	s := NewStore(db, domain.DefaultRatingValue)

	t.Run("observations", func(t *testing.T) {
		require.NoError(t, s.InsertObservations(ctx,
			domain.Observation{ID: "o1", MatchKey: "2025miket_qm10", TeamNumber: 254, ScouterID: "alice",
				Data: map[string]any{"auto": map[string]any{"leave": true}}},
			domain.Observation{ID: "o2", MatchKey: "2025miket_qm2", TeamNumber: 254, ScouterID: "bob"},
			domain.Observation{ID: "o3", MatchKey: "2025miket_qm2", TeamNumber: 1114, ScouterID: "carol"},
		))

		keys, err := s.ListMatchKeysForEvent(ctx, "2025miket")
		require.NoError(t, err)
		assert.Equal(t, []string{"2025miket_qm2", "2025miket_qm10"}, keys)

		obs, err := s.GetObservationsForMatch(ctx, "2025miket_qm10")
		require.NoError(t, err)
		require.Len(t, obs, 1)
		leave, ok := obs[0].Lookup("auto.leave")
		require.True(t, ok)
		assert.Equal(t, true, leave)

		team, err := s.GetObservationsForTeamInMatch(ctx, "2025miket_qm2", 1114)
		require.NoError(t, err)
		require.Len(t, team, 1)
		assert.Equal(t, "carol", team[0].ScouterID)

		_, err = s.GetObservationsForMatch(ctx, "2025miket_qm99")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("scouter update is atomic and history is newest first", func(t *testing.T) {
		// Given a scouter with no rating row.
		r, err := s.GetRating(ctx, "alice", "2025")
		require.NoError(t, err)
		assert.Equal(t, domain.DefaultRatingValue, r.CurrentElo)
		assert.True(t, r.UpdatedAt.IsZero())

		// When two updates are applied a minute apart.
		base := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
		for i, delta := range []float64{16, -8} {
			at := base.Add(time.Duration(i) * time.Minute)
			resultID := uuid.NewString()
			_, err := s.ApplyScouterUpdate(ctx, "alice", "2025", func(current domain.ScouterRating) (domain.ScouterUpdate, error) {
				before := current.CurrentElo
				next := current.Apply(domain.RatingChange{NewRating: before + delta, Delta: delta}, delta > 0, 0.6, at)
				return domain.ScouterUpdate{
					Rating: next,
					History: domain.EloHistoryEntry{
						ID: uuid.NewString(), RunID: uuid.NewString(), ScouterID: "alice", SeasonID: "2025",
						MatchKey: "2025miket_qm10", EventKey: "2025miket", TeamNumber: 254,
						EloBefore: before, EloAfter: next.CurrentElo, EloDelta: delta, Outcome: domain.EloGain,
						ValidationResultIDs: []string{resultID}, CreatedAt: at,
					},
					Results: []domain.ValidationResult{{
						ID: resultID, RunID: uuid.NewString(), MatchKey: "2025miket_qm10", EventKey: "2025miket",
						TeamNumber: 254, ScouterID: "alice", Strategy: domain.StrategyConsensus,
						FieldPath: "auto.leave", ExpectedValue: "true", ActualValue: "true",
						AccuracyScore: 1, Outcome: domain.OutcomeExactMatch, Weight: 1, CreatedAt: at,
					}},
				}, nil
			})
			require.NoError(t, err)
		}

		// Then the rating row reflects both and history reads back newest first.
		stored, err := s.GetRating(ctx, "alice", "2025")
		require.NoError(t, err)
		assert.Equal(t, 1508.0, stored.CurrentElo)
		assert.Equal(t, 1516.0, stored.PeakElo)
		assert.Equal(t, 1500.0, stored.LowestElo)
		assert.Equal(t, 2, stored.TotalValidations)

		history, err := s.ListHistory(ctx, "alice", ports.Page{})
		require.NoError(t, err)
		require.Len(t, history, 2)
		assert.Equal(t, -8.0, history[0].EloDelta)
		assert.Len(t, history[0].ValidationResultIDs, 1)

		page, err := s.ListHistory(ctx, "alice", ports.Page{Limit: 1, Offset: 1})
		require.NoError(t, err)
		require.Len(t, page, 1)
		assert.Equal(t, 16.0, page[0].EloDelta)
	})

	t.Run("concurrent updates of one scouter are serialized", func(t *testing.T) {
		// Given many updates of the same new scouter racing each other.
		const updates = 8
		var wg sync.WaitGroup
		errs := make([]error, updates)
		for i := range updates {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, errs[i] = s.ApplyScouterUpdate(ctx, "bob", "2025", func(current domain.ScouterRating) (domain.ScouterUpdate, error) {
					next := current.Apply(domain.RatingChange{NewRating: current.CurrentElo + 1, Delta: 1}, true, 0.6, time.Now())
					return domain.ScouterUpdate{
						Rating: next,
						History: domain.EloHistoryEntry{
							ID: uuid.NewString(), RunID: uuid.NewString(), ScouterID: "bob", SeasonID: "2025",
							MatchKey: "2025miket_qm11", EventKey: "2025miket", TeamNumber: 254,
							EloBefore: current.CurrentElo, EloAfter: next.CurrentElo, EloDelta: 1, Outcome: domain.EloGain,
							ValidationResultIDs: []string{}, CreatedAt: time.Now(),
						},
					}, nil
				})
			}()
		}
		wg.Wait()
		for _, err := range errs {
			require.NoError(t, err)
		}

		// Then no update was lost.
		stored, err := s.GetRating(ctx, "bob", "2025")
		require.NoError(t, err)
		assert.Equal(t, updates, stored.TotalValidations)
		assert.Equal(t, domain.DefaultRatingValue+updates, stored.CurrentElo)
	})

	t.Run("failed build writes nothing", func(t *testing.T) {
		_, err := s.ApplyScouterUpdate(ctx, "erin", "2025", func(domain.ScouterRating) (domain.ScouterUpdate, error) {
			return domain.ScouterUpdate{}, domain.ErrInvalidInput
		})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)

		r, err := s.GetRating(ctx, "erin", "2025")
		require.NoError(t, err)
		assert.True(t, r.UpdatedAt.IsZero())
	})

	t.Run("run versions increase per match and strategy set", func(t *testing.T) {
		now := time.Now().UTC()
		newRun := func(set string) *domain.ValidationRun {
			return &domain.ValidationRun{
				ID: uuid.NewString(), MatchKey: "2025miket_qm10", EventKey: "2025miket",
				StrategySet: set, InputHash: "h", Status: domain.RunStatusDone,
				Phases: []string{"collecting", "done"}, StartedAt: now, FinishedAt: now,
			}
		}

		for want := 1; want <= 2; want++ {
			run := newRun("consensus")
			require.NoError(t, s.RecordRun(ctx, run))
			assert.Equal(t, want, run.RunVersion)
		}
		other := newRun("consensus,official_result")
		require.NoError(t, s.RecordRun(ctx, other))
		assert.Equal(t, 1, other.RunVersion)
	})
}

func TestAdvisoryLocker_Integration(t *testing.T) {
	ctx := context.Background()
	db := startPostgres(t)
	l := NewAdvisoryLocker(db, logger.Nop())

	unlock, err := l.TryLock(ctx, "match:2025miket_qm10")
	require.NoError(t, err)

	_, err = l.TryLock(ctx, "match:2025miket_qm10")
	assert.ErrorIs(t, err, domain.ErrRunInProgress)

	other, err := l.TryLock(ctx, "match:2025miket_qm11")
	require.NoError(t, err)
	other()

	unlock()
	unlock()

	again, err := l.TryLock(ctx, "match:2025miket_qm10")
	require.NoError(t, err)
	again()
}
