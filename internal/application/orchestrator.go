// Package application orchestrates validation runs: it collects observations
// and ground truth, runs the strategies, folds the outcomes into ratings, and
// persists the results.
package application

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/ahrav/go-scoutrate/infrastructure/middleware"
	"github.com/ahrav/go-scoutrate/internal/domain"
	"github.com/ahrav/go-scoutrate/internal/ports"
	"github.com/ahrav/go-scoutrate/pkg/logger"
)

// Dependencies are the ports an Orchestrator talks to.
type Dependencies struct {
	Observations ports.ObservationStore
	Ratings      ports.RatingStore
	Locker       ports.Locker
	// Official is required when the strategy table has an official result
	// strategy.
	Official ports.OfficialResultSource
	Metrics  ports.MetricsCollector
	Logger   logger.Logger
}

// Options are the value parameters of an Orchestrator.
type Options struct {
	Calculator domain.Calculator
	Strategies *StrategyTable
	// Weights maps strategy kinds to their share in the aggregated score.
	// Missing kinds weigh DefaultStrategyWeight.
	Weights          map[domain.StrategyKind]float64
	Concurrency      int
	SeasonID         string
	SuccessThreshold float64
	// Now overrides the clock in tests.
	Now func() time.Time
}

// OptionsFromConfig derives Options from an engine configuration and a
// strategy table.
func OptionsFromConfig(cfg EngineConfig, table *StrategyTable) (Options, error) {
	calc, err := domain.NewCalculator(cfg.Calculator)
	if err != nil {
		return Options{}, err
	}
	return Options{
		Calculator:       calc,
		Strategies:       table,
		Weights:          cfg.Weights(),
		Concurrency:      cfg.Concurrency,
		SeasonID:         cfg.Season,
		SuccessThreshold: cfg.SuccessThreshold,
	}, nil
}

// Orchestrator runs validation over a match or an event. It is safe for
// concurrent use; runs of the same match are excluded by the Locker.
type Orchestrator struct {
	observations ports.ObservationStore
	ratings      ports.RatingStore
	locker       ports.Locker
	official     ports.OfficialResultSource
	metrics      ports.MetricsCollector
	log          logger.Logger
	tracer       trace.Tracer

	calc        domain.Calculator
	table       *StrategyTable
	weights     map[domain.StrategyKind]float64
	concurrency int
	season      string
	threshold   float64
	now         func() time.Time

	// groundTruth shares one official-result fetch between concurrent
	// callers asking for the same match.
	groundTruth singleflight.Group
}

// NewOrchestrator wires an Orchestrator.
func NewOrchestrator(deps Dependencies, opts Options) (*Orchestrator, error) {
	if deps.Observations == nil || deps.Ratings == nil || deps.Locker == nil {
		return nil, fmt.Errorf("%w: observation store, rating store and locker are required", domain.ErrInvalidConfiguration)
	}
	if opts.Strategies == nil {
		return nil, fmt.Errorf("%w: strategy table is required", domain.ErrInvalidConfiguration)
	}
	if opts.Strategies.Official() != nil && deps.Official == nil {
		return nil, fmt.Errorf("%w: official result strategy needs an official result source", domain.ErrInvalidConfiguration)
	}
	if opts.Calculator == (domain.Calculator{}) {
		opts.Calculator = domain.MustNewCalculator(domain.DefaultCalculatorConfig())
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.SuccessThreshold <= 0 {
		opts.SuccessThreshold = DefaultSuccessThreshold
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if deps.Metrics == nil {
		deps.Metrics = middleware.NopMetrics{}
	}
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}

	return &Orchestrator{
		observations: deps.Observations,
		ratings:      deps.Ratings,
		locker:       deps.Locker,
		official:     deps.Official,
		metrics:      deps.Metrics,
		log:          deps.Logger.Named("orchestrator"),
		tracer:       otel.Tracer("validation-orchestrator"),
		calc:         opts.Calculator,
		table:        opts.Strategies,
		weights:      opts.Weights,
		concurrency:  opts.Concurrency,
		season:       opts.SeasonID,
		threshold:    opts.SuccessThreshold,
		now:          opts.Now,
	}, nil
}

// MatchLockKey is the lock key guarding runs of one match.
func MatchLockKey(matchKey string) string { return "match:" + matchKey }

// ValidateMatch validates every scouter of one match and persists their
// rating changes. Partial failures are reported in the summary. Only a
// malformed key, an unknown strategy, a match without observations, a held
// lock, store read failures and cancellation are returned as errors.
func (o *Orchestrator) ValidateMatch(
	ctx context.Context,
	matchKey string,
	kinds ...domain.StrategyKind,
) (*domain.ValidationExecutionSummary, error) {
	if err := domain.ValidateMatchKey(matchKey); err != nil {
		return nil, err
	}
	selected, err := o.table.Resolve(kinds)
	if err != nil {
		return nil, err
	}

	unlock, err := o.locker.TryLock(ctx, MatchLockKey(matchKey))
	if err != nil {
		o.metrics.RecordCounter("match_runs_total", 1, map[string]string{"status": "locked"})
		return nil, err
	}
	defer unlock()

	return o.runMatch(ctx, matchKey, selected)
}

// ValidateEvent validates every match of an event, one match at a time.
// Cancellation is honoured between matches: the returned summary covers the
// completed matches, is marked Cancelled, and the context error is returned
// alongside it.
func (o *Orchestrator) ValidateEvent(
	ctx context.Context,
	eventKey string,
	kinds ...domain.StrategyKind,
) (*domain.ValidationExecutionSummary, error) {
	if err := domain.ValidateEventKey(eventKey); err != nil {
		return nil, err
	}
	if _, err := o.table.Resolve(kinds); err != nil {
		return nil, err
	}

	ctx, span := o.tracer.Start(ctx, "Orchestrator.ValidateEvent",
		trace.WithAttributes(attribute.String("event.key", eventKey)))
	defer span.End()

	keys, err := o.observations.ListMatchKeysForEvent(ctx, eventKey)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("listing matches for %s: %w", eventKey, err)
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("event %s: %w", eventKey, domain.ErrNotFound)
	}

	summary := &domain.ValidationExecutionSummary{
		EventKey:  eventKey,
		MatchKeys: []string{},
		StartedAt: o.now(),
	}

loop:
	for _, key := range keys {
		if ctx.Err() != nil {
			summary.Cancelled = true
			break
		}

		ms, err := o.ValidateMatch(ctx, key, kinds...)
		switch {
		case err == nil:
			summary.Merge(ms)
		case ctx.Err() != nil:
			summary.Cancelled = true
			break loop
		case errors.Is(err, domain.ErrNotFound):
			o.log.Debug(ctx, "match has no observations", logger.String("match_key", key))
		default:
			o.log.Warn(ctx, "match validation failed",
				logger.String("match_key", key), logger.Error(err))
			summary.Errored = append(summary.Errored, domain.ErrorRecord{MatchKey: key, Reason: err.Error()})
			summary.FailedMatches = append(summary.FailedMatches, key)
		}
	}

	summary.EventKey = eventKey
	summary.FinishedAt = o.now()
	span.SetAttributes(
		attribute.Int("event.matches", summary.MatchesProcessed()),
		attribute.Bool("event.cancelled", summary.Cancelled),
	)
	if summary.Cancelled {
		span.SetStatus(codes.Error, "cancelled")
		return summary, ctx.Err()
	}
	return summary, nil
}

// scouterWork collects one scouter's comparisons within a match.
type scouterWork struct {
	scouterID    string
	observations []domain.Observation
	results      map[domain.StrategyKind][]domain.ValidationResult
	skips        []domain.SkipRecord
	err          error
}

// matchRun is the mutable state of one ValidateMatch call.
type matchRun struct {
	id       string
	matchKey string
	kinds    []domain.StrategyKind
	tracker  *domain.RunTracker
	summary  *domain.ValidationExecutionSummary
	inputs   []domain.Observation
	started  time.Time
}

func (o *Orchestrator) runMatch(
	ctx context.Context,
	matchKey string,
	selected []ports.Strategy,
) (*domain.ValidationExecutionSummary, error) {
	run := &matchRun{
		id:       uuid.NewString(),
		matchKey: matchKey,
		tracker:  domain.NewRunTracker(),
		started:  o.now(),
	}
	for _, s := range selected {
		run.kinds = append(run.kinds, s.Kind())
	}
	run.summary = &domain.ValidationExecutionSummary{
		EventKey:  domain.EventKeyOf(matchKey),
		MatchKeys: []string{matchKey},
		RunIDs:    []string{run.id},
		StartedAt: run.started,
	}

	ctx, span := o.tracer.Start(ctx, "Orchestrator.ValidateMatch",
		trace.WithAttributes(
			attribute.String("match.key", matchKey),
			attribute.String("run.id", run.id),
			attribute.String("run.strategies", domain.StrategySetKey(run.kinds)),
		),
	)
	defer span.End()

	summary, err := o.executeRun(ctx, run, selected)
	status := "done"
	if err != nil || run.tracker.Phase() == domain.PhaseFailed {
		status = "failed"
		if err != nil {
			span.RecordError(err)
		}
		span.SetStatus(codes.Error, run.tracker.FailureReason())
	}
	o.metrics.RecordCounter("match_runs_total", 1, map[string]string{"status": status})
	o.metrics.RecordLatency("validate_match", o.now().Sub(run.started), map[string]string{"status": status})
	return summary, err
}

func (o *Orchestrator) executeRun(
	ctx context.Context,
	run *matchRun,
	selected []ports.Strategy,
) (*domain.ValidationExecutionSummary, error) {
	// collecting
	phaseStart := o.now()
	observations, err := o.observations.GetObservationsForMatch(ctx, run.matchKey)
	if err == nil && len(observations) == 0 {
		err = fmt.Errorf("match %s: %w", run.matchKey, domain.ErrNotFound)
	}
	if err != nil {
		_ = run.tracker.Fail(err.Error())
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("loading observations for %s: %w", run.matchKey, err)
	}
	run.inputs = observations

	active, gt, err := o.collectGroundTruth(ctx, run, selected)
	if err != nil {
		return nil, o.abort(ctx, run, err)
	}
	o.recordPhase(domain.PhaseCollecting, phaseStart)
	if len(active) == 0 {
		_ = run.tracker.Fail("no strategy has usable ground truth")
		run.summary.FailedMatches = append(run.summary.FailedMatches, run.matchKey)
		o.skipAll(run, observations)
		o.finish(ctx, run)
		return run.summary, nil
	}

	// comparing
	if err := run.tracker.Advance(domain.PhaseComparing); err != nil {
		return nil, err
	}
	phaseStart = o.now()
	work, err := o.compare(ctx, run, observations, active, gt)
	if err != nil {
		return nil, o.abort(ctx, run, err)
	}
	o.recordPhase(domain.PhaseComparing, phaseStart)

	// aggregating
	if err := run.tracker.Advance(domain.PhaseAggregating); err != nil {
		return nil, err
	}
	scores := o.aggregate(run, work)

	if err := ctx.Err(); err != nil {
		return nil, o.abort(ctx, run, err)
	}

	// persisting: once started, a match is written to completion so that no
	// scouter is left with a partial update.
	if err := run.tracker.Advance(domain.PhasePersisting); err != nil {
		return nil, err
	}
	phaseStart = o.now()
	o.persist(context.WithoutCancel(ctx), run, work, scores)
	o.recordPhase(domain.PhasePersisting, phaseStart)

	if err := run.tracker.Advance(domain.PhaseDone); err != nil {
		return nil, err
	}
	o.finish(ctx, run)
	return run.summary, nil
}

// skipAll records every scouter of the match as skipped by each strategy
// that failed, for runs left with no usable strategy.
func (o *Orchestrator) skipAll(run *matchRun, observations []domain.Observation) {
	seen := make(map[string]bool, len(observations))
	for _, obs := range observations {
		if seen[obs.ScouterID] {
			continue
		}
		seen[obs.ScouterID] = true
		run.summary.ScoutersSkipped++
		o.metrics.RecordCounter(middleware.MetricScouters, 1, map[string]string{"result": "skipped"})
		for _, f := range run.summary.StrategyFailures {
			run.summary.Skipped = append(run.summary.Skipped, domain.SkipRecord{
				ScouterID:  obs.ScouterID,
				MatchKey:   run.matchKey,
				TeamNumber: obs.TeamNumber,
				Strategy:   f.Strategy,
				Reason:     f.Reason,
			})
		}
	}
}

// collectGroundTruth fetches official results when requested. A failed fetch
// drops the official result strategy and is reported, not returned.
func (o *Orchestrator) collectGroundTruth(
	ctx context.Context,
	run *matchRun,
	selected []ports.Strategy,
) ([]ports.Strategy, *domain.GroundTruth, error) {
	idx := slices.IndexFunc(selected, func(s ports.Strategy) bool {
		return s.Kind() == domain.StrategyOfficialResult
	})
	if idx < 0 {
		return selected, nil, nil
	}

	gt, err := o.fetchGroundTruth(ctx, run.matchKey)
	if err == nil {
		return selected, gt, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, nil, ctxErr
	}

	reason := err.Error()
	if errors.Is(err, domain.ErrNotFound) {
		reason = "official result not published"
	}
	o.log.Warn(ctx, "dropping official result strategy",
		logger.String("match_key", run.matchKey), logger.Error(err))
	o.metrics.RecordCounter(middleware.MetricStrategyFailures, 1,
		map[string]string{"strategy": string(domain.StrategyOfficialResult)})
	run.summary.StrategyFailures = append(run.summary.StrategyFailures, domain.StrategyFailure{
		Strategy: domain.StrategyOfficialResult,
		MatchKey: run.matchKey,
		Reason:   reason,
	})

	active := slices.Clone(selected)
	return slices.Delete(active, idx, idx+1), nil, nil
}

func (o *Orchestrator) fetchGroundTruth(ctx context.Context, matchKey string) (*domain.GroundTruth, error) {
	v, err, _ := o.groundTruth.Do(matchKey, func() (any, error) {
		return o.official.GetOfficialResult(ctx, matchKey)
	})
	if err != nil {
		return nil, err
	}
	gt, _ := v.(*domain.GroundTruth)
	if gt == nil {
		return nil, fmt.Errorf("official result for %s: %w", matchKey, domain.ErrNotFound)
	}
	return gt, nil
}

// compare runs the active strategies for every scouter of the match,
// at most o.concurrency scouters at a time.
func (o *Orchestrator) compare(
	ctx context.Context,
	run *matchRun,
	observations []domain.Observation,
	active []ports.Strategy,
	gt *domain.GroundTruth,
) ([]*scouterWork, error) {
	byScouter := make(map[string][]domain.Observation)
	byTeam := make(map[int][]domain.Observation)
	for _, obs := range observations {
		byScouter[obs.ScouterID] = append(byScouter[obs.ScouterID], obs)
		byTeam[obs.TeamNumber] = append(byTeam[obs.TeamNumber], obs)
	}

	ids := make([]string, 0, len(byScouter))
	for id := range byScouter {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	work := make([]*scouterWork, len(ids))
	now := o.now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)
	for i, id := range ids {
		w := &scouterWork{
			scouterID:    id,
			observations: byScouter[id],
			results:      make(map[domain.StrategyKind][]domain.ValidationResult),
		}
		work[i] = w
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			o.compareScouter(gctx, run, w, byTeam, active, gt, now)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return work, ctx.Err()
}

func (o *Orchestrator) compareScouter(
	ctx context.Context,
	run *matchRun,
	w *scouterWork,
	byTeam map[int][]domain.Observation,
	active []ports.Strategy,
	gt *domain.GroundTruth,
	now time.Time,
) {
	for _, obs := range w.observations {
		sctx := ports.StrategyContext{
			RunID:            run.id,
			TeamObservations: byTeam[obs.TeamNumber],
			GroundTruth:      gt,
			Now:              now,
		}
		for _, s := range active {
			results, err := s.Execute(ctx, obs, sctx)
			switch {
			case errors.Is(err, domain.ErrInsufficientData):
				w.skips = append(w.skips, domain.SkipRecord{
					ScouterID:  w.scouterID,
					MatchKey:   run.matchKey,
					TeamNumber: obs.TeamNumber,
					Strategy:   s.Kind(),
					Reason:     err.Error(),
				})
			case err != nil:
				w.err = fmt.Errorf("strategy %s on team %d: %w", s.Kind(), obs.TeamNumber, err)
				return
			default:
				w.results[s.Kind()] = append(w.results[s.Kind()], results...)
			}
		}
	}
}

// aggregate folds each scouter's results into one accuracy score: a
// field-weighted mean per strategy, then a strategy-weighted mean across
// strategies. Scouters without any result get no score.
func (o *Orchestrator) aggregate(run *matchRun, work []*scouterWork) map[string]float64 {
	scores := make(map[string]float64, len(work))
	for _, w := range work {
		run.summary.Skipped = append(run.summary.Skipped, w.skips...)
		if w.err != nil {
			continue
		}

		var perStrategy []domain.WeightedScore
		for _, kind := range run.kinds {
			results := w.results[kind]
			if len(results) == 0 {
				continue
			}
			fields := make([]domain.WeightedScore, 0, len(results))
			for _, r := range results {
				fields = append(fields, domain.WeightedScore{Score: r.AccuracyScore, Weight: r.Weight})
				o.metrics.RecordCounter(middleware.MetricFieldComparisons, 1, map[string]string{
					"strategy": string(kind),
					"outcome":  string(r.Outcome),
				})
			}
			perStrategy = append(perStrategy, domain.WeightedScore{
				Score:  domain.CalculateWeightedAccuracy(fields),
				Weight: o.weightOf(kind),
			})
		}
		if len(perStrategy) == 0 {
			continue
		}
		scores[w.scouterID] = domain.CalculateWeightedAccuracy(perStrategy)
	}
	return scores
}

func (o *Orchestrator) weightOf(kind domain.StrategyKind) float64 {
	if w, ok := o.weights[kind]; ok && w > 0 {
		return w
	}
	return DefaultStrategyWeight
}

// persist applies one rating update per scored scouter, each in its own
// atomic store write.
func (o *Orchestrator) persist(
	ctx context.Context,
	run *matchRun,
	work []*scouterWork,
	scores map[string]float64,
) {
	s := run.summary
	for _, w := range work {
		if w.err != nil {
			o.recordError(ctx, run, w.scouterID, w.err)
			continue
		}
		accuracy, ok := scores[w.scouterID]
		if !ok {
			s.ScoutersSkipped++
			o.metrics.RecordCounter(middleware.MetricScouters, 1, map[string]string{"result": "skipped"})
			continue
		}

		delta, err := o.applyUpdate(ctx, run, w, accuracy)
		if err != nil {
			o.recordError(ctx, run, w.scouterID, err)
			continue
		}
		s.ScoutersValidated++
		s.Deltas = append(s.Deltas, delta)
		o.metrics.RecordCounter(middleware.MetricScouters, 1, map[string]string{"result": "validated"})
		o.metrics.RecordHistogram(middleware.MetricEloDelta, delta.Delta, map[string]string{"outcome": string(delta.Outcome)})
	}
}

func (o *Orchestrator) applyUpdate(
	ctx context.Context,
	run *matchRun,
	w *scouterWork,
	accuracy float64,
) (domain.ScouterDelta, error) {
	var results []domain.ValidationResult
	for _, kind := range run.kinds {
		results = append(results, w.results[kind]...)
	}
	ids := make([]string, 0, len(results))
	for _, r := range results {
		ids = append(ids, r.ID)
	}
	team := w.observations[0].TeamNumber

	var buildErr error
	build := func(rating domain.ScouterRating) (domain.ScouterUpdate, error) {
		now := o.now()
		calc := o.calc.ForValidations(rating.TotalValidations)
		change, err := calc.CalculateNewRating(rating.CurrentElo, accuracy, calc.Config().DefaultRating)
		if err != nil {
			buildErr = err
			return domain.ScouterUpdate{}, err
		}
		confidence, err := calc.CalculateConfidence(rating.TotalValidations + 1)
		if err != nil {
			buildErr = err
			return domain.ScouterUpdate{}, err
		}

		updated := rating.Apply(change, accuracy >= o.threshold, confidence, now)
		return domain.ScouterUpdate{
			Rating: updated,
			History: domain.EloHistoryEntry{
				ID:                  uuid.NewString(),
				RunID:               run.id,
				ScouterID:           w.scouterID,
				SeasonID:            o.season,
				MatchKey:            run.matchKey,
				EventKey:            domain.EventKeyOf(run.matchKey),
				TeamNumber:          team,
				EloBefore:           rating.CurrentElo,
				EloAfter:            updated.CurrentElo,
				EloDelta:            updated.CurrentElo - rating.CurrentElo,
				Outcome:             change.Outcome,
				AccuracyScore:       accuracy,
				ValidationResultIDs: ids,
				CreatedAt:           now,
			},
			Results: results,
		}, nil
	}

	u, err := o.ratings.ApplyScouterUpdate(ctx, w.scouterID, o.season, build)
	if buildErr != nil {
		return domain.ScouterDelta{}, buildErr
	}
	if err != nil {
		return domain.ScouterDelta{}, asPersistenceError("apply_scouter_update", w.scouterID, err)
	}

	history := u.History
	return domain.ScouterDelta{
		ScouterID:     w.scouterID,
		MatchKey:      run.matchKey,
		TeamNumber:    team,
		EloBefore:     history.EloBefore,
		EloAfter:      history.EloAfter,
		Delta:         history.EloDelta,
		Outcome:       history.Outcome,
		AccuracyScore: accuracy,
		FieldsChecked: len(results),
	}, nil
}

func (o *Orchestrator) recordError(ctx context.Context, run *matchRun, scouterID string, err error) {
	o.log.Error(ctx, "scouter update failed",
		logger.String("match_key", run.matchKey),
		logger.String("scouter_id", scouterID),
		logger.Error(err),
	)
	o.metrics.RecordCounter(middleware.MetricScouters, 1, map[string]string{"result": "errored"})
	run.summary.ScoutersErrored++
	run.summary.Errored = append(run.summary.Errored, domain.ErrorRecord{
		ScouterID: scouterID,
		MatchKey:  run.matchKey,
		Reason:    err.Error(),
	})
}

// abort fails the run and records it. Nothing has been persisted yet.
func (o *Orchestrator) abort(ctx context.Context, run *matchRun, err error) error {
	_ = run.tracker.Fail(err.Error())
	o.finish(ctx, run)
	return fmt.Errorf("validating %s: %w", run.matchKey, err)
}

// finish stamps the summary and records the run row. A failed run record
// is logged; the ratings it describes are already committed.
func (o *Orchestrator) finish(ctx context.Context, run *matchRun) {
	run.summary.FinishedAt = o.now()

	status := domain.RunStatusDone
	if run.tracker.Phase() == domain.PhaseFailed {
		status = domain.RunStatusFailed
	}
	phases := run.tracker.History()
	names := make([]string, 0, len(phases))
	for _, p := range phases {
		names = append(names, string(p))
	}

	record := &domain.ValidationRun{
		ID:          run.id,
		MatchKey:    run.matchKey,
		EventKey:    domain.EventKeyOf(run.matchKey),
		StrategySet: domain.StrategySetKey(run.kinds),
		InputHash:   domain.ComputeInputHash(run.inputs),
		Status:      status,
		Phases:      names,
		StartedAt:   run.started,
		FinishedAt:  run.summary.FinishedAt,
	}
	if err := o.ratings.RecordRun(context.WithoutCancel(ctx), record); err != nil {
		o.log.Error(ctx, "failed to record validation run",
			logger.String("run_id", run.id), logger.Error(err))
		return
	}
	o.log.Info(ctx, "validation run finished",
		logger.String("run_id", run.id),
		logger.String("match_key", run.matchKey),
		logger.Int("run_version", record.RunVersion),
		logger.String("status", string(status)),
		logger.Int("validated", run.summary.ScoutersValidated),
		logger.Int("skipped", run.summary.ScoutersSkipped),
		logger.Int("errored", run.summary.ScoutersErrored),
	)
}

func (o *Orchestrator) recordPhase(phase domain.RunPhase, start time.Time) {
	o.metrics.RecordLatency("phase_"+string(phase), o.now().Sub(start), nil)
}

func asPersistenceError(op, scouterID string, err error) error {
	var pe *domain.PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	return domain.NewPersistenceError(op, scouterID, err)
}
