package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"
	"github.com/urfave/cli/v2"
	"golang.org/x/time/rate"

	"github.com/ahrav/go-scoutrate/infrastructure/cache"
	"github.com/ahrav/go-scoutrate/infrastructure/lock"
	"github.com/ahrav/go-scoutrate/infrastructure/memstore"
	"github.com/ahrav/go-scoutrate/infrastructure/middleware"
	"github.com/ahrav/go-scoutrate/infrastructure/officialresults"
	"github.com/ahrav/go-scoutrate/infrastructure/postgres"
	"github.com/ahrav/go-scoutrate/infrastructure/strategies"
	"github.com/ahrav/go-scoutrate/internal/application"
	"github.com/ahrav/go-scoutrate/internal/config"
	"github.com/ahrav/go-scoutrate/internal/domain"
	"github.com/ahrav/go-scoutrate/internal/ports"
	"github.com/ahrav/go-scoutrate/pkg/logger"
)

// Official results client resilience settings.
const (
	breakerFailures = 5
	breakerCooldown = 30 * time.Second
	retryBaseDelay  = 500 * time.Millisecond
	retryMaxDelay   = 10 * time.Second
)

// session owns the process-wide resources of one command invocation.
type session struct {
	cfg     *config.Config
	log     logger.Logger
	metrics *middleware.PrometheusMetrics

	registry *prometheus.Registry
	server   *http.Server

	db    *bun.DB
	redis *redis.Client
}

// newSession loads settings and applies the global flag overrides.
func newSession(c *cli.Context) (*session, error) {
	cfg, err := config.Load(c.String(flagConfig))
	if err != nil {
		return nil, err
	}
	if v := c.String(flagEngine); v != "" {
		cfg.EngineConfig = v
	}
	if v := c.String(flagLogLevel); v != "" {
		cfg.LogLevel = v
	}
	if v := c.String(flagMetricsAddr); v != "" {
		cfg.MetricsAddr = v
	}

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	log, err := logger.New(c.App.ErrWriter, cfg.LogFormat, level)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	s := &session{
		cfg:      cfg,
		log:      log,
		registry: registry,
		metrics:  middleware.NewPrometheusMetrics(registry),
	}
	if cfg.MetricsAddr != "" {
		s.serveMetrics(c.Context)
	}
	return s, nil
}

func (s *session) serveMetrics(ctx context.Context) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{Registry: s.registry}))
	s.server = &http.Server{
		Addr:              s.cfg.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error(ctx, "metrics server stopped", logger.Error(err))
		}
	}()
	s.log.Info(ctx, "serving metrics", logger.String("addr", s.cfg.MetricsAddr))
}

// Close releases every resource opened by the session.
func (s *session) Close() {
	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(ctx)
	}
	if s.redis != nil {
		_ = s.redis.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
}

// database opens the Postgres store on first use.
func (s *session) database(ctx context.Context) (*bun.DB, error) {
	if s.db != nil {
		return s.db, nil
	}
	if s.cfg.DatabaseDSN == "" {
		return nil, fmt.Errorf("%w: database_dsn is not set", config.ErrInvalidConfig)
	}
	db, err := postgres.Open(ctx, s.cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	s.db = db
	return db, nil
}

// redisClient connects to Redis on first use. It returns nil when no
// address is configured.
func (s *session) redisClient(ctx context.Context) (*redis.Client, error) {
	if s.redis != nil || s.cfg.RedisAddr == "" {
		return s.redis, nil
	}
	client, err := cache.NewRedisClient(ctx, cache.RedisOptions{
		Addr:     s.cfg.RedisAddr,
		Password: s.cfg.RedisPassword,
		DB:       s.cfg.RedisDB,
	})
	if err != nil {
		return nil, err
	}
	s.redis = client
	return client, nil
}

// engine loads the engine configuration and the field rules it names.
func (s *session) engine(seasonOverride string) (application.EngineConfig, strategies.FieldRules, error) {
	loader, err := application.NewConfigLoader()
	if err != nil {
		return application.EngineConfig{}, strategies.FieldRules{}, err
	}
	engineCfg, err := loader.LoadFromFile(s.cfg.EngineConfig)
	if err != nil {
		return application.EngineConfig{}, strategies.FieldRules{}, fmt.Errorf("engine config %s: %w", s.cfg.EngineConfig, err)
	}
	if seasonOverride != "" {
		engineCfg.Season = seasonOverride
	}
	rules, err := strategies.LoadFieldRulesFile(engineCfg.FieldRules)
	if err != nil {
		return application.EngineConfig{}, strategies.FieldRules{}, err
	}
	return engineCfg, rules, nil
}

// storeOptions selects where observations come from and ratings go to.
type storeOptions struct {
	// observationsFile loads observations from a JSON file instead of the
	// database.
	observationsFile string
	// dryRun keeps every rating change in memory.
	dryRun bool
}

// stores returns the observation and rating stores for opts.
func (s *session) stores(
	ctx context.Context,
	opts storeOptions,
	defaultRating float64,
) (ports.ObservationStore, ports.RatingStore, error) {
	var mem *memstore.Store
	if opts.dryRun || opts.observationsFile != "" || s.cfg.DatabaseDSN == "" {
		mem = memstore.New(defaultRating)
	}

	var observations ports.ObservationStore
	if opts.observationsFile != "" {
		obs, err := readObservations(opts.observationsFile)
		if err != nil {
			return nil, nil, err
		}
		mem.AddObservations(obs...)
		observations = mem
	}

	if s.cfg.DatabaseDSN == "" {
		if observations == nil {
			return nil, nil, fmt.Errorf("%w: without database_dsn pass --observations", config.ErrInvalidConfig)
		}
		return observations, mem, nil
	}

	db, err := s.database(ctx)
	if err != nil {
		return nil, nil, err
	}
	pg := postgres.NewStore(db, defaultRating)
	if observations == nil {
		observations = pg
	}
	if opts.dryRun {
		return observations, mem, nil
	}
	return observations, pg, nil
}

// locker builds the configured per-match run lock.
func (s *session) locker(ctx context.Context, dryRun bool) (ports.Locker, error) {
	if dryRun {
		return lock.NewLocal(), nil
	}
	switch s.cfg.LockBackend {
	case config.LockRedis:
		client, err := s.redisClient(ctx)
		if err != nil {
			return nil, err
		}
		return lock.NewRedis(client, s.cfg.RedisPrefix+"lock:", s.cfg.LockTTL, s.log), nil
	case config.LockPostgres:
		db, err := s.database(ctx)
		if err != nil {
			return nil, err
		}
		return postgres.NewAdvisoryLocker(db, s.log), nil
	default:
		return lock.NewLocal(), nil
	}
}

// officialSource builds the cached, rate limited official results client.
func (s *session) officialSource(ctx context.Context, rules strategies.FieldRules) (ports.OfficialResultSource, error) {
	client, err := officialresults.NewClient(officialresults.ClientConfig{
		APIKey:   s.cfg.TBAAPIKey,
		BaseURL:  s.cfg.TBABaseURL,
		Mappings: rules.OfficialResult,
		Middleware: []officialresults.Middleware{
			officialresults.TracingMiddleware("scoutrate"),
			officialresults.MetricsMiddleware(s.metrics),
			officialresults.CircuitBreakerMiddleware(breakerFailures, breakerCooldown),
			officialresults.RetryMiddleware(s.cfg.TBAMaxRetries, retryBaseDelay, retryMaxDelay),
			officialresults.RateLimitMiddleware(rate.Limit(s.cfg.TBARateLimit), s.cfg.TBABurst),
			officialresults.TimeoutMiddleware(s.cfg.TBATimeout),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("official results client: %w", err)
	}

	var store ports.CacheStore = cache.NewMemoryCache()
	redisClient, err := s.redisClient(ctx)
	if err != nil {
		return nil, err
	}
	if redisClient != nil {
		store = cache.NewRedisCache(redisClient, s.cfg.RedisPrefix+"cache:")
	}
	return cache.NewGroundTruthSource(client, store, s.cfg.GroundTruthTTL, s.log), nil
}

// orchestrator wires a validation orchestrator for one command.
func (s *session) orchestrator(c *cli.Context, opts storeOptions) (*application.Orchestrator, error) {
	ctx := c.Context
	engineCfg, rules, err := s.engine(c.String(flagSeason))
	if err != nil {
		return nil, err
	}
	table, err := application.StrategyTableFromRules(&rules, engineCfg.Kinds()...)
	if err != nil {
		return nil, err
	}
	orchOpts, err := application.OptionsFromConfig(engineCfg, table)
	if err != nil {
		return nil, err
	}

	observations, ratings, err := s.stores(ctx, opts, engineCfg.Calculator.DefaultRating)
	if err != nil {
		return nil, err
	}
	locker, err := s.locker(ctx, opts.dryRun)
	if err != nil {
		return nil, err
	}

	deps := application.Dependencies{
		Observations: observations,
		Ratings:      ratings,
		Locker:       locker,
		Metrics:      s.metrics,
		Logger:       s.log,
	}
	if table.Official() != nil {
		if deps.Official, err = s.officialSource(ctx, rules); err != nil {
			return nil, err
		}
	}
	return application.NewOrchestrator(deps, orchOpts)
}

func readObservations(path string) ([]domain.Observation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read observations: %w", err)
	}
	var obs []domain.Observation
	if err := json.Unmarshal(data, &obs); err != nil {
		return nil, fmt.Errorf("failed to parse observations %s: %w", path, err)
	}
	return obs, nil
}
