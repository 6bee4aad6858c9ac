package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ahrav/go-scoutrate/internal/domain"
	"github.com/ahrav/go-scoutrate/internal/ports"
	"github.com/ahrav/go-scoutrate/pkg/logger"
)

var _ ports.OfficialResultSource = (*GroundTruthSource)(nil)

// DefaultGroundTruthTTL is how long a fetched official result is reused.
// Published results are final, so the TTL only bounds staleness after an
// upstream correction.
const DefaultGroundTruthTTL = 6 * time.Hour

// GroundTruthSource serves official results from a CacheStore, falling back
// to the wrapped source on a miss. Cache failures degrade to a direct fetch.
type GroundTruthSource struct {
	next  ports.OfficialResultSource
	store ports.CacheStore
	ttl   time.Duration
	log   logger.Logger
}

// NewGroundTruthSource decorates next with store. A non-positive ttl uses
// DefaultGroundTruthTTL.
func NewGroundTruthSource(next ports.OfficialResultSource, store ports.CacheStore, ttl time.Duration, log logger.Logger) *GroundTruthSource {
	if ttl <= 0 {
		ttl = DefaultGroundTruthTTL
	}
	if log == nil {
		log = logger.Nop()
	}
	return &GroundTruthSource{next: next, store: store, ttl: ttl, log: log.Named("ground_truth_cache")}
}

// GroundTruthKey returns the cache key for a match.
func GroundTruthKey(matchKey string) string { return "ground_truth:" + matchKey }

// GetOfficialResult returns the cached result for matchKey or fetches and
// caches it. Not-found and failed lookups are not cached.
func (s *GroundTruthSource) GetOfficialResult(ctx context.Context, matchKey string) (*domain.GroundTruth, error) {
	key := GroundTruthKey(matchKey)

	data, ok, err := s.store.Get(ctx, key)
	switch {
	case err != nil:
		s.log.Warn(ctx, "ground truth cache read failed", logger.String("match_key", matchKey), logger.Error(err))
	case ok:
		var gt domain.GroundTruth
		if err := json.Unmarshal(data, &gt); err == nil {
			return &gt, nil
		}
		s.log.Warn(ctx, "discarding corrupted ground truth cache entry", logger.String("match_key", matchKey))
		_ = s.store.Delete(ctx, key)
	}

	gt, err := s.next.GetOfficialResult(ctx, matchKey)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(gt); err == nil {
		if err := s.store.Set(ctx, key, data, s.ttl); err != nil {
			s.log.Warn(ctx, "ground truth cache write failed", logger.String("match_key", matchKey), logger.Error(err))
		}
	}
	return gt, nil
}
