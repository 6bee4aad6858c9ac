package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ahrav/go-scoutrate/internal/domain"
	"github.com/ahrav/go-scoutrate/internal/ports"
	"github.com/ahrav/go-scoutrate/pkg/logger"
)

var _ ports.Locker = (*Redis)(nil)

// DefaultLockTTL bounds how long a crashed holder can block a match.
const DefaultLockTTL = 5 * time.Minute

// releaseScript deletes the key only if it still holds our token, so an
// expired lock re-acquired by another process is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis is a Locker shared by every process using the same Redis.
type Redis struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	log    logger.Logger
}

// NewRedis creates a Redis locker. A non-positive ttl uses DefaultLockTTL.
func NewRedis(client redis.UniversalClient, prefix string, ttl time.Duration, log logger.Logger) *Redis {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Redis{client: client, prefix: prefix, ttl: ttl, log: log.Named("redis_lock")}
}

// TryLock acquires key with SET NX PX or fails with domain.ErrRunInProgress.
func (r *Redis) TryLock(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	redisKey := r.prefix + key

	ok, err := r.client.SetNX(ctx, redisKey, token, r.ttl).Result()
	if err != nil {
		return nil, ports.NewLockError(key, "acquire", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrRunInProgress, key)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := releaseScript.Run(releaseCtx, r.client, []string{redisKey}, token).Err(); err != nil {
				r.log.Warn(releaseCtx, "failed to release run lock",
					logger.String("key", key), logger.Error(ports.NewLockError(key, "release", err)))
			}
		})
	}, nil
}
