package postgres

import (
	"context"
	"fmt"
	"sync"

	"github.com/uptrace/bun"

	"github.com/ahrav/go-scoutrate/internal/domain"
	"github.com/ahrav/go-scoutrate/internal/ports"
	"github.com/ahrav/go-scoutrate/pkg/logger"
)

var _ ports.Locker = (*AdvisoryLocker)(nil)

// AdvisoryLocker excludes concurrent runs across processes that share a
// database. Session-level advisory locks belong to a connection, so each
// held lock pins one pooled connection until it is released.
type AdvisoryLocker struct {
	db  *bun.DB
	log logger.Logger
}

// NewAdvisoryLocker creates an AdvisoryLocker.
func NewAdvisoryLocker(db *bun.DB, log logger.Logger) *AdvisoryLocker {
	if log == nil {
		log = logger.Nop()
	}
	return &AdvisoryLocker{db: db, log: log.Named("advisory_lock")}
}

// TryLock takes pg_try_advisory_lock on the hash of key. A lock held by
// another session fails with domain.ErrRunInProgress.
func (l *AdvisoryLocker) TryLock(ctx context.Context, key string) (func(), error) {
	conn, err := l.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection for lock %s: %w", key, err)
	}

	var acquired bool
	if err := conn.QueryRowContext(ctx, "SELECT pg_try_advisory_lock(hashtext(?))", key).Scan(&acquired); err != nil {
		_ = conn.Close()
		return nil, ports.NewLockError(key, "acquire", err)
	}
	if !acquired {
		_ = conn.Close()
		return nil, fmt.Errorf("%w: %s", domain.ErrRunInProgress, key)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			ctx := context.WithoutCancel(ctx)
			if _, err := conn.ExecContext(ctx, "SELECT pg_advisory_unlock(hashtext(?))", key); err != nil {
				l.log.Warn(ctx, "failed to release advisory lock", logger.String("key", key), logger.Error(err))
			}
			_ = conn.Close()
		})
	}, nil
}
