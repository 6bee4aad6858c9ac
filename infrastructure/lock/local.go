// Package lock provides per-match run locks so two validation runs of the
// same match never overlap.
package lock

import (
	"context"
	"fmt"
	"sync"

	"github.com/ahrav/go-scoutrate/internal/domain"
	"github.com/ahrav/go-scoutrate/internal/ports"
)

var _ ports.Locker = (*Local)(nil)

// Local is an in-process Locker. It only excludes runs within one process.
type Local struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewLocal creates a Local locker.
func NewLocal() *Local {
	return &Local{held: make(map[string]struct{})}
}

// TryLock acquires key or fails with domain.ErrRunInProgress.
func (l *Local) TryLock(_ context.Context, key string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.held[key]; ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrRunInProgress, key)
	}
	l.held[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, key)
			l.mu.Unlock()
		})
	}, nil
}
