// Package keylock provides mutual exclusion per string key, either inside one
// process or across processes through Redis.
package keylock

import (
	"context"
	"time"

	"github.com/yungbote/lessonplan-backend/internal/observability"
)

// Locker hands out an exclusive hold on key. Acquire blocks until the key is
// free or ctx is done. The returned release func is idempotent.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

type instrumented struct {
	next    Locker
	backend string
	metrics *observability.Metrics
}

// WithMetrics records acquire latency for next under the given backend label.
func WithMetrics(next Locker, backend string, metrics *observability.Metrics) Locker {
	if metrics == nil {
		return next
	}
	return &instrumented{next: next, backend: backend, metrics: metrics}
}

func (l *instrumented) Acquire(ctx context.Context, key string) (func(), error) {
	start := time.Now()
	release, err := l.next.Acquire(ctx, key)
	status := "acquired"
	if err != nil {
		status = "failed"
	}
	l.metrics.ObserveLockWait(l.backend, status, time.Since(start))
	return release, err
}
