package lessonplan

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"

	"github.com/yungbote/lessonplan-backend/internal/domain/errs"
	"github.com/yungbote/lessonplan-backend/internal/observability"
	"github.com/yungbote/lessonplan-backend/internal/platform/keylock"
	"github.com/yungbote/lessonplan-backend/internal/platform/logger"
)

// Stage memoizes one expensive computation per key in the cache repository.
//
// Run looks the key up and returns a hit directly. On a miss, identical keys
// in this process share one flight; the flight holds the key lock, looks up
// again so a winner's result is served as a hit, and only then computes and
// persists. The flight runs on a context detached from the caller so a
// disconnecting caller does not abort work others are waiting on.
type Stage[K comparable, V any] struct {
	Name string

	// Key identifies k for coalescing. LockKey defaults to Name:Key(k).
	Key     func(k K) string
	LockKey func(k K) string

	Lookup  func(ctx context.Context, k K) (V, bool, error)
	Compute func(ctx context.Context, k K) (V, error)
	Persist func(ctx context.Context, k K, v V) (V, error)

	Locker  keylock.Locker
	Log     *logger.Logger
	Metrics *observability.Metrics

	group singleflight.Group
}

type stageResult[V any] struct {
	value     V
	fromCache bool
}

// Run returns the value for k and whether it came from the cache. With force
// the initial lookups are skipped and the value is always recomputed.
func (s *Stage[K, V]) Run(ctx context.Context, k K, force bool) (v V, fromCache bool, err error) {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, "lessonplan.stage."+s.Name,
		attribute.String("stage.key", s.Key(k)),
		attribute.Bool("stage.force", force),
	)
	defer func() {
		result := "miss"
		switch {
		case err != nil:
			result = string(errs.CodeOf(err))
			if result == "" {
				result = "error"
			}
		case fromCache:
			result = "hit"
		}
		span.SetAttributes(attribute.String("stage.result", result))
		s.Metrics.ObserveStage(s.Name, result, time.Since(start))
		observability.EndSpan(span, err)
	}()

	if !force {
		cached, ok, lerr := s.Lookup(ctx, k)
		if lerr != nil {
			return v, false, lerr
		}
		if ok {
			return cached, true, nil
		}
	}

	flightKey := s.Key(k)
	if force {
		flightKey = "force|" + flightKey
	}
	detached := context.WithoutCancel(ctx)
	ch := s.group.DoChan(flightKey, func() (any, error) {
		return s.fill(detached, k, force)
	})

	select {
	case <-ctx.Done():
		return v, false, ctx.Err()
	case res := <-ch:
		if res.Shared {
			s.Metrics.IncStageCoalesced(s.Name)
		}
		if res.Err != nil {
			return v, false, res.Err
		}
		r := res.Val.(stageResult[V])
		return r.value, r.fromCache, nil
	}
}

func (s *Stage[K, V]) fill(ctx context.Context, k K, force bool) (stageResult[V], error) {
	var out stageResult[V]
	if s.Locker != nil {
		release, err := s.Locker.Acquire(ctx, s.lockKey(k))
		if err != nil {
			return out, errs.NewError(errs.CodeInternal, "LessonPlan.Stage."+s.Name, "acquire key lock", err)
		}
		defer release()
	}

	if !force {
		cached, ok, err := s.Lookup(ctx, k)
		if err != nil {
			return out, err
		}
		if ok {
			if s.Log != nil {
				s.Log.Debug("stage filled by concurrent caller", "stage", s.Name, "key", s.Key(k))
			}
			out.value, out.fromCache = cached, true
			return out, nil
		}
	}

	computed, err := s.Compute(ctx, k)
	if err != nil {
		return out, err
	}
	persisted, err := s.Persist(ctx, k, computed)
	if err != nil {
		return out, err
	}
	out.value = persisted
	return out, nil
}

func (s *Stage[K, V]) lockKey(k K) string {
	if s.LockKey != nil {
		return s.LockKey(k)
	}
	return s.Name + ":" + s.Key(k)
}
