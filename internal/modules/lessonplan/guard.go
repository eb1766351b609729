package lessonplan

import (
	"context"
	"errors"

	"github.com/yungbote/lessonplan-backend/internal/domain/errs"
	"github.com/yungbote/lessonplan-backend/internal/observability"
	"github.com/yungbote/lessonplan-backend/internal/platform/logger"
)

const (
	guardDeleted      = "deleted"
	guardKeptPrior    = "kept_preexisting"
	guardKeptRows     = "kept_has_sessions"
	guardCountFailed  = "count_failed"
	guardDeleteFailed = "delete_failed"
)

// ConsistencyGuard removes a plan input that this call created when the
// session batch for it could not be written, so no input is left without
// sessions. Inputs that existed before the call are never touched.
type ConsistencyGuard struct {
	Cache   CacheRepository
	Log     *logger.Logger
	Metrics *observability.Metrics
}

// Compensate always returns an error wrapping cause. Failures of the
// compensation itself are joined onto it.
func (g ConsistencyGuard) Compensate(ctx context.Context, inputID int64, created bool, cause error) error {
	const op = "LessonPlan.ConsistencyGuard"
	ctx = context.WithoutCancel(ctx)

	if !created {
		g.record(guardKeptPrior, inputID, cause)
		return cause
	}
	n, err := g.Cache.CountSessionMaps(ctx, inputID)
	if err != nil {
		g.record(guardCountFailed, inputID, err)
		return errors.Join(cause, errs.Wrap(errs.CodePersistence, op, err))
	}
	if n > 0 {
		g.record(guardKeptRows, inputID, cause)
		return cause
	}
	if err := g.Cache.DeleteInput(ctx, inputID); err != nil {
		g.record(guardDeleteFailed, inputID, err)
		return errors.Join(cause, errs.Wrap(errs.CodePersistence, op, err))
	}
	g.record(guardDeleted, inputID, cause)
	return cause
}

func (g ConsistencyGuard) record(outcome string, inputID int64, err error) {
	g.Metrics.IncGuard(outcome)
	if g.Log == nil {
		return
	}
	if outcome == guardDeleted {
		g.Log.Warn("removed orphan plan input", "input_id", inputID, "cause", err)
		return
	}
	g.Log.Warn("consistency guard", "outcome", outcome, "input_id", inputID, "error", err)
}
