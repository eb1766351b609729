package aggregates

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/lessonplan-backend/internal/domain/errs"
	"github.com/yungbote/lessonplan-backend/internal/observability"
	"github.com/yungbote/lessonplan-backend/internal/platform/dbctx"
	"github.com/yungbote/lessonplan-backend/internal/platform/logger"
)

// StoreDeps are shared by every aggregate that writes through a transaction.
type StoreDeps struct {
	DB       *gorm.DB
	Log      *logger.Logger
	Tx       Transactor
	Observer WriteObserver
}

// Transactor runs fn inside one database transaction.
type Transactor interface {
	Transact(ctx context.Context, fn func(dbc dbctx.Context) error) error
}

// WriteObserver receives one event per aggregate write.
type WriteObserver interface {
	ObserveWrite(op, status string, dur time.Duration)
	IncConflict(op string)
}

type gormTransactor struct {
	db *gorm.DB
}

func NewGormTransactor(db *gorm.DB) Transactor {
	return &gormTransactor{db: db}
}

func (t *gormTransactor) Transact(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	if t == nil || t.db == nil {
		return errs.NewError(errs.CodeInternal, "LessonPlan.Store.Transact", "no database configured", nil)
	}
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(dbctx.Context{Ctx: ctx, Tx: tx})
	})
}

type discardObserver struct{}

func (discardObserver) ObserveWrite(string, string, time.Duration) {}
func (discardObserver) IncConflict(string)                         {}

type metricsObserver struct {
	metrics *observability.Metrics
}

// MetricsObserver reports cache writes to metrics; nil metrics discard them.
func MetricsObserver(metrics *observability.Metrics) WriteObserver {
	if metrics == nil {
		return discardObserver{}
	}
	return metricsObserver{metrics: metrics}
}

func (o metricsObserver) ObserveWrite(op, status string, dur time.Duration) {
	o.metrics.ObserveCacheWrite(op, status, dur)
}

func (o metricsObserver) IncConflict(op string) {
	o.metrics.IncCacheConflict(op)
}

func (d StoreDeps) normalized() StoreDeps {
	if d.Tx == nil {
		d.Tx = NewGormTransactor(d.DB)
	}
	if d.Observer == nil {
		d.Observer = discardObserver{}
	}
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	return d
}

// write commits fn as one unit and reports the outcome under op. Conflicts
// are expected when stage-1 calls race and are only logged at debug.
func (d StoreDeps) write(ctx context.Context, op string, fn func(dbc dbctx.Context) error) error {
	d = d.normalized()
	op = strings.TrimSpace(op)
	start := time.Now()

	err := MapError(op, d.Tx.Transact(ctx, fn))
	status := writeStatus(err)
	d.Observer.ObserveWrite(op, status, time.Since(start))

	switch errs.CodeOf(err) {
	case "":
	case errs.CodeConflict:
		d.Observer.IncConflict(op)
		d.Log.Debug("cache write conflict", "op", op, "error", err)
	case errs.CodeNotFound, errs.CodeValidation:
	default:
		d.Log.Warn("cache write failed", "op", op, "code", status, "error", err)
	}
	return err
}

func writeStatus(err error) string {
	if err == nil {
		return "ok"
	}
	if code := errs.CodeOf(err); code != "" {
		return string(code)
	}
	return "error"
}
