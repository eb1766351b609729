package aggregates

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yungbote/lessonplan-backend/internal/domain/errs"
	"github.com/yungbote/lessonplan-backend/internal/platform/dbctx"
)

type directTx struct{}

func (directTx) Transact(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	return fn(dbctx.Context{Ctx: ctx})
}

type recordedWrite struct {
	Op     string
	Status string
}

type spyObserver struct {
	Writes    []recordedWrite
	Conflicts []string
}

func (o *spyObserver) ObserveWrite(op, status string, _ time.Duration) {
	o.Writes = append(o.Writes, recordedWrite{Op: op, Status: status})
}

func (o *spyObserver) IncConflict(op string) {
	o.Conflicts = append(o.Conflicts, op)
}

func TestStoreWriteStatuses(t *testing.T) {
	cases := []struct {
		name      string
		fnErr     error
		status    string
		conflicts int
	}{
		{"ok", nil, "ok", 0},
		{"conflict", errors.New("UNIQUE constraint failed: lesson_plan_inputs.input_hash"), "conflict", 1},
		{"not found", errs.NotFound("op", "session map not found: %d", 7), "not_found", 0},
		{"driver", errors.New("database is locked"), "persistence", 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			obs := &spyObserver{}
			deps := StoreDeps{Tx: directTx{}, Observer: obs}
			err := deps.write(context.Background(), " LessonPlan.Cache.Test ", func(dbctx.Context) error { return tc.fnErr })
			if (tc.fnErr == nil) != (err == nil) {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(obs.Writes) != 1 || obs.Writes[0].Status != tc.status || obs.Writes[0].Op != "LessonPlan.Cache.Test" {
				t.Fatalf("writes: %+v", obs.Writes)
			}
			if len(obs.Conflicts) != tc.conflicts {
				t.Fatalf("conflicts: want=%d got=%+v", tc.conflicts, obs.Conflicts)
			}
		})
	}
}

func TestGormTransactorWithoutDB(t *testing.T) {
	err := NewGormTransactor(nil).Transact(context.Background(), func(dbctx.Context) error { return nil })
	if !errs.IsCode(err, errs.CodeInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
}
