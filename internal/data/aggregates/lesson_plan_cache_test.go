package aggregates

import (
	"context"
	"encoding/json"
	"testing"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/lessonplan-backend/internal/data/repos"
	"github.com/yungbote/lessonplan-backend/internal/data/repos/testutil"
	types "github.com/yungbote/lessonplan-backend/internal/domain"
	"github.com/yungbote/lessonplan-backend/internal/domain/errs"
	"github.com/yungbote/lessonplan-backend/internal/domain/lessonplan"
)

func newTestCache(t *testing.T, db *gorm.DB, obs WriteObserver) types.CacheRepository {
	t.Helper()
	log := testutil.Logger(t)
	return NewLessonPlanCache(LessonPlanCacheDeps{
		Store:    StoreDeps{DB: db, Log: log, Observer: obs},
		Inputs:   repos.NewPlanInputRepo(db, log),
		Outputs:  repos.NewPlanOutputRepo(db, log),
		Sessions: repos.NewSessionMapRepo(db, log),
		Contents: repos.NewSessionContentRepo(db, log),
	})
}

func sessionBatch(inputID int64, numbers ...int) []*types.SessionMap {
	out := make([]*types.SessionMap, 0, len(numbers))
	for _, n := range numbers {
		out = append(out, &types.SessionMap{
			InputID:       inputID,
			SessionNumber: n,
			SessionTitle:  "Session",
			KPIDs:         lessonplan.EncodeKeyPointIDs([]types.KeyPointID{types.KeyPointID(n)}),
			IsActive:      true,
		})
	}
	return out
}

func TestLessonPlanCacheCreateInputConflict(t *testing.T) {
	db := testutil.DB(t)
	obs := &spyObserver{}
	cache := newTestCache(t, db, obs)
	ctx := context.Background()

	in, err := cache.CreateInput(ctx, &types.PlanInput{BoardID: 1, ClassID: 2, SubjectID: 3, ChapterID: 4, PlannedSessions: 3, InputHash: "fp"})
	if err != nil {
		t.Fatalf("CreateInput: %v", err)
	}
	got, err := cache.FindInputByFingerprint(ctx, "fp")
	if err != nil || got == nil || got.ID != in.ID {
		t.Fatalf("FindInputByFingerprint: err=%v got=%+v", err, got)
	}

	_, err = cache.CreateInput(ctx, &types.PlanInput{BoardID: 1, ClassID: 2, SubjectID: 3, ChapterID: 4, PlannedSessions: 3, InputHash: "fp"})
	if !errs.IsCode(err, errs.CodeConflict) {
		t.Fatalf("duplicate CreateInput: expected conflict, got %v", err)
	}
	if len(obs.Conflicts) != 1 {
		t.Fatalf("expected one conflict, got %+v", obs.Conflicts)
	}
}

func TestLessonPlanCacheCreateSessionMapsIsAtomic(t *testing.T) {
	db := testutil.DB(t)
	cache := newTestCache(t, db, nil)
	ctx := context.Background()

	in, err := cache.CreateInput(ctx, &types.PlanInput{BoardID: 1, ClassID: 2, SubjectID: 3, ChapterID: 4, PlannedSessions: 3, InputHash: "fp-atomic"})
	if err != nil {
		t.Fatalf("CreateInput: %v", err)
	}

	// Duplicate session number fails on the third row; the first two and the
	// output must roll back with it.
	batch := sessionBatch(in.ID, 1, 2, 2)
	_, err = cache.CreateSessionMaps(ctx, batch, &types.PlanOutput{ResponseJSON: datatypes.JSON(`{}`)})
	if !errs.IsCode(err, errs.CodeConflict) {
		t.Fatalf("CreateSessionMaps: expected conflict, got %v", err)
	}
	if n, err := cache.CountSessionMaps(ctx, in.ID); err != nil || n != 0 {
		t.Fatalf("CountSessionMaps after rollback: err=%v n=%d", err, n)
	}
	if out, err := cache.FindOutput(ctx, in.ID); err != nil || out != nil {
		t.Fatalf("FindOutput after rollback: err=%v out=%+v", err, out)
	}
}

func TestLessonPlanCacheCreateSessionMapsPreservesOrder(t *testing.T) {
	db := testutil.DB(t)
	cache := newTestCache(t, db, nil)
	ctx := context.Background()

	in, err := cache.CreateInput(ctx, &types.PlanInput{BoardID: 1, ClassID: 2, SubjectID: 3, ChapterID: 4, PlannedSessions: 3, InputHash: "fp-order"})
	if err != nil {
		t.Fatalf("CreateInput: %v", err)
	}
	created, err := cache.CreateSessionMaps(ctx, sessionBatch(in.ID, 1, 2, 3), &types.PlanOutput{
		ResponseJSON: datatypes.JSON(`{"metadata":{"chapter":"c"}}`),
	})
	if err != nil {
		t.Fatalf("CreateSessionMaps: %v", err)
	}
	for i, row := range created {
		if row.ID == 0 || row.SessionNumber != i+1 {
			t.Fatalf("created[%d]: %+v", i, row)
		}
	}

	found, err := cache.FindSessionMaps(ctx, in.ID)
	if err != nil || len(found) != 3 {
		t.Fatalf("FindSessionMaps: err=%v len=%d", err, len(found))
	}
	for i, row := range found {
		if row.ID != created[i].ID {
			t.Fatalf("FindSessionMaps[%d]: want id=%d got=%d", i, created[i].ID, row.ID)
		}
	}
	out, err := cache.FindOutput(ctx, in.ID)
	if err != nil || out == nil || out.InputID != in.ID {
		t.Fatalf("FindOutput: err=%v out=%+v", err, out)
	}
}

func TestLessonPlanCacheCreateSessionMapsRequiresInput(t *testing.T) {
	db := testutil.DB(t)
	cache := newTestCache(t, db, nil)

	_, err := cache.CreateSessionMaps(context.Background(), sessionBatch(4242, 1), nil)
	if !errs.IsCode(err, errs.CodeNotFound) {
		t.Fatalf("expected not_found, got %v", err)
	}
}

func TestLessonPlanCacheSessionContentLifecycle(t *testing.T) {
	db := testutil.DB(t)
	cache := newTestCache(t, db, nil)
	ctx := context.Background()

	in, err := cache.CreateInput(ctx, &types.PlanInput{BoardID: 1, ClassID: 2, SubjectID: 3, ChapterID: 4, PlannedSessions: 1, InputHash: "fp-content"})
	if err != nil {
		t.Fatalf("CreateInput: %v", err)
	}
	created, err := cache.CreateSessionMaps(ctx, sessionBatch(in.ID, 1), nil)
	if err != nil {
		t.Fatalf("CreateSessionMaps: %v", err)
	}
	sessionID := created[0].ID

	if _, err := cache.SetSessionContent(ctx, sessionID, json.RawMessage(`{"script":"x"}`)); !errs.IsCode(err, errs.CodeNotFound) {
		t.Fatalf("SetSessionContent before summary: expected not_found, got %v", err)
	}

	row, err := cache.UpsertSessionSummary(ctx, sessionID, types.SessionSummary{Summary: "first"}, "v1")
	if err != nil {
		t.Fatalf("UpsertSessionSummary: %v", err)
	}
	sum, err := row.Summary()
	if err != nil || sum.Summary != "first" || sum.Objectives == nil {
		t.Fatalf("Summary: err=%v sum=%+v", err, sum)
	}
	if row.HasDetail() {
		t.Fatalf("fresh summary row must not have detail")
	}

	row, err = cache.SetSessionContent(ctx, sessionID, json.RawMessage(`{"script":"x"}`))
	if err != nil {
		t.Fatalf("SetSessionContent: %v", err)
	}
	if string(row.Detail()) != `{"script":"x"}` {
		t.Fatalf("Detail: got %s", row.Detail())
	}

	// Overwriting the summary invalidates the detail built on it.
	row, err = cache.UpsertSessionSummary(ctx, sessionID, types.SessionSummary{Summary: "second", Objectives: []string{"a"}}, "v2")
	if err != nil {
		t.Fatalf("UpsertSessionSummary overwrite: %v", err)
	}
	if row.HasDetail() {
		t.Fatalf("overwritten summary must clear detail")
	}
	if sum, _ := row.Summary(); sum.Summary != "second" || len(sum.Objectives) != 1 {
		t.Fatalf("overwritten summary: %+v", sum)
	}

	all, err := cache.FindSessionContents(ctx, []int64{sessionID})
	if err != nil || all[sessionID] == nil {
		t.Fatalf("FindSessionContents: err=%v all=%+v", err, all)
	}
}

func TestLessonPlanCacheUpsertSummaryUnknownSession(t *testing.T) {
	db := testutil.DB(t)
	cache := newTestCache(t, db, nil)
	ctx := context.Background()

	_, err := cache.UpsertSessionSummary(ctx, 999, types.SessionSummary{Summary: "s"}, "")
	if !errs.IsCode(err, errs.CodeNotFound) {
		t.Fatalf("expected not_found, got %v", err)
	}
	if row, err := cache.FindSessionContent(ctx, 999); err != nil || row != nil {
		t.Fatalf("no row expected: err=%v row=%+v", err, row)
	}
}

func TestLessonPlanCacheDeleteInputCascades(t *testing.T) {
	db := testutil.DB(t)
	cache := newTestCache(t, db, nil)
	ctx := context.Background()

	in, err := cache.CreateInput(ctx, &types.PlanInput{BoardID: 1, ClassID: 2, SubjectID: 3, ChapterID: 4, PlannedSessions: 2, InputHash: "fp-delete"})
	if err != nil {
		t.Fatalf("CreateInput: %v", err)
	}
	created, err := cache.CreateSessionMaps(ctx, sessionBatch(in.ID, 1, 2), &types.PlanOutput{ResponseJSON: datatypes.JSON(`{}`)})
	if err != nil {
		t.Fatalf("CreateSessionMaps: %v", err)
	}
	if _, err := cache.UpsertSessionSummary(ctx, created[0].ID, types.SessionSummary{Summary: "s"}, ""); err != nil {
		t.Fatalf("UpsertSessionSummary: %v", err)
	}

	if err := cache.DeleteInput(ctx, in.ID); err != nil {
		t.Fatalf("DeleteInput: %v", err)
	}
	if got, err := cache.GetInput(ctx, in.ID); err != nil || got != nil {
		t.Fatalf("GetInput after delete: err=%v got=%+v", err, got)
	}
	if n, err := cache.CountSessionMaps(ctx, in.ID); err != nil || n != 0 {
		t.Fatalf("CountSessionMaps after delete: err=%v n=%d", err, n)
	}
	if row, err := cache.FindSessionContent(ctx, created[0].ID); err != nil || row != nil {
		t.Fatalf("FindSessionContent after delete: err=%v row=%+v", err, row)
	}
	if out, err := cache.FindOutput(ctx, in.ID); err != nil || out != nil {
		t.Fatalf("FindOutput after delete: err=%v out=%+v", err, out)
	}
}
