package lessonplan

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/yungbote/lessonplan-backend/internal/clients/generation"
	types "github.com/yungbote/lessonplan-backend/internal/domain"
	"github.com/yungbote/lessonplan-backend/internal/domain/errs"
	"github.com/yungbote/lessonplan-backend/internal/platform/keylock"
)

func TestGroupIntoSessionsThreeSessionScenario(t *testing.T) {
	f := newFixture(t)
	svc := f.service(t, nil)
	ctx := context.Background()

	first, err := svc.GroupIntoSessions(ctx, scenarioRequest)
	if err != nil {
		t.Fatalf("GroupIntoSessions: %v", err)
	}
	if first.FromCache {
		t.Fatalf("first call should be a miss")
	}
	if len(first.Sessions) != 3 {
		t.Fatalf("sessions: want=3 got=%d", len(first.Sessions))
	}
	covered := map[types.KeyPointID]bool{}
	for i, s := range first.Sessions {
		if s.SessionNumber != i+1 || s.SessionMapID == 0 {
			t.Fatalf("session %d: %+v", i, s)
		}
		for _, id := range s.KPIDs {
			covered[id] = true
		}
	}
	if len(covered) != len(f.keyPoints) {
		t.Fatalf("key points covered: want=%d got=%d", len(f.keyPoints), len(covered))
	}
	if first.Metadata.TotalSessions != 3 || first.Metadata.TotalKPs != 6 || first.Metadata.Chapter != "Nutrition in Plants" {
		t.Fatalf("unexpected metadata: %+v", first.Metadata)
	}
	if n := countRows(t, f.db, &types.SessionMap{}); n != 3 {
		t.Fatalf("session map rows: want=3 got=%d", n)
	}
	if n := countRows(t, f.db, &types.PlanOutput{}); n != 1 {
		t.Fatalf("plan output rows: want=1 got=%d", n)
	}

	gr := f.gen.groupReqs[0]
	if gr.Board != "CBSE-1" || gr.Class != "Class 7" || gr.Subject != "Science" || gr.NumberOfSessions != 3 || gr.SessionDuration != DefaultSessionDuration {
		t.Fatalf("unexpected generation request: %+v", gr)
	}
	if len(gr.KnowledgePoints) != 6 || gr.KnowledgePoints[0].KPID != f.keyPoints[0].ID.String() {
		t.Fatalf("unexpected knowledge points: %+v", gr.KnowledgePoints)
	}

	second, err := svc.GroupIntoSessions(ctx, scenarioRequest)
	if err != nil {
		t.Fatalf("second GroupIntoSessions: %v", err)
	}
	if !second.FromCache {
		t.Fatalf("second call should be a hit")
	}
	if got := f.gen.groupCalls.Load(); got != 1 {
		t.Fatalf("generation calls: want=1 got=%d", got)
	}
	if second.InputID != first.InputID || len(second.Sessions) != len(first.Sessions) {
		t.Fatalf("hit differs: first=%+v second=%+v", first, second)
	}
	for i := range first.Sessions {
		a, b := first.Sessions[i], second.Sessions[i]
		if a.SessionMapID != b.SessionMapID || a.SessionNumber != b.SessionNumber || a.SessionTitle != b.SessionTitle || len(a.KPIDs) != len(b.KPIDs) {
			t.Fatalf("session %d differs: %+v vs %+v", i, a, b)
		}
		for j := range a.KPIDs {
			if a.KPIDs[j] != b.KPIDs[j] {
				t.Fatalf("session %d kp order differs: %v vs %v", i, a.KPIDs, b.KPIDs)
			}
		}
		if b.Summary != nil || b.IsDetailedContentAvailable {
			t.Fatalf("session %d should not be summarized yet: %+v", i, b)
		}
	}
	if second.Metadata != first.Metadata {
		t.Fatalf("metadata differs: %+v vs %+v", first.Metadata, second.Metadata)
	}
}

func TestGroupIntoSessionsPreservesGeneratedOrder(t *testing.T) {
	f := newFixture(t)
	kp := f.keyPoints
	f.gen.groupFn = func(req generation.GroupRequest) (*generation.GroupResponse, error) {
		return &generation.GroupResponse{Sessions: []generation.GroupedSession{
			{SessionNumber: 1, SessionTitle: "Light", KPIDs: []types.KeyPointID{kp[2].ID, kp[0].ID}},
			{SessionNumber: 2, SessionTitle: "Feeding", KPIDs: []types.KeyPointID{kp[5].ID, kp[1].ID, kp[4].ID, kp[3].ID}},
		}}, nil
	}
	req := scenarioRequest
	req.PlannedSessions = 2

	res, err := f.service(t, nil).GroupIntoSessions(context.Background(), req)
	if err != nil {
		t.Fatalf("GroupIntoSessions: %v", err)
	}
	want := []types.KeyPointID{kp[5].ID, kp[1].ID, kp[4].ID, kp[3].ID}
	for i, id := range res.Sessions[1].KPIDs {
		if id != want[i] {
			t.Fatalf("kp order: want=%v got=%v", want, res.Sessions[1].KPIDs)
		}
	}
	if res.Sessions[0].SessionTitle != "Light" {
		t.Fatalf("title: %+v", res.Sessions[0])
	}
}

func TestGroupIntoSessionsValidation(t *testing.T) {
	f := newFixture(t)
	_, err := f.service(t, nil).GroupIntoSessions(context.Background(), PlanRequest{BoardID: 1})
	mustCode(t, err, errs.CodeValidation)
	if f.gen.groupCalls.Load() != 0 {
		t.Fatalf("generation must not be called for invalid requests")
	}
}

func TestGroupIntoSessionsUnknownHierarchy(t *testing.T) {
	f := newFixture(t)
	req := scenarioRequest
	req.ChapterID = 99

	_, err := f.service(t, nil).GroupIntoSessions(context.Background(), req)
	mustCode(t, err, errs.CodeNotFound)
	if f.gen.groupCalls.Load() != 0 {
		t.Fatalf("generation must not be called")
	}
	if n := countRows(t, f.db, &types.PlanInput{}); n != 0 {
		t.Fatalf("plan input rows: want=0 got=%d", n)
	}
}

func TestGroupIntoSessionsRejectsInvalidGrouping(t *testing.T) {
	cases := map[string][]generation.GroupedSession{
		"empty":         {},
		"gap":           {{SessionNumber: 1, SessionTitle: "a", KPIDs: []types.KeyPointID{1}}, {SessionNumber: 3, SessionTitle: "b", KPIDs: []types.KeyPointID{2}}},
		"duplicate":     {{SessionNumber: 1, SessionTitle: "a", KPIDs: []types.KeyPointID{1}}, {SessionNumber: 1, SessionTitle: "b", KPIDs: []types.KeyPointID{2}}},
		"no key points": {{SessionNumber: 1, SessionTitle: "a"}},
		"foreign kp id": {{SessionNumber: 1, SessionTitle: "a", KPIDs: []types.KeyPointID{999}}},
	}
	for name, sessions := range cases {
		sessions := sessions
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			f.gen.groupFn = func(generation.GroupRequest) (*generation.GroupResponse, error) {
				return &generation.GroupResponse{Sessions: sessions}, nil
			}
			_, err := f.service(t, nil).GroupIntoSessions(context.Background(), scenarioRequest)
			mustCode(t, err, errs.CodeGeneration)
			if n := countRows(t, f.db, &types.PlanInput{}); n != 0 {
				t.Fatalf("plan input rows: want=0 got=%d", n)
			}
		})
	}
}

func TestGroupIntoSessionsGenerationFailurePersistsNothing(t *testing.T) {
	f := newFixture(t)
	f.gen.err = errs.NewError(errs.CodeGeneration, "Generation.group", "model overloaded", nil)

	_, err := f.service(t, nil).GroupIntoSessions(context.Background(), scenarioRequest)
	mustCode(t, err, errs.CodeGeneration)
	if n := countRows(t, f.db, &types.PlanInput{}); n != 0 {
		t.Fatalf("plan input rows: want=0 got=%d", n)
	}
}

func TestGroupIntoSessionsRemovesOrphanInput(t *testing.T) {
	f := newFixture(t)
	cache := &faultyCache{
		CacheRepository:    f.cache,
		failCreateSessions: errs.NewError(errs.CodePersistence, "test", "disk full", nil),
	}

	_, err := f.service(t, cache).GroupIntoSessions(context.Background(), scenarioRequest)
	mustCode(t, err, errs.CodePersistence)

	in, err := f.cache.FindInputByFingerprint(context.Background(), Fingerprint(scenarioRequest))
	if err != nil {
		t.Fatalf("FindInputByFingerprint: %v", err)
	}
	if in != nil {
		t.Fatalf("orphan plan input left behind: %+v", in)
	}
	if got := f.metrics.StageCount("group", string(errs.CodePersistence)); got != 1 {
		t.Fatalf("stage error metric: want=1 got=%v", got)
	}
}

func TestGroupIntoSessionsKeepsPreexistingInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	prior, err := f.cache.CreateInput(ctx, &types.PlanInput{
		BoardID: 1, ClassID: 2, SubjectID: 3, ChapterID: 4, PlannedSessions: 3,
		InputHash: Fingerprint(scenarioRequest),
	})
	if err != nil {
		t.Fatalf("CreateInput: %v", err)
	}
	cache := &faultyCache{
		CacheRepository:    f.cache,
		failCreateSessions: errs.NewError(errs.CodePersistence, "test", "disk full", nil),
	}

	_, err = f.service(t, cache).GroupIntoSessions(ctx, scenarioRequest)
	mustCode(t, err, errs.CodePersistence)
	in, err := f.cache.GetInput(ctx, prior.ID)
	if err != nil || in == nil {
		t.Fatalf("pre-existing input must survive: in=%+v err=%v", in, err)
	}

	// A later attempt reuses the input instead of creating a new one.
	res, err := f.service(t, nil).GroupIntoSessions(ctx, scenarioRequest)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if res.InputID != prior.ID || res.FromCache {
		t.Fatalf("retry: want miss on input %d, got %+v", prior.ID, res)
	}
}

func TestGroupIntoSessionsGuardFailureIsJoined(t *testing.T) {
	f := newFixture(t)
	cause := errs.NewError(errs.CodePersistence, "test", "disk full", nil)
	deleteErr := errors.New("connection reset")
	cache := &faultyCache{CacheRepository: f.cache, failCreateSessions: cause, failDelete: deleteErr}

	_, err := f.service(t, cache).GroupIntoSessions(context.Background(), scenarioRequest)
	if !errors.Is(err, cause) || !errors.Is(err, deleteErr) {
		t.Fatalf("want joined cause and guard error, got %v", err)
	}
	mustCode(t, err, errs.CodePersistence)
}

func TestGroupIntoSessionsConcurrentCallersGenerateOnce(t *testing.T) {
	f := newFixture(t)
	f.gen.delay = 50 * time.Millisecond
	svc := f.service(t, nil)

	const callers = 6
	var wg sync.WaitGroup
	inputIDs := make([]int64, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := svc.GroupIntoSessions(context.Background(), scenarioRequest)
			if err != nil {
				t.Errorf("caller %d: %v", i, err)
				return
			}
			inputIDs[i] = res.InputID
		}(i)
	}
	wg.Wait()

	if got := f.gen.groupCalls.Load(); got != 1 {
		t.Fatalf("generation calls: want=1 got=%d", got)
	}
	for i, id := range inputIDs {
		if id != inputIDs[0] {
			t.Fatalf("caller %d saw input %d, want %d", i, id, inputIDs[0])
		}
	}
	if n := countRows(t, f.db, &types.SessionMap{}); n != 3 {
		t.Fatalf("session map rows: want=3 got=%d", n)
	}
}

func TestGroupIntoSessionsSharedLockAcrossServices(t *testing.T) {
	f := newFixture(t)
	f.gen.delay = 30 * time.Millisecond
	// Two services model two processes sharing a database and a lock.
	a := f.service(t, nil)
	b := f.service(t, nil)

	var wg sync.WaitGroup
	for _, svc := range []Service{a, b} {
		wg.Add(1)
		go func(svc Service) {
			defer wg.Done()
			if _, err := svc.GroupIntoSessions(context.Background(), scenarioRequest); err != nil {
				t.Errorf("GroupIntoSessions: %v", err)
			}
		}(svc)
	}
	wg.Wait()
	if got := f.gen.groupCalls.Load(); got != 1 {
		t.Fatalf("generation calls: want=1 got=%d", got)
	}
	if n := countRows(t, f.db, &types.SessionMap{}); n != 3 {
		t.Fatalf("session map rows: want=3 got=%d", n)
	}
}

func TestGroupIntoSessionsServesPlanWrittenByOtherProcess(t *testing.T) {
	f := newFixture(t)
	f.gen.delay = 50 * time.Millisecond
	// Separate lockers: nothing serializes the two callers except the database.
	slow := &faultyCache{CacheRepository: f.cache, createDelay: 150 * time.Millisecond}
	a := f.serviceWithLocker(t, slow, keylock.NewLocal())
	b := f.serviceWithLocker(t, f.cache, keylock.NewLocal())

	var (
		wg         sync.WaitGroup
		resA, resB *GroupResult
		errA, errB error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		resA, errA = a.GroupIntoSessions(context.Background(), scenarioRequest)
	}()
	go func() {
		defer wg.Done()
		resB, errB = b.GroupIntoSessions(context.Background(), scenarioRequest)
	}()
	wg.Wait()

	if errA != nil || errB != nil {
		t.Fatalf("GroupIntoSessions: errA=%v errB=%v", errA, errB)
	}
	if got := f.gen.groupCalls.Load(); got != 2 {
		t.Fatalf("generation calls: want=2 got=%d", got)
	}
	if n := countRows(t, f.db, &types.SessionMap{}); n != 3 {
		t.Fatalf("session map rows: want=3 got=%d", n)
	}
	if n := countRows(t, f.db, &types.PlanInput{}); n != 1 {
		t.Fatalf("plan input rows: want=1 got=%d", n)
	}
	if !resA.FromCache {
		t.Fatalf("slower caller should be served the stored plan")
	}
	if resA.InputID != resB.InputID || len(resA.Sessions) != len(resB.Sessions) {
		t.Fatalf("plans differ: a=%+v b=%+v", resA, resB)
	}
	for i := range resB.Sessions {
		if resA.Sessions[i].SessionMapID != resB.Sessions[i].SessionMapID {
			t.Fatalf("session %d: a=%d b=%d", i, resA.Sessions[i].SessionMapID, resB.Sessions[i].SessionMapID)
		}
	}
}
