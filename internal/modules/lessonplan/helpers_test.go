package lessonplan

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/lessonplan-backend/internal/clients/generation"
	"github.com/yungbote/lessonplan-backend/internal/data/aggregates"
	"github.com/yungbote/lessonplan-backend/internal/data/repos"
	"github.com/yungbote/lessonplan-backend/internal/data/repos/testutil"
	types "github.com/yungbote/lessonplan-backend/internal/domain"
	"github.com/yungbote/lessonplan-backend/internal/domain/curriculum"
	"github.com/yungbote/lessonplan-backend/internal/domain/errs"
	"github.com/yungbote/lessonplan-backend/internal/observability"
	"github.com/yungbote/lessonplan-backend/internal/platform/keylock"
)

var scenarioRequest = PlanRequest{BoardID: 1, ClassID: 2, SubjectID: 3, ChapterID: 4, PlannedSessions: 3}

type fakeGeneration struct {
	mu          sync.Mutex
	groupReqs   []generation.GroupRequest
	summaryReqs []generation.SummaryRequest
	detailReqs  []generation.DetailRequest

	groupCalls   atomic.Int32
	summaryCalls atomic.Int32
	detailCalls  atomic.Int32

	delay   time.Duration
	groupFn func(req generation.GroupRequest) (*generation.GroupResponse, error)
	summary string
	err     error
}

func (f *fakeGeneration) GroupIntoSessions(ctx context.Context, req generation.GroupRequest) (*generation.GroupResponse, error) {
	f.groupCalls.Add(1)
	f.mu.Lock()
	f.groupReqs = append(f.groupReqs, req)
	f.mu.Unlock()
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.groupFn != nil {
		return f.groupFn(req)
	}
	return splitEvenly(req), nil
}

func (f *fakeGeneration) SummarizeSession(ctx context.Context, req generation.SummaryRequest) (*generation.SummaryResponse, error) {
	n := f.summaryCalls.Add(1)
	f.mu.Lock()
	f.summaryReqs = append(f.summaryReqs, req)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	summary := f.summary
	if summary == "" {
		summary = fmt.Sprintf("summary of %s #%d", req.SessionTitle, n)
	}
	return &generation.SummaryResponse{Summary: summary, Objectives: []string{"explain", "apply"}}, nil
}

func (f *fakeGeneration) DetailSession(ctx context.Context, req generation.DetailRequest) (*generation.DetailResponse, error) {
	n := f.detailCalls.Add(1)
	f.mu.Lock()
	f.detailReqs = append(f.detailReqs, req)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	raw, _ := json.Marshal(map[string]any{
		"teaching_script": "script for " + req.Title,
		"board_work":      []string{"diagram"},
		"call":            n,
	})
	return &generation.DetailResponse{Content: raw}, nil
}

// splitEvenly groups the request's key points into contiguous sessions.
func splitEvenly(req generation.GroupRequest) *generation.GroupResponse {
	n := req.NumberOfSessions
	if n > len(req.KnowledgePoints) {
		n = len(req.KnowledgePoints)
	}
	resp := &generation.GroupResponse{Metadata: generation.GroupMetadata{
		Chapter:       req.Chapter,
		Subject:       req.Subject,
		Class:         req.Class,
		TotalSessions: n,
		TotalKPs:      len(req.KnowledgePoints),
	}}
	per := (len(req.KnowledgePoints) + n - 1) / n
	for i := 0; i < n; i++ {
		gs := generation.GroupedSession{SessionNumber: i + 1, SessionTitle: fmt.Sprintf("Part %d", i+1)}
		for j := i * per; j < (i+1)*per && j < len(req.KnowledgePoints); j++ {
			id, _ := curriculum.ParseKeyPointID(req.KnowledgePoints[j].KPID)
			gs.KPIDs = append(gs.KPIDs, id)
		}
		resp.Sessions = append(resp.Sessions, gs)
	}
	return resp
}

// faultyCache injects failures into selected cache writes.
type faultyCache struct {
	CacheRepository
	failCreateSessions error
	failDelete         error
	createDelay        time.Duration
}

func (c *faultyCache) CreateSessionMaps(ctx context.Context, batch []*types.SessionMap, output *types.PlanOutput) ([]*types.SessionMap, error) {
	if c.createDelay > 0 {
		time.Sleep(c.createDelay)
	}
	if c.failCreateSessions != nil {
		return nil, c.failCreateSessions
	}
	return c.CacheRepository.CreateSessionMaps(ctx, batch, output)
}

func (c *faultyCache) DeleteInput(ctx context.Context, inputID int64) error {
	if c.failDelete != nil {
		return c.failDelete
	}
	return c.CacheRepository.DeleteInput(ctx, inputID)
}

type fixture struct {
	db         *gorm.DB
	cache      CacheRepository
	curriculum CurriculumLookup
	gen        *fakeGeneration
	metrics    *observability.Metrics
	locker     keylock.Locker
	keyPoints  []*types.KeyPoint
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	ctx := context.Background()

	testutil.SeedCurriculum(t, ctx, db, testutil.CurriculumIDs{Board: 1, Class: 2, Subject: 3, Chapter: 4})
	f := &fixture{
		db: db,
		cache: aggregates.NewLessonPlanCache(aggregates.LessonPlanCacheDeps{
			Store:    aggregates.StoreDeps{DB: db, Log: log},
			Inputs:   repos.NewPlanInputRepo(db, log),
			Outputs:  repos.NewPlanOutputRepo(db, log),
			Sessions: repos.NewSessionMapRepo(db, log),
			Contents: repos.NewSessionContentRepo(db, log),
		}),
		curriculum: aggregates.NewCurriculumLookup(repos.NewCatalogueRepo(db, log), log),
		gen:        &fakeGeneration{},
		metrics:    observability.New(),
		locker:     keylock.NewLocal(),
	}
	for _, title := range []string{"Photosynthesis", "Chlorophyll", "Stomata", "Parasitic plants", "Saprotrophs", "Symbiosis"} {
		f.keyPoints = append(f.keyPoints, testutil.SeedKeyPoint(t, ctx, db, 4, title))
	}
	testutil.SeedKeyPointContent(t, ctx, db, f.keyPoints[0].ID, map[string]any{"description": "Plants make food from light."})
	testutil.SeedKeyPointContent(t, ctx, db, f.keyPoints[1].ID, map[string]any{"explanation": "Green pigment."})
	return f
}

func (f *fixture) service(t *testing.T, cache CacheRepository) Service {
	t.Helper()
	if cache == nil {
		cache = f.cache
	}
	return NewService(ServiceDeps{
		Cache:      cache,
		Curriculum: f.curriculum,
		Generation: f.gen,
		Locker:     f.locker,
		Log:        testutil.Logger(t),
		Metrics:    f.metrics,
	})
}

// serviceWithLocker builds a service with its own locker, as a separate
// process would have.
func (f *fixture) serviceWithLocker(t *testing.T, cache CacheRepository, locker keylock.Locker) Service {
	t.Helper()
	return NewService(ServiceDeps{
		Cache:      cache,
		Curriculum: f.curriculum,
		Generation: f.gen,
		Locker:     locker,
		Log:        testutil.Logger(t),
		Metrics:    f.metrics,
	})
}

func countRows(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	if err := db.Model(model).Count(&n).Error; err != nil {
		t.Fatalf("count %T: %v", model, err)
	}
	return n
}

func mustCode(t *testing.T, err error, code errs.Code) {
	t.Helper()
	if !errs.IsCode(err, code) {
		t.Fatalf("want %s error, got %v", code, err)
	}
}
