package lessonplan

import (
	"context"
	"strings"

	"github.com/yungbote/lessonplan-backend/internal/domain/errs"
	"github.com/yungbote/lessonplan-backend/internal/observability"
	"github.com/yungbote/lessonplan-backend/internal/platform/keylock"
	"github.com/yungbote/lessonplan-backend/internal/platform/logger"
)

const (
	DefaultSessionDuration = "40 minutes"
	DefaultSchemaVersion   = "v1"
)

type Service interface {
	GroupIntoSessions(ctx context.Context, req PlanRequest) (*GroupResult, error)
	SummarizeSession(ctx context.Context, sessionMapID int64, force bool) (*SummaryResult, error)
	DetailSession(ctx context.Context, sessionID int64) (*DetailResult, error)
	GetSession(ctx context.Context, sessionMapID int64) (*SessionDetail, error)
}

type ServiceDeps struct {
	Cache      CacheRepository
	Curriculum CurriculumLookup
	Generation GenerationClient

	// Locker defaults to an in-process lock.
	Locker  keylock.Locker
	Log     *logger.Logger
	Metrics *observability.Metrics

	SessionDuration string
	SchemaVersion   string
}

type service struct {
	cache      CacheRepository
	curriculum CurriculumLookup
	gen        GenerationClient
	locker     keylock.Locker
	log        *logger.Logger
	metrics    *observability.Metrics
	guard      ConsistencyGuard

	sessionDuration string
	version         string

	group   *Stage[PlanRequest, *groupDraft]
	summary *Stage[int64, *SummaryResult]
	detail  *Stage[int64, *DetailResult]
}

func NewService(deps ServiceDeps) Service {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	log = log.With("service", "LessonPlanService")
	locker := deps.Locker
	if locker == nil {
		locker = keylock.NewLocal()
	}
	duration := strings.TrimSpace(deps.SessionDuration)
	if duration == "" {
		duration = DefaultSessionDuration
	}
	version := strings.TrimSpace(deps.SchemaVersion)
	if version == "" {
		version = DefaultSchemaVersion
	}

	s := &service{
		cache:           deps.Cache,
		curriculum:      deps.Curriculum,
		gen:             deps.Generation,
		locker:          locker,
		log:             log,
		metrics:         deps.Metrics,
		guard:           ConsistencyGuard{Cache: deps.Cache, Log: log, Metrics: deps.Metrics},
		sessionDuration: duration,
		version:         version,
	}
	s.group = s.newGroupStage()
	s.summary = s.newSummaryStage()
	s.detail = s.newDetailStage()
	return s
}

// GetSession reads a session and whatever stages 2 and 3 have cached for it.
// It never calls the generation service.
func (s *service) GetSession(ctx context.Context, sessionMapID int64) (*SessionDetail, error) {
	const op = "LessonPlan.GetSession"
	if sessionMapID <= 0 {
		return nil, errs.Validation(op, "invalid session id %d", sessionMapID)
	}
	sm, err := s.loadSessionMap(ctx, sessionMapID)
	if err != nil {
		return nil, err
	}
	content, err := s.cache.FindSessionContent(ctx, sessionMapID)
	if err != nil {
		return nil, err
	}
	view, err := newSessionView(sm, content)
	if err != nil {
		return nil, errs.Wrap(errs.CodeInternal, op, err)
	}
	return &SessionDetail{
		SessionView: view,
		InputID:     sm.InputID,
		Content:     content.Detail(),
	}, nil
}
