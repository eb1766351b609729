package lessonplan

import (
	"context"
	"strconv"
	"strings"

	"github.com/yungbote/lessonplan-backend/internal/clients/generation"
	types "github.com/yungbote/lessonplan-backend/internal/domain"
	"github.com/yungbote/lessonplan-backend/internal/domain/errs"
)

func sessionLockKey(id int64) string {
	return "session:" + strconv.FormatInt(id, 10)
}

func (s *service) newSummaryStage() *Stage[int64, *SummaryResult] {
	return &Stage[int64, *SummaryResult]{
		Name:    "summary",
		Key:     func(id int64) string { return strconv.FormatInt(id, 10) },
		LockKey: sessionLockKey,
		Lookup:  s.lookupSummary,
		Compute: s.computeSummary,
		Persist: s.persistSummary,
		Locker:  s.locker,
		Log:     s.log,
		Metrics: s.metrics,
	}
}

// SummarizeSession returns the stored summary of a session, generating it on
// first use. With force the summary is regenerated and any detailed content
// derived from the previous summary is dropped.
func (s *service) SummarizeSession(ctx context.Context, sessionMapID int64, force bool) (*SummaryResult, error) {
	const op = "LessonPlan.SummarizeSession"
	if sessionMapID <= 0 {
		return nil, errs.Validation(op, "invalid session_map_id %d", sessionMapID)
	}
	if force {
		// Unknown ids must fail before anything is generated.
		if _, err := s.loadSessionMap(ctx, sessionMapID); err != nil {
			return nil, err
		}
	}
	res, fromCache, err := s.summary.Run(ctx, sessionMapID, force)
	if err != nil {
		return nil, err
	}
	out := *res
	out.FromCache = fromCache
	return &out, nil
}

func (s *service) lookupSummary(ctx context.Context, sessionMapID int64) (*SummaryResult, bool, error) {
	sm, err := s.loadSessionMap(ctx, sessionMapID)
	if err != nil {
		return nil, false, err
	}
	content, err := s.cache.FindSessionContent(ctx, sessionMapID)
	if err != nil || !content.HasSummary() {
		return nil, false, err
	}
	summary, err := content.Summary()
	if err != nil {
		return nil, false, errs.Wrap(errs.CodeInternal, "LessonPlan.SummarizeSession", err)
	}
	return summaryResult(sm, summary), true, nil
}

func (s *service) computeSummary(ctx context.Context, sessionMapID int64) (*SummaryResult, error) {
	const op = "LessonPlan.SummarizeSession"
	sm, err := s.loadSessionMap(ctx, sessionMapID)
	if err != nil {
		return nil, err
	}
	names, kps, err := s.sessionInputs(ctx, op, sm)
	if err != nil {
		return nil, err
	}

	knowledge := make([]generation.SummaryKnowledgePoint, 0, len(kps))
	for _, kp := range kps {
		knowledge = append(knowledge, generation.SummaryKnowledgePoint{
			KPID:           kp.ID.String(),
			Title:          kp.Title,
			Difficulty:     kp.Difficulty,
			CognitiveLevel: kp.CognitiveLevel,
		})
	}
	resp, err := s.gen.SummarizeSession(ctx, generation.SummaryRequest{
		Board:           names.Board,
		Chapter:         names.Chapter,
		Class:           names.Class,
		Subject:         names.Subject,
		SessionTitle:    sm.SessionTitle,
		KnowledgePoints: knowledge,
	})
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(resp.Summary) == "" {
		return nil, errs.NewError(errs.CodeGeneration, op, "generation returned an empty summary", nil)
	}
	return summaryResult(sm, types.SessionSummary{Summary: resp.Summary, Objectives: resp.Objectives}), nil
}

func (s *service) persistSummary(ctx context.Context, sessionMapID int64, res *SummaryResult) (*SummaryResult, error) {
	_, err := s.cache.UpsertSessionSummary(ctx, sessionMapID, types.SessionSummary{
		Summary:    res.Summary,
		Objectives: res.Objectives,
	}, s.version)
	if err != nil {
		return nil, err
	}
	s.log.Info("session summary stored", "session_map_id", sessionMapID)
	return res, nil
}

func summaryResult(sm *types.SessionMap, summary types.SessionSummary) *SummaryResult {
	objectives := summary.Objectives
	if objectives == nil {
		objectives = []string{}
	}
	return &SummaryResult{
		SessionMapID:  sm.ID,
		SessionNumber: sm.SessionNumber,
		SessionTitle:  sm.SessionTitle,
		Summary:       summary.Summary,
		Objectives:    objectives,
	}
}

func (s *service) loadSessionMap(ctx context.Context, sessionMapID int64) (*types.SessionMap, error) {
	sm, err := s.cache.GetSessionMap(ctx, sessionMapID)
	if err != nil {
		return nil, err
	}
	if sm == nil {
		return nil, errs.NotFound("LessonPlan.SessionMap", "session map not found: %d", sessionMapID)
	}
	return sm, nil
}

// sessionInputs resolves the hierarchy names and key points a session's
// generation prompts need. Stale key point ids are skipped; none resolving
// is not_found.
func (s *service) sessionInputs(ctx context.Context, op string, sm *types.SessionMap) (types.CurriculumNames, []types.KeyPointDetail, error) {
	var names types.CurriculumNames
	in, err := s.cache.GetInput(ctx, sm.InputID)
	if err != nil {
		return names, nil, err
	}
	if in == nil {
		return names, nil, errs.NotFound(op, "plan input not found: %d", sm.InputID)
	}
	names, err = s.curriculum.ResolveNames(ctx, in.BoardID, in.ClassID, in.SubjectID, in.ChapterID)
	if err != nil {
		return names, nil, err
	}
	ids, err := sm.KeyPointIDs()
	if err != nil {
		return names, nil, errs.Wrap(errs.CodeInternal, op, err)
	}
	kps, err := s.curriculum.KeyPoints(ctx, ids)
	if err != nil {
		return names, nil, err
	}
	if len(kps) == 0 {
		return names, nil, errs.NotFound(op, "no key points resolved for session %d", sm.ID)
	}
	return names, kps, nil
}
