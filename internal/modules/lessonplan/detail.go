package lessonplan

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/yungbote/lessonplan-backend/internal/clients/generation"
	"github.com/yungbote/lessonplan-backend/internal/domain/errs"
)

func (s *service) newDetailStage() *Stage[int64, *DetailResult] {
	return &Stage[int64, *DetailResult]{
		Name:    "detail",
		Key:     func(id int64) string { return strconv.FormatInt(id, 10) },
		LockKey: sessionLockKey,
		Lookup:  s.lookupDetail,
		Compute: s.computeDetail,
		Persist: s.persistDetail,
		Locker:  s.locker,
		Log:     s.log,
		Metrics: s.metrics,
	}
}

// DetailSession returns the detailed content of a session. The session must
// have been summarized first; otherwise the call is not_found.
func (s *service) DetailSession(ctx context.Context, sessionID int64) (*DetailResult, error) {
	const op = "LessonPlan.DetailSession"
	if sessionID <= 0 {
		return nil, errs.Validation(op, "invalid session_id %d", sessionID)
	}
	res, fromCache, err := s.detail.Run(ctx, sessionID, false)
	if err != nil {
		return nil, err
	}
	out := *res
	out.FromCache = fromCache
	return &out, nil
}

func (s *service) lookupDetail(ctx context.Context, sessionID int64) (*DetailResult, bool, error) {
	const op = "LessonPlan.DetailSession"
	content, err := s.cache.FindSessionContent(ctx, sessionID)
	if err != nil {
		return nil, false, err
	}
	if content == nil {
		return nil, false, errs.NotFound(op, "session content not found: %d", sessionID)
	}
	if !content.HasDetail() {
		return nil, false, nil
	}
	return &DetailResult{SessionID: sessionID, Content: content.Detail()}, true, nil
}

func (s *service) computeDetail(ctx context.Context, sessionID int64) (*DetailResult, error) {
	const op = "LessonPlan.DetailSession"
	content, err := s.cache.FindSessionContent(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !content.HasSummary() {
		return nil, errs.NotFound(op, "session %d has not been summarized", sessionID)
	}
	summary, err := content.Summary()
	if err != nil {
		return nil, errs.Wrap(errs.CodeInternal, op, err)
	}
	sm, err := s.loadSessionMap(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	names, kps, err := s.sessionInputs(ctx, op, sm)
	if err != nil {
		return nil, err
	}

	kpList := make([]generation.DetailKeyPoint, 0, len(kps))
	for _, kp := range kps {
		kpList = append(kpList, generation.DetailKeyPoint{Title: kp.Title, Description: kp.Description()})
	}
	resp, err := s.gen.DetailSession(ctx, generation.DetailRequest{
		SubjectName: names.Subject,
		ClassName:   names.Class,
		Title:       sm.SessionTitle,
		Duration:    s.sessionDuration,
		Summary:     summary.Summary,
		Objectives:  summary.Objectives,
		KPList:      kpList,
	})
	if err != nil {
		return nil, err
	}
	return &DetailResult{SessionID: sessionID, Content: json.RawMessage(resp.Content)}, nil
}

func (s *service) persistDetail(ctx context.Context, sessionID int64, res *DetailResult) (*DetailResult, error) {
	row, err := s.cache.SetSessionContent(ctx, sessionID, res.Content)
	if err != nil {
		return nil, err
	}
	s.log.Info("session detail stored", "session_id", sessionID)
	return &DetailResult{SessionID: sessionID, Content: row.Detail()}, nil
}
