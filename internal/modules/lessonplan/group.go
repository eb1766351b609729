package lessonplan

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gorm.io/datatypes"

	"github.com/yungbote/lessonplan-backend/internal/clients/generation"
	types "github.com/yungbote/lessonplan-backend/internal/domain"
	"github.com/yungbote/lessonplan-backend/internal/domain/errs"
	"github.com/yungbote/lessonplan-backend/internal/domain/lessonplan"
)

// groupDraft carries a generation response between compute and persist.
type groupDraft struct {
	result *GroupResult
	raw    *generation.GroupResponse
}

func (s *service) newGroupStage() *Stage[PlanRequest, *groupDraft] {
	return &Stage[PlanRequest, *groupDraft]{
		Name:    "group",
		Key:     Fingerprint,
		Lookup:  s.lookupGroup,
		Compute: s.computeGroup,
		Persist: s.persistGroup,
		Locker:  s.locker,
		Log:     s.log,
		Metrics: s.metrics,
	}
}

func (s *service) GroupIntoSessions(ctx context.Context, req PlanRequest) (*GroupResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	draft, fromCache, err := s.group.Run(ctx, req, false)
	if err != nil {
		return nil, err
	}
	out := *draft.result
	out.FromCache = out.FromCache || fromCache
	return &out, nil
}

func (s *service) lookupGroup(ctx context.Context, req PlanRequest) (*groupDraft, bool, error) {
	in, err := s.cache.FindInputByFingerprint(ctx, Fingerprint(req))
	if err != nil || in == nil {
		return nil, false, err
	}
	result, err := s.cachedPlan(ctx, in)
	if err != nil || result == nil {
		return nil, false, err
	}
	return &groupDraft{result: result}, true, nil
}

// cachedPlan rebuilds a plan from its active session maps, or returns nil
// when the input has none.
func (s *service) cachedPlan(ctx context.Context, in *types.PlanInput) (*GroupResult, error) {
	const op = "LessonPlan.GroupIntoSessions"
	maps, err := s.cache.FindSessionMaps(ctx, in.ID)
	if err != nil || len(maps) == 0 {
		return nil, err
	}
	ids := make([]int64, 0, len(maps))
	for _, sm := range maps {
		ids = append(ids, sm.ID)
	}
	contents, err := s.cache.FindSessionContents(ctx, ids)
	if err != nil {
		return nil, err
	}

	result := &GroupResult{
		FromCache: true,
		InputID:   in.ID,
		Sessions:  make([]SessionView, 0, len(maps)),
	}
	for _, sm := range maps {
		view, err := newSessionView(sm, contents[sm.ID])
		if err != nil {
			return nil, errs.Wrap(errs.CodeInternal, op, err)
		}
		result.Sessions = append(result.Sessions, view)
	}
	result.Metadata = s.storedMetadata(ctx, in)
	result.Metadata.TotalSessions = len(result.Sessions)
	result.Metadata.TotalKPs = countKeyPoints(result.Sessions)
	return result, nil
}

// storedMetadata prefers the names recorded with the plan output and falls
// back to the catalogue. Failures only cost the names.
func (s *service) storedMetadata(ctx context.Context, in *types.PlanInput) PlanMetadata {
	var md PlanMetadata
	out, err := s.cache.FindOutput(ctx, in.ID)
	if err == nil && out != nil && len(out.ResponseJSON) > 0 {
		var stored generation.GroupResponse
		if json.Unmarshal(out.ResponseJSON, &stored) == nil {
			md.Chapter = stored.Metadata.Chapter
			md.Subject = stored.Metadata.Subject
			md.Class = stored.Metadata.Class
		}
	}
	if md.Chapter != "" && md.Subject != "" && md.Class != "" {
		return md
	}
	names, err := s.curriculum.ResolveNames(ctx, in.BoardID, in.ClassID, in.SubjectID, in.ChapterID)
	if err != nil {
		s.log.Warn("resolve names for cached plan failed", "input_id", in.ID, "error", err)
		return md
	}
	return PlanMetadata{Chapter: names.Chapter, Subject: names.Subject, Class: names.Class}
}

func (s *service) computeGroup(ctx context.Context, req PlanRequest) (*groupDraft, error) {
	const op = "LessonPlan.GroupIntoSessions"
	names, err := s.curriculum.ResolveNames(ctx, req.BoardID, req.ClassID, req.SubjectID, req.ChapterID)
	if err != nil {
		return nil, err
	}
	kps, err := s.curriculum.ChapterKeyPoints(ctx, req.ChapterID)
	if err != nil {
		return nil, err
	}
	if len(kps) == 0 {
		return nil, errs.NotFound(op, "no key points for chapter %d", req.ChapterID)
	}

	knowledge := make([]generation.KnowledgePoint, 0, len(kps))
	chapterKPs := make(map[types.KeyPointID]struct{}, len(kps))
	for _, kp := range kps {
		chapterKPs[kp.ID] = struct{}{}
		knowledge = append(knowledge, generation.KnowledgePoint{
			KPID:           kp.ID.String(),
			Title:          kp.Title,
			Difficulty:     kp.Difficulty,
			CognitiveLevel: kp.CognitiveLevel,
			Prerequisites:  []string{},
		})
	}

	resp, err := s.gen.GroupIntoSessions(ctx, generation.GroupRequest{
		Board:            names.Board,
		Chapter:          names.Chapter,
		Class:            names.Class,
		Subject:          names.Subject,
		NumberOfSessions: req.PlannedSessions,
		SessionDuration:  s.sessionDuration,
		KnowledgePoints:  knowledge,
	})
	if err != nil {
		return nil, err
	}
	if err := validateGrouping(resp, chapterKPs); err != nil {
		return nil, errs.NewError(errs.CodeGeneration, op, err.Error(), nil)
	}
	if len(resp.Sessions) != req.PlannedSessions {
		s.log.Warn("generation returned a different session count",
			"requested", req.PlannedSessions,
			"returned", len(resp.Sessions),
			"chapter_id", req.ChapterID,
		)
	}

	result := &GroupResult{Sessions: make([]SessionView, 0, len(resp.Sessions))}
	for _, gs := range resp.Sessions {
		result.Sessions = append(result.Sessions, SessionView{
			SessionNumber: gs.SessionNumber,
			SessionTitle:  strings.TrimSpace(gs.SessionTitle),
			KPIDs:         gs.KPIDs,
		})
	}
	result.Metadata = PlanMetadata{
		Chapter:       firstNonEmpty(resp.Metadata.Chapter, names.Chapter),
		Subject:       firstNonEmpty(resp.Metadata.Subject, names.Subject),
		Class:         firstNonEmpty(resp.Metadata.Class, names.Class),
		TotalSessions: len(result.Sessions),
		TotalKPs:      countKeyPoints(result.Sessions),
	}
	resp.Metadata.Chapter = result.Metadata.Chapter
	resp.Metadata.Subject = result.Metadata.Subject
	resp.Metadata.Class = result.Metadata.Class
	return &groupDraft{result: result, raw: resp}, nil
}

func (s *service) persistGroup(ctx context.Context, req PlanRequest, draft *groupDraft) (*groupDraft, error) {
	const op = "LessonPlan.GroupIntoSessions"
	in, created, err := s.ensureInput(ctx, req)
	if err != nil {
		return nil, err
	}

	// Another process may have finished between our lookups.
	if !created {
		cached, err := s.cachedPlan(ctx, in)
		if err != nil {
			return nil, err
		}
		if cached != nil {
			return &groupDraft{result: cached}, nil
		}
	}

	batch := make([]*types.SessionMap, 0, len(draft.result.Sessions))
	for _, sv := range draft.result.Sessions {
		batch = append(batch, &types.SessionMap{
			InputID:       in.ID,
			SessionNumber: sv.SessionNumber,
			SessionTitle:  sv.SessionTitle,
			KPIDs:         lessonplan.EncodeKeyPointIDs(sv.KPIDs),
			IsActive:      true,
			Version:       s.version,
		})
	}
	raw, err := json.Marshal(draft.raw)
	if err != nil {
		return nil, errs.NewError(errs.CodeInternal, op, "encode generation response", err)
	}

	rows, err := s.cache.CreateSessionMaps(ctx, batch, &types.PlanOutput{ResponseJSON: datatypes.JSON(raw)})
	if err != nil {
		// A conflict means another process wrote the plan for this input.
		if errs.IsCode(err, errs.CodeConflict) {
			cached, rerr := s.cachedPlan(ctx, in)
			if rerr == nil && cached != nil {
				s.log.Info("lesson plan written concurrently, serving stored plan",
					"input_id", in.ID,
					"fingerprint", in.InputHash,
				)
				return &groupDraft{result: cached}, nil
			}
		}
		return nil, s.guard.Compensate(ctx, in.ID, created, err)
	}

	result := *draft.result
	result.InputID = in.ID
	result.Sessions = make([]SessionView, len(rows))
	for i, row := range rows {
		sv := draft.result.Sessions[i]
		sv.SessionMapID = row.ID
		result.Sessions[i] = sv
	}
	s.log.Info("lesson plan generated",
		"input_id", in.ID,
		"fingerprint", in.InputHash,
		"sessions", len(rows),
	)
	return &groupDraft{result: &result, raw: draft.raw}, nil
}

// ensureInput returns the input for req and whether this call created it.
// A concurrent insert surfaces as a conflict and is resolved by re-reading.
func (s *service) ensureInput(ctx context.Context, req PlanRequest) (*types.PlanInput, bool, error) {
	const op = "LessonPlan.GroupIntoSessions"
	fp := Fingerprint(req)
	in, err := s.cache.FindInputByFingerprint(ctx, fp)
	if err != nil {
		return nil, false, err
	}
	if in != nil {
		return in, false, nil
	}
	in, err = s.cache.CreateInput(ctx, &types.PlanInput{
		BoardID:         req.BoardID,
		ClassID:         req.ClassID,
		SubjectID:       req.SubjectID,
		ChapterID:       req.ChapterID,
		PlannedSessions: req.PlannedSessions,
		InputHash:       fp,
	})
	if err == nil {
		return in, true, nil
	}
	if !errs.IsCode(err, errs.CodeConflict) {
		return nil, false, err
	}
	in, rerr := s.cache.FindInputByFingerprint(ctx, fp)
	if rerr != nil {
		return nil, false, rerr
	}
	if in == nil {
		return nil, false, errs.NewError(errs.CodePersistence, op, "plan input vanished after conflict", err)
	}
	return in, false, nil
}

// validateGrouping checks that sessions are numbered 1..n without gaps, each
// has key points, and every key point belongs to the chapter.
func validateGrouping(resp *generation.GroupResponse, chapterKPs map[types.KeyPointID]struct{}) error {
	if resp == nil || len(resp.Sessions) == 0 {
		return fmt.Errorf("generation returned no sessions")
	}
	numbers := make([]int, 0, len(resp.Sessions))
	for _, gs := range resp.Sessions {
		if len(gs.KPIDs) == 0 {
			return fmt.Errorf("session %d has no key points", gs.SessionNumber)
		}
		for _, id := range gs.KPIDs {
			if _, ok := chapterKPs[id]; !ok {
				return fmt.Errorf("session %d references unknown key point %s", gs.SessionNumber, id)
			}
		}
		numbers = append(numbers, gs.SessionNumber)
	}
	sort.Ints(numbers)
	for i, n := range numbers {
		if n != i+1 {
			return fmt.Errorf("session numbers must be 1..%d, got %s", len(numbers), joinInts(numbers))
		}
	}
	return nil
}

func joinInts(xs []int) string {
	parts := make([]string, 0, len(xs))
	for _, x := range xs {
		parts = append(parts, strconv.Itoa(x))
	}
	return strings.Join(parts, ",")
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
