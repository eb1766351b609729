package aggregates

import (
	"context"
	"encoding/json"

	"gorm.io/datatypes"

	"github.com/yungbote/lessonplan-backend/internal/data/repos"
	types "github.com/yungbote/lessonplan-backend/internal/domain"
	"github.com/yungbote/lessonplan-backend/internal/domain/errs"
	"github.com/yungbote/lessonplan-backend/internal/platform/dbctx"
)

type LessonPlanCacheDeps struct {
	Store StoreDeps

	Inputs   repos.PlanInputRepo
	Outputs  repos.PlanOutputRepo
	Sessions repos.SessionMapRepo
	Contents repos.SessionContentRepo
}

type lessonPlanCache struct {
	deps LessonPlanCacheDeps
}

func NewLessonPlanCache(deps LessonPlanCacheDeps) types.CacheRepository {
	deps.Store = deps.Store.normalized()
	return &lessonPlanCache{deps: deps}
}

func (a *lessonPlanCache) FindInputByFingerprint(ctx context.Context, fingerprint string) (*types.PlanInput, error) {
	const op = "LessonPlan.Cache.FindInputByFingerprint"
	in, err := a.deps.Inputs.GetByHash(dbctx.Background(ctx), fingerprint)
	return in, MapError(op, err)
}

func (a *lessonPlanCache) GetInput(ctx context.Context, inputID int64) (*types.PlanInput, error) {
	const op = "LessonPlan.Cache.GetInput"
	in, err := a.deps.Inputs.GetByID(dbctx.Background(ctx), inputID)
	return in, MapError(op, err)
}

func (a *lessonPlanCache) FindOutput(ctx context.Context, inputID int64) (*types.PlanOutput, error) {
	const op = "LessonPlan.Cache.FindOutput"
	out, err := a.deps.Outputs.GetByInputID(dbctx.Background(ctx), inputID)
	return out, MapError(op, err)
}

func (a *lessonPlanCache) FindSessionMaps(ctx context.Context, inputID int64) ([]*types.SessionMap, error) {
	const op = "LessonPlan.Cache.FindSessionMaps"
	rows, err := a.deps.Sessions.GetActiveByInputID(dbctx.Background(ctx), inputID)
	return rows, MapError(op, err)
}

func (a *lessonPlanCache) CountSessionMaps(ctx context.Context, inputID int64) (int64, error) {
	const op = "LessonPlan.Cache.CountSessionMaps"
	n, err := a.deps.Sessions.CountByInputID(dbctx.Background(ctx), inputID)
	return n, MapError(op, err)
}

func (a *lessonPlanCache) GetSessionMap(ctx context.Context, sessionID int64) (*types.SessionMap, error) {
	const op = "LessonPlan.Cache.GetSessionMap"
	row, err := a.deps.Sessions.GetByID(dbctx.Background(ctx), sessionID)
	return row, MapError(op, err)
}

func (a *lessonPlanCache) FindSessionContent(ctx context.Context, sessionID int64) (*types.SessionContent, error) {
	const op = "LessonPlan.Cache.FindSessionContent"
	row, err := a.deps.Contents.GetBySessionID(dbctx.Background(ctx), sessionID)
	return row, MapError(op, err)
}

func (a *lessonPlanCache) FindSessionContents(ctx context.Context, sessionIDs []int64) (map[int64]*types.SessionContent, error) {
	const op = "LessonPlan.Cache.FindSessionContents"
	rows, err := a.deps.Contents.GetBySessionIDs(dbctx.Background(ctx), sessionIDs)
	if err != nil {
		return nil, MapError(op, err)
	}
	out := make(map[int64]*types.SessionContent, len(rows))
	for _, row := range rows {
		out[row.SessionID] = row
	}
	return out, nil
}

func (a *lessonPlanCache) CreateInput(ctx context.Context, input *types.PlanInput) (*types.PlanInput, error) {
	const op = "LessonPlan.Cache.CreateInput"
	if input == nil || input.InputHash == "" {
		return nil, errs.Validation(op, "missing input fingerprint")
	}
	var out *types.PlanInput
	err := a.deps.Store.write(ctx, op, func(dbc dbctx.Context) error {
		created, err := a.deps.Inputs.Create(dbc, input)
		if err != nil {
			return err
		}
		out = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (a *lessonPlanCache) CreateSessionMaps(ctx context.Context, batch []*types.SessionMap, output *types.PlanOutput) ([]*types.SessionMap, error) {
	const op = "LessonPlan.Cache.CreateSessionMaps"
	if len(batch) == 0 {
		return nil, errs.Validation(op, "empty session batch")
	}
	inputID := batch[0].InputID
	for _, row := range batch {
		if row == nil || row.InputID <= 0 || row.InputID != inputID {
			return nil, errs.Validation(op, "session batch must belong to one input")
		}
	}

	var out []*types.SessionMap
	err := a.deps.Store.write(ctx, op, func(dbc dbctx.Context) error {
		in, err := a.deps.Inputs.GetByID(dbc, inputID)
		if err != nil {
			return err
		}
		if in == nil {
			return errs.NotFound(op, "plan input not found: %d", inputID)
		}
		created, err := a.deps.Sessions.Create(dbc, batch)
		if err != nil {
			return err
		}
		if output != nil {
			output.InputID = inputID
			if _, err := a.deps.Outputs.Create(dbc, output); err != nil {
				return err
			}
		}
		out = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (a *lessonPlanCache) UpsertSessionSummary(ctx context.Context, sessionID int64, summary types.SessionSummary, version string) (*types.SessionContent, error) {
	const op = "LessonPlan.Cache.UpsertSessionSummary"
	if summary.Objectives == nil {
		summary.Objectives = []string{}
	}
	raw, err := json.Marshal(summary)
	if err != nil {
		return nil, errs.NewError(errs.CodeInternal, op, "encode session summary", err)
	}

	var out *types.SessionContent
	err = a.deps.Store.write(ctx, op, func(dbc dbctx.Context) error {
		sm, err := a.deps.Sessions.GetByID(dbc, sessionID)
		if err != nil {
			return err
		}
		if sm == nil {
			return errs.NotFound(op, "session map not found: %d", sessionID)
		}
		existing, err := a.deps.Contents.GetBySessionID(dbc, sessionID)
		if err != nil {
			return err
		}
		if existing == nil {
			created, err := a.deps.Contents.Create(dbc, &types.SessionContent{
				SessionID:          sessionID,
				SessionSummaryJSON: datatypes.JSON(raw),
				Version:            version,
			})
			if err != nil {
				return err
			}
			out = created
			return nil
		}
		// Detail derived from the previous summary is stale once it changes.
		if _, err := a.deps.Contents.UpdateFieldsBySessionID(dbc, sessionID, map[string]interface{}{
			"session_summary": datatypes.JSON(raw),
			"session_content": nil,
			"version":         version,
		}); err != nil {
			return err
		}
		out, err = a.deps.Contents.GetBySessionID(dbc, sessionID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (a *lessonPlanCache) SetSessionContent(ctx context.Context, sessionID int64, content json.RawMessage) (*types.SessionContent, error) {
	const op = "LessonPlan.Cache.SetSessionContent"
	if len(content) == 0 || string(content) == "null" {
		return nil, errs.Validation(op, "empty session content")
	}
	if !json.Valid(content) {
		return nil, errs.Validation(op, "session content is not valid JSON")
	}

	var out *types.SessionContent
	err := a.deps.Store.write(ctx, op, func(dbc dbctx.Context) error {
		existing, err := a.deps.Contents.GetBySessionID(dbc, sessionID)
		if err != nil {
			return err
		}
		if existing == nil {
			return errs.NotFound(op, "session content not found: %d", sessionID)
		}
		if !existing.HasSummary() {
			return errs.Validation(op, "session %d has no summary", sessionID)
		}
		n, err := a.deps.Contents.UpdateFieldsBySessionID(dbc, sessionID, map[string]interface{}{
			"session_content": datatypes.JSON(content),
		})
		if err != nil {
			return err
		}
		if n == 0 {
			return errs.NotFound(op, "session content not found: %d", sessionID)
		}
		out, err = a.deps.Contents.GetBySessionID(dbc, sessionID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (a *lessonPlanCache) DeleteInput(ctx context.Context, inputID int64) error {
	const op = "LessonPlan.Cache.DeleteInput"
	if inputID <= 0 {
		return errs.Validation(op, "invalid input id %d", inputID)
	}
	return a.deps.Store.write(ctx, op, func(dbc dbctx.Context) error {
		ids := []int64{inputID}
		sessionIDs, err := a.deps.Sessions.IDsByInputIDs(dbc, ids)
		if err != nil {
			return err
		}
		if err := a.deps.Contents.DeleteBySessionIDs(dbc, sessionIDs); err != nil {
			return err
		}
		if err := a.deps.Sessions.DeleteByInputIDs(dbc, ids); err != nil {
			return err
		}
		if err := a.deps.Outputs.DeleteByInputIDs(dbc, ids); err != nil {
			return err
		}
		return a.deps.Inputs.DeleteByIDs(dbc, ids)
	})
}
