package aggregates

import (
	"context"

	"github.com/yungbote/lessonplan-backend/internal/data/repos"
	types "github.com/yungbote/lessonplan-backend/internal/domain"
	"github.com/yungbote/lessonplan-backend/internal/domain/curriculum"
	"github.com/yungbote/lessonplan-backend/internal/domain/errs"
	"github.com/yungbote/lessonplan-backend/internal/platform/dbctx"
	"github.com/yungbote/lessonplan-backend/internal/platform/logger"
)

type curriculumLookup struct {
	catalogue repos.CatalogueRepo
	log       *logger.Logger
}

func NewCurriculumLookup(catalogue repos.CatalogueRepo, baseLog *logger.Logger) types.CurriculumLookup {
	return &curriculumLookup{catalogue: catalogue, log: baseLog.With("service", "CurriculumLookup")}
}

func (l *curriculumLookup) ResolveNames(ctx context.Context, boardID, classID, subjectID, chapterID int64) (types.CurriculumNames, error) {
	const op = "Curriculum.ResolveNames"
	var names types.CurriculumNames
	dbc := dbctx.Background(ctx)

	board, err := l.catalogue.GetBoard(dbc, boardID)
	if err != nil {
		return names, MapError(op, err)
	}
	if board == nil {
		return names, errs.NotFound(op, "board not found: %d", boardID)
	}
	class, err := l.catalogue.GetClass(dbc, classID)
	if err != nil {
		return names, MapError(op, err)
	}
	if class == nil {
		return names, errs.NotFound(op, "class not found: %d", classID)
	}
	subject, err := l.catalogue.GetSubject(dbc, subjectID)
	if err != nil {
		return names, MapError(op, err)
	}
	if subject == nil {
		return names, errs.NotFound(op, "subject not found: %d", subjectID)
	}
	chapter, err := l.catalogue.GetChapter(dbc, chapterID)
	if err != nil {
		return names, MapError(op, err)
	}
	if chapter == nil {
		return names, errs.NotFound(op, "chapter not found: %d", chapterID)
	}

	names.Board = board.Name
	names.Class = class.Name
	names.Subject = subject.Name
	names.Chapter = chapter.Title
	return names, nil
}

func (l *curriculumLookup) ChapterKeyPoints(ctx context.Context, chapterID int64) ([]types.KeyPointDetail, error) {
	const op = "Curriculum.ChapterKeyPoints"
	dbc := dbctx.Background(ctx)
	rows, err := l.catalogue.ListKeyPointsByChapter(dbc, chapterID)
	if err != nil {
		return nil, MapError(op, err)
	}
	return l.withContent(dbc, op, rows)
}

func (l *curriculumLookup) KeyPoints(ctx context.Context, ids []types.KeyPointID) ([]types.KeyPointDetail, error) {
	const op = "Curriculum.KeyPoints"
	dbc := dbctx.Background(ctx)
	rows, err := l.catalogue.ListKeyPointsByIDs(dbc, ids)
	if err != nil {
		return nil, MapError(op, err)
	}
	byID := make(map[types.KeyPointID]*types.KeyPoint, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}
	ordered := make([]*types.KeyPoint, 0, len(ids))
	seen := make(map[types.KeyPointID]bool, len(ids))
	for _, id := range ids {
		if kp, ok := byID[id]; ok && !seen[id] {
			seen[id] = true
			ordered = append(ordered, kp)
		}
	}
	return l.withContent(dbc, op, ordered)
}

func (l *curriculumLookup) withContent(dbc dbctx.Context, op string, rows []*types.KeyPoint) ([]types.KeyPointDetail, error) {
	out := make([]types.KeyPointDetail, 0, len(rows))
	if len(rows) == 0 {
		return out, nil
	}
	ids := make([]types.KeyPointID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	contents, err := l.catalogue.ActiveContentByKeyPointIDs(dbc, ids)
	if err != nil {
		return nil, MapError(op, err)
	}
	for _, row := range rows {
		detail := types.KeyPointDetail{
			ID:             row.ID,
			Title:          row.Title,
			Difficulty:     row.DifficultyLevel,
			CognitiveLevel: row.CognitiveLevel,
		}
		if c, ok := contents[row.ID]; ok {
			detail.Content = curriculum.DecodeContent(c.Content)
		}
		out = append(out, detail)
	}
	return out, nil
}
