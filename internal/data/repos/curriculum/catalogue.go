package curriculum

import (
	"gorm.io/gorm"

	types "github.com/yungbote/lessonplan-backend/internal/domain"
	"github.com/yungbote/lessonplan-backend/internal/platform/dbctx"
	"github.com/yungbote/lessonplan-backend/internal/platform/logger"
)

// CatalogueRepo reads the board/class/subject/chapter/key-point hierarchy.
// Getters return nil, nil when the row does not exist.
type CatalogueRepo interface {
	GetBoard(dbc dbctx.Context, id int64) (*types.Board, error)
	GetClass(dbc dbctx.Context, id int64) (*types.Class, error)
	GetSubject(dbc dbctx.Context, id int64) (*types.Subject, error)
	GetChapter(dbc dbctx.Context, id int64) (*types.Chapter, error)
	ListKeyPointsByChapter(dbc dbctx.Context, chapterID int64) ([]*types.KeyPoint, error)
	ListKeyPointsByIDs(dbc dbctx.Context, ids []types.KeyPointID) ([]*types.KeyPoint, error)
	ActiveContentByKeyPointIDs(dbc dbctx.Context, ids []types.KeyPointID) (map[types.KeyPointID]*types.KeyPointContent, error)
}

type catalogueRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCatalogueRepo(db *gorm.DB, baseLog *logger.Logger) CatalogueRepo {
	return &catalogueRepo{db: db, log: baseLog.With("repo", "CatalogueRepo")}
}

func firstByID[T any](db *gorm.DB, id int64) (*T, error) {
	if id <= 0 {
		return nil, nil
	}
	var rows []*T
	if err := db.Where("id = ?", id).Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *catalogueRepo) GetBoard(dbc dbctx.Context, id int64) (*types.Board, error) {
	return firstByID[types.Board](dbc.DB(r.db), id)
}

func (r *catalogueRepo) GetClass(dbc dbctx.Context, id int64) (*types.Class, error) {
	return firstByID[types.Class](dbc.DB(r.db), id)
}

func (r *catalogueRepo) GetSubject(dbc dbctx.Context, id int64) (*types.Subject, error) {
	return firstByID[types.Subject](dbc.DB(r.db), id)
}

func (r *catalogueRepo) GetChapter(dbc dbctx.Context, id int64) (*types.Chapter, error) {
	return firstByID[types.Chapter](dbc.DB(r.db), id)
}

func (r *catalogueRepo) ListKeyPointsByChapter(dbc dbctx.Context, chapterID int64) ([]*types.KeyPoint, error) {
	var out []*types.KeyPoint
	if chapterID <= 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("chapter_id = ?", chapterID).
		Order("id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *catalogueRepo) ListKeyPointsByIDs(dbc dbctx.Context, ids []types.KeyPointID) ([]*types.KeyPoint, error) {
	var out []*types.KeyPoint
	if len(ids) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("id IN ?", ids).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ActiveContentByKeyPointIDs returns the newest active content row per key
// point. Key points without active content are absent from the map.
func (r *catalogueRepo) ActiveContentByKeyPointIDs(dbc dbctx.Context, ids []types.KeyPointID) (map[types.KeyPointID]*types.KeyPointContent, error) {
	out := map[types.KeyPointID]*types.KeyPointContent{}
	if len(ids) == 0 {
		return out, nil
	}
	var rows []*types.KeyPointContent
	if err := dbc.DB(r.db).
		Where("key_point_id IN ? AND is_active = ?", ids, true).
		Order("id DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		if _, seen := out[row.KeyPointID]; !seen {
			out[row.KeyPointID] = row
		}
	}
	return out, nil
}
