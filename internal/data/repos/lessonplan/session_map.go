package lessonplan

import (
	"gorm.io/gorm"

	types "github.com/yungbote/lessonplan-backend/internal/domain"
	"github.com/yungbote/lessonplan-backend/internal/platform/dbctx"
	"github.com/yungbote/lessonplan-backend/internal/platform/logger"
)

type SessionMapRepo interface {
	Create(dbc dbctx.Context, rows []*types.SessionMap) ([]*types.SessionMap, error)
	GetByID(dbc dbctx.Context, id int64) (*types.SessionMap, error)
	GetActiveByInputID(dbc dbctx.Context, inputID int64) ([]*types.SessionMap, error)
	CountByInputID(dbc dbctx.Context, inputID int64) (int64, error)
	IDsByInputIDs(dbc dbctx.Context, inputIDs []int64) ([]int64, error)
	DeleteByInputIDs(dbc dbctx.Context, inputIDs []int64) error
}

type sessionMapRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSessionMapRepo(db *gorm.DB, baseLog *logger.Logger) SessionMapRepo {
	return &sessionMapRepo{db: db, log: baseLog.With("repo", "SessionMapRepo")}
}

// Create inserts rows one statement per row, in slice order, so ids are
// assigned in the order the caller supplied.
func (r *sessionMapRepo) Create(dbc dbctx.Context, rows []*types.SessionMap) ([]*types.SessionMap, error) {
	if len(rows) == 0 {
		return []*types.SessionMap{}, nil
	}
	if err := dbc.DB(r.db).CreateInBatches(&rows, 1).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *sessionMapRepo) GetByID(dbc dbctx.Context, id int64) (*types.SessionMap, error) {
	if id <= 0 {
		return nil, nil
	}
	var rows []*types.SessionMap
	if err := dbc.DB(r.db).
		Where("id = ?", id).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *sessionMapRepo) GetActiveByInputID(dbc dbctx.Context, inputID int64) ([]*types.SessionMap, error) {
	var out []*types.SessionMap
	if inputID <= 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("input_id = ? AND is_active = ?", inputID, true).
		Order("session_number ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *sessionMapRepo) CountByInputID(dbc dbctx.Context, inputID int64) (int64, error) {
	var n int64
	if inputID <= 0 {
		return 0, nil
	}
	if err := dbc.DB(r.db).
		Model(&types.SessionMap{}).
		Where("input_id = ?", inputID).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *sessionMapRepo) IDsByInputIDs(dbc dbctx.Context, inputIDs []int64) ([]int64, error) {
	var ids []int64
	if len(inputIDs) == 0 {
		return ids, nil
	}
	if err := dbc.DB(r.db).
		Model(&types.SessionMap{}).
		Where("input_id IN ?", inputIDs).
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *sessionMapRepo) DeleteByInputIDs(dbc dbctx.Context, inputIDs []int64) error {
	if len(inputIDs) == 0 {
		return nil
	}
	return dbc.DB(r.db).
		Where("input_id IN ?", inputIDs).
		Delete(&types.SessionMap{}).Error
}
