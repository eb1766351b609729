package lessonplan

import (
	"strings"

	"gorm.io/gorm"

	types "github.com/yungbote/lessonplan-backend/internal/domain"
	"github.com/yungbote/lessonplan-backend/internal/platform/dbctx"
	"github.com/yungbote/lessonplan-backend/internal/platform/logger"
)

type PlanInputRepo interface {
	Create(dbc dbctx.Context, input *types.PlanInput) (*types.PlanInput, error)
	GetByID(dbc dbctx.Context, id int64) (*types.PlanInput, error)
	GetByHash(dbc dbctx.Context, inputHash string) (*types.PlanInput, error)
	DeleteByIDs(dbc dbctx.Context, ids []int64) error
}

type planInputRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPlanInputRepo(db *gorm.DB, baseLog *logger.Logger) PlanInputRepo {
	return &planInputRepo{db: db, log: baseLog.With("repo", "PlanInputRepo")}
}

func (r *planInputRepo) Create(dbc dbctx.Context, input *types.PlanInput) (*types.PlanInput, error) {
	if input == nil {
		return nil, nil
	}
	if err := dbc.DB(r.db).Create(input).Error; err != nil {
		return nil, err
	}
	return input, nil
}

func (r *planInputRepo) GetByID(dbc dbctx.Context, id int64) (*types.PlanInput, error) {
	if id <= 0 {
		return nil, nil
	}
	var rows []*types.PlanInput
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

func (r *planInputRepo) GetByHash(dbc dbctx.Context, inputHash string) (*types.PlanInput, error) {
	inputHash = strings.TrimSpace(inputHash)
	if inputHash == "" {
		return nil, nil
	}
	var rows []*types.PlanInput
	if err := dbc.DB(r.db).
		Where("input_hash = ?", inputHash).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *planInputRepo) DeleteByIDs(dbc dbctx.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	return dbc.DB(r.db).
		Where("id IN ?", ids).
		Delete(&types.PlanInput{}).Error
}
