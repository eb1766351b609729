package lessonplan

import (
	"gorm.io/gorm"

	types "github.com/yungbote/lessonplan-backend/internal/domain"
	"github.com/yungbote/lessonplan-backend/internal/platform/dbctx"
	"github.com/yungbote/lessonplan-backend/internal/platform/logger"
)

type PlanOutputRepo interface {
	Create(dbc dbctx.Context, output *types.PlanOutput) (*types.PlanOutput, error)
	GetByInputID(dbc dbctx.Context, inputID int64) (*types.PlanOutput, error)
	DeleteByInputIDs(dbc dbctx.Context, inputIDs []int64) error
}

type planOutputRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPlanOutputRepo(db *gorm.DB, baseLog *logger.Logger) PlanOutputRepo {
	return &planOutputRepo{db: db, log: baseLog.With("repo", "PlanOutputRepo")}
}

func (r *planOutputRepo) Create(dbc dbctx.Context, output *types.PlanOutput) (*types.PlanOutput, error) {
	if output == nil {
		return nil, nil
	}
	if err := dbc.DB(r.db).Create(output).Error; err != nil {
		return nil, err
	}
	return output, nil
}

func (r *planOutputRepo) GetByInputID(dbc dbctx.Context, inputID int64) (*types.PlanOutput, error) {
	if inputID <= 0 {
		return nil, nil
	}
	var rows []*types.PlanOutput
	if err := dbc.DB(r.db).
		Where("input_id = ?", inputID).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *planOutputRepo) DeleteByInputIDs(dbc dbctx.Context, inputIDs []int64) error {
	if len(inputIDs) == 0 {
		return nil
	}
	return dbc.DB(r.db).
		Where("input_id IN ?", inputIDs).
		Delete(&types.PlanOutput{}).Error
}
