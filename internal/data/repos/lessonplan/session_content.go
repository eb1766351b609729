package lessonplan

import (
	"gorm.io/gorm"

	types "github.com/yungbote/lessonplan-backend/internal/domain"
	"github.com/yungbote/lessonplan-backend/internal/platform/dbctx"
	"github.com/yungbote/lessonplan-backend/internal/platform/logger"
)

type SessionContentRepo interface {
	Create(dbc dbctx.Context, row *types.SessionContent) (*types.SessionContent, error)
	GetBySessionID(dbc dbctx.Context, sessionID int64) (*types.SessionContent, error)
	GetBySessionIDs(dbc dbctx.Context, sessionIDs []int64) ([]*types.SessionContent, error)
	UpdateFieldsBySessionID(dbc dbctx.Context, sessionID int64, updates map[string]interface{}) (int64, error)
	DeleteBySessionIDs(dbc dbctx.Context, sessionIDs []int64) error
}

type sessionContentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSessionContentRepo(db *gorm.DB, baseLog *logger.Logger) SessionContentRepo {
	return &sessionContentRepo{db: db, log: baseLog.With("repo", "SessionContentRepo")}
}

func (r *sessionContentRepo) Create(dbc dbctx.Context, row *types.SessionContent) (*types.SessionContent, error) {
	if row == nil {
		return nil, nil
	}
	if err := dbc.DB(r.db).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *sessionContentRepo) GetBySessionID(dbc dbctx.Context, sessionID int64) (*types.SessionContent, error) {
	if sessionID <= 0 {
		return nil, nil
	}
	var rows []*types.SessionContent
	if err := dbc.DB(r.db).
		Where("session_id = ?", sessionID).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *sessionContentRepo) GetBySessionIDs(dbc dbctx.Context, sessionIDs []int64) ([]*types.SessionContent, error) {
	var out []*types.SessionContent
	if len(sessionIDs) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("session_id IN ?", sessionIDs).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateFieldsBySessionID returns the number of rows touched so callers can
// tell a missing row from a successful update.
func (r *sessionContentRepo) UpdateFieldsBySessionID(dbc dbctx.Context, sessionID int64, updates map[string]interface{}) (int64, error) {
	if sessionID <= 0 || len(updates) == 0 {
		return 0, nil
	}
	res := dbc.DB(r.db).
		Model(&types.SessionContent{}).
		Where("session_id = ?", sessionID).
		Updates(updates)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *sessionContentRepo) DeleteBySessionIDs(dbc dbctx.Context, sessionIDs []int64) error {
	if len(sessionIDs) == 0 {
		return nil
	}
	return dbc.DB(r.db).
		Where("session_id IN ?", sessionIDs).
		Delete(&types.SessionContent{}).Error
}
