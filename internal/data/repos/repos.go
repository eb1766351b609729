package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/lessonplan-backend/internal/data/repos/curriculum"
	"github.com/yungbote/lessonplan-backend/internal/data/repos/lessonplan"
	"github.com/yungbote/lessonplan-backend/internal/platform/logger"
)

type CatalogueRepo = curriculum.CatalogueRepo

type PlanInputRepo = lessonplan.PlanInputRepo
type PlanOutputRepo = lessonplan.PlanOutputRepo
type SessionMapRepo = lessonplan.SessionMapRepo
type SessionContentRepo = lessonplan.SessionContentRepo

func NewCatalogueRepo(db *gorm.DB, baseLog *logger.Logger) CatalogueRepo {
	return curriculum.NewCatalogueRepo(db, baseLog)
}

func NewPlanInputRepo(db *gorm.DB, baseLog *logger.Logger) PlanInputRepo {
	return lessonplan.NewPlanInputRepo(db, baseLog)
}
func NewPlanOutputRepo(db *gorm.DB, baseLog *logger.Logger) PlanOutputRepo {
	return lessonplan.NewPlanOutputRepo(db, baseLog)
}
func NewSessionMapRepo(db *gorm.DB, baseLog *logger.Logger) SessionMapRepo {
	return lessonplan.NewSessionMapRepo(db, baseLog)
}
func NewSessionContentRepo(db *gorm.DB, baseLog *logger.Logger) SessionContentRepo {
	return lessonplan.NewSessionContentRepo(db, baseLog)
}
