package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/lessonplan-backend/internal/data/repos"
	"github.com/yungbote/lessonplan-backend/internal/platform/logger"
)

type Repos struct {
	Catalogue      repos.CatalogueRepo
	PlanInput      repos.PlanInputRepo
	PlanOutput     repos.PlanOutputRepo
	SessionMap     repos.SessionMapRepo
	SessionContent repos.SessionContentRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Catalogue:      repos.NewCatalogueRepo(db, log),
		PlanInput:      repos.NewPlanInputRepo(db, log),
		PlanOutput:     repos.NewPlanOutputRepo(db, log),
		SessionMap:     repos.NewSessionMapRepo(db, log),
		SessionContent: repos.NewSessionContentRepo(db, log),
	}
}
