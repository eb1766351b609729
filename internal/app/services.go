package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/lessonplan-backend/internal/data/aggregates"
	"github.com/yungbote/lessonplan-backend/internal/modules/lessonplan"
	"github.com/yungbote/lessonplan-backend/internal/observability"
	"github.com/yungbote/lessonplan-backend/internal/platform/logger"
)

type Services struct {
	Cache      lessonplan.CacheRepository
	Curriculum lessonplan.CurriculumLookup
	LessonPlan lessonplan.Service
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, reposet Repos, clients Clients, metrics *observability.Metrics) Services {
	log.Info("Wiring services...")

	store := aggregates.StoreDeps{
		DB:       db,
		Log:      log,
		Observer: aggregates.MetricsObserver(metrics),
	}
	cache := aggregates.NewLessonPlanCache(aggregates.LessonPlanCacheDeps{
		Store:    store,
		Inputs:   reposet.PlanInput,
		Outputs:  reposet.PlanOutput,
		Sessions: reposet.SessionMap,
		Contents: reposet.SessionContent,
	})
	curriculum := aggregates.NewCurriculumLookup(reposet.Catalogue, log)

	svc := lessonplan.NewService(lessonplan.ServiceDeps{
		Cache:           cache,
		Curriculum:      curriculum,
		Generation:      clients.Generation,
		Locker:          clients.Locker,
		Log:             log,
		Metrics:         metrics,
		SessionDuration: cfg.SessionDuration,
		SchemaVersion:   cfg.SchemaVersion,
	})

	return Services{
		Cache:      cache,
		Curriculum: curriculum,
		LessonPlan: svc,
	}
}
