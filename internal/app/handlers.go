package app

import (
	"gorm.io/gorm"

	httpH "github.com/yungbote/lessonplan-backend/internal/http/handlers"
	"github.com/yungbote/lessonplan-backend/internal/platform/logger"
)

type Handlers struct {
	LessonPlan *httpH.LessonPlanHandler
	Health     *httpH.HealthHandler
}

func wireHandlers(log *logger.Logger, db *gorm.DB, services Services) Handlers {
	log.Info("Wiring handlers...")
	var pinger httpH.Pinger
	if sqlDB, err := db.DB(); err == nil {
		pinger = sqlDB
	} else {
		log.Warn("readiness check without database", "error", err)
	}
	return Handlers{
		LessonPlan: httpH.NewLessonPlanHandler(services.LessonPlan, log),
		Health:     httpH.NewHealthHandler(pinger),
	}
}
