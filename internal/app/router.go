package app

import (
	httpserver "github.com/yungbote/lessonplan-backend/internal/http"
	"github.com/yungbote/lessonplan-backend/internal/observability"
	"github.com/yungbote/lessonplan-backend/internal/platform/logger"
)

func wireServer(log *logger.Logger, cfg Config, handlers Handlers, metrics *observability.Metrics) *httpserver.Server {
	log.Info("Wiring router...")
	return httpserver.NewServer(httpserver.RouterConfig{
		LessonPlanHandler: handlers.LessonPlan,
		HealthHandler:     handlers.Health,
		Metrics:           metrics,
		Log:               log,
		CORS:              cfg.CORS,
		ServiceName:       cfg.ServiceName,
		Tracing:           cfg.Tracing.Enabled,
	})
}
