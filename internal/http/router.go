package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/lessonplan-backend/internal/http/handlers"
	httpMW "github.com/yungbote/lessonplan-backend/internal/http/middleware"
	"github.com/yungbote/lessonplan-backend/internal/observability"
	"github.com/yungbote/lessonplan-backend/internal/platform/logger"
)

const metricsPath = "/metrics"

type RouterConfig struct {
	LessonPlanHandler *httpH.LessonPlanHandler
	HealthHandler     *httpH.HealthHandler

	Metrics     *observability.Metrics
	Log         *logger.Logger
	CORS        httpMW.CORSConfig
	ServiceName string
	// Tracing enables the otel gin middleware.
	Tracing bool
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.Tracing {
		name := cfg.ServiceName
		if name == "" {
			name = "lessonplan-backend"
		}
		r.Use(otelgin.Middleware(name))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics, metricsPath))
	r.Use(httpMW.CORS(cfg.CORS))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}
	if cfg.Metrics != nil {
		r.GET(metricsPath, gin.WrapF(cfg.Metrics.WriteHTTP))
	}

	api := r.Group("/api")
	{
		// Lesson plans
		if cfg.LessonPlanHandler != nil {
			plans := api.Group("/lesson-plans")
			plans.POST("/group-into-sessions", cfg.LessonPlanHandler.GroupIntoSessions)
			plans.POST("/session-summary", cfg.LessonPlanHandler.SessionSummary)
			plans.POST("/session-detailed", cfg.LessonPlanHandler.SessionDetailed)
			plans.GET("/sessions/:id", cfg.LessonPlanHandler.GetSession)
		}
	}

	return r
}
