package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/codepath-backend/internal/http/handlers"
	httpMW "github.com/yungbote/codepath-backend/internal/http/middleware"
	"github.com/yungbote/codepath-backend/internal/observability"
	"github.com/yungbote/codepath-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	Metrics     *observability.Metrics
	ServiceName string
	CORSOrigins []string

	AuthMiddleware *httpMW.AuthMiddleware
	RequestContext gin.HandlerFunc

	GenerationHandler *httpH.GenerationHandler
	ModelsHandler     *httpH.ModelsHandler
	HistoryHandler    *httpH.HistoryHandler
	HealthHandler     *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := r.Group("/api")
	{
		if cfg.ModelsHandler != nil {
			api.GET("/models", cfg.ModelsHandler.ListModels)
		}
	}

	protected := api.Group("/")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}
		if cfg.RequestContext != nil {
			protected.Use(cfg.RequestContext)
		}

		// Call sites
		if cfg.GenerationHandler != nil {
			protected.POST("/exercises/generate", cfg.GenerationHandler.GenerateExercise)
			protected.POST("/reviews", cfg.GenerationHandler.CreateReview)
			protected.POST("/roadmaps/generate", cfg.GenerationHandler.GenerateRoadmap)
			protected.POST("/insights", cfg.GenerationHandler.GetInsights)
			protected.POST("/chat", cfg.GenerationHandler.Reply)
		}

		// Audit history
		if cfg.HistoryHandler != nil {
			protected.GET("/generations", cfg.HistoryHandler.ListGenerations)
		}
	}

	return r
}
