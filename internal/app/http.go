package app

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/codepath-backend/internal/http"
	httpH "github.com/yungbote/codepath-backend/internal/http/handlers"
	httpMW "github.com/yungbote/codepath-backend/internal/http/middleware"
	"github.com/yungbote/codepath-backend/internal/inference/config"
	"github.com/yungbote/codepath-backend/internal/inference/router"
	"github.com/yungbote/codepath-backend/internal/observability"
	"github.com/yungbote/codepath-backend/internal/platform/logger"
)

type Handlers struct {
	Health     *httpH.HealthHandler
	Models     *httpH.ModelsHandler
	Generation *httpH.GenerationHandler
	History    *httpH.HistoryHandler
}

func wireHandlers(log *logger.Logger, metrics *observability.Metrics, rt *router.Router, services Services, storage Storage) Handlers {
	log.Info("Wiring handlers...")
	h := Handlers{
		Health: httpH.NewHealthHandler(storage.readinessChecks()...),
		Models: httpH.NewModelsHandler(rt),
		Generation: httpH.NewGenerationHandlerWithDeps(httpH.GenerationHandlerDeps{
			Log:       log,
			Exercises: services.Exercises,
			Reviews:   services.Reviews,
			Roadmaps:  services.Roadmaps,
			Insights:  services.Insights,
			Chat:      services.Chat,
			Audit:     httpH.NewAuditor(storage.Repos.Generation, rt.DefaultModel(), log, metrics),
		}),
	}
	if storage.Repos.Generation != nil {
		h.History = httpH.NewHistoryHandler(log, storage.Repos.Generation)
	}
	return h
}

func wireRouter(cfg *config.Config, log *logger.Logger, metrics *observability.Metrics, h Handlers) http.RouterConfig {
	log.Info("Wiring router...", "auth_enabled", cfg.Auth.JWTSecret != "")
	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	return http.RouterConfig{
		Log:               log,
		Metrics:           metrics,
		ServiceName:       serviceName,
		CORSOrigins:       cfg.HTTP.CORSOrigins,
		AuthMiddleware:    httpMW.NewAuthMiddleware(log, cfg.Auth.JWTSecret),
		RequestContext:    httpMW.AttachRequestContext(cfg.HTTP.RequestTimeout.Duration, cfg.HTTP.MaxRequestBytes),
		GenerationHandler: h.Generation,
		ModelsHandler:     h.Models,
		HistoryHandler:    h.History,
		HealthHandler:     h.Health,
	}
}
