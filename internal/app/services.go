package app

import (
	"github.com/yungbote/codepath-backend/internal/inference/config"
	"github.com/yungbote/codepath-backend/internal/inference/router"
	"github.com/yungbote/codepath-backend/internal/learning/chat"
	"github.com/yungbote/codepath-backend/internal/learning/exercise"
	"github.com/yungbote/codepath-backend/internal/learning/insights"
	"github.com/yungbote/codepath-backend/internal/learning/review"
	"github.com/yungbote/codepath-backend/internal/learning/roadmap"
	"github.com/yungbote/codepath-backend/internal/observability"
	"github.com/yungbote/codepath-backend/internal/platform/logger"
	"github.com/yungbote/codepath-backend/internal/structured/gateway"
)

type Services struct {
	Gateway   *gateway.Gateway
	Exercises *exercise.Service
	Reviews   *review.Service
	Roadmaps  *roadmap.Service
	Insights  *insights.Service
	Chat      *chat.Service
}

func wireServices(cfg *config.Config, log *logger.Logger, metrics *observability.Metrics, rt *router.Router, storage Storage) Services {
	log.Info("Wiring services...")
	gen := gateway.New(rt, log, metrics, gateway.Options{LogSchemaDrift: cfg.Generation.LogSchemaDrift})
	return Services{
		Gateway:   gen,
		Exercises: exercise.NewService(gen),
		Reviews:   review.NewService(gen),
		Roadmaps:  roadmap.NewService(gen),
		Insights:  insights.NewService(gen, storage.Insights, cfg.Generation.InsightsTTL.Duration, log, metrics),
		Chat:      chat.NewService(gen),
	}
}
