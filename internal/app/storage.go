package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	redisclient "github.com/yungbote/codepath-backend/internal/platform/redis"
	"github.com/yungbote/codepath-backend/internal/data/cache"
	"github.com/yungbote/codepath-backend/internal/data/db"
	"github.com/yungbote/codepath-backend/internal/data/repos"
	httpH "github.com/yungbote/codepath-backend/internal/http/handlers"
	"github.com/yungbote/codepath-backend/internal/inference/config"
	"github.com/yungbote/codepath-backend/internal/learning/insights"
	"github.com/yungbote/codepath-backend/internal/platform/logger"
)

// Storage holds the optional persistence layer. DB is nil when no database is configured;
// Insights falls back to an in-process cache when redis is not configured or unreachable.
type Storage struct {
	DB       *db.Service
	Repos    repos.Repos
	Insights insights.Store
	redis    *redisclient.Store
}

func wireStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) (Storage, error) {
	var s Storage

	if cfg.Database.Driver != "" {
		log.Info("Connecting database...", "driver", cfg.Database.Driver)
		svc, err := db.Open(cfg.Database, log)
		if err != nil {
			return Storage{}, fmt.Errorf("init database: %w", err)
		}
		if err := db.AutoMigrateAll(svc.DB()); err != nil {
			_ = svc.Close()
			return Storage{}, fmt.Errorf("database automigrate: %w", err)
		}
		s.DB = svc
		s.Repos = repos.New(svc.DB(), log)
	} else {
		log.Info("No database configured; generation audit log disabled")
	}

	s.Insights = cache.NewMemory(cache.DefaultMemoryEntries, cfg.Generation.InsightsTTL.Duration)
	if strings.TrimSpace(cfg.Redis.Addr) != "" {
		store, err := redisclient.NewStore(ctx, cfg.Redis, log)
		if err != nil {
			log.Warn("redis unavailable; using in-process insights cache", "error", err)
		} else {
			s.redis = store
			s.Insights = store
		}
	}
	return s, nil
}

func (s Storage) readinessChecks() []httpH.ReadinessCheck {
	var checks []httpH.ReadinessCheck
	if s.DB != nil {
		checks = append(checks, httpH.ReadinessCheck{Name: "database", Check: s.DB.Ping})
	}
	if s.redis != nil {
		checks = append(checks, httpH.ReadinessCheck{Name: "redis", Check: s.redis.Ping})
	}
	return checks
}

func (s Storage) Close() error {
	var errs []error
	if s.redis != nil {
		errs = append(errs, s.redis.Close())
	}
	if s.DB != nil {
		errs = append(errs, s.DB.Close())
	}
	return errors.Join(errs...)
}
