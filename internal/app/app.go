package app

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	httpserver "github.com/yungbote/codepath-backend/internal/http"
	"github.com/yungbote/codepath-backend/internal/inference/config"
	"github.com/yungbote/codepath-backend/internal/inference/router"
	"github.com/yungbote/codepath-backend/internal/observability"
	"github.com/yungbote/codepath-backend/internal/platform/logger"
)

const serviceName = "codepath-backend"

// Version is stamped at build time with -ldflags.
var Version = "dev"

type App struct {
	Log     *logger.Logger
	Cfg     *config.Config
	Metrics *observability.Metrics
	Router  *router.Router
	Storage Storage
	Server  *httpserver.Server

	otelShutdown func(context.Context) error
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(cfg.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	otelShutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: serviceName,
		Environment: cfg.Env,
		Version:     Version,
	})
	metrics := observability.Init()

	log.Info("Building model routes...", "models", len(cfg.Models), "default_model", cfg.Generation.DefaultModel)
	rt, err := router.New(ctx, cfg)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init router: %w", err)
	}

	storage, err := wireStorage(ctx, cfg, log)
	if err != nil {
		_ = rt.Close()
		log.Sync()
		return nil, err
	}

	services := wireServices(cfg, log, metrics, rt, storage)
	handlers := wireHandlers(log, metrics, rt, services, storage)
	server := httpserver.NewServer(httpserver.ServerConfig{
		Addr:              cfg.HTTP.Addr,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout.Duration,
		IdleTimeout:       cfg.HTTP.IdleTimeout.Duration,
	}, wireRouter(cfg, log, metrics, handlers))

	return &App{
		Log:          log,
		Cfg:          cfg,
		Metrics:      metrics,
		Router:       rt,
		Storage:      storage,
		Server:       server,
		otelShutdown: otelShutdown,
	}, nil
}

// Run serves until ctx is cancelled, then drains in-flight requests within the shutdown timeout.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return errors.New("app not initialized")
	}
	a.Log.Info("HTTP server listening", "addr", a.Cfg.HTTP.Addr)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(a.Server.Run)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Cfg.HTTP.ShutdownTimeout.Duration)
		defer cancel()
		a.Log.Info("HTTP server shutting down")
		return a.Server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (a *App) Close() {
	if a == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), a.Cfg.HTTP.ShutdownTimeout.Duration)
	defer cancel()
	if a.otelShutdown != nil {
		if err := a.otelShutdown(ctx); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
	}
	if err := a.Storage.Close(); err != nil {
		a.Log.Warn("storage close failed", "error", err)
	}
	if a.Router != nil {
		if err := a.Router.Close(); err != nil {
			a.Log.Warn("engine close failed", "error", err)
		}
	}
	a.Log.Sync()
}
