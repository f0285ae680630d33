package router

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/yungbote/codepath-backend/internal/inference/config"
	"github.com/yungbote/codepath-backend/internal/inference/engine"
	"github.com/yungbote/codepath-backend/internal/inference/engine/claude"
	"github.com/yungbote/codepath-backend/internal/inference/engine/gemini"
	"github.com/yungbote/codepath-backend/internal/inference/engine/mock"
	"github.com/yungbote/codepath-backend/internal/inference/engine/oaihttp"
	"github.com/yungbote/codepath-backend/internal/inference/engine/openaisdk"
)

var ErrUnknownModel = errors.New("unknown model")

type Route struct {
	PublicModel   string
	UpstreamModel string
	EngineType    string
	Temperature   float64
	MaxTokens     int
	Engine        engine.Engine
}

type Router struct {
	routes       map[string]Route
	defaultModel string
}

func New(ctx context.Context, cfg *config.Config) (*Router, error) {
	r := &Router{routes: map[string]Route{}, defaultModel: strings.TrimSpace(cfg.Generation.DefaultModel)}
	for _, m := range cfg.Models {
		id := strings.TrimSpace(m.ID)
		if id == "" {
			return nil, fmt.Errorf("model id required")
		}
		if _, exists := r.routes[id]; exists {
			return nil, fmt.Errorf("duplicate model id: %s", id)
		}

		eng, err := newEngine(ctx, m.Engine)
		if err != nil {
			_ = r.Close()
			return nil, fmt.Errorf("model %q: %w", id, err)
		}

		upstream := strings.TrimSpace(m.UpstreamModel)
		if upstream == "" {
			upstream = id
		}

		r.routes[id] = Route{
			PublicModel:   id,
			UpstreamModel: upstream,
			EngineType:    m.Engine.Type,
			Temperature:   m.Temperature,
			MaxTokens:     m.MaxTokens,
			Engine:        eng,
		}
	}
	if r.defaultModel == "" && len(cfg.Models) > 0 {
		r.defaultModel = strings.TrimSpace(cfg.Models[0].ID)
	}
	if _, ok := r.routes[r.defaultModel]; !ok {
		_ = r.Close()
		return nil, fmt.Errorf("default model %q is not configured", r.defaultModel)
	}
	return r, nil
}

func newEngine(ctx context.Context, ec config.EngineConfig) (engine.Engine, error) {
	switch strings.ToLower(strings.TrimSpace(ec.Type)) {
	case config.EngineMock:
		return mock.New(), nil
	case config.EngineOAIHTTP, "openai_http":
		return oaihttp.New(ec)
	case config.EngineOpenAI:
		return openaisdk.New(ec)
	case config.EngineAnthropic:
		return claude.New(ec)
	case config.EngineGemini:
		return gemini.New(ctx, ec)
	default:
		return nil, fmt.Errorf("unsupported engine type %q", ec.Type)
	}
}

// FromRoutes builds a router around prebuilt routes; the first route is the default.
func FromRoutes(routes ...Route) *Router {
	r := &Router{routes: map[string]Route{}}
	for _, rt := range routes {
		if r.defaultModel == "" {
			r.defaultModel = rt.PublicModel
		}
		if rt.UpstreamModel == "" {
			rt.UpstreamModel = rt.PublicModel
		}
		r.routes[rt.PublicModel] = rt
	}
	return r
}

// ListModels returns public model ids sorted.
func (r *Router) ListModels() []string {
	out := make([]string, 0, len(r.routes))
	for id := range r.routes {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (r *Router) DefaultModel() string { return r.defaultModel }

func (r *Router) RouteForModel(model string) (Route, bool) {
	route, ok := r.routes[strings.TrimSpace(model)]
	return route, ok
}

// Resolve maps an empty model to the default route.
func (r *Router) Resolve(model string) (Route, error) {
	model = strings.TrimSpace(model)
	if model == "" {
		model = r.defaultModel
	}
	route, ok := r.routes[model]
	if !ok {
		return Route{}, fmt.Errorf("%w: %q", ErrUnknownModel, model)
	}
	return route, nil
}

// Close releases engines that hold connections.
func (r *Router) Close() error {
	var errs []error
	for _, rt := range r.routes {
		if c, ok := rt.Engine.(io.Closer); ok {
			errs = append(errs, c.Close())
		}
	}
	return errors.Join(errs...)
}
