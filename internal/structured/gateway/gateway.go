// Package gateway sends a prompt to the configured completion backend and returns the
// repaired JSON value. It keeps no state between calls.
package gateway

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/codepath-backend/internal/inference/engine"
	"github.com/yungbote/codepath-backend/internal/inference/router"
	"github.com/yungbote/codepath-backend/internal/observability"
	"github.com/yungbote/codepath-backend/internal/platform/logger"
	"github.com/yungbote/codepath-backend/internal/structured/jsonvalue"
	"github.com/yungbote/codepath-backend/internal/structured/repair"
	"github.com/yungbote/codepath-backend/internal/structured/schema"
)

const systemPreamble = "Respond with ONLY a single JSON value conforming to the schema description below. " +
	"No prose, no markdown code fences."

// Outcomes recorded in codepath_generation_total.
const (
	OutcomeOK           = "ok"
	OutcomeBackendError = "backend_error"
	OutcomeUnrepairable = "unrepairable"
	OutcomeInvalid      = "validation_error"
)

type Prompt struct {
	// CallSite names the caller (review, exercise, ...) in logs, metrics and the engine hint.
	CallSite          string
	Instructions      string
	SchemaDescription string
	// Schema is optional. When set, repaired values are checked against it and drift is
	// reported; a non-conforming value is still returned.
	Schema *schema.Schema
	// Model is a public model id; empty selects the router default.
	Model string
}

func (p Prompt) description() string {
	if d := strings.TrimSpace(p.SchemaDescription); d != "" {
		return d
	}
	return p.Schema.JSON()
}

// Generator is what call-site services depend on.
type Generator interface {
	GenerateStructured(ctx context.Context, p Prompt) (jsonvalue.Value, error)
}

type Options struct {
	// LogSchemaDrift enables the advisory schema check.
	LogSchemaDrift bool
}

type Gateway struct {
	router  *router.Router
	log     *logger.Logger
	metrics *observability.Metrics
	opts    Options
}

func New(r *router.Router, log *logger.Logger, metrics *observability.Metrics, opts Options) *Gateway {
	if log == nil {
		log = logger.NewNop()
	}
	return &Gateway{
		router:  r,
		log:     log.With("component", "StructuredGateway"),
		metrics: metrics,
		opts:    opts,
	}
}

// GenerateStructured returns *CompletionBackendError when the backend fails and
// *repair.UnrepairableResponseError when no repair pass yields a value.
func (g *Gateway) GenerateStructured(ctx context.Context, p Prompt) (jsonvalue.Value, error) {
	route, err := g.router.Resolve(p.Model)
	if err != nil {
		return jsonvalue.Value{}, err
	}

	ctx, span := observability.Tracer().Start(ctx, "structured.generate", trace.WithAttributes(
		attribute.String("codepath.call_site", p.CallSite),
		attribute.String("codepath.backend", route.EngineType),
		attribute.String("codepath.model", route.PublicModel),
	))
	defer span.End()

	messages := []engine.Message{
		{Role: engine.RoleSystem, Content: systemPreamble + "\n\n" + p.description()},
		{Role: engine.RoleUser, Content: p.Instructions},
	}
	opts := engine.GenerateOptions{
		Temperature: route.Temperature,
		MaxTokens:   route.MaxTokens,
		JSONSchema:  &engine.JSONSchema{Name: p.CallSite, Schema: p.Schema.Map()},
	}

	start := time.Now()
	text, err := route.Engine.GenerateText(ctx, route.UpstreamModel, messages, opts)
	elapsed := time.Since(start)
	g.metrics.ObserveCompletion(route.EngineType, elapsed)
	if err != nil {
		berr := &CompletionBackendError{Backend: route.EngineType, Model: route.PublicModel, Err: err}
		span.RecordError(berr)
		span.SetStatus(codes.Error, "completion backend")
		g.metrics.IncGeneration(p.CallSite, OutcomeBackendError)
		g.log.Warn("completion backend failed",
			"call_site", p.CallSite,
			"model", route.PublicModel,
			"backend", route.EngineType,
			"duration_ms", elapsed.Milliseconds(),
			"canceled", errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded),
			"error", err,
		)
		return jsonvalue.Value{}, berr
	}

	res, err := repair.Repair(text)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "unrepairable response")
		g.metrics.IncGeneration(p.CallSite, OutcomeUnrepairable)
		g.log.Warn("completion could not be repaired",
			"call_site", p.CallSite,
			"model", route.PublicModel,
			"backend", route.EngineType,
			"completion", text,
			"error", err,
		)
		return jsonvalue.Value{}, err
	}

	span.SetAttributes(attribute.String("codepath.repair_pass", res.Pass.String()))
	g.metrics.IncRepairPass(res.Pass.String())
	g.log.Debug("structured generation",
		"call_site", p.CallSite,
		"model", route.PublicModel,
		"backend", route.EngineType,
		"pass", res.Pass.String(),
		"completion", text,
		"duration_ms", elapsed.Milliseconds(),
	)
	g.checkDrift(p, res.Value)
	return res.Value, nil
}

func (g *Gateway) checkDrift(p Prompt, v jsonvalue.Value) {
	if !g.opts.LogSchemaDrift || p.Schema == nil {
		return
	}
	violations, err := p.Schema.Check(v)
	if err != nil {
		g.log.Warn("schema check failed", "call_site", p.CallSite, "error", err)
		return
	}
	if len(violations) == 0 {
		return
	}
	g.metrics.IncSchemaDrift(p.CallSite)
	first := violations
	if len(first) > 3 {
		first = first[:3]
	}
	g.log.Info("repaired value drifted from schema",
		"call_site", p.CallSite,
		"violations", len(violations),
		"first", strings.Join(first, "; "),
	)
}

func (g *Gateway) recordOutcome(callSite, outcome string) {
	g.metrics.IncGeneration(callSite, outcome)
}

type outcomeRecorder interface {
	recordOutcome(callSite, outcome string)
}

// Run generates a value for p and hands it to post, the call-site post-processor. Call sites
// differ only in the post-processor they pass.
func Run[T any](ctx context.Context, g Generator, p Prompt, post func(jsonvalue.Value) (T, error)) (T, error) {
	var zero T
	v, err := g.GenerateStructured(ctx, p)
	if err != nil {
		return zero, err
	}
	out, err := post(v)
	rec, _ := g.(outcomeRecorder)
	if err != nil {
		if rec != nil {
			rec.recordOutcome(p.CallSite, OutcomeInvalid)
		}
		return zero, err
	}
	if rec != nil {
		rec.recordOutcome(p.CallSite, OutcomeOK)
	}
	return out, nil
}

// Always adapts a post-processor that cannot fail.
func Always[T any](f func(jsonvalue.Value) T) func(jsonvalue.Value) (T, error) {
	return func(v jsonvalue.Value) (T, error) { return f(v), nil }
}
