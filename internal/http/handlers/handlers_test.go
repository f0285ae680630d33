package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/codepath-backend/internal/data/cache"
	"github.com/yungbote/codepath-backend/internal/data/repos"
	"github.com/yungbote/codepath-backend/internal/data/repos/testutil"
	"github.com/yungbote/codepath-backend/internal/inference/engine/mock"
	"github.com/yungbote/codepath-backend/internal/inference/router"
	"github.com/yungbote/codepath-backend/internal/learning/chat"
	"github.com/yungbote/codepath-backend/internal/learning/exercise"
	"github.com/yungbote/codepath-backend/internal/learning/insights"
	"github.com/yungbote/codepath-backend/internal/learning/review"
	"github.com/yungbote/codepath-backend/internal/learning/roadmap"
	"github.com/yungbote/codepath-backend/internal/pkg/dbctx"
	"github.com/yungbote/codepath-backend/internal/platform/ctxutil"
	"github.com/yungbote/codepath-backend/internal/platform/logger"
	"github.com/yungbote/codepath-backend/internal/structured/gateway"
)

type testEnv struct {
	engine *gin.Engine
	mock   *mock.Engine
	repo   repos.GenerationRepo
}

// newTestEnv wires every call-site handler to a mock backend, an in-memory sqlite audit log
// and an in-memory insights cache. learnerID, when set, is attached as if auth had verified it.
func newTestEnv(t *testing.T, learnerID string) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	eng := mock.New()
	rt := router.FromRoutes(router.Route{PublicModel: "mock-1", EngineType: "mock", Engine: eng})
	gen := gateway.New(rt, logger.NewNop(), nil, gateway.Options{})
	repo := repos.New(testutil.DB(t), logger.NewNop()).Generation

	h := NewGenerationHandlerWithDeps(GenerationHandlerDeps{
		Exercises: exercise.NewService(gen),
		Reviews:   review.NewService(gen),
		Roadmaps:  roadmap.NewService(gen),
		Insights:  insights.NewService(gen, cache.NewMemory(0, 0), 0, nil, nil),
		Chat:      chat.NewService(gen),
		Audit:     NewAuditor(repo, rt.DefaultModel(), nil, nil),
	})

	r := gin.New()
	api := r.Group("/api")
	api.Use(func(c *gin.Context) {
		if learnerID != "" {
			ctx := ctxutil.WithRequestData(c.Request.Context(), &ctxutil.RequestData{LearnerID: learnerID})
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	})
	api.POST("/exercises/generate", h.GenerateExercise)
	api.POST("/reviews", h.CreateReview)
	api.POST("/roadmaps/generate", h.GenerateRoadmap)
	api.POST("/insights", h.GetInsights)
	api.POST("/chat", h.Reply)
	api.GET("/generations", NewHistoryHandler(nil, repo).ListGenerations)
	api.GET("/models", NewModelsHandler(rt).ListModels)

	return &testEnv{engine: r, mock: eng, repo: repo}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.engine.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

func errorCode(body map[string]any) string {
	env, _ := body["error"].(map[string]any)
	code, _ := env["code"].(string)
	return code
}

func TestCreateReview_NormalizesAndAudits(t *testing.T) {
	env := newTestEnv(t, "l-1")

	rec, body := env.do(t, http.MethodPost, "/api/reviews", map[string]any{"code": "func Sum() {}", "language": "go"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.EqualValues(t, 88, body["score"])
	comments := body["comments"].([]any)
	require.Len(t, comments, 2)
	assert.Equal(t, []any{float64(1), float64(2)}, comments[0].(map[string]any)["lineRange"])
	assert.Equal(t, "medium", comments[0].(map[string]any)["severity"])
	assert.Equal(t, "low", comments[1].(map[string]any)["severity"])

	rows, err := env.repo.ListByLearner(dbctx.Context{}, repos.GenerationListQuery{LearnerID: "l-1"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, review.CallSite, rows[0].CallSite)
	assert.Equal(t, gateway.OutcomeOK, rows[0].Outcome)
	assert.Equal(t, "mock-1", rows[0].Model)
	assert.NotEmpty(t, rows[0].PromptFingerprint)
	assert.Contains(t, string(rows[0].Result), `"score":88`)
}

func TestGenerate_ErrorMapping(t *testing.T) {
	cases := []struct {
		name    string
		path    string
		body    any
		script  string
		backend error
		status  int
		code    string
		outcome string
	}{
		{name: "missing topic", path: "/api/exercises/generate", body: map[string]any{"language": "go"}, status: http.StatusBadRequest, code: "invalid_request"},
		{name: "unrepairable", path: "/api/exercises/generate", body: map[string]any{"topic": "loops"}, script: "not json at all", status: http.StatusBadGateway, code: "unrepairable_response", outcome: gateway.OutcomeUnrepairable},
		{name: "empty roadmap", path: "/api/roadmaps/generate", body: map[string]any{"goal": "learn go"}, script: `{"title":"x","checkpoints":[]}`, status: http.StatusUnprocessableEntity, code: "validation_error", outcome: gateway.OutcomeInvalid},
		{name: "backend down", path: "/api/chat", body: map[string]any{"message": "help"}, backend: errors.New("rate limited"), status: http.StatusBadGateway, code: "completion_backend_error", outcome: gateway.OutcomeBackendError},
		{name: "unknown model", path: "/api/reviews", body: map[string]any{"code": "x", "model": "gpt-9"}, status: http.StatusBadRequest, code: "unknown_model", outcome: "unknown_model"},
		{name: "bad chat role", path: "/api/chat", body: map[string]any{"message": "hi", "history": []any{map[string]any{"role": "system", "content": "x"}}}, status: http.StatusBadRequest, code: "invalid_request"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t, "l-err")
			if tc.script != "" {
				env.mock.Script(tc.script)
			}
			env.mock.Err = tc.backend

			rec, body := env.do(t, http.MethodPost, tc.path, tc.body)
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
			assert.Equal(t, tc.code, errorCode(body))

			rows, err := env.repo.ListByLearner(dbctx.Context{}, repos.GenerationListQuery{LearnerID: "l-err"})
			require.NoError(t, err)
			if tc.outcome == "" {
				assert.Empty(t, rows)
				return
			}
			require.Len(t, rows, 1)
			assert.Equal(t, tc.outcome, rows[0].Outcome)
			assert.Equal(t, tc.code, rows[0].ErrorCode)
			assert.Empty(t, rows[0].Result)
		})
	}
}

func TestGetInsights_CachesPerLearner(t *testing.T) {
	env := newTestEnv(t, "")
	req := map[string]any{"learnerId": "l-7", "progress": map[string]any{"completedExercises": 4, "averageScore": 71}}

	rec, body := env.do(t, http.MethodPost, "/api/insights", req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, false, body["cached"])
	assert.Equal(t, []any{"Loops", "Slices"}, body["insights"].(map[string]any)["strongPoints"])

	rec, body = env.do(t, http.MethodPost, "/api/insights", req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["cached"])
	assert.Len(t, env.mock.Calls(), 1)

	req["force"] = true
	rec, body = env.do(t, http.MethodPost, "/api/insights", req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, body["cached"])
	assert.Len(t, env.mock.Calls(), 2)

	rec, body = env.do(t, http.MethodPost, "/api/insights", map[string]any{"progress": map[string]any{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_request", errorCode(body))
}

func TestGenerateExercise_And_History(t *testing.T) {
	env := newTestEnv(t, "l-3")

	rec, body := env.do(t, http.MethodPost, "/api/exercises/generate", map[string]any{"topic": "slices", "difficulty": "beginner"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Sum of a slice", body["title"])
	assert.Len(t, body["testCases"], 2)

	rec, body = env.do(t, http.MethodPost, "/api/chat", map[string]any{"message": "why is my sum zero?"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, body["reply"])

	rec, body = env.do(t, http.MethodGet, "/api/generations?callSite=exercise", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	gens := body["generations"].([]any)
	require.Len(t, gens, 1)
	assert.Equal(t, "exercise", gens[0].(map[string]any)["call_site"])

	rec, body = env.do(t, http.MethodGet, "/api/generations", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["generations"], 2)
}

func TestListModels(t *testing.T) {
	env := newTestEnv(t, "")
	rec, body := env.do(t, http.MethodGet, "/api/models", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{"mock-1"}, body["models"])
	assert.Equal(t, "mock-1", body["default"])

	rec, body = env.do(t, http.MethodGet, "/api/generations", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_request", errorCode(body))
}

func TestHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	down := NewHealthHandler(ReadinessCheck{Name: "redis", Check: func(ctx context.Context) error { return errors.New("dial tcp: refused") }})
	up := NewHealthHandler()

	r := gin.New()
	r.GET("/healthcheck", up.HealthCheck)
	r.GET("/readyz", up.Ready)
	r.GET("/readyz-down", down.Ready)

	for path, want := range map[string]int{"/healthcheck": 200, "/readyz": 200, "/readyz-down": 503} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, want, rec.Code, path)
	}
}
