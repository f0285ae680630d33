package router

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/codepath-backend/internal/inference/config"
	"github.com/yungbote/codepath-backend/internal/inference/engine/mock"
)

func TestNew_BuildsRoutes(t *testing.T) {
	cfg := &config.Config{
		Generation: config.GenerationConfig{DefaultModel: "local"},
		Models: []config.ModelConfig{
			{ID: "mock-1", Engine: config.EngineConfig{Type: config.EngineMock}},
			{ID: "local", UpstreamModel: "qwen2.5", Temperature: 0.3, MaxTokens: 1000, Engine: config.EngineConfig{Type: config.EngineOAIHTTP, BaseURL: "http://vllm"}},
			{ID: "gpt", Engine: config.EngineConfig{Type: config.EngineOpenAI, APIKey: "sk"}},
			{ID: "claude", Engine: config.EngineConfig{Type: config.EngineAnthropic, APIKey: "ak"}},
		},
	}
	r, err := New(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, []string{"claude", "gpt", "local", "mock-1"}, r.ListModels())

	route, err := r.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "local", route.PublicModel)
	assert.Equal(t, "qwen2.5", route.UpstreamModel)
	assert.Equal(t, 0.3, route.Temperature)
	assert.Equal(t, 1000, route.MaxTokens)

	route, err = r.Resolve("claude")
	require.NoError(t, err)
	assert.Equal(t, "claude", route.UpstreamModel)

	_, err = r.Resolve("nope")
	assert.ErrorIs(t, err, ErrUnknownModel)
}

func TestNew_Errors(t *testing.T) {
	_, err := New(context.Background(), &config.Config{Models: []config.ModelConfig{
		{ID: "x", Engine: config.EngineConfig{Type: "telepathy"}},
	}})
	assert.Error(t, err)

	_, err = New(context.Background(), &config.Config{Models: []config.ModelConfig{
		{ID: "x", Engine: config.EngineConfig{Type: config.EngineMock}},
		{ID: "x", Engine: config.EngineConfig{Type: config.EngineMock}},
	}})
	assert.Error(t, err)

	_, err = New(context.Background(), &config.Config{
		Generation: config.GenerationConfig{DefaultModel: "missing"},
		Models:     []config.ModelConfig{{ID: "x", Engine: config.EngineConfig{Type: config.EngineMock}}},
	})
	assert.Error(t, err)
}

func TestFromRoutes(t *testing.T) {
	r := FromRoutes(Route{PublicModel: "a", Engine: mock.New()}, Route{PublicModel: "b", Engine: mock.New()})
	assert.Equal(t, "a", r.DefaultModel())
	route, ok := r.RouteForModel("b")
	require.True(t, ok)
	assert.Equal(t, "b", route.UpstreamModel)
}
