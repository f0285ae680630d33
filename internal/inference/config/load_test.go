package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolateEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"CODEPATH_CONFIG_PATH", "LOG_MODE", "HTTP_ADDR", "JWT_SECRET", "REDIS_ADDR", "REDIS_PASSWORD",
		"DATABASE_DRIVER", "DATABASE_DSN", "CODEPATH_DEFAULT_MODEL", "CODEPATH_LOG_SCHEMA_DRIFT",
		"OPENAI_API_KEY", "ANTHROPIC_API_KEY", "GEMINI_API_KEY",
	} {
		t.Setenv(k, "")
	}
	t.Chdir(t.TempDir())
}

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoad_Defaults(t *testing.T) {
	isolateEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "mock-1", cfg.Generation.DefaultModel)
	assert.Equal(t, 24*time.Hour, cfg.Generation.InsightsTTL.Duration)
	assert.Equal(t, 90*time.Second, cfg.HTTP.RequestTimeout.Duration)
	assert.Equal(t, "codepath:", cfg.Redis.KeyPrefix)
	assert.Empty(t, cfg.Database.Driver)
}

func TestLoad_VendorKeyAddsModel(t *testing.T) {
	isolateEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load()
	require.NoError(t, err)
	require.Len(t, cfg.Models, 2)
	assert.Equal(t, "gpt-4o-mini", cfg.Generation.DefaultModel)
	assert.Equal(t, EngineOpenAI, cfg.Models[1].Engine.Type)
	assert.Equal(t, "sk-test", cfg.Models[1].Engine.APIKey)
	assert.Equal(t, 60*time.Second, cfg.Models[1].Engine.Timeout.Duration)
}

func TestLoad_YAMLFile(t *testing.T) {
	isolateEnv(t)
	p := writeConfig(t, "config.yaml", `
env: production
http:
  addr: ":9000"
  request_timeout: 30s
generation:
  default_model: local
  insights_ttl: 1h
models:
  - id: local
    upstream_model: qwen2.5
    temperature: 0.2
    max_tokens: 2048
    engine:
      type: openai_http
      base_url: http://vllm:8000/
      timeout: 5000000000
  - id: claude
    engine:
      type: anthropic
database:
  driver: sqlite3
  dsn: "file::memory:"
`)
	t.Setenv("CODEPATH_CONFIG_PATH", p)
	t.Setenv("ANTHROPIC_API_KEY", "ak")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, ":9000", cfg.HTTP.Addr)
	assert.Equal(t, 30*time.Second, cfg.HTTP.RequestTimeout.Duration)
	assert.Equal(t, time.Hour, cfg.Generation.InsightsTTL.Duration)
	require.Len(t, cfg.Models, 2)

	local := cfg.Models[0]
	assert.Equal(t, EngineOAIHTTP, local.Engine.Type)
	assert.Equal(t, "http://vllm:8000", local.Engine.BaseURL)
	assert.Equal(t, "/v1/chat/completions", local.Engine.ChatCompletionsPath)
	assert.Equal(t, "json_object", local.Engine.JSONMode)
	assert.Equal(t, 5*time.Second, local.Engine.Timeout.Duration)
	assert.Equal(t, 2048, local.MaxTokens)

	assert.Equal(t, "ak", cfg.Models[1].Engine.APIKey)
	assert.Equal(t, "claude", cfg.Models[1].UpstreamModel)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
}

func TestLoad_JSONFileAndEnvOverrides(t *testing.T) {
	isolateEnv(t)
	p := writeConfig(t, "config.json", `{
  "http": {"addr": ":7000", "shutdown_timeout": "3s"},
  "models": [{"id": "m", "engine": {"type": "mock"}}]
}`)
	t.Setenv("CODEPATH_CONFIG_PATH", p)
	t.Setenv("HTTP_ADDR", ":7001")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":7001", cfg.HTTP.Addr)
	assert.Equal(t, 3*time.Second, cfg.HTTP.ShutdownTimeout.Duration)
	assert.Equal(t, 5*time.Second, cfg.HTTP.ReadHeaderTimeout.Duration, "defaults survive a partial file")
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "m", cfg.Generation.DefaultModel)
}

func TestLoad_ValidationErrors(t *testing.T) {
	cases := map[string]string{
		"missing base url":   `{"models":[{"id":"x","engine":{"type":"oai_http"}}]}`,
		"missing api key":    `{"models":[{"id":"x","engine":{"type":"gemini"}}]}`,
		"unknown engine":     `{"models":[{"id":"x","engine":{"type":"carrier-pigeon"}}]}`,
		"duplicate id":       `{"models":[{"id":"x","engine":{"type":"mock"}},{"id":"x","engine":{"type":"mock"}}]}`,
		"bad default model":  `{"generation":{"default_model":"nope"},"models":[{"id":"x","engine":{"type":"mock"}}]}`,
		"bad temperature":    `{"models":[{"id":"x","temperature":3,"engine":{"type":"mock"}}]}`,
		"bad json mode":      `{"models":[{"id":"x","engine":{"type":"oai_http","base_url":"http://h","json_mode":"grammar"}}]}`,
		"db without dsn":     `{"database":{"driver":"postgres"}}`,
		"unsupported driver": `{"database":{"driver":"mysql","dsn":"x"}}`,
		"no models":          `{"models":[]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			isolateEnv(t)
			t.Setenv("CODEPATH_CONFIG_PATH", writeConfig(t, "config.json", body))
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestDuration_UnmarshalJSON(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalJSON([]byte(`"1m"`)))
	assert.Equal(t, time.Minute, d.Duration)
	require.NoError(t, d.UnmarshalJSON([]byte(`1000`)))
	assert.Equal(t, time.Microsecond, d.Duration)
	require.NoError(t, d.UnmarshalJSON([]byte(`null`)))
	assert.Zero(t, d.Duration)
	assert.Error(t, d.UnmarshalJSON([]byte(`"soon"`)))
}
