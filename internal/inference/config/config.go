package config

import "time"

type Duration struct {
	Duration time.Duration
}

type HTTPConfig struct {
	Addr              string   `json:"addr" yaml:"addr"`
	ReadHeaderTimeout Duration `json:"read_header_timeout" yaml:"read_header_timeout"`
	IdleTimeout       Duration `json:"idle_timeout" yaml:"idle_timeout"`
	ShutdownTimeout   Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`
	MaxRequestBytes   int64    `json:"max_request_bytes" yaml:"max_request_bytes"`

	// RequestTimeout bounds each generation request, including the upstream call.
	RequestTimeout Duration `json:"request_timeout" yaml:"request_timeout"`

	CORSOrigins []string `json:"cors_origins,omitempty" yaml:"cors_origins,omitempty"`
}

type AuthConfig struct {
	// JWTSecret enables HS256 bearer verification on /api routes. Empty disables auth.
	JWTSecret string `json:"jwt_secret,omitempty" yaml:"jwt_secret,omitempty"`
}

type GenerationConfig struct {
	// DefaultModel is used when a request does not name a model.
	DefaultModel string `json:"default_model,omitempty" yaml:"default_model,omitempty"`

	// InsightsTTL is how long a dashboard insights snapshot stays fresh.
	InsightsTTL Duration `json:"insights_ttl,omitempty" yaml:"insights_ttl,omitempty"`

	// LogSchemaDrift logs schema violations of repaired values (never fatal).
	LogSchemaDrift bool `json:"log_schema_drift,omitempty" yaml:"log_schema_drift,omitempty"`
}

type EngineConfig struct {
	// Type is one of mock, oai_http, openai, anthropic, gemini.
	Type string `json:"type" yaml:"type"`

	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	APIKey  string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// ChatCompletionsPath applies to oai_http only.
	ChatCompletionsPath string `json:"chat_completions_path,omitempty" yaml:"chat_completions_path,omitempty"`

	// JSONMode asks OpenAI-compatible backends for a JSON object response: "json_object" or "none".
	JSONMode string `json:"json_mode,omitempty" yaml:"json_mode,omitempty"`

	Timeout    Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	MaxRetries int      `json:"max_retries,omitempty" yaml:"max_retries,omitempty"`
}

type ModelConfig struct {
	ID string `json:"id" yaml:"id"`

	// UpstreamModel overrides the model name sent to the engine. Defaults to ID.
	UpstreamModel string `json:"upstream_model,omitempty" yaml:"upstream_model,omitempty"`

	Temperature float64 `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty"`

	Engine EngineConfig `json:"engine" yaml:"engine"`
}

type RedisConfig struct {
	Addr      string `json:"addr,omitempty" yaml:"addr,omitempty"`
	Password  string `json:"password,omitempty" yaml:"password,omitempty"`
	DB        int    `json:"db,omitempty" yaml:"db,omitempty"`
	KeyPrefix string `json:"key_prefix,omitempty" yaml:"key_prefix,omitempty"`
}

type DatabaseConfig struct {
	// Driver is postgres or sqlite; empty disables the generation audit log.
	Driver string `json:"driver,omitempty" yaml:"driver,omitempty"`
	DSN    string `json:"dsn,omitempty" yaml:"dsn,omitempty"`
}

type Config struct {
	Env        string           `json:"env" yaml:"env"`
	HTTP       HTTPConfig       `json:"http" yaml:"http"`
	Auth       AuthConfig       `json:"auth" yaml:"auth"`
	Generation GenerationConfig `json:"generation" yaml:"generation"`
	Models     []ModelConfig    `json:"models" yaml:"models"`
	Redis      RedisConfig      `json:"redis" yaml:"redis"`
	Database   DatabaseConfig   `json:"database" yaml:"database"`
}
