package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	EngineMock      = "mock"
	EngineOAIHTTP   = "oai_http"
	EngineOpenAI    = "openai"
	EngineAnthropic = "anthropic"
	EngineGemini    = "gemini"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

func (d *Duration) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "" || s == "null" {
		d.Duration = 0
		return nil
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		u, err := strconv.Unquote(s)
		if err != nil {
			return err
		}
		return d.parse(u)
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("duration must be a JSON string like \"5s\" or an int nanoseconds: %w", err)
	}
	d.Duration = time.Duration(n)
	return nil
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("duration must be a scalar, line %d", node.Line)
	}
	if node.Tag == "!!int" {
		n, err := strconv.ParseInt(node.Value, 10, 64)
		if err != nil {
			return err
		}
		d.Duration = time.Duration(n)
		return nil
	}
	if node.Tag == "!!null" {
		d.Duration = 0
		return nil
	}
	return d.parse(node.Value)
}

func (d *Duration) parse(s string) error {
	if strings.TrimSpace(s) == "" {
		d.Duration = 0
		return nil
	}
	dd, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return err
	}
	d.Duration = dd
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Duration.String())
}

func defaultConfig() *Config {
	return &Config{
		Env: "development",
		HTTP: HTTPConfig{
			Addr:              ":8080",
			ReadHeaderTimeout: Duration{Duration: 5 * time.Second},
			IdleTimeout:       Duration{Duration: 2 * time.Minute},
			ShutdownTimeout:   Duration{Duration: 15 * time.Second},
			RequestTimeout:    Duration{Duration: 90 * time.Second},
			MaxRequestBytes:   2 << 20,
		},
		Generation: GenerationConfig{
			InsightsTTL:    Duration{Duration: 24 * time.Hour},
			LogSchemaDrift: true,
		},
		Models: []ModelConfig{
			{ID: "mock-1", Engine: EngineConfig{Type: EngineMock}},
		},
		Redis: RedisConfig{KeyPrefix: "codepath:"},
	}
}

// Load builds the config from defaults, then an optional file, then environment overrides.
// The file is CODEPATH_CONFIG_PATH or ./config/config.{json,yaml,yml}.
func Load() (*Config, error) {
	cfg := defaultConfig()

	cfgPath := strings.TrimSpace(os.Getenv("CODEPATH_CONFIG_PATH"))
	if cfgPath == "" {
		if wd, err := os.Getwd(); err == nil {
			for _, name := range []string{"config.json", "config.yaml", "config.yml"} {
				p := filepath.Join(wd, "config", name)
				if _, err := os.Stat(p); err == nil {
					cfgPath = p
					break
				}
			}
		}
	}

	fromFile := cfgPath != ""
	if fromFile {
		if err := readFile(cfgPath, cfg); err != nil {
			return nil, err
		}
	}

	applyEnv(cfg, fromFile)

	if err := normalize(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readFile(path string, cfg *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	// decoders reuse slice elements; a file listing models replaces the defaults outright
	defaults := cfg.Models
	cfg.Models = nil
	defer func() {
		if cfg.Models == nil {
			cfg.Models = defaults
		}
	}()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return fmt.Errorf("config %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(b, cfg); err != nil {
			return fmt.Errorf("config %s: %w", path, err)
		}
	}
	return nil
}

var vendorKeys = []struct {
	env          string
	engineType   string
	defaultModel string
}{
	{"OPENAI_API_KEY", EngineOpenAI, "gpt-4o-mini"},
	{"ANTHROPIC_API_KEY", EngineAnthropic, "claude-sonnet-4-5"},
	{"GEMINI_API_KEY", EngineGemini, "gemini-2.0-flash"},
}

func applyEnv(cfg *Config, fromFile bool) {
	if v := strings.TrimSpace(os.Getenv("LOG_MODE")); v != "" {
		cfg.Env = v
	}
	if v := strings.TrimSpace(os.Getenv("HTTP_ADDR")); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv("JWT_SECRET")); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := strings.TrimSpace(os.Getenv("REDIS_ADDR")); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := strings.TrimSpace(os.Getenv("DATABASE_DRIVER")); v != "" {
		cfg.Database.Driver = v
	}
	if v := strings.TrimSpace(os.Getenv("DATABASE_DSN")); v != "" {
		cfg.Database.DSN = v
	}
	if v := strings.TrimSpace(os.Getenv("CODEPATH_DEFAULT_MODEL")); v != "" {
		cfg.Generation.DefaultModel = v
	}
	if v := strings.TrimSpace(os.Getenv("CODEPATH_LOG_SCHEMA_DRIFT")); v != "" {
		cfg.Generation.LogSchemaDrift = parseBool(v)
	}

	for _, vk := range vendorKeys {
		key := strings.TrimSpace(os.Getenv(vk.env))
		if key == "" {
			continue
		}
		found := false
		for i := range cfg.Models {
			e := &cfg.Models[i].Engine
			if strings.EqualFold(strings.TrimSpace(e.Type), vk.engineType) {
				found = true
				if e.APIKey == "" {
					e.APIKey = key
				}
			}
		}
		// without a config file, a vendor key alone is enough to get a working model
		if !found && !fromFile {
			cfg.Models = append(cfg.Models, ModelConfig{
				ID:     vk.defaultModel,
				Engine: EngineConfig{Type: vk.engineType, APIKey: key},
			})
		}
	}
}

func normalize(cfg *Config) error {
	if cfg.Env == "" {
		cfg.Env = "development"
	}
	if strings.TrimSpace(cfg.HTTP.Addr) == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.HTTP.MaxRequestBytes <= 0 {
		cfg.HTTP.MaxRequestBytes = 2 << 20
	}
	if cfg.HTTP.RequestTimeout.Duration < 0 {
		return errors.New("http.request_timeout must not be negative")
	}
	if cfg.Generation.InsightsTTL.Duration <= 0 {
		cfg.Generation.InsightsTTL = Duration{Duration: 24 * time.Hour}
	}

	if len(cfg.Models) == 0 {
		return errors.New("config must define at least one model")
	}
	seen := map[string]bool{}
	for i := range cfg.Models {
		m := &cfg.Models[i]
		m.ID = strings.TrimSpace(m.ID)
		if m.ID == "" {
			return errors.New("model id is required")
		}
		if seen[m.ID] {
			return fmt.Errorf("duplicate model id %q", m.ID)
		}
		seen[m.ID] = true
		if err := normalizeModel(m); err != nil {
			return err
		}
	}

	cfg.Generation.DefaultModel = strings.TrimSpace(cfg.Generation.DefaultModel)
	if cfg.Generation.DefaultModel == "" {
		cfg.Generation.DefaultModel = preferredDefault(cfg.Models)
	}
	if !seen[cfg.Generation.DefaultModel] {
		return fmt.Errorf("generation.default_model %q is not a configured model", cfg.Generation.DefaultModel)
	}

	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))
	switch cfg.Database.Driver {
	case "":
	case "postgres", "postgresql":
		cfg.Database.Driver = DriverPostgres
	case "sqlite", "sqlite3":
		cfg.Database.Driver = DriverSQLite
	default:
		return fmt.Errorf("unsupported database.driver %q", cfg.Database.Driver)
	}
	if cfg.Database.Driver != "" && strings.TrimSpace(cfg.Database.DSN) == "" {
		return fmt.Errorf("database.dsn is required for driver %q", cfg.Database.Driver)
	}

	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = "codepath:"
	}
	return nil
}

func normalizeModel(m *ModelConfig) error {
	e := &m.Engine
	e.Type = strings.ToLower(strings.TrimSpace(e.Type))
	if e.Type == "" {
		return fmt.Errorf("model %q missing engine.type", m.ID)
	}
	if e.Type == "openai_http" {
		e.Type = EngineOAIHTTP
	}

	m.UpstreamModel = strings.TrimSpace(m.UpstreamModel)
	if m.UpstreamModel == "" {
		m.UpstreamModel = m.ID
	}
	if m.Temperature < 0 || m.Temperature > 2 {
		return fmt.Errorf("model %q temperature must be within [0,2]", m.ID)
	}
	if m.MaxTokens < 0 {
		return fmt.Errorf("model %q invalid max_tokens", m.ID)
	}

	e.APIKey = strings.TrimSpace(e.APIKey)
	e.BaseURL = strings.TrimRight(strings.TrimSpace(e.BaseURL), "/")
	e.ChatCompletionsPath = strings.TrimSpace(e.ChatCompletionsPath)
	if e.Timeout.Duration < 0 {
		return fmt.Errorf("model %q invalid engine.timeout", m.ID)
	}
	if e.Timeout.Duration == 0 && e.Type != EngineMock {
		e.Timeout = Duration{Duration: 60 * time.Second}
	}
	if e.MaxRetries < 0 {
		return fmt.Errorf("model %q invalid engine.max_retries", m.ID)
	}

	switch e.Type {
	case EngineMock:
	case EngineOAIHTTP:
		if e.BaseURL == "" {
			return fmt.Errorf("model %q (oai_http) missing engine.base_url", m.ID)
		}
		if e.ChatCompletionsPath == "" {
			e.ChatCompletionsPath = "/v1/chat/completions"
		}
		e.JSONMode = strings.ToLower(strings.TrimSpace(e.JSONMode))
		switch e.JSONMode {
		case "":
			e.JSONMode = "json_object"
		case "json_object", "none":
		default:
			return fmt.Errorf("model %q invalid engine.json_mode=%q", m.ID, e.JSONMode)
		}
	case EngineOpenAI, EngineAnthropic, EngineGemini:
		if e.APIKey == "" {
			return fmt.Errorf("model %q (%s) missing engine.api_key", m.ID, e.Type)
		}
	default:
		return fmt.Errorf("model %q has unsupported engine.type %q", m.ID, e.Type)
	}
	return nil
}

// preferredDefault picks the first non-mock model, falling back to the first model.
func preferredDefault(models []ModelConfig) string {
	for _, m := range models {
		if m.Engine.Type != EngineMock {
			return m.ID
		}
	}
	return models[0].ID
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "t", "true", "y", "yes", "on":
		return true
	default:
		return false
	}
}
