// Package gemini is the Google Gemini backend built on generative-ai-go.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/yungbote/codepath-backend/internal/inference/config"
	"github.com/yungbote/codepath-backend/internal/inference/engine"
)

type Engine struct {
	client  *genai.Client
	timeout time.Duration
}

func New(ctx context.Context, cfg config.EngineConfig) (*Engine, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: api key is required")
	}
	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithEndpoint(cfg.BaseURL))
	}
	cl, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &Engine{client: cl, timeout: cfg.Timeout.Duration}, nil
}

func (e *Engine) Close() error {
	return e.client.Close()
}

func (e *Engine) GenerateText(ctx context.Context, model string, messages []engine.Message, opts engine.GenerateOptions) (string, error) {
	system, rest := engine.SplitSystem(messages)
	contents := toContents(rest)
	if len(contents) == 0 {
		return "", errors.New("no messages")
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	m := e.client.GenerativeModel(strings.TrimSpace(model))
	configure(m, system, opts)

	last := contents[len(contents)-1]
	var (
		resp *genai.GenerateContentResponse
		err  error
	)
	if len(contents) == 1 {
		resp, err = m.GenerateContent(ctx, last.Parts...)
	} else {
		cs := m.StartChat()
		cs.History = contents[:len(contents)-1]
		resp, err = cs.SendMessage(ctx, last.Parts...)
	}
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}

	txt := firstText(resp)
	if txt == "" {
		return "", errors.New("gemini generate: empty response")
	}
	return txt, nil
}

func configure(m *genai.GenerativeModel, system string, opts engine.GenerateOptions) {
	m.GenerationConfig = genai.GenerationConfig{
		Temperature: ptrFloat32(float32(opts.Temperature)),
	}
	if opts.MaxTokens > 0 {
		n := int32(opts.MaxTokens)
		m.GenerationConfig.MaxOutputTokens = &n
	}
	if opts.JSONSchema != nil {
		m.GenerationConfig.ResponseMIMEType = "application/json"
	}
	if system != "" {
		m.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(system)},
		}
	}
}

func toContents(messages []engine.Message) []*genai.Content {
	out := make([]*genai.Content, 0, len(messages))
	for _, msg := range messages {
		if strings.TrimSpace(msg.Content) == "" {
			continue
		}
		role := "user"
		if msg.Role == engine.RoleAssistant {
			role = "model"
		}
		out = append(out, &genai.Content{Role: role, Parts: []genai.Part{genai.Text(msg.Content)}})
	}
	return out
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		var b strings.Builder
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
		if b.Len() > 0 {
			return b.String()
		}
	}
	return ""
}

func ptrFloat32(v float32) *float32 { return &v }
