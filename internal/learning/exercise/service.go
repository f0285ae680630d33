package exercise

import (
	"context"

	"github.com/yungbote/codepath-backend/internal/structured/gateway"
)

type Request struct {
	Topic      string   `json:"topic" binding:"required"`
	Language   string   `json:"language"`
	Difficulty string   `json:"difficulty"`
	Skills     []string `json:"skills"`
	Context    string   `json:"context"`
	Model      string   `json:"model"`
}

type Service struct {
	gen gateway.Generator
}

func NewService(gen gateway.Generator) *Service {
	return &Service{gen: gen}
}

func (s *Service) Generate(ctx context.Context, req Request) (Exercise, error) {
	text, err := instructions.Render(req)
	if err != nil {
		return Exercise{}, err
	}
	return gateway.Run(ctx, s.gen, gateway.Prompt{
		CallSite:          CallSite,
		Instructions:      text,
		SchemaDescription: SchemaDescription,
		Schema:            Schema,
		Model:             req.Model,
	}, Normalize)
}

func (s *Service) PromptFingerprint() string { return instructions.Fingerprint() }
