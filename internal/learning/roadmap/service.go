package roadmap

import (
	"context"

	"github.com/yungbote/codepath-backend/internal/structured/gateway"
)

type Request struct {
	Goal         string   `json:"goal" binding:"required"`
	CurrentLevel string   `json:"currentLevel"`
	Language     string   `json:"language"`
	WeeklyHours  int      `json:"weeklyHours" binding:"gte=0,lte=168"`
	KnownSkills  []string `json:"knownSkills"`
	Checkpoints  int      `json:"checkpoints" binding:"gte=0,lte=20"`
	Model        string   `json:"model"`
}

type Service struct {
	gen gateway.Generator
}

func NewService(gen gateway.Generator) *Service {
	return &Service{gen: gen}
}

func (s *Service) Generate(ctx context.Context, req Request) (Plan, error) {
	text, err := instructions.Render(req)
	if err != nil {
		return Plan{}, err
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
