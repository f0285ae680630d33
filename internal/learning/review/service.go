package review

import (
	"context"

	"github.com/yungbote/codepath-backend/internal/structured/gateway"
)

type Request struct {
	Code                string `json:"code" binding:"required"`
	Language            string `json:"language"`
	ExerciseTitle       string `json:"exerciseTitle"`
	ExerciseDescription string `json:"exerciseDescription"`
	Model               string `json:"model"`
}

type Service struct {
	gen gateway.Generator
}

func NewService(gen gateway.Generator) *Service {
	return &Service{gen: gen}
}

func (s *Service) Review(ctx context.Context, req Request) (Result, error) {
	text, err := instructions.Render(req)
	if err != nil {
		return Result{}, err
	}
	return gateway.Run(ctx, s.gen, gateway.Prompt{
		CallSite:          CallSite,
		Instructions:      text,
		SchemaDescription: SchemaDescription,
		Schema:            Schema,
		Model:             req.Model,
	}, gateway.Always(Normalize))
}

func (s *Service) PromptFingerprint() string { return instructions.Fingerprint() }
