package chat

import (
	"context"

	"github.com/yungbote/codepath-backend/internal/structured/gateway"
)

type Turn struct {
	Role    string `json:"role" binding:"required,oneof=learner tutor"`
	Content string `json:"content"`
}

type Request struct {
	Message       string `json:"message" binding:"required"`
	History       []Turn `json:"history" binding:"dive"`
	ExerciseTitle string `json:"exerciseTitle"`
	Code          string `json:"code"`
	Model         string `json:"model"`
}

type Service struct {
	gen gateway.Generator
}

func NewService(gen gateway.Generator) *Service {
	return &Service{gen: gen}
}

// Reply keeps only the most recent turns of req.History.
func (s *Service) Reply(ctx context.Context, req Request) (Reply, error) {
	if len(req.History) > MaxHistoryTurn {
		req.History = req.History[len(req.History)-MaxHistoryTurn:]
	}
	text, err := instructions.Render(req)
	if err != nil {
		return Reply{}, err
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
