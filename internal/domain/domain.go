package domain

import "github.com/yungbote/codepath-backend/internal/domain/generation"

type GenerationRecord = generation.Record
