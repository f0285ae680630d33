package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/codepath-backend/internal/data/repos/generation"
	"github.com/yungbote/codepath-backend/internal/platform/logger"
)

type GenerationRepo = generation.GenerationRepo
type GenerationListQuery = generation.ListQuery

type Repos struct {
	Generation GenerationRepo
}

func New(db *gorm.DB, log *logger.Logger) Repos {
	return Repos{Generation: generation.NewGenerationRepo(db, log)}
}
