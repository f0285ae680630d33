package generation

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/codepath-backend/internal/domain"
	"github.com/yungbote/codepath-backend/internal/pkg/dbctx"
	"github.com/yungbote/codepath-backend/internal/platform/logger"
)

type ListQuery struct {
	LearnerID string
	// CallSite filters when set.
	CallSite string
	Limit    int
}

type GenerationRepo interface {
	Create(dbc dbctx.Context, rows []*domain.GenerationRecord) ([]*domain.GenerationRecord, error)
	ListByLearner(dbc dbctx.Context, q ListQuery) ([]*domain.GenerationRecord, error)
	CountOutcomesSince(dbc dbctx.Context, since time.Time) (map[string]int64, error)
}

type generationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGenerationRepo(db *gorm.DB, log *logger.Logger) GenerationRepo {
	return &generationRepo{db: db, log: log.With("repo", "GenerationRepo")}
}

func (r *generationRepo) Create(dbc dbctx.Context, rows []*domain.GenerationRecord) ([]*domain.GenerationRecord, error) {
	if len(rows) == 0 {
		return []*domain.GenerationRecord{}, nil
	}
	if err := dbc.Conn(r.db).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListByLearner returns newest first; Limit defaults to 20 and is capped at 100.
func (r *generationRepo) ListByLearner(dbc dbctx.Context, q ListQuery) ([]*domain.GenerationRecord, error) {
	learnerID := strings.TrimSpace(q.LearnerID)
	if learnerID == "" {
		return nil, fmt.Errorf("missing learner_id")
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	query := dbc.Conn(r.db).
		Model(&domain.GenerationRecord{}).
		Where("learner_id = ?", learnerID)
	if site := strings.TrimSpace(q.CallSite); site != "" {
		query = query.Where("call_site = ?", site)
	}
	var out []*domain.GenerationRecord
	if err := query.Order("created_at DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *generationRepo) CountOutcomesSince(dbc dbctx.Context, since time.Time) (map[string]int64, error) {
	var rows []struct {
		Outcome string
		N       int64
	}
	if err := dbc.Conn(r.db).
		Model(&domain.GenerationRecord{}).
		Select("outcome, COUNT(*) AS n").
		Where("created_at >= ?", since).
		Group("outcome").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Outcome] = row.N
	}
	return out, nil
}
