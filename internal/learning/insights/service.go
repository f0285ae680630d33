package insights

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/yungbote/codepath-backend/internal/observability"
	"github.com/yungbote/codepath-backend/internal/platform/logger"
	"github.com/yungbote/codepath-backend/internal/structured/gateway"
)

const DefaultTTL = 24 * time.Hour

// DefaultRefreshTimeout bounds a shared refresh once it is detached from its callers.
const DefaultRefreshTimeout = 2 * time.Minute

var ErrLearnerRequired = errors.New("learner id required")

// Store is the snapshot cache. Implementations live in internal/data/cache.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

type Progress struct {
	CompletedExercises int      `json:"completedExercises" binding:"gte=0"`
	AverageScore       float64  `json:"averageScore" binding:"gte=0,lte=100"`
	StreakDays         int      `json:"streakDays" binding:"gte=0"`
	RecentTopics       []string `json:"recentTopics"`
	RecentIssues       []string `json:"recentIssues"`
}

type Request struct {
	Progress Progress `json:"progress"`
	// Force regenerates even when a fresh snapshot exists.
	Force bool   `json:"force"`
	Model string `json:"model"`
}

type Snapshot struct {
	Insights    Insights  `json:"insights"`
	GeneratedAt time.Time `json:"generatedAt"`
	Cached      bool      `json:"cached"`
}

type Service struct {
	gen     gateway.Generator
	store   Store
	ttl     time.Duration
	log     *logger.Logger
	metrics *observability.Metrics
	group   singleflight.Group
	now     func() time.Time

	refreshTimeout time.Duration
}

func NewService(gen gateway.Generator, store Store, ttl time.Duration, log *logger.Logger, metrics *observability.Metrics) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{
		gen:     gen,
		store:   store,
		ttl:     ttl,
		log:     log.With("service", "InsightsService"),
		metrics: metrics,
		now:     time.Now,

		refreshTimeout: DefaultRefreshTimeout,
	}
}

func cacheKey(learnerID string) string { return "insights:" + learnerID }

// flightKey scopes refresh sharing to identical inputs: same learner, model and rendered prompt.
func flightKey(learnerID, model, text string) string {
	sum := sha256.Sum256([]byte(text))
	return learnerID + "\x00" + strings.TrimSpace(model) + "\x00" + hex.EncodeToString(sum[:])
}

// Get returns the learner's snapshot if one was generated within the TTL, unless req.Force is
// set. Otherwise it generates, stores and returns a new one. Concurrent refreshes with the same
// learner, model and progress share one generation, which runs detached from any single
// caller; a caller whose ctx ends stops waiting without failing the others. Cache failures
// are logged and bypassed.
func (s *Service) Get(ctx context.Context, learnerID string, req Request) (Snapshot, error) {
	learnerID = strings.TrimSpace(learnerID)
	if learnerID == "" {
		return Snapshot{}, ErrLearnerRequired
	}
	if !req.Force {
		if snap, ok := s.cached(ctx, learnerID); ok {
			return snap, nil
		}
	}

	text, err := instructions.Render(req.Progress)
	if err != nil {
		return Snapshot{}, err
	}
	ch := s.group.DoChan(flightKey(learnerID, req.Model, text), func() (interface{}, error) {
		genCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.refreshTimeout)
		defer cancel()

		ins, err := gateway.Run(genCtx, s.gen, gateway.Prompt{
			CallSite:          CallSite,
			Instructions:      text,
			SchemaDescription: SchemaDescription,
			Schema:            Schema,
			Model:             req.Model,
		}, gateway.Always(Normalize))
		if err != nil {
			return Snapshot{}, err
		}
		snap := Snapshot{Insights: ins, GeneratedAt: s.now().UTC()}
		s.save(genCtx, learnerID, snap)
		return snap, nil
	})

	select {
	case <-ctx.Done():
		return Snapshot{}, &gateway.CompletionBackendError{Backend: "shared-refresh", Model: req.Model, Err: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			return Snapshot{}, res.Err
		}
		return res.Val.(Snapshot), nil
	}
}

func (s *Service) cached(ctx context.Context, learnerID string) (Snapshot, bool) {
	if s.store == nil {
		return Snapshot{}, false
	}
	raw, ok, err := s.store.Get(ctx, cacheKey(learnerID))
	if err != nil {
		s.metrics.IncInsightsCache("error")
		s.log.Warn("insights cache read failed", "learner_id", learnerID, "error", err)
		return Snapshot{}, false
	}
	if !ok {
		s.metrics.IncInsightsCache("miss")
		return Snapshot{}, false
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		s.metrics.IncInsightsCache("error")
		s.log.Warn("insights cache entry unreadable", "learner_id", learnerID, "error", err)
		return Snapshot{}, false
	}
	if s.now().Sub(snap.GeneratedAt) >= s.ttl {
		s.metrics.IncInsightsCache("miss")
		return Snapshot{}, false
	}
	s.metrics.IncInsightsCache("hit")
	snap.Cached = true
	return snap, true
}

func (s *Service) save(ctx context.Context, learnerID string, snap Snapshot) {
	if s.store == nil {
		return
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		s.log.Warn("insights snapshot encode failed", "error", err)
		return
	}
	if err := s.store.Set(ctx, cacheKey(learnerID), raw, s.ttl); err != nil {
		s.log.Warn("insights cache write failed", "learner_id", learnerID, "error", err)
	}
}

func (s *Service) PromptFingerprint() string { return instructions.Fingerprint() }
