package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/codepath-backend/internal/http/response"
	"github.com/yungbote/codepath-backend/internal/learning/chat"
	"github.com/yungbote/codepath-backend/internal/learning/exercise"
	"github.com/yungbote/codepath-backend/internal/learning/insights"
	"github.com/yungbote/codepath-backend/internal/learning/review"
	"github.com/yungbote/codepath-backend/internal/learning/roadmap"
	"github.com/yungbote/codepath-backend/internal/platform/apierr"
	"github.com/yungbote/codepath-backend/internal/platform/ctxutil"
	"github.com/yungbote/codepath-backend/internal/platform/logger"
)

type GenerationHandlerDeps struct {
	Log       *logger.Logger
	Exercises *exercise.Service
	Reviews   *review.Service
	Roadmaps  *roadmap.Service
	Insights  *insights.Service
	Chat      *chat.Service
	Audit     *Auditor
}

type GenerationHandler struct {
	log       *logger.Logger
	exercises *exercise.Service
	reviews   *review.Service
	roadmaps  *roadmap.Service
	insights  *insights.Service
	chat      *chat.Service
	audit     *Auditor
}

func NewGenerationHandlerWithDeps(deps GenerationHandlerDeps) *GenerationHandler {
	log := deps.Log
	if log == nil {
		log = logger.NewNop()
	}
	return &GenerationHandler{
		log:       log.With("handler", "GenerationHandler"),
		exercises: deps.Exercises,
		reviews:   deps.Reviews,
		roadmaps:  deps.Roadmaps,
		insights:  deps.Insights,
		chat:      deps.Chat,
		audit:     deps.Audit,
	}
}

// POST /api/exercises/generate
func (h *GenerationHandler) GenerateExercise(c *gin.Context) {
	var req exercise.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, apierr.CodeInvalidRequest, err)
		return
	}
	start := time.Now()
	out, err := h.exercises.Generate(c.Request.Context(), req)
	h.finish(c, auditEntry{
		CallSite:    exercise.CallSite,
		LearnerID:   ctxutil.LearnerID(c.Request.Context()),
		Model:       req.Model,
		Fingerprint: h.exercises.PromptFingerprint(),
		Start:       start,
	}, out, err)
}

// POST /api/reviews
func (h *GenerationHandler) CreateReview(c *gin.Context) {
	var req review.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, apierr.CodeInvalidRequest, err)
		return
	}
	start := time.Now()
	out, err := h.reviews.Review(c.Request.Context(), req)
	h.finish(c, auditEntry{
		CallSite:    review.CallSite,
		LearnerID:   ctxutil.LearnerID(c.Request.Context()),
		Model:       req.Model,
		Fingerprint: h.reviews.PromptFingerprint(),
		Start:       start,
	}, out, err)
}

// POST /api/roadmaps/generate
func (h *GenerationHandler) GenerateRoadmap(c *gin.Context) {
	var req roadmap.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, apierr.CodeInvalidRequest, err)
		return
	}
	start := time.Now()
	out, err := h.roadmaps.Generate(c.Request.Context(), req)
	h.finish(c, auditEntry{
		CallSite:    roadmap.CallSite,
		LearnerID:   ctxutil.LearnerID(c.Request.Context()),
		Model:       req.Model,
		Fingerprint: h.roadmaps.PromptFingerprint(),
		Start:       start,
	}, out, err)
}

// POST /api/chat
func (h *GenerationHandler) Reply(c *gin.Context) {
	var req chat.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, apierr.CodeInvalidRequest, err)
		return
	}
	start := time.Now()
	out, err := h.chat.Reply(c.Request.Context(), req)
	h.finish(c, auditEntry{
		CallSite:    chat.CallSite,
		LearnerID:   ctxutil.LearnerID(c.Request.Context()),
		Model:       req.Model,
		Fingerprint: h.chat.PromptFingerprint(),
		Start:       start,
	}, out, err)
}

type insightsReq struct {
	insights.Request
	// LearnerID is only read when auth is disabled; a verified token always wins.
	LearnerID string `json:"learnerId"`
}

// POST /api/insights
func (h *GenerationHandler) GetInsights(c *gin.Context) {
	var req insightsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, apierr.CodeInvalidRequest, err)
		return
	}
	learnerID := resolveLearner(c, req.LearnerID)
	start := time.Now()
	snap, err := h.insights.Get(c.Request.Context(), learnerID, req.Request)
	if errors.Is(err, insights.ErrLearnerRequired) {
		response.RespondError(c, http.StatusBadRequest, apierr.CodeInvalidRequest, err)
		return
	}
	if err == nil && snap.Cached {
		response.RespondOK(c, snap)
		return
	}
	h.finish(c, auditEntry{
		CallSite:    insights.CallSite,
		LearnerID:   learnerID,
		Model:       req.Model,
		Fingerprint: h.insights.PromptFingerprint(),
		Start:       start,
	}, snap, err)
}

func (h *GenerationHandler) finish(c *gin.Context, e auditEntry, out any, err error) {
	if err != nil {
		h.audit.Record(c.Request.Context(), e, nil, err)
		_ = c.Error(err)
		response.RespondGenerationError(c, err)
		return
	}
	h.audit.Record(c.Request.Context(), e, out, nil)
	response.RespondOK(c, out)
}

func resolveLearner(c *gin.Context, fallback string) string {
	if id := ctxutil.LearnerID(c.Request.Context()); id != "" {
		return id
	}
	return strings.TrimSpace(fallback)
}
