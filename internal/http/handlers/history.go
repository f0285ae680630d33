package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/codepath-backend/internal/data/repos"
	"github.com/yungbote/codepath-backend/internal/http/response"
	"github.com/yungbote/codepath-backend/internal/pkg/dbctx"
	"github.com/yungbote/codepath-backend/internal/platform/apierr"
	"github.com/yungbote/codepath-backend/internal/platform/logger"
)

type HistoryHandler struct {
	log  *logger.Logger
	repo repos.GenerationRepo
}

func NewHistoryHandler(log *logger.Logger, repo repos.GenerationRepo) *HistoryHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &HistoryHandler{log: log.With("handler", "HistoryHandler"), repo: repo}
}

// GET /api/generations?callSite=review&limit=20
// learnerId is read from the query only when auth is disabled.
func (h *HistoryHandler) ListGenerations(c *gin.Context) {
	if h.repo == nil {
		response.RespondError(c, http.StatusNotFound, "audit_disabled", errAuditDisabled)
		return
	}
	learnerID := resolveLearner(c, c.Query("learnerId"))
	if learnerID == "" {
		response.RespondError(c, http.StatusBadRequest, apierr.CodeInvalidRequest, errMissingLearner)
		return
	}
	limit := 0
	if v := strings.TrimSpace(c.Query("limit")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	rows, err := h.repo.ListByLearner(dbctx.New(c.Request.Context()), repos.GenerationListQuery{
		LearnerID: learnerID,
		CallSite:  strings.TrimSpace(c.Query("callSite")),
		Limit:     limit,
	})
	if err != nil {
		h.log.Error("list generations failed", "error", err)
		response.RespondError(c, http.StatusInternalServerError, apierr.CodeInternal, errListFailed)
		return
	}
	response.RespondOK(c, gin.H{"generations": rows})
}
