package handlers

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	"github.com/yungbote/codepath-backend/internal/data/repos"
	"github.com/yungbote/codepath-backend/internal/domain"
	"github.com/yungbote/codepath-backend/internal/observability"
	"github.com/yungbote/codepath-backend/internal/pkg/dbctx"
	"github.com/yungbote/codepath-backend/internal/platform/apierr"
	"github.com/yungbote/codepath-backend/internal/platform/logger"
	"github.com/yungbote/codepath-backend/internal/structured/gateway"
)

// Auditor writes one generation_record row per call-site request. A nil repo disables it.
// Write failures are logged and counted, never returned to the caller.
type Auditor struct {
	repo         repos.GenerationRepo
	defaultModel string
	log          *logger.Logger
	metrics      *observability.Metrics
}

func NewAuditor(repo repos.GenerationRepo, defaultModel string, log *logger.Logger, metrics *observability.Metrics) *Auditor {
	if log == nil {
		log = logger.NewNop()
	}
	return &Auditor{repo: repo, defaultModel: defaultModel, log: log.With("component", "GenerationAudit"), metrics: metrics}
}

type auditEntry struct {
	CallSite    string
	LearnerID   string
	Model       string
	Fingerprint string
	Start       time.Time
}

func (a *Auditor) Record(ctx context.Context, e auditEntry, result any, genErr error) {
	if a == nil || a.repo == nil {
		return
	}
	model := e.Model
	if model == "" {
		model = a.defaultModel
	}
	row := &domain.GenerationRecord{
		CallSite:          e.CallSite,
		LearnerID:         e.LearnerID,
		Model:             model,
		PromptFingerprint: e.Fingerprint,
		Outcome:           gateway.OutcomeOK,
		DurationMS:        time.Since(e.Start).Milliseconds(),
	}
	if genErr != nil {
		ae := apierr.FromGeneration(genErr)
		row.ErrorCode = ae.Code
		row.Outcome = outcomeFor(ae.Code)
	} else if result != nil {
		if raw, err := json.Marshal(result); err == nil {
			row.Result = datatypes.JSON(raw)
		}
	}

	// the request context may already be past its deadline
	dbc := dbctx.New(context.WithoutCancel(ctx))
	if _, err := a.repo.Create(dbc, []*domain.GenerationRecord{row}); err != nil {
		a.metrics.IncAuditWrite("error")
		a.log.Warn("generation audit write failed", "call_site", e.CallSite, "error", err)
		return
	}
	a.metrics.IncAuditWrite("ok")
}

func outcomeFor(code string) string {
	switch code {
	case apierr.CodeValidation:
		return gateway.OutcomeInvalid
	case apierr.CodeUnrepairable:
		return gateway.OutcomeUnrepairable
	case apierr.CodeBackend, apierr.CodeTimeout:
		return gateway.OutcomeBackendError
	default:
		return code
	}
}
