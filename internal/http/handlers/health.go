package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

var (
	errMissingLearner = errors.New("learner id required")
	errListFailed     = errors.New("could not list generations")
	errAuditDisabled  = errors.New("generation history is not enabled")
)

// ReadinessCheck reports whether a dependency (database, cache) can serve traffic.
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type HealthHandler struct {
	checks []ReadinessCheck
}

func NewHealthHandler(checks ...ReadinessCheck) *HealthHandler {
	return &HealthHandler{checks: checks}
}

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// Ready fails with 503 listing every dependency that did not answer.
func (h *HealthHandler) Ready(c *gin.Context) {
	failed := gin.H{}
	for _, chk := range h.checks {
		if err := chk.Check(c.Request.Context()); err != nil {
			failed[chk.Name] = err.Error()
		}
	}
	if len(failed) > 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "failed": failed})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
