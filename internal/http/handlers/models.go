package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/codepath-backend/internal/http/response"
)

// ModelLister is satisfied by *router.Router.
type ModelLister interface {
	ListModels() []string
	DefaultModel() string
}

type ModelsHandler struct {
	models ModelLister
}

func NewModelsHandler(models ModelLister) *ModelsHandler {
	return &ModelsHandler{models: models}
}

// GET /api/models
func (h *ModelsHandler) ListModels(c *gin.Context) {
	response.RespondOK(c, gin.H{
		"models":  h.models.ListModels(),
		"default": h.models.DefaultModel(),
	})
}
