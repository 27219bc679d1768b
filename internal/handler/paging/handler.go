package paging

import (
	"github.com/gin-gonic/gin"

	"github.com/oncallhq/pager-api/internal/service/paging"
	apperrors "github.com/oncallhq/pager-api/pkg/errors"
	"github.com/oncallhq/pager-api/pkg/httputil"
)

type Handler struct {
	pagings *paging.Service
}

func NewHandler(pagings *paging.Service) *Handler {
	return &Handler{pagings: pagings}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/pagings/trigger", h.Trigger)
}

// Trigger starts an escalation run. The work itself happens in the worker,
// so a successful trigger only means the first step was enqueued.
func (h *Handler) Trigger(c *gin.Context) {
	var req paging.TriggerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest(err.Error()))
		return
	}

	if err := h.pagings.Trigger(c.Request.Context(), &req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithAccepted(c, gin.H{
		"policy_id":      req.PolicyID,
		"alert_group_id": req.AlertGroupID,
	})
}
