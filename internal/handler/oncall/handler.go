package oncall

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/oncallhq/pager-api/internal/service/schedule"
	apperrors "github.com/oncallhq/pager-api/pkg/errors"
	"github.com/oncallhq/pager-api/pkg/httputil"
)

type Handler struct {
	schedules *schedule.Service
}

func NewHandler(schedules *schedule.Service) *Handler {
	return &Handler{schedules: schedules}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rotations := rg.Group("/rotations")
	{
		rotations.GET("/:id/oncall", h.OnCall)
		rotations.GET("/:id/schedule", h.Schedule)
	}
}

// OnCall answers "who is on call for this rotation at instant T".
// The at parameter defaults to now.
func (h *Handler) OnCall(c *gin.Context) {
	rotationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid rotation ID"))
		return
	}

	at := time.Now().UTC()
	if raw := c.Query("at"); raw != "" {
		at, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			httputil.RespondWithError(c, apperrors.BadRequest("at must be RFC 3339"))
			return
		}
	}

	status, err := h.schedules.OnCallAt(c.Request.Context(), rotationID, at)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, status)
}

// Schedule projects the materialized shift timeline over [from, to).
func (h *Handler) Schedule(c *gin.Context) {
	rotationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid rotation ID"))
		return
	}

	from, err := time.Parse(time.RFC3339, c.Query("from"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("from must be RFC 3339"))
		return
	}
	to, err := time.Parse(time.RFC3339, c.Query("to"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("to must be RFC 3339"))
		return
	}

	shifts, err := h.schedules.Schedule(c.Request.Context(), rotationID, from, to)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, gin.H{"shifts": shifts})
}
