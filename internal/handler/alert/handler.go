package alert

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/oncallhq/pager-api/internal/middleware"
	"github.com/oncallhq/pager-api/internal/model"
	"github.com/oncallhq/pager-api/internal/service/alert"
	apperrors "github.com/oncallhq/pager-api/pkg/errors"
	"github.com/oncallhq/pager-api/pkg/httputil"
)

type Handler struct {
	alerts *alert.Service
}

func NewHandler(alerts *alert.Service) *Handler {
	return &Handler{alerts: alerts}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	groups := rg.Group("/alert-groups")
	{
		groups.POST("", h.Create)
		groups.GET("/:id", h.Get)
		groups.POST("/:id/ack", h.Acknowledge)
		groups.POST("/:id/resolve", h.Resolve)
		groups.POST("/:id/snooze", h.Snooze)
		groups.POST("/:id/reopen", h.Reopen)
		groups.GET("/:id/attempts", h.Attempts)
	}
}

type createAlertGroupRequest struct {
	Title string `json:"title" binding:"required"`
}

func (h *Handler) Create(c *gin.Context) {
	var req createAlertGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest(err.Error()))
		return
	}

	group := &model.AlertGroup{
		WorkspaceID: workspaceID(c),
		Title:       req.Title,
		Status:      model.AlertGroupStatusOpen,
	}
	if err := h.alerts.Create(c.Request.Context(), group); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, group)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid alert group ID"))
		return
	}
	group, err := h.alerts.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, group)
}

func (h *Handler) Acknowledge(c *gin.Context) {
	h.transition(c, h.alerts.Acknowledge)
}

func (h *Handler) Resolve(c *gin.Context) {
	h.transition(c, h.alerts.Resolve)
}

func (h *Handler) Reopen(c *gin.Context) {
	h.transition(c, h.alerts.Reopen)
}

type snoozeRequest struct {
	Until time.Time `json:"until" binding:"required"`
}

func (h *Handler) Snooze(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid alert group ID"))
		return
	}

	var req snoozeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest(err.Error()))
		return
	}

	if err := h.alerts.Snooze(c.Request.Context(), id, req.Until); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	h.respondWithGroup(c, id)
}

// Attempts returns the page history for an alert group, newest first.
func (h *Handler) Attempts(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid alert group ID"))
		return
	}
	attempts, err := h.alerts.Attempts(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"attempts": attempts})
}

func (h *Handler) transition(c *gin.Context, fn func(ctx context.Context, id uuid.UUID) error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid alert group ID"))
		return
	}
	if err := fn(c.Request.Context(), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	h.respondWithGroup(c, id)
}

func (h *Handler) respondWithGroup(c *gin.Context, id uuid.UUID) {
	group, err := h.alerts.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, group)
}

func workspaceID(c *gin.Context) uuid.UUID {
	raw, ok := c.Get(middleware.ContextWorkspaceID)
	if !ok {
		return uuid.Nil
	}
	id, _ := raw.(uuid.UUID)
	return id
}
