package policy

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/oncallhq/pager-api/internal/middleware"
	"github.com/oncallhq/pager-api/internal/model"
	"github.com/oncallhq/pager-api/internal/service/policy"
	apperrors "github.com/oncallhq/pager-api/pkg/errors"
	"github.com/oncallhq/pager-api/pkg/httputil"
)

type Handler struct {
	policies *policy.Service
}

func NewHandler(policies *policy.Service) *Handler {
	return &Handler{policies: policies}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	policies := rg.Group("/policies")
	{
		policies.POST("", h.Create)
		policies.GET("", h.List)
		policies.GET("/:id", h.Get)
		policies.PUT("/:id", h.Update)
		policies.DELETE("/:id", h.Delete)
	}
}

type stepRequest struct {
	Order                 int      `json:"order"`
	Channels              []string `json:"channels" binding:"required,min=1,dive,oneof=SLACK EMAIL SMS VOICE"`
	DelaySeconds          int      `json:"delaySeconds"`
	RepeatCount           int      `json:"repeatCount"`
	RepeatIntervalSeconds int      `json:"repeatIntervalSeconds"`
}

type policyRequest struct {
	Name       string        `json:"name" binding:"required"`
	RotationID uuid.UUID     `json:"rotationId" binding:"required"`
	Enabled    *bool         `json:"enabled"`
	Steps      []stepRequest `json:"steps" binding:"required,min=1"`
}

func (r *policyRequest) toModel(workspaceID uuid.UUID) *model.PagingPolicy {
	p := &model.PagingPolicy{
		WorkspaceID: workspaceID,
		RotationID:  r.RotationID,
		Name:        r.Name,
		Enabled:     true,
	}
	if r.Enabled != nil {
		p.Enabled = *r.Enabled
	}
	for _, s := range r.Steps {
		channels := make(model.ChannelList, len(s.Channels))
		for i, c := range s.Channels {
			channels[i] = model.Channel(c)
		}
		p.Steps = append(p.Steps, &model.PagingStep{
			Order:                 s.Order,
			Channels:              channels,
			DelaySeconds:          s.DelaySeconds,
			RepeatCount:           s.RepeatCount,
			RepeatIntervalSeconds: s.RepeatIntervalSeconds,
		})
	}
	return p
}

func (h *Handler) Create(c *gin.Context) {
	var req policyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest(err.Error()))
		return
	}

	p := req.toModel(workspaceID(c))
	if err := h.policies.CreatePolicy(c.Request.Context(), p); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, p)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid policy ID"))
		return
	}
	p, err := h.policies.GetPolicy(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, p)
}

func (h *Handler) List(c *gin.Context) {
	policies, err := h.policies.ListPolicies(c.Request.Context(), workspaceID(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"policies": policies})
}

func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid policy ID"))
		return
	}

	var req policyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest(err.Error()))
		return
	}

	p := req.toModel(workspaceID(c))
	p.ID = id
	if err := h.policies.UpdatePolicy(c.Request.Context(), p); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, p)
}

func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid policy ID"))
		return
	}
	if err := h.policies.DeletePolicy(c.Request.Context(), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"deleted": id})
}

func workspaceID(c *gin.Context) uuid.UUID {
	raw, ok := c.Get(middleware.ContextWorkspaceID)
	if !ok {
		return uuid.Nil
	}
	id, _ := raw.(uuid.UUID)
	return id
}
