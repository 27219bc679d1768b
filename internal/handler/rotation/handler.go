package rotation

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/oncallhq/pager-api/internal/middleware"
	"github.com/oncallhq/pager-api/internal/model"
	"github.com/oncallhq/pager-api/internal/service/rotation"
	apperrors "github.com/oncallhq/pager-api/pkg/errors"
	"github.com/oncallhq/pager-api/pkg/httputil"
)

type Handler struct {
	rotations *rotation.Service
}

func NewHandler(rotations *rotation.Service) *Handler {
	return &Handler{rotations: rotations}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rotations := rg.Group("/rotations")
	{
		rotations.POST("", h.Create)
		rotations.GET("", h.List)
		rotations.GET("/:id", h.Get)
		rotations.PUT("/:id", h.Update)
		rotations.DELETE("/:id", h.Delete)

		rotations.POST("/:id/layers", h.AddLayer)
		rotations.DELETE("/:id/layers/:layerId", h.RemoveLayer)
		rotations.POST("/:id/layers/:layerId/participants", h.AddParticipant)
		rotations.DELETE("/:id/layers/:layerId/participants/:participantId", h.RemoveParticipant)
		rotations.POST("/:id/overrides", h.AddOverride)
		rotations.DELETE("/:id/overrides/:overrideId", h.RemoveOverride)
	}
}

type createRotationRequest struct {
	Name     string `json:"name" binding:"required"`
	Timezone string `json:"timezone" binding:"omitempty,tzdata"`
}

func (h *Handler) Create(c *gin.Context) {
	var req createRotationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest(err.Error()))
		return
	}

	rot := &model.Rotation{
		WorkspaceID: workspaceID(c),
		Name:        req.Name,
		Timezone:    req.Timezone,
	}
	if err := h.rotations.CreateRotation(c.Request.Context(), rot); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, rot)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid rotation ID"))
		return
	}
	rot, err := h.rotations.GetRotation(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, rot)
}

func (h *Handler) List(c *gin.Context) {
	rotations, err := h.rotations.ListRotations(c.Request.Context(), workspaceID(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"rotations": rotations})
}

func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid rotation ID"))
		return
	}

	var req createRotationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest(err.Error()))
		return
	}

	rot, err := h.rotations.GetRotation(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	rot.Name = req.Name
	if req.Timezone != "" {
		rot.Timezone = req.Timezone
	}
	if err := h.rotations.UpdateRotation(c.Request.Context(), rot); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, rot)
}

func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid rotation ID"))
		return
	}
	if err := h.rotations.DeleteRotation(c.Request.Context(), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"deleted": id})
}

type addLayerRequest struct {
	Order                int                 `json:"order"`
	HandoffIntervalHours int                 `json:"handoffIntervalHours" binding:"required,min=1"`
	StartsAt             time.Time           `json:"startsAt" binding:"required"`
	EndsAt               *time.Time          `json:"endsAt"`
	IsShadow             bool                `json:"isShadow"`
	Restrictions         *model.Restrictions `json:"restrictions"`
}

func (h *Handler) AddLayer(c *gin.Context) {
	rotationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid rotation ID"))
		return
	}

	var req addLayerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest(err.Error()))
		return
	}

	layer := &model.Layer{
		RotationID:           rotationID,
		Order:                req.Order,
		HandoffIntervalHours: req.HandoffIntervalHours,
		StartsAt:             req.StartsAt,
		EndsAt:               req.EndsAt,
		IsShadow:             req.IsShadow,
		Restrictions:         req.Restrictions,
	}
	if err := h.rotations.AddLayer(c.Request.Context(), layer); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, layer)
}

func (h *Handler) RemoveLayer(c *gin.Context) {
	layerID, err := uuid.Parse(c.Param("layerId"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid layer ID"))
		return
	}
	if err := h.rotations.RemoveLayer(c.Request.Context(), layerID); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"deleted": layerID})
}

type addParticipantRequest struct {
	UserID   uuid.UUID `json:"userId" binding:"required"`
	Position int       `json:"position"`
}

func (h *Handler) AddParticipant(c *gin.Context) {
	layerID, err := uuid.Parse(c.Param("layerId"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid layer ID"))
		return
	}

	var req addParticipantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest(err.Error()))
		return
	}

	participant := &model.Participant{
		LayerID:  layerID,
		UserID:   req.UserID,
		Position: req.Position,
	}
	if err := h.rotations.AddParticipant(c.Request.Context(), participant); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, participant)
}

func (h *Handler) RemoveParticipant(c *gin.Context) {
	participantID, err := uuid.Parse(c.Param("participantId"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid participant ID"))
		return
	}
	if err := h.rotations.RemoveParticipant(c.Request.Context(), participantID); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"deleted": participantID})
}

type addOverrideRequest struct {
	UserID   uuid.UUID `json:"userId" binding:"required"`
	StartsAt time.Time `json:"startsAt" binding:"required"`
	EndsAt   time.Time `json:"endsAt" binding:"required"`
	Reason   *string   `json:"reason"`
}

func (h *Handler) AddOverride(c *gin.Context) {
	rotationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid rotation ID"))
		return
	}

	var req addOverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest(err.Error()))
		return
	}

	override := &model.Override{
		RotationID: rotationID,
		UserID:     req.UserID,
		StartsAt:   req.StartsAt,
		EndsAt:     req.EndsAt,
		Reason:     req.Reason,
	}
	if err := h.rotations.AddOverride(c.Request.Context(), override); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, override)
}

func (h *Handler) RemoveOverride(c *gin.Context) {
	overrideID, err := uuid.Parse(c.Param("overrideId"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid override ID"))
		return
	}
	if err := h.rotations.RemoveOverride(c.Request.Context(), overrideID); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"deleted": overrideID})
}

func workspaceID(c *gin.Context) uuid.UUID {
	raw, ok := c.Get(middleware.ContextWorkspaceID)
	if !ok {
		return uuid.Nil
	}
	id, _ := raw.(uuid.UUID)
	return id
}
