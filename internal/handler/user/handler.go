package user

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/oncallhq/pager-api/internal/middleware"
	"github.com/oncallhq/pager-api/internal/model"
	"github.com/oncallhq/pager-api/internal/service/user"
	apperrors "github.com/oncallhq/pager-api/pkg/errors"
	"github.com/oncallhq/pager-api/pkg/httputil"
)

type Handler struct {
	users *user.Service
}

func NewHandler(users *user.Service) *Handler {
	return &Handler{users: users}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	users := rg.Group("/users")
	{
		users.POST("", h.Create)
		users.GET("", h.List)
		users.GET("/:id", h.Get)
	}
}

type createUserRequest struct {
	Name        string  `json:"name" binding:"required"`
	Email       *string `json:"email" binding:"omitempty,email"`
	Phone       *string `json:"phone"`
	SlackUserID *string `json:"slackUserId"`
}

func (h *Handler) Create(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest(err.Error()))
		return
	}

	u := &model.User{
		WorkspaceID: workspaceID(c),
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		SlackUserID: req.SlackUserID,
	}
	if err := h.users.Create(c.Request.Context(), u); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, u)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid user ID"))
		return
	}
	u, err := h.users.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, u)
}

func (h *Handler) List(c *gin.Context) {
	users, err := h.users.List(c.Request.Context(), workspaceID(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"users": users})
}

func workspaceID(c *gin.Context) uuid.UUID {
	raw, ok := c.Get(middleware.ContextWorkspaceID)
	if !ok {
		return uuid.Nil
	}
	id, _ := raw.(uuid.UUID)
	return id
}
